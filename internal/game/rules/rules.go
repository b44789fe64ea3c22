// Package rules defines the contracts a game plugin implements: the
// Model (pure game rules) and the Presenter (board and announcement
// rendering). The engine is game-agnostic; one Game implementation is
// compiled in per deployment.
package rules

import (
	"regexp"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/random"
)

// MoveOutcome classifies the result of applying a move.
type MoveOutcome int

const (
	// MoveApplied means the move was applied and the turn ends.
	MoveApplied MoveOutcome = iota
	// MoveRejected means the move was illegal: the board is unchanged
	// and the same player retries.
	MoveRejected
	// MoveRepeatTurn means the move was applied but the same player's
	// logical turn continues (e.g. a multi-hop capture).
	MoveRepeatTurn
)

// MoveResult is the tagged result of Model.ApplyMove. Rejections and
// repeat turns are values, not errors.
type MoveResult struct {
	Outcome MoveOutcome
	// Message carries the rejection reason or repeat-turn notice.
	Message string
}

// Applied returns a turn-ending success result.
func Applied() MoveResult { return MoveResult{Outcome: MoveApplied} }

// Rejected returns a rejection result with the given reason.
func Rejected(reason string) MoveResult {
	return MoveResult{Outcome: MoveRejected, Message: reason}
}

// RepeatTurn returns a result keeping the turn with the mover.
func RepeatTurn(notice string) MoveResult {
	return MoveResult{Outcome: MoveRepeatTurn, Message: notice}
}

// GameOver reports whether and how a game has ended.
type GameOver struct {
	// Done is true once the game has ended.
	Done bool
	// Winner is the winning player's address, when a specific player won.
	Winner chat.Address
	// MoverWins means the player who just moved wins, whoever that was.
	MoverWins bool
	// Drawn means the game ended with no winner (e.g. a full board).
	Drawn bool
}

// Board is a game plugin's opaque board state, understood only by the
// matching Presenter.
type Board any

// Model holds one game's board state and rules.
type Model interface {
	// ApplyMove applies the player's move token to the board.
	ApplyMove(player chat.Address, move string) MoveResult
	// ValidMove reports whether move is syntactically a move for this
	// game (it may still be illegal on the current board).
	ValidMove(move string) bool
	// GameOver reports the end-of-game state after the latest move.
	GameOver() GameOver
	// Board returns the current board state for rendering.
	Board() Board
}

// Presenter renders a game's boards and announcements.
type Presenter interface {
	// RenderBoard renders the board as chat text.
	RenderBoard(b Board) string
	// PlayerToken returns the token for the player at turn-order index i.
	PlayerToken(i int) string
	// MoveAnnouncement phrases a move made by the named player.
	MoveAnnouncement(playerName, move string) string
	// StartAnnouncement phrases the game-start message for the named
	// players, in turn order.
	StartAnnouncement(playerNames []string) string
}

// ComputerPlayer generates moves for the built-in computer opponent.
type ComputerPlayer interface {
	// ChooseMove picks a move for the player at address self on the
	// given board. It returns false if no legal move exists.
	ChooseMove(m Model, self chat.Address, src random.Source) (string, bool)
}

// Game bundles a playable game's metadata and factories.
type Game interface {
	// Name is the game's display name (e.g. "tic-tac-toe").
	Name() string
	// MinPlayers is the minimum player count for a session.
	MinPlayers() int
	// MaxPlayers is the maximum player count for a session.
	MaxPlayers() int
	// MovePattern matches this game's move tokens.
	MovePattern() *regexp.Regexp
	// NewModel creates a fresh board for the given players in turn order.
	NewModel(players []chat.Address) Model
	// Presenter returns the game's rendering adapter.
	Presenter() Presenter
	// ComputerPlayer returns the computer opponent, if the game
	// supports one.
	ComputerPlayer() (ComputerPlayer, bool)
}
