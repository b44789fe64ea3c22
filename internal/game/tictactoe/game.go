// Package tictactoe implements the bundled tic-tac-toe game plugin:
// a 3x3 board addressed by squares 1 through 9, with a computer
// opponent.
package tictactoe

import (
	"regexp"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/rules"
)

var movePattern = regexp.MustCompile(`^(?:move\s+)?([1-9])$`)

// Game is the tic-tac-toe plugin. It is stateless; per-session state
// lives in the Model.
type Game struct{}

// New returns the tic-tac-toe game plugin.
func New() *Game { return &Game{} }

// Name returns the game's display name.
func (g *Game) Name() string { return "tic-tac-toe" }

// MinPlayers returns 2.
func (g *Game) MinPlayers() int { return 2 }

// MaxPlayers returns 2.
func (g *Game) MaxPlayers() int { return 2 }

// MovePattern matches a bare square digit, optionally prefixed with
// "move".
func (g *Game) MovePattern() *regexp.Regexp { return movePattern }

// NewModel creates a fresh board. players[0] plays X and moves are
// accepted from either player in whatever turn order the session
// enforces.
func (g *Game) NewModel(players []chat.Address) rules.Model {
	return newModel(players)
}

// Presenter returns the board renderer.
func (g *Game) Presenter() rules.Presenter { return presenter{} }

// ComputerPlayer returns the built-in opponent.
func (g *Game) ComputerPlayer() (rules.ComputerPlayer, bool) {
	return computerPlayer{}, true
}

// squareOf extracts the 1-based square number from a move token, or 0
// if the token is not a move.
func squareOf(move string) int {
	m := movePattern.FindStringSubmatch(move)
	if m == nil {
		return 0
	}
	return int(m[1][0] - '0')
}
