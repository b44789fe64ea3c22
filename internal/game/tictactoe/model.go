package tictactoe

import (
	"fmt"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/rules"
)

// lines enumerates the eight winning triples as 0-based cell indexes.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// boardState is the 3x3 grid. Cells hold 0 for empty, or the 1-based
// player number.
type boardState [9]int

// Model holds one tic-tac-toe game's board and players.
type Model struct {
	board   boardState
	players []chat.Address
}

func newModel(players []chat.Address) *Model {
	ps := make([]chat.Address, len(players))
	copy(ps, players)
	return &Model{players: ps}
}

// ApplyMove marks the requested square for player.
//
// Postcondition: Returns a rejection if the square is occupied or
// player is unknown; the board is unchanged on rejection.
func (m *Model) ApplyMove(player chat.Address, move string) rules.MoveResult {
	sq := squareOf(move)
	if sq == 0 {
		return rules.Rejected(fmt.Sprintf("%q is not a square. Pick 1 through 9.", move))
	}
	mark := m.playerNumber(player)
	if mark == 0 {
		return rules.Rejected("You are not playing this game.")
	}
	if m.board[sq-1] != 0 {
		return rules.Rejected(fmt.Sprintf("Square %d is already taken. Pick another.", sq))
	}
	m.board[sq-1] = mark
	return rules.Applied()
}

// ValidMove reports whether move names a square, regardless of
// occupancy.
func (m *Model) ValidMove(move string) bool {
	return squareOf(move) != 0
}

// GameOver reports a win when a line is filled by one player, and a
// draw when the board is full.
func (m *Model) GameOver() rules.GameOver {
	for _, line := range lines {
		a := m.board[line[0]]
		if a != 0 && a == m.board[line[1]] && a == m.board[line[2]] {
			return rules.GameOver{Done: true, Winner: m.players[a-1]}
		}
	}
	for _, cell := range m.board {
		if cell == 0 {
			return rules.GameOver{}
		}
	}
	return rules.GameOver{Done: true, Drawn: true}
}

// Board returns the grid for rendering.
func (m *Model) Board() rules.Board { return m.board }

// freeSquares returns the 1-based open squares in ascending order.
func (m *Model) freeSquares() []int {
	var free []int
	for i, cell := range m.board {
		if cell == 0 {
			free = append(free, i+1)
		}
	}
	return free
}

// playerNumber returns the 1-based player number, or 0 for strangers.
func (m *Model) playerNumber(player chat.Address) int {
	for i, p := range m.players {
		if p == player {
			return i + 1
		}
	}
	return 0
}
