package tictactoe

import (
	"fmt"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/random"
	"github.com/parlorbot/parlor/internal/game/rules"
)

// computerPlayer takes an immediate win when one exists, blocks an
// immediate loss, and otherwise plays a random open square.
type computerPlayer struct{}

func (computerPlayer) ChooseMove(m rules.Model, self chat.Address, src random.Source) (string, bool) {
	model, ok := m.(*Model)
	if !ok {
		return "", false
	}

	free := model.freeSquares()
	if len(free) == 0 {
		return "", false
	}

	me := model.playerNumber(self)
	if me == 0 {
		return "", false
	}
	opponent := 1
	if me == 1 {
		opponent = 2
	}

	if sq := winningSquare(model.board, me); sq != 0 {
		return fmt.Sprintf("%d", sq), true
	}
	if sq := winningSquare(model.board, opponent); sq != 0 {
		return fmt.Sprintf("%d", sq), true
	}

	return fmt.Sprintf("%d", free[src.Intn(len(free))]), true
}

// winningSquare returns the 1-based square that completes a line for
// mark, or 0 when no such square exists.
func winningSquare(board boardState, mark int) int {
	for _, line := range lines {
		count, empty := 0, -1
		for _, cell := range line {
			switch board[cell] {
			case mark:
				count++
			case 0:
				empty = cell
			}
		}
		if count == 2 && empty >= 0 {
			return empty + 1
		}
	}
	return 0
}
