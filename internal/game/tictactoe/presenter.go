package tictactoe

import (
	"fmt"
	"strings"

	"github.com/parlorbot/parlor/internal/game/rules"
)

var tokens = [2]string{"X", "O"}

// presenter renders boards as monospace chat text. Empty squares show
// their number so players know what to type.
type presenter struct{}

func (presenter) RenderBoard(b rules.Board) string {
	board, ok := b.(boardState)
	if !ok {
		return fmt.Sprintf("%v", b)
	}

	cell := func(i int) string {
		switch board[i] {
		case 1:
			return tokens[0]
		case 2:
			return tokens[1]
		default:
			return fmt.Sprintf("%d", i+1)
		}
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	for row := 0; row < 3; row++ {
		base := row * 3
		fmt.Fprintf(&sb, " %s | %s | %s \n", cell(base), cell(base+1), cell(base+2))
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
	sb.WriteString("```")
	return sb.String()
}

func (presenter) PlayerToken(i int) string {
	if i >= 0 && i < len(tokens) {
		return tokens[i]
	}
	return "?"
}

func (presenter) MoveAnnouncement(playerName, move string) string {
	if sq := squareOf(move); sq != 0 {
		return fmt.Sprintf("%s takes square %d.", playerName, sq)
	}
	return fmt.Sprintf("%s plays %s.", playerName, move)
}

func (presenter) StartAnnouncement(playerNames []string) string {
	parts := make([]string, len(playerNames))
	for i, name := range playerNames {
		token := "?"
		if i < len(tokens) {
			token = tokens[i]
		}
		parts[i] = fmt.Sprintf("%s (%s)", name, token)
	}
	return fmt.Sprintf("Tic-tac-toe: %s. Send a square number 1-9 to move.",
		strings.Join(parts, " vs "))
}
