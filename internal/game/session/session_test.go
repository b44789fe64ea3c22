package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/random"
	"github.com/parlorbot/parlor/internal/game/rules"
	"github.com/parlorbot/parlor/internal/testutil"
)

const (
	alice    = chat.Address("alice@example.org")
	bob      = chat.Address("bob@example.org")
	computer = chat.Address("cpu@example.org")
)

var room = chat.Destination{Channel: "parlor", Topic: "table-1"}

// scriptStep is one scripted ApplyMove outcome, with the GameOver state
// the model reports once the step has been consumed.
type scriptStep struct {
	result rules.MoveResult
	over   rules.GameOver
}

type scriptModel struct {
	steps []scriptStep
	next  int
	over  rules.GameOver
	moves []string
}

func (m *scriptModel) ApplyMove(_ chat.Address, move string) rules.MoveResult {
	m.moves = append(m.moves, move)
	if m.next >= len(m.steps) {
		return rules.Applied()
	}
	step := m.steps[m.next]
	m.next++
	if step.result.Outcome != rules.MoveRejected {
		m.over = step.over
	}
	return step.result
}

func (m *scriptModel) ValidMove(string) bool { return true }

func (m *scriptModel) GameOver() rules.GameOver { return m.over }

func (m *scriptModel) Board() rules.Board { return fmt.Sprintf("board after %d", m.next) }

type plainPresenter struct{}

func (plainPresenter) RenderBoard(b rules.Board) string { return fmt.Sprint(b) }

func (plainPresenter) PlayerToken(i int) string { return fmt.Sprintf("P%d", i+1) }

func (plainPresenter) MoveAnnouncement(name, move string) string {
	return fmt.Sprintf("%s plays %s.", name, move)
}

func (plainPresenter) StartAnnouncement(names []string) string {
	return fmt.Sprintf("Game on: %s.", strings.Join(names, " vs "))
}

// queueComputer plays pre-queued moves and runs out when the queue
// empties.
type queueComputer struct {
	moves []string
}

func (c *queueComputer) ChooseMove(rules.Model, chat.Address, random.Source) (string, bool) {
	if len(c.moves) == 0 {
		return "", false
	}
	move := c.moves[0]
	c.moves = c.moves[1:]
	return move, true
}

type scriptGame struct {
	model *scriptModel
	cp    rules.ComputerPlayer
}

func (g *scriptGame) Name() string                            { return "script" }
func (g *scriptGame) MinPlayers() int                         { return 2 }
func (g *scriptGame) MaxPlayers() int                         { return 2 }
func (g *scriptGame) MovePattern() *regexp.Regexp             { return regexp.MustCompile(`^m[0-9]+$`) }
func (g *scriptGame) NewModel([]chat.Address) rules.Model     { return g.model }
func (g *scriptGame) Presenter() rules.Presenter              { return plainPresenter{} }
func (g *scriptGame) ComputerPlayer() (rules.ComputerPlayer, bool) {
	return g.cp, g.cp != nil
}

type fixture struct {
	session   *Session
	transport *testutil.RecordingTransport
	model     *scriptModel
}

func newFixture(t *testing.T, steps []scriptStep) *fixture {
	t.Helper()
	model := &scriptModel{steps: steps}
	transport := &testutil.RecordingTransport{}
	cfg := Config{
		Game:      &scriptGame{model: model},
		Transport: transport,
		Logger:    zap.NewNop(),
		Random:    random.NewFixedSource(0),
		Players:   []chat.Address{alice, bob},
		Names: map[chat.Address]string{
			alice: "Alice",
			bob:   "Bob",
		},
		FirstTurn: 0,
		Dest:      room,
		Help:      "Send m<n> to move.",
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return &fixture{session: s, transport: transport, model: model}
}

func TestNewRejectsBadConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Game:      &scriptGame{model: &scriptModel{}},
			Transport: &testutil.RecordingTransport{},
			Logger:    zap.NewNop(),
			Random:    random.NewFixedSource(0),
			Players:   []chat.Address{alice, bob},
			FirstTurn: 0,
			Dest:      room,
		}
	}

	t.Run("too few players", func(t *testing.T) {
		cfg := base()
		cfg.Players = []chat.Address{alice}
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "player count")
	})

	t.Run("first turn out of range", func(t *testing.T) {
		cfg := base()
		cfg.FirstTurn = 2
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "first turn")
	})
}

func TestStartAnnouncesGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.Start(ctx)
	require.NoError(t, err)
	assert.Nil(t, end)

	texts := f.transport.ChannelTexts(room)
	require.Len(t, texts, 3)
	assert.Equal(t, "Game on: Alice vs Bob.", texts[0])
	assert.Contains(t, texts[1], "board")
	assert.Equal(t, "It's your turn, Alice.", texts[2])
	assert.Equal(t, alice, f.session.Current())
}

func TestMoveOutOfTurn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, bob, "m5")
	require.NoError(t, err)
	assert.Nil(t, end)

	texts := f.transport.ChannelTexts(room)
	require.Len(t, texts, 1)
	assert.Equal(t, "It's Alice's turn.", texts[0])
	assert.Equal(t, alice, f.session.Current())
	assert.Empty(t, f.model.moves)
}

func TestMoveAppliedAdvancesTurn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	assert.Nil(t, end)

	texts := f.transport.ChannelTexts(room)
	require.Len(t, texts, 3)
	assert.Equal(t, "Alice plays m1.", texts[0])
	assert.Equal(t, "It's your turn, Bob.", texts[2])
	assert.Equal(t, bob, f.session.Current())
	assert.Equal(t, []string{"m1"}, f.model.moves)
}

func TestMoveRejectedKeepsTurn(t *testing.T) {
	f := newFixture(t, []scriptStep{
		{result: rules.Rejected("That square is taken.")},
	})
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	assert.Nil(t, end)

	texts := f.transport.ChannelTexts(room)
	require.Len(t, texts, 1)
	assert.Equal(t, "That square is taken.", texts[0])
	assert.Equal(t, alice, f.session.Current())
}

func TestRepeatTurnKeepsMover(t *testing.T) {
	f := newFixture(t, []scriptStep{
		{result: rules.RepeatTurn("Jump again.")},
	})
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	assert.Nil(t, end)

	texts := f.transport.ChannelTexts(room)
	require.Len(t, texts, 3)
	assert.Equal(t, "Alice plays m1.", texts[0])
	assert.Equal(t, "Jump again.", texts[1])
	assert.Equal(t, alice, f.session.Current())
}

func TestWinningMoveEndsSession(t *testing.T) {
	f := newFixture(t, []scriptStep{
		{result: rules.Applied(), over: rules.GameOver{Done: true, MoverWins: true}},
	})
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m3")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.False(t, end.Drawn)
	assert.Equal(t, []chat.Address{alice}, end.Winners)
	assert.Equal(t, []chat.Address{bob}, end.Losers)
	assert.True(t, f.session.Ended())
	assert.Contains(t, f.transport.AllTexts(), "Alice wins!")
}

func TestNamedWinner(t *testing.T) {
	f := newFixture(t, []scriptStep{
		{result: rules.Applied(), over: rules.GameOver{Done: true, Winner: bob}},
	})
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m3")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.Equal(t, []chat.Address{bob}, end.Winners)
	assert.Equal(t, []chat.Address{alice}, end.Losers)
	assert.Contains(t, f.transport.AllTexts(), "Bob wins!")
}

func TestBoardExhaustionDraws(t *testing.T) {
	f := newFixture(t, []scriptStep{
		{result: rules.Applied(), over: rules.GameOver{Done: true, Drawn: true}},
	})
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m9")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.True(t, end.Drawn)
	assert.Empty(t, end.Winners)
	assert.Empty(t, end.Losers)
	assert.Contains(t, f.transport.AllTexts(), "It's a draw!")
}

func TestForfeit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "forfeit")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.Equal(t, []chat.Address{alice}, end.Losers)
	assert.Equal(t, []chat.Address{bob}, end.Winners)
	assert.True(t, f.session.Ended())
	texts := f.transport.AllTexts()
	assert.Contains(t, texts, "Alice forfeits the game.")
	assert.Contains(t, texts, "Bob wins!")
}

func TestResignAlias(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, bob, "resign")
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.Equal(t, []chat.Address{bob}, end.Losers)
}

func TestForfeitOutOfTurn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// bob does not hold the turn but may still concede
	end, err := f.session.HandleMessage(ctx, bob, "forfeit")
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.Equal(t, []chat.Address{bob}, end.Losers)
}

func TestDrawBallot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "draw")
	require.NoError(t, err)
	assert.Nil(t, end)
	assert.Contains(t, f.transport.AllTexts()[0], "Alice proposes a draw.")

	end, err = f.session.HandleMessage(ctx, bob, "draw")
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.True(t, end.Drawn)
	assert.True(t, f.session.Ended())
}

func TestDrawBallotSupersededByMove(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.session.HandleMessage(ctx, alice, "draw")
	require.NoError(t, err)

	// Alice plays on instead of waiting for Bob's answer.
	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	assert.Nil(t, end)

	// Bob's draw now opens a fresh ballot rather than completing the
	// abandoned one.
	end, err = f.session.HandleMessage(ctx, bob, "draw")
	require.NoError(t, err)
	assert.Nil(t, end)
	assert.Contains(t, f.transport.AllTexts(), "Bob proposes a draw. Send \"draw\" to agree.")

	end, err = f.session.HandleMessage(ctx, alice, "draw")
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.True(t, end.Drawn)
}

func TestUnrecognizedMessageGetsHelp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "what do I do")
	require.NoError(t, err)
	assert.Nil(t, end)
	assert.Contains(t, f.transport.AllTexts(), "Send m<n> to move.")
	assert.Empty(t, f.model.moves)
}

func TestHandleMessageAfterEnd(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.session.HandleMessage(ctx, alice, "forfeit")
	require.NoError(t, err)

	_, err = f.session.HandleMessage(ctx, bob, "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already ended")
}

func TestMigrationHandshakeState(t *testing.T) {
	f := newFixture(t, nil)
	other := chat.Destination{Channel: "parlor", Topic: "table-2"}

	_, pending := f.session.PendingMigration()
	assert.False(t, pending)

	f.session.SetPendingMigration(other)
	got, pending := f.session.PendingMigration()
	assert.True(t, pending)
	assert.Equal(t, other, got)

	f.session.ClearPendingMigration()
	_, pending = f.session.PendingMigration()
	assert.False(t, pending)

	f.session.SetPendingMigration(other)
	f.session.Rebind(other)
	assert.Equal(t, other, f.session.Dest())
	_, pending = f.session.PendingMigration()
	assert.False(t, pending)
}

func newComputerFixture(t *testing.T, steps []scriptStep, cpuMoves []string, firstTurn int) *fixture {
	t.Helper()
	model := &scriptModel{steps: steps}
	transport := &testutil.RecordingTransport{}
	cfg := Config{
		Game:      &scriptGame{model: model, cp: &queueComputer{moves: cpuMoves}},
		Transport: transport,
		Logger:    zap.NewNop(),
		Random:    random.NewFixedSource(0),
		Players:   []chat.Address{alice, computer},
		Names: map[chat.Address]string{
			alice:    "Alice",
			computer: "Computer",
		},
		FirstTurn: firstTurn,
		Dest:      chat.Private,
		Computer:  computer,
		Help:      "Send m<n> to move.",
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return &fixture{session: s, transport: transport, model: model}
}

func TestComputerRepliesAfterHumanMove(t *testing.T) {
	f := newComputerFixture(t, nil, []string{"m7"}, 0)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	assert.Nil(t, end)

	assert.Equal(t, []string{"m1", "m7"}, f.model.moves)
	assert.Equal(t, alice, f.session.Current())

	// direct-message games fan out to humans only
	assert.Empty(t, f.transport.PrivateTo(computer))
	assert.Contains(t, f.transport.PrivateTo(alice), "Computer plays m7.")
}

func TestComputerOpensWhenFirst(t *testing.T) {
	f := newComputerFixture(t, nil, []string{"m5"}, 1)
	ctx := context.Background()

	end, err := f.session.Start(ctx)
	require.NoError(t, err)
	assert.Nil(t, end)

	assert.Equal(t, []string{"m5"}, f.model.moves)
	assert.Equal(t, alice, f.session.Current())
}

func TestComputerWithNoMoveForfeits(t *testing.T) {
	f := newComputerFixture(t, nil, nil, 0)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.Equal(t, []chat.Address{computer}, end.Losers)
	assert.Equal(t, []chat.Address{alice}, end.Winners)
	assert.Contains(t, f.transport.PrivateTo(alice), "Computer forfeits the game.")
}

func TestComputerWinningMove(t *testing.T) {
	f := newComputerFixture(t, []scriptStep{
		{result: rules.Applied()},
		{result: rules.Applied(), over: rules.GameOver{Done: true, MoverWins: true}},
	}, []string{"m8"}, 0)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "m1")
	require.NoError(t, err)
	require.NotNil(t, end)

	assert.Equal(t, []chat.Address{computer}, end.Winners)
	assert.Equal(t, []chat.Address{alice}, end.Losers)
	assert.Contains(t, f.transport.PrivateTo(alice), "Computer wins!")
}

func TestComputerAutoVotesDraw(t *testing.T) {
	f := newComputerFixture(t, nil, nil, 0)
	ctx := context.Background()

	end, err := f.session.HandleMessage(ctx, alice, "draw")
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.True(t, end.Drawn)
}

func TestTurnRotation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		model := &scriptModel{}
		s, err := New(Config{
			Game:      &scriptGame{model: model},
			Transport: &testutil.RecordingTransport{},
			Logger:    zap.NewNop(),
			Random:    random.NewFixedSource(0),
			Players:   []chat.Address{alice, bob},
			FirstTurn: 0,
			Dest:      room,
		})
		if err != nil {
			t.Fatalf("creating session: %v", err)
		}
		ctx := context.Background()

		moves := rapid.IntRange(0, 20).Draw(t, "moves")
		players := s.Players()
		for i := 0; i < moves; i++ {
			mover := players[i%len(players)]
			end, err := s.HandleMessage(ctx, mover, fmt.Sprintf("m%d", i))
			if err != nil || end != nil {
				t.Fatalf("unexpected end or error at move %d: %v %v", i, end, err)
			}
		}
		if got, want := s.Current(), players[moves%len(players)]; got != want {
			t.Fatalf("after %d moves current = %s, want %s", moves, got, want)
		}
	})
}
