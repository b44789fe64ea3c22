// Package session provides one active game's turn loop: move handling,
// draw ballots, forfeits, and computer-opponent moves.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/command"
	"github.com/parlorbot/parlor/internal/game/random"
	"github.com/parlorbot/parlor/internal/game/rules"
)

// maxComputerMoves caps consecutive computer moves in one handler pass,
// so a misbehaving plugin cannot spin forever.
const maxComputerMoves = 64

// End summarizes how a session ended. The orchestrator uses it to
// credit statistics and tear the session down.
type End struct {
	// Drawn is true when the game ended with no winner.
	Drawn bool
	// Winners are the players credited a win.
	Winners []chat.Address
	// Losers are the players credited a loss.
	Losers []chat.Address
}

// Config carries everything a Session needs.
type Config struct {
	// Game is the game plugin.
	Game rules.Game
	// Transport delivers outbound messages.
	Transport chat.Transport
	// Logger must be non-nil.
	Logger *zap.Logger
	// Random picks computer moves.
	Random random.Source
	// Players is the turn-ordered player list.
	Players []chat.Address
	// Names maps each player to a display name.
	Names map[chat.Address]string
	// FirstTurn is the index of the initial turn holder.
	FirstTurn int
	// Dest is the channel topic the game is bound to; the private
	// sentinel for direct-message games.
	Dest chat.Destination
	// Computer is the computer opponent's address, when it plays.
	Computer chat.Address
	// Help is the game's contextual help text.
	Help string
}

// Session is one active game. Not safe for concurrent use; the engine
// processes one message at a time.
type Session struct {
	id        string
	game      rules.Game
	model     rules.Model
	presenter rules.Presenter
	transport chat.Transport
	logger    *zap.Logger
	rand      random.Source

	players  []chat.Address
	names    map[chat.Address]string
	turn     int
	dest     chat.Destination
	computer chat.Address
	help     string

	// drawVotes is non-nil while a draw ballot is open.
	drawVotes map[chat.Address]bool

	// pendingDest is set after a first wrong-thread message; a resend
	// migrates the session there.
	pendingDest *chat.Destination

	ended bool
}

// New creates a Session over a fresh model for cfg.Players.
//
// Precondition: cfg.Game, cfg.Transport, cfg.Logger, and cfg.Random
// must be non-nil; len(cfg.Players) must be within the game's player
// bounds; cfg.FirstTurn must index cfg.Players.
// Postcondition: Returns a Session in the Active state, or an error.
func New(cfg Config) (*Session, error) {
	n := len(cfg.Players)
	if n < cfg.Game.MinPlayers() || n > cfg.Game.MaxPlayers() {
		return nil, fmt.Errorf("player count %d outside [%d, %d] for %s",
			n, cfg.Game.MinPlayers(), cfg.Game.MaxPlayers(), cfg.Game.Name())
	}
	if cfg.FirstTurn < 0 || cfg.FirstTurn >= n {
		return nil, fmt.Errorf("first turn index %d out of range", cfg.FirstTurn)
	}

	id := uuid.New().String()
	return &Session{
		id:        id,
		game:      cfg.Game,
		model:     cfg.Game.NewModel(cfg.Players),
		presenter: cfg.Game.Presenter(),
		transport: cfg.Transport,
		logger:    cfg.Logger.With(zap.String("session_id", id)),
		rand:      cfg.Random,
		players:   cfg.Players,
		names:     cfg.Names,
		turn:      cfg.FirstTurn,
		dest:      cfg.Dest,
		computer:  cfg.Computer,
		help:      cfg.Help,
	}, nil
}

// ID returns the generated session id.
func (s *Session) ID() string { return s.id }

// Players returns the turn-ordered player list.
func (s *Session) Players() []chat.Address { return s.players }

// Dest returns the channel topic the session is bound to.
func (s *Session) Dest() chat.Destination { return s.dest }

// Current returns the address holding the turn.
func (s *Session) Current() chat.Address { return s.players[s.turn] }

// Contains reports whether addr plays in this session.
func (s *Session) Contains(addr chat.Address) bool {
	for _, p := range s.players {
		if p == addr {
			return true
		}
	}
	return false
}

// Ended reports whether the session reached a terminal state.
func (s *Session) Ended() bool { return s.ended }

// PendingMigration returns the destination awaiting a confirming
// resend, if any.
func (s *Session) PendingMigration() (chat.Destination, bool) {
	if s.pendingDest == nil {
		return chat.Destination{}, false
	}
	return *s.pendingDest, true
}

// SetPendingMigration records dest as awaiting a confirming resend.
func (s *Session) SetPendingMigration(dest chat.Destination) {
	d := dest
	s.pendingDest = &d
}

// ClearPendingMigration drops any pending migration.
func (s *Session) ClearPendingMigration() {
	s.pendingDest = nil
}

// Rebind moves the session to a new channel topic. Allowed once per
// thread change, driven by the orchestrator's migration handshake.
//
// Precondition: dest must not be the private sentinel.
func (s *Session) Rebind(dest chat.Destination) {
	s.logger.Info("session rebound",
		zap.String("from", s.dest.String()),
		zap.String("to", dest.String()),
	)
	s.dest = dest
	s.pendingDest = nil
}

// Start announces the game and prompts the first player, playing the
// computer's move first if the computer holds the opening turn.
//
// Postcondition: Returns the End summary if the computer ended the game
// immediately, or (nil, nil) while the game continues.
func (s *Session) Start(ctx context.Context) (*End, error) {
	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = s.name(p)
	}
	s.broadcast(ctx, s.presenter.StartAnnouncement(names))
	s.broadcast(ctx, s.presenter.RenderBoard(s.model.Board()))
	s.broadcast(ctx, s.turnNotice())

	if s.Current() == s.computer {
		return s.playComputer(ctx)
	}
	return nil, nil
}

// HandleMessage drives the turn loop with one inbound message from a
// session player.
//
// Precondition: sender must be a session player.
// Postcondition: Returns a non-nil End when the message ended the game.
func (s *Session) HandleMessage(ctx context.Context, sender chat.Address, content string) (*End, error) {
	if s.ended {
		return nil, fmt.Errorf("session %s already ended", s.id)
	}

	parsed := command.Parse(content)
	switch parsed.Command {
	case "forfeit", "resign":
		return s.forfeit(ctx, sender)
	case "draw":
		return s.voteDraw(ctx, sender)
	}

	if move := strings.TrimSpace(content); s.game.MovePattern().MatchString(strings.ToLower(move)) {
		return s.handleMove(ctx, sender, strings.ToLower(move))
	}

	s.reply(ctx, sender, s.help)
	return nil, nil
}

// Forfeit ends the game with sender as the sole loser. Exposed for the
// orchestrator's quit handling, which shares the forfeit bookkeeping.
func (s *Session) Forfeit(ctx context.Context, sender chat.Address) (*End, error) {
	return s.forfeit(ctx, sender)
}

func (s *Session) forfeit(ctx context.Context, sender chat.Address) (*End, error) {
	s.logger.Info("player forfeited", zap.String("player", string(sender)))
	s.broadcast(ctx, fmt.Sprintf("%s forfeits the game.", s.name(sender)))
	return s.endWithLoser(ctx, sender), nil
}

func (s *Session) voteDraw(ctx context.Context, sender chat.Address) (*End, error) {
	if s.drawVotes == nil {
		s.drawVotes = make(map[chat.Address]bool, len(s.players))
		for _, p := range s.players {
			// the computer never blocks a draw
			s.drawVotes[p] = p == s.computer
		}
		s.drawVotes[sender] = true
		s.broadcast(ctx, fmt.Sprintf("%s proposes a draw. Send \"draw\" to agree.", s.name(sender)))
	} else {
		s.drawVotes[sender] = true
	}

	for _, agreed := range s.drawVotes {
		if !agreed {
			return nil, nil
		}
	}
	return s.endDrawn(ctx), nil
}

func (s *Session) handleMove(ctx context.Context, sender chat.Address, move string) (*End, error) {
	if sender != s.Current() {
		s.reply(ctx, sender, fmt.Sprintf("It's %s's turn.", s.name(s.Current())))
		return nil, nil
	}

	result := s.model.ApplyMove(sender, move)
	switch result.Outcome {
	case rules.MoveRejected:
		s.reply(ctx, sender, result.Message)
		return nil, nil

	case rules.MoveRepeatTurn:
		s.broadcast(ctx, s.presenter.MoveAnnouncement(s.name(sender), move))
		if result.Message != "" {
			s.broadcast(ctx, result.Message)
		}
		s.broadcast(ctx, s.presenter.RenderBoard(s.model.Board()))
		return nil, nil

	case rules.MoveApplied:
		s.broadcast(ctx, s.presenter.MoveAnnouncement(s.name(sender), move))
		end, err := s.finishTurn(ctx, sender)
		if end != nil || err != nil {
			return end, err
		}
		if s.Current() == s.computer {
			return s.playComputer(ctx)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown move outcome %d", result.Outcome)
	}
}

// playComputer generates and applies computer moves until the turn
// passes to a human or the game ends.
func (s *Session) playComputer(ctx context.Context) (*End, error) {
	cp, ok := s.game.ComputerPlayer()
	if !ok {
		return nil, fmt.Errorf("%s has no computer player", s.game.Name())
	}

	for moves := 0; s.Current() == s.computer && !s.ended; moves++ {
		if moves >= maxComputerMoves {
			return nil, fmt.Errorf("computer exceeded %d consecutive moves", maxComputerMoves)
		}

		move, found := cp.ChooseMove(s.model, s.computer, s.rand)
		if !found {
			// no legal move left: treat as a computer forfeit
			s.logger.Warn("computer has no legal move")
			return s.forfeit(ctx, s.computer)
		}

		result := s.model.ApplyMove(s.computer, move)
		switch result.Outcome {
		case rules.MoveRejected:
			return nil, fmt.Errorf("computer move %q rejected: %s", move, result.Message)
		case rules.MoveRepeatTurn:
			s.broadcast(ctx, s.presenter.MoveAnnouncement(s.name(s.computer), move))
			if result.Message != "" {
				s.broadcast(ctx, result.Message)
			}
		case rules.MoveApplied:
			s.broadcast(ctx, s.presenter.MoveAnnouncement(s.name(s.computer), move))
			end, err := s.finishTurn(ctx, s.computer)
			if end != nil || err != nil {
				return end, err
			}
		}
	}
	return nil, nil
}

// finishTurn runs the post-move bookkeeping: end-of-game check, turn
// advance, and prompts. Callers trigger the computer reply; the
// playComputer loop handles consecutive computer turns itself.
func (s *Session) finishTurn(ctx context.Context, mover chat.Address) (*End, error) {
	over := s.model.GameOver()
	if over.Done {
		switch {
		case over.Drawn:
			s.broadcast(ctx, s.presenter.RenderBoard(s.model.Board()))
			return s.endDrawn(ctx), nil
		case over.MoverWins:
			return s.endWithWinner(ctx, mover), nil
		default:
			return s.endWithWinner(ctx, over.Winner), nil
		}
	}

	// a completed move supersedes any open draw proposal
	s.drawVotes = nil

	s.turn = (s.turn + 1) % len(s.players)
	s.broadcast(ctx, s.presenter.RenderBoard(s.model.Board()))
	s.broadcast(ctx, s.turnNotice())
	return nil, nil
}

func (s *Session) endWithWinner(ctx context.Context, winner chat.Address) *End {
	s.ended = true
	s.broadcast(ctx, s.presenter.RenderBoard(s.model.Board()))
	s.broadcast(ctx, fmt.Sprintf("%s wins!", s.name(winner)))
	s.logger.Info("session ended", zap.String("winner", string(winner)))

	end := &End{Winners: []chat.Address{winner}}
	for _, p := range s.players {
		if p != winner {
			end.Losers = append(end.Losers, p)
		}
	}
	return end
}

func (s *Session) endWithLoser(ctx context.Context, loser chat.Address) *End {
	s.ended = true
	end := &End{Losers: []chat.Address{loser}}
	for _, p := range s.players {
		if p != loser {
			end.Winners = append(end.Winners, p)
		}
	}
	if len(end.Winners) == 1 {
		s.broadcast(ctx, fmt.Sprintf("%s wins!", s.name(end.Winners[0])))
	}
	s.logger.Info("session ended by forfeit", zap.String("loser", string(loser)))
	return end
}

func (s *Session) endDrawn(ctx context.Context) *End {
	s.ended = true
	s.broadcast(ctx, "It's a draw!")
	s.logger.Info("session ended in a draw")
	return &End{Drawn: true}
}

func (s *Session) turnNotice() string {
	return fmt.Sprintf("It's your turn, %s.", s.name(s.Current()))
}

func (s *Session) name(addr chat.Address) string {
	if n, ok := s.names[addr]; ok && n != "" {
		return n
	}
	return string(addr)
}

// broadcast delivers text to the bound channel topic, or to each human
// player privately for direct-message games.
func (s *Session) broadcast(ctx context.Context, text string) {
	if s.dest.IsPrivate() {
		for _, p := range s.players {
			if p == s.computer {
				continue
			}
			if err := s.transport.SendPrivate(ctx, p, text); err != nil {
				s.logger.Error("sending private message",
					zap.String("to", string(p)), zap.Error(err))
			}
		}
		return
	}
	if err := s.transport.SendChannel(ctx, s.dest, text); err != nil {
		s.logger.Error("sending channel message",
			zap.String("dest", s.dest.String()), zap.Error(err))
	}
}

// reply answers one player: on the channel for bound games, privately
// otherwise.
func (s *Session) reply(ctx context.Context, to chat.Address, text string) {
	if s.dest.IsPrivate() {
		if err := s.transport.SendPrivate(ctx, to, text); err != nil {
			s.logger.Error("sending private reply",
				zap.String("to", string(to)), zap.Error(err))
		}
		return
	}
	if err := s.transport.SendChannel(ctx, s.dest, text); err != nil {
		s.logger.Error("sending channel reply",
			zap.String("dest", s.dest.String()), zap.Error(err))
	}
}
