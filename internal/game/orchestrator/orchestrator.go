// Package orchestrator is the engine's entry point: it classifies every
// inbound message, owns the pending lobbies and active sessions, and
// keeps the per-address invariant that nobody is in two games at once.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/command"
	"github.com/parlorbot/parlor/internal/game/invite"
	"github.com/parlorbot/parlor/internal/game/player"
	"github.com/parlorbot/parlor/internal/game/random"
	"github.com/parlorbot/parlor/internal/game/rules"
	"github.com/parlorbot/parlor/internal/game/session"
)

// Config carries the orchestrator's collaborators.
type Config struct {
	// Game is the compiled-in game plugin.
	Game rules.Game
	// Content is the game's user-facing text.
	Content rules.Content
	// Transport delivers outbound messages.
	Transport chat.Transport
	// Directory is the persistent player directory.
	Directory *player.Directory
	// Registry resolves command words.
	Registry *command.Registry
	// Logger must be non-nil.
	Logger *zap.Logger
	// Random picks first-turn holders and computer moves.
	Random random.Source
	// BotName is the bot's display name; inviting it by name summons
	// the computer opponent.
	BotName string
	// BotAddress is the bot's own chat address.
	BotAddress chat.Address
}

// Orchestrator routes messages to lobbies and sessions. All state is
// owned by value; construct one per process (or per test). Not safe for
// concurrent use: the transport delivers one message at a time.
type Orchestrator struct {
	game      rules.Game
	content   rules.Content
	transport chat.Transport
	directory *player.Directory
	registry  *command.Registry
	logger    *zap.Logger
	rand      random.Source
	botName   string
	botAddr   chat.Address

	// invites maps every lobby member, pending invitees included, to
	// their lobby. sessions maps every human player to their game.
	invites  map[chat.Address]*invite.Invitation
	sessions map[chat.Address]*session.Session

	// inviteByDest and sessionByDest enforce one game per channel topic.
	inviteByDest  map[chat.Destination]*invite.Invitation
	sessionByDest map[chat.Destination]*session.Session
}

// New constructs an Orchestrator.
//
// Precondition: every Config field must be set.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Game == nil {
		return nil, fmt.Errorf("orchestrator requires a game")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("orchestrator requires a transport")
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("orchestrator requires a player directory")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator requires a command registry")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("orchestrator requires a logger")
	}
	if cfg.Random == nil {
		return nil, fmt.Errorf("orchestrator requires a random source")
	}
	if cfg.BotAddress == "" {
		return nil, fmt.Errorf("orchestrator requires the bot's address")
	}

	return &Orchestrator{
		game:          cfg.Game,
		content:       cfg.Content,
		transport:     cfg.Transport,
		directory:     cfg.Directory,
		registry:      cfg.Registry,
		logger:        cfg.Logger,
		rand:          cfg.Random,
		botName:       cfg.BotName,
		botAddr:       cfg.BotAddress,
		invites:       make(map[chat.Address]*invite.Invitation),
		sessions:      make(map[chat.Address]*session.Session),
		inviteByDest:  make(map[chat.Destination]*invite.Invitation),
		sessionByDest: make(map[chat.Destination]*session.Session),
	}, nil
}

// Handle processes one inbound message to completion. Every failure,
// panics included, is normalized into an "Error {message}." reply to
// the sender.
func (o *Orchestrator) Handle(ctx context.Context, msg chat.Message) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic handling message",
				zap.Any("panic", r),
				zap.String("sender", string(msg.Sender)),
				zap.Stack("stack"),
			)
			o.reply(ctx, msg, fmt.Sprintf("Error %v.", r))
		}
	}()

	if err := o.handle(ctx, msg); err != nil {
		o.logger.Error("handling message",
			zap.String("sender", string(msg.Sender)),
			zap.String("content", msg.Content),
			zap.Error(err),
		)
		o.reply(ctx, msg, fmt.Sprintf("Error %s.", err))
	}
}

func (o *Orchestrator) handle(ctx context.Context, msg chat.Message) error {
	if msg.Sender == "" || msg.Sender == o.botAddr {
		return nil
	}

	// first contact creates the player's record
	if _, err := o.directory.Ensure(ctx, msg.Sender, msg.SenderName); err != nil {
		return fmt.Errorf("recording player: %w", err)
	}

	parsed := command.Parse(msg.Content)
	cmd, known := o.registry.Resolve(parsed.Command)
	if !known {
		return o.route(ctx, msg)
	}

	switch cmd.Handler {
	case command.HandlerStart:
		return o.startGame(ctx, msg, command.Targets(parsed.Args))
	case command.HandlerAccept:
		return o.acceptInvite(ctx, msg)
	case command.HandlerDecline:
		return o.declineInvite(ctx, msg)
	case command.HandlerJoin:
		return o.joinOpenLobby(ctx, msg)
	case command.HandlerQuit:
		return o.quit(ctx, msg)
	case command.HandlerRegister:
		return o.register(ctx, msg)
	case command.HandlerLeaderboard:
		return o.leaderboard(ctx, msg)
	case command.HandlerHelp:
		o.reply(ctx, msg, o.registry.HelpText(o.game.Name()))
		return nil
	case command.HandlerRules:
		o.reply(ctx, msg, o.content.Rules)
		return nil
	case command.HandlerDraw, command.HandlerForfeit:
		// in-session commands go through the session's own dispatch
		return o.route(ctx, msg)
	default:
		return o.route(ctx, msg)
	}
}

// register confirms the sender's directory record, created on first
// contact above.
func (o *Orchestrator) register(ctx context.Context, msg chat.Message) error {
	rec, ok := o.directory.Get(msg.Sender)
	if !ok {
		return fmt.Errorf("no record for %s", msg.Sender)
	}
	o.reply(ctx, msg, fmt.Sprintf(
		"You're registered as %s. Others can now invite you by name.", rec.FullName))
	return nil
}

func (o *Orchestrator) leaderboard(ctx context.Context, msg chat.Message) error {
	top := o.directory.Top(5)
	if len(top) == 0 {
		o.reply(ctx, msg, "Nobody has played yet.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Leaderboard:")
	for i, rec := range top {
		fmt.Fprintf(&sb, "\n%d. %s: %d won, %d drawn, %d played",
			i+1, rec.FullName, rec.Stats.Won, rec.Stats.Drawn, rec.Stats.Total)
	}
	o.reply(ctx, msg, sb.String())
	return nil
}

// inGame reports whether addr is attached to any lobby or session.
func (o *Orchestrator) inGame(addr chat.Address) bool {
	if _, ok := o.invites[addr]; ok {
		return true
	}
	_, ok := o.sessions[addr]
	return ok
}

// displayName resolves addr's name from the directory, the bot's own
// name for the computer, or the bare address as a fallback.
func (o *Orchestrator) displayName(addr chat.Address) string {
	if addr == o.botAddr {
		return o.botName
	}
	if rec, ok := o.directory.Get(addr); ok && rec.FullName != "" {
		return rec.FullName
	}
	return string(addr)
}

// reply answers the sender where the message arrived: on the channel
// topic, or privately for direct messages.
func (o *Orchestrator) reply(ctx context.Context, msg chat.Message, text string) {
	var err error
	if msg.Dest.IsPrivate() {
		err = o.transport.SendPrivate(ctx, msg.Sender, text)
	} else {
		err = o.transport.SendChannel(ctx, msg.Dest, text)
	}
	if err != nil {
		o.logger.Error("sending reply",
			zap.String("to", string(msg.Sender)),
			zap.String("dest", msg.Dest.String()),
			zap.Error(err),
		)
	}
}

// tell sends a private message, logging delivery failures.
func (o *Orchestrator) tell(ctx context.Context, to chat.Address, text string) {
	if to == o.botAddr {
		return
	}
	if err := o.transport.SendPrivate(ctx, to, text); err != nil {
		o.logger.Error("sending private message",
			zap.String("to", string(to)), zap.Error(err))
	}
}
