package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/command"
	"github.com/parlorbot/parlor/internal/game/session"
)

// route forwards in-game content to the sender's session, enforcing the
// channel-topic binding. The first message from the wrong topic gets a
// warning and arms a pending migration; resending from the same topic
// rebinds the session there and then processes the message.
func (o *Orchestrator) route(ctx context.Context, msg chat.Message) error {
	sess, ok := o.sessions[msg.Sender]
	if !ok {
		content := strings.ToLower(strings.TrimSpace(msg.Content))
		_, sessionCmd := o.registry.Resolve(command.Parse(msg.Content).Command)
		if sessionCmd || o.game.MovePattern().MatchString(content) {
			o.reply(ctx, msg, "You're not in a game at the moment. Send \"help\" for commands.")
		} else {
			o.reply(ctx, msg, o.registry.HelpText(o.game.Name()))
		}
		return nil
	}

	if msg.Dest != sess.Dest() {
		if pending, armed := sess.PendingMigration(); armed && pending == msg.Dest {
			if !o.migrate(ctx, msg, sess) {
				return nil
			}
		} else {
			sess.SetPendingMigration(msg.Dest)
			o.reply(ctx, msg, fmt.Sprintf(
				"Your game lives in %s. Resend your message here to move it, or continue there.",
				sess.Dest()))
			return nil
		}
	} else {
		// a message on the bound topic disarms any pending migration
		sess.ClearPendingMigration()
	}

	end, err := sess.HandleMessage(ctx, msg.Sender, msg.Content)
	if err != nil {
		return err
	}
	if end != nil {
		return o.finishSession(ctx, sess, end)
	}
	return nil
}

// migrate rebinds sess to the message's topic. It reports false, after
// replying, when another game or an open lobby already owns the topic.
func (o *Orchestrator) migrate(ctx context.Context, msg chat.Message, sess *session.Session) bool {
	if other, taken := o.sessionByDest[msg.Dest]; taken && other != sess {
		sess.ClearPendingMigration()
		o.reply(ctx, msg, "Another game is already running in this topic.")
		return false
	}
	if _, taken := o.inviteByDest[msg.Dest]; taken {
		sess.ClearPendingMigration()
		o.reply(ctx, msg, "Another game is already being set up in this topic.")
		return false
	}

	if !sess.Dest().IsPrivate() {
		delete(o.sessionByDest, sess.Dest())
	}
	sess.Rebind(msg.Dest)
	if !msg.Dest.IsPrivate() {
		o.sessionByDest[msg.Dest] = sess
	}
	return true
}

// finishSession credits statistics for a finished game and tears the
// session down. The computer opponent keeps no statistics.
func (o *Orchestrator) finishSession(ctx context.Context, sess *session.Session, end *session.End) error {
	var firstErr error
	credit := func(addr chat.Address, apply func(context.Context, chat.Address) error) {
		if addr == o.botAddr {
			return
		}
		if err := apply(ctx, addr); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if end.Drawn {
		for _, p := range sess.Players() {
			credit(p, o.directory.CreditDraw)
		}
	} else {
		for _, w := range end.Winners {
			credit(w, o.directory.CreditWin)
		}
		for _, l := range end.Losers {
			credit(l, o.directory.CreditLoss)
		}
	}

	for _, p := range sess.Players() {
		delete(o.sessions, p)
	}
	if !sess.Dest().IsPrivate() {
		delete(o.sessionByDest, sess.Dest())
	}

	o.logger.Info("session torn down",
		zap.String("session_id", sess.ID()),
		zap.Bool("drawn", end.Drawn),
		zap.Int("winners", len(end.Winners)),
		zap.Int("losers", len(end.Losers)),
	)

	if firstErr != nil {
		return fmt.Errorf("crediting statistics: %w", firstErr)
	}
	return nil
}
