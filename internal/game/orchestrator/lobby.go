package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/game/invite"
	"github.com/parlorbot/parlor/internal/game/session"
)

// startGame creates a lobby for the sender, resolving any invitees by
// name. Resolution is atomic: one unknown or busy invitee aborts the
// whole invitation.
func (o *Orchestrator) startGame(ctx context.Context, msg chat.Message, targets []string) error {
	if o.inGame(msg.Sender) {
		o.reply(ctx, msg, "You're already in a game. Send \"quit\" to leave it first.")
		return nil
	}
	if !msg.Dest.IsPrivate() {
		if _, taken := o.sessionByDest[msg.Dest]; taken {
			o.reply(ctx, msg, "A game is already running in this topic.")
			return nil
		}
		if _, taken := o.inviteByDest[msg.Dest]; taken {
			o.reply(ctx, msg, "A game is already being set up in this topic. Send \"join\" to play.")
			return nil
		}
	}

	invitees, withComputer, ok := o.resolveTargets(ctx, msg, targets)
	if !ok {
		return nil
	}

	if withComputer && len(targets) > 1 {
		o.reply(ctx, msg, fmt.Sprintf(
			"I can only play two-player games myself. Start with just %s, or invite other players.",
			o.botName))
		return nil
	}

	if len(targets) == 0 {
		if msg.Dest.IsPrivate() {
			o.reply(ctx, msg, fmt.Sprintf(
				"Tell me who to play with: \"start game with @name\", or \"start game with %s\" to play against me.",
				o.botName))
			return nil
		}
	} else {
		count := len(targets) + 1
		if count < o.game.MinPlayers() || count > o.game.MaxPlayers() {
			o.reply(ctx, msg, fmt.Sprintf(
				"%s takes %d to %d players, you invited %d.",
				o.game.Name(), o.game.MinPlayers(), o.game.MaxPlayers(), len(targets)))
			return nil
		}
	}

	inv := invite.New(msg.Sender, msg.Dest)
	if withComputer {
		if err := inv.Join(o.botAddr); err != nil {
			return fmt.Errorf("adding computer opponent: %w", err)
		}
	}
	for _, addr := range invitees {
		if err := inv.Invite(addr); err != nil {
			o.reply(ctx, msg, fmt.Sprintf("Error %s.", err))
			return nil
		}
	}

	for _, member := range inv.Members() {
		if member != o.botAddr {
			o.invites[member] = inv
		}
	}
	if !msg.Dest.IsPrivate() {
		o.inviteByDest[msg.Dest] = inv
	}

	hostName := o.displayName(msg.Sender)
	for _, addr := range invitees {
		o.tell(ctx, addr, fmt.Sprintf(
			"%s invites you to a game of %s. Reply \"accept\" or \"decline\".",
			hostName, o.game.Name()))
	}

	o.logger.Info("lobby created",
		zap.String("host", string(msg.Sender)),
		zap.String("dest", msg.Dest.String()),
		zap.Int("invitees", len(invitees)),
		zap.Bool("computer", withComputer),
	)

	switch {
	case inv.Full(o.game.MaxPlayers()):
		return o.promote(ctx, inv)
	case len(invitees) > 0:
		names := make([]string, len(invitees))
		for i, addr := range invitees {
			names[i] = o.displayName(addr)
		}
		o.reply(ctx, msg, fmt.Sprintf("Invitation sent to %s.", strings.Join(names, ", ")))
	default:
		o.reply(ctx, msg, fmt.Sprintf(
			"%s starts a game of %s. Send \"join\" to play.", hostName, o.game.Name()))
	}
	return nil
}

// resolveTargets maps invitee names to addresses. The bot's own name
// summons the computer opponent. A false ok means resolution failed and
// a reply was already sent; nothing is created in that case.
func (o *Orchestrator) resolveTargets(ctx context.Context, msg chat.Message, targets []string) (invitees []chat.Address, withComputer, ok bool) {
	for _, name := range targets {
		if strings.EqualFold(name, o.botName) || chat.Address(name) == o.botAddr {
			withComputer = true
			continue
		}
		rec, found := o.directory.ByName(name)
		if !found {
			o.reply(ctx, msg, fmt.Sprintf(
				"I don't know %q. Tell them to send me \"register\" first.", name))
			return nil, false, false
		}
		if o.inGame(rec.Address) {
			o.reply(ctx, msg, fmt.Sprintf("%s is already in a game.", rec.FullName))
			return nil, false, false
		}
		invitees = append(invitees, rec.Address)
	}
	return invitees, withComputer, true
}

// acceptInvite flips the sender's pending invitation and promotes the
// lobby once it fills.
func (o *Orchestrator) acceptInvite(ctx context.Context, msg chat.Message) error {
	inv, ok := o.invites[msg.Sender]
	if !ok || !inv.IsPending(msg.Sender) {
		o.reply(ctx, msg, "You have no pending invitation.")
		return nil
	}
	if err := inv.Accept(msg.Sender); err != nil {
		return err
	}
	o.tell(ctx, inv.Host, fmt.Sprintf("%s accepted your invitation.", o.displayName(msg.Sender)))

	if inv.Full(o.game.MaxPlayers()) {
		return o.promote(ctx, inv)
	}
	o.reply(ctx, msg, "Accepted. Waiting for the other players.")
	return nil
}

// declineInvite removes the sender from their pending lobby, cancelling
// it when it can no longer reach the minimum player count.
func (o *Orchestrator) declineInvite(ctx context.Context, msg chat.Message) error {
	inv, ok := o.invites[msg.Sender]
	if !ok || !inv.IsPending(msg.Sender) {
		o.reply(ctx, msg, "You have no pending invitation.")
		return nil
	}
	if err := inv.Decline(msg.Sender); err != nil {
		return err
	}
	delete(o.invites, msg.Sender)
	o.tell(ctx, inv.Host, fmt.Sprintf("%s declined your invitation.", o.displayName(msg.Sender)))

	if !inv.CanReach(o.game.MinPlayers()) {
		o.cancelLobby(ctx, inv, "The game is cancelled: not enough players.")
	}
	return nil
}

// joinOpenLobby adds the sender to the lobby bound to the message's
// channel topic.
func (o *Orchestrator) joinOpenLobby(ctx context.Context, msg chat.Message) error {
	if o.inGame(msg.Sender) {
		o.reply(ctx, msg, "You're already in a game. Send \"quit\" to leave it first.")
		return nil
	}
	if msg.Dest.IsPrivate() {
		o.reply(ctx, msg, "There is no open game to join here.")
		return nil
	}
	inv, ok := o.inviteByDest[msg.Dest]
	if !ok {
		o.reply(ctx, msg, "There is no open game to join here.")
		return nil
	}
	if inv.Full(o.game.MaxPlayers()) {
		o.reply(ctx, msg, "The game is already full.")
		return nil
	}
	if err := inv.Join(msg.Sender); err != nil {
		return err
	}
	o.invites[msg.Sender] = inv
	o.reply(ctx, msg, fmt.Sprintf("%s joins the game.", o.displayName(msg.Sender)))

	if inv.Full(o.game.MaxPlayers()) {
		return o.promote(ctx, inv)
	}
	return nil
}

// quit removes the sender from their lobby or game. Quitting mid-game
// is a forfeit: everyone else is credited a win.
func (o *Orchestrator) quit(ctx context.Context, msg chat.Message) error {
	if inv, ok := o.invites[msg.Sender]; ok {
		if msg.Sender == inv.Host {
			o.cancelLobby(ctx, inv, fmt.Sprintf(
				"%s cancelled the game.", o.displayName(msg.Sender)))
			return nil
		}
		if err := inv.Decline(msg.Sender); err != nil {
			return err
		}
		delete(o.invites, msg.Sender)
		o.tell(ctx, inv.Host, fmt.Sprintf("%s left the lobby.", o.displayName(msg.Sender)))
		if !inv.CanReach(o.game.MinPlayers()) {
			o.cancelLobby(ctx, inv, "The game is cancelled: not enough players.")
		}
		return nil
	}

	if sess, ok := o.sessions[msg.Sender]; ok {
		end, err := sess.Forfeit(ctx, msg.Sender)
		if err != nil {
			return err
		}
		return o.finishSession(ctx, sess, end)
	}

	o.reply(ctx, msg, "You're not in a game at the moment.")
	return nil
}

// cancelLobby notifies every member and drops the lobby.
func (o *Orchestrator) cancelLobby(ctx context.Context, inv *invite.Invitation, reason string) {
	for _, member := range inv.Members() {
		delete(o.invites, member)
		o.tell(ctx, member, reason)
	}
	if !inv.Dest.IsPrivate() {
		delete(o.inviteByDest, inv.Dest)
	}
	o.logger.Info("lobby cancelled",
		zap.String("host", string(inv.Host)),
		zap.String("reason", reason),
	)
}

// promote turns a filled lobby into a running session with a uniformly
// random first-turn holder.
func (o *Orchestrator) promote(ctx context.Context, inv *invite.Invitation) error {
	players := inv.Players()

	names := make(map[chat.Address]string, len(players))
	withComputer := false
	for _, p := range players {
		names[p] = o.displayName(p)
		if p == o.botAddr {
			withComputer = true
		}
	}

	var computer chat.Address
	if withComputer {
		computer = o.botAddr
	}

	sess, err := session.New(session.Config{
		Game:      o.game,
		Transport: o.transport,
		Logger:    o.logger,
		Random:    o.rand,
		Players:   players,
		Names:     names,
		FirstTurn: o.rand.Intn(len(players)),
		Dest:      inv.Dest,
		Computer:  computer,
		Help:      o.content.Help,
	})
	if err != nil {
		return fmt.Errorf("promoting lobby: %w", err)
	}

	for _, member := range inv.Members() {
		delete(o.invites, member)
	}
	if !inv.Dest.IsPrivate() {
		delete(o.inviteByDest, inv.Dest)
		o.sessionByDest[inv.Dest] = sess
		for _, p := range players {
			o.tell(ctx, p, fmt.Sprintf(
				"Your game of %s is starting in %s.", o.game.Name(), inv.Dest))
		}
	}
	for _, p := range players {
		if p != o.botAddr {
			o.sessions[p] = sess
		}
	}

	o.logger.Info("lobby promoted",
		zap.String("session_id", sess.ID()),
		zap.Int("players", len(players)),
		zap.String("dest", inv.Dest.String()),
	)

	end, err := sess.Start(ctx)
	if err != nil {
		return err
	}
	if end != nil {
		return o.finishSession(ctx, sess, end)
	}
	return nil
}
