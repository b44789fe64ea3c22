// Package invite provides pending game lobbies: who was invited, who
// has accepted, and whether the lobby can still fill.
package invite

import (
	"fmt"

	"github.com/parlorbot/parlor/internal/chat"
)

// Status is an invitee's acceptance state.
type Status int

const (
	// StatusPending means the invitee has not yet responded.
	StatusPending Status = iota
	// StatusAccepted means the invitee has accepted.
	StatusAccepted
)

// String returns the status label.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Invitation is one pending lobby. The host is implicitly accepted.
// Destroyed when it fills (promoted to a session) or can no longer
// reach the minimum player count.
type Invitation struct {
	// Host is the player who issued the start command.
	Host chat.Address
	// Dest is the channel topic the lobby is bound to; the private
	// sentinel for direct-message games.
	Dest chat.Destination

	statuses map[chat.Address]Status
	order    []chat.Address
}

// New creates an Invitation hosted by host at dest with no invitees.
//
// Precondition: host must be non-empty.
func New(host chat.Address, dest chat.Destination) *Invitation {
	return &Invitation{
		Host:     host,
		Dest:     dest,
		statuses: make(map[chat.Address]Status),
	}
}

// Invite adds addr as a pending invitee.
//
// Postcondition: Returns an error if addr is the host or already invited.
func (i *Invitation) Invite(addr chat.Address) error {
	if addr == i.Host {
		return fmt.Errorf("host %q cannot invite themselves", addr)
	}
	if _, exists := i.statuses[addr]; exists {
		return fmt.Errorf("%q is already invited", addr)
	}
	i.statuses[addr] = StatusPending
	i.order = append(i.order, addr)
	return nil
}

// Accept flips addr's state to accepted.
//
// Postcondition: Returns an error unless addr is a pending invitee.
func (i *Invitation) Accept(addr chat.Address) error {
	status, exists := i.statuses[addr]
	if !exists {
		return fmt.Errorf("%q is not invited", addr)
	}
	if status == StatusAccepted {
		return fmt.Errorf("%q has already accepted", addr)
	}
	i.statuses[addr] = StatusAccepted
	return nil
}

// Decline removes addr from the lobby.
//
// Postcondition: Returns an error if addr is not an invitee.
func (i *Invitation) Decline(addr chat.Address) error {
	if _, exists := i.statuses[addr]; !exists {
		return fmt.Errorf("%q is not invited", addr)
	}
	delete(i.statuses, addr)
	for idx, a := range i.order {
		if a == addr {
			i.order = append(i.order[:idx], i.order[idx+1:]...)
			break
		}
	}
	return nil
}

// Join adds addr directly as an accepted player (open-lobby join).
//
// Postcondition: Returns an error if addr is the host or already present.
func (i *Invitation) Join(addr chat.Address) error {
	if err := i.Invite(addr); err != nil {
		return err
	}
	i.statuses[addr] = StatusAccepted
	return nil
}

// Contains reports whether addr is the host or an invitee.
func (i *Invitation) Contains(addr chat.Address) bool {
	if addr == i.Host {
		return true
	}
	_, exists := i.statuses[addr]
	return exists
}

// IsPending reports whether addr is an invitee who has not responded.
func (i *Invitation) IsPending(addr chat.Address) bool {
	return i.statuses[addr] == StatusPending && i.Contains(addr) && addr != i.Host
}

// AcceptedCount returns the number of committed players, host included.
func (i *Invitation) AcceptedCount() int {
	count := 1
	for _, s := range i.statuses {
		if s == StatusAccepted {
			count++
		}
	}
	return count
}

// PotentialCount returns the player count if every invitee accepts,
// host included.
func (i *Invitation) PotentialCount() int {
	return 1 + len(i.statuses)
}

// CanReach reports whether the lobby can still reach min players.
func (i *Invitation) CanReach(min int) bool {
	return i.PotentialCount() >= min
}

// Full reports whether the committed player count has reached max.
func (i *Invitation) Full(max int) bool {
	return i.AcceptedCount() >= max
}

// Players returns the committed players: host first, then accepted
// invitees in invitation order.
func (i *Invitation) Players() []chat.Address {
	players := []chat.Address{i.Host}
	for _, addr := range i.order {
		if i.statuses[addr] == StatusAccepted {
			players = append(players, addr)
		}
	}
	return players
}

// Members returns everyone attached to the lobby, pending invitees
// included: host first, then invitees in invitation order.
func (i *Invitation) Members() []chat.Address {
	members := []chat.Address{i.Host}
	members = append(members, i.order...)
	return members
}
