// Package player provides the player directory: identity records plus
// cumulative game statistics, persisted as a single JSON blob.
package player

import "github.com/parlorbot/parlor/internal/chat"

// Stats holds a player's cumulative game statistics.
type Stats struct {
	Won   int `json:"games_won"`
	Lost  int `json:"games_lost"`
	Drawn int `json:"games_drawn"`
	Total int `json:"total_games"`
}

// Record is one player's directory entry. Records are created on first
// contact and never deleted.
type Record struct {
	// Address is the player's chat address.
	Address chat.Address `json:"-"`
	// FullName is the player's display name.
	FullName string `json:"full_name"`
	// Stats are the player's cumulative statistics.
	Stats Stats `json:"stats"`
}
