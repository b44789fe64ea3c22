package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/storage"
)

// DirectoryKey is the well-known storage key for the player directory.
const DirectoryKey = "parlor:players"

// Directory is the in-memory player registry backed by the blob store.
// Every mutation is written through synchronously. Directory is not
// safe for concurrent use; the engine processes one message at a time.
type Directory struct {
	store   storage.Store
	logger  *zap.Logger
	records map[chat.Address]*Record
	// order preserves first-contact order for leaderboard tie-breaks.
	order []chat.Address
}

// NewDirectory creates an empty Directory backed by the given store.
//
// Precondition: store and logger must be non-nil.
func NewDirectory(store storage.Store, logger *zap.Logger) *Directory {
	return &Directory{
		store:   store,
		logger:  logger,
		records: make(map[chat.Address]*Record),
	}
}

// Load replaces the in-memory directory with the persisted one. A
// missing blob yields an empty directory. Addresses are inserted in
// sorted order, since the JSON object carries no insertion order.
//
// Postcondition: Returns nil on success or a non-nil load/parse error.
func (d *Directory) Load(ctx context.Context) error {
	data, err := d.store.Load(ctx, DirectoryKey)
	if errors.Is(err, storage.ErrNotFound) {
		d.records = make(map[chat.Address]*Record)
		d.order = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading player directory: %w", err)
	}

	var persisted map[chat.Address]*Record
	if err := json.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("parsing player directory: %w", err)
	}

	addrs := make([]chat.Address, 0, len(persisted))
	for addr := range persisted {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	d.records = make(map[chat.Address]*Record, len(persisted))
	d.order = d.order[:0]
	for _, addr := range addrs {
		rec := persisted[addr]
		rec.Address = addr
		d.records[addr] = rec
		d.order = append(d.order, addr)
	}

	d.logger.Info("player directory loaded", zap.Int("players", len(d.records)))
	return nil
}

// Ensure returns the record for addr, creating and persisting it on
// first contact. A changed display name is updated and persisted.
//
// Precondition: addr must be non-empty.
// Postcondition: Returns the (possibly new) record, or a storage error.
func (d *Directory) Ensure(ctx context.Context, addr chat.Address, fullName string) (*Record, error) {
	if rec, ok := d.records[addr]; ok {
		if fullName != "" && rec.FullName != fullName {
			rec.FullName = fullName
			if err := d.persist(ctx); err != nil {
				return nil, err
			}
		}
		return rec, nil
	}

	rec := &Record{Address: addr, FullName: fullName}
	d.records[addr] = rec
	d.order = append(d.order, addr)
	if err := d.persist(ctx); err != nil {
		return nil, err
	}
	d.logger.Info("player registered",
		zap.String("address", string(addr)),
		zap.String("name", fullName),
	)
	return rec, nil
}

// Get returns the record for addr.
//
// Postcondition: Returns (record, true) if found, or (nil, false).
func (d *Directory) Get(addr chat.Address) (*Record, bool) {
	rec, ok := d.records[addr]
	return rec, ok
}

// ByName returns the first record whose full name matches,
// case-insensitively, in first-contact order.
//
// Postcondition: Returns (record, true) if found, or (nil, false).
func (d *Directory) ByName(name string) (*Record, bool) {
	for _, addr := range d.order {
		if strings.EqualFold(d.records[addr].FullName, name) {
			return d.records[addr], true
		}
	}
	return nil, false
}

// CreditWin adds one win to the player's statistics and persists.
//
// Precondition: addr must be a known player.
func (d *Directory) CreditWin(ctx context.Context, addr chat.Address) error {
	return d.credit(ctx, addr, func(s *Stats) { s.Won++ })
}

// CreditLoss adds one loss to the player's statistics and persists.
//
// Precondition: addr must be a known player.
func (d *Directory) CreditLoss(ctx context.Context, addr chat.Address) error {
	return d.credit(ctx, addr, func(s *Stats) { s.Lost++ })
}

// CreditDraw adds one draw to the player's statistics and persists.
//
// Precondition: addr must be a known player.
func (d *Directory) CreditDraw(ctx context.Context, addr chat.Address) error {
	return d.credit(ctx, addr, func(s *Stats) { s.Drawn++ })
}

func (d *Directory) credit(ctx context.Context, addr chat.Address, apply func(*Stats)) error {
	rec, ok := d.records[addr]
	if !ok {
		return fmt.Errorf("crediting unknown player %q", addr)
	}
	apply(&rec.Stats)
	rec.Stats.Total++
	return d.persist(ctx)
}

// Top returns up to n records ranked by (wins, draws, total games)
// descending. Ties keep first-contact order.
//
// Precondition: n must be >= 0.
// Postcondition: Returns a ranked copy; the directory is unchanged.
func (d *Directory) Top(n int) []*Record {
	ranked := make([]*Record, 0, len(d.order))
	for _, addr := range d.order {
		ranked = append(ranked, d.records[addr])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Stats, ranked[j].Stats
		if a.Won != b.Won {
			return a.Won > b.Won
		}
		if a.Drawn != b.Drawn {
			return a.Drawn > b.Drawn
		}
		return a.Total > b.Total
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Len returns the number of known players.
func (d *Directory) Len() int {
	return len(d.records)
}

func (d *Directory) persist(ctx context.Context) error {
	data, err := json.Marshal(d.records)
	if err != nil {
		return fmt.Errorf("encoding player directory: %w", err)
	}
	if err := d.store.Save(ctx, DirectoryKey, data); err != nil {
		return fmt.Errorf("saving player directory: %w", err)
	}
	return nil
}
