// Package storage is the persistence gateway: four independently
// addressable slots holding JSON payloads in SQLite. Encoding and
// defaulting stay with the caller; the store sees opaque bytes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Slot names one of the persisted collections.
type Slot string

const (
	SlotCookbook     Slot = "cookbook"
	SlotWeekPlan     Slot = "week_plan"
	SlotSettings     Slot = "settings"
	SlotCheckedItems Slot = "checked_items"
)

const upsertSlot = `
INSERT INTO slots (name, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

// Store reads and writes slot payloads.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database.
func NewStore(d *sql.DB) *Store {
	return &Store{db: d}
}

// Load returns the payload saved under slot. A slot that has never
// been written yields (nil, nil); the caller applies its defaults.
func (s *Store) Load(ctx context.Context, slot Slot) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE name = ?`, string(slot)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}
	return []byte(data), nil
}

// Save writes the payload for one slot, replacing any previous value.
func (s *Store) Save(ctx context.Context, slot Slot, data []byte) error {
	_, err := s.db.ExecContext(ctx, upsertSlot, string(slot), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slot, err)
	}
	return nil
}

// SaveAll writes several slots in one transaction, so a crash between
// writes cannot leave the collections half-updated.
func (s *Store) SaveAll(ctx context.Context, payloads map[Slot][]byte) error {
	if len(payloads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for slot, data := range payloads {
		if _, err := tx.ExecContext(ctx, upsertSlot, string(slot), string(data), now); err != nil {
			return fmt.Errorf("failed to save slot %s: %w", slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slot writes: %w", err)
	}
	return nil
}
