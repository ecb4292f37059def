package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/database"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// StateStore persists device attribute snapshots to SQLite so that a
// restarted bridge resumes from the last known state of the graph
// instead of resetting every device to its initial values.
//
// One row per device, keyed by the configured device name. The full
// state map is stored as a JSON document; snapshots are small (a
// handful of clusters with a handful of attributes each) so
// replace-on-write is cheaper than tracking per-attribute rows.
type StateStore struct {
	db *database.DB
}

// NewStateStore creates the backing table if needed and returns a
// store bound to the given database.
//
// Parameters:
//   - db: open database handle (see infrastructure/database)
//
// Returns:
//   - *StateStore: ready-to-use store
//   - error: if schema creation fails
func NewStateStore(db *database.DB) (*StateStore, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS device_state (
		device_name TEXT PRIMARY KEY,
		state       TEXT NOT NULL,
		updated_at  INTEGER NOT NULL
	)`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating device_state table: %w", err)
	}

	return &StateStore{db: db}, nil
}

// Save upserts the full state snapshot for a device.
func (s *StateStore) Save(ctx context.Context, deviceName string, state matter.State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state for %q: %w", deviceName, err)
	}

	const query = `
	INSERT INTO device_state (device_name, state, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(device_name) DO UPDATE SET
		state      = excluded.state,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, deviceName, string(doc), time.Now().Unix()); err != nil {
		return fmt.Errorf("saving state for %q: %w", deviceName, err)
	}
	return nil
}

// Load returns the persisted snapshot for a device, or ErrStateNotFound
// if the device has never been saved.
func (s *StateStore) Load(ctx context.Context, deviceName string) (matter.State, error) {
	const query = `SELECT state FROM device_state WHERE device_name = ?`

	var doc string
	err := s.db.QueryRowContext(ctx, query, deviceName).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading state for %q: %w", deviceName, err)
	}

	var state matter.State
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("decoding state for %q: %w", deviceName, err)
	}
	return state, nil
}

// Prune deletes rows for devices no longer present in the
// configuration, keeping the table in step with config edits.
func (s *StateStore) Prune(ctx context.Context, keep []string) error {
	names := make(map[string]bool, len(keep))
	for _, n := range keep {
		names[n] = true
	}

	rows, err := s.db.QueryContext(ctx, `SELECT device_name FROM device_state`)
	if err != nil {
		return fmt.Errorf("listing persisted devices: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning device name: %w", err)
		}
		if !names[name] {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating persisted devices: %w", err)
	}

	for _, name := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM device_state WHERE device_name = ?`, name); err != nil {
			return fmt.Errorf("pruning state for %q: %w", name, err)
		}
	}
	return nil
}
