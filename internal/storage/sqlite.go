package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/napolitain/warren/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	slot     TEXT PRIMARY KEY,
	saved_at INTEGER NOT NULL,
	checksum TEXT NOT NULL,
	raw_size INTEGER NOT NULL,
	data     BLOB NOT NULL
);`

// SQLiteStore keeps lz4-compressed snapshots in a SQLite table, each
// guarded by a blake3 checksum of the uncompressed JSON
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database and its schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save upserts a slot
func (s *SQLiteStore) Save(ctx context.Context, slot string, snap *sim.Snapshot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	blob, err := compress(raw)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, saved_at, checksum, raw_size, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			saved_at = excluded.saved_at,
			checksum = excluded.checksum,
			raw_size = excluded.raw_size,
			data     = excluded.data`,
		slot, s.now().UnixMilli(), checksum(raw), len(raw), blob)
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slot, err)
	}
	return nil
}

// Load reads, decompresses and verifies a slot
func (s *SQLiteStore) Load(ctx context.Context, slot string) (*sim.Snapshot, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}

	var sum string
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT checksum, data FROM saves WHERE slot = ?`, slot).Scan(&sum, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}

	raw, err := decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, slot, err)
	}
	if checksum(raw) != sum {
		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupt, slot)
	}

	var snap sim.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, slot, err)
	}
	return &snap, nil
}

// List returns every slot sorted by name
func (s *SQLiteStore) List(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, saved_at, raw_size FROM saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var slots []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var savedAt int64
		if err := rows.Scan(&info.Slot, &savedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		info.SavedAt = time.UnixMilli(savedAt).UTC()
		slots = append(slots, info)
	}
	return slots, rows.Err()
}

// Delete removes a slot; deleting an empty slot returns ErrNoSave
func (s *SQLiteStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNoSave, slot)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
