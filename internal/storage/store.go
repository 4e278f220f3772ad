package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/napolitain/warren/internal/sim"
)

var (
	// ErrNoSave is returned when a slot holds no snapshot
	ErrNoSave = errors.New("no save in slot")
	// ErrInvalidSlot is returned for slot names outside [A-Za-z0-9_-]
	ErrInvalidSlot = errors.New("invalid slot name")
	// ErrCorrupt is returned when a stored snapshot fails its checksum
	ErrCorrupt = errors.New("corrupt save")
)

// SlotInfo describes one saved slot
type SlotInfo struct {
	Slot    string    `json:"slot"`
	SavedAt time.Time `json:"saved_at"`
	Size    int64     `json:"size"`
}

// Store persists engine snapshots in named slots
type Store interface {
	Save(ctx context.Context, slot string, snap *sim.Snapshot) error
	Load(ctx context.Context, slot string) (*sim.Snapshot, error)
	List(ctx context.Context) ([]SlotInfo, error)
	Delete(ctx context.Context, slot string) error
	Close() error
}

// Drivers accepted by Open
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open creates a store for the given driver. For the file driver path is a
// directory, for sqlite a database file.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
