package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/napolitain/warren/internal/sim"
)

const fileExt = ".json"

// FileStore keeps one indented JSON file per slot in a directory
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+fileExt)
}

// Save writes the snapshot atomically through a temp file
func (s *FileStore) Save(_ context.Context, slot string, snap *sim.Snapshot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := os.Rename(tmp, s.path(slot)); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	return nil
}

// Load reads a slot
func (s *FileStore) Load(_ context.Context, slot string) (*sim.Snapshot, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save: %w", err)
	}

	var snap sim.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, slot, err)
	}
	return &snap, nil
}

// List returns every slot sorted by name
func (s *FileStore) List(_ context.Context) ([]SlotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	var slots []SlotInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		slots = append(slots, SlotInfo{
			Slot:    strings.TrimSuffix(name, fileExt),
			SavedAt: info.ModTime().UTC(),
			Size:    info.Size(),
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	return slots, nil
}

// Delete removes a slot; deleting an empty slot returns ErrNoSave
func (s *FileStore) Delete(_ context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoSave, slot)
	}
	return err
}

// Close is a no-op for files
func (s *FileStore) Close() error { return nil }
