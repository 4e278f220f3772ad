package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
)

func testSnapshot(t *testing.T) *sim.Snapshot {
	t.Helper()
	cat := models.NewCatalog()
	cat.StartingResources = models.Bundle{Gold: 250, Food: 3}
	cat.Buildings["farm"] = &models.BuildingDef{
		ID: "farm", MaxLevel: 5, BaseCost: models.Bundle{Gold: 100},
		ScaleFactor: 1.4, BuildTimeSeconds: 10, BuildTimeScale: 1.4,
		BaseProduction: models.Bundle{Food: 2}, ProductionScale: 1.2,
	}
	e := sim.New(cat)
	require.NoError(t, e.StartUpgrade("farm"))
	require.NoError(t, e.AdvanceTime(12.5))
	return e.Snapshot()
}

func asJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "saves"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "warren.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{DriverFile: fs, DriverSQLite: db}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			snap := testSnapshot(t)
			require.NoError(t, s.Save(ctx, "slot-1", snap))

			loaded, err := s.Load(ctx, "slot-1")
			require.NoError(t, err)
			assert.JSONEq(t, asJSON(t, snap), asJSON(t, loaded))
			assert.Equal(t, 12.5, loaded.Clock)
		})
	}
}

func TestStore_MissingSlot(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "empty")
			assert.ErrorIs(t, err, ErrNoSave)
			assert.ErrorIs(t, s.Delete(ctx, "empty"), ErrNoSave)
		})
	}
}

func TestStore_InvalidSlot(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Save(ctx, "../escape", &sim.Snapshot{}), ErrInvalidSlot)
			_, err := s.Load(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidSlot)
		})
	}
}

func TestStore_ListOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "beta", &sim.Snapshot{Clock: 1}))
			require.NoError(t, s.Save(ctx, "alpha", &sim.Snapshot{Clock: 2}))
			require.NoError(t, s.Save(ctx, "beta", &sim.Snapshot{Clock: 3}))

			slots, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, slots, 2)
			assert.Equal(t, "alpha", slots[0].Slot)
			assert.Equal(t, "beta", slots[1].Slot)
			assert.Positive(t, slots[0].Size)
			assert.WithinDuration(t, time.Now(), slots[0].SavedAt, time.Minute)

			loaded, err := s.Load(ctx, "beta")
			require.NoError(t, err)
			assert.Equal(t, 3.0, loaded.Clock)

			require.NoError(t, s.Delete(ctx, "alpha"))
			slots, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, slots, 1)
		})
	}
}

func TestSQLiteStore_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "main", testSnapshot(t)))
	_, err = s.db.ExecContext(ctx, `UPDATE saves SET checksum = 'bogus' WHERE slot = 'main'`)
	require.NoError(t, err)

	_, err = s.Load(ctx, "main")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCodec_CompressRoundTrip(t *testing.T) {
	src := []byte(`{"resources":{"gold":100},"buildings":[]}`)
	blob, err := compress(src)
	require.NoError(t, err)
	out, err := decompress(blob)
	require.NoError(t, err)
	assert.Equal(t, src, out)
	assert.Len(t, checksum(src), 64)
	assert.NotEqual(t, checksum(src), checksum(out[:len(out)-1]))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.Error(t, err)
}
