package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/config"
	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/storage"
)

// testConfig writes a config pointing at the sample data and a temp save dir
func testConfig(t *testing.T) (string, config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Game.DataDir = "../../data"
	cfg.Storage.Path = filepath.Join(dir, "saves")
	cfg.Storage.Slot = "test"
	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path, cfg
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--quiet"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func loadSlot(t *testing.T, cfg config.Config) *sim.Engine {
	t.Helper()
	cat, err := loader.LoadCatalog(cfg.Game.DataDir)
	require.NoError(t, err)
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Load(context.Background(), cfg.Storage.Slot)
	require.NoError(t, err)
	e := sim.New(cat)
	e.Restore(snap)
	return e
}

func TestValidate(t *testing.T) {
	path, _ := testConfig(t)
	out, err := run(t, path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidate_BadDataDir(t *testing.T) {
	path, _ := testConfig(t)
	_, err := run(t, path, "--data", t.TempDir(), "validate")
	assert.Error(t, err)
}

func TestUpgradeSimulateStatus(t *testing.T) {
	path, cfg := testConfig(t)

	out, err := run(t, path, "upgrade", "castle")
	require.NoError(t, err)
	assert.Contains(t, out, "Upgrading Castle to level 1")

	_, err = run(t, path, "simulate", "--duration", "1m")
	require.NoError(t, err)

	out, err = run(t, path, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Gold")

	e := loadSlot(t, cfg)
	assert.Equal(t, 60.0, e.Now())
	assert.Equal(t, 1, e.Economy().Level("castle"))
	assert.True(t, e.Economy().IsAvailable("farm"))
}

func TestCommandErrorsLeaveSlotUntouched(t *testing.T) {
	path, cfg := testConfig(t)
	_, err := run(t, path, "upgrade", "castle")
	require.NoError(t, err)

	_, err = run(t, path, "upgrade", "farm")
	assert.ErrorIs(t, err, models.ErrUnmetPrerequisite)

	_, err = run(t, path, "recruit", "clover")
	assert.ErrorIs(t, err, models.ErrInsufficientResources)

	_, err = run(t, path, "train", "unicorn", "3")
	assert.ErrorIs(t, err, models.ErrUnknownIdentifier)

	_, err = run(t, path, "train", "infantry", "many")
	assert.Error(t, err)

	e := loadSlot(t, cfg)
	assert.Equal(t, 300.0, e.Balance().Gold)
}

func TestEquipAndUnequip(t *testing.T) {
	path, cfg := testConfig(t)

	_, err := run(t, path, "equip", "thumper", "iron_sword")
	assert.ErrorIs(t, err, models.ErrInvalidState, "not recruited yet")

	_, err = run(t, path, "recruit", "thumper")
	require.NoError(t, err)
	out, err := run(t, path, "equip", "thumper", "iron_sword")
	require.NoError(t, err)
	assert.Contains(t, out, "Thumper equipped Iron Sword")

	e := loadSlot(t, cfg)
	hero, _ := e.Heroes().Get("thumper")
	assert.Equal(t, models.EquipmentID("iron_sword"), hero.Equipment[models.SlotWeapon])
	assert.NotContains(t, e.Heroes().Inventory(), models.EquipmentID("iron_sword"))

	_, err = run(t, path, "unequip", "thumper", "cape")
	assert.ErrorIs(t, err, models.ErrUnknownIdentifier)
	_, err = run(t, path, "unequip", "thumper", "weapon")
	require.NoError(t, err)

	e = loadSlot(t, cfg)
	assert.Equal(t, 1, e.Heroes().Inventory()["iron_sword"])
}

func TestBattle(t *testing.T) {
	path, cfg := testConfig(t)

	cat, err := loader.LoadCatalog(cfg.Game.DataDir)
	require.NoError(t, err)
	e := sim.New(cat)
	snap := e.Snapshot()
	snap.Troops = map[models.TroopID]int{"cavalry": 20}
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), cfg.Storage.Slot, snap))
	require.NoError(t, store.Close())

	out, err := run(t, path, "battle", "meadow_scouts", "--troops", "cavalry=20")
	require.NoError(t, err)
	assert.Contains(t, out, "Victory")
	assert.Contains(t, out, "first clear")

	e = loadSlot(t, cfg)
	assert.True(t, e.Campaign().IsCleared("meadow_scouts"))
	assert.Equal(t, 600.0, e.Balance().Gold)

	_, err = run(t, path, "battle", "badger_hold", "--troops", "cavalry=1")
	assert.ErrorIs(t, err, models.ErrUnmetPrerequisite)
}

func TestSaves(t *testing.T) {
	path, _ := testConfig(t)
	_, err := run(t, path, "upgrade", "castle")
	require.NoError(t, err)

	out, err := run(t, path, "saves")
	require.NoError(t, err)
	assert.Contains(t, out, "test")

	_, err = run(t, path, "saves", "--delete", "test")
	require.NoError(t, err)
	_, err = run(t, path, "saves", "--delete", "test")
	assert.ErrorIs(t, err, storage.ErrNoSave)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "00:01:05", formatTime(65))
	assert.Equal(t, "01:00:01", formatTime(3600.2))
	assert.Equal(t, "Lumber Mill", formatName("lumber_mill"))
	assert.Equal(t, "archer×2 infantry×1", formatCounts(map[models.TroopID]int{"infantry": 1, "archer": 2}))
	assert.Equal(t, "none", formatCounts(nil))
}

func TestPlan(t *testing.T) {
	path, cfg := testConfig(t)

	out, err := run(t, path, "plan", "--target", "farm=1", "--next")
	require.NoError(t, err)
	assert.Equal(t, "building:castle:1\n", out)

	out, err = run(t, path, "plan", "--target", "farm=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Castle")
	assert.Contains(t, out, "Targets reached in 00:01:10")

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Load(context.Background(), cfg.Storage.Slot)
	assert.ErrorIs(t, err, storage.ErrNoSave, "planning never writes the slot")
}

func TestPlan_Errors(t *testing.T) {
	path, _ := testConfig(t)

	_, err := run(t, path, "plan")
	assert.Error(t, err)

	_, err = run(t, path, "plan", "--target", "moat=1")
	assert.ErrorIs(t, err, models.ErrUnknownIdentifier)

	out, err := run(t, path, "plan", "--target", "castle=0")
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Empty(t, out)
}
