package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

func testCatalog() *models.Catalog {
	cat := models.NewCatalog()
	cat.Buildings["castle"] = &models.BuildingDef{
		ID: "castle", MaxLevel: 3,
		BaseCost:    models.Bundle{Gold: 10},
		ScaleFactor: 2, BuildTimeSeconds: 10, BuildTimeScale: 1, ProductionScale: 1,
		Unlocks: map[int][]models.BuildingID{
			1: {"farm", "gold_mine"},
			2: {"barracks"},
		},
	}
	cat.Buildings["farm"] = &models.BuildingDef{
		ID: "farm", MaxLevel: 10,
		BaseCost:    models.Bundle{Gold: 100},
		ScaleFactor: 1.4, BuildTimeSeconds: 10, BuildTimeScale: 1.4,
		BaseProduction: models.Bundle{Food: 2}, ProductionScale: 1.2,
	}
	cat.Buildings["gold_mine"] = &models.BuildingDef{
		ID: "gold_mine", MaxLevel: 5,
		BaseCost:    models.Bundle{Wood: 10},
		ScaleFactor: 1.5, BuildTimeSeconds: 0, BuildTimeScale: 1.5,
		BaseProduction: models.Bundle{Gold: 4}, ProductionScale: 1.5,
		Gate: &models.ClickGate{RequiredClicks: 3, WindowSeconds: 10},
	}
	cat.Buildings["barracks"] = &models.BuildingDef{
		ID: "barracks", MaxLevel: 5,
		BaseCost:    models.Bundle{Stone: 10},
		ScaleFactor: 1.5, BuildTimeSeconds: 5, BuildTimeScale: 1.5, ProductionScale: 1.5,
	}
	return cat
}

type fixture struct {
	eco    *Economy
	ledger *ledger.Ledger
	bus    *events.Bus
	rec    *events.Recorder
}

func newFixture(t *testing.T, cat *models.Catalog, start models.Bundle, mods Modifiers) *fixture {
	t.Helper()
	f := &fixture{
		ledger: ledger.New(start),
		bus:    events.NewBus(),
		rec:    &events.Recorder{},
	}
	f.bus.Subscribe(f.rec.Handle)
	f.eco = New(cat, f.ledger, f.bus, mods)
	return f
}

// build walks a building up to level with instant ticks
func (f *fixture) build(t *testing.T, id models.BuildingID, level int) {
	t.Helper()
	for f.eco.Level(id) < level {
		require.NoError(t, f.eco.StartUpgrade(id, 0))
		bt := f.eco.buildings[id].Upgrade
		if bt != nil {
			f.eco.Tick(0, bt.Remaining)
		}
	}
	f.bus.Flush()
	f.rec.Reset()
}

func farmOnly() *models.Catalog {
	cat := testCatalog()
	delete(cat.Buildings, "castle")
	delete(cat.Buildings, "gold_mine")
	delete(cat.Buildings, "barracks")
	return cat
}

func TestEconomy_FarmUpgradeEndToEnd(t *testing.T) {
	f := newFixture(t, farmOnly(), models.Bundle{Gold: 100}, nil)

	require.NoError(t, f.eco.StartUpgrade("farm", 0))
	assert.Equal(t, 0.0, f.ledger.Get(models.Gold))
	assert.Equal(t, 0, f.eco.Level("farm"))

	f.eco.Tick(10, 10)
	assert.Equal(t, 1, f.eco.Level("farm"))

	cost, err := f.eco.Cost("farm")
	require.NoError(t, err)
	assert.Equal(t, models.Bundle{Gold: 140}, cost)
}

func TestEconomy_StartUpgradeFailuresLeaveStateUntouched(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 15}, nil)

	err := f.eco.StartUpgrade("nope", 0)
	assert.ErrorIs(t, err, models.ErrUnknownIdentifier)

	err = f.eco.StartUpgrade("farm", 0)
	assert.ErrorIs(t, err, models.ErrUnmetPrerequisite)
	assert.Contains(t, err.Error(), "castle level 1")

	require.NoError(t, f.eco.StartUpgrade("castle", 0))
	err = f.eco.StartUpgrade("castle", 0)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	f.eco.Tick(10, 10)
	err = f.eco.StartUpgrade("castle", 10)
	require.ErrorIs(t, err, models.ErrInsufficientResources)
	assert.Equal(t, 5.0, f.ledger.Get(models.Gold), "no partial debit")
	assert.False(t, f.eco.buildings["castle"].Upgrading())
}

func TestEconomy_MaxLevel(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 1000}, nil)
	f.build(t, "castle", 3)

	err := f.eco.StartUpgrade("castle", 0)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestEconomy_UnlockAppliesExactlyAtLevel(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 1000, Stone: 100}, nil)
	f.build(t, "castle", 1)

	assert.True(t, f.eco.IsAvailable("farm"))
	assert.False(t, f.eco.IsAvailable("barracks"))

	require.NoError(t, f.eco.StartUpgrade("castle", 0))
	f.eco.Tick(9.5, 9.5)
	assert.False(t, f.eco.IsAvailable("barracks"), "not before level 2")
	assert.ErrorIs(t, f.eco.StartUpgrade("barracks", 9.5), models.ErrUnmetPrerequisite)

	f.eco.Tick(10, 0.5)
	assert.True(t, f.eco.IsAvailable("barracks"), "same tick as level 2")
	require.NoError(t, f.eco.StartUpgrade("barracks", 10))

	f.bus.Flush()
	var completed []events.BuildingUpgradeCompletedPayload
	for _, e := range f.rec.Events {
		if p, ok := e.Payload.(events.BuildingUpgradeCompletedPayload); ok {
			completed = append(completed, p)
		}
	}
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].Level)
	assert.Equal(t, []models.BuildingID{"barracks"}, completed[0].Unlocked)
}

func TestEconomy_ProductionCreditsLedger(t *testing.T) {
	f := newFixture(t, farmOnly(), models.Bundle{Gold: 100}, nil)
	f.build(t, "farm", 1)

	f.eco.Tick(15, 5)
	assert.InDelta(t, 10.0, f.ledger.Get(models.Food), 1e-9)

	f.bus.Flush()
	require.Len(t, f.rec.Events, 1)
	p := f.rec.Events[0].Payload.(events.ResourceCreditedPayload)
	assert.Equal(t, events.SourceProduction, p.Source)
	assert.InDelta(t, 10.0, p.Amount.Food, 1e-9)
}

type fixedMods map[models.Metric]float64

func (m fixedMods) Multiplier(metric models.Metric) float64 {
	if v, ok := m[metric]; ok {
		return v
	}
	return 1
}

func TestEconomy_ProductionAppliesModifiers(t *testing.T) {
	mods := fixedMods{models.ProductionMetric(models.Food): 1.5}
	f := newFixture(t, farmOnly(), models.Bundle{Gold: 100}, mods)
	f.build(t, "farm", 1)

	assert.InDelta(t, 3.0, f.eco.Production("farm").Food, 1e-9)
	f.eco.Tick(0, 2)
	assert.InDelta(t, 6.0, f.ledger.Get(models.Food), 1e-9)
}

func TestEconomy_NoProductionWhileUpgrading(t *testing.T) {
	f := newFixture(t, farmOnly(), models.Bundle{Gold: 240}, nil)
	f.build(t, "farm", 1)

	require.NoError(t, f.eco.StartUpgrade("farm", 0))
	f.eco.Tick(0, 5)
	assert.Zero(t, f.ledger.Get(models.Food))
}

func TestEconomy_ClickGate(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 10, Wood: 10}, nil)
	f.build(t, "castle", 1)
	f.build(t, "gold_mine", 1)
	gold := f.ledger.Get(models.Gold)

	f.eco.Tick(0, 5)
	assert.Equal(t, gold, f.ledger.Get(models.Gold), "no clicks, no production")

	for i := 0; i < 5; i++ {
		require.NoError(t, f.eco.Click("gold_mine"))
	}
	assert.Equal(t, 3, f.eco.buildings["gold_mine"].Clicks, "clicks are capped at the threshold")

	f.eco.Tick(0, 5)
	assert.InDelta(t, gold+20, f.ledger.Get(models.Gold), 1e-9)
	assert.Zero(t, f.eco.buildings["gold_mine"].Clicks, "window elapsed, counter reset")

	f.eco.Tick(0, 5)
	assert.InDelta(t, gold+20, f.ledger.Get(models.Gold), 1e-9)
}

func TestEconomy_ClickErrors(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 10}, nil)

	assert.ErrorIs(t, f.eco.Click("missing"), models.ErrUnknownIdentifier)
	assert.ErrorIs(t, f.eco.Click("castle"), models.ErrInvalidState, "not gated")
	assert.ErrorIs(t, f.eco.Click("gold_mine"), models.ErrInvalidState, "not built")
}

func TestEconomy_ZeroBuildTimeCompletesImmediately(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{Gold: 10, Wood: 10}, nil)
	f.build(t, "castle", 1)

	require.NoError(t, f.eco.StartUpgrade("gold_mine", 0))
	assert.Equal(t, 1, f.eco.Level("gold_mine"))

	f.bus.Flush()
	assert.Equal(t, []events.Type{events.BuildingUpgradeStarted, events.BuildingUpgradeCompleted}, f.rec.Types())
}

func TestEconomy_RestoreRebuildsUnlocks(t *testing.T) {
	f := newFixture(t, testCatalog(), models.Bundle{}, nil)

	unknown := f.eco.Restore([]Building{
		{ID: "castle", Level: 2},
		{ID: "farm", Level: 1, Upgrade: &Upgrade{TargetLevel: 2, Remaining: 3, Total: 14}},
		{ID: "ghost", Level: 4},
	})

	assert.Equal(t, []models.BuildingID{"ghost"}, unknown)
	assert.True(t, f.eco.IsAvailable("barracks"))
	assert.Equal(t, 1, f.eco.Level("farm"))
	assert.True(t, f.eco.buildings["farm"].Upgrading())

	states := f.eco.Buildings()
	require.Len(t, states, 4)
	assert.Equal(t, models.BuildingID("barracks"), states[0].ID)
}
