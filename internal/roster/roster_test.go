package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

type levels map[models.BuildingID]int

func (l levels) Level(id models.BuildingID) int { return l[id] }

type speed float64

func (s speed) Multiplier(m models.Metric) float64 {
	if m == models.MetricTrainingSpeed {
		return float64(s)
	}
	return 1
}

func testCatalog() *models.Catalog {
	cat := models.NewCatalog()
	cat.Troops["infantry"] = &models.TroopDef{
		ID: "infantry", Stats: models.TroopStats{Attack: 15, Defense: 12, HP: 50},
		Cost: models.Bundle{Gold: 10}, TrainingTimeSeconds: 10,
		RequiredBuilding: "barracks", RequiredLevel: 1,
	}
	cat.Troops["cavalry"] = &models.TroopDef{
		ID: "cavalry", Stats: models.TroopStats{Attack: 25, Defense: 15, HP: 80},
		Cost: models.Bundle{Gold: 50, Food: 20}, TrainingTimeSeconds: 20,
		RequiredBuilding: "barracks", RequiredLevel: 3,
	}
	return cat
}

type fixture struct {
	roster *Roster
	ledger *ledger.Ledger
	bus    *events.Bus
	rec    *events.Recorder
}

func newFixture(start models.Bundle, lv levels, mods Modifiers) *fixture {
	f := &fixture{ledger: ledger.New(start), bus: events.NewBus(), rec: &events.Recorder{}}
	f.bus.Subscribe(f.rec.Handle)
	f.roster = New(testCatalog(), f.ledger, f.bus, lv, mods)
	return f
}

func TestRoster_EnqueueDebitsWholeBatch(t *testing.T) {
	f := newFixture(models.Bundle{Gold: 100}, levels{"barracks": 1}, nil)

	require.NoError(t, f.roster.Enqueue("infantry", 10, 0))
	assert.Zero(t, f.ledger.Get(models.Gold))
	require.Len(t, f.roster.Queue(), 1)

	err := f.roster.Enqueue("infantry", 1, 0)
	require.ErrorIs(t, err, models.ErrInsufficientResources)
	assert.Len(t, f.roster.Queue(), 1, "failed enqueue adds nothing")
}

func TestRoster_EnqueueErrors(t *testing.T) {
	f := newFixture(models.Bundle{Gold: 1000, Food: 1000}, levels{"barracks": 2}, nil)

	assert.ErrorIs(t, f.roster.Enqueue("dragon", 1, 0), models.ErrUnknownIdentifier)
	assert.ErrorIs(t, f.roster.Enqueue("infantry", 0, 0), models.ErrInvalidState)
	assert.ErrorIs(t, f.roster.Enqueue("cavalry", 1, 0), models.ErrUnmetPrerequisite)

	for i := 0; i < MaxQueue; i++ {
		require.NoError(t, f.roster.Enqueue("infantry", 1, 0))
	}
	assert.ErrorIs(t, f.roster.Enqueue("infantry", 1, 0), models.ErrInvalidState)
	assert.Equal(t, 950.0, f.ledger.Get(models.Gold))
}

func TestRoster_TickCarriesLeftoverTime(t *testing.T) {
	f := newFixture(models.Bundle{Gold: 1000}, levels{"barracks": 1}, nil)
	require.NoError(t, f.roster.Enqueue("infantry", 3, 0))
	require.NoError(t, f.roster.Enqueue("infantry", 2, 0))

	f.roster.Tick(25, 25)
	assert.Equal(t, 2, f.roster.Count("infantry"))
	q := f.roster.Queue()
	require.Len(t, q, 2)
	assert.Equal(t, 1, q[0].Remaining)
	assert.InDelta(t, 5.0, q[0].UnitRemaining, 1e-9)

	f.roster.Tick(40, 15)
	assert.Equal(t, 4, f.roster.Count("infantry"), "leftover flows into next batch")
	q = f.roster.Queue()
	require.Len(t, q, 1)
	assert.InDelta(t, 10.0, q[0].UnitRemaining, 1e-9)

	f.roster.Tick(1000, 960)
	assert.Equal(t, 5, f.roster.Count("infantry"))
	assert.Empty(t, f.roster.Queue())
}

func TestRoster_EmitsOneEventPerTypePerTick(t *testing.T) {
	f := newFixture(models.Bundle{Gold: 1000, Food: 1000}, levels{"barracks": 3}, nil)
	require.NoError(t, f.roster.Enqueue("infantry", 2, 0))
	require.NoError(t, f.roster.Enqueue("cavalry", 1, 0))

	f.roster.Tick(40, 40)
	f.bus.Flush()

	require.Len(t, f.rec.Events, 2)
	first := f.rec.Events[0].Payload.(events.TroopTrainingCompletedPayload)
	second := f.rec.Events[1].Payload.(events.TroopTrainingCompletedPayload)
	assert.Equal(t, events.TroopTrainingCompletedPayload{Troop: "cavalry", Count: 1}, first)
	assert.Equal(t, events.TroopTrainingCompletedPayload{Troop: "infantry", Count: 2}, second)
}

func TestRoster_TrainingSpeedModifier(t *testing.T) {
	f := newFixture(models.Bundle{Gold: 100}, levels{"barracks": 1}, speed(2))
	require.NoError(t, f.roster.Enqueue("infantry", 2, 0))

	assert.InDelta(t, 5.0, f.roster.Queue()[0].UnitTime, 1e-9)
	f.roster.Tick(10, 10)
	assert.Equal(t, 2, f.roster.Count("infantry"))
}

func TestRoster_HasAndRemove(t *testing.T) {
	f := newFixture(models.Bundle{}, nil, nil)
	f.roster.Restore(map[models.TroopID]int{"infantry": 10}, nil)

	require.NoError(t, f.roster.Has(map[models.TroopID]int{"infantry": 10}))
	assert.ErrorIs(t, f.roster.Has(map[models.TroopID]int{"infantry": 11}), models.ErrInvalidState)
	assert.ErrorIs(t, f.roster.Has(map[models.TroopID]int{"ghost": 1}), models.ErrUnknownIdentifier)

	f.roster.Remove(map[models.TroopID]int{"infantry": 4, "cavalry": 2})
	assert.Equal(t, 6, f.roster.Count("infantry"))
	assert.Zero(t, f.roster.Count("cavalry"))
	assert.Equal(t, 6, f.roster.Total())
}

func TestRoster_Power(t *testing.T) {
	f := newFixture(models.Bundle{}, nil, nil)
	assert.Zero(t, f.roster.Power())

	// infantry 50 + 15*2 + 12 = 92, cavalry 80 + 25*2 + 15 = 145
	f.roster.Restore(map[models.TroopID]int{"infantry": 3, "cavalry": 2}, nil)
	assert.Equal(t, 566.0, f.roster.Power())
}

func TestRoster_RestoreSkipsUnknown(t *testing.T) {
	f := newFixture(models.Bundle{}, nil, nil)
	unknown := f.roster.Restore(
		map[models.TroopID]int{"infantry": 3, "ghost": 1},
		[]Batch{{Troop: "cavalry", Remaining: 2, UnitTime: 20, UnitRemaining: 7}, {Troop: "wisp", Remaining: 1, UnitTime: 1}},
	)
	assert.ElementsMatch(t, []models.TroopID{"ghost", "wisp"}, unknown)
	assert.Equal(t, map[models.TroopID]int{"infantry": 3}, f.roster.Counts())
	require.Len(t, f.roster.Queue(), 1)
	assert.Equal(t, 7.0, f.roster.Queue()[0].UnitRemaining)
}
