package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
)

func testEngine(t *testing.T) *sim.Engine {
	t.Helper()
	cat, err := loader.LoadCatalog("../../data")
	require.NoError(t, err)
	return sim.New(cat)
}

func TestToArmy(t *testing.T) {
	army, heroes, err := ToArmy(BattleRequest{
		Troops: map[string]int{"infantry": 10, "archer": 0},
		Heroes: []string{"thumper"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[models.TroopID]int{"infantry": 10}, army)
	assert.Equal(t, []models.HeroID{"thumper"}, heroes)

	_, _, err = ToArmy(BattleRequest{Troops: map[string]int{"infantry": -1}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestToTargets(t *testing.T) {
	targets, err := ToTargets(PlanRequest{Targets: map[string]int{"farm": 3}})
	require.NoError(t, err)
	assert.Equal(t, map[models.BuildingID]int{"farm": 3}, targets)

	_, err = ToTargets(PlanRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = ToTargets(PlanRequest{Targets: map[string]int{"farm": 0}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestToEquipment(t *testing.T) {
	item, err := ToEquipment(EquipRequest{Item: "iron_sword"})
	require.NoError(t, err)
	assert.Equal(t, models.EquipmentID("iron_sword"), item)

	_, err = ToEquipment(EquipRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestHeroesAndInventory(t *testing.T) {
	e := testEngine(t)
	assert.Len(t, Inventory(e), 7)

	e.Restore(&sim.Snapshot{Version: sim.SnapshotVersion, Resources: models.Bundle{Gold: 1000}})
	require.NoError(t, e.RecruitHero("thumper"))
	require.NoError(t, e.EquipHero("thumper", "iron_sword"))

	for _, h := range Heroes(e) {
		if h.ID != "thumper" {
			continue
		}
		assert.Equal(t, models.EquipmentID("iron_sword"), h.Equipment[models.SlotWeapon])
		assert.Equal(t, 42.0, h.Stats.Attack)
		assert.Equal(t, []string{"Carrot Charge"}, h.Abilities)
	}
	for _, item := range Inventory(e) {
		assert.NotEqual(t, models.EquipmentID("iron_sword"), item.ID)
	}
}

func TestToTraining(t *testing.T) {
	tests := []struct {
		name    string
		req     TrainRequest
		wantErr bool
	}{
		{"Valid", TrainRequest{Troop: "infantry", Count: 3}, false},
		{"MissingTroop", TrainRequest{Count: 3}, true},
		{"ZeroCount", TrainRequest{Troop: "infantry"}, true},
		{"NegativeCount", TrainRequest{Troop: "infantry", Count: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			troop, n, err := ToTraining(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.TroopID(tt.req.Troop), troop)
			assert.Equal(t, tt.req.Count, n)
		})
	}
}

func TestToAdvance(t *testing.T) {
	dt, err := ToAdvance(AdvanceRequest{Seconds: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, dt)

	_, err = ToAdvance(AdvanceRequest{Seconds: 0})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestBuildings_InitialState(t *testing.T) {
	e := testEngine(t)
	views := Buildings(e)
	byID := make(map[models.BuildingID]BuildingView)
	for _, v := range views {
		byID[v.ID] = v
	}

	castle := byID["castle"]
	assert.True(t, castle.Available)
	require.NotNil(t, castle.NextCost)
	assert.Equal(t, models.Bundle{Gold: 200, Wood: 150, Stone: 100}, *castle.NextCost)
	assert.Equal(t, 60.0, castle.BuildTime)

	assert.False(t, byID["farm"].Available)
	assert.Equal(t, "0/5", byID["gold_mine"].Clicks)
}

func TestBuildings_TracksUpgrade(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.StartUpgrade("castle"))

	for _, v := range Buildings(e) {
		if v.ID == "castle" {
			require.NotNil(t, v.Upgrade)
			assert.Equal(t, 1, v.Upgrade.TargetLevel)
		}
	}

	require.NoError(t, e.AdvanceTime(60))
	for _, v := range Buildings(e) {
		if v.ID == "farm" {
			assert.True(t, v.Available)
		}
	}
}

func TestState_CoversEveryCatalogEntry(t *testing.T) {
	e := testEngine(t)
	cat := e.Catalog()
	state := State(e)

	assert.Len(t, state.Buildings, len(cat.Buildings))
	assert.Len(t, state.Research, len(cat.Research))
	assert.Len(t, state.Troops, len(cat.Troops))
	assert.Len(t, state.Heroes, len(cat.Heroes))
	assert.Len(t, state.Inventory, len(cat.Equipment))
	assert.Len(t, state.Quests, len(cat.Quests))
	require.Len(t, state.Stages, len(cat.Stages))

	assert.Equal(t, models.StageID("meadow_scouts"), state.Stages[0].ID)
	assert.True(t, state.Stages[0].Unlocked)
	assert.False(t, state.Stages[1].Unlocked)
	assert.Nil(t, state.Active)
	assert.Equal(t, cat.StartingResources, state.Status.Resources)

	for _, q := range state.Quests {
		assert.False(t, q.Claimable, q.ID)
		assert.Positive(t, q.Goal, q.ID)
	}
}
