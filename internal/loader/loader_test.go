package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/warren/internal/models"
)

func TestLoadCatalog_SampleData(t *testing.T) {
	cat, err := LoadCatalog("../../data")
	require.NoError(t, err)

	farm := cat.Buildings["farm"]
	require.NotNil(t, farm)
	assert.Equal(t, models.Bundle{Gold: 100}, farm.BaseCost)
	assert.Equal(t, 1.4, farm.BuildTimeScale, "build_time_scale defaults to scale_factor")
	assert.Equal(t, 1.2, farm.ProductionScale)

	mine := cat.Buildings["gold_mine"]
	require.NotNil(t, mine.Gate)
	assert.Equal(t, 5, mine.Gate.RequiredClicks)

	assert.Equal(t, []models.BuildingID{"farm", "lumber_mill", "quarry"}, cat.Buildings["castle"].Unlocks[1])
	assert.Equal(t, 500.0, cat.StartingResources.Gold)

	infantry := cat.Troops["infantry"]
	assert.Equal(t, DefaultTrainingBuilding, infantry.RequiredBuilding)
	assert.Equal(t, 1, infantry.RequiredLevel)

	assert.Equal(t, DefaultXPThreshold, cat.Heroes["clover"].XPThreshold)

	obj, ok := cat.Quests["first_squad"].Objective.(models.TroopsTrainedObjective)
	require.True(t, ok)
	assert.Equal(t, models.TroopID("infantry"), obj.Troop)

	assert.Equal(t, []models.StageID{"meadow_scouts", "fox_den", "badger_hold"}, cat.StageIDs())
	assert.Equal(t, 1.1, cat.Research["iron_shields"].Effects[models.MetricDefense])

	require.Len(t, cat.Heroes["thumper"].Abilities, 3)
	assert.Equal(t, 3, cat.Heroes["thumper"].Abilities[1].UnlockLevel)
	assert.Equal(t, models.BuildingCompleteObjective{Count: 5}, cat.Quests["master_builder"].Objective)
	assert.Equal(t, models.ResearchCompleteObjective{Count: 3}, cat.Quests["scholar"].Objective)
	assert.Equal(t, models.ArmyPowerObjective{Power: 2000}, cat.Quests["war_band"].Objective)

	sword := cat.Equipment["iron_sword"]
	require.NotNil(t, sword)
	assert.Equal(t, models.SlotWeapon, sword.Slot)
	assert.Equal(t, 12.0, sword.Stats.Attack)
	assert.Len(t, cat.StartingEquipment, 7)
}

func TestLoadCatalog_EquipmentStarters(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, map[string]string{
		EquipmentFile: `{
			"wooden_sword": {"slot": "weapon", "stats": {"attack": 5}, "starter": 2},
			"relic": {"slot": "accessory", "stats": {"leadership": 9}}}`,
	}))
	require.NoError(t, err)
	assert.Len(t, cat.Equipment, 2)
	assert.Equal(t, []models.EquipmentID{"wooden_sword", "wooden_sword"}, cat.StartingEquipment)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read buildings.json")
}

func writeCatalog(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		BuildingsFile: `{"barracks": {"name": "Barracks", "max_level": 5, "base_cost": {"gold": 10}, "scale_factor": 1.5, "build_time": 5}}`,
		HeroesFile:    `{}`,
		TroopsFile:    `{"infantry": {"name": "Spearman", "stats": {"attack": 15, "defense": 12, "hp": 50}, "cost": {"gold": 1}, "training_time": 10}}`,
		ResearchFile:  `{}`,
		QuestsFile:    `{}`,
		CampaignFile:  `{}`,
	}
	for name, body := range overrides {
		files[name] = body
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadCatalog_MinimalWithoutResources(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, nil))
	require.NoError(t, err)
	assert.True(t, cat.StartingResources.IsZero())
	assert.Len(t, cat.Buildings, 1)
	assert.Empty(t, cat.Equipment, "equipment.json is optional")
}

func TestLoadCatalog_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		contains string
	}{
		{
			name:     "negative cost",
			override: map[string]string{BuildingsFile: `{"barracks": {"max_level": 5, "base_cost": {"gold": -1}, "scale_factor": 1.5}}`},
			contains: "negative quantity",
		},
		{
			name:     "zero scale factor",
			override: map[string]string{BuildingsFile: `{"barracks": {"max_level": 5, "base_cost": {"gold": 1}, "scale_factor": 0}}`},
			contains: "scale_factor must be positive",
		},
		{
			name:     "unknown resource",
			override: map[string]string{BuildingsFile: `{"barracks": {"max_level": 5, "base_cost": {"mana": 1}, "scale_factor": 1}}`},
			contains: `unknown resource "mana"`,
		},
		{
			name: "unlock of unknown building",
			override: map[string]string{BuildingsFile: `{"barracks": {"max_level": 5, "base_cost": {"gold": 1}, "scale_factor": 1,
				"unlocks": {"2": ["stables"]}}}`},
			contains: `unlocks unknown building "stables"`,
		},
		{
			name:     "troop requires unknown building",
			override: map[string]string{TroopsFile: `{"knight": {"stats": {"hp": 1}, "training_time": 1, "requires_building": "stables"}}`},
			contains: `requires unknown building "stables"`,
		},
		{
			name: "research cycle",
			override: map[string]string{ResearchFile: `{
				"a": {"effects": {"attack": 1.1}, "requires": ["b"]},
				"b": {"effects": {"attack": 1.1}, "requires": ["a"]}}`},
			contains: "prerequisite cycle",
		},
		{
			name:     "unknown metric",
			override: map[string]string{ResearchFile: `{"a": {"effects": {"magic": 2}}}`},
			contains: `unknown metric "magic"`,
		},
		{
			name:     "non-positive factor",
			override: map[string]string{ResearchFile: `{"a": {"effects": {"attack": 0}}}`},
			contains: "must be positive",
		},
		{
			name:     "unknown quest type",
			override: map[string]string{QuestsFile: `{"q": {"type": "collect_stamps", "target": {}}}`},
			contains: `unknown quest type "collect_stamps"`,
		},
		{
			name:     "quest references unknown troop",
			override: map[string]string{QuestsFile: `{"q": {"type": "troops_trained", "target": {"troop": "dragon", "count": 1}}}`},
			contains: `unknown troop "dragon"`,
		},
		{
			name:     "building completions of unknown building",
			override: map[string]string{QuestsFile: `{"q": {"type": "building_complete", "target": {"building": "stables", "count": 2}}}`},
			contains: `unknown building "stables"`,
		},
		{
			name:     "zero research completions",
			override: map[string]string{QuestsFile: `{"q": {"type": "research_complete", "target": {"count": 0}}}`},
			contains: "goal must be positive",
		},
		{
			name:     "non-positive army power",
			override: map[string]string{QuestsFile: `{"q": {"type": "army_power", "target": {"power": -10}}}`},
			contains: "goal must be positive",
		},
		{
			name:     "equipment in unknown slot",
			override: map[string]string{EquipmentFile: `{"cape": {"slot": "back", "stats": {"defense": 1}}}`},
			contains: `unknown slot "back"`,
		},
		{
			name:     "negative equipment stats",
			override: map[string]string{EquipmentFile: `{"cursed": {"slot": "helmet", "stats": {"attack": -3}}}`},
			contains: "equipment cursed",
		},
		{
			name:     "ability below level 1",
			override: map[string]string{HeroesFile: `{"thumper": {"base_stats": {"hp": 1}, "abilities": [{"name": "Nap", "unlock_level": 0}]}}`},
			contains: `ability "Nap" unlocks below level 1`,
		},
		{
			name:     "stage with unknown defender",
			override: map[string]string{CampaignFile: `{"s": {"order": 1, "defenders": {"wolf": 3}}}`},
			contains: `unknown defender "wolf"`,
		},
		{
			name: "stage cycle",
			override: map[string]string{CampaignFile: `{
				"s1": {"order": 1, "defenders": {"infantry": 1}, "requires": ["s2"]},
				"s2": {"order": 2, "defenders": {"infantry": 1}, "requires": ["s1"]}}`},
			contains: "prerequisite cycle",
		},
		{
			name:     "malformed json",
			override: map[string]string{HeroesFile: `{"thumper": [}`},
			contains: "failed to parse heroes.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, tt.override))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cat := models.NewCatalog()
	cat.Buildings["a"] = &models.BuildingDef{ID: "a", MaxLevel: 0, ScaleFactor: -1, BuildTimeScale: 1, ProductionScale: 1}
	cat.Troops["t"] = &models.TroopDef{ID: "t", Stats: models.TroopStats{HP: 1}, TrainingTimeSeconds: 1, RequiredBuilding: "missing", RequiredLevel: 1}

	err := Validate(cat)
	require.ErrorIs(t, err, ErrInvalidCatalog)
	assert.Contains(t, err.Error(), "max_level")
	assert.Contains(t, err.Error(), "scale_factor")
	assert.Contains(t, err.Error(), `unknown building "missing"`)
}
