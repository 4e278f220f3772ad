package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/napolitain/warren/internal/models"
)

// Data file names inside the data directory
const (
	ResourcesFile = "resources.json"
	BuildingsFile = "buildings.json"
	HeroesFile    = "heroes.json"
	TroopsFile    = "troops.json"
	ResearchFile  = "research.json"
	QuestsFile    = "quests.json"
	CampaignFile  = "campaign.json"
	EquipmentFile = "equipment.json"
)

// DefaultTrainingBuilding is required by troops that do not name one
const DefaultTrainingBuilding models.BuildingID = "barracks"

// DefaultXPThreshold is the experience per level for heroes that do not set one
const DefaultXPThreshold = 100

// BundleJSON is a resource -> quantity map as written in data files
type BundleJSON map[string]float64

// BuildingJSON represents the JSON structure for buildings
type BuildingJSON struct {
	Name            string              `json:"name"`
	MaxLevel        int                 `json:"max_level"`
	BaseCost        BundleJSON          `json:"base_cost"`
	ScaleFactor     float64             `json:"scale_factor"`
	BuildTime       float64             `json:"build_time"`
	BuildTimeScale  *float64            `json:"build_time_scale,omitempty"`
	Production      BundleJSON          `json:"production,omitempty"`
	ProductionScale *float64            `json:"production_scale,omitempty"`
	ClickGate       *ClickGateJSON      `json:"click_gate,omitempty"`
	Unlocks         map[string][]string `json:"unlocks,omitempty"`
}

// ClickGateJSON represents a click-gated production rule
type ClickGateJSON struct {
	RequiredClicks int     `json:"required_clicks"`
	WindowSeconds  float64 `json:"window_seconds"`
}

// HeroJSON represents the JSON structure for heroes
type HeroJSON struct {
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Role        string              `json:"role"`
	BaseStats   models.HeroStats    `json:"base_stats"`
	Growth      models.HeroStats    `json:"growth"`
	RecruitCost BundleJSON          `json:"recruit_cost"`
	XPThreshold int                 `json:"xp_threshold,omitempty"`
	Abilities   []models.AbilityDef `json:"abilities,omitempty"`
}

// EquipmentJSON represents the JSON structure for equipment pieces. Starter
// pieces are placed in the inventory of a new game.
type EquipmentJSON struct {
	Name        string           `json:"name"`
	Slot        string           `json:"slot"`
	Rarity      string           `json:"rarity"`
	Stats       models.HeroStats `json:"stats"`
	Description string           `json:"description"`
	Starter     int              `json:"starter,omitempty"`
}

// TroopJSON represents the JSON structure for troops
type TroopJSON struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Stats struct {
		Attack  float64 `json:"attack"`
		Defense float64 `json:"defense"`
		HP      float64 `json:"hp"`
		Speed   float64 `json:"speed"`
	} `json:"stats"`
	Cost             BundleJSON `json:"cost"`
	TrainingTime     float64    `json:"training_time"`
	RequiresBuilding string     `json:"requires_building,omitempty"`
	RequiresLevel    int        `json:"requires_level,omitempty"`
}

// ResearchJSON represents the JSON structure for research nodes
type ResearchJSON struct {
	Name             string             `json:"name"`
	Category         string             `json:"category"`
	Cost             BundleJSON         `json:"cost"`
	Time             float64            `json:"time"`
	Effects          map[string]float64 `json:"effects"`
	Requires         []string           `json:"requires,omitempty"`
	RequiresBuilding string             `json:"requires_building,omitempty"`
	RequiresLevel    int                `json:"requires_level,omitempty"`
}

// QuestJSON represents the JSON structure for quests. Target is decoded
// according to Type.
type QuestJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Target      json.RawMessage `json:"target"`
	Reward      BundleJSON      `json:"reward"`
	Repeatable  bool            `json:"repeatable,omitempty"`
}

// StageJSON represents the JSON structure for campaign stages
type StageJSON struct {
	Name      string         `json:"name"`
	Order     int            `json:"order"`
	Defenders map[string]int `json:"defenders"`
	Reward    BundleJSON     `json:"reward"`
	HeroXP    int            `json:"hero_xp,omitempty"`
	Requires  []string       `json:"requires,omitempty"`
}

// ResourceJSON represents the JSON structure for resources.json
type ResourceJSON struct {
	StartingAmount float64 `json:"starting_amount"`
}

// LoadCatalog loads and validates every data file in dataDir. Any
// inconsistency is returned as a single joined error; callers must not start
// a simulation on failure.
func LoadCatalog(dataDir string) (*models.Catalog, error) {
	cat := models.NewCatalog()
	var problems []error

	if err := loadResources(dataDir, cat); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, BuildingsFile, func(raw map[string]BuildingJSON) error {
		return convertBuildings(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}
	if err := loadEquipment(dataDir, cat); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, HeroesFile, func(raw map[string]HeroJSON) error {
		return convertHeroes(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, TroopsFile, func(raw map[string]TroopJSON) error {
		return convertTroops(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, ResearchFile, func(raw map[string]ResearchJSON) error {
		return convertResearch(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, QuestsFile, func(raw map[string]QuestJSON) error {
		return convertQuests(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}
	if err := loadFile(dataDir, CampaignFile, func(raw map[string]StageJSON) error {
		return convertStages(raw, cat)
	}); err != nil {
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	if err := Validate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func loadFile[T any](dataDir, name string, convert func(map[string]T) error) error {
	data, err := os.ReadFile(filepath.Join(dataDir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	var raw map[string]T
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	if err := convert(raw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// resources.json is optional: a missing file means every balance starts at zero
func loadResources(dataDir string, cat *models.Catalog) error {
	data, err := os.ReadFile(filepath.Join(dataDir, ResourcesFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ResourcesFile, err)
	}

	var raw map[string]ResourceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", ResourcesFile, err)
	}

	var problems []error
	for _, name := range sortedNames(raw) {
		rt, ok := models.ParseResourceType(name)
		if !ok {
			problems = append(problems, fmt.Errorf("%s: unknown resource %q", ResourcesFile, name))
			continue
		}
		cat.StartingResources.Set(rt, raw[name].StartingAmount)
	}
	return errors.Join(problems...)
}

// equipment.json is optional: without it heroes simply have nothing to wear
func loadEquipment(dataDir string, cat *models.Catalog) error {
	if _, err := os.Stat(filepath.Join(dataDir, EquipmentFile)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return loadFile(dataDir, EquipmentFile, func(raw map[string]EquipmentJSON) error {
		for _, id := range sortedNames(raw) {
			ej := raw[id]
			def := &models.EquipmentDef{
				ID:          models.EquipmentID(id),
				Name:        ej.Name,
				Slot:        models.EquipSlot(ej.Slot),
				Rarity:      ej.Rarity,
				Stats:       ej.Stats,
				Description: ej.Description,
			}
			cat.Equipment[def.ID] = def
			for i := 0; i < ej.Starter; i++ {
				cat.StartingEquipment = append(cat.StartingEquipment, def.ID)
			}
		}
		return nil
	})
}

func toBundle(raw BundleJSON) (models.Bundle, error) {
	var b models.Bundle
	for _, name := range sortedNames(raw) {
		rt, ok := models.ParseResourceType(name)
		if !ok {
			return b, fmt.Errorf("unknown resource %q", name)
		}
		b.Set(rt, raw[name])
	}
	return b, nil
}

func convertBuildings(raw map[string]BuildingJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		bj := raw[id]
		def := &models.BuildingDef{
			ID:               models.BuildingID(id),
			Name:             bj.Name,
			MaxLevel:         bj.MaxLevel,
			ScaleFactor:      bj.ScaleFactor,
			BuildTimeSeconds: bj.BuildTime,
			BuildTimeScale:   bj.ScaleFactor,
			ProductionScale:  bj.ScaleFactor,
			Unlocks:          make(map[int][]models.BuildingID),
		}
		if bj.BuildTimeScale != nil {
			def.BuildTimeScale = *bj.BuildTimeScale
		}
		if bj.ProductionScale != nil {
			def.ProductionScale = *bj.ProductionScale
		}

		var err error
		if def.BaseCost, err = toBundle(bj.BaseCost); err != nil {
			problems = append(problems, fmt.Errorf("building %s cost: %w", id, err))
		}
		if def.BaseProduction, err = toBundle(bj.Production); err != nil {
			problems = append(problems, fmt.Errorf("building %s production: %w", id, err))
		}
		if bj.ClickGate != nil {
			def.Gate = &models.ClickGate{
				RequiredClicks: bj.ClickGate.RequiredClicks,
				WindowSeconds:  bj.ClickGate.WindowSeconds,
			}
		}
		for levelStr, targets := range bj.Unlocks {
			level, err := strconv.Atoi(levelStr)
			if err != nil {
				problems = append(problems, fmt.Errorf("building %s: unlock level %q is not a number", id, levelStr))
				continue
			}
			for _, t := range targets {
				def.Unlocks[level] = append(def.Unlocks[level], models.BuildingID(t))
			}
		}
		cat.Buildings[def.ID] = def
	}
	return errors.Join(problems...)
}

func convertHeroes(raw map[string]HeroJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		hj := raw[id]
		cost, err := toBundle(hj.RecruitCost)
		if err != nil {
			problems = append(problems, fmt.Errorf("hero %s recruit cost: %w", id, err))
		}
		threshold := hj.XPThreshold
		if threshold == 0 {
			threshold = DefaultXPThreshold
		}
		cat.Heroes[models.HeroID(id)] = &models.HeroDef{
			ID:          models.HeroID(id),
			Name:        hj.Name,
			Title:       hj.Title,
			Role:        hj.Role,
			BaseStats:   hj.BaseStats,
			Growth:      hj.Growth,
			RecruitCost: cost,
			XPThreshold: threshold,
			Abilities:   hj.Abilities,
		}
	}
	return errors.Join(problems...)
}

func convertTroops(raw map[string]TroopJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		tj := raw[id]
		cost, err := toBundle(tj.Cost)
		if err != nil {
			problems = append(problems, fmt.Errorf("troop %s cost: %w", id, err))
		}
		building := models.BuildingID(tj.RequiresBuilding)
		if building == "" {
			building = DefaultTrainingBuilding
		}
		level := tj.RequiresLevel
		if level == 0 {
			level = 1
		}
		cat.Troops[models.TroopID(id)] = &models.TroopDef{
			ID:       models.TroopID(id),
			Name:     tj.Name,
			Category: tj.Type,
			Stats: models.TroopStats{
				Attack:  tj.Stats.Attack,
				Defense: tj.Stats.Defense,
				HP:      tj.Stats.HP,
				Speed:   tj.Stats.Speed,
			},
			Cost:                cost,
			TrainingTimeSeconds: tj.TrainingTime,
			RequiredBuilding:    building,
			RequiredLevel:       level,
		}
	}
	return errors.Join(problems...)
}

func convertResearch(raw map[string]ResearchJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		rj := raw[id]
		cost, err := toBundle(rj.Cost)
		if err != nil {
			problems = append(problems, fmt.Errorf("research %s cost: %w", id, err))
		}
		def := &models.ResearchDef{
			ID:               models.NodeID(id),
			Name:             rj.Name,
			Category:         rj.Category,
			Cost:             cost,
			DurationSeconds:  rj.Time,
			Effects:          make(map[models.Metric]float64, len(rj.Effects)),
			RequiresBuilding: models.BuildingID(rj.RequiresBuilding),
			RequiresLevel:    rj.RequiresLevel,
		}
		if def.RequiresBuilding != "" && def.RequiresLevel == 0 {
			def.RequiresLevel = 1
		}
		for metric, factor := range rj.Effects {
			def.Effects[models.Metric(metric)] = factor
		}
		for _, req := range rj.Requires {
			def.Requires = append(def.Requires, models.NodeID(req))
		}
		cat.Research[def.ID] = def
	}
	return errors.Join(problems...)
}

func convertQuests(raw map[string]QuestJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		qj := raw[id]
		reward, err := toBundle(qj.Reward)
		if err != nil {
			problems = append(problems, fmt.Errorf("quest %s reward: %w", id, err))
		}
		objective, err := parseObjective(models.QuestKind(qj.Type), qj.Target)
		if err != nil {
			problems = append(problems, fmt.Errorf("quest %s: %w", id, err))
			continue
		}
		cat.Quests[models.QuestID(id)] = &models.QuestDef{
			ID:          models.QuestID(id),
			Name:        qj.Name,
			Description: qj.Description,
			Category:    qj.Category,
			Objective:   objective,
			Reward:      reward,
			Repeatable:  qj.Repeatable,
		}
	}
	return errors.Join(problems...)
}

func parseObjective(kind models.QuestKind, target json.RawMessage) (models.Objective, error) {
	if len(target) == 0 {
		return nil, fmt.Errorf("missing target for %q quest", kind)
	}
	switch kind {
	case models.QuestBuildingLevel:
		var t struct {
			Building string `json:"building"`
			Level    int    `json:"level"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.BuildingLevelObjective{Building: models.BuildingID(t.Building), Level: t.Level}, nil
	case models.QuestResourceCollected:
		var t struct {
			Resource string  `json:"resource"`
			Amount   float64 `json:"amount"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		rt, ok := models.ParseResourceType(t.Resource)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", t.Resource)
		}
		return models.ResourceCollectedObjective{Resource: rt, Amount: t.Amount}, nil
	case models.QuestTroopsTrained:
		var t struct {
			Troop string `json:"troop,omitempty"`
			Count int    `json:"count"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.TroopsTrainedObjective{Troop: models.TroopID(t.Troop), Count: t.Count}, nil
	case models.QuestBattlesWon:
		var t struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.BattlesWonObjective{Count: t.Count}, nil
	case models.QuestBuildingComplete:
		var t struct {
			Building string `json:"building,omitempty"`
			Count    int    `json:"count"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.BuildingCompleteObjective{Building: models.BuildingID(t.Building), Count: t.Count}, nil
	case models.QuestResearchComplete:
		var t struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.ResearchCompleteObjective{Count: t.Count}, nil
	case models.QuestArmyPower:
		var t struct {
			Power float64 `json:"power"`
		}
		if err := json.Unmarshal(target, &t); err != nil {
			return nil, fmt.Errorf("bad %s target: %w", kind, err)
		}
		return models.ArmyPowerObjective{Power: t.Power}, nil
	}
	return nil, fmt.Errorf("unknown quest type %q", kind)
}

func convertStages(raw map[string]StageJSON, cat *models.Catalog) error {
	var problems []error
	for _, id := range sortedNames(raw) {
		sj := raw[id]
		reward, err := toBundle(sj.Reward)
		if err != nil {
			problems = append(problems, fmt.Errorf("stage %s reward: %w", id, err))
		}
		def := &models.StageDef{
			ID:        models.StageID(id),
			Name:      sj.Name,
			Order:     sj.Order,
			Defenders: make(map[models.TroopID]int, len(sj.Defenders)),
			Reward:    reward,
			HeroXP:    sj.HeroXP,
		}
		for troop, count := range sj.Defenders {
			def.Defenders[models.TroopID(troop)] = count
		}
		for _, req := range sj.Requires {
			def.Requires = append(def.Requires, models.StageID(req))
		}
		cat.Stages[def.ID] = def
	}
	return errors.Join(problems...)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
