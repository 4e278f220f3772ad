package loader

import (
	"errors"
	"fmt"

	"github.com/napolitain/warren/internal/models"
)

// ErrInvalidCatalog wraps every load-time validation failure
var ErrInvalidCatalog = errors.New("invalid catalog")

// Validate checks a catalog for internal consistency: non-negative costs and
// rates, resolvable references and acyclic prerequisite graphs. All problems
// are reported at once.
func Validate(cat *models.Catalog) error {
	v := &validator{cat: cat}

	v.bundle("starting resources", cat.StartingResources)
	for _, id := range cat.BuildingIDs() {
		v.building(cat.Buildings[id])
	}
	for _, id := range cat.EquipmentIDs() {
		v.equipment(cat.Equipment[id])
	}
	for _, id := range cat.StartingEquipment {
		if _, ok := cat.Equipment[id]; !ok {
			v.fail("starting equipment: unknown item %q", id)
		}
	}
	for _, id := range cat.HeroIDs() {
		v.hero(cat.Heroes[id])
	}
	for _, id := range cat.TroopIDs() {
		v.troop(cat.Troops[id])
	}
	for _, id := range cat.NodeIDs() {
		v.research(cat.Research[id])
	}
	for _, id := range cat.QuestIDs() {
		v.quest(cat.Quests[id])
	}
	for _, id := range cat.StageIDs() {
		v.stage(cat.Stages[id])
	}
	v.researchCycles()
	v.stageCycles()

	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(v.problems...))
}

type validator struct {
	cat      *models.Catalog
	problems []error
}

func (v *validator) fail(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *validator) bundle(what string, b models.Bundle) {
	if b.HasNegative() {
		v.fail("%s: negative quantity in %+v", what, b)
	}
}

func (v *validator) building(b *models.BuildingDef) {
	what := "building " + string(b.ID)
	if b.MaxLevel < 1 {
		v.fail("%s: max_level must be at least 1", what)
	}
	if b.ScaleFactor <= 0 {
		v.fail("%s: scale_factor must be positive", what)
	}
	if b.BuildTimeScale <= 0 {
		v.fail("%s: build_time_scale must be positive", what)
	}
	if b.ProductionScale <= 0 {
		v.fail("%s: production_scale must be positive", what)
	}
	if b.BuildTimeSeconds < 0 {
		v.fail("%s: negative build time", what)
	}
	v.bundle(what+" cost", b.BaseCost)
	v.bundle(what+" production", b.BaseProduction)
	if g := b.Gate; g != nil {
		if g.RequiredClicks < 1 {
			v.fail("%s: click gate needs at least one click", what)
		}
		if g.WindowSeconds <= 0 {
			v.fail("%s: click gate window must be positive", what)
		}
	}
	for _, lvl := range b.UnlockLevels() {
		if lvl < 1 || lvl > b.MaxLevel {
			v.fail("%s: unlock level %d outside 1..%d", what, lvl, b.MaxLevel)
		}
		for _, target := range b.Unlocks[lvl] {
			if _, ok := v.cat.Buildings[target]; !ok {
				v.fail("%s: unlocks unknown building %q", what, target)
			}
			if target == b.ID {
				v.fail("%s: unlocks itself", what)
			}
		}
	}
}

func (v *validator) hero(h *models.HeroDef) {
	what := "hero " + string(h.ID)
	if h.XPThreshold <= 0 {
		v.fail("%s: xp_threshold must be positive", what)
	}
	v.bundle(what+" recruit cost", h.RecruitCost)
	for _, s := range []models.HeroStats{h.BaseStats, h.Growth} {
		if negativeStats(s) {
			v.fail("%s: negative stat", what)
			break
		}
	}
	for _, a := range h.Abilities {
		if a.UnlockLevel < 1 {
			v.fail("%s: ability %q unlocks below level 1", what, a.Name)
		}
	}
}

func negativeStats(s models.HeroStats) bool {
	return s.Attack < 0 || s.Defense < 0 || s.HP < 0 || s.Leadership < 0
}

func (v *validator) equipment(e *models.EquipmentDef) {
	what := "equipment " + string(e.ID)
	if !e.Slot.Valid() {
		v.fail("%s: unknown slot %q", what, e.Slot)
	}
	if negativeStats(e.Stats) {
		v.fail("%s: negative stat", what)
	}
}

func (v *validator) troop(t *models.TroopDef) {
	what := "troop " + string(t.ID)
	if t.Stats.Attack < 0 || t.Stats.Defense < 0 || t.Stats.HP <= 0 || t.Stats.Speed < 0 {
		v.fail("%s: stats must be non-negative with positive hp", what)
	}
	if t.TrainingTimeSeconds <= 0 {
		v.fail("%s: training_time must be positive", what)
	}
	v.bundle(what+" cost", t.Cost)
	v.buildingRef(what, t.RequiredBuilding, t.RequiredLevel)
}

func (v *validator) buildingRef(what string, id models.BuildingID, level int) {
	b, ok := v.cat.Buildings[id]
	if !ok {
		v.fail("%s: requires unknown building %q", what, id)
		return
	}
	if level < 1 || level > b.MaxLevel {
		v.fail("%s: requires %s level %d outside 1..%d", what, id, level, b.MaxLevel)
	}
}

func (v *validator) research(r *models.ResearchDef) {
	what := "research " + string(r.ID)
	if r.DurationSeconds < 0 {
		v.fail("%s: negative duration", what)
	}
	v.bundle(what+" cost", r.Cost)
	if len(r.Effects) == 0 {
		v.fail("%s: no effects", what)
	}
	for metric, factor := range r.Effects {
		if !metric.Valid() {
			v.fail("%s: unknown metric %q", what, metric)
		}
		if factor <= 0 {
			v.fail("%s: factor for %s must be positive", what, metric)
		}
	}
	for _, req := range r.Requires {
		if _, ok := v.cat.Research[req]; !ok {
			v.fail("%s: requires unknown node %q", what, req)
		}
	}
	if r.RequiresBuilding != "" {
		v.buildingRef(what, r.RequiresBuilding, r.RequiresLevel)
	}
}

func (v *validator) quest(q *models.QuestDef) {
	what := "quest " + string(q.ID)
	v.bundle(what+" reward", q.Reward)
	if q.Objective == nil {
		v.fail("%s: missing objective", what)
		return
	}
	if q.Objective.Goal() <= 0 {
		v.fail("%s: goal must be positive", what)
	}
	switch o := q.Objective.(type) {
	case models.BuildingLevelObjective:
		v.buildingRef(what, o.Building, o.Level)
	case models.ResourceCollectedObjective:
		// resource type already checked while parsing
	case models.TroopsTrainedObjective:
		if o.Troop != "" {
			if _, ok := v.cat.Troops[o.Troop]; !ok {
				v.fail("%s: unknown troop %q", what, o.Troop)
			}
		}
	case models.BuildingCompleteObjective:
		if o.Building != "" {
			if _, ok := v.cat.Buildings[o.Building]; !ok {
				v.fail("%s: unknown building %q", what, o.Building)
			}
		}
	case models.BattlesWonObjective, models.ResearchCompleteObjective, models.ArmyPowerObjective:
	default:
		v.fail("%s: unsupported objective %T", what, o)
	}
}

func (v *validator) stage(s *models.StageDef) {
	what := "stage " + string(s.ID)
	v.bundle(what+" reward", s.Reward)
	if s.HeroXP < 0 {
		v.fail("%s: negative hero_xp", what)
	}
	if len(s.Defenders) == 0 {
		v.fail("%s: no defenders", what)
	}
	for troop, count := range s.Defenders {
		if _, ok := v.cat.Troops[troop]; !ok {
			v.fail("%s: unknown defender %q", what, troop)
		}
		if count < 0 {
			v.fail("%s: negative defender count for %s", what, troop)
		}
	}
	for _, req := range s.Requires {
		if _, ok := v.cat.Stages[req]; !ok {
			v.fail("%s: requires unknown stage %q", what, req)
		}
	}
}

// visit states for cycle detection
const (
	unvisited = iota
	visiting
	done
)

func (v *validator) researchCycles() {
	state := make(map[models.NodeID]int)
	var visit func(id models.NodeID) bool
	visit = func(id models.NodeID) bool {
		switch state[id] {
		case visiting:
			return true
		case done:
			return false
		}
		state[id] = visiting
		if def, ok := v.cat.Research[id]; ok {
			for _, req := range def.Requires {
				if visit(req) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}
	for _, id := range v.cat.NodeIDs() {
		if state[id] == unvisited && visit(id) {
			v.fail("research %s: prerequisite cycle", id)
			return
		}
	}
}

func (v *validator) stageCycles() {
	state := make(map[models.StageID]int)
	var visit func(id models.StageID) bool
	visit = func(id models.StageID) bool {
		switch state[id] {
		case visiting:
			return true
		case done:
			return false
		}
		state[id] = visiting
		if def, ok := v.cat.Stages[id]; ok {
			for _, req := range def.Requires {
				if visit(req) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}
	for _, id := range v.cat.StageIDs() {
		if state[id] == unvisited && visit(id) {
			v.fail("stage %s: prerequisite cycle", id)
			return
		}
	}
}
