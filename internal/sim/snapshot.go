package sim

import (
	"go.uber.org/zap"

	"github.com/napolitain/warren/internal/economy"
	"github.com/napolitain/warren/internal/heroes"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/quests"
	"github.com/napolitain/warren/internal/research"
	"github.com/napolitain/warren/internal/roster"
)

// SnapshotVersion is bumped when the snapshot layout changes incompatibly
const SnapshotVersion = 1

// Snapshot is the persisted progression state
type Snapshot struct {
	Version   int                        `json:"version"`
	Clock     float64                    `json:"clock"`
	Resources models.Bundle              `json:"resources"`
	Buildings []economy.Building         `json:"buildings"`
	Research  ResearchState              `json:"research"`
	Troops    map[models.TroopID]int     `json:"troops"`
	Training  []roster.Batch             `json:"training"`
	Heroes    []heroes.Hero              `json:"heroes"`
	Inventory map[models.EquipmentID]int `json:"inventory"` // nil keeps the starting equipment
	Quests    []quests.Quest             `json:"quests"`
	Cleared   []models.StageID           `json:"cleared"`
}

// ResearchState is the persisted research tree
type ResearchState struct {
	Completed []models.NodeID  `json:"completed"`
	Active    *research.Active `json:"active,omitempty"`
}

// Snapshot captures the current state
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		Clock:     e.clock,
		Resources: e.ledger.Balance(),
		Buildings: e.economy.Buildings(),
		Research: ResearchState{
			Completed: e.research.Completed(),
			Active:    e.research.Active(),
		},
		Troops:    e.roster.Counts(),
		Training:  e.roster.Queue(),
		Heroes:    e.heroes.Heroes(),
		Inventory: e.heroes.Inventory(),
		Quests:    e.quests.List(),
		Cleared:   e.campaign.Cleared(),
	}
}

// Restore loads a snapshot. A nil snapshot keeps the defaults; entries
// naming ids missing from the catalog are skipped with a warning.
func (e *Engine) Restore(s *Snapshot) {
	if s == nil {
		return
	}
	if s.Version > SnapshotVersion {
		e.logger.Warn("snapshot is newer than this build", zap.Int("version", s.Version))
	}

	e.clock = max(s.Clock, 0)
	e.ledger.Restore(s.Resources)

	warn := func(kind string, ids any) {
		e.logger.Warn("skipping unknown ids in snapshot", zap.String("kind", kind), zap.Any("ids", ids))
	}
	if unknown := e.economy.Restore(s.Buildings); len(unknown) > 0 {
		warn("building", unknown)
	}
	if unknown := e.research.Restore(s.Research.Completed, s.Research.Active); len(unknown) > 0 {
		warn("research", unknown)
	}
	if unknown := e.roster.Restore(s.Troops, s.Training); len(unknown) > 0 {
		warn("troop", unknown)
	}
	unknownHeroes, unknownItems := e.heroes.Restore(s.Heroes, s.Inventory)
	if len(unknownHeroes) > 0 {
		warn("hero", unknownHeroes)
	}
	if len(unknownItems) > 0 {
		warn("equipment", unknownItems)
	}
	if unknown := e.quests.Restore(s.Quests); len(unknown) > 0 {
		warn("quest", unknown)
	}
	if unknown := e.campaign.Restore(s.Cleared); len(unknown) > 0 {
		warn("stage", unknown)
	}
}
