package research

import (
	"fmt"
	"sort"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

// BuildingLevels answers building level queries for node requirements
type BuildingLevels interface {
	Level(id models.BuildingID) int
}

// Active is the node occupying the research slot
type Active struct {
	Node      models.NodeID `json:"node"`
	Remaining float64       `json:"remaining"`
	Total     float64       `json:"total"`
}

// Tree tracks completed nodes, the single research slot and the modifier
// set produced by completed effects
type Tree struct {
	catalog   *models.Catalog
	ledger    *ledger.Ledger
	emit      events.Emitter
	buildings BuildingLevels

	completed   map[models.NodeID]bool
	active      *Active
	multipliers map[models.Metric]float64
}

// New creates an empty research tree
func New(cat *models.Catalog, l *ledger.Ledger, emit events.Emitter, buildings BuildingLevels) *Tree {
	return &Tree{
		catalog:     cat,
		ledger:      l,
		emit:        emit,
		buildings:   buildings,
		completed:   make(map[models.NodeID]bool),
		multipliers: make(map[models.Metric]float64),
	}
}

// Start debits a node's cost and occupies the research slot with it
func (t *Tree) Start(id models.NodeID, now float64) error {
	def, ok := t.catalog.Research[id]
	if !ok {
		return fmt.Errorf("%w: research %q", models.ErrUnknownIdentifier, id)
	}
	if t.completed[id] {
		return fmt.Errorf("%w: %s is already researched", models.ErrInvalidState, id)
	}
	if err := t.checkPrerequisites(def); err != nil {
		return err
	}
	if t.active != nil {
		return fmt.Errorf("%w: research slot busy with %s", models.ErrInvalidState, t.active.Node)
	}
	if err := t.ledger.Debit(def.Cost); err != nil {
		return fmt.Errorf("research %s: %w", id, err)
	}

	t.active = &Active{Node: id, Remaining: def.DurationSeconds, Total: def.DurationSeconds}
	if def.DurationSeconds <= 0 {
		t.complete(now)
	}
	return nil
}

func (t *Tree) checkPrerequisites(def *models.ResearchDef) error {
	for _, req := range def.Requires {
		if !t.completed[req] {
			return fmt.Errorf("%w: %s requires research %s", models.ErrUnmetPrerequisite, def.ID, req)
		}
	}
	if def.RequiresBuilding != "" && t.buildings != nil {
		if lvl := t.buildings.Level(def.RequiresBuilding); lvl < def.RequiresLevel {
			return fmt.Errorf("%w: %s requires %s level %d (have %d)",
				models.ErrUnmetPrerequisite, def.ID, def.RequiresBuilding, def.RequiresLevel, lvl)
		}
	}
	return nil
}

// CanStart reports whether Start would pass every check except cost
func (t *Tree) CanStart(id models.NodeID) bool {
	def, ok := t.catalog.Research[id]
	if !ok || t.completed[id] || t.active != nil {
		return false
	}
	return t.checkPrerequisites(def) == nil
}

// Tick advances the active node by dt seconds
func (t *Tree) Tick(now, dt float64) {
	if t.active == nil || dt <= 0 {
		return
	}
	t.active.Remaining -= dt
	if t.active.Remaining <= 0 {
		t.complete(now)
	}
}

func (t *Tree) complete(now float64) {
	id := t.active.Node
	t.active = nil
	t.completed[id] = true
	t.apply(t.catalog.Research[id])
	t.emit.Emit(now, events.ResearchCompleted, events.ResearchCompletedPayload{Node: id})
}

func (t *Tree) apply(def *models.ResearchDef) {
	for metric, factor := range def.Effects {
		t.multipliers[metric] = t.Multiplier(metric) * factor
	}
}

// Multiplier returns the composed factor for a metric (1 when none applies)
func (t *Tree) Multiplier(m models.Metric) float64 {
	if v, ok := t.multipliers[m]; ok {
		return v
	}
	return 1
}

// IsCompleted reports whether a node has been researched
func (t *Tree) IsCompleted(id models.NodeID) bool {
	return t.completed[id]
}

// Completed returns researched node ids in sorted order
func (t *Tree) Completed() []models.NodeID {
	ids := make([]models.NodeID, 0, len(t.completed))
	for id := range t.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Active returns a copy of the running node, or nil
func (t *Tree) Active() *Active {
	if t.active == nil {
		return nil
	}
	a := *t.active
	return &a
}

// Restore replaces tree state from a save and recomposes modifiers.
// Unknown node ids are skipped and returned.
func (t *Tree) Restore(completed []models.NodeID, active *Active) (unknown []models.NodeID) {
	clear(t.completed)
	clear(t.multipliers)
	t.active = nil

	for _, id := range completed {
		if _, ok := t.catalog.Research[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		t.completed[id] = true
	}
	// apply in sorted order so float composition is reproducible
	for _, id := range t.Completed() {
		t.apply(t.catalog.Research[id])
	}

	if active != nil {
		if _, ok := t.catalog.Research[active.Node]; !ok {
			unknown = append(unknown, active.Node)
		} else if !t.completed[active.Node] {
			a := *active
			t.active = &a
		}
	}
	return unknown
}
