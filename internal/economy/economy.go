package economy

import (
	"fmt"
	"math"
	"strings"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

// Modifiers supplies multiplicative bonuses, typically from research
type Modifiers interface {
	Multiplier(m models.Metric) float64
}

type noModifiers struct{}

func (noModifiers) Multiplier(models.Metric) float64 { return 1 }

// Upgrade is an in-progress level change
type Upgrade struct {
	TargetLevel int     `json:"target_level"`
	Remaining   float64 `json:"remaining"`
	Total       float64 `json:"total"`
}

// Building is the live state of one building
type Building struct {
	ID            models.BuildingID `json:"id"`
	Level         int               `json:"level"`
	Upgrade       *Upgrade          `json:"upgrade,omitempty"`
	Clicks        int               `json:"clicks,omitempty"`
	WindowElapsed float64           `json:"window_elapsed,omitempty"`
}

// Upgrading returns true while an upgrade timer runs
func (b *Building) Upgrading() bool {
	return b.Upgrade != nil
}

// Economy owns every building and the unlock graph
type Economy struct {
	catalog   *models.Catalog
	ledger    *ledger.Ledger
	emit      events.Emitter
	mods      Modifiers
	order     []models.BuildingID
	buildings map[models.BuildingID]*Building
	available map[models.BuildingID]bool
}

// New creates an economy with every building at level 0. Buildings that no
// unlock entry names are available from the start.
func New(cat *models.Catalog, l *ledger.Ledger, emit events.Emitter, mods Modifiers) *Economy {
	if mods == nil {
		mods = noModifiers{}
	}
	e := &Economy{
		catalog:   cat,
		ledger:    l,
		emit:      emit,
		mods:      mods,
		order:     cat.BuildingIDs(),
		buildings: make(map[models.BuildingID]*Building),
		available: make(map[models.BuildingID]bool),
	}
	for _, id := range e.order {
		e.buildings[id] = &Building{ID: id}
	}
	e.recomputeAvailable()
	return e
}

func (e *Economy) recomputeAvailable() {
	clear(e.available)
	for _, id := range e.order {
		if len(e.catalog.PrerequisitesOf(id)) == 0 {
			e.available[id] = true
		}
	}
	for _, id := range e.order {
		def := e.catalog.Buildings[id]
		for _, lvl := range def.UnlockLevels() {
			if lvl > e.buildings[id].Level {
				break
			}
			for _, target := range def.Unlocks[lvl] {
				e.available[target] = true
			}
		}
	}
}

// Tick advances production, click windows and upgrade timers by dt seconds.
// now is the game time at the end of the tick.
func (e *Economy) Tick(now, dt float64) {
	if dt <= 0 {
		return
	}

	var produced models.Bundle
	for _, id := range e.order {
		b := e.buildings[id]
		if b.Level == 0 || b.Upgrading() {
			continue
		}
		def := e.catalog.Buildings[id]
		if def.Gate == nil || b.Clicks >= def.Gate.RequiredClicks {
			produced = produced.Add(e.production(def, b.Level).Scale(dt))
		}
		if def.Gate != nil {
			b.WindowElapsed += dt
			if b.WindowElapsed >= def.Gate.WindowSeconds {
				b.Clicks = 0
				b.WindowElapsed = math.Mod(b.WindowElapsed, def.Gate.WindowSeconds)
			}
		}
	}
	if added := e.ledger.Credit(produced); !added.IsZero() {
		e.emit.Emit(now, events.ResourceCredited, events.ResourceCreditedPayload{
			Amount: added,
			Source: events.SourceProduction,
		})
	}

	for _, id := range e.order {
		b := e.buildings[id]
		if !b.Upgrading() {
			continue
		}
		b.Upgrade.Remaining -= dt
		if b.Upgrade.Remaining <= 0 {
			e.complete(b, now)
		}
	}
}

func (e *Economy) complete(b *Building, now float64) {
	b.Level = b.Upgrade.TargetLevel
	b.Upgrade = nil

	def := e.catalog.Buildings[b.ID]
	unlocked := def.Unlocks[b.Level]
	for _, target := range unlocked {
		e.available[target] = true
	}
	e.emit.Emit(now, events.BuildingUpgradeCompleted, events.BuildingUpgradeCompletedPayload{
		Building: b.ID,
		Level:    b.Level,
		Unlocked: append([]models.BuildingID(nil), unlocked...),
	})
}

// StartUpgrade debits the next level's cost and starts its timer
func (e *Economy) StartUpgrade(id models.BuildingID, now float64) error {
	b, def, err := e.lookup(id)
	if err != nil {
		return err
	}
	if b.Upgrading() {
		return fmt.Errorf("%w: %s is already upgrading to level %d", models.ErrInvalidState, id, b.Upgrade.TargetLevel)
	}
	if b.Level >= def.MaxLevel {
		return fmt.Errorf("%w: %s is at max level %d", models.ErrInvalidState, id, def.MaxLevel)
	}
	if b.Level == 0 && !e.available[id] {
		return fmt.Errorf("%w: %s requires %s", models.ErrUnmetPrerequisite, id, e.describePrerequisites(id))
	}

	cost := def.CostAt(b.Level)
	if err := e.ledger.Debit(cost); err != nil {
		return fmt.Errorf("upgrade %s: %w", id, err)
	}

	duration := def.BuildTimeAt(b.Level)
	b.Upgrade = &Upgrade{TargetLevel: b.Level + 1, Remaining: duration, Total: duration}
	e.emit.Emit(now, events.BuildingUpgradeStarted, events.BuildingUpgradeStartedPayload{
		Building:    id,
		TargetLevel: b.Upgrade.TargetLevel,
		Cost:        cost,
		Duration:    duration,
	})
	if duration <= 0 {
		e.complete(b, now)
	}
	return nil
}

func (e *Economy) describePrerequisites(id models.BuildingID) string {
	entries := e.catalog.PrerequisitesOf(id)
	parts := make([]string, len(entries))
	for i, entry := range entries {
		parts[i] = fmt.Sprintf("%s level %d", entry.Building, entry.Level)
	}
	return strings.Join(parts, " or ")
}

// Click registers one click on a click-gated building
func (e *Economy) Click(id models.BuildingID) error {
	b, def, err := e.lookup(id)
	if err != nil {
		return err
	}
	if def.Gate == nil {
		return fmt.Errorf("%w: %s does not take clicks", models.ErrInvalidState, id)
	}
	if b.Level == 0 {
		return fmt.Errorf("%w: %s is not built", models.ErrInvalidState, id)
	}
	if b.Upgrading() {
		return fmt.Errorf("%w: %s is upgrading", models.ErrInvalidState, id)
	}
	if b.Clicks < def.Gate.RequiredClicks {
		b.Clicks++
	}
	return nil
}

func (e *Economy) lookup(id models.BuildingID) (*Building, *models.BuildingDef, error) {
	b, ok := e.buildings[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: building %q", models.ErrUnknownIdentifier, id)
	}
	return b, e.catalog.Buildings[id], nil
}

func (e *Economy) production(def *models.BuildingDef, level int) models.Bundle {
	var out models.Bundle
	def.ProductionAt(level).Each(func(rt models.ResourceType, v float64) {
		out.Set(rt, v*e.mods.Multiplier(models.ProductionMetric(rt)))
	})
	return out
}

// Level returns the current level of a building (0 for unknown ids)
func (e *Economy) Level(id models.BuildingID) int {
	if b, ok := e.buildings[id]; ok {
		return b.Level
	}
	return 0
}

// IsAvailable reports whether a building may be started from level 0
func (e *Economy) IsAvailable(id models.BuildingID) bool {
	return e.available[id]
}

// Cost returns the price of the next level
func (e *Economy) Cost(id models.BuildingID) (models.Bundle, error) {
	b, def, err := e.lookup(id)
	if err != nil {
		return models.Bundle{}, err
	}
	return def.CostAt(b.Level), nil
}

// BuildTime returns the duration of the next level's upgrade
func (e *Economy) BuildTime(id models.BuildingID) (float64, error) {
	b, def, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	return def.BuildTimeAt(b.Level), nil
}

// Production returns the current per-second output of a building with
// modifiers applied, ignoring click gates and upgrades
func (e *Economy) Production(id models.BuildingID) models.Bundle {
	b, def, err := e.lookup(id)
	if err != nil {
		return models.Bundle{}
	}
	return e.production(def, b.Level)
}

// TotalProduction returns the per-second output of every producing building
// in its current state
func (e *Economy) TotalProduction() models.Bundle {
	var total models.Bundle
	for _, id := range e.order {
		b := e.buildings[id]
		def := e.catalog.Buildings[id]
		if b.Level == 0 || b.Upgrading() {
			continue
		}
		if def.Gate != nil && b.Clicks < def.Gate.RequiredClicks {
			continue
		}
		total = total.Add(e.production(def, b.Level))
	}
	return total
}

// Buildings returns copies of every building's state in id order
func (e *Economy) Buildings() []Building {
	out := make([]Building, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, copyBuilding(e.buildings[id]))
	}
	return out
}

// Restore overwrites building state from a save and rebuilds the unlock set.
// Unknown ids are returned so the caller can report them.
func (e *Economy) Restore(states []Building) (unknown []models.BuildingID) {
	for _, s := range states {
		b, ok := e.buildings[s.ID]
		if !ok {
			unknown = append(unknown, s.ID)
			continue
		}
		def := e.catalog.Buildings[s.ID]
		*b = copyBuilding(&s)
		b.Level = min(max(b.Level, 0), def.MaxLevel)
		if b.Upgrade != nil && b.Upgrade.TargetLevel != b.Level+1 {
			b.Upgrade = nil
		}
	}
	e.recomputeAvailable()
	return unknown
}

func copyBuilding(b *Building) Building {
	c := *b
	if b.Upgrade != nil {
		u := *b.Upgrade
		c.Upgrade = &u
	}
	return c
}
