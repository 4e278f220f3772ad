package roster

import (
	"fmt"
	"sort"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

// MaxQueue is the number of batches the training queue holds
const MaxQueue = 5

// BuildingLevels answers building level queries for training requirements
type BuildingLevels interface {
	Level(id models.BuildingID) int
}

// Modifiers supplies the training_speed multiplier
type Modifiers interface {
	Multiplier(m models.Metric) float64
}

// Batch is one queued training order
type Batch struct {
	Troop         models.TroopID `json:"troop"`
	Remaining     int            `json:"remaining"`
	UnitTime      float64        `json:"unit_time"`
	UnitRemaining float64        `json:"unit_remaining"`
}

// Roster holds owned troop counts and the training queue
type Roster struct {
	catalog   *models.Catalog
	ledger    *ledger.Ledger
	emit      events.Emitter
	buildings BuildingLevels
	mods      Modifiers

	counts map[models.TroopID]int
	queue  []*Batch
}

// New creates an empty roster
func New(cat *models.Catalog, l *ledger.Ledger, emit events.Emitter, buildings BuildingLevels, mods Modifiers) *Roster {
	return &Roster{
		catalog:   cat,
		ledger:    l,
		emit:      emit,
		buildings: buildings,
		mods:      mods,
		counts:    make(map[models.TroopID]int),
	}
}

// Enqueue debits the whole batch and appends it to the training queue
func (r *Roster) Enqueue(troop models.TroopID, qty int, now float64) error {
	def, ok := r.catalog.Troops[troop]
	if !ok {
		return fmt.Errorf("%w: troop %q", models.ErrUnknownIdentifier, troop)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", models.ErrInvalidState, qty)
	}
	if len(r.queue) >= MaxQueue {
		return fmt.Errorf("%w: training queue full (%d batches)", models.ErrInvalidState, MaxQueue)
	}
	if lvl := r.buildings.Level(def.RequiredBuilding); lvl < def.RequiredLevel {
		return fmt.Errorf("%w: %s requires %s level %d (have %d)",
			models.ErrUnmetPrerequisite, troop, def.RequiredBuilding, def.RequiredLevel, lvl)
	}
	if err := r.ledger.Debit(def.BatchCost(qty)); err != nil {
		return fmt.Errorf("train %d %s: %w", qty, troop, err)
	}

	unit := def.TrainingTimeSeconds
	if r.mods != nil {
		unit /= r.mods.Multiplier(models.MetricTrainingSpeed)
	}
	r.queue = append(r.queue, &Batch{Troop: troop, Remaining: qty, UnitTime: unit, UnitRemaining: unit})
	return nil
}

// Tick advances training by dt seconds. Time left over after a unit
// finishes flows into the next unit and the next batch.
func (r *Roster) Tick(now, dt float64) {
	if dt <= 0 {
		return
	}
	trained := make(map[models.TroopID]int)
	budget := dt
	for budget > 0 && len(r.queue) > 0 {
		head := r.queue[0]
		if budget < head.UnitRemaining {
			head.UnitRemaining -= budget
			break
		}
		budget -= head.UnitRemaining
		r.counts[head.Troop]++
		trained[head.Troop]++
		head.Remaining--
		if head.Remaining == 0 {
			r.queue = r.queue[1:]
		} else {
			head.UnitRemaining = head.UnitTime
		}
	}

	for _, id := range sortedIDs(trained) {
		r.emit.Emit(now, events.TroopTrainingCompleted, events.TroopTrainingCompletedPayload{
			Troop: id,
			Count: trained[id],
		})
	}
}

// Count returns the number of owned units of a troop type
func (r *Roster) Count(id models.TroopID) int {
	return r.counts[id]
}

// Counts returns a copy of all non-zero owned counts
func (r *Roster) Counts() map[models.TroopID]int {
	out := make(map[models.TroopID]int, len(r.counts))
	for id, n := range r.counts {
		if n > 0 {
			out[id] = n
		}
	}
	return out
}

// Total returns the number of owned units of every type
func (r *Roster) Total() int {
	total := 0
	for _, n := range r.counts {
		total += n
	}
	return total
}

// Power returns the summed rating of every owned unit, see TroopDef.Power
func (r *Roster) Power() float64 {
	total := 0.0
	for id, n := range r.counts {
		if def, ok := r.catalog.Troops[id]; ok && n > 0 {
			total += float64(n) * def.Power()
		}
	}
	return total
}

// Queue returns copies of the queued batches, head first
func (r *Roster) Queue() []Batch {
	out := make([]Batch, len(r.queue))
	for i, b := range r.queue {
		out[i] = *b
	}
	return out
}

// Has reports whether at least the given army is owned
func (r *Roster) Has(army map[models.TroopID]int) error {
	for _, id := range sortedIDs(army) {
		want := army[id]
		if _, ok := r.catalog.Troops[id]; !ok {
			return fmt.Errorf("%w: troop %q", models.ErrUnknownIdentifier, id)
		}
		if want < 0 {
			return fmt.Errorf("%w: negative count for %s", models.ErrInvalidState, id)
		}
		if have := r.counts[id]; have < want {
			return fmt.Errorf("%w: %d %s selected but only %d owned", models.ErrInvalidState, want, id, have)
		}
	}
	return nil
}

// Remove subtracts losses, clamping at zero
func (r *Roster) Remove(losses map[models.TroopID]int) {
	for id, n := range losses {
		r.counts[id] = max(r.counts[id]-n, 0)
	}
}

// Restore replaces counts and queue from a save. Unknown troop ids are
// skipped and returned.
func (r *Roster) Restore(counts map[models.TroopID]int, queue []Batch) (unknown []models.TroopID) {
	clear(r.counts)
	r.queue = r.queue[:0]
	for _, id := range sortedIDs(counts) {
		if _, ok := r.catalog.Troops[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		if counts[id] > 0 {
			r.counts[id] = counts[id]
		}
	}
	for _, b := range queue {
		if _, ok := r.catalog.Troops[b.Troop]; !ok {
			unknown = append(unknown, b.Troop)
			continue
		}
		if b.Remaining <= 0 || b.UnitTime <= 0 || len(r.queue) >= MaxQueue {
			continue
		}
		batch := b
		r.queue = append(r.queue, &batch)
	}
	return unknown
}

func sortedIDs(m map[models.TroopID]int) []models.TroopID {
	ids := make([]models.TroopID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
