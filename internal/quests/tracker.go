package quests

import (
	"fmt"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

// Cooldown is the game time between two claims of a repeatable quest
const Cooldown = 86400.0

// Quest is the live state of one quest
type Quest struct {
	ID        models.QuestID `json:"id"`
	Progress  float64        `json:"progress"`
	Completed bool           `json:"completed"`
	Claimed   bool           `json:"claimed"`
	LastClaim *float64       `json:"last_claim,omitempty"`

	def *models.QuestDef
}

// Def returns the static definition
func (q *Quest) Def() *models.QuestDef {
	return q.def
}

// Ready reports whether the quest can be claimed at now
func (q *Quest) Ready(now float64) bool {
	return q.claimError(now) == nil
}

func (q *Quest) claimError(now float64) error {
	if q.Claimed && !q.def.Repeatable {
		return fmt.Errorf("%w: quest %s already claimed", models.ErrInvalidState, q.ID)
	}
	if !q.Completed {
		return fmt.Errorf("%w: quest %s not completed (%g/%g)", models.ErrInvalidState, q.ID, q.Progress, q.def.Objective.Goal())
	}
	if q.def.Repeatable && q.LastClaim != nil {
		if wait := *q.LastClaim + Cooldown - now; wait > 0 {
			return fmt.Errorf("%w: quest %s on cooldown for %.0fs", models.ErrInvalidState, q.ID, wait)
		}
	}
	return nil
}

// Gauges reads the current value of state-based objectives
type Gauges interface {
	Level(id models.BuildingID) int
	ArmyPower() float64
}

// Tracker evaluates quest objectives against observed events
type Tracker struct {
	ledger *ledger.Ledger
	emit   events.Emitter
	gauges Gauges
	order  []models.QuestID
	quests map[models.QuestID]*Quest
}

// New creates a tracker with every catalog quest live. gauges may be nil, in
// which case army power objectives never progress.
func New(cat *models.Catalog, l *ledger.Ledger, emit events.Emitter, gauges Gauges) *Tracker {
	t := &Tracker{
		ledger: l,
		emit:   emit,
		gauges: gauges,
		order:  cat.QuestIDs(),
		quests: make(map[models.QuestID]*Quest),
	}
	for _, id := range t.order {
		t.quests[id] = &Quest{ID: id, def: cat.Quests[id]}
	}
	return t
}

// Observe updates progress from one domain event. It is meant to be
// subscribed to the event bus.
func (t *Tracker) Observe(e events.Event) {
	for _, id := range t.order {
		q := t.quests[id]
		if !q.live() || !advance(q, e.Payload) {
			continue
		}
		t.check(q, e.Time)
	}
}

// Measure samples army power into its objectives. The engine calls it after
// every tick and command. Building level objectives follow upgrade events.
func (t *Tracker) Measure(now float64) {
	for _, id := range t.order {
		q := t.quests[id]
		if _, ok := q.def.Objective.(models.ArmyPowerObjective); !ok {
			continue
		}
		if !q.live() || !t.sample(q) {
			continue
		}
		t.check(q, now)
	}
}

func (q *Quest) live() bool {
	return !q.Completed && !(q.Claimed && !q.def.Repeatable)
}

func (t *Tracker) check(q *Quest, now float64) {
	if q.Progress >= q.def.Objective.Goal() {
		q.Completed = true
		t.emit.Emit(now, events.QuestCompleted, events.QuestCompletedPayload{Quest: q.ID})
	}
}

// sample reads the gauge behind a state-based objective and reports whether
// progress changed. Building levels only ratchet up, army power follows the
// current roster.
func (t *Tracker) sample(q *Quest) bool {
	if t.gauges == nil {
		return false
	}
	switch obj := q.def.Objective.(type) {
	case models.BuildingLevelObjective:
		level := float64(t.gauges.Level(obj.Building))
		if level <= q.Progress {
			return false
		}
		q.Progress = level
		return true

	case models.ArmyPowerObjective:
		power := t.gauges.ArmyPower()
		if power == q.Progress {
			return false
		}
		q.Progress = power
		return true

	default:
		return false
	}
}

// advance applies one event payload to a quest and reports whether progress
// changed
func advance(q *Quest, payload any) bool {
	switch obj := q.def.Objective.(type) {
	case models.BuildingLevelObjective:
		p, ok := payload.(events.BuildingUpgradeCompletedPayload)
		if !ok || p.Building != obj.Building || float64(p.Level) <= q.Progress {
			return false
		}
		q.Progress = float64(p.Level)
		return true

	case models.ResourceCollectedObjective:
		p, ok := payload.(events.ResourceCreditedPayload)
		if !ok || p.Source == events.SourceQuest {
			return false
		}
		amount := p.Amount.Get(obj.Resource)
		if amount <= 0 {
			return false
		}
		q.Progress += amount
		return true

	case models.TroopsTrainedObjective:
		p, ok := payload.(events.TroopTrainingCompletedPayload)
		if !ok || (obj.Troop != "" && obj.Troop != p.Troop) {
			return false
		}
		q.Progress += float64(p.Count)
		return true

	case models.BattlesWonObjective:
		p, ok := payload.(events.BattleResolvedPayload)
		if !ok || !p.Victory {
			return false
		}
		q.Progress++
		return true

	case models.BuildingCompleteObjective:
		p, ok := payload.(events.BuildingUpgradeCompletedPayload)
		if !ok || (obj.Building != "" && obj.Building != p.Building) {
			return false
		}
		q.Progress++
		return true

	case models.ResearchCompleteObjective:
		if _, ok := payload.(events.ResearchCompletedPayload); !ok {
			return false
		}
		q.Progress++
		return true

	default:
		return false
	}
}

// Claim pays out a completed quest. Repeatable quests start the cooldown and
// begin a new cycle: counters restart at zero while building level and army
// power objectives are re-read from the current state, so a cycle whose goal
// is already met completes again at once and becomes claimable when the
// cooldown ends.
func (t *Tracker) Claim(id models.QuestID, now float64) error {
	q, ok := t.quests[id]
	if !ok {
		return fmt.Errorf("%w: quest %q", models.ErrUnknownIdentifier, id)
	}
	if err := q.claimError(now); err != nil {
		return err
	}

	added := t.ledger.Credit(q.def.Reward)
	if !added.IsZero() {
		t.emit.Emit(now, events.ResourceCredited, events.ResourceCreditedPayload{
			Amount: added,
			Source: events.SourceQuest,
		})
	}

	claimedAt := now
	q.LastClaim = &claimedAt
	if !q.def.Repeatable {
		q.Claimed = true
		t.emit.Emit(now, events.QuestClaimed, events.QuestClaimedPayload{Quest: id, Reward: added})
		return nil
	}
	q.Progress = 0
	q.Completed = false
	t.emit.Emit(now, events.QuestClaimed, events.QuestClaimedPayload{Quest: id, Reward: added})
	t.sample(q)
	t.check(q, now)
	return nil
}

// Get returns a copy of a quest
func (t *Tracker) Get(id models.QuestID) (Quest, bool) {
	q, ok := t.quests[id]
	if !ok {
		return Quest{}, false
	}
	return copyQuest(q), true
}

// List returns copies of every quest in id order
func (t *Tracker) List() []Quest {
	out := make([]Quest, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, copyQuest(t.quests[id]))
	}
	return out
}

// Restore overwrites quest state from a save. Unknown ids are skipped and
// returned.
func (t *Tracker) Restore(states []Quest) (unknown []models.QuestID) {
	for _, s := range states {
		q, ok := t.quests[s.ID]
		if !ok {
			unknown = append(unknown, s.ID)
			continue
		}
		def := q.def
		*q = copyQuest(&s)
		q.def = def
		q.Progress = max(q.Progress, 0)
	}
	return unknown
}

func copyQuest(q *Quest) Quest {
	c := *q
	if q.LastClaim != nil {
		v := *q.LastClaim
		c.LastClaim = &v
	}
	return c
}
