// Package solver plans a greedy build order towards target building levels
// by playing a copy of the game forward.
package solver

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
)

// Default planning limits
const (
	DefaultHorizon = 30 * 86400
	minWait        = 1.0
)

// ActionKind tells what an action did
type ActionKind string

const (
	ActionBuilding ActionKind = "building"
	ActionResearch ActionKind = "research"
	ActionQuest    ActionKind = "quest"
)

// Action is one step of a plan
type Action struct {
	Kind      ActionKind    `json:"kind"`
	ID        string        `json:"id"`
	FromLevel int           `json:"from_level,omitempty"`
	ToLevel   int           `json:"to_level,omitempty"`
	Start     float64       `json:"start"`
	End       float64       `json:"end"`
	Cost      models.Bundle `json:"cost"`
}

// Plan is the result of one solver run
type Plan struct {
	Strategy  Strategy `json:"strategy"`
	Actions   []Action `json:"actions"`
	TotalTime float64  `json:"total_time"` // seconds from the starting clock
	Reached   bool     `json:"reached"`
}

// Next returns the first action of the plan
func (p *Plan) Next() (Action, bool) {
	if len(p.Actions) == 0 {
		return Action{}, false
	}
	return p.Actions[0], true
}

// Strategy tunes the greedy choice
type Strategy struct {
	// ScarcityWeight boosts resources the remaining targets need most
	ScarcityWeight float64 `json:"scarcity_weight"`
	// Research lets the solver buy production research
	Research bool `json:"research"`
}

// String returns the strategy name
func (s Strategy) String() string {
	name := fmt.Sprintf("scarcity=%.1f", s.ScarcityWeight)
	if s.Research {
		name += "+research"
	}
	return name
}

// Strategies is the set SolveAllStrategies tries
var Strategies = []Strategy{
	{ScarcityWeight: 0},
	{ScarcityWeight: 0, Research: true},
	{ScarcityWeight: 1},
	{ScarcityWeight: 1, Research: true},
	{ScarcityWeight: 3, Research: true},
}

// ErrNoTargets is returned when every target is already met
var ErrNoTargets = errors.New("targets already reached")

// Solver replays a snapshot forward under one strategy
type Solver struct {
	Catalog  *models.Catalog
	Start    *sim.Snapshot
	Targets  map[models.BuildingID]int
	Strategy Strategy
	Horizon  float64 // seconds, DefaultHorizon when zero
}

// NewSolver creates a solver with the default horizon
func NewSolver(cat *models.Catalog, start *sim.Snapshot, targets map[models.BuildingID]int, strategy Strategy) *Solver {
	return &Solver{Catalog: cat, Start: start, Targets: targets, Strategy: strategy, Horizon: DefaultHorizon}
}

// Validate checks the targets against the catalog
func (s *Solver) Validate() error {
	if len(s.Targets) == 0 {
		return fmt.Errorf("%w: no targets", models.ErrInvalidState)
	}
	var problems []error
	for id, level := range s.Targets {
		def, ok := s.Catalog.Buildings[id]
		if !ok {
			problems = append(problems, fmt.Errorf("%w: building %q", models.ErrUnknownIdentifier, id))
			continue
		}
		if level < 1 || level > def.MaxLevel {
			problems = append(problems, fmt.Errorf("%w: %s target %d outside 1..%d", models.ErrInvalidState, id, level, def.MaxLevel))
		}
	}
	return errors.Join(problems...)
}

// run is the state of one solver pass
type run struct {
	*Solver
	engine *sim.Engine
	start  float64
	plan   *Plan
}

// Solve plays the game forward, at every decision point buying the best
// affordable step towards the targets, and waiting for resources or
// completions otherwise
func (s *Solver) Solve() (*Plan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	e := sim.New(s.Catalog)
	e.Restore(s.Start)

	r := &run{Solver: s, engine: e, start: e.Now(), plan: &Plan{Strategy: s.Strategy}}
	if r.reached() {
		return nil, ErrNoTargets
	}

	horizon := s.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	deadline := r.start + horizon

	for e.Now() < deadline {
		r.claimQuests()
		r.clickGates()
		r.buyAffordable()
		if r.reached() {
			r.plan.Reached = true
			break
		}
		wait, ok := r.nextWait()
		if !ok {
			break
		}
		if err := e.AdvanceTime(math.Min(wait, deadline-e.Now())); err != nil {
			return nil, err
		}
	}
	r.plan.TotalTime = e.Now() - r.start
	return r.plan, nil
}

// SolveAllStrategies runs every strategy and returns the fastest plan that
// reaches the targets, or the first plan when none does
func SolveAllStrategies(cat *models.Catalog, start *sim.Snapshot, targets map[models.BuildingID]int) (*Plan, []*Plan, error) {
	var best *Plan
	var results []*Plan
	for _, strategy := range Strategies {
		plan, err := NewSolver(cat, start, targets, strategy).Solve()
		if err != nil {
			return nil, nil, err
		}
		results = append(results, plan)
		switch {
		case best == nil:
			best = plan
		case plan.Reached && (!best.Reached || plan.TotalTime < best.TotalTime):
			best = plan
		}
	}
	return best, results, nil
}

// reached reports whether every target level is built
func (r *run) reached() bool {
	for id, level := range r.Targets {
		if r.engine.Economy().Level(id) < level {
			return false
		}
	}
	return true
}

// needs expands the targets with the unlock levels they depend on
func (r *run) needs() map[models.BuildingID]int {
	need := make(map[models.BuildingID]int)
	var add func(id models.BuildingID, level int)
	add = func(id models.BuildingID, level int) {
		if need[id] >= level {
			return
		}
		need[id] = level
		eco := r.engine.Economy()
		if eco.Level(id) > 0 || eco.IsAvailable(id) {
			return
		}
		entries := r.Catalog.PrerequisitesOf(id)
		if len(entries) == 0 {
			return
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Level < entries[j].Level })
		add(entries[0].Building, entries[0].Level)
	}
	for _, id := range sortedTargets(r.Targets) {
		add(id, r.Targets[id])
	}

	// a resource the plan must pay for but nothing will produce gets the
	// cheapest producer for it
	remaining := r.remainingCost(need)
	balance := r.engine.Balance()
	for _, rt := range models.AllResourceTypes() {
		if remaining.Get(rt) <= balance.Get(rt) || r.produces(need, rt) {
			continue
		}
		if id, ok := r.cheapestProducer(rt); ok {
			add(id, max(r.engine.Economy().Level(id), 1))
		}
	}
	return need
}

// produces reports whether a needed building outputs rt
func (r *run) produces(need map[models.BuildingID]int, rt models.ResourceType) bool {
	for id, level := range need {
		if level > 0 && r.Catalog.Buildings[id].BaseProduction.Get(rt) > 0 {
			return true
		}
	}
	return false
}

func (r *run) cheapestProducer(rt models.ResourceType) (models.BuildingID, bool) {
	var best models.BuildingID
	bestCost := math.Inf(1)
	for _, id := range r.Catalog.BuildingIDs() {
		def := r.Catalog.Buildings[id]
		if def.BaseProduction.Get(rt) <= 0 {
			continue
		}
		if cost := def.CostAt(r.engine.Economy().Level(id)).Total(); cost < bestCost {
			best, bestCost = id, cost
		}
	}
	return best, best != ""
}

// remainingCost sums the cost of every level still needed
func (r *run) remainingCost(need map[models.BuildingID]int) models.Bundle {
	var total models.Bundle
	for _, id := range sortedTargets(need) {
		target := need[id]
		def := r.Catalog.Buildings[id]
		for level := r.nextLevel(id); level < target; level++ {
			total = total.Add(def.CostAt(level))
		}
	}
	return total
}

// nextLevel is the level the next upgrade starts from, counting one in
// progress as done
func (r *run) nextLevel(id models.BuildingID) int {
	for _, b := range r.engine.Economy().Buildings() {
		if b.ID == id {
			if b.Upgrade != nil {
				return b.Upgrade.TargetLevel
			}
			return b.Level
		}
	}
	return 0
}

type candidate struct {
	kind  ActionKind
	id    string
	level int
	cost  models.Bundle
	roi   float64
}

func (r *run) candidates() []candidate {
	e := r.engine
	eco := e.Economy()
	need := r.needs()
	weights := scarcity(r.remainingCost(need), r.Strategy.ScarcityWeight)
	mult := func(rt models.ResourceType) float64 {
		return e.Research().Multiplier(models.ProductionMetric(rt))
	}

	var out []candidate
	for _, b := range eco.Buildings() {
		target, ok := need[b.ID]
		if !ok || b.Upgrade != nil || b.Level >= target {
			continue
		}
		if b.Level == 0 && !eco.IsAvailable(b.ID) {
			continue
		}
		def := r.Catalog.Buildings[b.ID]
		out = append(out, candidate{
			kind:  ActionBuilding,
			id:    string(b.ID),
			level: b.Level,
			cost:  def.CostAt(b.Level),
			roi:   buildingMetric(def, b.Level, mult, weights).Calculate(),
		})
	}

	if r.Strategy.Research && e.Research().Active() == nil {
		production := eco.TotalProduction()
		for _, id := range r.Catalog.NodeIDs() {
			if !e.Research().CanStart(id) {
				continue
			}
			def := r.Catalog.Research[id]
			roi := researchMetric(def, production).Calculate()
			if roi <= 0 {
				continue
			}
			out = append(out, candidate{kind: ActionResearch, id: string(id), cost: def.Cost, roi: roi})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].roi != out[j].roi {
			return out[i].roi > out[j].roi
		}
		return out[i].id < out[j].id
	})
	return out
}

// pick returns the best candidate that is affordable now or will be under
// current production
func (r *run) pick() (candidate, float64, bool) {
	balance, production := r.engine.Balance(), r.engine.Economy().TotalProduction()
	for _, c := range r.candidates() {
		if wait := timeToAfford(balance, c.cost, production); !math.IsInf(wait, 1) {
			return c, wait, true
		}
	}
	return candidate{}, 0, false
}

// buyAffordable keeps buying while the picked candidate is affordable
func (r *run) buyAffordable() {
	for {
		if !r.buyBest() {
			return
		}
	}
}

// buyBest starts the picked candidate if it is affordable. The solver waits
// for it rather than buying a cheaper one.
func (r *run) buyBest() bool {
	best, wait, ok := r.pick()
	if !ok || wait > 0 {
		return false
	}

	now := r.engine.Now()
	switch best.kind {
	case ActionBuilding:
		id := models.BuildingID(best.id)
		buildTime, _ := r.engine.Economy().BuildTime(id)
		if err := r.engine.StartUpgrade(id); err != nil {
			return false
		}
		r.plan.Actions = append(r.plan.Actions, Action{
			Kind: ActionBuilding, ID: best.id,
			FromLevel: best.level, ToLevel: best.level + 1,
			Start: now - r.start, End: now - r.start + buildTime,
			Cost: best.cost,
		})
	case ActionResearch:
		id := models.NodeID(best.id)
		duration := r.Catalog.Research[id].DurationSeconds
		if err := r.engine.StartResearch(id); err != nil {
			return false
		}
		r.plan.Actions = append(r.plan.Actions, Action{
			Kind: ActionResearch, ID: best.id,
			Start: now - r.start, End: now - r.start + duration,
			Cost: best.cost,
		})
	}
	return true
}

// claimQuests takes every reward that is ready
func (r *run) claimQuests() {
	e := r.engine
	for _, q := range e.Quests().List() {
		if !q.Ready(e.Now()) {
			continue
		}
		if err := e.ClaimQuest(q.ID); err != nil {
			continue
		}
		now := e.Now() - r.start
		r.plan.Actions = append(r.plan.Actions, Action{
			Kind: ActionQuest, ID: string(q.ID), Start: now, End: now,
		})
	}
}

// clickGates keeps every built click-gated building producing
func (r *run) clickGates() {
	for _, b := range r.engine.Economy().Buildings() {
		def := r.Catalog.Buildings[b.ID]
		if def.Gate == nil || b.Level == 0 || b.Upgrade != nil {
			continue
		}
		for i := b.Clicks; i < def.Gate.RequiredClicks; i++ {
			_ = r.engine.ClickBuilding(b.ID)
		}
	}
}

// nextWait is the time until something changes: the picked candidate
// becomes affordable, an upgrade or research completes, or a click window closes.
// It fails when nothing will ever change.
func (r *run) nextWait() (float64, bool) {
	e := r.engine
	wait := math.Inf(1)

	for _, b := range e.Economy().Buildings() {
		if b.Upgrade != nil {
			wait = math.Min(wait, b.Upgrade.Remaining)
		}
		if def := r.Catalog.Buildings[b.ID]; def.Gate != nil && b.Level > 0 {
			wait = math.Min(wait, def.Gate.WindowSeconds-b.WindowElapsed)
		}
	}
	if a := e.Research().Active(); a != nil {
		wait = math.Min(wait, a.Remaining)
	}

	if _, afford, ok := r.pick(); ok {
		wait = math.Min(wait, afford)
	}

	if math.IsInf(wait, 1) {
		return 0, false
	}
	return math.Max(math.Ceil(wait), minWait), true
}

// timeToAfford is how long production takes to cover cost, +Inf when a
// missing resource is not produced at all
func timeToAfford(balance, cost, production models.Bundle) float64 {
	wait := 0.0
	for _, rt := range models.AllResourceTypes() {
		missing := cost.Get(rt) - balance.Get(rt)
		if missing <= 0 {
			continue
		}
		rate := production.Get(rt)
		if rate <= 0 {
			return math.Inf(1)
		}
		wait = math.Max(wait, missing/rate)
	}
	return wait
}

func sortedTargets(targets map[models.BuildingID]int) []models.BuildingID {
	ids := make([]models.BuildingID, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
