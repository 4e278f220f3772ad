package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/napolitain/warren/internal/combat"
	"github.com/napolitain/warren/internal/economy"
	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/heroes"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/quests"
	"github.com/napolitain/warren/internal/research"
	"github.com/napolitain/warren/internal/roster"
)

// Engine is the simulation context: it owns the clock, the ledger and every
// component, and is the only entry point for commands. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	catalog *models.Catalog
	clock   float64

	ledger   *ledger.Ledger
	bus      *events.Bus
	economy  *economy.Economy
	research *research.Tree
	roster   *roster.Roster
	heroes   *heroes.Hall
	quests   *quests.Tracker
	campaign *combat.Campaign

	logger *zap.Logger
}

// buildingLevels defers to the engine's economy and roster, which are created
// after the components that need them
type buildingLevels struct{ e *Engine }

func (b buildingLevels) Level(id models.BuildingID) int { return b.e.economy.Level(id) }

// ArmyPower rates the owned troops for quest gauges
func (b buildingLevels) ArmyPower() float64 { return b.e.roster.Power() }

// New creates an engine at time zero with the catalog's starting resources
func New(cat *models.Catalog) *Engine {
	e := &Engine{
		catalog: cat,
		ledger:  ledger.New(cat.StartingResources),
		bus:     events.NewBus(),
		logger:  zap.NewNop(),
	}
	levels := buildingLevels{e}
	e.research = research.New(cat, e.ledger, e.bus, levels)
	e.economy = economy.New(cat, e.ledger, e.bus, e.research)
	e.roster = roster.New(cat, e.ledger, e.bus, levels, e.research)
	e.heroes = heroes.NewHall(cat, e.ledger, e.bus, e.research)
	e.quests = quests.New(cat, e.ledger, e.bus, levels)
	e.campaign = combat.NewCampaign(cat)

	e.bus.Subscribe(e.quests.Observe)
	e.bus.Subscribe(e.logEvent)
	return e
}

// SetLogger sets the logger (default is a no-op logger)
func (e *Engine) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	e.logger = l
}

// Subscribe registers a handler for every dispatched event. Handlers run
// after the quest tracker has seen the event.
func (e *Engine) Subscribe(h events.Handler) {
	e.bus.Subscribe(h)
}

func (e *Engine) logEvent(ev events.Event) {
	fields := []zap.Field{zap.Float64("t", ev.Time), zap.Any("payload", ev.Payload)}
	switch ev.Type {
	case events.ResourceCredited, events.BuildingUpgradeStarted:
		e.logger.Debug(ev.Type.String(), fields...)
	default:
		e.logger.Info(ev.Type.String(), fields...)
	}
}

// Now returns the game clock in seconds
func (e *Engine) Now() float64 { return e.clock }

// Catalog returns the static definitions
func (e *Engine) Catalog() *models.Catalog { return e.catalog }

// Balance returns the current resource balances
func (e *Engine) Balance() models.Bundle { return e.ledger.Balance() }

// Economy exposes building queries
func (e *Engine) Economy() *economy.Economy { return e.economy }

// Research exposes research queries
func (e *Engine) Research() *research.Tree { return e.research }

// Roster exposes troop queries
func (e *Engine) Roster() *roster.Roster { return e.roster }

// Heroes exposes hero queries
func (e *Engine) Heroes() *heroes.Hall { return e.heroes }

// Quests exposes quest queries
func (e *Engine) Quests() *quests.Tracker { return e.quests }

// Campaign exposes campaign queries
func (e *Engine) Campaign() *combat.Campaign { return e.campaign }

// AdvanceTime moves the clock by dt seconds. Within the tick the order is
// fixed: buildings, research, training, army power is measured, then quests
// observe the events the earlier steps produced.
func (e *Engine) AdvanceTime(dt float64) error {
	if dt < 0 {
		return fmt.Errorf("%w: negative time step %g", models.ErrInvalidState, dt)
	}
	if dt == 0 {
		return nil
	}
	e.clock += dt
	now := e.clock

	e.economy.Tick(now, dt)
	e.research.Tick(now, dt)
	e.roster.Tick(now, dt)
	e.quests.Measure(now)
	e.bus.Flush()
	return nil
}

// Simulate advances the clock by duration in fixed steps (the last step may
// be shorter)
func (e *Engine) Simulate(duration, step float64) error {
	if step <= 0 {
		return fmt.Errorf("%w: step must be positive", models.ErrInvalidState)
	}
	for duration > 0 {
		dt := min(step, duration)
		if err := e.AdvanceTime(dt); err != nil {
			return err
		}
		duration -= dt
	}
	return nil
}

// command runs a manual operation, logs a rejection, and flushes events
func (e *Engine) command(name string, fields []zap.Field, fn func() error) error {
	err := fn()
	if err != nil {
		e.logger.Debug("command rejected", append(fields, zap.String("command", name), zap.Error(err))...)
		return err
	}
	e.logger.Debug("command", append(fields, zap.String("command", name))...)
	e.quests.Measure(e.clock)
	e.bus.Flush()
	return nil
}

// StartUpgrade starts the next level of a building
func (e *Engine) StartUpgrade(id models.BuildingID) error {
	return e.command("start_upgrade", []zap.Field{zap.String("building", string(id))}, func() error {
		return e.economy.StartUpgrade(id, e.clock)
	})
}

// ClickBuilding registers a click on a click-gated building
func (e *Engine) ClickBuilding(id models.BuildingID) error {
	return e.command("click_building", []zap.Field{zap.String("building", string(id))}, func() error {
		return e.economy.Click(id)
	})
}

// EnqueueTraining queues qty units of a troop type
func (e *Engine) EnqueueTraining(troop models.TroopID, qty int) error {
	return e.command("enqueue_training", []zap.Field{zap.String("troop", string(troop)), zap.Int("qty", qty)}, func() error {
		return e.roster.Enqueue(troop, qty, e.clock)
	})
}

// StartResearch starts a research node
func (e *Engine) StartResearch(id models.NodeID) error {
	return e.command("start_research", []zap.Field{zap.String("node", string(id))}, func() error {
		return e.research.Start(id, e.clock)
	})
}

// ClaimQuest pays out a completed quest
func (e *Engine) ClaimQuest(id models.QuestID) error {
	return e.command("claim_quest", []zap.Field{zap.String("quest", string(id))}, func() error {
		return e.quests.Claim(id, e.clock)
	})
}

// RecruitHero pays a hero's recruitment cost
func (e *Engine) RecruitHero(id models.HeroID) error {
	return e.command("recruit_hero", []zap.Field{zap.String("hero", string(id))}, func() error {
		return e.heroes.Recruit(id)
	})
}

// EquipHero moves a piece from the inventory onto a recruited hero
func (e *Engine) EquipHero(id models.HeroID, item models.EquipmentID) error {
	return e.command("equip_hero", []zap.Field{zap.String("hero", string(id)), zap.String("item", string(item))}, func() error {
		return e.heroes.Equip(id, item)
	})
}

// UnequipHero returns the piece in slot to the inventory
func (e *Engine) UnequipHero(id models.HeroID, slot models.EquipSlot) error {
	return e.command("unequip_hero", []zap.Field{zap.String("hero", string(id)), zap.String("slot", string(slot))}, func() error {
		return e.heroes.Unequip(id, slot)
	})
}

// GrantHeroExperience gives experience to a recruited hero and returns the
// levels gained
func (e *Engine) GrantHeroExperience(id models.HeroID, amount int) (int, error) {
	var gained int
	err := e.command("grant_hero_xp", []zap.Field{zap.String("hero", string(id)), zap.Int("xp", amount)}, func() error {
		var err error
		gained, err = e.heroes.Grant(id, amount, e.clock)
		return err
	})
	return gained, err
}

// ResolveCampaignStage fights a stage with the selected troops and heroes.
// Losses come out of the roster whatever the result. Every victory pays the
// stage reward and grants the stage's hero XP to the heroes that fought.
func (e *Engine) ResolveCampaignStage(stage models.StageID, army map[models.TroopID]int, heroIDs []models.HeroID) (combat.Outcome, error) {
	var out combat.Outcome
	fields := []zap.Field{zap.String("stage", string(stage)), zap.Any("army", army), zap.Any("heroes", heroIDs)}
	err := e.command("resolve_campaign_stage", fields, func() error {
		if err := e.campaign.Check(stage); err != nil {
			return err
		}
		force, err := e.attackingForce(army, heroIDs)
		if err != nil {
			return err
		}
		out, err = e.campaign.Fight(stage, force)
		if err != nil {
			return err
		}
		e.applyOutcome(stage, out, heroIDs)
		return nil
	})
	return out, err
}

func (e *Engine) attackingForce(army map[models.TroopID]int, heroIDs []models.HeroID) (combat.Force, error) {
	if err := e.roster.Has(army); err != nil {
		return combat.Force{}, err
	}
	total := 0
	for _, n := range army {
		total += n
	}
	if total == 0 && len(heroIDs) == 0 {
		return combat.Force{}, fmt.Errorf("%w: no troops or heroes selected", models.ErrInvalidState)
	}

	seen := make(map[models.HeroID]bool)
	units := make([]combat.HeroUnit, 0, len(heroIDs))
	for _, id := range heroIDs {
		hero, ok := e.heroes.Get(id)
		if !ok {
			return combat.Force{}, fmt.Errorf("%w: hero %q", models.ErrUnknownIdentifier, id)
		}
		if !hero.Recruited {
			return combat.Force{}, fmt.Errorf("%w: %s is not recruited", models.ErrInvalidState, id)
		}
		if seen[id] {
			return combat.Force{}, fmt.Errorf("%w: %s selected twice", models.ErrInvalidState, id)
		}
		seen[id] = true
		units = append(units, combat.HeroUnit{ID: id, Stats: hero.Stats()})
	}
	return combat.BuildForce(e.catalog, army, units, e.research), nil
}

func (e *Engine) applyOutcome(stage models.StageID, out combat.Outcome, heroIDs []models.HeroID) {
	def := e.catalog.Stages[stage]
	e.roster.Remove(out.AttackerLosses)

	if out.Victory {
		if added := e.ledger.Credit(def.Reward); !added.IsZero() {
			e.bus.Emit(e.clock, events.ResourceCredited, events.ResourceCreditedPayload{
				Amount: added,
				Source: events.SourceBattle,
			})
		}
		for _, id := range heroIDs {
			if _, err := e.heroes.Grant(id, def.HeroXP, e.clock); err != nil {
				e.logger.Warn("stage experience not granted",
					zap.String("stage", string(stage)), zap.String("hero", string(id)), zap.Error(err))
			}
		}
	}

	e.bus.Emit(e.clock, events.BattleResolved, events.BattleResolvedPayload{
		Stage:    stage,
		ReportID: out.ID,
		Victory:  out.Victory,
		Rounds:   len(out.Rounds),
		Losses:   out.AttackerLosses,
	})
}

// Status is a summary view for outer surfaces
type Status struct {
	Clock      float64             `json:"clock"`
	Resources  models.Bundle       `json:"resources"`
	Production models.Bundle       `json:"production"`
	Available  []models.BuildingID `json:"available"`
	Troops     int                 `json:"troops"`
	Research   *research.Active    `json:"research,omitempty"`
}

// Status returns a summary of the current state
func (e *Engine) Status() Status {
	s := Status{
		Clock:      e.clock,
		Resources:  e.ledger.Balance(),
		Production: e.economy.TotalProduction(),
		Troops:     e.roster.Total(),
		Research:   e.research.Active(),
	}
	for _, b := range e.economy.Buildings() {
		if b.Level == 0 && e.economy.IsAvailable(b.ID) {
			s.Available = append(s.Available, b.ID)
		}
	}
	return s
}
