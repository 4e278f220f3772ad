package converter

import (
	"fmt"

	"github.com/napolitain/warren/internal/combat"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
)

// BattleRequest selects the attacking army for a campaign stage
type BattleRequest struct {
	Troops map[string]int `json:"troops"`
	Heroes []string       `json:"heroes"`
}

// TrainRequest queues troops
type TrainRequest struct {
	Troop string `json:"troop"`
	Count int    `json:"count"`
}

// AdvanceRequest moves the clock
type AdvanceRequest struct {
	Seconds float64 `json:"seconds"`
}

// PlanRequest asks for a build order towards target levels
type PlanRequest struct {
	Targets map[string]int `json:"targets"`
}

// EquipRequest names the piece to put on a hero
type EquipRequest struct {
	Item string `json:"item"`
}

// BattleReport is the response of a resolved stage
type BattleReport struct {
	combat.Outcome
	Resources models.Bundle `json:"resources"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ToArmy converts a battle request into engine inputs. Zero counts are
// dropped.
func ToArmy(req BattleRequest) (map[models.TroopID]int, []models.HeroID, error) {
	army := make(map[models.TroopID]int, len(req.Troops))
	for id, n := range req.Troops {
		if n < 0 {
			return nil, nil, badRequest("negative count for %s", id)
		}
		if n > 0 {
			army[models.TroopID(id)] = n
		}
	}
	heroes := make([]models.HeroID, 0, len(req.Heroes))
	for _, id := range req.Heroes {
		heroes = append(heroes, models.HeroID(id))
	}
	return army, heroes, nil
}

// ToTargets converts plan targets into building levels
func ToTargets(req PlanRequest) (map[models.BuildingID]int, error) {
	if len(req.Targets) == 0 {
		return nil, badRequest("targets are required")
	}
	targets := make(map[models.BuildingID]int, len(req.Targets))
	for id, level := range req.Targets {
		if level <= 0 {
			return nil, badRequest("target level for %s must be positive", id)
		}
		targets[models.BuildingID(id)] = level
	}
	return targets, nil
}

// ToTraining validates a training request
func ToTraining(req TrainRequest) (models.TroopID, int, error) {
	if req.Troop == "" {
		return "", 0, badRequest("troop is required")
	}
	if req.Count <= 0 {
		return "", 0, badRequest("count must be positive")
	}
	return models.TroopID(req.Troop), req.Count, nil
}

// ToEquipment validates an equip request
func ToEquipment(req EquipRequest) (models.EquipmentID, error) {
	if req.Item == "" {
		return "", badRequest("item is required")
	}
	return models.EquipmentID(req.Item), nil
}

// ToAdvance validates a time step
func ToAdvance(req AdvanceRequest) (float64, error) {
	if req.Seconds <= 0 {
		return 0, badRequest("seconds must be positive")
	}
	return req.Seconds, nil
}

// NewErrorResponse wraps an error for the wire
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error(), Kind: ErrorKind(err)}
}

// Buildings lists every building with its next upgrade
func Buildings(e *sim.Engine) []BuildingView {
	cat := e.Catalog()
	eco := e.Economy()
	var out []BuildingView
	for _, b := range eco.Buildings() {
		def := cat.Buildings[b.ID]
		v := BuildingView{
			ID:         b.ID,
			Name:       def.Name,
			Level:      b.Level,
			MaxLevel:   def.MaxLevel,
			Available:  b.Level > 0 || eco.IsAvailable(b.ID),
			Production: eco.Production(b.ID),
			Upgrade:    b.Upgrade,
		}
		if b.Level < def.MaxLevel {
			cost, _ := eco.Cost(b.ID)
			v.NextCost = &cost
			v.BuildTime, _ = eco.BuildTime(b.ID)
		}
		if def.Gate != nil {
			v.Clicks = formatClicks(b.Clicks, def.Gate.RequiredClicks)
		}
		out = append(out, v)
	}
	return out
}

// Research lists every node with its status
func Research(e *sim.Engine) []ResearchView {
	cat := e.Catalog()
	tree := e.Research()
	var out []ResearchView
	for _, id := range cat.NodeIDs() {
		def := cat.Research[id]
		out = append(out, ResearchView{
			ID:        id,
			Name:      def.Name,
			Cost:      def.Cost,
			Duration:  def.DurationSeconds,
			Completed: tree.IsCompleted(id),
			Startable: tree.CanStart(id),
		})
	}
	return out
}

// Troops lists every troop type
func Troops(e *sim.Engine) []TroopView {
	cat := e.Catalog()
	queued := make(map[models.TroopID]int)
	for _, b := range e.Roster().Queue() {
		queued[b.Troop] += b.Remaining
	}
	var out []TroopView
	for _, id := range cat.TroopIDs() {
		out = append(out, TroopView{
			ID:     id,
			Name:   cat.Troops[id].Name,
			Owned:  e.Roster().Count(id),
			Queued: queued[id],
			Cost:   cat.Troops[id].Cost,
		})
	}
	return out
}

// Heroes lists every hero
func Heroes(e *sim.Engine) []HeroView {
	var out []HeroView
	for _, h := range e.Heroes().Heroes() {
		def := h.Def()
		view := HeroView{
			ID:        h.ID,
			Name:      def.Name,
			Recruited: h.Recruited,
			Level:     h.Level,
			XP:        h.XP,
			Threshold: def.XPThreshold,
			Power:     h.Power(),
			Stats:     h.Stats(),
			Equipment: h.Equipment,
		}
		for _, a := range h.Abilities() {
			view.Abilities = append(view.Abilities, a.Name)
		}
		out = append(out, view)
	}
	return out
}

// Inventory lists the unequipped pieces
func Inventory(e *sim.Engine) []ItemView {
	cat := e.Catalog()
	inv := e.Heroes().Inventory()
	out := []ItemView{}
	for _, id := range e.Heroes().InventoryIDs() {
		def := cat.Equipment[id]
		out = append(out, ItemView{ID: id, Name: def.Name, Slot: def.Slot, Count: inv[id], Stats: def.Stats})
	}
	return out
}


// Quests lists every quest with its progress
func Quests(e *sim.Engine) []QuestView {
	var out []QuestView
	for _, q := range e.Quests().List() {
		def := q.Def()
		out = append(out, QuestView{
			ID:         q.ID,
			Name:       def.Name,
			Progress:   q.Progress,
			Goal:       def.Objective.Goal(),
			Completed:  q.Completed,
			Claimed:    q.Claimed,
			Claimable:  q.Ready(e.Now()),
			Repeatable: def.Repeatable,
			Reward:     def.Reward,
		})
	}
	return out
}

// Stages lists the campaign in order
func Stages(e *sim.Engine) []StageView {
	cat := e.Catalog()
	c := e.Campaign()
	var out []StageView
	for _, id := range cat.StageIDs() {
		out = append(out, StageView{
			ID:       id,
			Name:     cat.Stages[id].Name,
			Unlocked: c.Unlocked(id),
			Cleared:  c.IsCleared(id),
			Reward:   cat.Stages[id].Reward,
		})
	}
	return out
}

// State builds the full read model
func State(e *sim.Engine) StateView {
	return StateView{
		Status:    e.Status(),
		Buildings: Buildings(e),
		Research:  Research(e),
		Active:    e.Research().Active(),
		Troops:    Troops(e),
		Heroes:    Heroes(e),
		Inventory: Inventory(e),
		Quests:    Quests(e),
		Stages:    Stages(e),
	}
}

func formatClicks(have, need int) string {
	if have > need {
		have = need
	}
	return fmt.Sprintf("%d/%d", have, need)
}
