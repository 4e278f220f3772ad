// Package converter provides conversions between engine state and the
// JSON shapes served by the outer surfaces
package converter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/napolitain/warren/internal/economy"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/research"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/solver"
	"github.com/napolitain/warren/internal/storage"
)

// BuildingView is one row of the building list
type BuildingView struct {
	ID         models.BuildingID `json:"id"`
	Name       string            `json:"name"`
	Level      int               `json:"level"`
	MaxLevel   int               `json:"max_level"`
	Available  bool              `json:"available"`
	NextCost   *models.Bundle    `json:"next_cost,omitempty"`
	BuildTime  float64           `json:"build_time,omitempty"`
	Production models.Bundle     `json:"production"`
	Upgrade    *economy.Upgrade  `json:"upgrade,omitempty"`
	Clicks     string            `json:"clicks,omitempty"`
}

// ResearchView is one research node with its status
type ResearchView struct {
	ID        models.NodeID `json:"id"`
	Name      string        `json:"name"`
	Cost      models.Bundle `json:"cost"`
	Duration  float64       `json:"duration"`
	Completed bool          `json:"completed"`
	Startable bool          `json:"startable"`
}

// TroopView is one troop type with owned and queued counts
type TroopView struct {
	ID     models.TroopID `json:"id"`
	Name   string         `json:"name"`
	Owned  int            `json:"owned"`
	Queued int            `json:"queued"`
	Cost   models.Bundle  `json:"cost"`
}

// HeroView is one hero with derived power
type HeroView struct {
	ID        models.HeroID                           `json:"id"`
	Name      string                                  `json:"name"`
	Recruited bool                                    `json:"recruited"`
	Level     int                                     `json:"level"`
	XP        int                                     `json:"xp"`
	Threshold int                                     `json:"xp_threshold"`
	Power     int                                     `json:"power"`
	Stats     models.HeroStats                        `json:"stats"`
	Equipment map[models.EquipSlot]models.EquipmentID `json:"equipment,omitempty"`
	Abilities []string                                `json:"abilities,omitempty"`
}

// ItemView is one inventory entry
type ItemView struct {
	ID    models.EquipmentID `json:"id"`
	Name  string             `json:"name"`
	Slot  models.EquipSlot   `json:"slot"`
	Count int                `json:"count"`
	Stats models.HeroStats   `json:"stats"`
}

// QuestView is one quest with progress towards its goal
type QuestView struct {
	ID         models.QuestID `json:"id"`
	Name       string         `json:"name"`
	Progress   float64        `json:"progress"`
	Goal       float64        `json:"goal"`
	Completed  bool           `json:"completed"`
	Claimed    bool           `json:"claimed"`
	Claimable  bool           `json:"claimable"`
	Repeatable bool           `json:"repeatable"`
	Reward     models.Bundle  `json:"reward"`
}

// StageView is one campaign stage
type StageView struct {
	ID       models.StageID `json:"id"`
	Name     string         `json:"name"`
	Unlocked bool           `json:"unlocked"`
	Cleared  bool           `json:"cleared"`
	Reward   models.Bundle  `json:"reward"`
}

// StateView is the full read model of an engine
type StateView struct {
	Status    sim.Status       `json:"status"`
	Buildings []BuildingView   `json:"buildings"`
	Research  []ResearchView   `json:"research"`
	Active    *research.Active `json:"active_research,omitempty"`
	Troops    []TroopView      `json:"troops"`
	Heroes    []HeroView       `json:"heroes"`
	Inventory []ItemView       `json:"inventory"`
	Quests    []QuestView      `json:"quests"`
	Stages    []StageView      `json:"stages"`
}

// ErrorStatus maps an error kind to an HTTP status code
func ErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrInsufficientResources):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrUnmetPrerequisite):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnknownIdentifier), errors.Is(err, storage.ErrNoSave):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidSlot), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrNoTargets):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKind names the error kind for API responses
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientResources):
		return "insufficient_resources"
	case errors.Is(err, models.ErrUnmetPrerequisite):
		return "unmet_prerequisite"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, models.ErrUnknownIdentifier):
		return "unknown_identifier"
	case errors.Is(err, storage.ErrNoSave):
		return "no_save"
	case errors.Is(err, storage.ErrInvalidSlot), errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, solver.ErrNoTargets):
		return "targets_reached"
	default:
		return "internal"
	}
}

// ErrBadRequest marks malformed request bodies
var ErrBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
