package combat

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/napolitain/warren/internal/models"
)

// Campaign tracks cleared stages and gates stages on their prerequisites
type Campaign struct {
	catalog *models.Catalog
	cleared map[models.StageID]bool
}

// NewCampaign creates a campaign with nothing cleared
func NewCampaign(cat *models.Catalog) *Campaign {
	return &Campaign{catalog: cat, cleared: make(map[models.StageID]bool)}
}

// Check returns an error when a stage is unknown or still locked
func (c *Campaign) Check(id models.StageID) error {
	stage, ok := c.catalog.Stages[id]
	if !ok {
		return fmt.Errorf("%w: stage %q", models.ErrUnknownIdentifier, id)
	}
	for _, req := range stage.Requires {
		if !c.cleared[req] {
			return fmt.Errorf("%w: stage %s requires %s", models.ErrUnmetPrerequisite, id, req)
		}
	}
	return nil
}

// Unlocked reports whether a stage can be fought
func (c *Campaign) Unlocked(id models.StageID) bool {
	return c.Check(id) == nil
}

// IsCleared reports whether a stage has been won at least once
func (c *Campaign) IsCleared(id models.StageID) bool {
	return c.cleared[id]
}

// Defenders builds the stage's defending force
func (c *Campaign) Defenders(id models.StageID) (Force, error) {
	stage, ok := c.catalog.Stages[id]
	if !ok {
		return Force{}, fmt.Errorf("%w: stage %q", models.ErrUnknownIdentifier, id)
	}
	return BuildForce(c.catalog, stage.Defenders, nil, nil), nil
}

// Fight resolves a battle against an unlocked stage and records the clear
// on victory. FirstClear is set the first time a stage is won.
func (c *Campaign) Fight(id models.StageID, attacker Force) (Outcome, error) {
	if err := c.Check(id); err != nil {
		return Outcome{}, err
	}
	defender, err := c.Defenders(id)
	if err != nil {
		return Outcome{}, err
	}

	out := Resolve(attacker, defender)
	out.ID = uuid.NewString()
	out.Stage = id
	if out.Victory {
		out.FirstClear = !c.cleared[id]
		c.cleared[id] = true
	}
	return out, nil
}

// Cleared returns cleared stage ids in sorted order
func (c *Campaign) Cleared() []models.StageID {
	ids := make([]models.StageID, 0, len(c.cleared))
	for id := range c.cleared {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Restore replaces the cleared set from a save. Unknown ids are skipped and
// returned.
func (c *Campaign) Restore(cleared []models.StageID) (unknown []models.StageID) {
	clear(c.cleared)
	for _, id := range cleared {
		if _, ok := c.catalog.Stages[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		c.cleared[id] = true
	}
	return unknown
}
