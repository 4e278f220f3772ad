package heroes

import (
	"maps"

	"github.com/napolitain/warren/internal/models"
)

// Hero is the live progression state of one hero
type Hero struct {
	ID        models.HeroID                           `json:"id"`
	Level     int                                     `json:"level"`
	XP        int                                     `json:"xp"`
	Recruited bool                                    `json:"recruited"`
	Equipment map[models.EquipSlot]models.EquipmentID `json:"equipment,omitempty"`

	def  *models.HeroDef
	gear map[models.EquipSlot]*models.EquipmentDef
}

// NewHero creates a level 1 hero with no experience and nothing equipped
func NewHero(def *models.HeroDef) *Hero {
	return &Hero{ID: def.ID, Level: 1, def: def}
}

// Def returns the static definition
func (h *Hero) Def() *models.HeroDef {
	return h.def
}

// GainExperience adds xp and levels up while it covers the threshold.
// Returns the number of levels gained.
func (h *Hero) GainExperience(amount int) int {
	if amount <= 0 {
		return 0
	}
	h.XP += amount
	gained := 0
	for h.XP >= h.def.XPThreshold {
		h.XP -= h.def.XPThreshold
		h.Level++
		gained++
	}
	return gained
}

// BaseStats returns base stats plus growth for every level above 1
func (h *Hero) BaseStats() models.HeroStats {
	return h.def.BaseStats.Add(h.def.Growth.Scale(float64(h.Level - 1)))
}

// GearStats returns the sum of every equipped piece
func (h *Hero) GearStats() models.HeroStats {
	var total models.HeroStats
	for _, slot := range models.AllEquipSlots() {
		if item := h.gear[slot]; item != nil {
			total = total.Add(item.Stats)
		}
	}
	return total
}

// Stats returns level stats plus equipment
func (h *Hero) Stats() models.HeroStats {
	return h.BaseStats().Add(h.GearStats())
}

// Power returns the combat rating of the hero with its equipment
func (h *Hero) Power() int {
	return Power(h.Stats())
}

// Equipped returns the piece in slot, nil when empty
func (h *Hero) Equipped(slot models.EquipSlot) *models.EquipmentDef {
	return h.gear[slot]
}

// Equip puts item in its slot and returns the piece it replaced
func (h *Hero) Equip(item *models.EquipmentDef) *models.EquipmentDef {
	if h.gear == nil {
		h.gear = make(map[models.EquipSlot]*models.EquipmentDef)
		h.Equipment = make(map[models.EquipSlot]models.EquipmentID)
	}
	old := h.gear[item.Slot]
	h.gear[item.Slot] = item
	h.Equipment[item.Slot] = item.ID
	return old
}

// Unequip empties slot and returns the removed piece
func (h *Hero) Unequip(slot models.EquipSlot) *models.EquipmentDef {
	old := h.gear[slot]
	delete(h.gear, slot)
	delete(h.Equipment, slot)
	return old
}

// Abilities returns the abilities unlocked at the current level
func (h *Hero) Abilities() []models.AbilityDef {
	var out []models.AbilityDef
	for _, a := range h.def.Abilities {
		if a.UnlockLevel <= h.Level {
			out = append(out, a)
		}
	}
	return out
}

func (h *Hero) clone() Hero {
	c := *h
	c.Equipment = maps.Clone(h.Equipment)
	c.gear = maps.Clone(h.gear)
	return c
}

// Power rates a stat bundle: attack*1.5 + defense*1.2 + hp*0.3 + leadership*2,
// truncated
func Power(s models.HeroStats) int {
	return int(s.Attack*1.5 + s.Defense*1.2 + s.HP*0.3 + s.Leadership*2)
}
