package heroes

import (
	"fmt"
	"maps"
	"slices"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

// Modifiers supplies the hero_xp multiplier
type Modifiers interface {
	Multiplier(m models.Metric) float64
}

// Hall owns every hero of the catalog, recruited or not
type Hall struct {
	ledger *ledger.Ledger
	emit   events.Emitter
	mods   Modifiers
	order  []models.HeroID
	heroes map[models.HeroID]*Hero

	items     map[models.EquipmentID]*models.EquipmentDef
	starting  []models.EquipmentID
	inventory map[models.EquipmentID]int // unequipped pieces
}

// NewHall creates level 1 heroes for every catalog entry and fills the
// inventory with the starting equipment
func NewHall(cat *models.Catalog, l *ledger.Ledger, emit events.Emitter, mods Modifiers) *Hall {
	h := &Hall{
		ledger:    l,
		emit:      emit,
		mods:      mods,
		order:     cat.HeroIDs(),
		heroes:    make(map[models.HeroID]*Hero),
		items:     cat.Equipment,
		starting:  cat.StartingEquipment,
		inventory: make(map[models.EquipmentID]int),
	}
	for _, id := range h.order {
		h.heroes[id] = NewHero(cat.Heroes[id])
	}
	for _, id := range h.starting {
		h.inventory[id]++
	}
	return h
}

func (h *Hall) lookup(id models.HeroID) (*Hero, error) {
	hero, ok := h.heroes[id]
	if !ok {
		return nil, fmt.Errorf("%w: hero %q", models.ErrUnknownIdentifier, id)
	}
	return hero, nil
}

// Recruit debits the recruitment cost and adds the hero to the player's side
func (h *Hall) Recruit(id models.HeroID) error {
	hero, err := h.lookup(id)
	if err != nil {
		return err
	}
	if hero.Recruited {
		return fmt.Errorf("%w: %s is already recruited", models.ErrInvalidState, id)
	}
	if err := h.ledger.Debit(hero.def.RecruitCost); err != nil {
		return fmt.Errorf("recruit %s: %w", id, err)
	}
	hero.Recruited = true
	return nil
}

// Grant gives experience to a recruited hero after the hero_xp multiplier
// and returns the levels gained
func (h *Hall) Grant(id models.HeroID, amount int, now float64) (int, error) {
	hero, err := h.lookup(id)
	if err != nil {
		return 0, err
	}
	if !hero.Recruited {
		return 0, fmt.Errorf("%w: %s is not recruited", models.ErrInvalidState, id)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative experience %d", models.ErrInvalidState, amount)
	}

	scaled := amount
	if h.mods != nil {
		scaled = models.FloorInt(float64(amount) * h.mods.Multiplier(models.MetricHeroXP))
	}
	from := hero.Level
	gained := hero.GainExperience(scaled)
	if gained > 0 {
		h.emit.Emit(now, events.HeroLeveled, events.HeroLeveledPayload{
			Hero:      id,
			FromLevel: from,
			ToLevel:   hero.Level,
		})
	}
	return gained, nil
}

// Equip moves a piece from the inventory onto a recruited hero. The piece it
// replaces goes back to the inventory.
func (h *Hall) Equip(id models.HeroID, itemID models.EquipmentID) error {
	hero, err := h.lookup(id)
	if err != nil {
		return err
	}
	item, ok := h.items[itemID]
	if !ok {
		return fmt.Errorf("%w: equipment %q", models.ErrUnknownIdentifier, itemID)
	}
	if !hero.Recruited {
		return fmt.Errorf("%w: %s is not recruited", models.ErrInvalidState, id)
	}
	if h.inventory[itemID] == 0 {
		return fmt.Errorf("%w: no %s in the inventory", models.ErrInvalidState, itemID)
	}

	h.take(itemID)
	if old := hero.Equip(item); old != nil {
		h.inventory[old.ID]++
	}
	return nil
}

// Unequip moves the piece in slot back to the inventory
func (h *Hall) Unequip(id models.HeroID, slot models.EquipSlot) error {
	hero, err := h.lookup(id)
	if err != nil {
		return err
	}
	if !slot.Valid() {
		return fmt.Errorf("%w: equipment slot %q", models.ErrUnknownIdentifier, slot)
	}
	old := hero.Unequip(slot)
	if old == nil {
		return fmt.Errorf("%w: %s has nothing in %s", models.ErrInvalidState, id, slot)
	}
	h.inventory[old.ID]++
	return nil
}

func (h *Hall) take(id models.EquipmentID) {
	h.inventory[id]--
	if h.inventory[id] <= 0 {
		delete(h.inventory, id)
	}
}

// Inventory returns a copy of the unequipped pieces and their counts
func (h *Hall) Inventory() map[models.EquipmentID]int {
	return maps.Clone(h.inventory)
}

// InventoryIDs returns the ids held in the inventory in sorted order
func (h *Hall) InventoryIDs() []models.EquipmentID {
	return slices.Sorted(maps.Keys(h.inventory))
}

// Get returns a copy of a hero
func (h *Hall) Get(id models.HeroID) (Hero, bool) {
	hero, ok := h.heroes[id]
	if !ok {
		return Hero{}, false
	}
	return hero.clone(), true
}

// Heroes returns copies of every hero in id order
func (h *Hall) Heroes() []Hero {
	out := make([]Hero, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.heroes[id].clone())
	}
	return out
}

// Recruited returns copies of recruited heroes in id order
func (h *Hall) Recruited() []Hero {
	var out []Hero
	for _, id := range h.order {
		if hero := h.heroes[id]; hero.Recruited {
			out = append(out, hero.clone())
		}
	}
	return out
}

// Restore overwrites hero progression and the inventory from a save. A nil
// inventory keeps the starting equipment. Unknown heroes and pieces, or pieces
// saved in the wrong slot, are skipped and returned.
func (h *Hall) Restore(states []Hero, inventory map[models.EquipmentID]int) (unknown []models.HeroID, unknownItems []models.EquipmentID) {
	for _, s := range states {
		hero, ok := h.heroes[s.ID]
		if !ok {
			unknown = append(unknown, s.ID)
			continue
		}
		hero.Level = max(s.Level, 1)
		hero.XP = max(s.XP, 0)
		hero.Recruited = s.Recruited
		for _, slot := range models.AllEquipSlots() {
			hero.Unequip(slot)
			id, ok := s.Equipment[slot]
			if !ok {
				continue
			}
			item, ok := h.items[id]
			if !ok || item.Slot != slot {
				unknownItems = append(unknownItems, id)
				continue
			}
			hero.Equip(item)
		}
	}

	if inventory == nil {
		return unknown, unknownItems
	}
	clear(h.inventory)
	for _, id := range slices.Sorted(maps.Keys(inventory)) {
		if _, ok := h.items[id]; !ok {
			unknownItems = append(unknownItems, id)
			continue
		}
		if n := inventory[id]; n > 0 {
			h.inventory[id] = n
		}
	}
	return unknown, unknownItems
}
