package models

// TroopID identifies a troop type
type TroopID string

// HeroID identifies a hero
type HeroID string

// TroopStats contains the combat stats of one unit
type TroopStats struct {
	Attack  float64
	Defense float64
	HP      float64
	Speed   float64
}

// TroopDef contains static troop data
type TroopDef struct {
	ID                  TroopID
	Name                string
	Category            string // infantry, cavalry, ranged, siege
	Stats               TroopStats
	Cost                Bundle // per unit
	TrainingTimeSeconds float64

	// Building that must be built (at RequiredLevel) before training
	RequiredBuilding BuildingID
	RequiredLevel    int
}

// Power rates one unit: hp + attack*2 + defense + speed
func (t *TroopDef) Power() float64 {
	return t.Stats.HP + t.Stats.Attack*2 + t.Stats.Defense + t.Stats.Speed
}

// BatchCost returns the cost of training qty units
func (t *TroopDef) BatchCost(qty int) Bundle {
	return t.Cost.Scale(float64(qty))
}

// HeroStats is the stat bundle of a hero
type HeroStats struct {
	Attack     float64 `json:"attack"`
	Defense    float64 `json:"defense"`
	HP         float64 `json:"hp"`
	Leadership float64 `json:"leadership"`
}

// Add returns the componentwise sum
func (s HeroStats) Add(o HeroStats) HeroStats {
	return HeroStats{
		Attack:     s.Attack + o.Attack,
		Defense:    s.Defense + o.Defense,
		HP:         s.HP + o.HP,
		Leadership: s.Leadership + o.Leadership,
	}
}

// Scale multiplies every stat by f
func (s HeroStats) Scale(f float64) HeroStats {
	return HeroStats{
		Attack:     s.Attack * f,
		Defense:    s.Defense * f,
		HP:         s.HP * f,
		Leadership: s.Leadership * f,
	}
}

// HeroDef contains static hero data
type HeroDef struct {
	ID          HeroID
	Name        string
	Title       string
	Role        string
	BaseStats   HeroStats
	Growth      HeroStats // added once per level gained
	RecruitCost Bundle
	XPThreshold int // experience needed per level
	Abilities   []AbilityDef
}

// AbilityDef is a hero ability that unlocks at a hero level
type AbilityDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UnlockLevel int    `json:"unlock_level"`
}

// EquipmentID identifies an equipment piece
type EquipmentID string

// EquipSlot is the hero slot an equipment piece occupies
type EquipSlot string

const (
	SlotWeapon    EquipSlot = "weapon"
	SlotArmor     EquipSlot = "armor"
	SlotHelmet    EquipSlot = "helmet"
	SlotAccessory EquipSlot = "accessory"
)

// AllEquipSlots returns every slot in display order
func AllEquipSlots() []EquipSlot {
	return []EquipSlot{SlotWeapon, SlotArmor, SlotHelmet, SlotAccessory}
}

// Valid reports whether s is a known slot
func (s EquipSlot) Valid() bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotHelmet, SlotAccessory:
		return true
	}
	return false
}

// EquipmentDef contains static equipment data. Stats are added to the
// wearer's stats.
type EquipmentDef struct {
	ID          EquipmentID
	Name        string
	Slot        EquipSlot
	Rarity      string
	Stats       HeroStats
	Description string
}
