package models

import "sort"

// Catalog holds every static definition, validated once at load time and
// never mutated afterwards
type Catalog struct {
	StartingResources Bundle
	StartingEquipment []EquipmentID // one inventory entry per element
	Buildings         map[BuildingID]*BuildingDef
	Heroes            map[HeroID]*HeroDef
	Troops            map[TroopID]*TroopDef
	Research          map[NodeID]*ResearchDef
	Quests            map[QuestID]*QuestDef
	Stages            map[StageID]*StageDef
	Equipment         map[EquipmentID]*EquipmentDef
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		Buildings: make(map[BuildingID]*BuildingDef),
		Heroes:    make(map[HeroID]*HeroDef),
		Troops:    make(map[TroopID]*TroopDef),
		Research:  make(map[NodeID]*ResearchDef),
		Quests:    make(map[QuestID]*QuestDef),
		Stages:    make(map[StageID]*StageDef),
		Equipment: make(map[EquipmentID]*EquipmentDef),
	}
}

// BuildingIDs returns building ids in deterministic order
func (c *Catalog) BuildingIDs() []BuildingID {
	return sortedKeys(c.Buildings)
}

// EquipmentIDs returns equipment ids in deterministic order
func (c *Catalog) EquipmentIDs() []EquipmentID {
	return sortedKeys(c.Equipment)
}

// HeroIDs returns hero ids in deterministic order
func (c *Catalog) HeroIDs() []HeroID {
	return sortedKeys(c.Heroes)
}

// TroopIDs returns troop ids in deterministic order
func (c *Catalog) TroopIDs() []TroopID {
	return sortedKeys(c.Troops)
}

// NodeIDs returns research node ids in deterministic order
func (c *Catalog) NodeIDs() []NodeID {
	return sortedKeys(c.Research)
}

// QuestIDs returns quest ids in deterministic order
func (c *Catalog) QuestIDs() []QuestID {
	return sortedKeys(c.Quests)
}

// StageIDs returns stage ids ordered by campaign order, then id
func (c *Catalog) StageIDs() []StageID {
	ids := sortedKeys(c.Stages)
	sort.SliceStable(ids, func(i, j int) bool {
		return c.Stages[ids[i]].Order < c.Stages[ids[j]].Order
	})
	return ids
}

// PrerequisitesOf returns the (building, level) pairs whose unlock entries
// name target, ordered by building id
func (c *Catalog) PrerequisitesOf(target BuildingID) []UnlockEntry {
	var entries []UnlockEntry
	for _, id := range c.BuildingIDs() {
		def := c.Buildings[id]
		for _, lvl := range def.UnlockLevels() {
			for _, unlocked := range def.Unlocks[lvl] {
				if unlocked == target {
					entries = append(entries, UnlockEntry{Building: id, Level: lvl})
				}
			}
		}
	}
	return entries
}

// UnlockEntry is one edge of the unlock graph
type UnlockEntry struct {
	Building BuildingID
	Level    int
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
