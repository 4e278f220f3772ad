package models

import (
	"math"
	"sort"
)

// BuildingID identifies a building definition
type BuildingID string

// ClickGate makes production conditional on player clicks: production only
// flows while at least RequiredClicks have landed in the current window.
type ClickGate struct {
	RequiredClicks int
	WindowSeconds  float64
}

// BuildingDef is the static, validated definition of a building
type BuildingDef struct {
	ID          BuildingID
	Name        string
	MaxLevel    int
	BaseCost    Bundle
	ScaleFactor float64

	BuildTimeSeconds float64
	BuildTimeScale   float64

	// BaseProduction is the per-second output at level 1
	BaseProduction  Bundle
	ProductionScale float64

	Gate *ClickGate // nil if production is not click-gated

	// Unlocks maps a level to the buildings that become purchasable when
	// this building reaches it
	Unlocks map[int][]BuildingID
}

// CostAt returns the cost to go from level to level+1
func (b *BuildingDef) CostAt(level int) Bundle {
	return b.BaseCost.Scale(math.Pow(b.ScaleFactor, float64(level))).Floor()
}

// BuildTimeAt returns the construction time to go from level to level+1
func (b *BuildingDef) BuildTimeAt(level int) float64 {
	if level == 0 {
		return b.BuildTimeSeconds
	}
	return float64(FloorInt(b.BuildTimeSeconds * math.Pow(b.BuildTimeScale, float64(level))))
}

// ProductionAt returns the per-second output at a level (zero when unbuilt)
func (b *BuildingDef) ProductionAt(level int) Bundle {
	if level <= 0 {
		return Bundle{}
	}
	return b.BaseProduction.Scale(math.Pow(b.ProductionScale, float64(level-1)))
}

// IsProducer returns true if the building yields resources
func (b *BuildingDef) IsProducer() bool {
	return !b.BaseProduction.IsZero()
}

// UnlockLevels returns the levels that carry unlock entries, ascending
func (b *BuildingDef) UnlockLevels() []int {
	levels := make([]int, 0, len(b.Unlocks))
	for lvl := range b.Unlocks {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	return levels
}
