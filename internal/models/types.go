package models

import "math"

// ResourceType represents the different resource types in the game
type ResourceType string

const (
	Gold  ResourceType = "gold"
	Wood  ResourceType = "wood"
	Stone ResourceType = "stone"
	Food  ResourceType = "food"
)

// AllResourceTypes returns all resource types in deterministic order
func AllResourceTypes() []ResourceType {
	return []ResourceType{Gold, Wood, Stone, Food}
}

// ParseResourceType converts a data-file key to a ResourceType
func ParseResourceType(s string) (ResourceType, bool) {
	switch ResourceType(s) {
	case Gold, Wood, Stone, Food:
		return ResourceType(s), true
	}
	return "", false
}

// roundingEpsilon absorbs float error before flooring so that 100*1.15
// charges 115 and not 114.
const roundingEpsilon = 1e-9

// Bundle holds one quantity per resource type (no maps, deterministic)
type Bundle struct {
	Gold  float64 `json:"gold,omitempty"`
	Wood  float64 `json:"wood,omitempty"`
	Stone float64 `json:"stone,omitempty"`
	Food  float64 `json:"food,omitempty"`
}

// Get returns the quantity for a resource type
func (b Bundle) Get(rt ResourceType) float64 {
	switch rt {
	case Gold:
		return b.Gold
	case Wood:
		return b.Wood
	case Stone:
		return b.Stone
	case Food:
		return b.Food
	}
	return 0
}

// Set sets the quantity for a resource type
func (b *Bundle) Set(rt ResourceType, v float64) {
	switch rt {
	case Gold:
		b.Gold = v
	case Wood:
		b.Wood = v
	case Stone:
		b.Stone = v
	case Food:
		b.Food = v
	}
}

// Each iterates over all resources in deterministic order
func (b Bundle) Each(fn func(ResourceType, float64)) {
	fn(Gold, b.Gold)
	fn(Wood, b.Wood)
	fn(Stone, b.Stone)
	fn(Food, b.Food)
}

// Add returns the componentwise sum
func (b Bundle) Add(o Bundle) Bundle {
	return Bundle{
		Gold:  b.Gold + o.Gold,
		Wood:  b.Wood + o.Wood,
		Stone: b.Stone + o.Stone,
		Food:  b.Food + o.Food,
	}
}

// Scale multiplies every component by f
func (b Bundle) Scale(f float64) Bundle {
	return Bundle{
		Gold:  b.Gold * f,
		Wood:  b.Wood * f,
		Stone: b.Stone * f,
		Food:  b.Food * f,
	}
}

// Floor rounds every component down to a whole resource unit
func (b Bundle) Floor() Bundle {
	return Bundle{
		Gold:  floorUnit(b.Gold),
		Wood:  floorUnit(b.Wood),
		Stone: floorUnit(b.Stone),
		Food:  floorUnit(b.Food),
	}
}

// IsZero returns true if every component is zero
func (b Bundle) IsZero() bool {
	return b.Gold == 0 && b.Wood == 0 && b.Stone == 0 && b.Food == 0
}

// HasNegative returns true if any component is below zero
func (b Bundle) HasNegative() bool {
	return b.Gold < 0 || b.Wood < 0 || b.Stone < 0 || b.Food < 0
}

// Covers returns true if b has at least the quantities of cost for every resource
func (b Bundle) Covers(cost Bundle) bool {
	return b.Gold >= cost.Gold && b.Wood >= cost.Wood &&
		b.Stone >= cost.Stone && b.Food >= cost.Food
}

// Total returns the sum of all components
func (b Bundle) Total() float64 {
	return b.Gold + b.Wood + b.Stone + b.Food
}

func floorUnit(v float64) float64 {
	return math.Floor(v + roundingEpsilon)
}

// FloorInt floors a scaled value with the same tolerance used for costs
func FloorInt(v float64) int {
	return int(floorUnit(v))
}
