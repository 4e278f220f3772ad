package models

import "strings"

// NodeID identifies a research node
type NodeID string

// Metric is a target that research effects multiply
type Metric string

const (
	MetricAttack        Metric = "attack"
	MetricDefense       Metric = "defense"
	MetricHP            Metric = "hp"
	MetricTrainingSpeed Metric = "training_speed"
	MetricHeroXP        Metric = "hero_xp"

	productionPrefix = "production:"
)

// ProductionMetric returns the metric multiplying output of a resource
func ProductionMetric(rt ResourceType) Metric {
	return Metric(productionPrefix + string(rt))
}

// Valid reports whether the metric names a known target
func (m Metric) Valid() bool {
	switch m {
	case MetricAttack, MetricDefense, MetricHP, MetricTrainingSpeed, MetricHeroXP:
		return true
	}
	if rest, ok := strings.CutPrefix(string(m), productionPrefix); ok {
		_, known := ParseResourceType(rest)
		return known
	}
	return false
}

// ResearchDef is a node of the research tree
type ResearchDef struct {
	ID              NodeID
	Name            string
	Category        string
	Cost            Bundle
	DurationSeconds float64
	Effects         map[Metric]float64 // multiplicative
	Requires        []NodeID

	// Optional building gate, e.g. academy level 2
	RequiresBuilding BuildingID
	RequiresLevel    int
}
