package solver

import (
	"github.com/napolitain/warren/internal/models"
)

// ROIMetric represents the components of an ROI calculation
type ROIMetric struct {
	GainPerSecond float64
	TotalCost     float64
	ScarcityBonus float64 // 0.0 = no adjustment, 0.5 = +50% ROI
}

// Calculate computes the final ROI value
func (m ROIMetric) Calculate() float64 {
	if m.TotalCost <= 0 {
		return m.GainPerSecond * 1000 // very high ROI if free
	}
	return m.GainPerSecond / m.TotalCost * (1.0 + m.ScarcityBonus)
}

// scarcity weighs each resource by its share of the cost still ahead:
// 1 + weight * share. Resources nothing needs keep weight 1.
func scarcity(remaining models.Bundle, weight float64) map[models.ResourceType]float64 {
	out := make(map[models.ResourceType]float64, len(models.AllResourceTypes()))
	total := remaining.Total()
	remaining.Each(func(rt models.ResourceType, v float64) {
		out[rt] = 1
		if total > 0 {
			out[rt] += weight * v / total
		}
	})
	return out
}

// buildingMetric computes the ROI of the next level of a building. gain is
// the production delta weighted by scarcity; non-producers gain nothing.
func buildingMetric(def *models.BuildingDef, level int, mult func(models.ResourceType) float64, weights map[models.ResourceType]float64) ROIMetric {
	cost := def.CostAt(level)
	before := def.ProductionAt(level)
	after := def.ProductionAt(level + 1)

	var gain, plain float64
	for _, rt := range models.AllResourceTypes() {
		delta := (after.Get(rt) - before.Get(rt)) * mult(rt)
		plain += delta
		gain += delta * weights[rt]
	}
	if def.Gate != nil {
		// only paid while the player keeps clicking
		gain /= 2
		plain /= 2
	}

	bonus := 0.0
	if plain > 0 {
		bonus = gain/plain - 1
	}
	return ROIMetric{GainPerSecond: plain, TotalCost: cost.Total(), ScarcityBonus: bonus}
}

// researchMetric computes the ROI of a production research node against the
// current total production
func researchMetric(def *models.ResearchDef, production models.Bundle) ROIMetric {
	var gain float64
	for _, rt := range models.AllResourceTypes() {
		if f, ok := def.Effects[models.ProductionMetric(rt)]; ok {
			gain += production.Get(rt) * (f - 1)
		}
	}
	return ROIMetric{GainPerSecond: gain, TotalCost: def.Cost.Total()}
}
