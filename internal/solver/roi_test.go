package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/napolitain/warren/internal/models"
)

func noMult(models.ResourceType) float64 { return 1 }

func TestROIMetric_Calculate(t *testing.T) {
	tests := []struct {
		name   string
		metric ROIMetric
		want   float64
	}{
		{"plain", ROIMetric{GainPerSecond: 2, TotalCost: 100}, 0.02},
		{"scarce", ROIMetric{GainPerSecond: 2, TotalCost: 100, ScarcityBonus: 0.5}, 0.03},
		{"free", ROIMetric{GainPerSecond: 2}, 2000},
		{"no gain", ROIMetric{TotalCost: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.metric.Calculate(), 1e-12)
		})
	}
}

func TestScarcity(t *testing.T) {
	w := scarcity(models.Bundle{Gold: 300, Stone: 100}, 2)
	assert.InDelta(t, 2.5, w[models.Gold], 1e-12)
	assert.InDelta(t, 1.5, w[models.Stone], 1e-12)
	assert.Equal(t, 1.0, w[models.Wood])

	flat := scarcity(models.Bundle{}, 2)
	for _, rt := range models.AllResourceTypes() {
		assert.Equal(t, 1.0, flat[rt])
	}
}

// Same gain at a higher cost must rank lower
func TestBuildingMetric_UsesCost(t *testing.T) {
	cheap := &models.BuildingDef{MaxLevel: 5, BaseCost: models.Bundle{Gold: 100}, ScaleFactor: 1.5,
		BaseProduction: models.Bundle{Food: 2}, ProductionScale: 1.2}
	dear := &models.BuildingDef{MaxLevel: 5, BaseCost: models.Bundle{Gold: 400}, ScaleFactor: 1.5,
		BaseProduction: models.Bundle{Food: 2}, ProductionScale: 1.2}
	weights := scarcity(models.Bundle{}, 0)

	a := buildingMetric(cheap, 0, noMult, weights).Calculate()
	b := buildingMetric(dear, 0, noMult, weights).Calculate()
	assert.Positive(t, a)
	assert.Greater(t, a, b)
}

func TestBuildingMetric_ScarcityFavoursNeededResource(t *testing.T) {
	farm := &models.BuildingDef{MaxLevel: 5, BaseCost: models.Bundle{Gold: 100}, ScaleFactor: 1.5,
		BaseProduction: models.Bundle{Food: 2}, ProductionScale: 1.2}
	quarry := &models.BuildingDef{MaxLevel: 5, BaseCost: models.Bundle{Gold: 100}, ScaleFactor: 1.5,
		BaseProduction: models.Bundle{Stone: 2}, ProductionScale: 1.2}
	weights := scarcity(models.Bundle{Stone: 1000}, 1)

	assert.Greater(t,
		buildingMetric(quarry, 0, noMult, weights).Calculate(),
		buildingMetric(farm, 0, noMult, weights).Calculate())
}

func TestBuildingMetric_NonProducer(t *testing.T) {
	barracks := &models.BuildingDef{MaxLevel: 5, BaseCost: models.Bundle{Gold: 100}, ScaleFactor: 1.5}
	assert.Equal(t, 0.0, buildingMetric(barracks, 0, noMult, scarcity(models.Bundle{}, 1)).Calculate())
}

func TestResearchMetric(t *testing.T) {
	def := &models.ResearchDef{
		Cost:    models.Bundle{Gold: 100},
		Effects: map[models.Metric]float64{models.ProductionMetric(models.Food): 1.5, models.MetricAttack: 2},
	}
	m := researchMetric(def, models.Bundle{Food: 4, Gold: 10})
	assert.InDelta(t, 2.0, m.GainPerSecond, 1e-12)
	assert.InDelta(t, 0.02, m.Calculate(), 1e-12)
}

func TestTimeToAfford(t *testing.T) {
	assert.Equal(t, 0.0, timeToAfford(models.Bundle{Gold: 100}, models.Bundle{Gold: 50}, models.Bundle{}))
	assert.Equal(t, 10.0, timeToAfford(models.Bundle{Gold: 50}, models.Bundle{Gold: 100}, models.Bundle{Gold: 5}))
	assert.Equal(t, 20.0, timeToAfford(models.Bundle{}, models.Bundle{Gold: 10, Wood: 40}, models.Bundle{Gold: 1, Wood: 2}))
	assert.True(t, math.IsInf(timeToAfford(models.Bundle{}, models.Bundle{Wood: 1}, models.Bundle{Gold: 1}), 1))
}
