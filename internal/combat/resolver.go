package combat

import (
	"math"
	"sort"

	"github.com/napolitain/warren/internal/models"
)

// MaxRounds bounds a battle; running out of rounds is a defeat for the attacker
const MaxRounds = 12

// DefenseConstant sets how quickly defense saturates
const DefenseConstant = 100.0

// LeadershipDivisor converts total hero leadership into a troop attack bonus
const LeadershipDivisor = 200.0

// Damage is the per-unit damage of attack against defense. Never below 1.
func Damage(attack, defense float64) int {
	if defense < 0 {
		defense = 0
	}
	mitigated := attack * (defense / (defense + DefenseConstant))
	return max(1, int(math.Floor(attack-mitigated)))
}

// Modifiers supplies attack, defense and hp multipliers
type Modifiers interface {
	Multiplier(m models.Metric) float64
}

// Group is a stack of identical combatants
type Group struct {
	Troop   models.TroopID `json:"troop,omitempty"`
	Hero    models.HeroID  `json:"hero,omitempty"`
	Count   int            `json:"count"`
	Attack  float64        `json:"attack"`
	Defense float64        `json:"defense"`
	HP      float64        `json:"hp"`
}

// Force is one side of a battle
type Force struct {
	Groups []Group `json:"groups"`
}

// HeroUnit is a hero joining a force
type HeroUnit struct {
	ID    models.HeroID
	Stats models.HeroStats
}

// BuildForce assembles a side from troop counts and heroes. Troop stats get
// the research multipliers and a leadership bonus of total/200 on attack.
// Heroes join as single units with their own stats. mods may be nil.
func BuildForce(cat *models.Catalog, army map[models.TroopID]int, heroes []HeroUnit, mods Modifiers) Force {
	atkMul, defMul, hpMul := 1.0, 1.0, 1.0
	if mods != nil {
		atkMul = mods.Multiplier(models.MetricAttack)
		defMul = mods.Multiplier(models.MetricDefense)
		hpMul = mods.Multiplier(models.MetricHP)
	}
	leadership := 0.0
	for _, h := range heroes {
		leadership += h.Stats.Leadership
	}
	atkMul *= 1 + leadership/LeadershipDivisor

	ids := make([]models.TroopID, 0, len(army))
	for id := range army {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var f Force
	for _, id := range ids {
		def, ok := cat.Troops[id]
		if !ok || army[id] <= 0 {
			continue
		}
		f.Groups = append(f.Groups, Group{
			Troop:   id,
			Count:   army[id],
			Attack:  def.Stats.Attack * atkMul,
			Defense: def.Stats.Defense * defMul,
			HP:      def.Stats.HP * hpMul,
		})
	}
	for _, h := range heroes {
		f.Groups = append(f.Groups, Group{
			Hero:    h.ID,
			Count:   1,
			Attack:  h.Stats.Attack,
			Defense: h.Stats.Defense,
			HP:      h.Stats.HP,
		})
	}
	return f
}

// TotalHP returns the summed hit points of the force
func (f Force) TotalHP() float64 {
	total := 0.0
	for _, g := range f.Groups {
		total += float64(g.Count) * g.HP
	}
	return total
}

// MeanDefense returns the count-weighted mean defense
func (f Force) MeanDefense() float64 {
	units, sum := 0, 0.0
	for _, g := range f.Groups {
		units += g.Count
		sum += float64(g.Count) * g.Defense
	}
	if units == 0 {
		return 0
	}
	return sum / float64(units)
}

// Strike returns the full-strength damage of the force against a defense
func (f Force) Strike(defense float64) float64 {
	total := 0.0
	for _, g := range f.Groups {
		total += float64(g.Count * Damage(g.Attack, defense))
	}
	return total
}

// Round is one entry of the battle log
type Round struct {
	Number         int     `json:"number"`
	AttackerDamage float64 `json:"attacker_damage"`
	DefenderDamage float64 `json:"defender_damage"`
	AttackerHP     float64 `json:"attacker_hp"`
	DefenderHP     float64 `json:"defender_hp"`
}

// Outcome is the result of a battle
type Outcome struct {
	ID             string                 `json:"id"` // set by Campaign.Fight
	Stage          models.StageID         `json:"stage,omitempty"`
	Victory        bool                   `json:"victory"`
	FirstClear     bool                   `json:"first_clear,omitempty"`
	Rounds         []Round                `json:"rounds"`
	AttackerLosses map[models.TroopID]int `json:"attacker_losses"`
	DefenderLosses map[models.TroopID]int `json:"defender_losses"`
}

// Resolve runs a deterministic battle: both sides strike simultaneously
// each round with damage scaled by their surviving hp fraction. The attacker
// wins only by destroying the defender while still standing.
func Resolve(attacker, defender Force) Outcome {
	out := Outcome{
		AttackerLosses: make(map[models.TroopID]int),
		DefenderLosses: make(map[models.TroopID]int),
	}

	atkTotal, defTotal := attacker.TotalHP(), defender.TotalHP()
	atkHP, defHP := atkTotal, defTotal
	atkStrike := attacker.Strike(defender.MeanDefense())
	defStrike := defender.Strike(attacker.MeanDefense())

	for round := 1; round <= MaxRounds && atkHP > 0 && defHP > 0; round++ {
		dealt := atkStrike * atkHP / atkTotal
		taken := defStrike * defHP / defTotal
		atkHP = math.Max(atkHP-taken, 0)
		defHP = math.Max(defHP-dealt, 0)
		out.Rounds = append(out.Rounds, Round{
			Number:         round,
			AttackerDamage: dealt,
			DefenderDamage: taken,
			AttackerHP:     atkHP,
			DefenderHP:     defHP,
		})
	}

	out.Victory = defHP <= 0 && atkHP > 0
	out.AttackerLosses = losses(attacker, atkHP, atkTotal)
	out.DefenderLosses = losses(defender, defHP, defTotal)
	return out
}

// losses are floor(count * fraction of hp lost) per troop group
func losses(f Force, remaining, total float64) map[models.TroopID]int {
	lost := 1.0
	if total > 0 {
		lost = 1 - remaining/total
	}
	out := make(map[models.TroopID]int)
	for _, g := range f.Groups {
		if g.Troop == "" {
			continue
		}
		if n := models.FloorInt(float64(g.Count) * lost); n > 0 {
			out[g.Troop] += min(n, g.Count)
		}
	}
	return out
}
