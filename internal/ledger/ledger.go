package ledger

import (
	"fmt"
	"strings"

	"github.com/napolitain/warren/internal/models"
)

// Ledger holds the player's resource balances. Balances never go negative:
// Debit either applies the whole bundle or nothing.
type Ledger struct {
	balance models.Bundle
}

// New creates a ledger seeded with the given balances. Negative seeds are
// clamped to zero.
func New(initial models.Bundle) *Ledger {
	l := &Ledger{}
	initial.Each(func(rt models.ResourceType, v float64) {
		if v > 0 {
			l.balance.Set(rt, v)
		}
	})
	return l
}

// Balance returns a copy of the current balances
func (l *Ledger) Balance() models.Bundle {
	return l.balance
}

// Get returns the balance of one resource
func (l *Ledger) Get(rt models.ResourceType) float64 {
	return l.balance.Get(rt)
}

// CanAfford reports whether every component of cost is covered
func (l *Ledger) CanAfford(cost models.Bundle) bool {
	return l.balance.Covers(cost)
}

// Credit adds the non-negative part of amount and returns what was added
func (l *Ledger) Credit(amount models.Bundle) models.Bundle {
	var added models.Bundle
	amount.Each(func(rt models.ResourceType, v float64) {
		if v <= 0 {
			return
		}
		l.balance.Set(rt, l.balance.Get(rt)+v)
		added.Set(rt, v)
	})
	return added
}

// Debit subtracts cost atomically. On shortfall nothing changes and the
// returned error wraps models.ErrInsufficientResources.
func (l *Ledger) Debit(cost models.Bundle) error {
	if cost.HasNegative() {
		return fmt.Errorf("%w: negative debit %+v", models.ErrInvalidState, cost)
	}
	if short := l.Shortfall(cost); !short.IsZero() {
		return fmt.Errorf("%w: missing %s", models.ErrInsufficientResources, FormatBundle(short))
	}
	l.balance = models.Bundle{
		Gold:  l.balance.Gold - cost.Gold,
		Wood:  l.balance.Wood - cost.Wood,
		Stone: l.balance.Stone - cost.Stone,
		Food:  l.balance.Food - cost.Food,
	}
	return nil
}

// Shortfall returns how much of each resource is missing to pay cost
func (l *Ledger) Shortfall(cost models.Bundle) models.Bundle {
	var short models.Bundle
	cost.Each(func(rt models.ResourceType, v float64) {
		if have := l.balance.Get(rt); v > have {
			short.Set(rt, v-have)
		}
	})
	return short
}

// Restore replaces the balances, used when loading a save
func (l *Ledger) Restore(b models.Bundle) {
	l.balance = New(b).balance
}

// FormatBundle renders the non-zero components as "gold=10 food=2.5"
func FormatBundle(b models.Bundle) string {
	var parts []string
	b.Each(func(rt models.ResourceType, v float64) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s=%g", rt, v))
		}
	})
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, " ")
}
