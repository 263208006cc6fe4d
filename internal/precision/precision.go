// Package precision holds per-pair decimal scales and rounds amounts toward zero.
package precision

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/internal/numeric"
	"github.com/coachpo/xvenue/internal/schema"
)

// Axis selects which scale of a Spec applies.
type Axis int

const (
	// AxisQuantity is the order amount axis.
	AxisQuantity Axis = iota
	// AxisPrice is the price axis.
	AxisPrice
)

func (a Axis) String() string {
	switch a {
	case AxisQuantity:
		return "quantity"
	case AxisPrice:
		return "price"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Spec is the number of fractional digits allowed on each axis.
type Spec struct {
	QuantityScale int
	PriceScale    int
}

// Scale returns the scale for axis.
func (s Spec) Scale(axis Axis) int {
	if axis == AxisPrice {
		return s.PriceScale
	}
	return s.QuantityScale
}

// Table maps currency pairs to scales with a fallback default. A Table is
// immutable once built and safe for concurrent use. A nil *Table leaves
// values untouched.
type Table struct {
	def   Spec
	pairs map[schema.CurrencyPair]Spec
}

// NewTable copies pairs into a new table.
func NewTable(def Spec, pairs map[schema.CurrencyPair]Spec) *Table {
	t := &Table{def: def, pairs: make(map[schema.CurrencyPair]Spec, len(pairs))}
	for pair, spec := range pairs {
		t.pairs[pair] = spec
	}
	return t
}

// Default returns the fallback spec.
func (t *Table) Default() Spec {
	if t == nil {
		return Spec{}
	}
	return t.def
}

// Spec returns the spec for pair, falling back to the default.
func (t *Table) Spec(pair schema.CurrencyPair) Spec {
	if t == nil {
		return Spec{}
	}
	if spec, ok := t.pairs[pair]; ok {
		return spec
	}
	return t.def
}

// ScaleFor returns the scale for pair on axis.
func (t *Table) ScaleFor(pair schema.CurrencyPair, axis Axis) int {
	return t.Spec(pair).Scale(axis)
}

// Round truncates value toward zero to the scale for pair on axis.
func (t *Table) Round(pair schema.CurrencyPair, axis Axis, value decimal.Decimal) decimal.Decimal {
	if t == nil {
		return value
	}
	return numeric.RoundDown(value, t.ScaleFor(pair, axis))
}

// Format renders value rounded toward zero with exactly the table scale.
func (t *Table) Format(pair schema.CurrencyPair, axis Axis, value decimal.Decimal) string {
	if t == nil {
		return value.String()
	}
	return numeric.Format(value, t.ScaleFor(pair, axis))
}

// Pairs lists the pairs with explicit entries, sorted by their string form.
func (t *Table) Pairs() []schema.CurrencyPair {
	if t == nil {
		return nil
	}
	out := make([]schema.CurrencyPair, 0, len(t.pairs))
	for pair := range t.pairs {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of explicit entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}
