/*
Package generic provides the domain-agnostic primitives of the liquidation engine.

PURPOSE:
  Quantities, days, periods and error types that the liquidation package builds
  on. Nothing in here knows about students, jornadas or settlement modes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of FTE-days (full-time-equivalent work days)
  - Floor division: whole units contained in an amount, plus the remainder

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so balances never drift across settlements
  2. Floor semantics: Under-accrual never yields a whole unit
  3. Value types: Amounts are immutable, every operation returns a new one

USAGE:
  available := generic.NewAmount(145, generic.UnitFTEDays)
  units, rest := available.FloorDiv(generic.NewAmountFromInt(130, generic.UnitFTEDays))
  // units = 1, rest = 15 FTE-days

SEE ALSO:
  - time.go: Day-granular time points
  - period.go: Closed date ranges
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitFTEDays Unit = "fte_days"
	UnitDays    Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// NewAmountFromString parses a decimal string. Used by stores that persist
// amounts as TEXT to keep full precision.
func NewAmountFromString(s string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: unit}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FTEDays is shorthand for an FTE-day amount.
func FTEDays(value float64) Amount { return NewAmount(value, UnitFTEDays) }

// ZeroFTEDays is the empty FTE-day balance.
func ZeroFTEDays() Amount { return Amount{Value: decimal.Zero, Unit: UnitFTEDays} }

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }
func (a Amount) String() string               { return a.Value.String() }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// FloorDiv returns how many whole units of size unit fit in a, and what is left.
// The quotient is exact: QuoRem at precision 0 never rounds up, so 129.9999
// divided by 130 is 0, not 1. Negative amounts and non-positive units yield 0.
func (a Amount) FloorDiv(unit Amount) (int64, Amount) {
	if !unit.IsPositive() || !a.IsPositive() {
		return 0, a
	}
	q, r := a.Value.QuoRem(unit.Value, 0)
	return q.IntPart(), Amount{Value: r, Unit: a.Unit}
}

// Times returns n copies of a.
func (a Amount) Times(n int64) Amount {
	return Amount{Value: a.Value.Mul(decimal.NewFromInt(n)), Unit: a.Unit}
}

// Sum adds amounts. An empty list sums to zero FTE-days.
func Sum(amounts ...Amount) Amount {
	total := ZeroFTEDays()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
