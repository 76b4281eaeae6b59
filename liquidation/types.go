/*
Package liquidation converts accrued part-time work into whole "jornada" units.

PURPOSE:
  Students accumulate fractional FTE-days (full-time-equivalent days) while
  working under contracts with a jornada percentage. A liquidation settles a
  date range: it adds what was accrued in the range to what was carried from
  the previous settlement, converts as many whole jornadas as possible and
  carries the remainder forward.

KEY CONCEPTS IN THIS FILE (types.go):
  - Target: The accrual horizon, which fixes the size of one jornada
  - Mode: Individual (per student) or pooled (whole cohort) accounting
  - Student, WorkRecord: The accrual source records
  - Liquidation, Line: The persisted, append-only settlement history
  - Params: A validated preview/execute request

FLOW:
  Params -> ResolvePeriod -> LedgerReader.ReadAccruals -> Calculate -> Result
  Preview returns the Result. Execute persists it as a Liquidation + Lines.

CRITICAL INVARIANTS:
  1. closing = opening + added - used, exactly (decimal arithmetic)
  2. opening for settlement N+1 = closing from settlement N (0 if absent)
  3. Settlement ranges never overlap
  4. History is append-only: lines are never updated or deleted

SEE ALSO:
  - accrual.go: Accrual Ledger Reader and the FTE-day accounting rule
  - calculator.go: Eligibility & jornada calculation
  - engine.go: Preview and Execute
*/
package liquidation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/liquidation-engine/generic"
)

// =============================================================================
// TARGET - Size of one jornada
// =============================================================================

type Target string

const (
	TargetSixMonths Target = "six_months"
	TargetOneYear   Target = "one_year"
)

const (
	SixMonthsFTEDays = 130 // 26 weeks x 5 workdays
	OneYearFTEDays   = 260 // 52 weeks x 5 workdays
)

// ParseTarget validates a wire value.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetSixMonths, TargetOneYear:
		return t, nil
	}
	return "", &generic.ValidationError{Field: "target", Value: s, Err: ErrInvalidTarget}
}

// FTEDays returns the denominator that defines one jornada.
func (t Target) FTEDays() (generic.Amount, error) {
	switch t {
	case TargetSixMonths:
		return generic.NewAmountFromInt(SixMonthsFTEDays, generic.UnitFTEDays), nil
	case TargetOneYear:
		return generic.NewAmountFromInt(OneYearFTEDays, generic.UnitFTEDays), nil
	}
	return generic.Amount{}, &generic.ValidationError{Field: "target", Value: string(t), Err: ErrInvalidTarget}
}

// =============================================================================
// MODE - Accounting scope
// =============================================================================

type Mode string

const (
	ModeIndividual Mode = "individual"
	ModePooled     Mode = "pooled"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeIndividual, ModePooled:
		return m, nil
	}
	return "", &generic.ValidationError{Field: "mode", Value: s, Err: ErrInvalidMode}
}

// =============================================================================
// ACCRUAL SOURCE RECORDS
// =============================================================================

type StudentID string

type Student struct {
	ID        StudentID
	Name      string
	Email     string
	CreatedAt time.Time
}

// WorkRecord is a contract under which a student accrues FTE-days.
// JornadaPercentage is in (0, 100]; 50 means half-time.
type WorkRecord struct {
	ID                string
	StudentID         StudentID
	CompanyName       string
	Start             generic.TimePoint
	End               *generic.TimePoint // nil = still active
	JornadaPercentage decimal.Decimal
	CreatedAt         time.Time
}

var hundred = decimal.NewFromInt(100)

// Validate checks the record before it is stored.
func (w WorkRecord) Validate() error {
	if w.StudentID == "" {
		return &generic.ValidationError{Field: "student_id", Err: ErrMissingField}
	}
	if w.Start.IsZero() {
		return &generic.ValidationError{Field: "start_date", Err: ErrMissingField}
	}
	if w.End != nil && w.End.Before(w.Start) {
		return &generic.ValidationError{Field: "end_date", Value: w.End.String(), Err: generic.ErrInvalidPeriod}
	}
	if !w.JornadaPercentage.IsPositive() || w.JornadaPercentage.GreaterThan(hundred) {
		return &generic.ValidationError{
			Field: "jornada_percentage",
			Value: w.JornadaPercentage.String(),
			Err:   ErrInvalidPercentage,
		}
	}
	return nil
}

// ActivePeriod returns the record's active range, closing open-ended records at
// horizon.
func (w WorkRecord) ActivePeriod(horizon generic.TimePoint) generic.Period {
	end := horizon
	if w.End != nil {
		end = *w.End
	}
	return generic.Period{Start: w.Start, End: end}
}

// =============================================================================
// SETTLEMENT HISTORY
// =============================================================================

// Liquidation is one committed settlement.
type Liquidation struct {
	ID               string
	Period           generic.Period
	Target           Target
	Mode             Mode
	TargetFTEDays    generic.Amount
	TotalStudents    int
	TotalJornadas    int64
	TotalFTEDaysUsed generic.Amount
	CreatedAt        time.Time
}

// Line is one student's movement within a liquidation.
type Line struct {
	LiquidationID string
	StudentID     StudentID
	Opening       generic.Amount
	Added         generic.Amount
	Used          generic.Amount
	Closing       generic.Amount
	Jornadas      int64
}

// Balanced reports whether closing = opening + added - used.
func (l Line) Balanced() bool {
	return l.Opening.Add(l.Added).Sub(l.Used).Equal(l.Closing)
}

// Details is a liquidation with its lines.
type Details struct {
	Liquidation Liquidation
	Lines       []Line
}

// StudentLine is a line seen from the student's history.
type StudentLine struct {
	Line
	Period    generic.Period
	Target    Target
	Mode      Mode
	CreatedAt time.Time
}

// =============================================================================
// PARAMS - Preview / execute request
// =============================================================================

type Params struct {
	Start  *generic.TimePoint // nil = resolve from history
	End    generic.TimePoint
	Target Target
	Mode   Mode
}

// ParseParams validates wire values. start may be empty.
func ParseParams(start, end, target, mode string) (Params, error) {
	var p Params
	if end == "" {
		return p, &generic.ValidationError{Field: "end_date", Err: ErrMissingField}
	}
	endDate, err := generic.ParseDate(end)
	if err != nil {
		return p, &generic.ValidationError{Field: "end_date", Value: end, Err: err}
	}
	p.End = endDate

	if start != "" {
		startDate, err := generic.ParseDate(start)
		if err != nil {
			return p, &generic.ValidationError{Field: "start_date", Value: start, Err: err}
		}
		if endDate.Before(startDate) {
			return p, &generic.ValidationError{Field: "end_date", Value: end, Err: generic.ErrInvalidPeriod}
		}
		p.Start = &startDate
	}

	if p.Target, err = ParseTarget(target); err != nil {
		return p, err
	}
	if p.Mode, err = ParseMode(mode); err != nil {
		return p, err
	}
	return p, nil
}

func (p Params) String() string {
	start := "auto"
	if p.Start != nil {
		start = p.Start.String()
	}
	return fmt.Sprintf("%s..%s target=%s mode=%s", start, p.End, p.Target, p.Mode)
}
