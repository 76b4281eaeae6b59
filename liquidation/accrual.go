/*
accrual.go - Accrual Ledger Reader

PURPOSE:
  Given a date range and a student set, computes each student's opening
  balance (carried from prior settlements) and newly accrued FTE-days.

START DATE RESOLUTION:
  - Explicit start: must be after the latest committed end date, else the
    request is rejected with OverlapError (strict non-overlap).
  - Omitted start: the day after the latest committed end date (global, not
    per student), looked up fresh on every call.
  - No settlement yet: the earliest work record start, clamped to end_date.
    Without any record, the range collapses to end_date.

ACCOUNTING:
  How a work record turns into FTE-days is pluggable (Accounting). The default
  counts Monday to Friday days of the record inside the range, weighted by
  the jornada percentage:

    added = workdays(record ∩ range) × percentage / 100

  130 FTE-days = 26 weeks of full-time work, 260 = 52 weeks.

FAILURES:
  Any read error surfaces as ErrDataUnavailable. Nothing is written here.
*/
package liquidation

import (
	"context"
	"sort"

	"github.com/warp/liquidation-engine/generic"
)

// =============================================================================
// ACCOUNTING - FTE-day accrual rule
// =============================================================================

// Accounting converts a work record into FTE-days accrued within a period.
// Implementations must return a non-negative amount.
type Accounting interface {
	AddedDays(record WorkRecord, period generic.Period) generic.Amount
}

// WorkdayAccounting credits percentage/100 FTE-days per weekday worked.
type WorkdayAccounting struct{}

func (WorkdayAccounting) AddedDays(record WorkRecord, period generic.Period) generic.Amount {
	active, ok := record.ActivePeriod(period.End).Intersect(period)
	if !ok {
		return generic.ZeroFTEDays()
	}
	workdays := generic.NewAmountFromInt(active.Workdays(), generic.UnitFTEDays)
	return workdays.Mul(record.JornadaPercentage.Shift(-2))
}

// =============================================================================
// BALANCE - Per-student input of the calculator
// =============================================================================

type Balance struct {
	StudentID StudentID
	Opening   generic.Amount
	Added     generic.Amount
}

func (b Balance) Available() generic.Amount {
	return b.Opening.Add(b.Added)
}

// =============================================================================
// LEDGER READER
// =============================================================================

// LedgerReader reads opening balances and accruals from a Reader.
type LedgerReader struct {
	Reader     Reader
	Accounting Accounting
}

func NewLedgerReader(r Reader, accounting Accounting) *LedgerReader {
	if accounting == nil {
		accounting = WorkdayAccounting{}
	}
	return &LedgerReader{Reader: r, Accounting: accounting}
}

// ResolvePeriod determines the effective accounted range for params.
func (lr *LedgerReader) ResolvePeriod(ctx context.Context, params Params) (generic.Period, error) {
	latest, err := lr.Reader.LatestLiquidation(ctx)
	if err != nil {
		return generic.Period{}, dataUnavailable("latest liquidation", err)
	}

	var start generic.TimePoint
	switch {
	case params.Start != nil:
		start = *params.Start
	case latest != nil:
		start = latest.Period.End.AddDays(1)
	default:
		earliest, err := lr.Reader.EarliestWorkStart(ctx)
		if err != nil {
			return generic.Period{}, dataUnavailable("earliest work record", err)
		}
		start = params.End
		if earliest != nil {
			start = generic.MinTimePoint(*earliest, params.End)
		}
	}

	requested := generic.Period{Start: start, End: params.End}
	if latest != nil && !start.After(latest.Period.End) {
		return generic.Period{}, &OverlapError{Requested: requested, LatestEnd: latest.Period.End}
	}
	if latest != nil && !params.End.After(latest.Period.End) {
		return generic.Period{}, &OverlapError{Requested: requested, LatestEnd: latest.Period.End}
	}
	if err := requested.Validate(); err != nil {
		return generic.Period{}, &generic.ValidationError{Field: "end_date", Value: params.End.String(), Err: err}
	}
	return requested, nil
}

// StudentSet returns every student that can take part in a settlement: all
// registered students plus anyone still holding a carried balance.
func (lr *LedgerReader) StudentSet(ctx context.Context) ([]StudentID, error) {
	students, err := lr.Reader.ListStudents(ctx)
	if err != nil {
		return nil, dataUnavailable("students", err)
	}
	closing, err := lr.Reader.ClosingBalances(ctx)
	if err != nil {
		return nil, dataUnavailable("closing balances", err)
	}

	seen := make(map[StudentID]bool, len(students)+len(closing))
	var ids []StudentID
	for _, s := range students {
		if !seen[s.ID] {
			seen[s.ID] = true
			ids = append(ids, s.ID)
		}
	}
	for id := range closing {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ReadAccruals returns opening and added FTE-days for each student in the set,
// in student ID order.
func (lr *LedgerReader) ReadAccruals(ctx context.Context, students []StudentID, period generic.Period) ([]Balance, error) {
	closing, err := lr.Reader.ClosingBalances(ctx)
	if err != nil {
		return nil, dataUnavailable("closing balances", err)
	}
	records, err := lr.Reader.WorkRecordsInPeriod(ctx, period)
	if err != nil {
		return nil, dataUnavailable("work records", err)
	}

	added := make(map[StudentID]generic.Amount)
	for _, rec := range records {
		days := lr.Accounting.AddedDays(rec, period)
		if days.IsNegative() {
			days = days.Zero()
		}
		if prev, ok := added[rec.StudentID]; ok {
			added[rec.StudentID] = prev.Add(days)
		} else {
			added[rec.StudentID] = days
		}
	}

	balances := make([]Balance, 0, len(students))
	for _, id := range students {
		b := Balance{StudentID: id, Opening: generic.ZeroFTEDays(), Added: generic.ZeroFTEDays()}
		if c, ok := closing[id]; ok {
			b.Opening = c
		}
		if a, ok := added[id]; ok {
			b.Added = a
		}
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].StudentID < balances[j].StudentID })
	return balances, nil
}
