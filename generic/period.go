package generic

// =============================================================================
// PERIOD - Closed range of days [Start, End]
// =============================================================================

// Period is the accounting window of a liquidation or a work record.
// Both ends are inclusive.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end TimePoint) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Intersect returns the shared days of two periods. ok is false when they
// do not overlap.
func (p Period) Intersect(other Period) (Period, bool) {
	if !p.Overlaps(other) {
		return Period{}, false
	}
	return Period{
		Start: MaxTimePoint(p.Start, other.Start),
		End:   MinTimePoint(p.End, other.End),
	}, true
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Workdays counts Monday to Friday days in the period.
func (p Period) Workdays() int {
	total := p.Days()
	if total == 0 {
		return 0
	}
	weeks := total / 7
	count := weeks * 5
	current := p.Start.AddDays(weeks * 7)
	for current.BeforeOrEqual(p.End) {
		if current.IsWorkday() {
			count++
		}
		current = current.AddDays(1)
	}
	return count
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
