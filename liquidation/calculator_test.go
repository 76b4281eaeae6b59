package liquidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/liquidation-engine/generic"
)

func fte(v float64) generic.Amount { return generic.FTEDays(v) }

func sixMonths() generic.Amount { return generic.NewAmountFromInt(SixMonthsFTEDays, generic.UnitFTEDays) }
func oneYear() generic.Amount   { return generic.NewAmountFromInt(OneYearFTEDays, generic.UnitFTEDays) }

func assertAmount(t *testing.T, want float64, got generic.Amount) {
	t.Helper()
	assert.True(t, got.Equal(fte(want)), "want %v, got %s", want, got)
}

func TestCalculate_IndividualOneJornada(t *testing.T) {
	// GIVEN: One student with 145 FTE-days accrued and nothing carried
	balances := []Balance{{StudentID: "A", Opening: fte(0), Added: fte(145)}}

	// WHEN: Settling against six_months (130)
	calc := Calculate(balances, sixMonths(), ModeIndividual)

	// THEN: One jornada, 15 carried
	require.Len(t, calc.Students, 1)
	s := calc.Students[0]
	assert.True(t, s.Eligible)
	assert.Equal(t, int64(1), s.JornadasPossible)
	assertAmount(t, 130, s.Used)
	assertAmount(t, 15, s.Closing)
	assert.Equal(t, int64(1), calc.TotalJornadas)
	assertAmount(t, 15, calc.TotalRemainder)
}

func TestCalculate_IndividualOneYearTargetNotReached(t *testing.T) {
	// GIVEN: The same 145 FTE-days
	balances := []Balance{{StudentID: "A", Opening: fte(0), Added: fte(145)}}

	// WHEN: Settling against one_year (260)
	calc := Calculate(balances, oneYear(), ModeIndividual)

	// THEN: Ineligible, everything carried
	require.Len(t, calc.Students, 1)
	s := calc.Students[0]
	assert.False(t, s.Eligible)
	assert.Equal(t, int64(0), s.JornadasPossible)
	assertAmount(t, 0, s.Used)
	assertAmount(t, 145, s.Closing)
	assert.Equal(t, int64(0), calc.TotalJornadas)
}

func TestCalculate_PooledAllocationByStudentID(t *testing.T) {
	// GIVEN: B listed before A to prove ordering is by ID, not input order
	balances := []Balance{
		{StudentID: "B", Opening: fte(0), Added: fte(65)},
		{StudentID: "A", Opening: fte(0), Added: fte(70)},
	}

	// WHEN: Pooling against 130
	calc := Calculate(balances, sixMonths(), ModePooled)

	// THEN: One jornada; A absorbs 70, B absorbs the remaining 60
	assertAmount(t, 135, calc.TotalAvailable)
	assert.Equal(t, int64(1), calc.TotalJornadas)
	assertAmount(t, 130, calc.TotalUsed)

	require.Len(t, calc.Students, 2)
	a, b := calc.Students[0], calc.Students[1]
	assert.Equal(t, StudentID("A"), a.StudentID)
	assertAmount(t, 70, a.Used)
	assertAmount(t, 0, a.Closing)
	assert.Equal(t, StudentID("B"), b.StudentID)
	assertAmount(t, 60, b.Used)
	assertAmount(t, 5, b.Closing)

	// The jornada is attributed to B, whose contribution completes it
	assert.Equal(t, int64(0), a.JornadasPossible)
	assert.Equal(t, int64(1), b.JornadasPossible)
}

func TestCalculate_PooledLaterStudentKeepsLargeBalance(t *testing.T) {
	// GIVEN: A can cover the whole allocation alone
	balances := []Balance{
		{StudentID: "A", Opening: fte(0), Added: fte(200)},
		{StudentID: "B", Opening: fte(0), Added: fte(150)},
	}

	// WHEN
	calc := Calculate(balances, sixMonths(), ModePooled)

	// THEN: floor(350/130) = 2 jornadas = 260 used; A gives 200, B gives 60
	assert.Equal(t, int64(2), calc.TotalJornadas)
	assertAmount(t, 200, calc.Students[0].Used)
	assertAmount(t, 60, calc.Students[1].Used)
	// B keeps 90, which is the whole pool remainder
	assertAmount(t, 90, calc.Students[1].Closing)
	assert.Equal(t, int64(1), calc.Students[0].JornadasPossible)
	assert.Equal(t, int64(1), calc.Students[1].JornadasPossible)
}

func TestCalculate_PooledOneStudentCompletesSeveralJornadas(t *testing.T) {
	// GIVEN: B holds most of the pool
	balances := []Balance{
		{StudentID: "A", Opening: fte(0), Added: fte(100)},
		{StudentID: "B", Opening: fte(120), Added: fte(180)},
	}

	// WHEN
	calc := Calculate(balances, sixMonths(), ModePooled)

	// THEN: floor(400/130) = 3; A gives 100, B gives 290 and completes all three
	assert.Equal(t, int64(3), calc.TotalJornadas)
	a, b := calc.Students[0], calc.Students[1]
	assertAmount(t, 100, a.Used)
	assertAmount(t, 0, a.Closing)
	assertAmount(t, 290, b.Used)
	assertAmount(t, 10, b.Closing)
	assert.Equal(t, int64(0), a.JornadasPossible)
	assert.Equal(t, int64(3), b.JornadasPossible)
	assert.True(t, a.Eligible)
}

func TestCalculate_PooledLastStudentKeepsPoolRemainder(t *testing.T) {
	// GIVEN: Three students whose pool covers three jornadas
	balances := []Balance{
		{StudentID: "C", Opening: fte(0), Added: fte(200)},
		{StudentID: "A", Opening: fte(0), Added: fte(130)},
		{StudentID: "B", Opening: fte(0), Added: fte(129)},
	}

	// WHEN
	calc := Calculate(balances, sixMonths(), ModePooled)

	// THEN: 459 → 3 jornadas, 390 used; A and B are drained, C gives 131 and keeps 69
	assert.Equal(t, int64(3), calc.TotalJornadas)
	require.Len(t, calc.Students, 3)
	assertAmount(t, 130, calc.Students[0].Used)
	assertAmount(t, 129, calc.Students[1].Used)
	assertAmount(t, 131, calc.Students[2].Used)
	assertAmount(t, 69, calc.Students[2].Closing)
	assert.Equal(t, []int64{1, 0, 2}, []int64{
		calc.Students[0].JornadasPossible,
		calc.Students[1].JornadasPossible,
		calc.Students[2].JornadasPossible,
	})
}

func TestCalculate_PooledClosingsNeverReachTarget(t *testing.T) {
	// Students are drained in order until the allocation runs out, so the
	// closings add up to the pool remainder, which is below one jornada.
	bal := func(id string, opening, added float64) Balance {
		return Balance{StudentID: StudentID(id), Opening: fte(opening), Added: fte(added)}
	}
	cohorts := [][]Balance{
		{bal("A", 0, 260), bal("B", 0, 10), bal("C", 0, 200)},
		{bal("A", 0, 129.5), bal("B", 0, 1000), bal("C", 0, 129.5)},
		{bal("A", 0, 5), bal("B", 125, 0)},
	}
	for i, balances := range cohorts {
		calc := Calculate(balances, sixMonths(), ModePooled)

		closings := generic.ZeroFTEDays()
		for _, s := range calc.Students {
			assert.True(t, s.Closing.LessThan(sixMonths()), "cohort %d student %s closes at %s", i, s.StudentID, s.Closing)
			closings = closings.Add(s.Closing)
		}
		assert.True(t, closings.Equal(calc.TotalRemainder), "cohort %d", i)
	}
}

func TestCalculate_PooledNothingReachable(t *testing.T) {
	balances := []Balance{
		{StudentID: "A", Opening: fte(0), Added: fte(40)},
		{StudentID: "B", Opening: fte(0), Added: fte(50)},
	}

	calc := Calculate(balances, sixMonths(), ModePooled)

	assert.Equal(t, int64(0), calc.TotalJornadas)
	assert.True(t, calc.TotalUsed.IsZero())
	for _, s := range calc.Students {
		assert.False(t, s.Eligible)
		assert.True(t, s.Closing.Equal(s.Available))
	}
}

func TestCalculate_SkipsStudentsWithNothingAvailable(t *testing.T) {
	balances := []Balance{
		{StudentID: "A", Opening: fte(0), Added: fte(0)},
		{StudentID: "B", Opening: fte(3), Added: fte(0)},
	}

	calc := Calculate(balances, sixMonths(), ModeIndividual)

	require.Len(t, calc.Students, 1)
	assert.Equal(t, StudentID("B"), calc.Students[0].StudentID)
}

func TestCalculate_Invariants(t *testing.T) {
	balances := []Balance{
		{StudentID: "s01", Opening: fte(12.5), Added: fte(101.25)},
		{StudentID: "s02", Opening: fte(129.99), Added: fte(0.01)},
		{StudentID: "s03", Opening: fte(0), Added: fte(391.6)},
		{StudentID: "s04", Opening: fte(77), Added: fte(0)},
		{StudentID: "s05", Opening: fte(0), Added: fte(259.999)},
		{StudentID: "s06", Opening: fte(64.1), Added: fte(64.1)},
	}

	for _, mode := range []Mode{ModeIndividual, ModePooled} {
		for _, target := range []generic.Amount{sixMonths(), oneYear()} {
			t.Run(string(mode)+"/"+target.String(), func(t *testing.T) {
				calc := Calculate(balances, target, mode)

				sumUsed := generic.ZeroFTEDays()
				var sumJornadas int64
				for _, s := range calc.Students {
					// Conservation, exactly
					assert.True(t, s.Opening.Add(s.Added).Sub(s.Used).Equal(s.Closing), "conservation for %s", s.StudentID)
					assert.False(t, s.Closing.IsNegative())
					assert.False(t, s.Used.GreaterThan(s.Available))
					sumUsed = sumUsed.Add(s.Used)
					sumJornadas += s.JornadasPossible

					if mode == ModeIndividual {
						q, _ := s.Available.FloorDiv(target)
						assert.True(t, s.Used.Equal(target.Times(q)), "floor for %s", s.StudentID)
						assert.True(t, s.Closing.LessThan(target))
					}
				}

				assert.True(t, sumUsed.Equal(calc.TotalUsed))
				assert.True(t, calc.TotalUsed.Equal(target.Times(calc.TotalJornadas)))
				assert.Equal(t, calc.TotalJornadas, sumJornadas)
				assert.False(t, calc.TotalRemainder.IsNegative())

				if mode == ModePooled {
					q, _ := calc.TotalAvailable.FloorDiv(target)
					assert.Equal(t, q, calc.TotalJornadas)
					assert.True(t, calc.TotalRemainder.LessThan(target))
				}
			})
		}
	}
}

func TestCalculate_FloorNeverRoundsUp(t *testing.T) {
	// 129.99 + 0.009 = 129.999 stays below one jornada
	balances := []Balance{{StudentID: "A", Opening: fte(129.99), Added: fte(0.009)}}

	calc := Calculate(balances, sixMonths(), ModeIndividual)

	assert.Equal(t, int64(0), calc.TotalJornadas)
	assertAmount(t, 129.999, calc.Students[0].Closing)
}
