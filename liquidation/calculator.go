/*
calculator.go - Eligibility & Jornada Calculator

PURPOSE:
  Pure function from balances to a settlement result. Never touches a store.

INDIVIDUAL MODE:
  Each student on their own:
    jornadas = floor(available / target)
    used     = jornadas × target
    closing  = available - used          (always < target)
  eligible = jornadas >= 1

POOLED MODE:
  The cohort shares one pool:
    total_jornadas = floor(Σ available / target)
    total_used     = total_jornadas × target
  total_used is allocated back to students in ascending student ID order.
  Each student gives min(available, still_to_allocate). Earlier IDs absorb the
  allocation first, so a later student may keep a closing balance above one
  jornada. Pooled mode optimizes for whole jornadas across the cohort, not for
  per-student fairness.

  Each jornada is attributed to the student whose contribution completes it:
    jornadas_i = floor(cum_used_i / target) - floor(cum_used_{i-1} / target)
  so Σ jornadas_i == total_jornadas.

PARTICIPATION:
  Only students with available > 0 appear in the result. A student with a
  carried balance always participates, which keeps the carry-forward trail
  continuous.

ROUNDING:
  Floor only, via exact decimal QuoRem. No rounding to nearest.
*/
package liquidation

import (
	"sort"

	"github.com/warp/liquidation-engine/generic"
)

// StudentResult is one student's computed movement.
type StudentResult struct {
	StudentID        StudentID
	Opening          generic.Amount
	Added            generic.Amount
	Available        generic.Amount
	Eligible         bool
	JornadasPossible int64
	Used             generic.Amount
	Closing          generic.Amount
}

// Calculation is the output of Calculate.
type Calculation struct {
	Mode           Mode
	TargetFTEDays  generic.Amount
	Students       []StudentResult
	TotalAvailable generic.Amount
	TotalJornadas  int64
	TotalUsed      generic.Amount
	TotalRemainder generic.Amount
}

// Calculate computes jornadas for balances. Input order does not matter: the
// result is always ordered by student ID.
func Calculate(balances []Balance, target generic.Amount, mode Mode) Calculation {
	sorted := make([]Balance, 0, len(balances))
	for _, b := range balances {
		if b.Available().IsPositive() {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StudentID < sorted[j].StudentID })

	calc := Calculation{
		Mode:           mode,
		TargetFTEDays:  target,
		Students:       make([]StudentResult, 0, len(sorted)),
		TotalAvailable: generic.ZeroFTEDays(),
		TotalUsed:      generic.ZeroFTEDays(),
	}
	for _, b := range sorted {
		calc.TotalAvailable = calc.TotalAvailable.Add(b.Available())
	}

	if mode == ModePooled {
		calculatePooled(&calc, sorted)
	} else {
		calculateIndividual(&calc, sorted)
	}

	calc.TotalRemainder = calc.TotalAvailable.Sub(calc.TotalUsed)
	return calc
}

func calculateIndividual(calc *Calculation, balances []Balance) {
	for _, b := range balances {
		available := b.Available()
		jornadas, _ := available.FloorDiv(calc.TargetFTEDays)
		used := calc.TargetFTEDays.Times(jornadas)

		calc.Students = append(calc.Students, StudentResult{
			StudentID:        b.StudentID,
			Opening:          b.Opening,
			Added:            b.Added,
			Available:        available,
			Eligible:         jornadas >= 1,
			JornadasPossible: jornadas,
			Used:             used,
			Closing:          available.Sub(used),
		})
		calc.TotalJornadas += jornadas
		calc.TotalUsed = calc.TotalUsed.Add(used)
	}
}

func calculatePooled(calc *Calculation, balances []Balance) {
	calc.TotalJornadas, _ = calc.TotalAvailable.FloorDiv(calc.TargetFTEDays)
	calc.TotalUsed = calc.TargetFTEDays.Times(calc.TotalJornadas)

	remaining := calc.TotalUsed
	cumulative := generic.ZeroFTEDays()
	var attributed int64

	for _, b := range balances {
		available := b.Available()
		used := available.Min(remaining)
		remaining = remaining.Sub(used)
		cumulative = cumulative.Add(used)

		// Whole jornadas completed so far, minus those already attributed.
		completed, _ := cumulative.FloorDiv(calc.TargetFTEDays)
		jornadas := completed - attributed
		attributed = completed

		calc.Students = append(calc.Students, StudentResult{
			StudentID:        b.StudentID,
			Opening:          b.Opening,
			Added:            b.Added,
			Available:        available,
			Eligible:         used.IsPositive(),
			JornadasPossible: jornadas,
			Used:             used,
			Closing:          available.Sub(used),
		})
	}
}
