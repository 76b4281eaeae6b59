package liquidation

import (
	"errors"
	"fmt"

	"github.com/warp/liquidation-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDataUnavailable is returned when the accrual source or settlement
	// history cannot be read. Nothing is persisted.
	ErrDataUnavailable = errors.New("accrual data unavailable")

	// ErrNothingToSettle is returned by Execute when no jornada can be settled.
	// Preview reports the same state as a regular result.
	ErrNothingToSettle = errors.New("nothing to settle")

	// ErrConcurrentLiquidationInProgress is returned when an execution is
	// already committing. Retry after backoff.
	ErrConcurrentLiquidationInProgress = errors.New("concurrent liquidation in progress")

	// ErrOverlappingRange is returned when a requested range starts on or before
	// the end of the latest committed liquidation.
	ErrOverlappingRange = errors.New("range overlaps a committed liquidation")

	ErrInvalidTarget     = errors.New("unknown target (use six_months or one_year)")
	ErrInvalidMode       = errors.New("unknown mode (use individual or pooled)")
	ErrInvalidPercentage = errors.New("jornada percentage must be in (0, 100]")
	ErrMissingField      = errors.New("required field missing")
)

// ErrPersistence is re-exported so callers only need this package.
var ErrPersistence = generic.ErrPersistence

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OverlapError reports the conflicting range.
type OverlapError struct {
	Requested generic.Period
	LatestEnd generic.TimePoint
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range %s overlaps committed liquidation ending %s (next start %s)",
		e.Requested, e.LatestEnd, e.LatestEnd.AddDays(1))
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlappingRange
}

// NothingToSettleError carries the figures that fell short. Available is the
// pool total; Largest is the best single student, which is what individual
// mode compares against the target.
type NothingToSettleError struct {
	Mode      Mode
	Available generic.Amount
	Largest   generic.Amount
	Target    generic.Amount
}

func (e *NothingToSettleError) Error() string {
	if e.Mode == ModeIndividual {
		return fmt.Sprintf("nothing to settle: no student reaches %s fte-days (largest available %s)",
			e.Target, e.Largest.Value.StringFixed(2))
	}
	return fmt.Sprintf("nothing to settle: pool holds %s fte-days, one jornada needs %s",
		e.Available.Value.StringFixed(2), e.Target)
}

func (e *NothingToSettleError) Unwrap() error {
	return ErrNothingToSettle
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func dataUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDataUnavailable, op, err)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// IsClientError returns true if the request itself was rejected.
func IsClientError(err error) bool {
	return generic.IsValidation(err) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrInvalidPercentage) ||
		errors.Is(err, ErrMissingField)
}

// IsConflict returns true if the request clashes with committed history or
// with an execution in flight.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlappingRange) ||
		errors.Is(err, ErrConcurrentLiquidationInProgress) ||
		errors.Is(err, generic.ErrDuplicateEntity)
}

// IsRetryable returns true if the same request might succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentLiquidationInProgress) ||
		errors.Is(err, ErrDataUnavailable)
}

func classified(err error) bool {
	return IsClientError(err) ||
		IsConflict(err) ||
		errors.Is(err, ErrDataUnavailable) ||
		errors.Is(err, ErrNothingToSettle) ||
		errors.Is(err, ErrPersistence)
}
