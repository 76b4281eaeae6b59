package liquidation

import (
	"context"

	"github.com/warp/liquidation-engine/generic"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Reader is everything a computation reads. Both the store and its
// transactional view implement it, so Execute reads inside its transaction.
type Reader interface {
	// LatestLiquidation returns the committed liquidation with the greatest
	// end date, or nil if none exists.
	LatestLiquidation(ctx context.Context) (*Liquidation, error)

	// ClosingBalances returns each student's closing FTE-days from their most
	// recent line. Students never settled are absent.
	ClosingBalances(ctx context.Context) (map[StudentID]generic.Amount, error)

	// ListStudents returns all known students.
	ListStudents(ctx context.Context) ([]Student, error)

	// WorkRecordsInPeriod returns records whose active range intersects p.
	WorkRecordsInPeriod(ctx context.Context, p generic.Period) ([]WorkRecord, error)

	// EarliestWorkStart returns the earliest record start date, or nil.
	EarliestWorkStart(ctx context.Context) (*generic.TimePoint, error)
}

// TxStore is the transactional view handed to WithTx callbacks.
type TxStore interface {
	Reader

	// InsertLiquidation appends a liquidation and all its lines.
	InsertLiquidation(ctx context.Context, liq Liquidation, lines []Line) error
}

// Store persists the settlement history.
//
// INVARIANTS:
//   - Append-only: liquidations and lines are never updated or deleted.
//   - WithTx commits only if fn returns nil; on any other exit it rolls back.
type Store interface {
	Reader

	WithTx(ctx context.Context, fn func(tx TxStore) error) error

	ListLiquidations(ctx context.Context) ([]Liquidation, error)

	// GetLiquidation returns nil, nil, nil when id is unknown.
	GetLiquidation(ctx context.Context, id string) (*Liquidation, []Line, error)

	// StudentLines returns a student's lines, oldest first.
	StudentLines(ctx context.Context, id StudentID) ([]StudentLine, error)
}
