/*
engine.go - Preview and Execution engines

PURPOSE:
  Composes the Accrual Ledger Reader and the Calculator.

  Preview: read-only, any number in parallel, advisory only.
  Execute: recomputes from scratch inside one store transaction and
           persists a Liquidation plus one Line per participating student.

CORRECTNESS PROPERTY:
  For the same inputs and no concurrent accrual change, Preview and Execute
  produce identical aggregates. Both go through compute().

CONCURRENCY:
  At most one Execute is in flight. A second call fails immediately with
  ErrConcurrentLiquidationInProgress instead of queueing, so callers never
  commit a range computed against stale history. The store transaction is
  the atomicity boundary: any error inside it rolls everything back.

SEE ALSO:
  - accrual.go: Period resolution and accrual reads
  - calculator.go: Jornada computation
  - store/sqlite/sqlite.go: Transactional persistence
*/
package liquidation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/liquidation-engine/generic"
)

// Result is what Preview returns and what Execute would commit.
type Result struct {
	Period generic.Period
	Target Target
	Calculation
}

// TotalStudents is the number of participating students.
func (r Result) TotalStudents() int {
	return len(r.Students)
}

// LargestAvailable is the highest available balance of any participant.
func (r Result) LargestAvailable() generic.Amount {
	largest := generic.ZeroFTEDays()
	for _, s := range r.Students {
		if s.Available.GreaterThan(largest) {
			largest = s.Available
		}
	}
	return largest
}

// Engine runs previews and executions against a Store.
type Engine struct {
	Store      Store
	Accounting Accounting

	// Overridable for tests.
	Now   func() time.Time
	NewID func() string

	execMu sync.Mutex
}

func NewEngine(store Store, accounting Accounting) *Engine {
	if accounting == nil {
		accounting = WorkdayAccounting{}
	}
	return &Engine{
		Store:      store,
		Accounting: accounting,
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      func() string { return uuid.NewString() },
	}
}

// Preview computes the settlement for params without persisting anything.
func (e *Engine) Preview(ctx context.Context, params Params) (*Result, error) {
	return e.compute(ctx, e.Store, params)
}

// Execute recomputes and commits the settlement for params.
func (e *Engine) Execute(ctx context.Context, params Params) (*Details, error) {
	if !e.execMu.TryLock() {
		return nil, ErrConcurrentLiquidationInProgress
	}
	defer e.execMu.Unlock()

	var details *Details
	err := e.Store.WithTx(ctx, func(tx TxStore) error {
		result, err := e.compute(ctx, tx, params)
		if err != nil {
			return err
		}
		if result.TotalJornadas < 1 {
			return &NothingToSettleError{
				Mode:      result.Mode,
				Available: result.TotalAvailable,
				Largest:   result.LargestAvailable(),
				Target:    result.TargetFTEDays,
			}
		}

		d := e.buildDetails(result)
		if err := tx.InsertLiquidation(ctx, d.Liquidation, d.Lines); err != nil {
			return persistence("insert liquidation", err)
		}
		details = d
		return nil
	})
	if err != nil {
		if !classified(err) {
			err = persistence("commit", err)
		}
		log.Printf("[Liquidation] Execute %s rejected: %v", params, err)
		return nil, err
	}

	liq := details.Liquidation
	log.Printf("[Liquidation] Committed %s %s target=%s mode=%s students=%d jornadas=%d",
		liq.ID, liq.Period, liq.Target, liq.Mode, liq.TotalStudents, liq.TotalJornadas)
	return details, nil
}

// List returns committed liquidations, newest first.
func (e *Engine) List(ctx context.Context) ([]Liquidation, error) {
	return e.Store.ListLiquidations(ctx)
}

// Get returns a liquidation and its lines.
func (e *Engine) Get(ctx context.Context, id string) (*Details, error) {
	liq, lines, err := e.Store.GetLiquidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if liq == nil {
		return nil, &generic.NotFoundError{Kind: "liquidation", ID: id}
	}
	return &Details{Liquidation: *liq, Lines: lines}, nil
}

// StudentBalance returns a student's current carried balance and history.
func (e *Engine) StudentBalance(ctx context.Context, id StudentID) (generic.Amount, []StudentLine, error) {
	lines, err := e.Store.StudentLines(ctx, id)
	if err != nil {
		return generic.Amount{}, nil, err
	}
	if len(lines) == 0 {
		return generic.ZeroFTEDays(), lines, nil
	}
	return lines[len(lines)-1].Closing, lines, nil
}

func (e *Engine) compute(ctx context.Context, r Reader, params Params) (*Result, error) {
	target, err := params.Target.FTEDays()
	if err != nil {
		return nil, err
	}
	if _, err := ParseMode(string(params.Mode)); err != nil {
		return nil, err
	}

	reader := NewLedgerReader(r, e.Accounting)
	period, err := reader.ResolvePeriod(ctx, params)
	if err != nil {
		return nil, err
	}
	students, err := reader.StudentSet(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := reader.ReadAccruals(ctx, students, period)
	if err != nil {
		return nil, err
	}

	return &Result{
		Period:      period,
		Target:      params.Target,
		Calculation: Calculate(balances, target, params.Mode),
	}, nil
}

func (e *Engine) buildDetails(result *Result) *Details {
	id := e.NewID()
	liq := Liquidation{
		ID:               id,
		Period:           result.Period,
		Target:           result.Target,
		Mode:             result.Mode,
		TargetFTEDays:    result.TargetFTEDays,
		TotalStudents:    result.TotalStudents(),
		TotalJornadas:    result.TotalJornadas,
		TotalFTEDaysUsed: result.TotalUsed,
		CreatedAt:        e.Now(),
	}

	lines := make([]Line, 0, len(result.Students))
	for _, s := range result.Students {
		lines = append(lines, Line{
			LiquidationID: id,
			StudentID:     s.StudentID,
			Opening:       s.Opening,
			Added:         s.Added,
			Used:          s.Used,
			Closing:       s.Closing,
			Jornadas:      s.JornadasPossible,
		})
	}
	return &Details{Liquidation: liq, Lines: lines}
}
