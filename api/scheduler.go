/*
scheduler.go - Automated liquidation scheduler

PURPOSE:
  Periodically settles everything accrued up to yesterday, so operators do
  not have to trigger each liquidation by hand.

DESIGN:
  - Runs on a cron expression (robfig/cron, standard 5-field syntax)
  - Each run executes a liquidation ending yesterday with no start_date, so
    the range always continues from the latest committed liquidation
  - Nothing to settle and already-settled ranges are logged and skipped
  - A run that collides with a manual execution is skipped; the next tick
    picks the range up

CONFIGURATION:
  - Cron:    When to run (default: "0 2 * * *", daily at 02:00)
  - Target:  six_months or one_year
  - Mode:    individual or pooled
  - Enabled: Whether scheduler is active

USAGE:
  scheduler := NewLiquidationScheduler(handler.Engine, cfg)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ExecuteLiquidation endpoint (manual liquidation)
  - liquidation/engine.go: Execute
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
	"github.com/warp/liquidation-engine/metrics"
)

// ScheduleConfig configures the scheduler.
type ScheduleConfig struct {
	Enabled bool
	Cron    string
	Target  liquidation.Target
	Mode    liquidation.Mode
}

// LiquidationScheduler handles automated liquidations.
type LiquidationScheduler struct {
	Engine *liquidation.Engine
	Config ScheduleConfig

	// Today is overridable for tests.
	Today func() generic.TimePoint

	cron *cron.Cron
	mu   sync.Mutex
}

// NewLiquidationScheduler creates a new scheduler.
func NewLiquidationScheduler(engine *liquidation.Engine, cfg ScheduleConfig) *LiquidationScheduler {
	return &LiquidationScheduler{
		Engine: engine,
		Config: cfg,
		Today:  generic.Today,
	}
}

// Start registers the cron job and begins the scheduler.
func (ls *LiquidationScheduler) Start() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Config.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return nil
	}
	if ls.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(ls.Config.Cron, func() { ls.RunNow(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	ls.cron = c

	log.Printf("[Scheduler] Started with schedule %q target=%s mode=%s",
		ls.Config.Cron, ls.Config.Target, ls.Config.Mode)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (ls *LiquidationScheduler) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.cron != nil {
		<-ls.cron.Stop().Done()
		ls.cron = nil
		log.Println("[Scheduler] Stopped")
	}
}

// RunNow executes one scheduled liquidation ending yesterday. Returns nil
// details when the run was skipped.
func (ls *LiquidationScheduler) RunNow(ctx context.Context) (*liquidation.Details, error) {
	started := time.Now()
	params := liquidation.Params{
		End:    ls.Today().AddDays(-1),
		Target: ls.Config.Target,
		Mode:   ls.Config.Mode,
	}

	log.Printf("[Scheduler] Running liquidation %s", params)

	details, err := ls.Engine.Execute(ctx, params)
	switch {
	case err == nil:
		metrics.ObserveExecute(metrics.ResultSuccess, time.Since(started))
		metrics.AddJornadas(string(details.Liquidation.Mode), details.Liquidation.TotalJornadas)
		log.Printf("[Scheduler] Completed: liquidation %s, %d jornadas for %d students",
			details.Liquidation.ID, details.Liquidation.TotalJornadas, details.Liquidation.TotalStudents)
		return details, nil
	case errors.Is(err, liquidation.ErrNothingToSettle),
		errors.Is(err, liquidation.ErrOverlappingRange),
		errors.Is(err, liquidation.ErrConcurrentLiquidationInProgress):
		metrics.ObserveExecute(metrics.ResultRejected, time.Since(started))
		log.Printf("[Scheduler] Skipped: %v", err)
		return nil, nil
	default:
		metrics.ObserveExecute(metrics.ResultError, time.Since(started))
		log.Printf("[Scheduler] Error running liquidation: %v", err)
		return nil, err
	}
}
