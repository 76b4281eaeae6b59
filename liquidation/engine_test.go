package liquidation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
	"github.com/warp/liquidation-engine/store/memory"
)

// =============================================================================
// FIXTURES
// =============================================================================

func newEngine(t *testing.T, store liquidation.Store) *liquidation.Engine {
	t.Helper()
	e := liquidation.NewEngine(store, nil)
	e.Now = func() time.Time { return time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC) }
	n := 0
	e.NewID = func() string {
		n++
		return fmt.Sprintf("liq-%03d", n)
	}
	return e
}

func date(t *testing.T, s string) generic.TimePoint {
	t.Helper()
	tp, err := generic.ParseDate(s)
	require.NoError(t, err)
	return tp
}

// addStudent registers a student with one open-ended work record.
func addStudent(t *testing.T, m *memory.Memory, id, start string, percentage int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.SaveStudent(ctx, liquidation.Student{ID: liquidation.StudentID(id), Name: id}))
	require.NoError(t, m.SaveWorkRecord(ctx, liquidation.WorkRecord{
		ID:                "wr-" + id,
		StudentID:         liquidation.StudentID(id),
		Start:             date(t, start),
		JornadaPercentage: decimal.NewFromInt(percentage),
	}))
}

func params(t *testing.T, start, end string, target liquidation.Target, mode liquidation.Mode) liquidation.Params {
	t.Helper()
	p, err := liquidation.ParseParams(start, end, string(target), string(mode))
	require.NoError(t, err)
	return p
}

func lineFor(t *testing.T, d *liquidation.Details, id liquidation.StudentID) liquidation.Line {
	t.Helper()
	for _, l := range d.Lines {
		if l.StudentID == id {
			return l
		}
	}
	t.Fatalf("no line for %s", id)
	return liquidation.Line{}
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview_IsReadOnlyAndRepeatable(t *testing.T) {
	// GIVEN: A full-time student since 2024-07-01
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	e := newEngine(t, m)
	p := params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual)

	// WHEN: Previewing twice
	first, err := e.Preview(ctx, p)
	require.NoError(t, err)
	second, err := e.Preview(ctx, p)
	require.NoError(t, err)

	// THEN: Identical results and nothing persisted
	assert.Equal(t, first, second)
	assert.Equal(t, "2024-07-01", first.Period.Start.String())
	assert.Equal(t, int64(1), first.TotalJornadas)
	assert.True(t, first.Students[0].Added.Equal(generic.FTEDays(132)))

	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPreview_MatchesExecute(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2025-01-01", 50)
	addStudent(t, m, "stu-b", "2025-01-01", 60)
	e := newEngine(t, m)
	p := params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModePooled)

	preview, err := e.Preview(ctx, p)
	require.NoError(t, err)
	details, err := e.Execute(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, preview.TotalJornadas, details.Liquidation.TotalJornadas)
	assert.True(t, preview.TotalUsed.Equal(details.Liquidation.TotalFTEDaysUsed))
	assert.Equal(t, preview.TotalStudents(), details.Liquidation.TotalStudents)
	require.Len(t, details.Lines, len(preview.Students))
	for i, s := range preview.Students {
		assert.True(t, s.Closing.Equal(details.Lines[i].Closing))
	}
}

func TestPreview_NothingToSettleIsARegularResult(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2025-01-01", 50)
	e := newEngine(t, m)

	result, err := e.Preview(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalJornadas)
	assert.True(t, result.TotalAvailable.Equal(generic.FTEDays(64.5)))
}

// =============================================================================
// EXECUTE
// =============================================================================

func TestExecute_NothingToSettleCreatesNoRecord(t *testing.T) {
	// GIVEN: Only 64.5 FTE-days available against 130
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2025-01-01", 50)
	e := newEngine(t, m)

	// WHEN
	_, err := e.Execute(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))

	// THEN: Rejected, history untouched
	require.Error(t, err)
	assert.ErrorIs(t, err, liquidation.ErrNothingToSettle)
	var nts *liquidation.NothingToSettleError
	require.True(t, errors.As(err, &nts))
	assert.True(t, nts.Available.Equal(generic.FTEDays(64.5)))
	assert.True(t, nts.Largest.Equal(generic.FTEDays(64.5)))

	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNothingToSettle_MessageMatchesMode(t *testing.T) {
	// GIVEN: Two half-time students, 129 workdays each: 64.5 apiece, 129 pooled
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2025-01-01", 50)
	addStudent(t, m, "stu-b", "2025-01-01", 50)
	e := newEngine(t, m)

	// WHEN
	_, indErr := e.Execute(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	_, poolErr := e.Execute(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModePooled))

	// THEN: Individual reports the best student, pooled reports the pool
	var ind, pool *liquidation.NothingToSettleError
	require.True(t, errors.As(indErr, &ind))
	require.True(t, errors.As(poolErr, &pool))
	assert.True(t, ind.Largest.Equal(generic.FTEDays(64.5)))
	assert.Equal(t, "nothing to settle: no student reaches 130 fte-days (largest available 64.50)", ind.Error())
	assert.True(t, pool.Available.Equal(generic.FTEDays(129)))
	assert.Equal(t, "nothing to settle: pool holds 129.00 fte-days, one jornada needs 130", pool.Error())
}

func TestExecute_CommitsBalancedLines(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	addStudent(t, m, "stu-b", "2024-07-01", 80)
	e := newEngine(t, m)

	details, err := e.Execute(ctx, params(t, "2024-07-01", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)

	// 261 workdays: A 261 -> 2 jornadas, closing 1; B 208.8 -> 1 jornada, closing 78.8
	liq := details.Liquidation
	assert.Equal(t, "liq-001", liq.ID)
	assert.Equal(t, int64(3), liq.TotalJornadas)
	assert.Equal(t, 2, liq.TotalStudents)
	assert.True(t, liq.TotalFTEDaysUsed.Equal(generic.FTEDays(390)))

	a := lineFor(t, details, "stu-a")
	assert.Equal(t, int64(2), a.Jornadas)
	assert.True(t, a.Closing.Equal(generic.FTEDays(1)))
	b := lineFor(t, details, "stu-b")
	assert.Equal(t, int64(1), b.Jornadas)
	assert.True(t, b.Closing.Equal(generic.FTEDays(78.8)))
	for _, l := range details.Lines {
		assert.True(t, l.Balanced())
	}

	got, err := e.Get(ctx, liq.ID)
	require.NoError(t, err)
	assert.Equal(t, details.Lines, got.Lines)
}

func TestExecute_OmittedStartContinuesFromLatestEnd(t *testing.T) {
	// GIVEN: A committed liquidation ending 2025-06-30
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	e := newEngine(t, m)
	_, err := e.Execute(ctx, params(t, "2024-07-01", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)

	// WHEN: Previewing with no start date
	result, err := e.Preview(ctx, params(t, "", "2025-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))

	// THEN: The range starts the day after
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01", result.Period.Start.String())
	assert.Equal(t, "2025-12-31", result.Period.End.String())
}

func TestExecute_CarryForwardContinuity(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	addStudent(t, m, "stu-b", "2024-07-01", 80)
	e := newEngine(t, m)

	first, err := e.Execute(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)
	second, err := e.Execute(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-01", second.Liquidation.Period.Start.String())
	for _, id := range []liquidation.StudentID{"stu-a", "stu-b"} {
		prev := lineFor(t, first, id)
		next := lineFor(t, second, id)
		assert.True(t, next.Opening.Equal(prev.Closing), "opening of %s", id)
	}

	closing, history, err := e.StudentBalance(ctx, "stu-b")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, closing.Equal(lineFor(t, second, "stu-b").Closing))
}

func TestExecute_RejectsOverlappingRanges(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	e := newEngine(t, m)
	_, err := e.Execute(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end string
	}{
		{"start inside committed range", "2024-12-01", "2025-06-30"},
		{"start on committed end", "2024-12-31", "2025-06-30"},
		{"end not after committed end", "", "2024-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(ctx, params(t, tt.start, tt.end, liquidation.TargetSixMonths, liquidation.ModeIndividual))
			assert.ErrorIs(t, err, liquidation.ErrOverlappingRange)
			assert.True(t, liquidation.IsConflict(err))

			var overlap *liquidation.OverlapError
			require.True(t, errors.As(err, &overlap))
			assert.Equal(t, "2024-12-31", overlap.LatestEnd.String())
		})
	}

	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestExecute_PooledAttributesJornadas(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2025-01-01", 50)
	addStudent(t, m, "stu-b", "2025-01-01", 60)
	e := newEngine(t, m)

	details, err := e.Execute(ctx, params(t, "", "2025-06-30", liquidation.TargetSixMonths, liquidation.ModePooled))
	require.NoError(t, err)

	// 64.5 + 77.4 = 141.9 -> 1 jornada; A gives 64.5, B gives 65.5
	assert.Equal(t, int64(1), details.Liquidation.TotalJornadas)
	a := lineFor(t, details, "stu-a")
	b := lineFor(t, details, "stu-b")
	assert.True(t, a.Used.Equal(generic.FTEDays(64.5)))
	assert.True(t, b.Used.Equal(generic.FTEDays(65.5)))
	assert.True(t, b.Closing.Equal(generic.FTEDays(11.9)))
	assert.Equal(t, int64(0), a.Jornadas)
	assert.Equal(t, int64(1), b.Jornadas)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestExecute_DataUnavailable(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	e := newEngine(t, m)
	m.FailReads = memory.ErrInjected

	_, err := e.Preview(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	assert.ErrorIs(t, err, liquidation.ErrDataUnavailable)

	_, err = e.Execute(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	assert.ErrorIs(t, err, liquidation.ErrDataUnavailable)
	assert.True(t, liquidation.IsRetryable(err))

	m.FailReads = nil
	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecute_PersistenceFailureRollsBack(t *testing.T) {
	// GIVEN: Writes fail after the header is inserted
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	e := newEngine(t, m)
	m.FailInsert = memory.ErrInjected

	// WHEN
	_, err := e.Execute(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))

	// THEN: Persistence error and no partial settlement
	assert.ErrorIs(t, err, liquidation.ErrPersistence)
	assert.ErrorIs(t, err, memory.ErrInjected)

	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	_, lines, err := e.StudentBalance(ctx, "stu-a")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// AND: The same request succeeds once writes recover
	m.FailInsert = nil
	_, err = e.Execute(ctx, params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual))
	require.NoError(t, err)
}

// blockingStore holds WithTx open until released.
type blockingStore struct {
	*memory.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) WithTx(ctx context.Context, fn func(liquidation.TxStore) error) error {
	close(b.entered)
	<-b.release
	return b.Memory.WithTx(ctx, fn)
}

func TestExecute_ConcurrentExecutionIsRejected(t *testing.T) {
	// GIVEN: One execution parked inside its transaction
	ctx := context.Background()
	m := memory.New()
	addStudent(t, m, "stu-a", "2024-07-01", 100)
	store := &blockingStore{Memory: m, entered: make(chan struct{}), release: make(chan struct{})}
	e := newEngine(t, store)
	p := params(t, "", "2024-12-31", liquidation.TargetSixMonths, liquidation.ModeIndividual)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = e.Execute(ctx, p)
	}()
	<-store.entered

	// WHEN: A second execution arrives
	_, err := e.Execute(ctx, p)

	// THEN: It fails fast, and the first one commits
	assert.ErrorIs(t, err, liquidation.ErrConcurrentLiquidationInProgress)
	assert.True(t, liquidation.IsRetryable(err))

	close(store.release)
	wg.Wait()
	require.NoError(t, firstErr)

	history, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// =============================================================================
// LOOKUPS & VALIDATION
// =============================================================================

func TestGet_UnknownLiquidation(t *testing.T) {
	e := newEngine(t, memory.New())

	_, err := e.Get(context.Background(), "nope")

	assert.True(t, generic.IsNotFound(err))
}

func TestStudentBalance_NeverSettled(t *testing.T) {
	e := newEngine(t, memory.New())

	closing, lines, err := e.StudentBalance(context.Background(), "stu-x")

	require.NoError(t, err)
	assert.True(t, closing.IsZero())
	assert.Empty(t, lines)
}

func TestParseParams_Validation(t *testing.T) {
	tests := []struct {
		name                     string
		start, end, target, mode string
		want                     error
	}{
		{"missing end", "", "", "six_months", "individual", liquidation.ErrMissingField},
		{"malformed end", "", "30/06/2025", "six_months", "individual", generic.ErrInvalidDate},
		{"malformed start", "2025-1-1", "2025-06-30", "six_months", "individual", generic.ErrInvalidDate},
		{"inverted", "2025-07-01", "2025-06-30", "six_months", "individual", generic.ErrInvalidPeriod},
		{"unknown target", "", "2025-06-30", "quarter", "individual", liquidation.ErrInvalidTarget},
		{"unknown mode", "", "2025-06-30", "one_year", "cohort", liquidation.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := liquidation.ParseParams(tt.start, tt.end, tt.target, tt.mode)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, liquidation.IsClientError(err))
		})
	}
}

func TestResolvePeriod_NoHistoryNoRecords(t *testing.T) {
	reader := liquidation.NewLedgerReader(memory.New(), nil)

	period, err := reader.ResolvePeriod(context.Background(),
		liquidation.Params{End: generic.NewTimePoint(2025, 6, 30), Target: liquidation.TargetOneYear, Mode: liquidation.ModeIndividual})

	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", period.Start.String())
	assert.Equal(t, 1, period.Days())
}
