// Package memory provides an in-memory liquidation.Store (for testing/dev).
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	students     map[liquidation.StudentID]liquidation.Student
	records      []liquidation.WorkRecord
	liquidations []liquidation.Liquidation
	lines        map[string][]liquidation.Line

	// FailReads and FailInsert inject errors, for testing failure paths.
	FailReads  error
	FailInsert error
}

func New() *Memory {
	return &Memory{
		students: make(map[liquidation.StudentID]liquidation.Student),
		lines:    make(map[string][]liquidation.Line),
	}
}

// SaveStudent adds or replaces a student.
func (m *Memory) SaveStudent(_ context.Context, s liquidation.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

// SaveWorkRecord appends a work record.
func (m *Memory) SaveWorkRecord(_ context.Context, w liquidation.WorkRecord) error {
	if err := w.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[w.StudentID]; !ok {
		return &generic.NotFoundError{Kind: "student", ID: string(w.StudentID)}
	}
	m.records = append(m.records, w)
	return nil
}

// =============================================================================
// READER (unlocked implementations shared with the tx view)
// =============================================================================

func (m *Memory) LatestLiquidation(ctx context.Context) (*liquidation.Liquidation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestLocked()
}

func (m *Memory) ClosingBalances(ctx context.Context) (map[liquidation.StudentID]generic.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closingLocked()
}

func (m *Memory) ListStudents(ctx context.Context) ([]liquidation.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.studentsLocked()
}

func (m *Memory) WorkRecordsInPeriod(ctx context.Context, p generic.Period) ([]liquidation.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsLocked(p)
}

func (m *Memory) EarliestWorkStart(ctx context.Context) (*generic.TimePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.earliestLocked()
}

func (m *Memory) latestLocked() (*liquidation.Liquidation, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var latest *liquidation.Liquidation
	for i := range m.liquidations {
		l := m.liquidations[i]
		if latest == nil || l.Period.End.After(latest.Period.End) {
			latest = &l
		}
	}
	return latest, nil
}

func (m *Memory) closingLocked() (map[liquidation.StudentID]generic.Amount, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	ordered := m.orderedLocked()
	closing := make(map[liquidation.StudentID]generic.Amount)
	for _, liq := range ordered {
		for _, line := range m.lines[liq.ID] {
			closing[line.StudentID] = line.Closing
		}
	}
	return closing, nil
}

func (m *Memory) studentsLocked() ([]liquidation.Student, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make([]liquidation.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) recordsLocked(p generic.Period) ([]liquidation.WorkRecord, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var out []liquidation.WorkRecord
	for _, w := range m.records {
		if w.ActivePeriod(p.End).Overlaps(p) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *Memory) earliestLocked() (*generic.TimePoint, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var earliest *generic.TimePoint
	for i := range m.records {
		start := m.records[i].Start
		if earliest == nil || start.Before(*earliest) {
			earliest = &start
		}
	}
	return earliest, nil
}

// orderedLocked returns liquidations by end date ascending.
func (m *Memory) orderedLocked() []liquidation.Liquidation {
	ordered := append([]liquidation.Liquidation{}, m.liquidations...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Period.End.Before(ordered[j].Period.End)
	})
	return ordered
}

// =============================================================================
// HISTORY
// =============================================================================

func (m *Memory) ListLiquidations(ctx context.Context) ([]liquidation.Liquidation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ordered := m.orderedLocked()
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered, nil
}

func (m *Memory) GetLiquidation(ctx context.Context, id string) (*liquidation.Liquidation, []liquidation.Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.liquidations {
		if l.ID == id {
			liq := l
			return &liq, append([]liquidation.Line{}, m.lines[id]...), nil
		}
	}
	return nil, nil, nil
}

func (m *Memory) StudentLines(ctx context.Context, id liquidation.StudentID) ([]liquidation.StudentLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []liquidation.StudentLine
	for _, liq := range m.orderedLocked() {
		for _, line := range m.lines[liq.ID] {
			if line.StudentID == id {
				out = append(out, liquidation.StudentLine{
					Line:      line,
					Period:    liq.Period,
					Target:    liq.Target,
					Mode:      liq.Mode,
					CreatedAt: liq.CreatedAt,
				})
			}
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(liquidation.TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	liquidations []liquidation.Liquidation
	lines        map[string][]liquidation.Line
}

func (m *Memory) snapshot() memorySnapshot {
	lines := make(map[string][]liquidation.Line, len(m.lines))
	for k, v := range m.lines {
		lines[k] = append([]liquidation.Line{}, v...)
	}
	return memorySnapshot{
		liquidations: append([]liquidation.Liquidation{}, m.liquidations...),
		lines:        lines,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.liquidations = s.liquidations
	m.lines = s.lines
}

type txView struct {
	parent *Memory
}

func (tv *txView) LatestLiquidation(context.Context) (*liquidation.Liquidation, error) {
	return tv.parent.latestLocked()
}

func (tv *txView) ClosingBalances(context.Context) (map[liquidation.StudentID]generic.Amount, error) {
	return tv.parent.closingLocked()
}

func (tv *txView) ListStudents(context.Context) ([]liquidation.Student, error) {
	return tv.parent.studentsLocked()
}

func (tv *txView) WorkRecordsInPeriod(_ context.Context, p generic.Period) ([]liquidation.WorkRecord, error) {
	return tv.parent.recordsLocked(p)
}

func (tv *txView) EarliestWorkStart(context.Context) (*generic.TimePoint, error) {
	return tv.parent.earliestLocked()
}

// InsertLiquidation writes the header first, then each line, so an injected
// failure exercises the rollback of a partially written settlement.
func (tv *txView) InsertLiquidation(_ context.Context, liq liquidation.Liquidation, lines []liquidation.Line) error {
	m := tv.parent
	for _, existing := range m.liquidations {
		if existing.ID == liq.ID {
			return generic.ErrDuplicateEntity
		}
	}
	m.liquidations = append(m.liquidations, liq)
	for _, line := range lines {
		if m.FailInsert != nil {
			return m.FailInsert
		}
		m.lines[liq.ID] = append(m.lines[liq.ID], line)
	}
	if len(lines) == 0 && m.FailInsert != nil {
		return m.FailInsert
	}
	return nil
}

var _ liquidation.Store = (*Memory)(nil)

// ErrInjected is a convenience error for failure-injection tests.
var ErrInjected = errors.New("injected failure")
