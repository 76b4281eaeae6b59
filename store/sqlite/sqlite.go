/*
Package sqlite provides a SQLite-backed implementation of liquidation.Store.

PURPOSE:
  Persists the accrual source (students, work records) and the settlement
  history (liquidations, liquidation lines). In production the same patterns
  apply to PostgreSQL, only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  liquidation.Store:   Reader + WithTx + history queries
  liquidation.TxStore: The transactional view passed to WithTx callbacks

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on liquidations or liquidation_lines
  - No DELETE statements on them, except Reset (dev scenarios only)
  - liquidations.end_date is UNIQUE; ranges are further kept disjoint by the
    engine (strict non-overlap)

KEY TABLES:
  students:           Accrual source entities
  work_records:       Contracts with a jornada percentage and an active range
  liquidations:       One row per committed settlement
  liquidation_lines:  One row per student per settlement

STORAGE FORMATS:
  Dates are TEXT "YYYY-MM-DD" (sortable, UTC day). FTE-day amounts are TEXT
  decimal strings so no precision is lost between settlements.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction, and every read inside it goes through the *sql.Tx, so a
  settlement always computes against the history it commits on top of.
  In-memory databases are pinned to a single connection (each new
  connection to ":memory:" would open a different, empty database).

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/liquidations.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := liquidation.NewEngine(store, nil)

SEE ALSO:
  - liquidation/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
)

// Store implements liquidation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for metrics collectors.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Students (accrual source entities)
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	-- Work records (contracts); end_date NULL = still active
	CREATE TABLE IF NOT EXISTS work_records (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES students(id),
		company_name TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT,
		jornada_percentage TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_work_records_student
		ON work_records(student_id);
	-- Range intersection lookups (hot path of every preview)
	CREATE INDEX IF NOT EXISTS idx_work_records_range
		ON work_records(start_date, end_date);

	-- Liquidations (append-only)
	CREATE TABLE IF NOT EXISTS liquidations (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		mode TEXT NOT NULL,
		target_fte_days TEXT NOT NULL,
		total_students INTEGER NOT NULL,
		total_jornadas INTEGER NOT NULL,
		total_fte_days_used TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Liquidation lines (append-only)
	CREATE TABLE IF NOT EXISTS liquidation_lines (
		liquidation_id TEXT NOT NULL REFERENCES liquidations(id),
		student_id TEXT NOT NULL,
		opening_fte_days TEXT NOT NULL,
		added_fte_days TEXT NOT NULL,
		used_fte_days TEXT NOT NULL,
		closing_fte_days TEXT NOT NULL,
		jornadas_generated INTEGER NOT NULL,
		PRIMARY KEY (liquidation_id, student_id)
	);

	-- Carry-forward lookups: latest line per student
	CREATE INDEX IF NOT EXISTS idx_liquidation_lines_student
		ON liquidation_lines(student_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL of the store. It never locks; callers do.
type queries struct {
	q querier
}

// =============================================================================
// READER (liquidation.Reader interface)
// =============================================================================

func (s *Store) LatestLiquidation(ctx context.Context) (*liquidation.Liquidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.LatestLiquidation(ctx)
}

func (s *Store) ClosingBalances(ctx context.Context) (map[liquidation.StudentID]generic.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.ClosingBalances(ctx)
}

func (s *Store) ListStudents(ctx context.Context) ([]liquidation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.ListStudents(ctx)
}

func (s *Store) WorkRecordsInPeriod(ctx context.Context, p generic.Period) ([]liquidation.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.WorkRecordsInPeriod(ctx, p)
}

func (s *Store) EarliestWorkStart(ctx context.Context) (*generic.TimePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.EarliestWorkStart(ctx)
}

const liquidationColumns = `id, start_date, end_date, target, mode, target_fte_days,
	total_students, total_jornadas, total_fte_days_used, created_at`

func (qs queries) LatestLiquidation(ctx context.Context) (*liquidation.Liquidation, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT "+liquidationColumns+" FROM liquidations ORDER BY end_date DESC LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query latest liquidation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	liq, err := scanLiquidation(rows)
	if err != nil {
		return nil, err
	}
	return &liq, rows.Err()
}

func (qs queries) ClosingBalances(ctx context.Context) (map[liquidation.StudentID]generic.Amount, error) {
	query := `
		SELECT l.student_id, l.closing_fte_days
		FROM liquidation_lines l
		JOIN liquidations q ON q.id = l.liquidation_id
		WHERE q.end_date = (
			SELECT MAX(q2.end_date)
			FROM liquidation_lines l2
			JOIN liquidations q2 ON q2.id = l2.liquidation_id
			WHERE l2.student_id = l.student_id
		)
	`
	rows, err := qs.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query closing balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[liquidation.StudentID]generic.Amount)
	for rows.Next() {
		var id, closing string
		if err := rows.Scan(&id, &closing); err != nil {
			return nil, fmt.Errorf("failed to scan closing balance: %w", err)
		}
		amount, err := parseAmount(closing)
		if err != nil {
			return nil, err
		}
		balances[liquidation.StudentID(id)] = amount
	}
	return balances, rows.Err()
}

func (qs queries) ListStudents(ctx context.Context) ([]liquidation.Student, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []liquidation.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

const workRecordColumns = `id, student_id, company_name, start_date, end_date, jornada_percentage, created_at`

func (qs queries) WorkRecordsInPeriod(ctx context.Context, p generic.Period) ([]liquidation.WorkRecord, error) {
	query := `
		SELECT ` + workRecordColumns + `
		FROM work_records
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY student_id, start_date
	`
	return qs.queryWorkRecords(ctx, query, p.End.String(), p.Start.String())
}

func (qs queries) EarliestWorkStart(ctx context.Context) (*generic.TimePoint, error) {
	var earliest sql.NullString
	if err := qs.q.QueryRowContext(ctx, "SELECT MIN(start_date) FROM work_records").Scan(&earliest); err != nil {
		return nil, fmt.Errorf("failed to query earliest work record: %w", err)
	}
	if !earliest.Valid {
		return nil, nil
	}
	tp, err := generic.ParseDate(earliest.String)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func (qs queries) queryWorkRecords(ctx context.Context, query string, args ...any) ([]liquidation.WorkRecord, error) {
	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work records: %w", err)
	}
	defer rows.Close()

	var records []liquidation.WorkRecord
	for rows.Next() {
		w, err := scanWorkRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, w)
	}
	return records, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (liquidation.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx liquidation.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{queries{sqlTx}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	queries
}

func (ts *txStore) InsertLiquidation(ctx context.Context, liq liquidation.Liquidation, lines []liquidation.Line) error {
	_, err := ts.q.ExecContext(ctx, `
		INSERT INTO liquidations (`+liquidationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		liq.ID,
		liq.Period.Start.String(),
		liq.Period.End.String(),
		liq.Target,
		liq.Mode,
		liq.TargetFTEDays.String(),
		liq.TotalStudents,
		liq.TotalJornadas,
		liq.TotalFTEDaysUsed.String(),
		liq.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: liquidation ending %s", generic.ErrDuplicateEntity, liq.Period.End)
		}
		return fmt.Errorf("failed to insert liquidation: %w", err)
	}

	for _, line := range lines {
		_, err := ts.q.ExecContext(ctx, `
			INSERT INTO liquidation_lines
			(liquidation_id, student_id, opening_fte_days, added_fte_days, used_fte_days,
			 closing_fte_days, jornadas_generated)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			liq.ID,
			line.StudentID,
			line.Opening.String(),
			line.Added.String(),
			line.Used.String(),
			line.Closing.String(),
			line.Jornadas,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line for %s: %w", line.StudentID, err)
		}
	}
	return nil
}

// =============================================================================
// HISTORY QUERIES
// =============================================================================

// ListLiquidations returns all liquidations, newest first.
func (s *Store) ListLiquidations(ctx context.Context) ([]liquidation.Liquidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+liquidationColumns+" FROM liquidations ORDER BY end_date DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query liquidations: %w", err)
	}
	defer rows.Close()

	liquidations := []liquidation.Liquidation{}
	for rows.Next() {
		liq, err := scanLiquidation(rows)
		if err != nil {
			return nil, err
		}
		liquidations = append(liquidations, liq)
	}
	return liquidations, rows.Err()
}

// GetLiquidation retrieves a liquidation and its lines by ID.
func (s *Store) GetLiquidation(ctx context.Context, id string) (*liquidation.Liquidation, []liquidation.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+liquidationColumns+" FROM liquidations WHERE id = ?", id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query liquidation: %w", err)
	}
	if !rows.Next() {
		err := rows.Err()
		rows.Close()
		return nil, nil, err
	}
	liq, err := scanLiquidation(rows)
	rows.Close()
	if err != nil {
		return nil, nil, err
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT liquidation_id, student_id, opening_fte_days, added_fte_days, used_fte_days,
		       closing_fte_days, jornadas_generated
		FROM liquidation_lines
		WHERE liquidation_id = ?
		ORDER BY student_id
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer lineRows.Close()

	lines := []liquidation.Line{}
	for lineRows.Next() {
		line, err := scanLine(lineRows)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, line)
	}
	return &liq, lines, lineRows.Err()
}

// StudentLines returns a student's settlement history, oldest first.
func (s *Store) StudentLines(ctx context.Context, id liquidation.StudentID) ([]liquidation.StudentLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.liquidation_id, l.student_id, l.opening_fte_days, l.added_fte_days,
		       l.used_fte_days, l.closing_fte_days, l.jornadas_generated,
		       q.start_date, q.end_date, q.target, q.mode, q.created_at
		FROM liquidation_lines l
		JOIN liquidations q ON q.id = l.liquidation_id
		WHERE l.student_id = ?
		ORDER BY q.end_date ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query student lines: %w", err)
	}
	defer rows.Close()

	var out []liquidation.StudentLine
	for rows.Next() {
		var (
			sl                                  liquidation.StudentLine
			opening, added, used, closing       string
			start, end, target, mode, createdAt string
		)
		if err := rows.Scan(
			&sl.LiquidationID, &sl.StudentID, &opening, &added, &used, &closing, &sl.Jornadas,
			&start, &end, &target, &mode, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student line: %w", err)
		}
		if err := parseAmounts(
			[]string{opening, added, used, closing},
			[]*generic.Amount{&sl.Opening, &sl.Added, &sl.Used, &sl.Closing},
		); err != nil {
			return nil, err
		}
		if sl.Period, err = parsePeriod(start, end); err != nil {
			return nil, err
		}
		sl.Target = liquidation.Target(target)
		sl.Mode = liquidation.Mode(mode)
		sl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, sl)
	}
	return out, rows.Err()
}

// =============================================================================
// STUDENT & WORK RECORD STORE
// =============================================================================

// CreateStudent inserts a new student. Fails with ErrDuplicateEntity if the ID
// is taken.
func (s *Store) CreateStudent(ctx context.Context, st liquidation.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO students (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		st.ID, st.Name, st.Email, st.CreatedAt.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: student %s", generic.ErrDuplicateEntity, st.ID)
	}
	return err
}

// GetStudent retrieves a student by ID. Returns nil, nil if absent.
func (s *Store) GetStudent(ctx context.Context, id liquidation.StudentID) (*liquidation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM students WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	st, err := scanStudent(rows)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveWorkRecord inserts a work record for an existing student.
func (s *Store) SaveWorkRecord(ctx context.Context, w liquidation.WorkRecord) error {
	if err := w.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var end sql.NullString
	if w.End != nil {
		end = sql.NullString{String: w.End.String(), Valid: true}
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_records (`+workRecordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID, w.StudentID, w.CompanyName, w.Start.String(), end,
		w.JornadaPercentage.String(), w.CreatedAt.Format(time.RFC3339),
	)
	switch {
	case err == nil:
		return nil
	case isForeignKeyError(err):
		return &generic.NotFoundError{Kind: "student", ID: string(w.StudentID)}
	case isUniqueConstraintError(err):
		return fmt.Errorf("%w: work record %s", generic.ErrDuplicateEntity, w.ID)
	}
	return fmt.Errorf("failed to insert work record: %w", err)
}

// WorkRecordsByStudent returns a student's work records by start date.
func (s *Store) WorkRecordsByStudent(ctx context.Context, id liquidation.StudentID) ([]liquidation.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + workRecordColumns + `
		FROM work_records
		WHERE student_id = ?
		ORDER BY start_date
	`
	return queries{s.db}.queryWorkRecords(ctx, query, id)
}

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"liquidation_lines", "liquidations", "work_records", "students"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

var _ liquidation.Store = (*Store)(nil)

// =============================================================================
// SCANNING
// =============================================================================

func scanLiquidation(rows *sql.Rows) (liquidation.Liquidation, error) {
	var (
		liq                         liquidation.Liquidation
		start, end, target, mode    string
		targetDays, used, createdAt string
	)
	err := rows.Scan(
		&liq.ID, &start, &end, &target, &mode, &targetDays,
		&liq.TotalStudents, &liq.TotalJornadas, &used, &createdAt,
	)
	if err != nil {
		return liq, fmt.Errorf("failed to scan liquidation: %w", err)
	}
	if liq.Period, err = parsePeriod(start, end); err != nil {
		return liq, err
	}
	if err := parseAmounts(
		[]string{targetDays, used},
		[]*generic.Amount{&liq.TargetFTEDays, &liq.TotalFTEDaysUsed},
	); err != nil {
		return liq, err
	}
	liq.Target = liquidation.Target(target)
	liq.Mode = liquidation.Mode(mode)
	liq.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return liq, nil
}

func scanLine(rows *sql.Rows) (liquidation.Line, error) {
	var (
		line                          liquidation.Line
		opening, added, used, closing string
	)
	if err := rows.Scan(
		&line.LiquidationID, &line.StudentID, &opening, &added, &used, &closing, &line.Jornadas,
	); err != nil {
		return line, fmt.Errorf("failed to scan line: %w", err)
	}
	err := parseAmounts(
		[]string{opening, added, used, closing},
		[]*generic.Amount{&line.Opening, &line.Added, &line.Used, &line.Closing},
	)
	return line, err
}

func scanStudent(rows *sql.Rows) (liquidation.Student, error) {
	var (
		st        liquidation.Student
		email     sql.NullString
		createdAt string
	)
	if err := rows.Scan(&st.ID, &st.Name, &email, &createdAt); err != nil {
		return st, fmt.Errorf("failed to scan student: %w", err)
	}
	st.Email = email.String
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return st, nil
}

func scanWorkRecord(rows *sql.Rows) (liquidation.WorkRecord, error) {
	var (
		w                 liquidation.WorkRecord
		company, end      sql.NullString
		start, percentage string
		createdAt         string
	)
	if err := rows.Scan(&w.ID, &w.StudentID, &company, &start, &end, &percentage, &createdAt); err != nil {
		return w, fmt.Errorf("failed to scan work record: %w", err)
	}
	w.CompanyName = company.String

	var err error
	if w.Start, err = generic.ParseDate(start); err != nil {
		return w, err
	}
	if end.Valid {
		e, err := generic.ParseDate(end.String)
		if err != nil {
			return w, err
		}
		w.End = &e
	}
	if w.JornadaPercentage, err = decimal.NewFromString(percentage); err != nil {
		return w, fmt.Errorf("corrupt jornada_percentage %q: %w", percentage, err)
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return w, nil
}

// Helper functions

func parseAmount(value string) (generic.Amount, error) {
	a, err := generic.NewAmountFromString(value, generic.UnitFTEDays)
	if err != nil {
		return a, fmt.Errorf("corrupt amount %q: %w", value, err)
	}
	return a, nil
}

func parseAmounts(values []string, into []*generic.Amount) error {
	for i, v := range values {
		a, err := parseAmount(v)
		if err != nil {
			return err
		}
		*into[i] = a
	}
	return nil
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.Period{Start: s, End: e}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
