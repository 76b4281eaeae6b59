/*
handlers.go - HTTP API handlers for the liquidation engine

PURPOSE:
  Exposes the liquidation engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the liquidation package.

ENDPOINTS:
  Liquidations:
    GET    /api/liquidations                  List committed liquidations
    GET    /api/liquidations/preview          Preview (read-only)
    POST   /api/liquidations                  Execute and commit
    GET    /api/liquidations/{id}             Liquidation with its lines
    GET    /api/liquidations/{id}/export      Download as xlsx or pdf

  Students:
    GET    /api/students                      List students
    POST   /api/students                      Create student
    GET    /api/students/{id}                 Get student
    GET    /api/students/{id}/work-records    List work records
    POST   /api/students/{id}/work-records    Add work record
    GET    /api/students/{id}/balance         Carried balance and history

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    POST   /api/scenarios/load                Load a demo scenario
    POST   /api/scenarios/reset               Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (students, work records, history)
  - Engine: Preview / execute, shared with the scheduler

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Overlapping range, execution in flight, duplicate
  - 422: Nothing to settle
  - 503: Accrual data unavailable
  - 500: Persistence / internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - export.go: Spreadsheet and PDF rendering
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
	"github.com/warp/liquidation-engine/metrics"
	"github.com/warp/liquidation-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *liquidation.Engine

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: liquidation.NewEngine(store, liquidation.WorkdayAccounting{}),
	}
}

// =============================================================================
// LIQUIDATION HANDLERS
// =============================================================================

// ListLiquidations returns committed liquidations, newest first.
func (h *Handler) ListLiquidations(w http.ResponseWriter, r *http.Request) {
	liquidations, err := h.Engine.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list liquidations", err)
		return
	}

	dtos := make([]LiquidationDTO, len(liquidations))
	for i, l := range liquidations {
		dtos[i] = toLiquidationDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PreviewLiquidation computes a settlement without persisting it.
// Query: end_date, target, mode (required) and start_date (optional).
func (h *Handler) PreviewLiquidation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	params, err := liquidation.ParseParams(
		q.Get("start_date"),
		q.Get("end_date"),
		q.Get("target"),
		q.Get("mode"),
	)
	if err != nil {
		metrics.ObservePreview(metrics.ResultRejected, time.Since(start))
		writeError(w, http.StatusBadRequest, "Invalid preview parameters", err)
		return
	}

	result, err := h.Engine.Preview(r.Context(), params)
	if err != nil {
		metrics.ObservePreview(resultLabel(err), time.Since(start))
		writeEngineError(w, "Preview failed", err)
		return
	}
	metrics.ObservePreview(metrics.ResultSuccess, time.Since(start))

	writeJSON(w, http.StatusOK, toPreviewResponse(result, h.studentNames(r.Context())))
}

// ExecuteLiquidation recomputes and commits a settlement.
func (h *Handler) ExecuteLiquidation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveExecute(metrics.ResultRejected, time.Since(start))
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	params, err := liquidation.ParseParams(
		req.StartDate,
		req.EndDate,
		req.Target,
		req.Mode,
	)
	if err != nil {
		metrics.ObserveExecute(metrics.ResultRejected, time.Since(start))
		writeError(w, http.StatusBadRequest, "Invalid liquidation parameters", err)
		return
	}

	details, err := h.Engine.Execute(r.Context(), params)
	if err != nil {
		metrics.ObserveExecute(resultLabel(err), time.Since(start))
		writeEngineError(w, "Liquidation failed", err)
		return
	}
	metrics.ObserveExecute(metrics.ResultSuccess, time.Since(start))
	metrics.AddJornadas(string(details.Liquidation.Mode), details.Liquidation.TotalJornadas)

	writeJSON(w, http.StatusCreated, toDetailsResponse(details, h.studentNames(r.Context())))
}

// GetLiquidation returns a liquidation with its lines.
func (h *Handler) GetLiquidation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get liquidation", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsResponse(details, h.studentNames(r.Context())))
}

// ExportLiquidation renders a liquidation as a download.
// Query: format=xlsx (default) or format=pdf.
func (h *Handler) ExportLiquidation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := withDefault(r.URL.Query().Get("format"), FormatXLSX)

	var (
		contentType string
		build       func(*liquidation.Details, map[liquidation.StudentID]string) ([]byte, error)
	)
	switch format {
	case FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		build = BuildLiquidationXLSX
	case FormatPDF:
		contentType = "application/pdf"
		build = BuildLiquidationPDF
	default:
		metrics.ObserveExport("unknown", metrics.ResultRejected)
		writeError(w, http.StatusBadRequest, "Invalid format", fmt.Errorf("unknown format %q (use xlsx or pdf)", format))
		return
	}

	details, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		metrics.ObserveExport(format, resultLabel(err))
		writeEngineError(w, "Failed to get liquidation", err)
		return
	}

	body, err := build(details, h.studentNames(r.Context()))
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError)
		writeError(w, http.StatusInternalServerError, "Failed to render export", err)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess)

	filename := fmt.Sprintf("liquidation-%s.%s", details.Liquidation.Period.End, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := liquidation.StudentID(chi.URLParam(r, "id"))

	student, ok := h.lookupStudent(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// lookupStudent writes 404 (or 500) and returns false when the student
// cannot be loaded.
func (h *Handler) lookupStudent(w http.ResponseWriter, r *http.Request, id liquidation.StudentID) (*liquidation.Student, bool) {
	student, err := h.Store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return nil, false
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return nil, false
	}
	return student, true
}

// CreateStudent registers a student. ID is generated when omitted.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	student := liquidation.Student{
		ID:        liquidation.StudentID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateStudent(r.Context(), student); err != nil {
		writeEngineError(w, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

// ListWorkRecords returns a student's work records.
func (h *Handler) ListWorkRecords(w http.ResponseWriter, r *http.Request) {
	id := liquidation.StudentID(chi.URLParam(r, "id"))
	if _, ok := h.lookupStudent(w, r, id); !ok {
		return
	}

	records, err := h.Store.WorkRecordsByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list work records", err)
		return
	}

	dtos := make([]WorkRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toWorkRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorkRecord adds a contract to a student.
func (h *Handler) CreateWorkRecord(w http.ResponseWriter, r *http.Request) {
	studentID := liquidation.StudentID(chi.URLParam(r, "id"))

	var req CreateWorkRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	record := liquidation.WorkRecord{
		ID:                req.ID,
		StudentID:         studentID,
		CompanyName:       req.CompanyName,
		Start:             start,
		End:               end,
		JornadaPercentage: decimal.NewFromFloat(req.JornadaPercentage),
		CreatedAt:         time.Now().UTC(),
	}
	if err := h.Store.SaveWorkRecord(r.Context(), record); err != nil {
		writeEngineError(w, "Failed to create work record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkRecordDTO(record))
}

// GetStudentBalance returns the carried balance and settlement history.
func (h *Handler) GetStudentBalance(w http.ResponseWriter, r *http.Request) {
	id := liquidation.StudentID(chi.URLParam(r, "id"))
	if _, ok := h.lookupStudent(w, r, id); !ok {
		return
	}

	closing, lines, err := h.Engine.StudentBalance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get balance", err)
		return
	}

	history := make([]StudentHistoryDTO, len(lines))
	for i, l := range lines {
		history[i] = toHistoryDTO(l)
	}
	writeJSON(w, http.StatusOK, StudentBalanceResponse{
		StudentID:      string(id),
		ClosingFTEDays: closing.Float64(),
		History:        history,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case liquidation.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case liquidation.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, liquidation.ErrNothingToSettle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, liquidation.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if errors.Is(err, liquidation.ErrConcurrentLiquidationInProgress) {
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, status, message, err)
}

// resultLabel classifies an error for metrics.
func resultLabel(err error) string {
	if statusFor(err) < http.StatusInternalServerError {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// studentNames returns display names; a failed lookup only drops names.
func (h *Handler) studentNames(ctx context.Context) map[liquidation.StudentID]string {
	names := make(map[liquidation.StudentID]string)
	students, err := h.Store.ListStudents(ctx)
	if err != nil {
		return names
	}
	for _, s := range students {
		names[s.ID] = s.Name
	}
	return names
}
