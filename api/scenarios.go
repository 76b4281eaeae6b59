/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates students and work
	records, and optionally commits a first liquidation, to demonstrate a
	specific settlement behavior.

AVAILABLE SCENARIOS:

	full-time-student:  One full-time student, two six_months jornadas per year
	mixed-cohort:       Several part-time students, some short of a jornada
	pooled-cohort:      Two students short individually, enough pooled
	carry-forward:      A committed first settlement with remainders to carry

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create students
 3. Add work records
 4. Optionally execute a liquidation through the engine

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "carry-forward"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Liquidation and student handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "full-time-student",
		Name:        "Full-Time Student",
		Description: "One student at 100% since 2024-07-01; a year of workdays settles two six_months jornadas",
	},
	{
		ID:          "mixed-cohort",
		Name:        "Mixed Cohort",
		Description: "Students at 100%, 50% then 75%, and 20%; over one year individual mode leaves the 20% student ineligible",
	},
	{
		ID:          "pooled-cohort",
		Name:        "Pooled Cohort",
		Description: "Two part-time students since 2025-01-01; through 2025-06-30 neither reaches a jornada alone but the pool does",
	},
	{
		ID:          "carry-forward",
		Name:        "Carry Forward",
		Description: "2024-07-01..2025-06-30 already settled; the next preview starts 2025-07-01 with carried remainders",
	},
}

// scenarioStudent is a student with its work records.
type scenarioStudent struct {
	student liquidation.Student
	records []scenarioRecord
}

type scenarioRecord struct {
	company    string
	start      string
	end        string // empty = still active
	percentage int64
}

var scenarioData = map[string][]scenarioStudent{
	"full-time-student": {
		{
			student: liquidation.Student{ID: "stu-001", Name: "Lucía Fernández", Email: "lucia@example.com"},
			records: []scenarioRecord{{company: "Acme Ingeniería", start: "2024-07-01", percentage: 100}},
		},
	},
	"mixed-cohort": {
		{
			student: liquidation.Student{ID: "stu-001", Name: "Lucía Fernández", Email: "lucia@example.com"},
			records: []scenarioRecord{{company: "Acme Ingeniería", start: "2024-07-01", percentage: 100}},
		},
		{
			student: liquidation.Student{ID: "stu-002", Name: "Marc Puig", Email: "marc@example.com"},
			records: []scenarioRecord{
				{company: "Datalab", start: "2024-07-01", end: "2025-03-31", percentage: 50},
				{company: "Datalab", start: "2025-04-01", percentage: 75},
			},
		},
		{
			student: liquidation.Student{ID: "stu-003", Name: "Sara Gil", Email: "sara@example.com"},
			records: []scenarioRecord{{company: "Talleres Norte", start: "2024-09-01", percentage: 20}},
		},
	},
	"pooled-cohort": {
		{
			student: liquidation.Student{ID: "stu-001", Name: "Anna Vidal", Email: "anna@example.com"},
			records: []scenarioRecord{{company: "Biotec SL", start: "2025-01-01", percentage: 50}},
		},
		{
			student: liquidation.Student{ID: "stu-002", Name: "Pau Serra", Email: "pau@example.com"},
			records: []scenarioRecord{{company: "Biotec SL", start: "2025-01-01", percentage: 60}},
		},
	},
	"carry-forward": {
		{
			student: liquidation.Student{ID: "stu-001", Name: "Lucía Fernández", Email: "lucia@example.com"},
			records: []scenarioRecord{{company: "Acme Ingeniería", start: "2024-07-01", percentage: 100}},
		},
		{
			student: liquidation.Student{ID: "stu-002", Name: "Marc Puig", Email: "marc@example.com"},
			records: []scenarioRecord{{company: "Datalab", start: "2024-07-01", percentage: 80}},
		},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          current,
		Name:        current,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := scenarioData[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	if err := h.loadScenario(ctx, req.ScenarioID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.setScenario(req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) scenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	for _, s := range scenarioData[id] {
		if err := h.Store.CreateStudent(ctx, s.student); err != nil {
			return err
		}
		for i, rec := range s.records {
			record, err := rec.toWorkRecord(fmt.Sprintf("wr-%s-%d", s.student.ID, i+1), s.student.ID)
			if err != nil {
				return err
			}
			if err := h.Store.SaveWorkRecord(ctx, record); err != nil {
				return err
			}
		}
	}

	if id == "carry-forward" {
		return h.settleFirstYear(ctx)
	}
	return nil
}

// settleFirstYear commits 2024-07-01..2025-06-30 so the next preview carries
// the remainders forward.
func (h *Handler) settleFirstYear(ctx context.Context) error {
	params, err := liquidation.ParseParams("2024-07-01", "2025-06-30",
		string(liquidation.TargetSixMonths), string(liquidation.ModeIndividual))
	if err != nil {
		return err
	}
	_, err = h.Engine.Execute(ctx, params)
	return err
}

func (rec scenarioRecord) toWorkRecord(id string, student liquidation.StudentID) (liquidation.WorkRecord, error) {
	start, err := generic.ParseDate(rec.start)
	if err != nil {
		return liquidation.WorkRecord{}, err
	}
	w := liquidation.WorkRecord{
		ID:                id,
		StudentID:         student,
		CompanyName:       rec.company,
		Start:             start,
		JornadaPercentage: decimal.NewFromInt(rec.percentage),
	}
	if rec.end != "" {
		end, err := generic.ParseDate(rec.end)
		if err != nil {
			return w, err
		}
		w.End = &end
	}
	return w, nil
}
