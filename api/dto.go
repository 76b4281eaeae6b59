/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  FTE-day fields are JSON numbers converted from decimals at the edge. The
  engine keeps full decimal precision internally and in the store; the UI
  renders them to 2 decimal places.

DATES:
  Always "YYYY-MM-DD". Timestamps (created_at) are RFC3339.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/liquidation-engine/generic"
	"github.com/warp/liquidation-engine/liquidation"
)

// =============================================================================
// LIQUIDATIONS
// =============================================================================

// LiquidationDTO is a liquidation summary.
type LiquidationDTO struct {
	ID               string  `json:"id"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Target           string  `json:"target"`
	Mode             string  `json:"mode"`
	TargetFTEDays    float64 `json:"target_fte_days"`
	TotalStudents    int     `json:"total_students"`
	TotalJornadas    int64   `json:"total_jornadas"`
	TotalFTEDaysUsed float64 `json:"total_fte_days_used"`
	CreatedAt        string  `json:"created_at"`
}

// LineDTO is one student's line within a liquidation.
type LineDTO struct {
	StudentID         string  `json:"student_id"`
	StudentName       string  `json:"student_name,omitempty"`
	OpeningFTEDays    float64 `json:"opening_fte_days"`
	AddedFTEDays      float64 `json:"added_fte_days"`
	UsedFTEDays       float64 `json:"used_fte_days"`
	ClosingFTEDays    float64 `json:"closing_fte_days"`
	JornadasGenerated int64   `json:"jornadas_generated"`
}

// LiquidationDetailsResponse is returned by GET /liquidations/{id} and POST /liquidations.
type LiquidationDetailsResponse struct {
	Liquidation LiquidationDTO `json:"liquidation"`
	Lines       []LineDTO      `json:"lines"`
}

// ExecuteRequest is the body of POST /liquidations.
type ExecuteRequest struct {
	EndDate   string `json:"end_date"`
	StartDate string `json:"start_date,omitempty"`
	Target    string `json:"target"`
	Mode      string `json:"mode"`
}

// PreviewStudentDTO is one student's row in a preview.
type PreviewStudentDTO struct {
	StudentID        string  `json:"student_id"`
	StudentName      string  `json:"student_name,omitempty"`
	OpeningFTEDays   float64 `json:"opening_fte_days"`
	AddedFTEDays     float64 `json:"added_fte_days"`
	AvailableFTEDays float64 `json:"available_fte_days"`
	Eligible         bool    `json:"eligible"`
	JornadasPossible int64   `json:"jornadas_possible"`
	UsedFTEDays      float64 `json:"used_fte_days"`
	ClosingFTEDays   float64 `json:"closing_fte_days"`
}

// PreviewResponse is returned by GET /liquidations/preview.
type PreviewResponse struct {
	StartDate             string              `json:"start_date"`
	EndDate               string              `json:"end_date"`
	Target                string              `json:"target"`
	Mode                  string              `json:"mode"`
	TargetFTEDays         float64             `json:"target_fte_days"`
	Students              []PreviewStudentDTO `json:"students"`
	TotalStudents         int                 `json:"total_students"`
	TotalAvailableFTEDays float64             `json:"total_available_fte_days"`
	TotalJornadas         int64               `json:"total_jornadas"`
	TotalUsedFTEDays      float64             `json:"total_used_fte_days"`
	TotalRemainderFTEDays float64             `json:"total_remainder_fte_days"`
	CanExecute            bool                `json:"can_execute"`
}

// =============================================================================
// STUDENTS & WORK RECORDS
// =============================================================================

type StudentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateStudentRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type WorkRecordDTO struct {
	ID                string  `json:"id"`
	StudentID         string  `json:"student_id"`
	CompanyName       string  `json:"company_name,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           *string `json:"end_date,omitempty"`
	JornadaPercentage float64 `json:"jornada_percentage"`
}

type CreateWorkRecordRequest struct {
	ID                string  `json:"id,omitempty"`
	CompanyName       string  `json:"company_name"`
	StartDate         string  `json:"start_date"`
	EndDate           *string `json:"end_date,omitempty"`
	JornadaPercentage float64 `json:"jornada_percentage"`
}

// StudentBalanceResponse is a student's carried balance and settlement history.
type StudentBalanceResponse struct {
	StudentID      string              `json:"student_id"`
	ClosingFTEDays float64             `json:"closing_fte_days"`
	History        []StudentHistoryDTO `json:"history"`
}

type StudentHistoryDTO struct {
	LiquidationID string `json:"liquidation_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Target        string `json:"target"`
	Mode          string `json:"mode"`
	LineDTO
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLiquidationDTO(l liquidation.Liquidation) LiquidationDTO {
	return LiquidationDTO{
		ID:               l.ID,
		StartDate:        l.Period.Start.String(),
		EndDate:          l.Period.End.String(),
		Target:           string(l.Target),
		Mode:             string(l.Mode),
		TargetFTEDays:    l.TargetFTEDays.Float64(),
		TotalStudents:    l.TotalStudents,
		TotalJornadas:    l.TotalJornadas,
		TotalFTEDaysUsed: l.TotalFTEDaysUsed.Float64(),
		CreatedAt:        l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toLineDTO(l liquidation.Line, names map[liquidation.StudentID]string) LineDTO {
	return LineDTO{
		StudentID:         string(l.StudentID),
		StudentName:       names[l.StudentID],
		OpeningFTEDays:    l.Opening.Float64(),
		AddedFTEDays:      l.Added.Float64(),
		UsedFTEDays:       l.Used.Float64(),
		ClosingFTEDays:    l.Closing.Float64(),
		JornadasGenerated: l.Jornadas,
	}
}

func toDetailsResponse(d *liquidation.Details, names map[liquidation.StudentID]string) LiquidationDetailsResponse {
	lines := make([]LineDTO, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, toLineDTO(l, names))
	}
	return LiquidationDetailsResponse{Liquidation: toLiquidationDTO(d.Liquidation), Lines: lines}
}

func toPreviewResponse(r *liquidation.Result, names map[liquidation.StudentID]string) PreviewResponse {
	students := make([]PreviewStudentDTO, 0, len(r.Students))
	for _, s := range r.Students {
		students = append(students, PreviewStudentDTO{
			StudentID:        string(s.StudentID),
			StudentName:      names[s.StudentID],
			OpeningFTEDays:   s.Opening.Float64(),
			AddedFTEDays:     s.Added.Float64(),
			AvailableFTEDays: s.Available.Float64(),
			Eligible:         s.Eligible,
			JornadasPossible: s.JornadasPossible,
			UsedFTEDays:      s.Used.Float64(),
			ClosingFTEDays:   s.Closing.Float64(),
		})
	}
	return PreviewResponse{
		StartDate:             r.Period.Start.String(),
		EndDate:               r.Period.End.String(),
		Target:                string(r.Target),
		Mode:                  string(r.Mode),
		TargetFTEDays:         r.TargetFTEDays.Float64(),
		Students:              students,
		TotalStudents:         r.TotalStudents(),
		TotalAvailableFTEDays: r.TotalAvailable.Float64(),
		TotalJornadas:         r.TotalJornadas,
		TotalUsedFTEDays:      r.TotalUsed.Float64(),
		TotalRemainderFTEDays: r.TotalRemainder.Float64(),
		CanExecute:            r.TotalJornadas >= 1,
	}
}

func toStudentDTO(s liquidation.Student) StudentDTO {
	return StudentDTO{
		ID:        string(s.ID),
		Name:      s.Name,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toWorkRecordDTO(w liquidation.WorkRecord) WorkRecordDTO {
	dto := WorkRecordDTO{
		ID:                w.ID,
		StudentID:         string(w.StudentID),
		CompanyName:       w.CompanyName,
		StartDate:         w.Start.String(),
		JornadaPercentage: w.JornadaPercentage.InexactFloat64(),
	}
	if w.End != nil {
		end := w.End.String()
		dto.EndDate = &end
	}
	return dto
}

func toHistoryDTO(l liquidation.StudentLine) StudentHistoryDTO {
	return StudentHistoryDTO{
		LiquidationID: l.LiquidationID,
		StartDate:     l.Period.Start.String(),
		EndDate:       l.Period.End.String(),
		Target:        string(l.Target),
		Mode:          string(l.Mode),
		LineDTO:       toLineDTO(l.Line, nil),
	}
}

// parseOptionalDate parses a YYYY-MM-DD pointer; nil stays nil.
func parseOptionalDate(field string, s *string) (*generic.TimePoint, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	tp, err := generic.ParseDate(*s)
	if err != nil {
		return nil, &generic.ValidationError{Field: field, Value: *s, Err: err}
	}
	return &tp, nil
}
