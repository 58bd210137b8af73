package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
)

type CreateAppointmentRequest struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`

	ClientID       string `json:"client_id"`
	ProfessionalID string `json:"professional_id"`
	ServiceID      string `json:"service_id"`

	ClientName       string `json:"client_name"`
	ProfessionalName string `json:"professional_name"`
	ServiceName      string `json:"service_name"`

	InitialStatus        string `json:"initial_status,omitempty"`
	IsWalkIn             bool   `json:"is_walk_in"`
	RequiresConfirmation bool   `json:"requires_confirmation"`

	Notes         string `json:"notes,omitempty"`
	InternalNotes string `json:"internal_notes,omitempty"`

	CheckConflicts bool `json:"check_conflicts"`
}

type TransitionRequest struct {
	Action         string `json:"action"`
	Reason         string `json:"reason,omitempty"`
	CancelledBy    string `json:"cancelled_by,omitempty"`
	NewStart       string `json:"new_start,omitempty"`
	CheckConflicts bool   `json:"check_conflicts"`
}

type RescheduleRequest struct {
	NewStart       string `json:"new_start"`
	CheckConflicts bool   `json:"check_conflicts"`
}

type AppointmentResponse struct {
	ID uuid.UUID `json:"id"`

	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`

	ClientID       uuid.UUID `json:"client_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	ServiceID      uuid.UUID `json:"service_id"`

	ClientName       string `json:"client_name"`
	ProfessionalName string `json:"professional_name"`
	ServiceName      string `json:"service_name"`

	Status string `json:"status"`

	IsWalkIn             bool `json:"is_walk_in"`
	RequiresConfirmation bool `json:"requires_confirmation"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	Notes string `json:"notes,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                   a.ID,
		Start:                a.Start,
		End:                  a.End,
		DurationMinutes:      a.DurationMinutes,
		ClientID:             a.ClientID,
		ProfessionalID:       a.ProfessionalID,
		ServiceID:            a.ServiceID,
		ClientName:           a.ClientName,
		ProfessionalName:     a.ProfessionalName,
		ServiceName:          a.ServiceName,
		Status:               string(a.Status),
		IsWalkIn:             a.IsWalkIn,
		RequiresConfirmation: a.RequiresConfirmation,
		CancelledAt:          a.CancelledAt,
		CancelledBy:          a.CancelledBy,
		CancellationReason:   a.CancellationReason,
		Notes:                a.Notes,
	}
}

type LegalActionsResponse struct {
	Status  string   `json:"status"`
	Actions []string `json:"actions"`
}

type WeekGridResponse struct {
	WeekStart  string             `json:"week_start"`
	Days       []string           `json:"days"`
	SlotLabels []string           `json:"slot_labels"`
	Cells      []WeekGridCell     `json:"cells"`
	NowMarker  *NowMarkerResponse `json:"now_marker,omitempty"`
}

type WeekGridCell struct {
	Day          int                   `json:"day"`
	Slot         int                   `json:"slot"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type NowMarkerResponse struct {
	PositionPercent float64 `json:"position_percent"`
	DayIndex        int     `json:"day_index"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
