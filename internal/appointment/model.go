package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

// Statuses lists every known status in a fixed order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
	StatusRescheduled,
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is legal from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionCancel     Action = "cancel"
	ActionCheckIn    Action = "check_in"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionNoShow     Action = "no_show"
	ActionReschedule Action = "reschedule"
)

// Actions lists every known action in a fixed order.
var Actions = []Action{
	ActionConfirm,
	ActionCancel,
	ActionCheckIn,
	ActionStart,
	ActionComplete,
	ActionNoShow,
	ActionReschedule,
}

func (a Action) IsValid() bool {
	switch a {
	case ActionConfirm, ActionCancel, ActionCheckIn, ActionStart,
		ActionComplete, ActionNoShow, ActionReschedule:
		return true
	}
	return false
}

// Appointment links a client, a professional, and a service for a fixed
// time window. End is always Start plus DurationMinutes. The display name
// fields are denormalized onto the record at fetch time; the engine reads
// them but never recomputes them from the referenced entities.
type Appointment struct {
	ID uuid.UUID

	Start           time.Time
	End             time.Time
	DurationMinutes int

	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	ServiceID      uuid.UUID

	ClientName       string
	ProfessionalName string
	ServiceName      string

	Status Status

	IsWalkIn             bool
	RequiresConfirmation bool

	// Populated only by the cancel transition.
	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string

	Notes         string
	InternalNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the booked length of the appointment.
func (a Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// Validate checks the structural invariants that must hold for any
// materialized appointment, regardless of status.
func (a Appointment) Validate() error {
	if a.ID == uuid.Nil {
		return ErrMissingID
	}
	if !a.Status.IsValid() {
		return ErrUnknownStatus
	}
	if a.DurationMinutes <= 0 {
		return ErrNonPositiveDuration
	}
	if !a.End.After(a.Start) {
		return ErrEndNotAfterStart
	}
	if cancelled := a.Status == StatusCancelled; cancelled != (a.CancelledAt != nil) {
		return ErrCancellationMetadata
	}
	return nil
}

// ListFilter narrows an appointment listing. Nil fields are ignored.
type ListFilter struct {
	From           *time.Time
	To             *time.Time
	ProfessionalID *uuid.UUID
	ServiceID      *uuid.UUID
	Status         *Status
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
