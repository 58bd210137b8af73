package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable covers any failure to reach the availability service or
// to get a usable answer from it. Callers must treat it as "cannot confirm
// safety" and block the transition that requested the check, never assume
// success.
var ErrUnavailable = errors.New("availability service unavailable")

// Slot is one free booking window proposed by the availability service.
type Slot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Available       bool
}

// Conflict is an opaque descriptor produced by the conflict detector. The
// engine surfaces it as-is and never tries to resolve or override it.
type Conflict struct {
	Code    string
	Message string
}

type ConflictReport struct {
	HasConflicts bool
	Conflicts    []Conflict
}

// Candidate is the minimal shape the conflict detector needs to judge a
// proposed booking window.
type Candidate struct {
	AppointmentID  uuid.UUID
	ProfessionalID uuid.UUID
	ServiceID      uuid.UUID
	Start          time.Time
	End            time.Time
}

// Client is the narrow contract this engine consumes. The actual free-slot
// and conflict computation lives on the remote side; nothing here
// reimplements it.
type Client interface {
	QueryAvailability(ctx context.Context, professionalID uuid.UUID, date time.Time, serviceID *uuid.UUID) ([]Slot, error)
	DetectConflicts(ctx context.Context, candidate Candidate) (ConflictReport, error)
}
