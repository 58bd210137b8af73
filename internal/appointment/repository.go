package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrStaleStatus means the compare-and-swap guard fired: the record's
	// status no longer matches the snapshot the transition was computed
	// from. Callers should refetch rather than retry blindly.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	List(ctx context.Context, filter ListFilter) ([]Appointment, error)

	Insert(ctx context.Context, appt Appointment) (*Appointment, error)

	// ApplyTransition persists the already-transitioned record, guarded by
	// the status the snapshot was read at. ErrStaleStatus when the guard
	// does not match.
	ApplyTransition(ctx context.Context, appt Appointment, from Status) (*Appointment, error)

	// Completion worker
	FindOverdueInProgress(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
