package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/availability"
	redisclient "github.com/bookline/scheduling/internal/redis"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentTransitioned  = "APPOINTMENT_TRANSITIONED"
	EventAppointmentAutoCompleted = "APPOINTMENT_AUTO_COMPLETED"
)

var (
	ErrBeingModified       = errors.New("appointment is currently being modified, please retry")
	ErrConflictDetected    = errors.New("requested time conflicts with an existing booking")
	ErrInvalidInitialState = errors.New("invalid initial status for a new appointment")
)

// Service glues the pure lifecycle engine to storage, locking, and the
// availability collaborator. All status writes flow through the transition
// function; nothing here assigns a status directly.
type Service struct {
	repo      Repository
	locker    redisclient.Locker
	conflicts availability.Client
}

func NewService(repo Repository, locker redisclient.Locker, conflicts availability.Client) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		conflicts: conflicts,
	}
}

// CreateParams describes a booking arriving from the outside. End is
// always derived from Start and DurationMinutes, never accepted as input.
type CreateParams struct {
	Start           time.Time
	DurationMinutes int

	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	ServiceID      uuid.UUID

	ClientName       string
	ProfessionalName string
	ServiceName      string

	// InitialStatus defaults to pending. Walk-ins may start at confirmed
	// or checked_in; that choice belongs to the booking operation, not to
	// the lifecycle engine.
	InitialStatus Status
	IsWalkIn      bool

	RequiresConfirmation bool
	Notes                string
	InternalNotes        string

	// CheckConflicts opts into the remote conflict check. When set, a
	// collaborator failure blocks the creation instead of letting it
	// proceed unverified.
	CheckConflicts bool
}

func (p CreateParams) initialStatus() (Status, error) {
	switch p.InitialStatus {
	case "", StatusPending:
		return StatusPending, nil
	case StatusConfirmed, StatusCheckedIn:
		if !p.IsWalkIn {
			return "", ErrInvalidInitialState
		}
		return p.InitialStatus, nil
	default:
		return "", ErrInvalidInitialState
	}
}

func (s *Service) CreateAppointment(ctx context.Context, params CreateParams) (*Appointment, error) {
	initial, err := params.initialStatus()
	if err != nil {
		return nil, err
	}

	appt := Appointment{
		ID:                   uuid.New(),
		Start:                params.Start,
		End:                  params.Start.Add(time.Duration(params.DurationMinutes) * time.Minute),
		DurationMinutes:      params.DurationMinutes,
		ClientID:             params.ClientID,
		ProfessionalID:       params.ProfessionalID,
		ServiceID:            params.ServiceID,
		ClientName:           params.ClientName,
		ProfessionalName:     params.ProfessionalName,
		ServiceName:          params.ServiceName,
		Status:               initial,
		IsWalkIn:             params.IsWalkIn,
		RequiresConfirmation: params.RequiresConfirmation,
		Notes:                params.Notes,
		InternalNotes:        params.InternalNotes,
	}

	if err := appt.Validate(); err != nil {
		return nil, err
	}

	if params.CheckConflicts {
		if err := s.requireNoConflicts(ctx, appt); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.Insert(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"professional_id": created.ProfessionalID.String(),
		"client_id":       created.ClientID.String(),
		"start":           created.Start,
		"status":          string(created.Status),
	})

	return created, nil
}

// ActionParams carries the optional inputs of a lifecycle action.
type ActionParams struct {
	Reason      string
	CancelledBy string
	NewStart    time.Time

	// CheckConflicts applies to reschedule only: the candidate window is
	// cleared with the conflict collaborator before the transition runs.
	CheckConflicts bool
}

// ApplyTransition runs one lifecycle action against the stored record. The
// per-appointment lock serializes concurrent actors; the storage guard
// rejects the write if the status moved after our snapshot anyway.
func (s *Service) ApplyTransition(ctx context.Context, id uuid.UUID, action Action, params ActionParams) (*Appointment, error) {
	var updated *Appointment

	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		appt, err := s.repo.GetByID(lockCtx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}

		next, err := Transition(*appt, action, TransitionPayload{
			Reason:      params.Reason,
			CancelledBy: params.CancelledBy,
			NewStart:    params.NewStart,
			Now:         time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		// The transition has already validated legality and the new start,
		// so the collaborator is only consulted for moves that could land.
		if action == ActionReschedule && params.CheckConflicts {
			if err := s.requireNoConflicts(lockCtx, next); err != nil {
				return err
			}
		}

		persisted, err := s.repo.ApplyTransition(lockCtx, next, appt.Status)
		if err != nil {
			return fmt.Errorf("persist transition: %w", err)
		}

		updated = persisted

		s.logEvent(lockCtx, persisted.ID, EventAppointmentTransitioned, map[string]any{
			"action": string(action),
			"from":   string(appt.Status),
			"to":     string(persisted.Status),
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBeingModified
		}
		return nil, err
	}

	return updated, nil
}

// LegalActionsFor reports which actions are currently valid for the stored
// record. The same table guards ApplyTransition, so what this returns is
// exactly what will be accepted.
func (s *Service) LegalActionsFor(ctx context.Context, id uuid.UUID) ([]Action, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return LegalActions(appt.Status), nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// CompleteOverdue is intended to be called by the worker periodically. It
// completes in-progress appointments whose end passed more than grace ago,
// using the same legality table as every other status change.
func (s *Service) CompleteOverdue(ctx context.Context, now time.Time, grace time.Duration) error {
	overdue, err := s.repo.FindOverdueInProgress(ctx, now.Add(-grace))
	if err != nil {
		return fmt.Errorf("find overdue in-progress appointments: %w", err)
	}

	for _, appt := range overdue {
		next, err := Transition(appt, ActionComplete, TransitionPayload{Now: now})
		if err != nil {
			log.Printf("skip auto-complete for %s: %v", appt.ID, err)
			continue
		}
		if _, err := s.repo.ApplyTransition(ctx, next, appt.Status); err != nil {
			if !errors.Is(err, ErrStaleStatus) && !errors.Is(err, ErrAppointmentNotFound) {
				log.Printf("failed to auto-complete appointment %s: %v", appt.ID, err)
			}
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentAutoCompleted, map[string]any{
			"ended_at": appt.End,
		})
	}

	return nil
}

// requireNoConflicts blocks when the collaborator reports conflicts or
// cannot be reached. The engine never resolves conflicts itself.
func (s *Service) requireNoConflicts(ctx context.Context, candidate Appointment) error {
	report, err := s.conflicts.DetectConflicts(ctx, availability.Candidate{
		AppointmentID:  candidate.ID,
		ProfessionalID: candidate.ProfessionalID,
		ServiceID:      candidate.ServiceID,
		Start:          candidate.Start,
		End:            candidate.End,
	})
	if err != nil {
		return fmt.Errorf("conflict check: %w", err)
	}
	if report.HasConflicts {
		return fmt.Errorf("%w: %d conflict(s) reported", ErrConflictDetected, len(report.Conflicts))
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
