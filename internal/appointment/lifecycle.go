package appointment

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingID            = errors.New("appointment id is required")
	ErrUnknownStatus        = errors.New("unknown appointment status")
	ErrUnknownAction        = errors.New("unknown appointment action")
	ErrNonPositiveDuration  = errors.New("appointment duration must be positive")
	ErrEndNotAfterStart     = errors.New("appointment end must be after start")
	ErrCancellationMetadata = errors.New("cancellation metadata must be set exactly when status is cancelled")
	ErrRescheduleStart      = errors.New("reschedule requires a new start time")
)

// InvalidTransitionError is returned whenever the legality table has no row
// for the attempted (status, action) pair. It carries both values so a
// caller can explain exactly what was rejected.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: action %q is not legal from status %q", e.Action, e.From)
}

// transitions is the single legality table. LegalActions and Transition
// both read it, so what is offered and what is accepted can never drift.
// Reschedule is legal from every non-terminal status and is handled
// separately in legalFrom.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionConfirm: StatusConfirmed,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionCheckIn: StatusCheckedIn,
		ActionCancel:  StatusCancelled,
	},
	StatusCheckedIn: {
		ActionStart:  StatusInProgress,
		ActionNoShow: StatusNoShow,
	},
	StatusInProgress: {
		ActionComplete: StatusCompleted,
	},
}

func legalFrom(s Status, a Action) (Status, bool) {
	if a == ActionReschedule {
		if s.IsTerminal() || !s.IsValid() {
			return "", false
		}
		return StatusRescheduled, true
	}
	to, ok := transitions[s][a]
	return to, ok
}

// LegalActions returns the set of actions currently legal for the given
// status, in the fixed order of Actions. Terminal statuses yield an empty
// set. This query is the single source of truth for which commands a
// caller may offer.
func LegalActions(s Status) []Action {
	out := make([]Action, 0, len(Actions))
	for _, a := range Actions {
		if _, ok := legalFrom(s, a); ok {
			out = append(out, a)
		}
	}
	return out
}

// TransitionPayload carries the optional inputs a transition may need.
// Now is stamped onto cancellation metadata and UpdatedAt; callers supply
// it explicitly so the engine stays deterministic.
type TransitionPayload struct {
	// Reason is stored verbatim on cancel; when omitted the stored reason
	// is the empty string, which downstream reporting distinguishes from
	// an absent field.
	Reason string

	// CancelledBy identifies the actor performing a cancel.
	CancelledBy string

	// NewStart is required for reschedule and ignored otherwise.
	NewStart time.Time

	Now time.Time
}

// Transition applies action to a snapshot of the appointment and returns
// the updated copy. The input is never mutated. Any (status, action) pair
// outside the legality table is rejected with *InvalidTransitionError;
// there is no silent no-op path.
func Transition(appt Appointment, action Action, payload TransitionPayload) (Appointment, error) {
	if !action.IsValid() {
		return appt, ErrUnknownAction
	}
	if !appt.Status.IsValid() {
		return appt, ErrUnknownStatus
	}

	to, ok := legalFrom(appt.Status, action)
	if !ok {
		return appt, &InvalidTransitionError{From: appt.Status, Action: action}
	}

	next := appt
	next.Status = to
	next.UpdatedAt = payload.Now

	switch action {
	case ActionCancel:
		at := payload.Now
		next.CancelledAt = &at
		next.CancelledBy = payload.CancelledBy
		next.CancellationReason = payload.Reason
	case ActionReschedule:
		if payload.NewStart.IsZero() {
			return appt, ErrRescheduleStart
		}
		next.Start = payload.NewStart
		next.End = payload.NewStart.Add(appt.Duration())
	}

	return next, nil
}
