package appointment

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func baseAppointment(t *testing.T, status Status) Appointment {
	t.Helper()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	appt := Appointment{
		ID:               uuid.New(),
		Start:            start,
		End:              start.Add(45 * time.Minute),
		DurationMinutes:  45,
		ClientID:         uuid.New(),
		ProfessionalID:   uuid.New(),
		ServiceID:        uuid.New(),
		ClientName:       "Maria Lopez",
		ProfessionalName: "Dr. Chen",
		ServiceName:      "Consultation",
		Status:           status,
	}
	if status == StatusCancelled {
		at := start.Add(-time.Hour)
		appt.CancelledAt = &at
	}
	return appt
}

func TestLegalActions_Table(t *testing.T) {
	cases := []struct {
		status Status
		want   []Action
	}{
		{StatusPending, []Action{ActionConfirm, ActionCancel, ActionReschedule}},
		{StatusConfirmed, []Action{ActionCancel, ActionCheckIn, ActionReschedule}},
		{StatusCheckedIn, []Action{ActionStart, ActionNoShow, ActionReschedule}},
		{StatusInProgress, []Action{ActionComplete, ActionReschedule}},
		{StatusRescheduled, []Action{ActionReschedule}},
		{StatusCompleted, []Action{}},
		{StatusCancelled, []Action{}},
		{StatusNoShow, []Action{}},
	}

	for _, tc := range cases {
		got := LegalActions(tc.status)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("LegalActions(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestLegalActions_TerminalStatusesEmpty(t *testing.T) {
	for _, s := range Statuses {
		if !s.IsTerminal() {
			continue
		}
		if got := LegalActions(s); len(got) != 0 {
			t.Errorf("LegalActions(%s) = %v, want empty", s, got)
		}
	}
}

func TestTransition_Confirm(t *testing.T) {
	appt := baseAppointment(t, StatusPending)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := Transition(appt, ActionConfirm, TransitionPayload{Now: now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Fatalf("expected status confirmed, got %s", got.Status)
	}
	if got.CancelledAt != nil {
		t.Fatalf("confirm must not touch cancellation metadata")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, got.UpdatedAt)
	}
}

func TestTransition_IllegalPairsRejectedWithoutMutation(t *testing.T) {
	for _, status := range Statuses {
		for _, action := range Actions {
			if _, ok := legalFrom(status, action); ok {
				continue
			}

			appt := baseAppointment(t, status)
			before := appt

			_, err := Transition(appt, action, TransitionPayload{
				Now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				NewStart: appt.Start.Add(24 * time.Hour),
			})

			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("Transition(%s, %s): expected InvalidTransitionError, got %v", status, action, err)
				continue
			}
			if invalid.From != status || invalid.Action != action {
				t.Errorf("Transition(%s, %s): error carries (%s, %s)", status, action, invalid.From, invalid.Action)
			}
			if !reflect.DeepEqual(appt, before) {
				t.Errorf("Transition(%s, %s): input mutated", status, action)
			}
		}
	}
}

func TestTransition_PendingStartIsInvalid(t *testing.T) {
	appt := baseAppointment(t, StatusPending)

	_, err := Transition(appt, ActionStart, TransitionPayload{Now: time.Now().UTC()})

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != StatusPending || invalid.Action != ActionStart {
		t.Fatalf("expected (pending, start), got (%s, %s)", invalid.From, invalid.Action)
	}
}

func TestTransition_CancelStampsMetadata(t *testing.T) {
	appt := baseAppointment(t, StatusConfirmed)
	now := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	got, err := Transition(appt, ActionCancel, TransitionPayload{
		Reason:      "client requested",
		CancelledBy: "reception",
		Now:         now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected status cancelled, got %s", got.Status)
	}
	if got.CancelledAt == nil || !got.CancelledAt.Equal(now) {
		t.Fatalf("expected CancelledAt %v, got %v", now, got.CancelledAt)
	}
	if got.CancelledBy != "reception" {
		t.Fatalf("expected CancelledBy reception, got %q", got.CancelledBy)
	}
	if got.CancellationReason != "client requested" {
		t.Fatalf("expected reason stored verbatim, got %q", got.CancellationReason)
	}
	if appt.CancelledAt != nil {
		t.Fatalf("input snapshot mutated")
	}
}

func TestTransition_CancelWithoutReasonStoresEmptyString(t *testing.T) {
	appt := baseAppointment(t, StatusPending)

	got, err := Transition(appt, ActionCancel, TransitionPayload{Now: time.Now().UTC()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CancellationReason != "" {
		t.Fatalf("expected empty reason, got %q", got.CancellationReason)
	}
	if got.CancelledAt == nil {
		t.Fatalf("expected CancelledAt to be stamped")
	}
}

func TestTransition_CancelledAtOnlySetByCancel(t *testing.T) {
	steps := []struct {
		status Status
		action Action
	}{
		{StatusPending, ActionConfirm},
		{StatusConfirmed, ActionCheckIn},
		{StatusCheckedIn, ActionStart},
		{StatusInProgress, ActionComplete},
		{StatusCheckedIn, ActionNoShow},
	}

	for _, step := range steps {
		appt := baseAppointment(t, step.status)
		got, err := Transition(appt, step.action, TransitionPayload{Now: time.Now().UTC()})
		if err != nil {
			t.Fatalf("Transition(%s, %s): %v", step.status, step.action, err)
		}
		if got.CancelledAt != nil {
			t.Errorf("Transition(%s, %s): CancelledAt set on non-cancel transition", step.status, step.action)
		}
	}
}

func TestTransition_ReschedulePreservesDuration(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusInProgress, StatusRescheduled} {
		appt := baseAppointment(t, status)
		wantDuration := appt.End.Sub(appt.Start)
		newStart := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

		got, err := Transition(appt, ActionReschedule, TransitionPayload{
			NewStart: newStart,
			Now:      time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("reschedule from %s: %v", status, err)
		}
		if got.Status != StatusRescheduled {
			t.Fatalf("reschedule from %s: expected status rescheduled, got %s", status, got.Status)
		}
		if !got.Start.Equal(newStart) {
			t.Fatalf("reschedule from %s: expected start %v, got %v", status, newStart, got.Start)
		}
		if got.End.Sub(got.Start) != wantDuration {
			t.Fatalf("reschedule from %s: duration changed from %v to %v", status, wantDuration, got.End.Sub(got.Start))
		}
	}
}

func TestTransition_RescheduleRequiresNewStart(t *testing.T) {
	appt := baseAppointment(t, StatusConfirmed)

	_, err := Transition(appt, ActionReschedule, TransitionPayload{Now: time.Now().UTC()})
	if !errors.Is(err, ErrRescheduleStart) {
		t.Fatalf("expected ErrRescheduleStart, got %v", err)
	}
}

func TestTransition_FullLifecycleToCompleted(t *testing.T) {
	appt := baseAppointment(t, StatusPending)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	for _, action := range []Action{ActionConfirm, ActionCheckIn, ActionStart, ActionComplete} {
		var err error
		appt, err = Transition(appt, action, TransitionPayload{Now: now})
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		now = now.Add(15 * time.Minute)
	}

	if appt.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", appt.Status)
	}
	if len(LegalActions(appt.Status)) != 0 {
		t.Fatalf("completed appointment must have no legal actions")
	}
}

func TestValidate(t *testing.T) {
	valid := baseAppointment(t, StatusConfirmed)
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid appointment, got %v", err)
	}

	noID := valid
	noID.ID = uuid.Nil
	if err := noID.Validate(); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}

	badStatus := valid
	badStatus.Status = Status("archived")
	if err := badStatus.Validate(); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}

	badDuration := valid
	badDuration.DurationMinutes = 0
	if err := badDuration.Validate(); !errors.Is(err, ErrNonPositiveDuration) {
		t.Errorf("expected ErrNonPositiveDuration, got %v", err)
	}

	inverted := valid
	inverted.End = inverted.Start.Add(-time.Minute)
	if err := inverted.Validate(); !errors.Is(err, ErrEndNotAfterStart) {
		t.Errorf("expected ErrEndNotAfterStart, got %v", err)
	}

	orphanStamp := valid
	at := time.Now().UTC()
	orphanStamp.CancelledAt = &at
	if err := orphanStamp.Validate(); !errors.Is(err, ErrCancellationMetadata) {
		t.Errorf("expected ErrCancellationMetadata, got %v", err)
	}
}
