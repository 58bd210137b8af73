package calendar

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
)

func mustBuilder(t *testing.T) *GridBuilder {
	t.Helper()
	b, err := NewGridBuilder(DefaultDayStartHour, DefaultDayEndHour, DefaultSlotMinutes)
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	return b
}

func at(t *testing.T, day time.Time, hour, min int) time.Time {
	t.Helper()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func testAppt(t *testing.T, start time.Time, professionalID uuid.UUID, clientName, serviceName, professionalName string) appointment.Appointment {
	t.Helper()
	return appointment.Appointment{
		ID:               uuid.New(),
		Start:            start,
		End:              start.Add(30 * time.Minute),
		DurationMinutes:  30,
		ClientID:         uuid.New(),
		ProfessionalID:   professionalID,
		ServiceID:        uuid.New(),
		ClientName:       clientName,
		ServiceName:      serviceName,
		ProfessionalName: professionalName,
		Status:           appointment.StatusConfirmed,
	}
}

func TestNewGridBuilder_SlotLabels(t *testing.T) {
	b := mustBuilder(t)

	labels := b.SlotLabels()
	if len(labels) != 13 {
		t.Fatalf("expected 13 slots for the 08:00-20:00 hourly window, got %d", len(labels))
	}
	if labels[0] != "08:00" {
		t.Fatalf("expected first label 08:00, got %s", labels[0])
	}
	if labels[12] != "20:00" {
		t.Fatalf("expected last label 20:00, got %s", labels[12])
	}
}

func TestNewGridBuilder_RejectsUnevenResolution(t *testing.T) {
	cases := []struct {
		startHour, endHour, slotMinutes int
	}{
		{8, 20, 50},
		{8, 20, 7},
		{9, 17, 90},
		{8, 20, 0},
		{8, 20, -15},
		{20, 8, 60},
	}

	for _, tc := range cases {
		_, err := NewGridBuilder(tc.startHour, tc.endHour, tc.slotMinutes)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("NewGridBuilder(%d, %d, %d): expected ConfigurationError, got %v",
				tc.startHour, tc.endHour, tc.slotMinutes, err)
		}
	}
}

func TestBuild_PlacesByTruncatedHour(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) // week of Mon 2026-03-02
	monday := days[0]

	onTheHour := testAppt(t, at(t, monday, 9, 0), uuid.New(), "Ana Silva", "Haircut", "Rui Costa")
	offsetStart := testAppt(t, at(t, monday, 9, 15), uuid.New(), "Ben Ito", "Massage", "Rui Costa")

	grid := b.Build([]appointment.Appointment{onTheHour, offsetStart}, days, Filters{})

	cell := grid.Cell(0, 1) // Monday, "09:00"
	if len(cell) != 2 {
		t.Fatalf("expected both appointments in the 09:00 cell, got %d", len(cell))
	}
	if cell[0].ID != onTheHour.ID || cell[1].ID != offsetStart.ID {
		t.Fatalf("expected input order preserved in cell")
	}
}

func TestBuild_ProfessionalFilterThenOrder(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	monday := days[0]

	profA := uuid.New()
	profB := uuid.New()

	a1 := testAppt(t, at(t, monday, 9, 0), profA, "Ana Silva", "Haircut", "Prof A")
	a2 := testAppt(t, at(t, monday, 9, 10), profA, "Ben Ito", "Trim", "Prof A")
	a3 := testAppt(t, at(t, monday, 9, 45), profA, "Cai Wong", "Color", "Prof A")
	other := testAppt(t, at(t, monday, 9, 0), profB, "Dora Epp", "Haircut", "Prof B")

	grid := b.Build([]appointment.Appointment{a1, other, a2, a3}, days, Filters{ProfessionalID: &profA})

	cell := grid.Cell(0, 1)
	if len(cell) != 3 {
		t.Fatalf("expected exactly the three professional-A appointments, got %d", len(cell))
	}
	wantOrder := []uuid.UUID{a1.ID, a2.ID, a3.ID}
	for i, want := range wantOrder {
		if cell[i].ID != want {
			t.Fatalf("cell order mismatch at %d", i)
		}
	}
	if grid.Total() != 3 {
		t.Fatalf("professional B must be absent under this filter, total=%d", grid.Total())
	}
}

func TestBuild_SearchIsCaseInsensitiveAcrossNames(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	monday := days[0]

	byClient := testAppt(t, at(t, monday, 10, 0), uuid.New(), "Maria Lopez", "Checkup", "Dr. Chen")
	byService := testAppt(t, at(t, monday, 11, 0), uuid.New(), "Ana Silva", "Deep Tissue Massage", "Dr. Chen")
	byProfessional := testAppt(t, at(t, monday, 12, 0), uuid.New(), "Ben Ito", "Checkup", "Dr. Massaro")
	noMatch := testAppt(t, at(t, monday, 13, 0), uuid.New(), "Cai Wong", "Consult", "Dr. Chen")

	grid := b.Build(
		[]appointment.Appointment{byClient, byService, byProfessional, noMatch},
		days,
		Filters{Search: "MASSA"},
	)

	if grid.Total() != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "MASSA", grid.Total())
	}
	if len(grid.Cell(0, 3)) != 1 || len(grid.Cell(0, 4)) != 1 {
		t.Fatalf("matches placed in wrong cells")
	}

	lopez := b.Build([]appointment.Appointment{byClient, noMatch}, days, Filters{Search: "lopez"})
	if lopez.Total() != 1 {
		t.Fatalf("expected client-name match, got %d", lopez.Total())
	}
}

func TestBuild_EveryInWindowAppointmentInExactlyOneCell(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	appts := []appointment.Appointment{
		testAppt(t, at(t, days[0], 8, 0), uuid.New(), "A", "S", "P"),
		testAppt(t, at(t, days[2], 14, 59), uuid.New(), "B", "S", "P"),
		testAppt(t, at(t, days[6], 20, 0), uuid.New(), "C", "S", "P"),
		testAppt(t, at(t, days[3], 7, 59), uuid.New(), "before window", "S", "P"),
		testAppt(t, at(t, days[3], 21, 0), uuid.New(), "after window", "S", "P"),
		testAppt(t, at(t, days[0].AddDate(0, 0, -1), 9, 0), uuid.New(), "previous week", "S", "P"),
		testAppt(t, at(t, days[6].AddDate(0, 0, 1), 9, 0), uuid.New(), "next week", "S", "P"),
	}

	grid := b.Build(appts, days, Filters{})

	if grid.Total() != 3 {
		t.Fatalf("expected exactly the 3 in-window appointments placed, got %d", grid.Total())
	}
	if len(grid.Cell(0, 0)) != 1 {
		t.Fatalf("expected Monday 08:00 occupied")
	}
	if len(grid.Cell(2, 6)) != 1 {
		t.Fatalf("expected Wednesday 14:00 occupied")
	}
	if len(grid.Cell(6, 12)) != 1 {
		t.Fatalf("expected Sunday 20:00 occupied")
	}
}

func TestBuild_EmptyInputsYieldEmptyGrid(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	grid := b.Build(nil, days, Filters{})
	if grid.Total() != 0 {
		t.Fatalf("expected empty grid for no appointments")
	}

	prof := uuid.New()
	appts := []appointment.Appointment{testAppt(t, at(t, days[0], 9, 0), uuid.New(), "A", "S", "P")}
	grid = b.Build(appts, days, Filters{ProfessionalID: &prof})
	if grid.Total() != 0 {
		t.Fatalf("expected empty grid when nothing matches the filter")
	}
}

func TestBuild_DateEqualityNotTimestampProximity(t *testing.T) {
	b, err := NewGridBuilder(0, 24, 60)
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	lateMonday := testAppt(t, at(t, days[0], 23, 59), uuid.New(), "A", "S", "P")
	earlyTuesday := testAppt(t, at(t, days[1], 0, 1), uuid.New(), "B", "S", "P")

	grid := b.Build([]appointment.Appointment{lateMonday, earlyTuesday}, days, Filters{})

	if len(grid.Cell(0, 23)) != 1 {
		t.Fatalf("expected 23:59 bucketed on Monday")
	}
	if len(grid.Cell(1, 0)) != 1 {
		t.Fatalf("expected 00:01 bucketed on Tuesday")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := mustBuilder(t)
	days := WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	appts := []appointment.Appointment{
		testAppt(t, at(t, days[0], 9, 0), uuid.New(), "A", "S", "P"),
		testAppt(t, at(t, days[0], 9, 30), uuid.New(), "B", "S", "P"),
		testAppt(t, at(t, days[4], 16, 0), uuid.New(), "C", "S", "P"),
	}

	first := b.Build(appts, days, Filters{})
	for i := 0; i < 10; i++ {
		again := b.Build(appts, days, Filters{})
		if again.Total() != first.Total() {
			t.Fatalf("grid totals diverged between runs")
		}
		for day := range days {
			for slot := range first.SlotLabels {
				a := first.Cell(day, slot)
				z := again.Cell(day, slot)
				if len(a) != len(z) {
					t.Fatalf("cell (%d,%d) diverged between runs", day, slot)
				}
				for j := range a {
					if a[j].ID != z[j].ID {
						t.Fatalf("cell (%d,%d) order diverged between runs", day, slot)
					}
				}
			}
		}
	}
}

func TestWeekOf_MondayStart(t *testing.T) {
	cases := []struct {
		date time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 2, 13, 45, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},  // a Monday
		{time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},    // Wednesday
		{time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},  // Sunday
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},    // next Monday
	}

	for _, tc := range cases {
		days := WeekOf(tc.date)
		if len(days) != 7 {
			t.Fatalf("WeekOf(%v): expected 7 days, got %d", tc.date, len(days))
		}
		if !days[0].Equal(tc.want) {
			t.Errorf("WeekOf(%v): expected week start %v, got %v", tc.date, tc.want, days[0])
		}
		if days[0].Weekday() != time.Monday {
			t.Errorf("WeekOf(%v): week start is %s, not Monday", tc.date, days[0].Weekday())
		}
		for i := 1; i < 7; i++ {
			if !days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
				t.Errorf("WeekOf(%v): days not consecutive at index %d", tc.date, i)
			}
		}
	}
}

func TestPositionPercent_Boundaries(t *testing.T) {
	b := mustBuilder(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		hour, min int
		want      float64
		ok        bool
	}{
		{7, 30, 0, false},
		{7, 59, 0, false},
		{8, 0, 0, true},
		{14, 0, 50, true},
		{20, 0, 100, true},
		{20, 59, 100, true}, // clamped
		{21, 0, 0, false},
		{0, 0, 0, false},
	}

	for _, tc := range cases {
		got, ok := b.PositionPercent(at(t, day, tc.hour, tc.min))
		if ok != tc.ok {
			t.Errorf("PositionPercent(%02d:%02d): ok=%v, want %v", tc.hour, tc.min, ok, tc.ok)
			continue
		}
		if ok && math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("PositionPercent(%02d:%02d) = %f, want %f", tc.hour, tc.min, got, tc.want)
		}
	}
}

func TestPositionPercent_DayAgnostic(t *testing.T) {
	b := mustBuilder(t)

	monday := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 7, 11, 0, 0, 0, time.UTC)

	gotMon, okMon := b.PositionPercent(monday)
	gotSat, okSat := b.PositionPercent(saturday)
	if !okMon || !okSat {
		t.Fatalf("expected both in-window")
	}
	if gotMon != gotSat {
		t.Fatalf("position must only encode time of day: %f vs %f", gotMon, gotSat)
	}
}
