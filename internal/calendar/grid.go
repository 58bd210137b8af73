package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
)

const (
	DefaultDayStartHour = 8
	DefaultDayEndHour   = 20
	DefaultSlotMinutes  = 60
)

// ConfigurationError reports a slot resolution that does not evenly divide
// the visible day window. The configuration is unusable; it is rejected at
// construction time rather than silently truncated.
type ConfigurationError struct {
	DayStartHour int
	DayEndHour   int
	SlotMinutes  int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("calendar: %d-minute slots do not fit the %02d:00-%02d:00 window",
		e.SlotMinutes, e.DayStartHour, e.DayEndHour)
}

// GridBuilder places appointments into a day x time-slot grid. It holds
// only the window configuration; every Build call recomputes the grid from
// the full appointment list, so there is no state to go stale.
type GridBuilder struct {
	dayStartHour int
	dayEndHour   int
	slotMinutes  int
	slotLabels   []string
}

// NewGridBuilder validates the window configuration once. The slot
// resolution must be positive and evenly divide the day window.
func NewGridBuilder(dayStartHour, dayEndHour, slotMinutes int) (*GridBuilder, error) {
	if dayStartHour < 0 || dayEndHour > 24 || dayEndHour <= dayStartHour || slotMinutes <= 0 {
		return nil, &ConfigurationError{DayStartHour: dayStartHour, DayEndHour: dayEndHour, SlotMinutes: slotMinutes}
	}

	windowMinutes := (dayEndHour - dayStartHour) * 60
	if windowMinutes%slotMinutes != 0 {
		return nil, &ConfigurationError{DayStartHour: dayStartHour, DayEndHour: dayEndHour, SlotMinutes: slotMinutes}
	}

	b := &GridBuilder{
		dayStartHour: dayStartHour,
		dayEndHour:   dayEndHour,
		slotMinutes:  slotMinutes,
	}

	// Slot labels run from the window start to the window end inclusive,
	// e.g. "08:00" through "20:00" for the default hourly resolution.
	for m := 0; m <= windowMinutes; m += slotMinutes {
		total := dayStartHour*60 + m
		b.slotLabels = append(b.slotLabels, fmt.Sprintf("%02d:%02d", total/60, total%60))
	}

	return b, nil
}

// SlotLabels returns the ordered labels of every slot in the daily window.
func (b *GridBuilder) SlotLabels() []string {
	out := make([]string, len(b.slotLabels))
	copy(out, b.slotLabels)
	return out
}

// Filters narrows which appointments are placed. The professional filter
// is applied first, then the search term. Search matches case-insensitively
// against the denormalized client, service, and professional names.
type Filters struct {
	ProfessionalID *uuid.UUID
	Search         string
}

func (f Filters) match(a appointment.Appointment) bool {
	if f.ProfessionalID != nil && a.ProfessionalID != *f.ProfessionalID {
		return false
	}
	term := strings.TrimSpace(f.Search)
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.ClientName), term) ||
		strings.Contains(strings.ToLower(a.ServiceName), term) ||
		strings.Contains(strings.ToLower(a.ProfessionalName), term)
}

// CellKey addresses one grid cell by visible-day index and slot index.
type CellKey struct {
	Day  int
	Slot int
}

// Grid is the derived (day, slot) -> appointments structure. It owns
// nothing: cells hold the appointments in input order and the whole value
// is recomputed on every Build call.
type Grid struct {
	Days       []time.Time
	SlotLabels []string
	cells      map[CellKey][]appointment.Appointment
}

// Cell returns the ordered appointments placed at (day, slot). An empty
// cell is valid and returns nil.
func (g *Grid) Cell(day, slot int) []appointment.Appointment {
	return g.cells[CellKey{Day: day, Slot: slot}]
}

// Total returns how many appointments were placed anywhere in the grid.
func (g *Grid) Total() int {
	n := 0
	for _, appts := range g.cells {
		n += len(appts)
	}
	return n
}

// Build places every appointment that passes the filters and whose
// calendar date falls on one of the visible days. Placement truncates the
// start time down to the slot boundary, so a 09:15 start lands in the
// 09:00 slot at the default resolution. Appointments outside the window or
// failing a filter are simply absent; an all-empty grid is never an error.
func (b *GridBuilder) Build(appointments []appointment.Appointment, days []time.Time, filters Filters) *Grid {
	grid := &Grid{
		Days:       append([]time.Time(nil), days...),
		SlotLabels: b.SlotLabels(),
		cells:      make(map[CellKey][]appointment.Appointment),
	}

	for _, appt := range appointments {
		if !filters.match(appt) {
			continue
		}

		dayIdx, ok := dayIndex(days, appt.Start)
		if !ok {
			continue
		}

		slotIdx, ok := b.slotIndex(appt.Start)
		if !ok {
			continue
		}

		key := CellKey{Day: dayIdx, Slot: slotIdx}
		grid.cells[key] = append(grid.cells[key], appt)
	}

	return grid
}

// slotIndex maps a start time to its slot by truncating the minutes since
// the window start down to the slot boundary.
func (b *GridBuilder) slotIndex(start time.Time) (int, bool) {
	minutes := start.Hour()*60 + start.Minute()
	windowStart := b.dayStartHour * 60
	windowEnd := b.dayEndHour * 60

	if minutes < windowStart || minutes > windowEnd+b.slotMinutes-1 {
		return 0, false
	}

	idx := (minutes - windowStart) / b.slotMinutes
	if idx >= len(b.slotLabels) {
		idx = len(b.slotLabels) - 1
	}
	return idx, true
}

// dayIndex buckets by calendar-date equality, never timestamp equality, so
// 23:59 and 00:01 the next day can never share a bucket.
func dayIndex(days []time.Time, t time.Time) (int, bool) {
	for i, d := range days {
		if sameDate(d, t) {
			return i, true
		}
	}
	return 0, false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekOf returns the Monday on or before date followed by the remaining
// six days of that week, all at midnight in date's location.
func WeekOf(date time.Time) []time.Time {
	year, month, day := date.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, date.Location())

	offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	monday := midnight.AddDate(0, 0, -offset)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// PositionPercent maps now's time of day onto the visible window as a
// percentage in [0,100]. ok is false whenever now's hour falls outside the
// window. The value is day-agnostic; the caller decides whether today is
// in the visible week before drawing the marker.
func (b *GridBuilder) PositionPercent(now time.Time) (float64, bool) {
	hour := now.Hour()
	if hour < b.dayStartHour || hour > b.dayEndHour {
		return 0, false
	}

	elapsed := float64((hour-b.dayStartHour)*60+now.Minute()) + float64(now.Second())/60
	total := float64((b.dayEndHour - b.dayStartHour) * 60)

	pct := 100 * elapsed / total
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
