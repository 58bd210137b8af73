package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/calendar"
)

// weekGridHandler serves the weekly day x slot grid. The appointment list
// is fetched for the visible week, then placed by the pure grid builder;
// the now marker is attached only when today falls inside that week.
func weekGridHandler(svc *appointment.Service, builder *calendar.GridBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		anchor := time.Now().UTC()
		if raw := q.Get("week_of"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_week_of", "week_of must be YYYY-MM-DD")
				return
			}
			anchor = parsed
		}

		filters := calendar.Filters{Search: q.Get("q")}
		if raw := q.Get("professional_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
				return
			}
			filters.ProfessionalID = &id
		}

		days := calendar.WeekOf(anchor)
		weekStart := days[0]
		weekEnd := weekStart.AddDate(0, 0, 7)

		appts, err := svc.ListAppointments(r.Context(), appointment.ListFilter{
			From: &weekStart,
			To:   &weekEnd,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		grid := builder.Build(appts, days, filters)

		resp := WeekGridResponse{
			WeekStart:  weekStart.Format("2006-01-02"),
			SlotLabels: grid.SlotLabels,
		}
		for _, d := range grid.Days {
			resp.Days = append(resp.Days, d.Format("2006-01-02"))
		}

		for day := range grid.Days {
			for slot := range grid.SlotLabels {
				cell := grid.Cell(day, slot)
				if len(cell) == 0 {
					continue
				}
				items := make([]AppointmentResponse, 0, len(cell))
				for i := range cell {
					items = append(items, toAppointmentResponse(&cell[i]))
				}
				resp.Cells = append(resp.Cells, WeekGridCell{
					Day:          day,
					Slot:         slot,
					Appointments: items,
				})
			}
		}

		now := time.Now().UTC()
		for i, d := range grid.Days {
			if d.Year() == now.Year() && d.Month() == now.Month() && d.Day() == now.Day() {
				if pct, ok := builder.PositionPercent(now); ok {
					resp.NowMarker = &NowMarkerResponse{PositionPercent: pct, DayIndex: i}
				}
				break
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
