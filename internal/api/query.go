package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
)

func parseListFilter(r *http.Request) (appointment.ListFilter, error) {
	var filter appointment.ListFilter
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("from must be RFC3339")
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("to must be RFC3339")
		}
		filter.To = &t
	}
	if raw := q.Get("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("professional_id must be a valid UUID")
		}
		filter.ProfessionalID = &id
	}
	if raw := q.Get("service_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("service_id must be a valid UUID")
		}
		filter.ServiceID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := appointment.Status(raw)
		if !status.IsValid() {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = &status
	}

	return filter, nil
}
