package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// HTTPClient talks to the remote availability service over its JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type slotResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
}

type conflictRequest struct {
	AppointmentID  uuid.UUID `json:"appointment_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	ServiceID      uuid.UUID `json:"service_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type conflictResponse struct {
	HasConflicts bool `json:"has_conflicts"`
	Conflicts    []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"conflicts"`
}

func (c *HTTPClient) QueryAvailability(ctx context.Context, professionalID uuid.UUID, date time.Time, serviceID *uuid.UUID) ([]Slot, error) {
	q := url.Values{}
	q.Set("professional_id", professionalID.String())
	q.Set("date", date.Format("2006-01-02"))
	if serviceID != nil {
		q.Set("service_id", serviceID.String())
	}

	endpoint := fmt.Sprintf("%s/availability?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var raw []slotResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	slots := make([]Slot, 0, len(raw))
	for _, s := range raw {
		slots = append(slots, Slot{
			Start:           s.Start,
			End:             s.End,
			DurationMinutes: s.DurationMinutes,
			Available:       s.Available,
		})
	}
	return slots, nil
}

func (c *HTTPClient) DetectConflicts(ctx context.Context, candidate Candidate) (ConflictReport, error) {
	payload, err := json.Marshal(conflictRequest{
		AppointmentID:  candidate.AppointmentID,
		ProfessionalID: candidate.ProfessionalID,
		ServiceID:      candidate.ServiceID,
		Start:          candidate.Start,
		End:            candidate.End,
	})
	if err != nil {
		return ConflictReport{}, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	endpoint := c.baseURL + "/conflicts"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ConflictReport{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ConflictReport{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return ConflictReport{}, fmt.Errorf("%w: unexpected status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var raw conflictResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ConflictReport{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	report := ConflictReport{HasConflicts: raw.HasConflicts}
	for _, c := range raw.Conflicts {
		report.Conflicts = append(report.Conflicts, Conflict{Code: c.Code, Message: c.Message})
	}
	return report, nil
}
