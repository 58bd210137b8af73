package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/availability"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}
		professionalID, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), appointment.CreateParams{
			Start:                start,
			DurationMinutes:      req.DurationMinutes,
			ClientID:             clientID,
			ProfessionalID:       professionalID,
			ServiceID:            serviceID,
			ClientName:           req.ClientName,
			ProfessionalName:     req.ProfessionalName,
			ServiceName:          req.ServiceName,
			InitialStatus:        appointment.Status(req.InitialStatus),
			IsWalkIn:             req.IsWalkIn,
			RequiresConfirmation: req.RequiresConfirmation,
			Notes:                req.Notes,
			InternalNotes:        req.InternalNotes,
			CheckConflicts:       req.CheckConflicts,
		})
		if err != nil {
			handleCreateError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseListFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		appts, err := svc.ListAppointments(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		items := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			items = append(items, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func legalActionsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		actions := appointment.LegalActions(appt.Status)
		out := make([]string, 0, len(actions))
		for _, a := range actions {
			out = append(out, string(a))
		}

		writeJSON(w, http.StatusOK, LegalActionsResponse{
			Status:  string(appt.Status),
			Actions: out,
		})
	}
}

func transitionHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		action := appointment.Action(req.Action)
		if !action.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown_action", "action is not recognized")
			return
		}

		params := appointment.ActionParams{
			Reason:         req.Reason,
			CancelledBy:    req.CancelledBy,
			CheckConflicts: req.CheckConflicts,
		}
		if req.NewStart != "" {
			newStart, err := time.Parse(time.RFC3339, req.NewStart)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_new_start", "new_start must be RFC3339")
				return
			}
			params.NewStart = newStart
		}

		appt, err := svc.ApplyTransition(r.Context(), id, action, params)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// rescheduleHandler is the dedicated surface for moving a booking. It is a
// thin alias over the transitions endpoint with the action fixed, so both
// paths run through the same lifecycle engine.
func rescheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.NewStart == "" {
			writeError(w, http.StatusBadRequest, "missing_new_start", "new_start is required")
			return
		}
		newStart, err := time.Parse(time.RFC3339, req.NewStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_new_start", "new_start must be RFC3339")
			return
		}

		appt, err := svc.ApplyTransition(r.Context(), id, appointment.ActionReschedule, appointment.ActionParams{
			NewStart:       newStart,
			CheckConflicts: req.CheckConflicts,
		})
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func handleCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidInitialState),
		errors.Is(err, appointment.ErrNonPositiveDuration),
		errors.Is(err, appointment.ErrEndNotAfterStart):
		writeError(w, http.StatusBadRequest, "invalid_appointment", err.Error())
	case errors.Is(err, appointment.ErrConflictDetected):
		writeError(w, http.StatusConflict, "booking_conflict", err.Error())
	case errors.Is(err, availability.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "availability_unavailable", "conflict check could not be completed, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	var invalid *appointment.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		// The caller should have filtered via the legal-actions endpoint;
		// hitting this means a stale snapshot or a caller bug, so carry
		// both values for a precise message and prompt a refetch.
		writeError(w, http.StatusConflict, "invalid_transition", invalid.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrStaleStatus):
		writeError(w, http.StatusConflict, "stale_appointment", "the appointment changed concurrently, refetch and retry")
	case errors.Is(err, appointment.ErrBeingModified):
		writeError(w, http.StatusConflict, "appointment_being_modified", err.Error())
	case errors.Is(err, appointment.ErrConflictDetected):
		writeError(w, http.StatusConflict, "booking_conflict", err.Error())
	case errors.Is(err, availability.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "availability_unavailable", "conflict check could not be completed, please retry")
	case errors.Is(err, appointment.ErrRescheduleStart):
		writeError(w, http.StatusBadRequest, "missing_new_start", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
