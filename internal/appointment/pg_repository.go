package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, start_time, end_time, duration_minutes,
	client_id, professional_id, service_id,
	client_name, professional_name, service_name,
	status, is_walk_in, requires_confirmation,
	cancelled_at, cancelled_by, cancellation_reason,
	notes, internal_notes, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var cancelledAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.Start,
		&a.End,
		&a.DurationMinutes,
		&a.ClientID,
		&a.ProfessionalID,
		&a.ServiceID,
		&a.ClientName,
		&a.ProfessionalName,
		&a.ServiceName,
		&a.Status,
		&a.IsWalkIn,
		&a.RequiresConfirmation,
		&cancelledAt,
		&a.CancelledBy,
		&a.CancellationReason,
		&a.Notes,
		&a.InternalNotes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.CancelledAt = cancelledAt
	return &a, nil
}

// Interface methods

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1`
	args := []any{}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	if filter.ProfessionalID != nil {
		args = append(args, *filter.ProfessionalID)
		query += fmt.Sprintf(" AND professional_id = $%d", len(args))
	}
	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		query += fmt.Sprintf(" AND service_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY start_time, created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, start_time, end_time, duration_minutes,
			client_id, professional_id, service_id,
			client_name, professional_name, service_name,
			status, is_walk_in, requires_confirmation,
			cancelled_at, cancelled_by, cancellation_reason,
			notes, internal_notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
		RETURNING `+appointmentColumns+`
	`,
		appt.ID, appt.Start, appt.End, appt.DurationMinutes,
		appt.ClientID, appt.ProfessionalID, appt.ServiceID,
		appt.ClientName, appt.ProfessionalName, appt.ServiceName,
		appt.Status, appt.IsWalkIn, appt.RequiresConfirmation,
		appt.CancelledAt, appt.CancelledBy, appt.CancellationReason,
		appt.Notes, appt.InternalNotes,
	)

	return scanAppointment(row)
}

func (r *PgRepository) ApplyTransition(ctx context.Context, appt Appointment, from Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    start_time = $3,
		    end_time = $4,
		    cancelled_at = $5,
		    cancelled_by = $6,
		    cancellation_reason = $7,
		    updated_at = now()
		WHERE id = $1
		  AND status = $8
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.Status, appt.Start, appt.End,
		appt.CancelledAt, appt.CancelledBy, appt.CancellationReason, from)

	updated, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Row exists but the guard failed, or the row is gone. Either
			// way the snapshot is stale.
			return nil, r.classifyStale(ctx, appt.ID)
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) classifyStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleStatus
	}
	return ErrAppointmentNotFound
}

func (r *PgRepository) FindOverdueInProgress(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'in_progress'
		  AND end_time < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	var apptID *uuid.UUID
	if ev.AppointmentID != nil {
		apptID = ev.AppointmentID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, apptID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
