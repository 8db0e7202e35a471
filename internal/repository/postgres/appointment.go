package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

type appointmentRepository struct {
	ext sqlx.ExtContext
}

const appointmentColumns = `
	id, practitioner_id, client_id, appointment_date, start_time, end_time,
	status, created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, practitioner_id, client_id, appointment_date, start_time,
			end_time, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.ext.ExecContext(ctx, query,
		appointment.ID,
		appointment.PractitionerID,
		appointment.ClientID,
		appointment.Date,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := sqlx.GetContext(ctx, r.ext, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.ext.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *appointmentRepository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE client_id = $1
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date = $2::date
		AND status = $3
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID, date, status); err != nil {
		return nil, fmt.Errorf("failed to list appointments for date: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date >= $2::date
		AND status = 'SCHEDULED'
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID, from); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListUpcomingByClient(ctx context.Context, clientID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE client_id = $1
		AND appointment_date >= $2::date
		AND status = 'SCHEDULED'
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, clientID, from); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPastByPractitioner(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date < $2::date
		ORDER BY appointment_date DESC, start_time DESC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID, before); err != nil {
		return nil, fmt.Errorf("failed to list past appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPastByClient(ctx context.Context, clientID uuid.UUID, before time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE client_id = $1
		AND appointment_date < $2::date
		ORDER BY appointment_date DESC, start_time DESC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, clientID, before); err != nil {
		return nil, fmt.Errorf("failed to list past appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListRangeByPractitioner(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date BETWEEN $2::date AND $3::date
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to list appointments in range: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListRangeByClient(ctx context.Context, clientID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE client_id = $1
		AND appointment_date BETWEEN $2::date AND $3::date
		ORDER BY appointment_date ASC, start_time ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, clientID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to list appointments in range: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CountByPractitioner(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE practitioner_id = $1`

	var count int64
	if err := sqlx.GetContext(ctx, r.ext, &count, query, practitionerID); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE client_id = $1`

	var count int64
	if err := sqlx.GetContext(ctx, r.ext, &count, query, clientID); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountScheduledForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date = $2::date
		AND status = 'SCHEDULED'
	`
	var count int64
	if err := sqlx.GetContext(ctx, r.ext, &count, query, practitionerID, date); err != nil {
		return 0, fmt.Errorf("failed to count scheduled appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) HasScheduledWith(ctx context.Context, practitionerID, clientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE practitioner_id = $1
			AND client_id = $2
			AND status = 'SCHEDULED'
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, practitionerID, clientID); err != nil {
		return false, fmt.Errorf("failed to check scheduled appointments: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) ([]*model.Appointment, error) {
	// Half-open intervals: rows touching at an endpoint do not conflict.
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND appointment_date = $2::date
		AND status = 'SCHEDULED'
		AND start_time < $4
		AND end_time > $3
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, practitionerID, date, start, end); err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}
	return appointments, nil
}
