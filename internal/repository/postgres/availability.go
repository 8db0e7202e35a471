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
)

type availabilityRepository struct {
	ext sqlx.ExtContext
}

const windowColumns = `
	id, practitioner_id, window_date, start_time, end_time,
	status, created_at, updated_at
`

func (r *availabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (
			id, practitioner_id, window_date, start_time, end_time,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.ext.ExecContext(ctx, query,
		window.ID,
		window.PractitionerID,
		window.Date,
		window.StartTime,
		window.EndTime,
		window.Status,
		window.CreatedAt,
		window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE id = $1`

	var window model.AvailabilityWindow
	err := sqlx.GetContext(ctx, r.ext, &window, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability window: %w", err)
	}
	return &window, nil
}

func (r *availabilityRepository) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		UPDATE availability_windows
		SET start_time = $1, end_time = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.ext.ExecContext(ctx, query,
		window.StartTime,
		window.EndTime,
		window.Status,
		window.UpdatedAt,
		window.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update availability window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("availability window not found")
	}
	return nil
}

func (r *availabilityRepository) FindActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND window_date = $2::date
		AND status = 'active'
	`
	var window model.AvailabilityWindow
	err := sqlx.GetContext(ctx, r.ext, &window, query, practitionerID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active window: %w", err)
	}
	return &window, nil
}

func (r *availabilityRepository) ExistsActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability_windows
			WHERE practitioner_id = $1
			AND window_date = $2::date
			AND status = 'active'
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, query, practitionerID, date); err != nil {
		return false, fmt.Errorf("failed to check window existence: %w", err)
	}
	return exists, nil
}

func (r *availabilityRepository) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND status = 'active'
		ORDER BY window_date ASC
	`
	var windows []*model.AvailabilityWindow
	if err := sqlx.SelectContext(ctx, r.ext, &windows, query, practitionerID); err != nil {
		return nil, fmt.Errorf("failed to list active windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ListUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND window_date >= $2::date
		AND status = 'active'
		ORDER BY window_date ASC
	`
	var windows []*model.AvailabilityWindow
	if err := sqlx.SelectContext(ctx, r.ext, &windows, query, practitionerID, from); err != nil {
		return nil, fmt.Errorf("failed to list upcoming windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ListPast(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND window_date < $2::date
		ORDER BY window_date DESC
	`
	var windows []*model.AvailabilityWindow
	if err := sqlx.SelectContext(ctx, r.ext, &windows, query, practitionerID, before); err != nil {
		return nil, fmt.Errorf("failed to list past windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ListRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND window_date BETWEEN $2::date AND $3::date
		AND status = 'active'
		ORDER BY window_date ASC
	`
	var windows []*model.AvailabilityWindow
	if err := sqlx.SelectContext(ctx, r.ext, &windows, query, practitionerID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to list windows in range: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) NextUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) (*model.AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practitioner_id = $1
		AND window_date >= $2::date
		AND status = 'active'
		ORDER BY window_date ASC
		LIMIT 1
	`
	var window model.AvailabilityWindow
	err := sqlx.GetContext(ctx, r.ext, &window, query, practitionerID, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find next upcoming window: %w", err)
	}
	return &window, nil
}

func (r *availabilityRepository) CountActive(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*) FROM availability_windows
		WHERE practitioner_id = $1
		AND status = 'active'
	`
	var count int64
	if err := sqlx.GetContext(ctx, r.ext, &count, query, practitionerID); err != nil {
		return 0, fmt.Errorf("failed to count active windows: %w", err)
	}
	return count, nil
}

func (r *availabilityRepository) ListPractitionersForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT practitioner_id FROM availability_windows
		WHERE window_date = $1::date
		AND status = 'active'
	`
	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, r.ext, &ids, query, date); err != nil {
		return nil, fmt.Errorf("failed to list practitioners for date: %w", err)
	}
	return ids, nil
}
