// Package availability implements the availability window lifecycle:
// publishing, bulk and recurring generation, soft deletion and reactivation,
// guarded so a window can never change shape while scheduled appointments
// depend on it.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/repository"
	apperrors "github.com/practiva/scheduling-api/pkg/errors"
	"github.com/practiva/scheduling-api/pkg/logger"
	"github.com/practiva/scheduling-api/pkg/metrics"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

// DefaultMinWindowDuration is the shortest window a practitioner may publish.
const DefaultMinWindowDuration = time.Hour

type Service struct {
	store       repository.Store
	log         *logger.Logger
	metrics     *metrics.Metrics
	minDuration time.Duration
	now         func() time.Time
	onChange    func()
}

// OnWindowsChanged registers fn to run after any window mutation commits. The
// booking side hooks this to drop cached slot listings the moment a window is
// reshaped, deactivated or restored.
func (s *Service) OnWindowsChanged(fn func()) {
	s.onChange = fn
}

func (s *Service) windowsChanged() {
	if s.onChange != nil {
		s.onChange()
	}
}

func NewService(store repository.Store, log *logger.Logger, m *metrics.Metrics, minDuration time.Duration) *Service {
	if minDuration <= 0 {
		minDuration = DefaultMinWindowDuration
	}
	return &Service{
		store:       store,
		log:         log,
		metrics:     m,
		minDuration: minDuration,
		now:         time.Now,
	}
}

// Publish creates the active window for (practitioner, date), or reshapes the
// existing one when no scheduled appointments are bound to that date.
func (s *Service) Publish(ctx context.Context, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) (*model.AvailabilityWindow, error) {
	if err := s.validateWindow(date, start, end); err != nil {
		s.metrics.PublishFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	var window *model.AvailabilityWindow
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Availability().FindActiveForDate(ctx, practitionerID, date)
		if err != nil {
			return apperrors.NewStorage(err)
		}

		if existing != nil {
			count, err := tx.Appointments().CountScheduledForDate(ctx, practitionerID, date)
			if err != nil {
				return apperrors.NewStorage(err)
			}
			if count > 0 {
				return apperrors.NewHasBoundAppointments(count)
			}

			existing.StartTime = start
			existing.EndTime = end
			existing.UpdatedAt = s.now().UTC()
			if err := tx.Availability().Update(ctx, existing); err != nil {
				return apperrors.NewStorage(err)
			}
			window = existing
			return nil
		}

		now := s.now().UTC()
		window = &model.AvailabilityWindow{
			ID:             uuid.New(),
			PractitionerID: practitionerID,
			Date:           dateOnly(date),
			StartTime:      start,
			EndTime:        end,
			Status:         model.WindowStatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Availability().Create(ctx, window); err != nil {
			return apperrors.NewStorage(err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrHasBoundAppointments) {
			s.metrics.PublishFailures.WithLabelValues("bound_appointments").Inc()
		}
		return nil, err
	}

	s.metrics.WindowsPublished.Inc()
	s.windowsChanged()
	return window, nil
}

// PublishRange publishes one window per calendar day in [startDate, endDate].
// Days that already carry an active window are skipped; a failure on one day
// is logged and the remaining days still run. Partial success is the
// documented behavior, callers wanting all-or-nothing must check the result.
func (s *Service) PublishRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time, start, end timerange.Clock) ([]*model.AvailabilityWindow, error) {
	return s.publishDays(ctx, practitionerID, startDate, endDate, nil, start, end)
}

// PublishRecurring is PublishRange restricted to the given weekdays.
func (s *Service) PublishRecurring(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time, daysOfWeek []time.Weekday, start, end timerange.Clock) ([]*model.AvailabilityWindow, error) {
	days := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		days[d] = true
	}
	return s.publishDays(ctx, practitionerID, startDate, endDate, days, start, end)
}

func (s *Service) publishDays(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time, days map[time.Weekday]bool, start, end timerange.Clock) ([]*model.AvailabilityWindow, error) {
	created := []*model.AvailabilityWindow{}

	for d := dateOnly(startDate); !d.After(dateOnly(endDate)); d = d.AddDate(0, 0, 1) {
		if days != nil && !days[d.Weekday()] {
			continue
		}

		exists, err := s.store.Availability().ExistsActiveForDate(ctx, practitionerID, d)
		if err != nil {
			s.log.Warn(err, "failed to check existing window, skipping day",
				"practitioner_id", practitionerID.String(), "date", d.Format("2006-01-02"))
			continue
		}
		if exists {
			continue
		}

		window, err := s.Publish(ctx, practitionerID, d, start, end)
		if err != nil {
			s.log.Warn(err, "failed to publish window for day",
				"practitioner_id", practitionerID.String(), "date", d.Format("2006-01-02"))
			continue
		}
		created = append(created, window)
	}

	return created, nil
}

// Deactivate soft-deletes a window. The row survives so existing appointment
// references stay intact.
func (s *Service) Deactivate(ctx context.Context, windowID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		window, err := s.getWindow(ctx, tx, windowID)
		if err != nil {
			return err
		}
		return s.deactivate(ctx, tx, window)
	})
	if err != nil {
		return err
	}
	s.windowsChanged()
	return nil
}

// DeactivateAsOwner is Deactivate plus an ownership check.
func (s *Service) DeactivateAsOwner(ctx context.Context, windowID, practitionerID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		window, err := s.getWindow(ctx, tx, windowID)
		if err != nil {
			return err
		}
		if err := requireOwner(window, practitionerID, "deactivate"); err != nil {
			return err
		}
		return s.deactivate(ctx, tx, window)
	})
	if err != nil {
		return err
	}
	s.windowsChanged()
	return nil
}

func (s *Service) deactivate(ctx context.Context, tx repository.Store, window *model.AvailabilityWindow) error {
	count, err := tx.Appointments().CountScheduledForDate(ctx, window.PractitionerID, window.Date)
	if err != nil {
		return apperrors.NewStorage(err)
	}
	if count > 0 {
		return apperrors.NewHasBoundAppointments(count)
	}

	window.Status = model.WindowStatusInactive
	window.UpdatedAt = s.now().UTC()
	if err := tx.Availability().Update(ctx, window); err != nil {
		return apperrors.NewStorage(err)
	}

	s.metrics.WindowsDeactivated.Inc()
	return nil
}

// DeactivateRange soft-deletes every active window in the date range, one day
// at a time with the same log-and-continue policy as bulk publishing.
func (s *Service) DeactivateRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) error {
	windows, err := s.store.Availability().ListRange(ctx, practitionerID, startDate, endDate)
	if err != nil {
		return apperrors.NewStorage(err)
	}

	for _, window := range windows {
		if err := s.Deactivate(ctx, window.ID); err != nil {
			s.log.Warn(err, "failed to deactivate window",
				"window_id", window.ID.String(), "date", window.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Reactivate restores a soft-deleted window, provided the caller owns it and
// its date has not passed.
func (s *Service) Reactivate(ctx context.Context, windowID, practitionerID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		window, err := s.getWindow(ctx, tx, windowID)
		if err != nil {
			return err
		}
		if err := requireOwner(window, practitionerID, "reactivate"); err != nil {
			return err
		}
		if window.IsActive() {
			return apperrors.NewAlreadyActive()
		}
		if dateOnly(window.Date).Before(dateOnly(s.now())) {
			return apperrors.NewPastDate("cannot reactivate a window for a past date")
		}

		window.Status = model.WindowStatusActive
		window.UpdatedAt = s.now().UTC()
		if err := tx.Availability().Update(ctx, window); err != nil {
			return apperrors.NewStorage(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.WindowsReactivated.Inc()
	s.windowsChanged()
	return nil
}

// Get returns the window by id.
func (s *Service) Get(ctx context.Context, windowID uuid.UUID) (*model.AvailabilityWindow, error) {
	return s.getWindow(ctx, s.store, windowID)
}

// WindowForDate returns the active window for the date, or nil if none.
func (s *Service) WindowForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (*model.AvailabilityWindow, error) {
	window, err := s.store.Availability().FindActiveForDate(ctx, practitionerID, date)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return window, nil
}

// ListActive returns every active window for the practitioner.
func (s *Service) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	windows, err := s.store.Availability().ListActive(ctx, practitionerID)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return windows, nil
}

// ListUpcoming returns active windows dated today or later, soonest first.
func (s *Service) ListUpcoming(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	windows, err := s.store.Availability().ListUpcoming(ctx, practitionerID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return windows, nil
}

// ListPast returns windows dated before today, most recent first.
func (s *Service) ListPast(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	windows, err := s.store.Availability().ListPast(ctx, practitionerID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return windows, nil
}

// ListRange returns active windows with dates in [startDate, endDate].
func (s *Service) ListRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.AvailabilityWindow, error) {
	windows, err := s.store.Availability().ListRange(ctx, practitionerID, startDate, endDate)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return windows, nil
}

// NextUpcoming returns the practitioner's next active window from today, or
// nil when there is none.
func (s *Service) NextUpcoming(ctx context.Context, practitionerID uuid.UUID) (*model.AvailabilityWindow, error) {
	window, err := s.store.Availability().NextUpcoming(ctx, practitionerID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return window, nil
}

// CountActive returns the number of active windows for the practitioner.
func (s *Service) CountActive(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	count, err := s.store.Availability().CountActive(ctx, practitionerID)
	if err != nil {
		return 0, apperrors.NewStorage(err)
	}
	return count, nil
}

// PractitionersForDate returns every practitioner with an active window on
// the date.
func (s *Service) PractitionersForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	ids, err := s.store.Availability().ListPractitionersForDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return ids, nil
}

// HasWindowOnDate reports whether an active window exists for the date.
func (s *Service) HasWindowOnDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (bool, error) {
	exists, err := s.store.Availability().ExistsActiveForDate(ctx, practitionerID, date)
	if err != nil {
		return false, apperrors.NewStorage(err)
	}
	return exists, nil
}

// Stats summarizes availability for the practitioner's dashboard.
func (s *Service) Stats(ctx context.Context, practitionerID uuid.UUID) (*model.WindowStats, error) {
	total, err := s.CountActive(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.ListUpcoming(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	stats := &model.WindowStats{
		ActiveWindows:   total,
		UpcomingWindows: int64(len(upcoming)),
	}
	if len(upcoming) > 0 {
		next := upcoming[0].Date
		stats.NextWindowDate = &next
	}
	return stats, nil
}

func (s *Service) validateWindow(date time.Time, start, end timerange.Clock) error {
	if date.IsZero() || (start == timerange.Clock{} && end == timerange.Clock{}) {
		return apperrors.NewInvalidInput("date, start time and end time are required")
	}
	if dateOnly(date).Before(dateOnly(s.now())) {
		return apperrors.NewPastDate("cannot publish availability for a past date")
	}
	if !timerange.IsValid(start, end) {
		return apperrors.NewInvalidRange()
	}
	if !timerange.MeetsMinimumDuration(start, end, s.minDuration) {
		return apperrors.NewTooShort(s.minDuration.String())
	}
	return nil
}

func (s *Service) getWindow(ctx context.Context, store repository.Store, windowID uuid.UUID) (*model.AvailabilityWindow, error) {
	window, err := store.Availability().Get(ctx, windowID)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if window == nil {
		return nil, apperrors.NewNotFound("availability window", nil)
	}
	return window, nil
}

func requireOwner(window *model.AvailabilityWindow, practitionerID uuid.UUID, action string) error {
	if window.PractitionerID != practitionerID {
		return apperrors.NewNotOwner(fmt.Sprintf("you can only %s your own windows", action))
	}
	return nil
}

func failureReason(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrInvalidInput:
		return "invalid_input"
	case apperrors.ErrInvalidRange:
		return "invalid_range"
	case apperrors.ErrTooShort:
		return "too_short"
	case apperrors.ErrPastDate:
		return "past_date"
	default:
		return "other"
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
