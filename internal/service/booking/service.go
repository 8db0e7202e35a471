// Package booking implements the conflict side of the engine: slot listing,
// bookability checks against the active window and existing appointments, the
// booking commit step, and the appointment query surface.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/repository"
	apperrors "github.com/practiva/scheduling-api/pkg/errors"
	"github.com/practiva/scheduling-api/pkg/logger"
	"github.com/practiva/scheduling-api/pkg/metrics"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

// DefaultSlotCacheTTL bounds how stale a cached slot listing may get. Booking
// commits and wired-up window mutations flush the cache immediately, the TTL
// covers writes that bypass this process.
const DefaultSlotCacheTTL = 30 * time.Second

type Service struct {
	store   repository.Store
	log     *logger.Logger
	metrics *metrics.Metrics
	slots   *gocache.Cache
	now     func() time.Time
}

func NewService(store repository.Store, log *logger.Logger, m *metrics.Metrics, slotCacheTTL time.Duration) *Service {
	if slotCacheTTL <= 0 {
		slotCacheTTL = DefaultSlotCacheTTL
	}
	return &Service{
		store:   store,
		log:     log,
		metrics: m,
		slots:   gocache.New(slotCacheTTL, 2*slotCacheTTL),
		now:     time.Now,
	}
}

// ListBookableSlots partitions the practitioner's active window for the date
// into consecutive slots of slotDuration, anchored at the window start. A
// trailing remainder shorter than slotDuration is dropped. Slots overlapping
// a scheduled appointment are returned with Available=false.
func (s *Service) ListBookableSlots(ctx context.Context, practitionerID uuid.UUID, date time.Time, slotDuration time.Duration) ([]model.TimeSlot, error) {
	if slotDuration <= 0 {
		return nil, apperrors.NewInvalidInput("slot duration must be positive")
	}

	key := slotCacheKey(practitionerID, date, slotDuration)
	if cached, ok := s.slots.Get(key); ok {
		return cached.([]model.TimeSlot), nil
	}

	window, err := s.store.Availability().FindActiveForDate(ctx, practitionerID, date)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if window == nil {
		return []model.TimeSlot{}, nil
	}

	booked, err := s.store.Appointments().ListForDate(ctx, practitionerID, date, model.AppointmentStatusScheduled)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}

	slots := []model.TimeSlot{}
	for start := window.StartTime; !start.Add(slotDuration).After(window.EndTime); start = start.Add(slotDuration) {
		end := start.Add(slotDuration)
		available := true
		for _, appointment := range booked {
			if timerange.Overlaps(start, end, appointment.StartTime, appointment.EndTime) {
				available = false
				break
			}
		}
		slots = append(slots, model.NewTimeSlot(start, end, available))
	}

	s.slots.SetDefault(key, slots)
	s.metrics.SlotListings.Inc()
	return slots, nil
}

// IsBookable reports whether [start, end) can be booked: there must be an
// active window for the date fully containing the range, and no scheduled
// appointment may overlap it. This is the precondition gate for the commit
// step; the storage schema enforces the no-overlap invariant a second time.
func (s *Service) IsBookable(ctx context.Context, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) (bool, error) {
	bookable, err := s.isBookable(ctx, s.store, practitionerID, date, start, end)
	if err != nil {
		return false, err
	}

	result := "unbookable"
	if bookable {
		result = "bookable"
	}
	s.metrics.BookingChecks.WithLabelValues(result).Inc()
	return bookable, nil
}

func (s *Service) isBookable(ctx context.Context, store repository.Store, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) (bool, error) {
	if !timerange.IsValid(start, end) {
		return false, apperrors.NewInvalidRange()
	}

	window, err := store.Availability().FindActiveForDate(ctx, practitionerID, date)
	if err != nil {
		return false, apperrors.NewStorage(err)
	}
	if window == nil {
		return false, nil
	}
	if start.Before(window.StartTime) || end.After(window.EndTime) {
		return false, nil
	}

	overlapping, err := store.Appointments().FindOverlapping(ctx, practitionerID, date, start, end)
	if err != nil {
		return false, apperrors.NewStorage(err)
	}
	return len(overlapping) == 0, nil
}

// Book commits a booking: the bookability check and the insert run inside one
// transaction so a racing commit cannot slip between them.
func (s *Service) Book(ctx context.Context, practitionerID, clientID uuid.UUID, date time.Time, start, end timerange.Clock) (*model.Appointment, error) {
	var appointment *model.Appointment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		bookable, err := s.isBookable(ctx, tx, practitionerID, date, start, end)
		if err != nil {
			return err
		}
		if !bookable {
			return apperrors.NewSlotUnavailable()
		}

		now := s.now().UTC()
		appointment = &model.Appointment{
			ID:             uuid.New(),
			PractitionerID: practitionerID,
			ClientID:       clientID,
			Date:           dateOnly(date),
			StartTime:      start,
			EndTime:        end,
			Status:         model.AppointmentStatusScheduled,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Appointments().Create(ctx, appointment); err != nil {
			return apperrors.NewStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.slots.Flush()
	s.metrics.BookingsCommitted.Inc()
	return appointment, nil
}

// FlushSlotCache drops every cached slot listing. The availability service
// calls this through OnWindowsChanged whenever a window mutation commits.
func (s *Service) FlushSlotCache() {
	s.slots.Flush()
}

// Cancel moves a scheduled appointment to CANCELLED. The row is retained.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	return s.transition(ctx, appointmentID, model.AppointmentStatusCancelled)
}

// Complete moves a scheduled appointment to COMPLETED.
func (s *Service) Complete(ctx context.Context, appointmentID uuid.UUID) error {
	return s.transition(ctx, appointmentID, model.AppointmentStatusCompleted)
}

func (s *Service) transition(ctx context.Context, appointmentID uuid.UUID, to model.AppointmentStatus) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appointment, err := tx.Appointments().Get(ctx, appointmentID)
		if err != nil {
			return apperrors.NewStorage(err)
		}
		if appointment == nil {
			return apperrors.NewNotFound("appointment", nil)
		}
		if appointment.Status != model.AppointmentStatusScheduled {
			return apperrors.NewInvalidInput(fmt.Sprintf("appointment is already %s", appointment.Status))
		}
		if err := tx.Appointments().UpdateStatus(ctx, appointmentID, to); err != nil {
			return apperrors.NewStorage(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.slots.Flush()
	return nil
}

// Get returns the appointment by id.
func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.store.Appointments().Get(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	if appointment == nil {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return appointment, nil
}

// HasScheduledWith reports whether the client holds any scheduled appointment
// with the practitioner.
func (s *Service) HasScheduledWith(ctx context.Context, practitionerID, clientID uuid.UUID) (bool, error) {
	exists, err := s.store.Appointments().HasScheduledWith(ctx, practitionerID, clientID)
	if err != nil {
		return false, apperrors.NewStorage(err)
	}
	return exists, nil
}

// ListByPractitioner returns every appointment for the practitioner.
func (s *Service) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListByPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// ListByClient returns every appointment for the client.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// ListForDate returns the practitioner's appointments on the date with the
// given status.
func (s *Service) ListForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListForDate(ctx, practitionerID, date, status)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// UpcomingForPractitioner returns scheduled appointments from today onwards,
// soonest first.
func (s *Service) UpcomingForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListUpcomingByPractitioner(ctx, practitionerID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// UpcomingForClient returns the client's scheduled appointments from today
// onwards, soonest first.
func (s *Service) UpcomingForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListUpcomingByClient(ctx, clientID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// PastForPractitioner returns appointments dated before today, most recent
// first.
func (s *Service) PastForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListPastByPractitioner(ctx, practitionerID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// PastForClient returns the client's appointments dated before today, most
// recent first.
func (s *Service) PastForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListPastByClient(ctx, clientID, dateOnly(s.now()))
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// RangeForPractitioner returns appointments dated in [startDate, endDate].
func (s *Service) RangeForPractitioner(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListRangeByPractitioner(ctx, practitionerID, startDate, endDate)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// RangeForClient returns the client's appointments dated in [startDate, endDate].
func (s *Service) RangeForClient(ctx context.Context, clientID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListRangeByClient(ctx, clientID, startDate, endDate)
	if err != nil {
		return nil, apperrors.NewStorage(err)
	}
	return appointments, nil
}

// CountForPractitioner returns the practitioner's all-time appointment count.
func (s *Service) CountForPractitioner(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	count, err := s.store.Appointments().CountByPractitioner(ctx, practitionerID)
	if err != nil {
		return 0, apperrors.NewStorage(err)
	}
	return count, nil
}

// CountForClient returns the client's all-time appointment count.
func (s *Service) CountForClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	count, err := s.store.Appointments().CountByClient(ctx, clientID)
	if err != nil {
		return 0, apperrors.NewStorage(err)
	}
	return count, nil
}

func slotCacheKey(practitionerID uuid.UUID, date time.Time, slotDuration time.Duration) string {
	return fmt.Sprintf("%s|%s|%s", practitionerID, date.Format("2006-01-02"), slotDuration)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
