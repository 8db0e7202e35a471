// Package memory is an in-memory Store used by service tests and local
// development. Operations are serialized with a single mutex, WithTx runs the
// callback under that same lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/repository"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

type Store struct {
	mu           sync.Mutex
	windows      map[uuid.UUID]*model.AvailabilityWindow
	appointments map[uuid.UUID]*model.Appointment
}

func NewStore() *Store {
	return &Store{
		windows:      make(map[uuid.UUID]*model.AvailabilityWindow),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

func (s *Store) Availability() repository.AvailabilityRepository {
	return &availabilityRepo{store: s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepo{store: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type availabilityRepo struct {
	store *Store
}

func (r *availabilityRepo) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w := *window
	r.store.windows[window.ID] = &w
	return nil
}

func (r *availabilityRepo) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	window, ok := r.store.windows[id]
	if !ok {
		return nil, nil
	}
	w := *window
	return &w, nil
}

func (r *availabilityRepo) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w := *window
	r.store.windows[window.ID] = &w
	return nil
}

func (r *availabilityRepo) FindActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (*model.AvailabilityWindow, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return w.PractitionerID == practitionerID && sameDate(w.Date, date) && w.IsActive()
	})
	if len(windows) == 0 {
		return nil, nil
	}
	return windows[0], nil
}

func (r *availabilityRepo) ExistsActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (bool, error) {
	window, err := r.FindActiveForDate(ctx, practitionerID, date)
	return window != nil, err
}

func (r *availabilityRepo) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return w.PractitionerID == practitionerID && w.IsActive()
	})
	sortWindowsAsc(windows)
	return windows, nil
}

func (r *availabilityRepo) ListUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.AvailabilityWindow, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return w.PractitionerID == practitionerID && w.IsActive() && !w.Date.Before(from)
	})
	sortWindowsAsc(windows)
	return windows, nil
}

func (r *availabilityRepo) ListPast(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.AvailabilityWindow, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return w.PractitionerID == practitionerID && w.Date.Before(before)
	})
	sort.Slice(windows, func(i, j int) bool { return windows[i].Date.After(windows[j].Date) })
	return windows, nil
}

func (r *availabilityRepo) ListRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.AvailabilityWindow, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return w.PractitionerID == practitionerID && w.IsActive() &&
			!w.Date.Before(startDate) && !w.Date.After(endDate)
	})
	sortWindowsAsc(windows)
	return windows, nil
}

func (r *availabilityRepo) NextUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) (*model.AvailabilityWindow, error) {
	windows, err := r.ListUpcoming(ctx, practitionerID, from)
	if err != nil || len(windows) == 0 {
		return nil, err
	}
	return windows[0], nil
}

func (r *availabilityRepo) CountActive(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	windows, err := r.ListActive(ctx, practitionerID)
	return int64(len(windows)), err
}

func (r *availabilityRepo) ListPractitionersForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	windows := r.filter(func(w *model.AvailabilityWindow) bool {
		return sameDate(w.Date, date) && w.IsActive()
	})
	seen := make(map[uuid.UUID]bool)
	ids := []uuid.UUID{}
	for _, w := range windows {
		if !seen[w.PractitionerID] {
			seen[w.PractitionerID] = true
			ids = append(ids, w.PractitionerID)
		}
	}
	return ids, nil
}

func (r *availabilityRepo) filter(keep func(*model.AvailabilityWindow) bool) []*model.AvailabilityWindow {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	windows := []*model.AvailabilityWindow{}
	for _, window := range r.store.windows {
		if keep(window) {
			w := *window
			windows = append(windows, &w)
		}
	}
	return windows
}

type appointmentRepo struct {
	store *Store
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a := *appointment
	r.store.appointments[appointment.ID] = &a
	return nil
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	appointment, ok := r.store.appointments[id]
	if !ok {
		return nil, nil
	}
	a := *appointment
	return &a, nil
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	appointment, ok := r.store.appointments[id]
	if !ok {
		return nil
	}
	appointment.Status = status
	appointment.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *appointmentRepo) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.ClientID == clientID
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && sameDate(a.Date, date) && a.Status == status
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && a.Status == model.AppointmentStatusScheduled && !a.Date.Before(from)
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListUpcomingByClient(ctx context.Context, clientID uuid.UUID, from time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.ClientID == clientID && a.Status == model.AppointmentStatusScheduled && !a.Date.Before(from)
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListPastByPractitioner(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && a.Date.Before(before)
	})
	sortAppointmentsDesc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListPastByClient(ctx context.Context, clientID uuid.UUID, before time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.ClientID == clientID && a.Date.Before(before)
	})
	sortAppointmentsDesc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListRangeByPractitioner(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && !a.Date.Before(startDate) && !a.Date.After(endDate)
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) ListRangeByClient(ctx context.Context, clientID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.ClientID == clientID && !a.Date.Before(startDate) && !a.Date.After(endDate)
	})
	sortAppointmentsAsc(appointments)
	return appointments, nil
}

func (r *appointmentRepo) CountByPractitioner(ctx context.Context, practitionerID uuid.UUID) (int64, error) {
	appointments, err := r.ListByPractitioner(ctx, practitionerID)
	return int64(len(appointments)), err
}

func (r *appointmentRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	appointments, err := r.ListByClient(ctx, clientID)
	return int64(len(appointments)), err
}

func (r *appointmentRepo) CountScheduledForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (int64, error) {
	appointments, err := r.ListForDate(ctx, practitionerID, date, model.AppointmentStatusScheduled)
	return int64(len(appointments)), err
}

func (r *appointmentRepo) HasScheduledWith(ctx context.Context, practitionerID, clientID uuid.UUID) (bool, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && a.ClientID == clientID && a.Status == model.AppointmentStatusScheduled
	})
	return len(appointments) > 0, nil
}

func (r *appointmentRepo) FindOverlapping(ctx context.Context, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) ([]*model.Appointment, error) {
	appointments := r.filter(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID && sameDate(a.Date, date) &&
			a.Status == model.AppointmentStatusScheduled &&
			timerange.Overlaps(start, end, a.StartTime, a.EndTime)
	})
	return appointments, nil
}

func (r *appointmentRepo) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	appointments := []*model.Appointment{}
	for _, appointment := range r.store.appointments {
		if keep(appointment) {
			a := *appointment
			appointments = append(appointments, &a)
		}
	}
	return appointments
}

func sortWindowsAsc(windows []*model.AvailabilityWindow) {
	sort.Slice(windows, func(i, j int) bool { return windows[i].Date.Before(windows[j].Date) })
}

func sortAppointmentsAsc(appointments []*model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if !appointments[i].Date.Equal(appointments[j].Date) {
			return appointments[i].Date.Before(appointments[j].Date)
		}
		return appointments[i].StartTime.Before(appointments[j].StartTime)
	})
}

func sortAppointmentsDesc(appointments []*model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if !appointments[i].Date.Equal(appointments[j].Date) {
			return appointments[i].Date.After(appointments[j].Date)
		}
		return appointments[i].StartTime.After(appointments[j].StartTime)
	})
}

func sameDate(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
