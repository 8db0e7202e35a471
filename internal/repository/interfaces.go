package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

// All repository interfaces in one file
type (
	// AvailabilityRepository owns availability window rows. Finders that
	// target a single row return (nil, nil) when nothing matches, so callers
	// can tell "absent" apart from a storage failure.
	AvailabilityRepository interface {
		Create(ctx context.Context, window *model.AvailabilityWindow) error
		Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error)
		Update(ctx context.Context, window *model.AvailabilityWindow) error
		FindActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (*model.AvailabilityWindow, error)
		ExistsActiveForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (bool, error)
		ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityWindow, error)
		ListUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.AvailabilityWindow, error)
		ListPast(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.AvailabilityWindow, error)
		ListRange(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.AvailabilityWindow, error)
		NextUpcoming(ctx context.Context, practitionerID uuid.UUID, from time.Time) (*model.AvailabilityWindow, error)
		CountActive(ctx context.Context, practitionerID uuid.UUID) (int64, error)
		ListPractitionersForDate(ctx context.Context, date time.Time) ([]uuid.UUID, error)
	}

	// AppointmentRepository owns appointment rows. Rows are only ever
	// inserted or moved between statuses, never deleted.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.Appointment, error)
		ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error)
		ListForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error)
		ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*model.Appointment, error)
		ListUpcomingByClient(ctx context.Context, clientID uuid.UUID, from time.Time) ([]*model.Appointment, error)
		ListPastByPractitioner(ctx context.Context, practitionerID uuid.UUID, before time.Time) ([]*model.Appointment, error)
		ListPastByClient(ctx context.Context, clientID uuid.UUID, before time.Time) ([]*model.Appointment, error)
		ListRangeByPractitioner(ctx context.Context, practitionerID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error)
		ListRangeByClient(ctx context.Context, clientID uuid.UUID, startDate, endDate time.Time) ([]*model.Appointment, error)
		CountByPractitioner(ctx context.Context, practitionerID uuid.UUID) (int64, error)
		CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
		CountScheduledForDate(ctx context.Context, practitionerID uuid.UUID, date time.Time) (int64, error)
		HasScheduledWith(ctx context.Context, practitionerID, clientID uuid.UUID) (bool, error)
		FindOverlapping(ctx context.Context, practitionerID uuid.UUID, date time.Time, start, end timerange.Clock) ([]*model.Appointment, error)
	}

	// Store bundles both repositories behind one transactional boundary.
	// WithTx runs fn against a store whose repositories share a single
	// transaction, so a check-then-mutate sequence observes one snapshot and
	// commits or rolls back as a unit.
	Store interface {
		Availability() AvailabilityRepository
		Appointments() AppointmentRepository
		WithTx(ctx context.Context, fn func(Store) error) error
	}
)
