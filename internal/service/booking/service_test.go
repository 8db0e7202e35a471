package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practiva/scheduling-api/internal/model"
	"github.com/practiva/scheduling-api/internal/repository/memory"
	"github.com/practiva/scheduling-api/internal/service/availability"
	apperrors "github.com/practiva/scheduling-api/pkg/errors"
	"github.com/practiva/scheduling-api/pkg/logger"
	"github.com/practiva/scheduling-api/pkg/metrics"
	"github.com/practiva/scheduling-api/pkg/timerange"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	svc := NewService(store, log, metrics.New("test"), time.Second)
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedWindow(t *testing.T, store *memory.Store, practitionerID uuid.UUID, day time.Time, start, end timerange.Clock) {
	t.Helper()
	window := &model.AvailabilityWindow{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		Date:           day,
		StartTime:      start,
		EndTime:        end,
		Status:         model.WindowStatusActive,
	}
	require.NoError(t, store.Availability().Create(context.Background(), window))
}

func seedAppointment(t *testing.T, store *memory.Store, practitionerID uuid.UUID, day time.Time, start, end timerange.Clock) *model.Appointment {
	t.Helper()
	appointment := &model.Appointment{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		ClientID:       uuid.New(),
		Date:           day,
		StartTime:      start,
		EndTime:        end,
		Status:         model.AppointmentStatusScheduled,
	}
	require.NoError(t, store.Appointments().Create(context.Background(), appointment))
	return appointment
}

func TestListBookableSlotsPartitionsWindow(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	// a one-hour window cut into 25-minute slots leaves a 10-minute remainder
	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(10, 0))

	slots, err := svc.ListBookableSlots(context.Background(), practitionerID, day, 25*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, timerange.NewClock(9, 0), slots[0].Start)
	assert.Equal(t, timerange.NewClock(9, 25), slots[0].End)
	assert.Equal(t, timerange.NewClock(9, 25), slots[1].Start)
	assert.Equal(t, timerange.NewClock(9, 50), slots[1].End)
	assert.True(t, slots[0].Available)
	assert.True(t, slots[1].Available)
	assert.Equal(t, "09:00 AM - 09:25 AM", slots[0].Display)
}

func TestListBookableSlotsMarksConflicts(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(12, 0))
	seedAppointment(t, store, practitionerID, day, timerange.NewClock(10, 0), timerange.NewClock(10, 30))

	slots, err := svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for _, slot := range slots {
		if slot.Start.Equal(timerange.NewClock(10, 0)) {
			assert.False(t, slot.Available)
		} else {
			assert.True(t, slot.Available, "slot %s should be free", slot.Display)
		}
	}
}

func TestListBookableSlotsNoWindow(t *testing.T) {
	svc, _ := newTestService(t)

	slots, err := svc.ListBookableSlots(context.Background(), uuid.New(), date(2026, 9, 2), 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestListBookableSlotsInvalidDuration(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListBookableSlots(context.Background(), uuid.New(), date(2026, 9, 2), 0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidInput))
}

func TestIsBookable(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(17, 0))
	seedAppointment(t, store, practitionerID, day, timerange.NewClock(10, 0), timerange.NewClock(10, 30))

	tests := []struct {
		name       string
		start, end timerange.Clock
		want       bool
	}{
		{"overlaps booked tail", timerange.NewClock(10, 15), timerange.NewClock(10, 45), false},
		{"touches booked end", timerange.NewClock(10, 30), timerange.NewClock(11, 0), true},
		{"touches booked start", timerange.NewClock(9, 30), timerange.NewClock(10, 0), true},
		{"free of conflicts", timerange.NewClock(14, 0), timerange.NewClock(15, 0), true},
		{"starts before window", timerange.NewClock(8, 30), timerange.NewClock(9, 30), false},
		{"ends after window", timerange.NewClock(16, 30), timerange.NewClock(17, 30), false},
		{"fills whole window", timerange.NewClock(9, 0), timerange.NewClock(17, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookable, err := svc.IsBookable(context.Background(), practitionerID, day, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bookable)
		})
	}
}

func TestIsBookableWithoutWindow(t *testing.T) {
	svc, _ := newTestService(t)

	bookable, err := svc.IsBookable(context.Background(), uuid.New(), date(2026, 9, 2),
		timerange.NewClock(9, 0), timerange.NewClock(10, 0))
	require.NoError(t, err)
	assert.False(t, bookable)
}

func TestIsBookableInvalidRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IsBookable(context.Background(), uuid.New(), date(2026, 9, 2),
		timerange.NewClock(10, 0), timerange.NewClock(9, 0))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidRange))
}

func TestBook(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID, clientID := uuid.New(), uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(17, 0))

	appointment, err := svc.Book(context.Background(), practitionerID, clientID, day,
		timerange.NewClock(10, 0), timerange.NewClock(10, 30))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, clientID, appointment.ClientID)

	// the slot is now taken
	bookable, err := svc.IsBookable(context.Background(), practitionerID, day,
		timerange.NewClock(10, 0), timerange.NewClock(10, 30))
	require.NoError(t, err)
	assert.False(t, bookable)

	// the adjacent slot is not
	_, err = svc.Book(context.Background(), practitionerID, clientID, day,
		timerange.NewClock(10, 30), timerange.NewClock(11, 0))
	require.NoError(t, err)
}

func TestBookUnavailableSlot(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(17, 0))
	seedAppointment(t, store, practitionerID, day, timerange.NewClock(10, 0), timerange.NewClock(10, 30))

	_, err := svc.Book(context.Background(), practitionerID, uuid.New(), day,
		timerange.NewClock(10, 15), timerange.NewClock(10, 45))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotUnavailable))

	// outside any window
	_, err = svc.Book(context.Background(), practitionerID, uuid.New(), date(2026, 9, 3),
		timerange.NewClock(10, 0), timerange.NewClock(10, 30))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotUnavailable))
}

func TestBookInvalidatesSlotCache(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(10, 0))

	slots, err := svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)

	_, err = svc.Book(context.Background(), practitionerID, uuid.New(), day,
		timerange.NewClock(9, 0), timerange.NewClock(9, 30))
	require.NoError(t, err)

	slots, err = svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.False(t, slots[0].Available)
	assert.True(t, slots[1].Available)
}

func TestCancelAndComplete(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	first := seedAppointment(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(9, 30))
	second := seedAppointment(t, store, practitionerID, day, timerange.NewClock(10, 0), timerange.NewClock(10, 30))

	require.NoError(t, svc.Cancel(context.Background(), first.ID))
	got, err := svc.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)

	require.NoError(t, svc.Complete(context.Background(), second.ID))
	got, err = svc.Get(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)

	// only scheduled appointments transition
	err = svc.Cancel(context.Background(), first.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidInput))
	err = svc.Complete(context.Background(), second.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidInput))

	err = svc.Cancel(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestCancelFreesSlot(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedWindow(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(17, 0))
	appointment := seedAppointment(t, store, practitionerID, day, timerange.NewClock(10, 0), timerange.NewClock(10, 30))

	bookable, err := svc.IsBookable(context.Background(), practitionerID, day,
		timerange.NewClock(10, 0), timerange.NewClock(10, 30))
	require.NoError(t, err)
	require.False(t, bookable)

	require.NoError(t, svc.Cancel(context.Background(), appointment.ID))

	bookable, err = svc.IsBookable(context.Background(), practitionerID, day,
		timerange.NewClock(10, 0), timerange.NewClock(10, 30))
	require.NoError(t, err)
	assert.True(t, bookable)
}

func TestPastListingsOrderLatestFirstWithinDay(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 8, 20)

	var clientID uuid.UUID
	for _, start := range []timerange.Clock{timerange.NewClock(9, 0), timerange.NewClock(11, 0), timerange.NewClock(10, 0)} {
		appointment := seedAppointment(t, store, practitionerID, day, start, start.Add(30*time.Minute))
		clientID = appointment.ClientID
	}
	earlier := seedAppointment(t, store, practitionerID, date(2026, 8, 19), timerange.NewClock(14, 0), timerange.NewClock(14, 30))

	// date desc, then start time desc within the same day
	past, err := svc.PastForPractitioner(context.Background(), practitionerID)
	require.NoError(t, err)
	require.Len(t, past, 4)
	assert.Equal(t, timerange.NewClock(11, 0), past[0].StartTime)
	assert.Equal(t, timerange.NewClock(10, 0), past[1].StartTime)
	assert.Equal(t, timerange.NewClock(9, 0), past[2].StartTime)
	assert.Equal(t, earlier.ID, past[3].ID)

	got, err := svc.PastForClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, timerange.NewClock(10, 0), got[0].StartTime)
}

func TestUpcomingListingsOrderEarliestFirstWithinDay(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID := uuid.New()
	day := date(2026, 9, 2)

	seedAppointment(t, store, practitionerID, day, timerange.NewClock(11, 0), timerange.NewClock(11, 30))
	seedAppointment(t, store, practitionerID, day, timerange.NewClock(9, 0), timerange.NewClock(9, 30))

	upcoming, err := svc.UpcomingForPractitioner(context.Background(), practitionerID)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, timerange.NewClock(9, 0), upcoming[0].StartTime)
	assert.Equal(t, timerange.NewClock(11, 0), upcoming[1].StartTime)
}

func TestWindowMutationsFlushSlotCache(t *testing.T) {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	svc := NewService(store, log, metrics.New("test"), time.Hour)
	availabilitySvc := availability.NewService(store, log, metrics.New("test_availability"), time.Hour)
	availabilitySvc.OnWindowsChanged(svc.FlushSlotCache)

	practitionerID := uuid.New()
	day := date(2030, 1, 2)

	_, err := availabilitySvc.Publish(context.Background(), practitionerID, day,
		timerange.NewClock(9, 0), timerange.NewClock(10, 0))
	require.NoError(t, err)

	slots, err := svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// reshaping the window must not leave the old grid cached
	_, err = availabilitySvc.Publish(context.Background(), practitionerID, day,
		timerange.NewClock(9, 0), timerange.NewClock(12, 0))
	require.NoError(t, err)

	slots, err = svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, slots, 6)

	windows, err := availabilitySvc.ListActive(context.Background(), practitionerID)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	require.NoError(t, availabilitySvc.DeactivateAsOwner(context.Background(), windows[0].ID, practitionerID))

	slots, err = svc.ListBookableSlots(context.Background(), practitionerID, day, 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAppointmentQuerySurface(t *testing.T) {
	svc, store := newTestService(t)
	practitionerID, clientID := uuid.New(), uuid.New()

	past := &model.Appointment{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		ClientID:       clientID,
		Date:           date(2026, 8, 20),
		StartTime:      timerange.NewClock(9, 0),
		EndTime:        timerange.NewClock(9, 30),
		Status:         model.AppointmentStatusCompleted,
	}
	require.NoError(t, store.Appointments().Create(context.Background(), past))

	upcoming := &model.Appointment{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		ClientID:       clientID,
		Date:           date(2026, 9, 2),
		StartTime:      timerange.NewClock(10, 0),
		EndTime:        timerange.NewClock(10, 30),
		Status:         model.AppointmentStatusScheduled,
	}
	require.NoError(t, store.Appointments().Create(context.Background(), upcoming))

	got, err := svc.UpcomingForPractitioner(context.Background(), practitionerID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, upcoming.ID, got[0].ID)

	got, err = svc.PastForClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, past.ID, got[0].ID)

	got, err = svc.RangeForPractitioner(context.Background(), practitionerID, date(2026, 8, 1), date(2026, 9, 30))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	count, err := svc.CountForClient(context.Background(), clientID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	has, err := svc.HasScheduledWith(context.Background(), practitionerID, clientID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, svc.Cancel(context.Background(), upcoming.ID))
	has, err = svc.HasScheduledWith(context.Background(), practitionerID, clientID)
	require.NoError(t, err)
	assert.False(t, has)
}
