package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tireservice/internal/clock"
	"tireservice/internal/db"
	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
)

func newSchedulerFixture(numPosts int) (*AppointmentService, *fakeAppointmentStore) {
	points := newFakePointStore()
	durations := make([]int, numPosts)
	for i := range durations {
		durations[i] = 30
	}
	addPoint(points, 1, numPosts, `{"monday": "09:00-18:00"}`, durations...)

	appts := newFakeAppointmentStore()
	availability := NewAvailabilityService(points, appts, clock.Fixed(testMonday), zap.NewNop())
	scheduler := NewAppointmentService(appts, availability, clock.Fixed(testMonday), zap.NewNop())
	return scheduler, appts
}

func bookingRequest() *entities.AppointmentRequest {
	return &entities.AppointmentRequest{
		ServicePointID: 1,
		ClientName:     "Ivan Petrov",
		ClientPhone:    "+79001234567",
		CarInfo:        "VW Golf",
		Date:           "2025-06-02",
		Time:           "09:00",
	}
}

func TestCreateValidation(t *testing.T) {
	scheduler, _ := newSchedulerFixture(1)

	_, err := scheduler.Create(context.Background(), &entities.AppointmentRequest{})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ElementsMatch(t,
		[]string{"service_point_id", "client_name", "client_phone", "date", "time"},
		validation.Fields)

	req := bookingRequest()
	req.Time = "not-a-time"
	_, err = scheduler.Create(context.Background(), req)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"time"}, validation.Fields)
}

func TestCreatePendingAppointment(t *testing.T) {
	scheduler, store := newSchedulerFixture(1)

	appt, err := scheduler.Create(context.Background(), bookingRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, appt.Code)
	assert.Equal(t, db.AppointmentStatusPending, appt.Status)
	assert.Equal(t, "09:00", appt.StartTime)
	assert.Equal(t, 30, appt.DurationMin)

	loaded, err := store.GetByCode(context.Background(), appt.Code)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, loaded.ID)
}

func TestCreateUnknownPoint(t *testing.T) {
	scheduler, _ := newSchedulerFixture(1)

	req := bookingRequest()
	req.ServicePointID = 42
	_, err := scheduler.Create(context.Background(), req)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCreateFullSlotFails(t *testing.T) {
	scheduler, _ := newSchedulerFixture(1)

	_, err := scheduler.Create(context.Background(), bookingRequest())
	require.NoError(t, err)

	_, err = scheduler.Create(context.Background(), bookingRequest())
	var unavailable *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCreateOffGridTimeFails(t *testing.T) {
	scheduler, _ := newSchedulerFixture(1)

	req := bookingRequest()
	req.Time = "09:10"
	_, err := scheduler.Create(context.Background(), req)
	var unavailable *apperrors.SlotUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

// P+1 simultaneous requests for a slot with P posts must yield exactly P
// bookings and one SlotUnavailable.
func TestCreateConcurrentNoOverbooking(t *testing.T) {
	const posts = 3
	scheduler, store := newSchedulerFixture(posts)

	var wg sync.WaitGroup
	errs := make([]error, posts+1)
	for i := 0; i < posts+1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = scheduler.Create(context.Background(), bookingRequest())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	unavailable := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var slotErr *apperrors.SlotUnavailableError
		require.ErrorAs(t, err, &slotErr)
		unavailable++
	}
	assert.Equal(t, posts, succeeded)
	assert.Equal(t, 1, unavailable)

	stored, err := store.List(context.Background(), "2025-06-02", "", 1)
	require.NoError(t, err)
	assert.Len(t, stored, posts)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{db.AppointmentStatusPending, db.AppointmentStatusConfirmed, true},
		{db.AppointmentStatusPending, db.AppointmentStatusCancelled, true},
		{db.AppointmentStatusPending, db.AppointmentStatusCompleted, false},
		{db.AppointmentStatusConfirmed, db.AppointmentStatusCompleted, true},
		{db.AppointmentStatusConfirmed, db.AppointmentStatusCancelled, true},
		{db.AppointmentStatusConfirmed, db.AppointmentStatusPending, false},
		{db.AppointmentStatusCompleted, db.AppointmentStatusCancelled, false},
		{db.AppointmentStatusCancelled, db.AppointmentStatusPending, false},
		{db.AppointmentStatusCancelled, db.AppointmentStatusConfirmed, false},
		{db.AppointmentStatusPending, "nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			scheduler, store := newSchedulerFixture(1)
			appt, err := scheduler.Create(context.Background(), bookingRequest())
			require.NoError(t, err)
			store.appts[appt.ID].Status = tt.from

			updated, err := scheduler.UpdateStatus(context.Background(), appt.ID, tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, updated.Status)
				return
			}
			var transition *apperrors.InvalidTransitionError
			require.ErrorAs(t, err, &transition)
			assert.Equal(t, tt.from, transition.From)
			assert.Equal(t, tt.to, transition.To)
		})
	}
}

func TestCancelFreesCapacity(t *testing.T) {
	points := newFakePointStore()
	addPoint(points, 1, 1, `{"monday": "09:00-18:00"}`, 30)
	appts := newFakeAppointmentStore()
	availability := NewAvailabilityService(points, appts, clock.Fixed(testMonday), zap.NewNop())
	scheduler := NewAppointmentService(appts, availability, clock.Fixed(testMonday), zap.NewNop())

	appt, err := scheduler.Create(context.Background(), bookingRequest())
	require.NoError(t, err)

	_, ok, err := availability.ValidateSlot(context.Background(), 1, "2025-06-02", "09:00")
	require.NoError(t, err)
	require.False(t, ok, "slot fully booked")

	cancelled, err := scheduler.CancelByCode(context.Background(), appt.Code)
	require.NoError(t, err)
	assert.Equal(t, db.AppointmentStatusCancelled, cancelled.Status)

	// The freed post is immediately visible to availability queries.
	_, ok, err = availability.ValidateSlot(context.Background(), 1, "2025-06-02", "09:00")
	require.NoError(t, err)
	assert.True(t, ok)

	// And a new booking for the same slot succeeds.
	_, err = scheduler.Create(context.Background(), bookingRequest())
	assert.NoError(t, err)
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	scheduler, _ := newSchedulerFixture(1)
	_, err := scheduler.UpdateStatus(context.Background(), 404, db.AppointmentStatusConfirmed)
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
