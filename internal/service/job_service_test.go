package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tireservice/internal/clock"
	"tireservice/internal/schedule"
)

type fakeSlotWriter struct {
	upserts       map[int][]schedule.Slot
	deletedBefore string
}

func newFakeSlotWriter() *fakeSlotWriter {
	return &fakeSlotWriter{upserts: make(map[int][]schedule.Slot)}
}

func (f *fakeSlotWriter) UpsertSlots(_ context.Context, servicePointID int, slots []schedule.Slot) (int64, error) {
	f.upserts[servicePointID] = append(f.upserts[servicePointID], slots...)
	return int64(len(slots)), nil
}

func (f *fakeSlotWriter) DeleteBefore(_ context.Context, date string) (int64, error) {
	f.deletedBefore = date
	return 0, nil
}

type fakeMaintenanceStore struct {
	pastEnd      []int
	completed    []int
	purgedBefore time.Time
}

func (f *fakeMaintenanceStore) ConfirmedPastEnd(_ context.Context, _ time.Time) ([]int, error) {
	return f.pastEnd, nil
}

func (f *fakeMaintenanceStore) CompleteAppointments(_ context.Context, ids []int) error {
	f.completed = append(f.completed, ids...)
	return nil
}

func (f *fakeMaintenanceStore) DeleteStalePending(_ context.Context, before time.Time) (int64, error) {
	f.purgedBefore = before
	return 1, nil
}

func TestMaterializeSchedulesHonorsClosedDays(t *testing.T) {
	points := newFakePointStore()
	addPoint(points, 1, 1, `{"monday": "09:00-11:00", "sunday": "closed"}`, 30)

	writer := newFakeSlotWriter()
	jobs := NewJobService(points, writer, &fakeMaintenanceStore{}, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.MaterializeSchedules(context.Background()))

	slots := writer.upserts[1]
	require.NotEmpty(t, slots)
	dates := map[string]bool{}
	for _, slot := range slots {
		dates[slot.Date] = true
	}
	// Two Mondays inside the 14-day horizon, no Sundays, nothing else.
	assert.Equal(t, map[string]bool{"2025-06-02": true, "2025-06-09": true}, dates)
	assert.Len(t, slots, 2*4, "four 30-minute slots per open day")
	assert.Equal(t, "2025-06-02", writer.deletedBefore)
}

func TestMaterializeSchedulesSkipsUnconfiguredPoints(t *testing.T) {
	points := newFakePointStore()
	addPoint(points, 1, 0, `{"monday": "09:00-11:00"}`)

	writer := newFakeSlotWriter()
	jobs := NewJobService(points, writer, &fakeMaintenanceStore{}, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.MaterializeSchedules(context.Background()))
	assert.Empty(t, writer.upserts, "estimated capacity must not be frozen into rows")
}

func TestMaterializeSchedulesUsesDeclaredPostsWithoutRows(t *testing.T) {
	points := newFakePointStore()
	addPoint(points, 1, 2, `{"monday": "09:00-10:00"}`)

	writer := newFakeSlotWriter()
	jobs := NewJobService(points, writer, &fakeMaintenanceStore{}, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.MaterializeSchedules(context.Background()))
	// Two declared posts with the default duration over two Mondays.
	assert.Len(t, writer.upserts[1], 2*2*2)
}

func TestCompletePastAppointments(t *testing.T) {
	store := &fakeMaintenanceStore{pastEnd: []int{7, 8}}
	jobs := NewJobService(newFakePointStore(), newFakeSlotWriter(), store, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.CompletePastAppointments(context.Background()))
	assert.Equal(t, []int{7, 8}, store.completed)
}

func TestCompletePastAppointmentsNothingToDo(t *testing.T) {
	store := &fakeMaintenanceStore{}
	jobs := NewJobService(newFakePointStore(), newFakeSlotWriter(), store, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.CompletePastAppointments(context.Background()))
	assert.Empty(t, store.completed)
}

func TestPurgeStalePendingCutoff(t *testing.T) {
	store := &fakeMaintenanceStore{}
	jobs := NewJobService(newFakePointStore(), newFakeSlotWriter(), store, clock.Fixed(testMonday), zap.NewNop())

	require.NoError(t, jobs.PurgeStalePending(context.Background()))
	assert.Equal(t, testMonday.Add(-StalePendingAge), store.purgedBefore)
}
