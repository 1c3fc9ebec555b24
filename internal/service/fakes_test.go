package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tireservice/internal/db"
	apperrors "tireservice/internal/errors"
)

// fakePointStore backs ServicePointStore and PointLister in tests.
type fakePointStore struct {
	points map[int]*db.ServicePoint
	posts  map[int][]db.Post
}

func newFakePointStore() *fakePointStore {
	return &fakePointStore{
		points: make(map[int]*db.ServicePoint),
		posts:  make(map[int][]db.Post),
	}
}

func (f *fakePointStore) GetByID(_ context.Context, id int) (*db.ServicePoint, error) {
	sp, ok := f.points[id]
	if !ok || sp.DeletedAt != nil {
		return nil, apperrors.NewNotFound("service point", id)
	}
	cp := *sp
	return &cp, nil
}

func (f *fakePointStore) ListPosts(_ context.Context, id int) ([]db.Post, error) {
	return f.posts[id], nil
}

func (f *fakePointStore) ListWorking(_ context.Context) ([]db.ServicePoint, error) {
	var out []db.ServicePoint
	for _, sp := range f.points {
		if sp.DeletedAt == nil && sp.Status == db.PointStatusWorking {
			out = append(out, *sp)
		}
	}
	return out, nil
}

// fakeAppointmentStore is an in-memory AppointmentStore and
// AppointmentCounter. CreateIfCapacity holds the lock for the whole
// check-then-insert, mirroring the row-lock transaction of the real
// repository.
type fakeAppointmentStore struct {
	mu     sync.Mutex
	nextID int
	appts  map[int]*db.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appts: make(map[int]*db.Appointment)}
}

func slotKey(servicePointID int, date, start string) string {
	return fmt.Sprintf("%d|%s|%s", servicePointID, date, start)
}

func (f *fakeAppointmentStore) consumedLocked(key string) int {
	n := 0
	for _, a := range f.appts {
		if a.Status != db.AppointmentStatusCancelled && slotKey(a.ServicePointID, a.Date, a.StartTime) == key {
			n++
		}
	}
	return n
}

func (f *fakeAppointmentStore) CreateIfCapacity(_ context.Context, appt *db.Appointment, baseline int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.consumedLocked(slotKey(appt.ServicePointID, appt.Date, appt.StartTime)) >= baseline {
		return apperrors.NewSlotUnavailable(appt.Date, appt.StartTime)
	}
	f.nextID++
	appt.ID = f.nextID
	stored := *appt
	f.appts[appt.ID] = &stored
	return nil
}

func (f *fakeAppointmentStore) GetByCode(_ context.Context, code string) (*db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.Code == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("appointment", code)
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, id int) (*db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, apperrors.NewNotFound("appointment", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentStore) UpdateStatus(_ context.Context, id int, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return apperrors.NewNotFound("appointment", id)
	}
	if a.Status != from {
		return apperrors.NewInvalidTransition(from, to)
	}
	a.Status = to
	return nil
}

func (f *fakeAppointmentStore) List(_ context.Context, date, status string, servicePointID int) ([]db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Appointment
	for _, a := range f.appts {
		if date != "" && a.Date != date {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if servicePointID != 0 && a.ServicePointID != servicePointID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAppointmentStore) CountActiveByTime(_ context.Context, servicePointID int, date string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := fmt.Sprintf("%d|%s|", servicePointID, date)
	counts := make(map[string]int)
	for _, a := range f.appts {
		key := slotKey(a.ServicePointID, a.Date, a.StartTime)
		if a.Status != db.AppointmentStatusCancelled && strings.HasPrefix(key, prefix) {
			counts[a.StartTime]++
		}
	}
	return counts, nil
}

func (f *fakeAppointmentStore) CountActiveAt(_ context.Context, servicePointID int, date, start string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consumedLocked(slotKey(servicePointID, date, start)), nil
}
