package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tireservice/internal/clock"
	"tireservice/internal/db"
	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
	"tireservice/internal/schedule"
)

// DefaultHorizonDays is how far ahead customers can book.
const DefaultHorizonDays = 14

// ServicePointStore is the slice of the service-point repository the
// availability queries need.
type ServicePointStore interface {
	GetByID(ctx context.Context, id int) (*db.ServicePoint, error)
	ListPosts(ctx context.Context, servicePointID int) ([]db.Post, error)
}

// AppointmentCounter reports consumed capacity out of the booking store.
type AppointmentCounter interface {
	CountActiveByTime(ctx context.Context, servicePointID int, date string) (map[string]int, error)
	CountActiveAt(ctx context.Context, servicePointID int, date, start string) (int, error)
}

// AvailabilityService is the read side of the scheduling core: which days
// are open, which times still have a free post, and whether a requested slot
// can take one more booking.
type AvailabilityService struct {
	points ServicePointStore
	counts AppointmentCounter
	clk    clock.Clock
	logger *zap.Logger
}

func NewAvailabilityService(points ServicePointStore, counts AppointmentCounter, clk clock.Clock, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{points: points, counts: counts, clk: clk, logger: logger}
}

// AvailableDays lists the non-closed dates within the horizon. A week whose
// every day is closed or unparseable yields an empty list, not an error.
func (s *AvailabilityService) AvailableDays(ctx context.Context, servicePointID, horizonDays int) ([]entities.AvailableDay, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	sp, err := s.points.GetByID(ctx, servicePointID)
	if err != nil {
		return nil, err
	}

	week := schedule.ParseWeek(sp.WorkingHours, s.logger)
	today := s.clk.Today()

	days := make([]entities.AvailableDay, 0, horizonDays)
	for offset := 0; offset < horizonDays; offset++ {
		date := today.AddDate(0, 0, offset)
		if week.Day(date).Closed {
			continue
		}
		days = append(days, entities.AvailableDay{
			Date:    date.Format(schedule.DateLayout),
			Weekday: schedule.WeekdayName(date.Weekday()),
		})
	}
	return days, nil
}

// TimeSlots enumerates candidate start times for one date with aggregate
// post capacity. Slots are generated lazily from working hours, so the
// query works whether or not the batch materialization has run.
func (s *AvailabilityService) TimeSlots(ctx context.Context, servicePointID int, date string) ([]entities.TimeSlotAvailability, error) {
	day, week, posts, source, err := s.dayConfig(ctx, servicePointID, date)
	if err != nil {
		return nil, err
	}

	slots := schedule.GenerateDay(week, posts, day)
	if len(slots) == 0 {
		return []entities.TimeSlotAvailability{}, nil
	}

	bookedByTime, err := s.counts.CountActiveByTime(ctx, servicePointID, date)
	if err != nil {
		return nil, fmt.Errorf("error loading consumed capacity: %w", err)
	}
	booked := make(map[schedule.TimeOfDay]int, len(bookedByTime))
	for start, n := range bookedByTime {
		t, err := schedule.ParseTimeOfDay(start)
		if err != nil {
			s.logger.Warn("skipping booking with malformed start time",
				zap.Int("service_point_id", servicePointID),
				zap.String("start_time", start))
			continue
		}
		booked[t] = n
	}

	capacities := schedule.BuildDayCapacity(slots, booked, source)
	out := make([]entities.TimeSlotAvailability, 0, len(capacities))
	for _, c := range capacities {
		out = append(out, entities.NewTimeSlotAvailability(c))
	}
	return out, nil
}

// ValidateSlot is the booking-time gate. It returns the baseline capacity
// for the slot so the scheduler can re-check it inside the write
// transaction, and whether at least one post is currently free.
func (s *AvailabilityService) ValidateSlot(ctx context.Context, servicePointID int, date, start string) (int, bool, error) {
	startTime, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return 0, false, apperrors.NewValidation("time")
	}

	day, week, posts, _, err := s.dayConfig(ctx, servicePointID, date)
	if err != nil {
		return 0, false, err
	}

	baseline := schedule.BaselineAt(schedule.GenerateDay(week, posts, day), startTime)
	if baseline == 0 {
		return 0, false, nil
	}

	consumed, err := s.counts.CountActiveAt(ctx, servicePointID, date, startTime.String())
	if err != nil {
		return 0, false, fmt.Errorf("error counting bookings: %w", err)
	}
	return baseline, consumed < baseline, nil
}

// dayConfig loads the point, normalizes its hours and resolves the post
// configuration for one date.
func (s *AvailabilityService) dayConfig(ctx context.Context, servicePointID int, date string) (day time.Time, week schedule.WeekHours, posts []schedule.PostConfig, source schedule.CapacitySource, err error) {
	sp, err := s.points.GetByID(ctx, servicePointID)
	if err != nil {
		return time.Time{}, nil, nil, schedule.SourceComputed, err
	}
	day, err = time.ParseInLocation(schedule.DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, nil, nil, schedule.SourceComputed,
			apperrors.NewValidation("date")
	}

	week = schedule.ParseWeek(sp.WorkingHours, s.logger)
	rows, err := s.points.ListPosts(ctx, servicePointID)
	if err != nil {
		return time.Time{}, nil, nil, schedule.SourceComputed,
			fmt.Errorf("error loading posts for point %d: %w", servicePointID, err)
	}

	posts, source = s.postConfigs(sp, rows)
	return day, week, posts, source, nil
}

// postConfigs resolves the per-post durations. Post rows past num_posts are
// ignored; missing ones get the default duration. A point with no post rows
// at all falls back to the historical default and the result is tagged
// Estimated so callers can tell assumed capacity from configured capacity.
func (s *AvailabilityService) postConfigs(sp *db.ServicePoint, rows []db.Post) ([]schedule.PostConfig, schedule.CapacitySource) {
	if len(rows) == 0 {
		if sp.NumPosts > 0 {
			posts := make([]schedule.PostConfig, sp.NumPosts)
			for i := range posts {
				posts[i] = schedule.PostConfig{Number: i + 1, DurationMin: schedule.DefaultSlotDurationMin}
			}
			return posts, schedule.SourceComputed
		}
		s.logger.Warn("service point has no post configuration, using estimated capacity",
			zap.Int("service_point_id", sp.ID),
			zap.Int("default_posts", schedule.DefaultPostCount))
		return schedule.DefaultPosts(), schedule.SourceEstimated
	}

	byNumber := make(map[int]db.Post, len(rows))
	for _, row := range rows {
		if sp.NumPosts > 0 && row.Number > sp.NumPosts {
			s.logger.Warn("ignoring post beyond declared post count",
				zap.Int("service_point_id", sp.ID),
				zap.Int("post_number", row.Number),
				zap.Int("num_posts", sp.NumPosts))
			continue
		}
		byNumber[row.Number] = row
	}

	count := sp.NumPosts
	if count <= 0 {
		count = len(rows)
	}
	posts := make([]schedule.PostConfig, 0, count)
	for number := 1; number <= count; number++ {
		duration := schedule.DefaultSlotDurationMin
		if row, ok := byNumber[number]; ok && row.SlotDurationMin > 0 {
			duration = row.SlotDurationMin
		}
		posts = append(posts, schedule.PostConfig{Number: number, DurationMin: duration})
	}
	return posts, schedule.SourceComputed
}
