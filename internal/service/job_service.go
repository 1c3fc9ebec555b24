package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tireservice/internal/clock"
	"tireservice/internal/db"
	"tireservice/internal/schedule"
)

// StalePendingAge is how long a pending appointment may sit unconfirmed
// before the purge job drops it.
const StalePendingAge = 48 * time.Hour

// PointLister is the slice of the service-point repository the jobs need.
type PointLister interface {
	ListWorking(ctx context.Context) ([]db.ServicePoint, error)
	ListPosts(ctx context.Context, servicePointID int) ([]db.Post, error)
}

// SlotWriter materializes and prunes pre-generated slot rows.
type SlotWriter interface {
	UpsertSlots(ctx context.Context, servicePointID int, slots []schedule.Slot) (int64, error)
	DeleteBefore(ctx context.Context, date string) (int64, error)
}

// MaintenanceStore covers the batch status moves the jobs perform.
type MaintenanceStore interface {
	ConfirmedPastEnd(ctx context.Context, now time.Time) ([]int, error)
	CompleteAppointments(ctx context.Context, ids []int) error
	DeleteStalePending(ctx context.Context, before time.Time) (int64, error)
}

// JobService runs the cron-driven maintenance: keeping the 14-day slot
// horizon materialized, completing appointments whose time has passed, and
// purging pending ones that were never confirmed.
type JobService struct {
	points    PointLister
	schedules SlotWriter
	store     MaintenanceStore
	clk       clock.Clock
	logger    *zap.Logger
}

func NewJobService(points PointLister, schedules SlotWriter, store MaintenanceStore, clk clock.Clock, logger *zap.Logger) *JobService {
	return &JobService{points: points, schedules: schedules, store: store, clk: clk, logger: logger}
}

// MaterializeSchedules generates and upserts the slot horizon for every
// working service point. Points without post configuration are skipped —
// materializing estimated capacity would freeze an assumption into rows.
func (s *JobService) MaterializeSchedules(ctx context.Context) error {
	points, err := s.points.ListWorking(ctx)
	if err != nil {
		return err
	}

	today := s.clk.Today()
	for _, sp := range points {
		rows, err := s.points.ListPosts(ctx, sp.ID)
		if err != nil {
			return err
		}
		if len(rows) == 0 && sp.NumPosts <= 0 {
			s.logger.Warn("skipping slot materialization for point without posts",
				zap.Int("service_point_id", sp.ID))
			continue
		}

		posts := make([]schedule.PostConfig, 0, len(rows))
		for _, row := range rows {
			posts = append(posts, schedule.PostConfig{Number: row.Number, DurationMin: row.SlotDurationMin})
		}
		if len(posts) == 0 {
			for number := 1; number <= sp.NumPosts; number++ {
				posts = append(posts, schedule.PostConfig{Number: number, DurationMin: schedule.DefaultSlotDurationMin})
			}
		}

		week := schedule.ParseWeek(sp.WorkingHours, s.logger)
		slots := schedule.Generate(week, posts, today, DefaultHorizonDays)
		inserted, err := s.schedules.UpsertSlots(ctx, sp.ID, slots)
		if err != nil {
			return err
		}
		if inserted > 0 {
			s.logger.Info("materialized schedule slots",
				zap.Int("service_point_id", sp.ID),
				zap.Int64("inserted", inserted))
		}
	}

	purged, err := s.schedules.DeleteBefore(ctx, today.Format(schedule.DateLayout))
	if err != nil {
		return err
	}
	if purged > 0 {
		s.logger.Info("purged past schedule slots", zap.Int64("deleted", purged))
	}
	return nil
}

// CompletePastAppointments moves confirmed appointments whose end time has
// passed to completed.
func (s *JobService) CompletePastAppointments(ctx context.Context) error {
	ids, err := s.store.ConfirmedPastEnd(ctx, s.clk.Now())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.CompleteAppointments(ctx, ids); err != nil {
		return err
	}
	s.logger.Info("completed past appointments", zap.Int("count", len(ids)))
	return nil
}

// PurgeStalePending drops pending appointments older than StalePendingAge.
func (s *JobService) PurgeStalePending(ctx context.Context) error {
	deleted, err := s.store.DeleteStalePending(ctx, s.clk.Now().Add(-StalePendingAge))
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("purged stale pending appointments", zap.Int64("deleted", deleted))
	}
	return nil
}
