package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"tireservice/internal/schedule"
)

type ScheduleRepository struct {
	DB *sql.DB
}

func NewScheduleRepository(database *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{DB: database}
}

// UpsertSlots materializes generated slots for one service point. Existing
// rows, including ones already booked, are left untouched so re-running the
// horizon job is idempotent.
func (r *ScheduleRepository) UpsertSlots(ctx context.Context, servicePointID int, slots []schedule.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	posts := make([]int64, len(slots))
	dates := make([]string, len(slots))
	starts := make([]string, len(slots))
	ends := make([]string, len(slots))
	for i, slot := range slots {
		posts[i] = int64(slot.PostNumber)
		dates[i] = slot.Date
		starts[i] = slot.Start.String()
		ends[i] = slot.End.String()
	}

	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO schedule_slots (service_point_id, post_number, date, start_time, end_time, status)
		SELECT $1, post_number, date, start_time, end_time, 'available'
		FROM unnest($2::int[], $3::date[], $4::text[], $5::text[])
			AS t(post_number, date, start_time, end_time)
		ON CONFLICT (service_point_id, post_number, date, start_time) DO NOTHING`,
		servicePointID, pq.Array(posts), pq.Array(dates), pq.Array(starts), pq.Array(ends))
	if err != nil {
		return 0, fmt.Errorf("error upserting schedule slots for point %d: %w", servicePointID, err)
	}
	return result.RowsAffected()
}

// DeleteBefore drops unbooked slot rows for dates before the given day.
func (r *ScheduleRepository) DeleteBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM schedule_slots WHERE date < $1::date AND status = 'available'`, date)
	if err != nil {
		return 0, fmt.Errorf("error purging schedule slots before %s: %w", date, err)
	}
	return result.RowsAffected()
}

// CountForDay reports how many slot rows exist for a point and date, so
// callers can tell whether materialization has run.
func (r *ScheduleRepository) CountForDay(ctx context.Context, servicePointID int, date string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedule_slots WHERE service_point_id = $1 AND date = $2::date`,
		servicePointID, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting schedule slots: %w", err)
	}
	return n, nil
}
