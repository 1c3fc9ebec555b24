package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ConfirmedPastEnd finds confirmed appointments whose slot ended before now.
func (r *JobRepository) ConfirmedPastEnd(ctx context.Context, now time.Time) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id FROM appointments
		WHERE status = 'confirmed'
		  AND date + start_time::time + make_interval(mins => duration_min) < $1`,
		now)
	if err != nil {
		return nil, fmt.Errorf("error querying confirmed appointments past end: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning appointment id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompleteAppointments moves the given confirmed appointments to completed
// and records the transitions.
func (r *JobRepository) CompleteAppointments(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting completion transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE appointments SET status = 'completed', updated_at = NOW()
		WHERE id = ANY($1) AND status = 'confirmed'`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("error completing appointments: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO appointment_status_events (appointment_id, from_status, to_status, changed_at)
		SELECT id, 'confirmed', 'completed', NOW() FROM appointments
		WHERE id = ANY($1) AND status = 'completed'`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("error recording completion events: %w", err)
	}

	return tx.Commit()
}

// DeleteStalePending removes pending appointments created before the cutoff;
// their claimed schedule slots are released first.
func (r *JobRepository) DeleteStalePending(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting purge transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE schedule_slots SET status = 'available'
		WHERE status = 'booked' AND id IN (
			SELECT schedule_slot_id FROM appointments
			WHERE status = 'pending' AND created_at < $1 AND schedule_slot_id IS NOT NULL
		)`, before); err != nil {
		return 0, fmt.Errorf("error releasing stale slots: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM appointments WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale pending appointments: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return deleted, tx.Commit()
}
