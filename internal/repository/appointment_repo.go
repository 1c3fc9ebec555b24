package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tireservice/internal/db"
	apperrors "tireservice/internal/errors"
)

// Postgres error code for unique_violation; the partial unique index on
// non-cancelled bookings is the backstop behind the row lock.
const pqUniqueViolation = "23505"

type AppointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(database *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{DB: database}
}

const appointmentColumns = `
	a.id, a.code, a.service_point_id, a.service_id, a.schedule_slot_id,
	a.client_name, a.client_phone, COALESCE(a.client_email, ''), COALESCE(a.car_info, ''),
	to_char(a.date, 'YYYY-MM-DD'), a.start_time, a.duration_min,
	a.status, COALESCE(a.comment, ''), a.created_at, a.updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*db.Appointment, error) {
	var a db.Appointment
	err := row.Scan(
		&a.ID, &a.Code, &a.ServicePointID, &a.ServiceID, &a.ScheduleSlotID,
		&a.ClientName, &a.ClientPhone, &a.ClientEmail, &a.CarInfo,
		&a.Date, &a.StartTime, &a.DurationMin,
		&a.Status, &a.Comment, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateIfCapacity runs the whole check-then-insert critical section in one
// transaction. The service point row is locked first so concurrent bookings
// for the same point serialize; the consumed count is then compared against
// the baseline computed by the caller from working hours and post config.
// The Nth request past capacity gets SlotUnavailable, never a silent
// overbooking.
func (r *AppointmentRepository) CreateIfCapacity(ctx context.Context, appt *db.Appointment, baseline int) error {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback()

	var pointID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM service_points WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		appt.ServicePointID,
	).Scan(&pointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound("service point", appt.ServicePointID)
		}
		return fmt.Errorf("error locking service point %d: %w", appt.ServicePointID, err)
	}

	var consumed int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE service_point_id = $1 AND date = $2::date AND start_time = $3
		  AND status <> 'cancelled'`,
		appt.ServicePointID, appt.Date, appt.StartTime,
	).Scan(&consumed)
	if err != nil {
		return fmt.Errorf("error counting bookings at %s %s: %w", appt.Date, appt.StartTime, err)
	}
	if consumed >= baseline {
		return apperrors.NewSlotUnavailable(appt.Date, appt.StartTime)
	}

	// Claim a pre-generated slot row when materialization has run; post
	// assignment stays internal, so any free post at this start time will do.
	var slotID sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		UPDATE schedule_slots SET status = 'booked'
		WHERE id = (
			SELECT id FROM schedule_slots
			WHERE service_point_id = $1 AND date = $2::date AND start_time = $3 AND status = 'available'
			ORDER BY post_number
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`,
		appt.ServicePointID, appt.Date, appt.StartTime,
	).Scan(&slotID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error claiming schedule slot: %w", err)
	}
	if slotID.Valid {
		id := int(slotID.Int64)
		appt.ScheduleSlotID = &id
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO appointments
		(code, service_point_id, service_id, schedule_slot_id, client_name, client_phone,
		 client_email, car_info, date, start_time, duration_min, status, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9::date, $10, $11, $12, NULLIF($13, ''), NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		appt.Code, appt.ServicePointID, appt.ServiceID, appt.ScheduleSlotID,
		appt.ClientName, appt.ClientPhone, appt.ClientEmail, appt.CarInfo,
		appt.Date, appt.StartTime, appt.DurationMin, appt.Status, appt.Comment,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return apperrors.NewSlotUnavailable(appt.Date, appt.StartTime)
		}
		return fmt.Errorf("error inserting appointment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO appointment_status_events (appointment_id, from_status, to_status, changed_at)
		VALUES ($1, '', $2, NOW())`,
		appt.ID, appt.Status); err != nil {
		return fmt.Errorf("error recording status event: %w", err)
	}

	return tx.Commit()
}

func (r *AppointmentRepository) GetByCode(ctx context.Context, code string) (*db.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments a WHERE a.code = $1`
	appt, err := scanAppointment(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", code)
		}
		return nil, fmt.Errorf("error querying appointment %q: %w", code, err)
	}
	return appt, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int) (*db.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	appt, err := scanAppointment(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", id)
		}
		return nil, fmt.Errorf("error querying appointment %d: %w", id, err)
	}
	return appt, nil
}

// UpdateStatus applies one state-machine edge and records it in the audit
// trail. The from-status guard makes the update a no-op if another request
// moved the appointment first. Cancelling releases the claimed schedule slot
// so the capacity is visible to the next availability query.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int, from, to string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting status transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("error updating appointment %d status: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewInvalidTransition(from, to)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO appointment_status_events (appointment_id, from_status, to_status, changed_at)
		VALUES ($1, $2, $3, NOW())`,
		id, from, to); err != nil {
		return fmt.Errorf("error recording status event: %w", err)
	}

	if to == db.AppointmentStatusCancelled {
		if _, err := tx.ExecContext(ctx, `
			UPDATE schedule_slots SET status = 'available'
			WHERE id = (SELECT schedule_slot_id FROM appointments WHERE id = $1) AND status = 'booked'`,
			id); err != nil {
			return fmt.Errorf("error releasing schedule slot: %w", err)
		}
	}

	return tx.Commit()
}

// CountActiveByTime returns consumed capacity keyed by "HH:MM" start time
// for a point and date. Cancelled bookings never consume capacity.
func (r *AppointmentRepository) CountActiveByTime(ctx context.Context, servicePointID int, date string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT start_time, COUNT(*) FROM appointments
		WHERE service_point_id = $1 AND date = $2::date AND status <> 'cancelled'
		GROUP BY start_time`,
		servicePointID, date)
	if err != nil {
		return nil, fmt.Errorf("error counting bookings for %s: %w", date, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var start string
		var n int
		if err := rows.Scan(&start, &n); err != nil {
			return nil, fmt.Errorf("error scanning booking count: %w", err)
		}
		counts[start] = n
	}
	return counts, rows.Err()
}

func (r *AppointmentRepository) CountActiveAt(ctx context.Context, servicePointID int, date, start string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE service_point_id = $1 AND date = $2::date AND start_time = $3 AND status <> 'cancelled'`,
		servicePointID, date, start).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting bookings at %s %s: %w", date, start, err)
	}
	return n, nil
}

// List returns appointments for the admin view, optionally filtered by date,
// status and service point (zero values mean no filter).
func (r *AppointmentRepository) List(ctx context.Context, date, status string, servicePointID int) ([]db.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments a WHERE 1=1`
	var args []any
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND a.date = $%d::date", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if servicePointID != 0 {
		args = append(args, servicePointID)
		query += fmt.Sprintf(" AND a.service_point_id = $%d", len(args))
	}
	query += " ORDER BY a.date, a.start_time, a.id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments: %w", err)
	}
	defer rows.Close()

	var appts []db.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning appointment: %w", err)
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

// StatusHistory returns the audit trail for one appointment, oldest first.
func (r *AppointmentRepository) StatusHistory(ctx context.Context, appointmentID int) ([]db.AppointmentStatusEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, appointment_id, from_status, to_status, changed_at
		FROM appointment_status_events WHERE appointment_id = $1 ORDER BY changed_at, id`,
		appointmentID)
	if err != nil {
		return nil, fmt.Errorf("error querying status history: %w", err)
	}
	defer rows.Close()

	var events []db.AppointmentStatusEvent
	for rows.Next() {
		var e db.AppointmentStatusEvent
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.FromStatus, &e.ToStatus, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("error scanning status event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
