package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tireservice/internal/db"
	apperrors "tireservice/internal/errors"
)

type ServicePointRepository struct {
	DB *sql.DB
}

func NewServicePointRepository(database *sql.DB) *ServicePointRepository {
	return &ServicePointRepository{DB: database}
}

const servicePointColumns = `
	id, partner_id, name, address, region, city,
	COALESCE(lat, 0), COALESCE(lng, 0),
	working_hours, num_posts, status, created_at, updated_at, deleted_at`

func scanServicePoint(row interface{ Scan(...any) error }) (*db.ServicePoint, error) {
	var sp db.ServicePoint
	err := row.Scan(
		&sp.ID, &sp.PartnerID, &sp.Name, &sp.Address, &sp.Region, &sp.City,
		&sp.Lat, &sp.Lng,
		&sp.WorkingHours, &sp.NumPosts, &sp.Status,
		&sp.CreatedAt, &sp.UpdatedAt, &sp.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *ServicePointRepository) GetByID(ctx context.Context, id int) (*db.ServicePoint, error) {
	query := `SELECT` + servicePointColumns + `
		FROM service_points WHERE id = $1 AND deleted_at IS NULL`
	sp, err := scanServicePoint(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("service point", id)
		}
		return nil, fmt.Errorf("error querying service point %d: %w", id, err)
	}
	return sp, nil
}

func (r *ServicePointRepository) list(ctx context.Context, where string, args ...any) ([]db.ServicePoint, error) {
	query := `SELECT` + servicePointColumns + ` FROM service_points ` + where + ` ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying service points: %w", err)
	}
	defer rows.Close()

	var points []db.ServicePoint
	for rows.Next() {
		sp, err := scanServicePoint(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning service point: %w", err)
		}
		points = append(points, *sp)
	}
	return points, rows.Err()
}

// ListWorking returns only points visible to the customer booking flow.
func (r *ServicePointRepository) ListWorking(ctx context.Context) ([]db.ServicePoint, error) {
	return r.list(ctx, `WHERE deleted_at IS NULL AND status = $1`, db.PointStatusWorking)
}

// ListAll returns every non-deleted point, including suspended ones.
func (r *ServicePointRepository) ListAll(ctx context.Context) ([]db.ServicePoint, error) {
	return r.list(ctx, `WHERE deleted_at IS NULL`)
}

func (r *ServicePointRepository) ListPosts(ctx context.Context, servicePointID int) ([]db.Post, error) {
	query := `
		SELECT id, service_point_id, post_number, name, COALESCE(description, ''), slot_duration_min
		FROM posts WHERE service_point_id = $1 ORDER BY post_number`
	rows, err := r.DB.QueryContext(ctx, query, servicePointID)
	if err != nil {
		return nil, fmt.Errorf("error querying posts for point %d: %w", servicePointID, err)
	}
	defer rows.Close()

	var posts []db.Post
	for rows.Next() {
		var p db.Post
		if err := rows.Scan(&p.ID, &p.ServicePointID, &p.Number, &p.Name, &p.Description, &p.SlotDurationMin); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Create inserts the point and its post rows in one transaction.
func (r *ServicePointRepository) Create(ctx context.Context, sp *db.ServicePoint, posts []db.Post) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO service_points
		(partner_id, name, address, region, city, lat, lng, working_hours, num_posts, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		sp.PartnerID, sp.Name, sp.Address, sp.Region, sp.City, sp.Lat, sp.Lng,
		sp.WorkingHours, sp.NumPosts, sp.Status,
	).Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting service point: %w", err)
	}

	for i := range posts {
		posts[i].ServicePointID = sp.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO posts (service_point_id, post_number, name, description, slot_duration_min)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			sp.ID, posts[i].Number, posts[i].Name, posts[i].Description, posts[i].SlotDurationMin,
		).Scan(&posts[i].ID)
		if err != nil {
			return fmt.Errorf("error inserting post %d: %w", posts[i].Number, err)
		}
	}

	return tx.Commit()
}

// ServicePointUpdate carries the partial-update fields; nil means unchanged.
type ServicePointUpdate struct {
	Name         *string
	Address      *string
	Region       *string
	City         *string
	Lat          *float64
	Lng          *float64
	WorkingHours []byte
	NumPosts     *int
	Status       *string
}

func (r *ServicePointRepository) Update(ctx context.Context, id int, upd ServicePointUpdate) error {
	set := []string{"updated_at = NOW()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.Region != nil {
		add("region", *upd.Region)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.Lat != nil {
		add("lat", *upd.Lat)
	}
	if upd.Lng != nil {
		add("lng", *upd.Lng)
	}
	if upd.WorkingHours != nil {
		add("working_hours", upd.WorkingHours)
	}
	if upd.NumPosts != nil {
		add("num_posts", *upd.NumPosts)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE service_points SET %s WHERE id = $%d AND deleted_at IS NULL`,
		strings.Join(set, ", "), len(args),
	)

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating service point %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("service point", id)
	}
	return nil
}

// SoftDelete marks the point removed; rows stay for history.
func (r *ServicePointRepository) SoftDelete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE service_points SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting service point %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("service point", id)
	}
	return nil
}

func (r *ServicePointRepository) ListServices(ctx context.Context, servicePointID int) ([]db.ServicePointService, error) {
	query := `
		SELECT sps.service_point_id, sps.service_id, s.name, COALESCE(sps.comment, '')
		FROM service_point_services sps
		JOIN services s ON s.id = sps.service_id
		WHERE sps.service_point_id = $1
		ORDER BY s.name`
	rows, err := r.DB.QueryContext(ctx, query, servicePointID)
	if err != nil {
		return nil, fmt.Errorf("error querying point services: %w", err)
	}
	defer rows.Close()

	var links []db.ServicePointService
	for rows.Next() {
		var link db.ServicePointService
		if err := rows.Scan(&link.ServicePointID, &link.ServiceID, &link.ServiceName, &link.Comment); err != nil {
			return nil, fmt.Errorf("error scanning point service: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// ReplaceServices swaps the full set of service links for a point.
func (r *ServicePointRepository) ReplaceServices(ctx context.Context, servicePointID int, links []db.ServicePointService) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_point_services WHERE service_point_id = $1`, servicePointID); err != nil {
		return fmt.Errorf("error clearing point services: %w", err)
	}
	for _, link := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_point_services (service_point_id, service_id, comment) VALUES ($1, $2, NULLIF($3, ''))`,
			servicePointID, link.ServiceID, link.Comment); err != nil {
			return fmt.Errorf("error inserting point service %d: %w", link.ServiceID, err)
		}
	}
	return tx.Commit()
}
