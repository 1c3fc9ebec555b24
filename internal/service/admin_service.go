package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tireservice/internal/db"
	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
	"tireservice/internal/repository"
	"tireservice/internal/schedule"
)

// AdminService covers the partner/admin CRUD around the scheduling core:
// service points, their post configuration and their service links.
type AdminService struct {
	points *repository.ServicePointRepository
	logger *zap.Logger
}

func NewAdminService(points *repository.ServicePointRepository, logger *zap.Logger) *AdminService {
	return &AdminService{points: points, logger: logger}
}

var validPointStatuses = map[string]bool{
	db.PointStatusWorking:   true,
	db.PointStatusSuspended: true,
	db.PointStatusClosed:    true,
}

func (s *AdminService) CreateServicePoint(ctx context.Context, req *entities.ServicePointRequest) (*db.ServicePoint, error) {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if req.NumPosts < 1 {
		missing = append(missing, "num_posts")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidation(missing...)
	}

	hours, err := normalizeHours(req.WorkingHours, s.logger)
	if err != nil {
		return nil, err
	}

	if len(req.Posts) > req.NumPosts {
		s.logger.Warn("post configuration longer than num_posts, extra entries ignored",
			zap.String("name", req.Name),
			zap.Int("num_posts", req.NumPosts),
			zap.Int("configured", len(req.Posts)))
	}

	posts := make([]db.Post, 0, req.NumPosts)
	for number := 1; number <= req.NumPosts; number++ {
		post := db.Post{
			Number:          number,
			Name:            fmt.Sprintf("Post %d", number),
			SlotDurationMin: schedule.DefaultSlotDurationMin,
		}
		if number <= len(req.Posts) {
			input := req.Posts[number-1]
			if strings.TrimSpace(input.Name) != "" {
				post.Name = input.Name
			}
			post.Description = input.Description
			if input.DurationMin > 0 {
				post.SlotDurationMin = input.DurationMin
			}
		}
		posts = append(posts, post)
	}

	sp := &db.ServicePoint{
		PartnerID:    req.PartnerID,
		Name:         req.Name,
		Address:      req.Address,
		Region:       req.Region,
		City:         req.City,
		Lat:          req.Lat,
		Lng:          req.Lng,
		WorkingHours: hours,
		NumPosts:     req.NumPosts,
		Status:       db.PointStatusWorking,
	}
	if err := s.points.Create(ctx, sp, posts); err != nil {
		return nil, err
	}

	s.logger.Info("service point created", zap.Int("id", sp.ID), zap.String("name", sp.Name))
	return sp, nil
}

func (s *AdminService) UpdateServicePoint(ctx context.Context, id int, patch *entities.ServicePointPatch) (*db.ServicePoint, error) {
	if patch.NumPosts != nil && *patch.NumPosts < 1 {
		return nil, apperrors.NewValidation("num_posts")
	}
	if patch.Status != nil && !validPointStatuses[*patch.Status] {
		return nil, apperrors.NewValidation("status")
	}

	upd := repository.ServicePointUpdate{
		Name:     patch.Name,
		Address:  patch.Address,
		Region:   patch.Region,
		City:     patch.City,
		Lat:      patch.Lat,
		Lng:      patch.Lng,
		NumPosts: patch.NumPosts,
		Status:   patch.Status,
	}
	if len(patch.WorkingHours) > 0 {
		hours, err := normalizeHours(patch.WorkingHours, s.logger)
		if err != nil {
			return nil, err
		}
		upd.WorkingHours = hours
	}

	if err := s.points.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.points.GetByID(ctx, id)
}

func (s *AdminService) DeleteServicePoint(ctx context.Context, id int) error {
	return s.points.SoftDelete(ctx, id)
}

func (s *AdminService) ListServicePoints(ctx context.Context) ([]db.ServicePoint, error) {
	return s.points.ListAll(ctx)
}

func (s *AdminService) ListPointServices(ctx context.Context, servicePointID int) ([]entities.ServicePointServiceLink, error) {
	if _, err := s.points.GetByID(ctx, servicePointID); err != nil {
		return nil, err
	}
	rows, err := s.points.ListServices(ctx, servicePointID)
	if err != nil {
		return nil, err
	}
	links := make([]entities.ServicePointServiceLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, entities.ServicePointServiceLink{
			ServiceID:   row.ServiceID,
			ServiceName: row.ServiceName,
			Comment:     row.Comment,
		})
	}
	return links, nil
}

func (s *AdminService) ReplacePointServices(ctx context.Context, servicePointID int, links []entities.ServicePointServiceLink) error {
	if _, err := s.points.GetByID(ctx, servicePointID); err != nil {
		return err
	}
	rows := make([]db.ServicePointService, 0, len(links))
	for _, link := range links {
		if link.ServiceID <= 0 {
			return apperrors.NewValidation("service_id")
		}
		rows = append(rows, db.ServicePointService{
			ServicePointID: servicePointID,
			ServiceID:      link.ServiceID,
			Comment:        link.Comment,
		})
	}
	return s.points.ReplaceServices(ctx, servicePointID, rows)
}

// normalizeHours accepts any of the historical working-hours encodings and
// re-persists the single canonical shape. A document that normalizes to an
// all-closed week is still accepted; the availability queries simply return
// nothing for it.
func normalizeHours(raw json.RawMessage, logger *zap.Logger) ([]byte, error) {
	week := schedule.ParseWeek(raw, logger)
	canonical, err := json.Marshal(week.Render())
	if err != nil {
		return nil, fmt.Errorf("error encoding working hours: %w", err)
	}
	return canonical, nil
}
