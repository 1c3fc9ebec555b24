package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tireservice/internal/clock"
	"tireservice/internal/db"
	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
	"tireservice/internal/schedule"
)

// AppointmentStore is the write side of the booking store. CreateIfCapacity
// must be atomic with respect to consumed capacity for the slot key.
type AppointmentStore interface {
	CreateIfCapacity(ctx context.Context, appt *db.Appointment, baseline int) error
	GetByCode(ctx context.Context, code string) (*db.Appointment, error)
	GetByID(ctx context.Context, id int) (*db.Appointment, error)
	UpdateStatus(ctx context.Context, id int, from, to string) error
	List(ctx context.Context, date, status string, servicePointID int) ([]db.Appointment, error)
}

// SlotValidator is the availability gate the scheduler books through.
type SlotValidator interface {
	ValidateSlot(ctx context.Context, servicePointID int, date, start string) (int, bool, error)
}

// allowedTransitions holds the legal edges of the appointment state
// machine. Completed and cancelled are terminal.
var allowedTransitions = map[string][]string{
	db.AppointmentStatusPending:   {db.AppointmentStatusConfirmed, db.AppointmentStatusCancelled},
	db.AppointmentStatusConfirmed: {db.AppointmentStatusCompleted, db.AppointmentStatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AppointmentService is the only component that creates or mutates
// bookings. Every create runs through the availability gate and then the
// store's transactional capacity check, so two simultaneous requests for
// the last free post cannot both succeed.
type AppointmentService struct {
	repo         AppointmentStore
	availability SlotValidator
	clk          clock.Clock
	logger       *zap.Logger
}

func NewAppointmentService(repo AppointmentStore, availability SlotValidator, clk clock.Clock, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{repo: repo, availability: availability, clk: clk, logger: logger}
}

func (s *AppointmentService) Create(ctx context.Context, req *entities.AppointmentRequest) (*db.Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, apperrors.NewValidation("time")
	}

	baseline, ok, err := s.availability.ValidateSlot(ctx, req.ServicePointID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewSlotUnavailable(req.Date, start.String())
	}

	duration := req.DurationMin
	if duration <= 0 {
		duration = schedule.DefaultSlotDurationMin
	}

	appt := &db.Appointment{
		Code:           uuid.NewString(),
		ServicePointID: req.ServicePointID,
		ServiceID:      req.ServiceID,
		ClientName:     strings.TrimSpace(req.ClientName),
		ClientPhone:    strings.TrimSpace(req.ClientPhone),
		ClientEmail:    strings.TrimSpace(req.ClientEmail),
		CarInfo:        strings.TrimSpace(req.CarInfo),
		Date:           req.Date,
		StartTime:      start.String(),
		DurationMin:    duration,
		Status:         db.AppointmentStatusPending,
		Comment:        strings.TrimSpace(req.Comment),
	}

	if err := s.repo.CreateIfCapacity(ctx, appt, baseline); err != nil {
		return nil, err
	}

	s.logger.Info("appointment created",
		zap.String("code", appt.Code),
		zap.Int("service_point_id", appt.ServicePointID),
		zap.String("date", appt.Date),
		zap.String("time", appt.StartTime))
	return appt, nil
}

func (s *AppointmentService) GetByCode(ctx context.Context, code string) (*db.Appointment, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *AppointmentService) List(ctx context.Context, date, status string, servicePointID int) ([]db.Appointment, error) {
	return s.repo.List(ctx, date, status, servicePointID)
}

// UpdateStatus applies one state-machine edge. An illegal edge, including
// any move out of a terminal status, fails with InvalidTransition. Once the
// edge lands on cancelled the freed capacity is visible to the next
// availability query because consumed counts exclude cancelled rows.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id int, to string) (*db.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(appt.Status, to) {
		return nil, apperrors.NewInvalidTransition(appt.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, appt.Status, to); err != nil {
		return nil, err
	}

	s.logger.Info("appointment status changed",
		zap.String("code", appt.Code),
		zap.String("from", appt.Status),
		zap.String("to", to))

	appt.Status = to
	appt.UpdatedAt = s.clk.Now()
	return appt, nil
}

// CancelByCode is the customer-facing cancellation path.
func (s *AppointmentService) CancelByCode(ctx context.Context, code string) (*db.Appointment, error) {
	appt, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, appt.ID, db.AppointmentStatusCancelled)
}

func validateRequest(req *entities.AppointmentRequest) error {
	var missing []string
	if req.ServicePointID <= 0 {
		missing = append(missing, "service_point_id")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		missing = append(missing, "client_name")
	}
	if strings.TrimSpace(req.ClientPhone) == "" {
		missing = append(missing, "client_phone")
	}
	if _, err := time.ParseInLocation(schedule.DateLayout, req.Date, time.UTC); err != nil {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Time) == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return apperrors.NewValidation(missing...)
	}
	return nil
}
