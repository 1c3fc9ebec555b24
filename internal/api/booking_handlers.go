package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
	"tireservice/internal/repository"
	"tireservice/internal/schedule"
	"tireservice/internal/service"
)

// BookingHandler serves the customer-facing booking flow: browsing service
// points, querying availability and creating appointments.
type BookingHandler struct {
	Availability *service.AvailabilityService
	Appointments *service.AppointmentService
	Points       *repository.ServicePointRepository
	Logger       *zap.Logger
}

func NewBookingHandler(
	availability *service.AvailabilityService,
	appointments *service.AppointmentService,
	points *repository.ServicePointRepository,
	logger *zap.Logger,
) *BookingHandler {
	return &BookingHandler{
		Availability: availability,
		Appointments: appointments,
		Points:       points,
		Logger:       logger,
	}
}

func (h *BookingHandler) ListServicePoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.Points.ListWorking(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]entities.ServicePointResponse, 0, len(points))
	for i := range points {
		week := schedule.ParseWeek(points[i].WorkingHours, h.Logger)
		out = append(out, entities.NewServicePointResponse(&points[i], week))
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidation(name)
	}
	return id, nil
}

func (h *BookingHandler) GetServicePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	sp, err := h.Points.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	week := schedule.ParseWeek(sp.WorkingHours, h.Logger)
	writeJSON(w, http.StatusOK, entities.NewServicePointResponse(sp, week))
}

func (h *BookingHandler) AvailableDays(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	horizon := 0
	if v := r.URL.Query().Get("horizon_days"); v != "" {
		horizon, err = strconv.Atoi(v)
		if err != nil || horizon < 0 {
			writeError(w, apperrors.NewValidation("horizon_days"))
			return
		}
	}

	days, err := h.Availability.AvailableDays(r.Context(), id, horizon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *BookingHandler) AvailableTimeSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, apperrors.NewValidation("date"))
		return
	}

	slots, err := h.Availability.TimeSlots(r.Context(), id, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req entities.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body"))
		return
	}

	appt, err := h.Appointments.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.NewAppointmentResponse(appt))
}

func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	appt, err := h.Appointments.GetByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewAppointmentResponse(appt))
}

func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	appt, err := h.Appointments.CancelByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewAppointmentResponse(appt))
}
