package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"tireservice/internal/entities"
	apperrors "tireservice/internal/errors"
	"tireservice/internal/schedule"
	"tireservice/internal/service"
)

// AdminHandler serves the protected admin surface: appointment management
// and service-point CRUD.
type AdminHandler struct {
	Admin        *service.AdminService
	Appointments *service.AppointmentService
	Logger       *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, appointments *service.AppointmentService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Admin: admin, Appointments: appointments, Logger: logger}
}

func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")

	servicePointID := 0
	if v := r.URL.Query().Get("service_point_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperrors.NewValidation("service_point_id"))
			return
		}
		servicePointID = id
	}

	appts, err := h.Appointments.List(r.Context(), date, status, servicePointID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewAppointmentList(appts))
}

func (h *AdminHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, apperrors.NewValidation("status"))
		return
	}

	appt, err := h.Appointments.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewAppointmentResponse(appt))
}

func (h *AdminHandler) CreateServicePoint(w http.ResponseWriter, r *http.Request) {
	var req entities.ServicePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body"))
		return
	}

	sp, err := h.Admin.CreateServicePoint(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": sp.ID})
}

func (h *AdminHandler) UpdateServicePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var patch entities.ServicePointPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperrors.NewValidation("body"))
		return
	}

	sp, err := h.Admin.UpdateServicePoint(r.Context(), id, &patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": sp.ID, "status": sp.Status})
}

func (h *AdminHandler) DeleteServicePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Admin.DeleteServicePoint(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Service point deleted"})
}

func (h *AdminHandler) ListServicePoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.Admin.ListServicePoints(r.Context())
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

func (h *AdminHandler) ListPointServices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	links, err := h.Admin.ListPointServices(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *AdminHandler) ReplacePointServices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var links []entities.ServicePointServiceLink
	if err := json.NewDecoder(r.Body).Decode(&links); err != nil {
		writeError(w, apperrors.NewValidation("body"))
		return
	}
	if err := h.Admin.ReplacePointServices(r.Context(), id, links); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Service links updated"})
}
