package entities

import (
	"time"

	"tireservice/internal/db"
)

// AppointmentRequest carries the customer-facing booking fields.
type AppointmentRequest struct {
	ServicePointID int    `json:"service_point_id"`
	ServiceID      *int   `json:"service_id,omitempty"`
	ClientName     string `json:"client_name"`
	ClientPhone    string `json:"client_phone"`
	ClientEmail    string `json:"client_email,omitempty"`
	CarInfo        string `json:"car_info,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	DurationMin    int    `json:"duration_min,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

type AppointmentResponse struct {
	ID             int       `json:"id"`
	Code           string    `json:"code"`
	ServicePointID int       `json:"service_point_id"`
	ServiceID      *int      `json:"service_id,omitempty"`
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
	ClientEmail    string    `json:"client_email,omitempty"`
	CarInfo        string    `json:"car_info,omitempty"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	DurationMin    int       `json:"duration_min"`
	Status         string    `json:"status"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewAppointmentResponse(a *db.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		Code:           a.Code,
		ServicePointID: a.ServicePointID,
		ServiceID:      a.ServiceID,
		ClientName:     a.ClientName,
		ClientPhone:    a.ClientPhone,
		ClientEmail:    a.ClientEmail,
		CarInfo:        a.CarInfo,
		Date:           a.Date,
		Time:           a.StartTime,
		DurationMin:    a.DurationMin,
		Status:         a.Status,
		Comment:        a.Comment,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func NewAppointmentList(rows []db.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewAppointmentResponse(&rows[i]))
	}
	return out
}
