package db

import "time"

// Service point lifecycle statuses.
const (
	PointStatusWorking   = "working"
	PointStatusSuspended = "suspended"
	PointStatusClosed    = "closed"
)

// Appointment statuses. Completed and cancelled are terminal.
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

// Schedule slot statuses.
const (
	SlotStatusAvailable = "available"
	SlotStatusBooked    = "booked"
	SlotStatusCompleted = "completed"
	SlotStatusCancelled = "cancelled"
)

type ServicePoint struct {
	ID        int
	PartnerID int
	Name      string
	Address   string
	Region    string
	City      string
	Lat       float64
	Lng       float64
	// WorkingHours is the raw JSONB document; decode with schedule.ParseWeek
	// at every read boundary, never assume a single historical shape.
	WorkingHours []byte
	NumPosts     int
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Post struct {
	ID              int
	ServicePointID  int
	Number          int
	Name            string
	Description     string
	SlotDurationMin int
}

type ScheduleSlot struct {
	ID             int
	ServicePointID int
	PostNumber     int
	Date           string
	StartTime      string
	EndTime        string
	Status         string
}

type Appointment struct {
	ID             int
	Code           string
	ServicePointID int
	ServiceID      *int
	ScheduleSlotID *int
	ClientName     string
	ClientPhone    string
	ClientEmail    string
	CarInfo        string
	Date           string
	StartTime      string
	DurationMin    int
	Status         string
	Comment        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppointmentStatusEvent is one row of the status-history audit trail.
type AppointmentStatusEvent struct {
	ID            int
	AppointmentID int
	FromStatus    string
	ToStatus      string
	ChangedAt     time.Time
}

type Service struct {
	ID                 int
	Name               string
	Description        string
	DefaultDurationMin int
}

// ServicePointService links a service to a point, with an optional free-text
// comment that belongs to the relationship rather than to either side.
type ServicePointService struct {
	ServicePointID int
	ServiceID      int
	ServiceName    string
	Comment        string
}

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}
