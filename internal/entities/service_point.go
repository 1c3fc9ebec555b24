package entities

import (
	"encoding/json"

	"tireservice/internal/db"
	"tireservice/internal/schedule"
)

type ServicePointResponse struct {
	ID           int               `json:"id"`
	PartnerID    int               `json:"partner_id"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Region       string            `json:"region,omitempty"`
	City         string            `json:"city,omitempty"`
	Lat          float64           `json:"lat,omitempty"`
	Lng          float64           `json:"lng,omitempty"`
	NumPosts     int               `json:"num_posts"`
	Status       string            `json:"status"`
	WorkingHours map[string]string `json:"working_hours"`
}

// NewServicePointResponse renders a point with its hours in the single
// canonical shape, whatever encoding the row actually stores.
func NewServicePointResponse(sp *db.ServicePoint, week schedule.WeekHours) ServicePointResponse {
	return ServicePointResponse{
		ID:           sp.ID,
		PartnerID:    sp.PartnerID,
		Name:         sp.Name,
		Address:      sp.Address,
		Region:       sp.Region,
		City:         sp.City,
		Lat:          sp.Lat,
		Lng:          sp.Lng,
		NumPosts:     sp.NumPosts,
		Status:       sp.Status,
		WorkingHours: week.Render(),
	}
}

// ServicePointServiceLink is one service offered at a point, with the
// optional relationship comment.
type ServicePointServiceLink struct {
	ServiceID   int    `json:"service_id"`
	ServiceName string `json:"service_name,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// PostInput configures one work bay at creation time.
type PostInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DurationMin int    `json:"duration_min"`
}

// ServicePointRequest is the admin create payload. WorkingHours is kept raw
// so any of the historical encodings is accepted; it is normalized before
// persisting.
type ServicePointRequest struct {
	PartnerID    int             `json:"partner_id"`
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	Region       string          `json:"region,omitempty"`
	City         string          `json:"city,omitempty"`
	Lat          float64         `json:"lat,omitempty"`
	Lng          float64         `json:"lng,omitempty"`
	WorkingHours json.RawMessage `json:"working_hours"`
	NumPosts     int             `json:"num_posts"`
	Posts        []PostInput     `json:"posts,omitempty"`
}

// ServicePointPatch is the admin partial-update payload; nil fields stay
// unchanged.
type ServicePointPatch struct {
	Name         *string         `json:"name,omitempty"`
	Address      *string         `json:"address,omitempty"`
	Region       *string         `json:"region,omitempty"`
	City         *string         `json:"city,omitempty"`
	Lat          *float64        `json:"lat,omitempty"`
	Lng          *float64        `json:"lng,omitempty"`
	WorkingHours json.RawMessage `json:"working_hours,omitempty"`
	NumPosts     *int            `json:"num_posts,omitempty"`
	Status       *string         `json:"status,omitempty"`
}
