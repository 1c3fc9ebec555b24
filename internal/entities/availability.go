package entities

import "tireservice/internal/schedule"

// AvailableDay is one open day within the booking horizon.
type AvailableDay struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// TimeSlotAvailability annotates one candidate start time with its aggregate
// post capacity. Estimated marks figures built from the default post
// assumption rather than real configuration.
type TimeSlotAvailability struct {
	Time           string `json:"time"`
	EndTime        string `json:"end_time"`
	IsAvailable    bool   `json:"is_available"`
	AvailablePosts int    `json:"available_posts"`
	TotalPosts     int    `json:"total_posts"`
	Estimated      bool   `json:"estimated,omitempty"`
}

// NewTimeSlotAvailability converts a computed capacity aggregate to its
// response form.
func NewTimeSlotAvailability(c schedule.SlotCapacity) TimeSlotAvailability {
	return TimeSlotAvailability{
		Time:           c.Start.String(),
		EndTime:        c.End.String(),
		IsAvailable:    c.IsAvailable(),
		AvailablePosts: c.Available(),
		TotalPosts:     c.Total,
		Estimated:      c.Source == schedule.SourceEstimated,
	}
}
