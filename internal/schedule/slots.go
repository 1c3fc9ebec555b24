package schedule

import (
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// PostConfig describes one work bay for slot generation purposes.
type PostConfig struct {
	Number      int
	DurationMin int
}

// Slot is one bookable interval at one post on one date. Start/End form a
// half-open interval [Start, End).
type Slot struct {
	PostNumber int
	Date       string
	Start      TimeOfDay
	End        TimeOfDay
}

// GenerateDay emits every candidate slot for one calendar date. Each post
// steps independently from opening time in increments of its own duration;
// a slot whose end would pass closing time is dropped, not truncated.
func GenerateDay(week WeekHours, posts []PostConfig, date time.Time) []Slot {
	hours := week.Day(date)
	if hours.Closed {
		return nil
	}

	day := date.Format(DateLayout)
	var slots []Slot
	for _, post := range posts {
		if post.DurationMin <= 0 {
			continue
		}
		for t := hours.Open; t.Add(post.DurationMin) <= hours.Close; t = t.Add(post.DurationMin) {
			slots = append(slots, Slot{
				PostNumber: post.Number,
				Date:       day,
				Start:      t,
				End:        t.Add(post.DurationMin),
			})
		}
	}
	return slots
}

// Generate emits slots for horizonDays consecutive dates starting at from.
// A point with no posts or an all-closed week yields an empty sequence.
func Generate(week WeekHours, posts []PostConfig, from time.Time, horizonDays int) []Slot {
	var slots []Slot
	for offset := 0; offset < horizonDays; offset++ {
		slots = append(slots, GenerateDay(week, posts, from.AddDate(0, 0, offset))...)
	}
	return slots
}
