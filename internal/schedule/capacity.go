package schedule

import "sort"

// CapacitySource tags whether a capacity figure came from real post
// configuration or from the historical default assumption.
type CapacitySource int

const (
	SourceComputed CapacitySource = iota
	SourceEstimated
)

func (s CapacitySource) String() string {
	if s == SourceEstimated {
		return "estimated"
	}
	return "computed"
}

// Defaults applied when a service point has no post configuration at all.
// They must never be mixed silently with computed data; capacity built from
// them carries SourceEstimated.
const (
	DefaultPostCount       = 4
	DefaultSlotDurationMin = 30
)

// DefaultPosts returns the fallback post configuration used when a service
// point declares no posts.
func DefaultPosts() []PostConfig {
	posts := make([]PostConfig, DefaultPostCount)
	for i := range posts {
		posts[i] = PostConfig{Number: i + 1, DurationMin: DefaultSlotDurationMin}
	}
	return posts
}

// SlotCapacity is the aggregate, customer-visible view of one start time on
// one date: how many posts offer a slot starting then, and how many of those
// are already taken. Post identity stays internal.
type SlotCapacity struct {
	Start  TimeOfDay
	End    TimeOfDay
	Total  int
	Booked int
	Source CapacitySource
}

// Available is the number of free posts, floored at zero. Booked counts can
// exceed Total when legacy rows predate a capacity reduction.
func (c SlotCapacity) Available() int {
	if free := c.Total - c.Booked; free > 0 {
		return free
	}
	return 0
}

func (c SlotCapacity) IsAvailable() bool {
	return c.Available() > 0
}

// BuildDayCapacity folds the generated slots of a single date into per-start
// aggregates and applies consumed bookings. Bookings are matched by exact
// start time of day; a post contributes to a start time only when its own
// slot grid contains that exact start. The earliest end among contributing
// posts is reported as the aggregate end.
func BuildDayCapacity(slots []Slot, booked map[TimeOfDay]int, source CapacitySource) []SlotCapacity {
	byStart := make(map[TimeOfDay]*SlotCapacity)
	for _, slot := range slots {
		agg, ok := byStart[slot.Start]
		if !ok {
			agg = &SlotCapacity{Start: slot.Start, End: slot.End, Source: source}
			byStart[slot.Start] = agg
		}
		agg.Total++
		if slot.End < agg.End {
			agg.End = slot.End
		}
	}

	out := make([]SlotCapacity, 0, len(byStart))
	for start, agg := range byStart {
		agg.Booked = booked[start]
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// BaselineAt returns how many posts offer a slot starting exactly at the
// given time on the given generated day.
func BaselineAt(slots []Slot, start TimeOfDay) int {
	n := 0
	for _, slot := range slots {
		if slot.Start == start {
			n++
		}
	}
	return n
}
