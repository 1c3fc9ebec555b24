package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDayCapacityConservation(t *testing.T) {
	week := mondayWeek("09:00-18:00")
	posts := []PostConfig{
		{Number: 1, DurationMin: 30},
		{Number: 2, DurationMin: 30},
		{Number: 3, DurationMin: 30},
	}
	slots := GenerateDay(week, posts, monday)
	nine := TimeOfDay(9 * 60)

	// Zero bookings: every start time has all posts free.
	capacities := BuildDayCapacity(slots, nil, SourceComputed)
	require.Len(t, capacities, 18)
	for _, c := range capacities {
		assert.Equal(t, 3, c.Total)
		assert.Equal(t, 3, c.Available())
		assert.True(t, c.IsAvailable())
	}

	// k bookings at one time free exactly total-k posts at that time only.
	capacities = BuildDayCapacity(slots, map[TimeOfDay]int{nine: 2}, SourceComputed)
	assert.Equal(t, 1, capacities[0].Available())
	assert.True(t, capacities[0].IsAvailable())
	assert.Equal(t, 3, capacities[1].Available())

	// One cancellation restores one post.
	capacities = BuildDayCapacity(slots, map[TimeOfDay]int{nine: 1}, SourceComputed)
	assert.Equal(t, 2, capacities[0].Available())

	// Full: the time is no longer available.
	capacities = BuildDayCapacity(slots, map[TimeOfDay]int{nine: 3}, SourceComputed)
	assert.Equal(t, 0, capacities[0].Available())
	assert.False(t, capacities[0].IsAvailable())
}

func TestBuildDayCapacityMixedDurations(t *testing.T) {
	week := mondayWeek("09:00-12:00")
	posts := []PostConfig{
		{Number: 1, DurationMin: 30},
		{Number: 2, DurationMin: 45},
		{Number: 3, DurationMin: 60},
	}
	slots := GenerateDay(week, posts, monday)
	capacities := BuildDayCapacity(slots, nil, SourceComputed)

	byStart := map[string]SlotCapacity{}
	for _, c := range capacities {
		byStart[c.Start.String()] = c
	}

	// All three posts have a slot starting at opening time; only post 2's
	// second slot starts at 09:45 (exact start-time matching).
	assert.Equal(t, 3, byStart["09:00"].Total)
	assert.Equal(t, 1, byStart["09:45"].Total)
	assert.Equal(t, 2, byStart["09:30"].Total, "posts 1 and 2 do not collide at 09:30")
	// The aggregate end is the earliest contributing end.
	assert.Equal(t, "09:30", byStart["09:00"].End.String())
}

func TestBuildDayCapacityOverconsumedClampsToZero(t *testing.T) {
	slots := []Slot{{PostNumber: 1, Date: "2025-06-02", Start: 9 * 60, End: 9*60 + 30}}
	capacities := BuildDayCapacity(slots, map[TimeOfDay]int{9 * 60: 5}, SourceComputed)

	require.Len(t, capacities, 1)
	assert.Equal(t, 0, capacities[0].Available())
	assert.Equal(t, 5, capacities[0].Booked)
}

func TestEstimatedSourcePropagates(t *testing.T) {
	slots := GenerateDay(mondayWeek("09:00-10:00"), DefaultPosts(), monday)
	capacities := BuildDayCapacity(slots, nil, SourceEstimated)

	require.NotEmpty(t, capacities)
	for _, c := range capacities {
		assert.Equal(t, SourceEstimated, c.Source)
		assert.Equal(t, DefaultPostCount, c.Total)
	}
	assert.Equal(t, "estimated", SourceEstimated.String())
	assert.Equal(t, "computed", SourceComputed.String())
}

func TestBaselineAt(t *testing.T) {
	week := mondayWeek("09:00-12:00")
	posts := []PostConfig{
		{Number: 1, DurationMin: 30},
		{Number: 2, DurationMin: 45},
	}
	slots := GenerateDay(week, posts, monday)

	assert.Equal(t, 2, BaselineAt(slots, 9*60))
	assert.Equal(t, 1, BaselineAt(slots, 9*60+45))
	assert.Equal(t, 0, BaselineAt(slots, 9*60+50), "no post has a slot starting 09:50")
}
