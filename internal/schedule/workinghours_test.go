package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(9*60+30), got)
	assert.Equal(t, "09:30", got.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("nine")
	assert.Error(t, err)
}

func TestParseWeekAcceptedEncodings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DayHours
	}{
		{
			name: "string range",
			raw:  `{"monday": "09:00-18:00"}`,
			want: DayHours{Open: 9 * 60, Close: 18 * 60},
		},
		{
			name: "closed literal",
			raw:  `{"monday": "closed"}`,
			want: DayHours{Closed: true},
		},
		{
			name: "closed literal uppercase",
			raw:  `{"monday": "CLOSED"}`,
			want: DayHours{Closed: true},
		},
		{
			name: "open close object",
			raw:  `{"monday": {"open": "08:30", "close": "17:00"}}`,
			want: DayHours{Open: 8*60 + 30, Close: 17 * 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observedLogger()
			week := ParseWeek([]byte(tt.raw), logger)
			assert.Equal(t, tt.want, week["monday"])
			assert.Equal(t, 0, logs.Len(), "valid encodings must not report anomalies")
		})
	}
}

func TestParseWeekMalformedDayIsClosedWithOneAnomaly(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null value", `{"wednesday": null}`},
		{"number value", `{"wednesday": 42}`},
		{"range without dash", `{"wednesday": "09:00 18:00"}`},
		{"bad open time", `{"wednesday": "9am-18:00"}`},
		{"object missing close", `{"wednesday": {"open": "09:00"}}`},
		{"open after close", `{"wednesday": "18:00-09:00"}`},
		{"open equals close", `{"wednesday": "09:00-09:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observedLogger()
			week := ParseWeek([]byte(tt.raw), logger)
			assert.True(t, week["wednesday"].Closed, "malformed day must demote to closed")
			assert.Equal(t, 1, logs.Len(), "exactly one anomaly per malformed day")
		})
	}
}

func TestParseWeekMixedEncodings(t *testing.T) {
	logger, logs := observedLogger()
	week := ParseWeek([]byte(`{
		"monday": "09:00-18:00",
		"tuesday": {"open": "10:00", "close": "16:00"},
		"wednesday": null,
		"sunday": "closed"
	}`), logger)

	assert.Equal(t, DayHours{Open: 9 * 60, Close: 18 * 60}, week["monday"])
	assert.Equal(t, DayHours{Open: 10 * 60, Close: 16 * 60}, week["tuesday"])
	assert.True(t, week["wednesday"].Closed)
	assert.True(t, week["sunday"].Closed)
	assert.Equal(t, 1, logs.Len(), "only the malformed wednesday entry is an anomaly")
}

func TestParseWeekBadDocument(t *testing.T) {
	logger, logs := observedLogger()
	week := ParseWeek([]byte(`["not", "an", "object"]`), logger)
	assert.True(t, week.AllClosed())
	assert.Equal(t, 1, logs.Len())

	logger, logs = observedLogger()
	week = ParseWeek(nil, logger)
	assert.True(t, week.AllClosed())
	assert.Equal(t, 0, logs.Len(), "empty hours are not an anomaly")
}

func TestRenderRoundTrip(t *testing.T) {
	logger, _ := observedLogger()
	week := ParseWeek([]byte(`{"monday": {"open": "09:00", "close": "18:00"}, "sunday": "closed"}`), logger)

	rendered := week.Render()
	assert.Equal(t, "09:00-18:00", rendered["monday"])
	assert.Equal(t, "closed", rendered["sunday"])
}
