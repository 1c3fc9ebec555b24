package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted forward by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// DayHours is the canonical working-hours value for one weekday:
// either Closed, or an [Open, Close) interval with Open < Close.
type DayHours struct {
	Closed bool
	Open   TimeOfDay
	Close  TimeOfDay
}

func (d DayHours) String() string {
	if d.Closed {
		return "closed"
	}
	return d.Open.String() + "-" + d.Close.String()
}

// WeekHours maps lowercase English weekday names to canonical hours.
// Days absent from the map count as closed.
type WeekHours map[string]DayHours

// Day returns the hours for the weekday of the given date.
func (w WeekHours) Day(date time.Time) DayHours {
	if d, ok := w[WeekdayName(date.Weekday())]; ok {
		return d
	}
	return DayHours{Closed: true}
}

// AllClosed reports whether the week has no open day at all.
func (w WeekHours) AllClosed() bool {
	for _, d := range w {
		if !d.Closed {
			return false
		}
	}
	return true
}

// WeekdayName returns the lowercase English name used as a WeekHours key.
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// openCloseObject is the {"open": "HH:MM", "close": "HH:MM"} legacy encoding.
type openCloseObject struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ParseWeek normalizes a persisted working-hours document. Three per-day
// encodings coexist in historical data: the string "HH:MM-HH:MM", the string
// "closed", and the object {"open": ..., "close": ...}. Any other shape, and
// any interval with open >= close, is demoted to closed with a single warning
// on the logger; the caller never sees an error from malformed day data.
func ParseWeek(raw []byte, logger *zap.Logger) WeekHours {
	week := make(WeekHours, 7)
	if len(raw) == 0 {
		return week
	}

	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		logger.Warn("working hours document is not a JSON object, treating week as closed",
			zap.Error(err))
		return week
	}

	for day, value := range days {
		week[strings.ToLower(day)] = parseDay(day, value, logger)
	}
	return week
}

func parseDay(day string, value json.RawMessage, logger *zap.Logger) DayHours {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "closed") {
			return DayHours{Closed: true}
		}
		return parseRange(day, s, logger)
	}

	var obj openCloseObject
	if err := json.Unmarshal(value, &obj); err == nil && obj.Open != "" && obj.Close != "" {
		return buildDay(day, obj.Open, obj.Close, logger)
	}

	logger.Warn("unrecognized working hours entry, treating day as closed",
		zap.String("day", day),
		zap.String("value", string(value)))
	return DayHours{Closed: true}
}

func parseRange(day, s string, logger *zap.Logger) DayHours {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		logger.Warn("unrecognized working hours entry, treating day as closed",
			zap.String("day", day),
			zap.String("value", s))
		return DayHours{Closed: true}
	}
	return buildDay(day, parts[0], parts[1], logger)
}

func buildDay(day, openStr, closeStr string, logger *zap.Logger) DayHours {
	open, err := ParseTimeOfDay(openStr)
	if err != nil {
		logger.Warn("unrecognized working hours entry, treating day as closed",
			zap.String("day", day),
			zap.Error(err))
		return DayHours{Closed: true}
	}
	close, err := ParseTimeOfDay(closeStr)
	if err != nil {
		logger.Warn("unrecognized working hours entry, treating day as closed",
			zap.String("day", day),
			zap.Error(err))
		return DayHours{Closed: true}
	}
	if open >= close {
		logger.Warn("working hours open at or after close, treating day as closed",
			zap.String("day", day),
			zap.String("open", open.String()),
			zap.String("close", close.String()))
		return DayHours{Closed: true}
	}
	return DayHours{Open: open, Close: close}
}

// Render produces the canonical string form per weekday ("closed" or
// "HH:MM-HH:MM"), suitable for API responses and for re-persisting hours in
// a single shape.
func (w WeekHours) Render() map[string]string {
	out := make(map[string]string, len(w))
	for day, hours := range w {
		out[day] = hours.String()
	}
	return out
}
