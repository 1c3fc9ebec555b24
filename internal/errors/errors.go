package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports missing or malformed request fields. The field
// names are surfaced to the caller so the form can highlight them.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request fields: " + strings.Join(e.Fields, ", ")
}

func NewValidation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError marks a missing service point, post or appointment.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func NewNotFound(resource string, key any) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: fmt.Sprint(key)}
}

// SlotUnavailableError means the requested time had no remaining post
// capacity at the instant of the write. The caller should re-query
// availability and pick another slot.
type SlotUnavailableError struct {
	Date string
	Time string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("no free post at %s %s", e.Date, e.Time)
}

func NewSlotUnavailable(date, timeOfDay string) *SlotUnavailableError {
	return &SlotUnavailableError{Date: date, Time: timeOfDay}
}

// InvalidTransitionError marks a status change that is not a legal edge of
// the appointment state machine.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition appointment from %q to %q", e.From, e.To)
}

func NewInvalidTransition(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// HTTPStatus maps a core error to its transport status. Unknown errors are
// internal server errors; handlers must not string-match.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		slot       *SlotUnavailableError
		transition *InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &slot):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fields extracts the offending field list when err is a ValidationError.
func Fields(err error) []string {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Fields
	}
	return nil
}
