// Package validate holds the client-side field rules that run before any
// network call. Errors are surfaced inline next to the offending form field
// and block the save dispatcher.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func Required(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	return nil
}

func LengthBetween(field, value string, min, max int) *FieldError {
	if err := Required(field, value); err != nil {
		return err
	}
	if len(value) < min {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be at least %d characters long", field, min)}
	}
	if len(value) > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters long", field, max)}
	}
	return nil
}

func MaxLength(field, value string, max int) *FieldError {
	if len(value) > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s cannot exceed %d characters", field, max)}
	}
	return nil
}

func Email(field, value string) *FieldError {
	if err := Required(field, value); err != nil {
		return err
	}
	if !emailRe.MatchString(value) {
		return &FieldError{Field: field, Message: field + " must be a valid email address"}
	}
	return nil
}

func HexColor(field, value string) *FieldError {
	if err := Required(field, value); err != nil {
		return err
	}
	if !hexColorRe.MatchString(value) {
		return &FieldError{Field: field, Message: field + " must be a #rrggbb color"}
	}
	return nil
}

func Positive(field string, value int) *FieldError {
	if value <= 0 {
		return &FieldError{Field: field, Message: field + " must be a positive number"}
	}
	return nil
}

func TimeSet(field string, value time.Time) *FieldError {
	if value.IsZero() {
		return &FieldError{Field: field, Message: "please select a " + field}
	}
	return nil
}

// TimeRange requires end to be strictly after start.
func TimeRange(startField, endField string, start, end time.Time) *FieldError {
	if err := TimeSet(startField, start); err != nil {
		return err
	}
	if err := TimeSet(endField, end); err != nil {
		return err
	}
	if !end.After(start) {
		return &FieldError{Field: endField, Message: endField + " must be after " + startField}
	}
	return nil
}

// Collect gathers the non-nil errors from a rule run.
func Collect(errs ...*FieldError) []FieldError {
	var out []FieldError
	for _, err := range errs {
		if err != nil {
			out = append(out, *err)
		}
	}
	return out
}
