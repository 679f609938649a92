package habit

import (
	"strings"
	"time"
)

// ValidationError names the request field that failed and why. Handlers map
// it to a 422 response.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type CreateHabitRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	GoalDays    *int    `json:"goalDays"`
}

// Validate trims the name in place and rejects blank names. Description and
// goalDays pass through unchecked; a zero or negative goal is accepted.
func (r *CreateHabitRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "name must not be blank"}
	}
	return nil
}

type ToggleRequest struct {
	Date string `json:"date"`
}

func (r *ToggleRequest) Validate() (time.Time, error) {
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD form"}
	}
	return d, nil
}
