// Package validate gates user input before it reaches the store or profile
// service. Checks are synchronous, pure, and fail on the first violation.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"taskline/internal/domain"
)

// FieldError names the failing field and the reason shown inline to the user.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// TaskForm checks, in order: title present and non-blank, dueDate present and
// a real YYYY-MM-DD calendar date, time present and a zero-padded 24-hour
// HH:MM.
func TaskForm(f domain.TaskForm) error {
	if strings.TrimSpace(f.Title) == "" {
		return FieldError{Field: "title", Reason: "please enter a task title"}
	}
	if f.DueDate == "" {
		return FieldError{Field: "dueDate", Reason: "please select a date"}
	}
	if !dateRe.MatchString(f.DueDate) {
		return FieldError{Field: "dueDate", Reason: "date must be YYYY-MM-DD"}
	}
	if _, err := time.Parse("2006-01-02", f.DueDate); err != nil {
		return FieldError{Field: "dueDate", Reason: "not a valid calendar date"}
	}
	if f.Time == "" {
		return FieldError{Field: "time", Reason: "please select a time"}
	}
	if !timeRe.MatchString(f.Time) {
		return FieldError{Field: "time", Reason: "time must be HH:MM (24-hour)"}
	}
	return nil
}

// TaskStatus rejects status values outside the two-state model.
func TaskStatus(s string) error {
	if s != domain.StatusOpen && s != domain.StatusComplete {
		return FieldError{Field: "status", Reason: "status must be open or complete"}
	}
	return nil
}

// Profile checks the fields that must be non-empty on save.
func Profile(fullName, email string) error {
	if strings.TrimSpace(fullName) == "" {
		return FieldError{Field: "fullName", Reason: "please enter your name"}
	}
	if strings.TrimSpace(email) == "" {
		return FieldError{Field: "email", Reason: "please enter your email"}
	}
	if !emailRe.MatchString(email) {
		return FieldError{Field: "email", Reason: "not a valid email address"}
	}
	return nil
}

// SignIn checks the sign-in form. The password is required to be present but
// is never verified against anything.
func SignIn(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return FieldError{Field: "email", Reason: "please enter your email"}
	}
	if password == "" {
		return FieldError{Field: "password", Reason: "please enter your password"}
	}
	return nil
}

// SignUp checks the sign-up form.
func SignUp(fullName, email, password string) error {
	if strings.TrimSpace(fullName) == "" {
		return FieldError{Field: "fullName", Reason: "please enter your name"}
	}
	return SignIn(email, password)
}
