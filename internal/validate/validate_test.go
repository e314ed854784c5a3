package validate_test

import (
	"errors"
	"testing"

	"taskline/internal/domain"
	"taskline/internal/validate"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var fe validate.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	return fe.Field
}

func TestTaskFormFirstFailureWins(t *testing.T) {
	cases := []struct {
		name  string
		form  domain.TaskForm
		field string
	}{
		{"empty form", domain.TaskForm{}, "title"},
		{"blank title", domain.TaskForm{Title: "   "}, "title"},
		{"missing date", domain.TaskForm{Title: "x"}, "dueDate"},
		{"bad date format", domain.TaskForm{Title: "x", DueDate: "01/06/2024"}, "dueDate"},
		{"impossible date", domain.TaskForm{Title: "x", DueDate: "2024-02-30"}, "dueDate"},
		{"missing time", domain.TaskForm{Title: "x", DueDate: "2024-06-01"}, "time"},
		{"bad time", domain.TaskForm{Title: "x", DueDate: "2024-06-01", Time: "9:00"}, "time"},
		{"out of range time", domain.TaskForm{Title: "x", DueDate: "2024-06-01", Time: "24:00"}, "time"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validate.TaskForm(c.form)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := fieldOf(t, err); got != c.field {
				t.Fatalf("expected field %s, got %s", c.field, got)
			}
		})
	}
}

func TestTaskFormAcceptsValidInput(t *testing.T) {
	form := domain.TaskForm{Title: "Buy milk", DueDate: "2024-06-01", Time: "23:59"}
	if err := validate.TaskForm(form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	form.Time = "00:00"
	if err := validate.TaskForm(form); err != nil {
		t.Fatalf("midnight should be valid: %v", err)
	}
}

func TestTaskStatus(t *testing.T) {
	if err := validate.TaskStatus(domain.StatusOpen); err != nil {
		t.Fatalf("open should be valid: %v", err)
	}
	if err := validate.TaskStatus(domain.StatusComplete); err != nil {
		t.Fatalf("complete should be valid: %v", err)
	}
	if got := fieldOf(t, validate.TaskStatus("done")); got != "status" {
		t.Fatalf("expected status, got %s", got)
	}
}

func TestProfile(t *testing.T) {
	if err := validate.Profile("John Doe", "john@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fieldOf(t, validate.Profile("", "john@example.com")); got != "fullName" {
		t.Fatalf("expected fullName, got %s", got)
	}
	if got := fieldOf(t, validate.Profile("John", "")); got != "email" {
		t.Fatalf("expected email, got %s", got)
	}
	if got := fieldOf(t, validate.Profile("John", "not-an-email")); got != "email" {
		t.Fatalf("expected email on bad address, got %s", got)
	}
}

func TestSignInAndSignUp(t *testing.T) {
	if err := validate.SignIn("a@b.c", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fieldOf(t, validate.SignIn("", "pw")); got != "email" {
		t.Fatalf("expected email, got %s", got)
	}
	if got := fieldOf(t, validate.SignIn("a@b.c", "")); got != "password" {
		t.Fatalf("expected password, got %s", got)
	}
	if got := fieldOf(t, validate.SignUp("", "a@b.c", "pw")); got != "fullName" {
		t.Fatalf("expected fullName, got %s", got)
	}
	if err := validate.SignUp("Jane", "a@b.c", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
