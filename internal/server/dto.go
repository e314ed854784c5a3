package server

import (
	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/profile"
)

// Request payloads

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate" format:"date"`
	Time        string `json:"time"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty" format:"date"`
	Time        *string `json:"time,omitempty"`
	Status      *string `json:"status,omitempty" enum:"open,complete"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// Response payloads

type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type TaskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate" format:"date"`
	DueLabel    string `json:"dueLabel,omitempty"`
	Time        string `json:"time"`
	Status      string `json:"status" enum:"open,complete"`
	CreatedAt   string `json:"createdAt" format:"date-time"`
}

type TaskListResponse struct {
	Open     []TaskResponse `json:"open"`
	Complete []TaskResponse `json:"complete"`
	Total    int            `json:"total"`
}

type CalendarResponse struct {
	Year   int            `json:"year"`
	Month  int            `json:"month"`
	Cells  []int          `json:"cells"`
	Counts map[string]int `json:"counts"`
}

type SummaryResponse struct {
	Open     int `json:"open"`
	Complete int `json:"complete"`
	Total    int `json:"total"`
}

type ProfileResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}

type TimerPresetsResponse struct {
	PomodoroSeconds   int `json:"pomodoroSeconds"`
	ShortBreakSeconds int `json:"shortBreakSeconds"`
	LongBreakSeconds  int `json:"longBreakSeconds"`
}

type EventResponse struct {
	ID       int64  `json:"id"`
	TS       string `json:"ts" format:"date-time"`
	Type     string `json:"type"`
	EntityID string `json:"entityId,omitempty"`
	Payload  string `json:"payload"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse(u)
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Time:        t.Time,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
}

func mapTasks(list []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, taskResponse(t))
	}
	return out
}

func profileResponse(p domain.UserProfile) ProfileResponse {
	return ProfileResponse(p)
}

func domainForm(r CreateTaskRequest) domain.TaskForm {
	return domain.TaskForm(r)
}

func profilePatch(r UpdateProfileRequest) profile.Patch {
	return profile.Patch(r)
}

func eventResponse(e events.Event) EventResponse {
	return EventResponse{
		ID:       e.ID,
		TS:       e.TS,
		Type:     e.Type,
		EntityID: e.EntityID,
		Payload:  e.Payload,
	}
}
