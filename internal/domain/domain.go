package domain

// Task statuses. A task is either still open or marked complete; there are no
// intermediate states.
const (
	StatusOpen     = "open"
	StatusComplete = "complete"
)

type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" format:"date"`
	Time        string `json:"time"`
	Status      string `json:"status" enum:"open,complete"`
	CreatedAt   string `json:"createdAt" format:"date-time"`
}

// TaskForm carries the user-supplied fields of a task, before the store
// assigns identity and bookkeeping fields.
type TaskForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Time        string `json:"time"`
}

type UserProfile struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}

// User is the signed-in identity. It is fabricated by the credential
// verifier and never checked against a real credential store.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
