// Package server exposes the HTTP API: auth, tasks, derived views, profile,
// and the change log, with OpenAPI docs generated by huma.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"taskline/internal/app"
	"taskline/internal/auth"
	"taskline/internal/store"
	"taskline/internal/validate"
	"taskline/internal/views"
)

// Config for the HTTP API handler.
type Config struct {
	App      *app.App
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_form"`
	Message string         `json:"message" example:"title: please enter a task title"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Taskline API.
func New(cfg Config) (http.Handler, error) {
	if cfg.App == nil {
		return nil, errors.New("server: App is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema validation failures surface as 400 invalid_form.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.App.Auth))
	hcfg := huma.DefaultConfig("Taskline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerAuth(group, cfg.App)
	registerTasks(group, cfg.App)
	registerViews(group, cfg.App)
	registerProfile(group, cfg.App)
	registerTimer(group, cfg.App)
	registerLog(group, cfg.App)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe validate.FieldError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusBadRequest, "invalid_form", err.Error(), map[string]any{"field": fe.Field, "reason": fe.Reason})
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, store.ErrWriteFailed) {
		return newAPIError(http.StatusInternalServerError, "storage_write_failed", store.ErrWriteFailed.Error(), nil)
	}
	if errors.Is(err, auth.ErrSignedOut) {
		return newAPIError(http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_form"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "signin",
		Method:      http.MethodPost,
		Path:        "/auth/signin",
		Summary:     "Sign in",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SignInRequest `json:"body"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		sess, err := a.Auth.SignIn(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: SessionResponse{User: userResponse(sess.User), Token: sess.Token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Sign up",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SignUpRequest `json:"body"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		sess, err := a.Auth.SignUp(ctx, input.Body.FullName, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: SessionResponse{User: userResponse(sess.User), Token: sess.Token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "signout",
		Method:      http.MethodPost,
		Path:        "/auth/signout",
		Summary:     "Sign out",
		Errors:      []int{http.StatusUnauthorized, http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if _, authErr := userFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := a.Auth.SignOut(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current user",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		u, authErr := userFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})
}

func registerTasks(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		form := domainForm(input.Body)
		if err := validate.TaskForm(form); err != nil {
			return nil, handleError(err)
		}
		t, err := a.Store.Create(ctx, form)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		Q    string `query:"q"`
		Date string `query:"date"`
	}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		list := a.Store.Tasks()
		if input.Date != "" {
			list = views.TasksOnDate(list, input.Date)
		}
		list = views.FilterBySearch(list, input.Q)
		open, complete := views.PartitionByStatus(list)
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: TaskListResponse{
			Open:     mapTasks(open),
			Complete: mapTasks(complete),
			Total:    len(list),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := a.Store.FindByID(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := taskResponse(t)
		resp.DueLabel = views.RelativeDateLabel(t.DueDate, time.Now())
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		// Resolve the id before patching so unknown ids surface as 404
		// on the API even though the store treats them as no-ops.
		existing, err := a.Store.FindByID(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		patch := store.TaskPatch{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			DueDate:     input.Body.DueDate,
			Time:        input.Body.Time,
			Status:      input.Body.Status,
		}
		// An edit must leave the task valid, so the merged result goes
		// through the same validator as creation.
		if err := validate.TaskForm(patch.Merged(existing)); err != nil {
			return nil, handleError(err)
		}
		if err := a.Store.Update(ctx, input.ID, patch); err != nil {
			return nil, handleError(err)
		}
		t, err := a.Store.FindByID(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		// Delete is idempotent; unknown ids succeed.
		if err := a.Store.Delete(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/toggle",
		Summary:     "Toggle task status",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if _, err := a.Store.FindByID(input.ID); err != nil {
			return nil, handleError(err)
		}
		if err := a.Store.ToggleStatus(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		t, err := a.Store.FindByID(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})
}

func registerViews(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "calendar-month",
		Method:      http.MethodGet,
		Path:        "/views/calendar/{year}/{month}",
		Summary:     "Calendar month grid",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Year  int `path:"year"`
		Month int `path:"month" minimum:"1" maximum:"12"`
	}) (*struct {
		Body CalendarResponse `json:"body"`
	}, error) {
		month := time.Month(input.Month)
		return &struct {
			Body CalendarResponse `json:"body"`
		}{Body: CalendarResponse{
			Year:   input.Year,
			Month:  input.Month,
			Cells:  views.MonthGrid(input.Year, month),
			Counts: views.CountOnDates(a.Store.Tasks()),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-summary",
		Method:      http.MethodGet,
		Path:        "/views/summary",
		Summary:     "Open/complete counts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SummaryResponse `json:"body"`
	}, error) {
		open, complete := views.CountByStatus(a.Store.Tasks())
		return &struct {
			Body SummaryResponse `json:"body"`
		}{Body: SummaryResponse{Open: open, Complete: complete, Total: open + complete}}, nil
	})
}

func registerProfile(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get profile",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ProfileResponse `json:"body"`
	}, error) {
		return &struct {
			Body ProfileResponse `json:"body"`
		}{Body: profileResponse(a.Profile.Load(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        "/profile",
		Summary:     "Update profile",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body UpdateProfileRequest `json:"body"`
	}) (*struct {
		Body ProfileResponse `json:"body"`
	}, error) {
		p, err := a.Profile.Update(ctx, profilePatch(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProfileResponse `json:"body"`
		}{Body: profileResponse(p)}, nil
	})
}

func registerTimer(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "timer-presets",
		Method:      http.MethodGet,
		Path:        "/timer/presets",
		Summary:     "Timer presets",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TimerPresetsResponse `json:"body"`
	}, error) {
		p := a.Config.Presets()
		return &struct {
			Body TimerPresetsResponse `json:"body"`
		}{Body: TimerPresetsResponse{
			PomodoroSeconds:   int(p.Pomodoro.Seconds()),
			ShortBreakSeconds: int(p.ShortBreak.Seconds()),
			LongBreakSeconds:  int(p.LongBreak.Seconds()),
		}}, nil
	})
}

func registerLog(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "log-tail",
		Method:      http.MethodGet,
		Path:        "/log",
		Summary:     "Recent change log events",
	}, func(ctx context.Context, input *struct {
		Limit int    `query:"limit" default:"20"`
		Type  string `query:"type"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := a.Log.Latest(ctx, input.Limit, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		resp := []EventResponse{}
		for _, e := range items {
			resp = append(resp, eventResponse(e))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Taskline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;.
    </p>
  </body>
</html>`, specURL)
}
