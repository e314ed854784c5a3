// Package store owns the canonical task list and its persistence. All
// mutations go through the Store; views only ever see snapshot copies.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/storage"
)

// ErrNotFound is returned by FindByID for an unknown id. Mutating operations
// on an unknown id are silent no-ops instead; idempotent delete is relied on.
var ErrNotFound = errors.New("task not found")

// ErrWriteFailed wraps storage write errors. The message is the user-facing
// failure notice.
var ErrWriteFailed = errors.New("could not save, try again")

// TaskPatch holds the fields of an update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Time        *string
	Status      *string
}

// Merged returns the form that would result from applying p to t, so callers
// can run the form validator before committing an update.
func (p TaskPatch) Merged(t domain.Task) domain.TaskForm {
	form := domain.TaskForm{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Time:        t.Time,
	}
	if p.Title != nil {
		form.Title = *p.Title
	}
	if p.Description != nil {
		form.Description = *p.Description
	}
	if p.DueDate != nil {
		form.DueDate = *p.DueDate
	}
	if p.Time != nil {
		form.Time = *p.Time
	}
	return form
}

// Store synchronizes an in-memory task list with key-value storage. The
// published list is replaced wholesale on every mutation: mutate a copy,
// persist it, then swap the reference, so observers never see a partially
// updated list and a failed write leaves the published list unchanged.
//
// Subscribers are invoked synchronously with a snapshot after each successful
// mutation and load. The lock is released before they run, so a subscriber
// may read back through Tasks or FindByID.
type Store struct {
	KV     storage.KV
	Events events.Appender
	Logger *log.Logger
	Now    func() time.Time
	NewID  func() string

	mu    sync.Mutex
	tasks []domain.Task
	subs  []func([]domain.Task)
}

func New(kv storage.KV) *Store {
	return &Store{
		KV:    kv,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Load reads the stored list and publishes it. Missing or unparseable data
// initializes an empty list; storage read errors are logged and treated as
// "no data". Load never fails the caller.
func (s *Store) Load(ctx context.Context) []domain.Task {
	var list []domain.Task
	raw, err := s.KV.Get(ctx, storage.KeyTasks)
	switch {
	case errors.Is(err, storage.ErrNoValue):
	case err != nil:
		s.logger().Printf("load tasks: %v", err)
	default:
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			s.logger().Printf("load tasks: unparseable payload: %v", err)
			list = nil
		}
	}
	if list == nil {
		list = []domain.Task{}
	}
	s.mu.Lock()
	s.tasks = list
	subs := snapshotSubs(s.subs)
	s.mu.Unlock()
	notify(subs, list)
	return snapshot(list)
}

// Tasks returns a copy of the currently published list.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.tasks)
}

// Subscribe registers fn to receive the new snapshot after every successful
// mutation and load.
func (s *Store) Subscribe(fn func([]domain.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Create appends a new open task built from form and returns it. The caller
// is expected to have run the form validator first; Create re-checks only
// that the title is present.
func (s *Store) Create(ctx context.Context, form domain.TaskForm) (domain.Task, error) {
	if form.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	t := domain.Task{
		ID:          s.newID(),
		Title:       form.Title,
		Description: form.Description,
		DueDate:     form.DueDate,
		Time:        form.Time,
		Status:      domain.StatusOpen,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	next := append(snapshot(s.tasks), t)
	subs, err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return domain.Task{}, err
	}
	notify(subs, next)
	s.logEvent(ctx, "task.created", t.ID, events.Payload{"title": t.Title})
	return t, nil
}

// Update shallow-merges patch into the task with the given id. An unknown id
// is a silent no-op.
func (s *Store) Update(ctx context.Context, id string, patch TaskPatch) error {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	next := snapshot(s.tasks)
	merge(&next[i], patch)
	status := next[i].Status
	subs, err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	notify(subs, next)
	s.logEvent(ctx, "task.updated", id, events.Payload{"status": status})
	return nil
}

// Delete removes the task with the given id if present. Deleting an unknown
// id is a no-op, so Delete is idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	next := append(snapshot(s.tasks[:i]), s.tasks[i+1:]...)
	subs, err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	notify(subs, next)
	s.logEvent(ctx, "task.deleted", id, nil)
	return nil
}

// ToggleStatus flips the task between open and complete. An unknown id is a
// silent no-op.
func (s *Store) ToggleStatus(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	next := snapshot(s.tasks)
	if next[i].Status == domain.StatusOpen {
		next[i].Status = domain.StatusComplete
	} else {
		next[i].Status = domain.StatusOpen
	}
	status := next[i].Status
	subs, err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	notify(subs, next)
	s.logEvent(ctx, "task.toggled", id, events.Payload{"status": status})
	return nil
}

// FindByID returns the task with the given id, or ErrNotFound. Pure read, no
// persistence side effect.
func (s *Store) FindByID(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return domain.Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// persist writes the whole serialized list; there are no partial writes.
// Callers hold s.mu.
func (s *Store) persist(ctx context.Context, list []domain.Task) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := s.KV.Set(ctx, storage.KeyTasks, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// commit persists the list and swaps the published reference. Callers hold
// s.mu and must notify the returned subscribers after releasing it.
func (s *Store) commit(ctx context.Context, next []domain.Task) ([]func([]domain.Task), error) {
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.tasks = next
	return snapshotSubs(s.subs), nil
}

func snapshotSubs(subs []func([]domain.Task)) []func([]domain.Task) {
	out := make([]func([]domain.Task), len(subs))
	copy(out, subs)
	return out
}

func notify(subs []func([]domain.Task), list []domain.Task) {
	for _, fn := range subs {
		fn(snapshot(list))
	}
}

func (s *Store) logEvent(ctx context.Context, evtType, id string, payload events.Payload) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Append(ctx, evtType, id, payload); err != nil {
		s.logger().Printf("append %s event: %v", evtType, err)
	}
}

func (s *Store) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func merge(t *domain.Task, patch TaskPatch) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Time != nil {
		t.Time = *patch.Time
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
}

func indexOf(list []domain.Task, id string) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func snapshot(list []domain.Task) []domain.Task {
	out := make([]domain.Task, len(list))
	copy(out, list)
	return out
}
