package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taskline/internal/domain"
	"taskline/internal/migrate"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/validate"
)

type testEnv struct {
	Store *store.Store
	KV    *storage.Memory
	Ctx   context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	kv := storage.NewMemory()
	s := store.New(kv)
	s.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	ids := 0
	s.NewID = func() string {
		ids++
		return fmt.Sprintf("task-%d", ids)
	}
	ctx := context.Background()
	s.Load(ctx)
	return testEnv{Store: s, KV: kv, Ctx: ctx}
}

func mustCreate(t *testing.T, env testEnv, title, due, at string) domain.Task {
	t.Helper()
	task, err := env.Store.Create(env.Ctx, domain.TaskForm{Title: title, DueDate: due, Time: at})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func TestCreateAssignsIdentityAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Buy milk", "2024-06-01", "10:00")
	if task.ID == "" {
		t.Fatalf("expected id")
	}
	if task.Status != domain.StatusOpen {
		t.Fatalf("expected open, got %s", task.Status)
	}
	if task.CreatedAt != "2024-06-01T12:00:00Z" {
		t.Fatalf("unexpected createdAt %s", task.CreatedAt)
	}
	list := env.Store.Tasks()
	if len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("expected task in published list, got %v", list)
	}
}

func TestCreatePersistsToStorage(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, "Persist me", "2024-06-02", "09:30")

	// A fresh store over the same KV sees the task.
	reopened := store.New(env.KV)
	list := reopened.Load(env.Ctx)
	if len(list) != 1 || list[0].Title != "Persist me" {
		t.Fatalf("expected persisted task, got %v", list)
	}
}

func TestToggleStatusIsAnInvolution(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Flip", "2024-06-01", "08:00")

	if err := env.Store.ToggleStatus(env.Ctx, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, _ := env.Store.FindByID(task.ID)
	if got.Status != domain.StatusComplete {
		t.Fatalf("expected complete, got %s", got.Status)
	}
	if err := env.Store.ToggleStatus(env.Ctx, task.ID); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	got, _ = env.Store.FindByID(task.ID)
	if got.Status != domain.StatusOpen {
		t.Fatalf("expected open after double toggle, got %s", got.Status)
	}
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Original", "2024-06-01", "08:00")

	title := "Renamed"
	if err := env.Store.Update(env.Ctx, task.ID, store.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := env.Store.FindByID(task.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("title not updated: %s", got.Title)
	}
	if got.DueDate != "2024-06-01" || got.Time != "08:00" || got.Status != domain.StatusOpen {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestMutationsOnUnknownIDAreSilentNoOps(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, "Keep", "2024-06-01", "08:00")
	before := env.Store.Tasks()

	title := "ghost"
	if err := env.Store.Update(env.Ctx, "nope", store.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if err := env.Store.ToggleStatus(env.Ctx, "nope"); err != nil {
		t.Fatalf("toggle unknown: %v", err)
	}
	if err := env.Store.Delete(env.Ctx, "nope"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	after := env.Store.Tasks()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("list changed by no-op mutations")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Doomed", "2024-06-01", "08:00")

	if err := env.Store.Delete(env.Ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.Store.Delete(env.Ctx, task.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if len(env.Store.Tasks()) != 0 {
		t.Fatalf("expected empty list")
	}
	if _, err := env.Store.FindByID(task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlankTitleCreateLeavesListUnchanged(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, "Keep", "2024-06-01", "08:00")

	if err := validate.TaskForm(domain.TaskForm{Title: "   ", DueDate: "2024-06-02", Time: "09:00"}); err == nil {
		t.Fatalf("expected validation error for blank title")
	}
	if _, err := env.Store.Create(env.Ctx, domain.TaskForm{DueDate: "2024-06-02", Time: "09:00"}); err == nil {
		t.Fatalf("expected create to reject a missing title")
	}
	if list := env.Store.Tasks(); len(list) != 1 || list[0].Title != "Keep" {
		t.Fatalf("list changed by rejected create: %v", list)
	}
}

func TestPatchMergedAppliesOnlySuppliedFields(t *testing.T) {
	base := domain.Task{Title: "Keep", Description: "d", DueDate: "2024-06-01", Time: "08:00"}
	title := ""
	form := store.TaskPatch{Title: &title}.Merged(base)
	if form.Title != "" || form.Description != "d" || form.DueDate != "2024-06-01" || form.Time != "08:00" {
		t.Fatalf("unexpected merged form: %+v", form)
	}
	if err := validate.TaskForm(form); err == nil {
		t.Fatalf("merged form with blank title should fail validation")
	}
}

func TestFailedWriteLeavesPublishedListUnchanged(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Stable", "2024-06-01", "08:00")

	env.KV.FailWrites = errors.New("disk full")
	_, err := env.Store.Create(env.Ctx, domain.TaskForm{Title: "Doomed", DueDate: "2024-06-02", Time: "09:00"})
	if !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	if err := env.Store.ToggleStatus(env.Ctx, task.ID); !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed on toggle, got %v", err)
	}

	list := env.Store.Tasks()
	if len(list) != 1 || list[0].Status != domain.StatusOpen || list[0].Title != "Stable" {
		t.Fatalf("published list changed after failed writes: %v", list)
	}
}

func TestLoadRecoversFromReadErrorsAndBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	env.KV.FailReads = errors.New("io error")
	if got := env.Store.Load(env.Ctx); len(got) != 0 {
		t.Fatalf("expected empty list on read error, got %v", got)
	}
	env.KV.FailReads = nil

	if err := env.KV.Set(env.Ctx, storage.KeyTasks, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := env.Store.Load(env.Ctx); len(got) != 0 {
		t.Fatalf("expected empty list on unparseable payload, got %v", got)
	}
}

func TestSubscribersSeeSnapshotsAfterEachMutation(t *testing.T) {
	env := newTestEnv(t)
	var seen [][]domain.Task
	env.Store.Subscribe(func(list []domain.Task) {
		seen = append(seen, list)
	})

	task := mustCreate(t, env, "Watch me", "2024-06-01", "08:00")
	if err := env.Store.ToggleStatus(env.Ctx, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[1][0].Status != domain.StatusComplete {
		t.Fatalf("expected snapshot with toggled status")
	}

	// Mutating a delivered snapshot must not leak into the store.
	seen[1][0].Title = "tampered"
	got, _ := env.Store.FindByID(task.ID)
	if got.Title != "Watch me" {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestSubscriberMayReadBackDuringNotification(t *testing.T) {
	env := newTestEnv(t)
	var lengths []int
	env.Store.Subscribe(func([]domain.Task) {
		lengths = append(lengths, len(env.Store.Tasks()))
	})

	mustCreate(t, env, "First", "2024-06-01", "08:00")
	mustCreate(t, env, "Second", "2024-06-01", "09:00")
	if len(lengths) != 2 || lengths[0] != 1 || lengths[1] != 2 {
		t.Fatalf("read-back from subscriber failed: %v", lengths)
	}
}

func TestBuyMilkLifecycle(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env, "Buy milk", "2024-06-01", "18:00")
	mustCreate(t, env, "Walk dog", "2024-06-01", "07:00")

	if err := env.Store.ToggleStatus(env.Ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	done, _ := env.Store.FindByID(task.ID)
	if done.Status != domain.StatusComplete {
		t.Fatalf("expected Buy milk complete")
	}
	if err := env.Store.Delete(env.Ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list := env.Store.Tasks()
	if len(list) != 1 || list[0].Title != "Walk dog" {
		t.Fatalf("expected only Walk dog left, got %v", list)
	}
}

func TestRoundTripThroughWorkspaceDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	db, err := storage.Open(storage.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := migrate.Migrate(db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := store.New(db)
	s.Load(ctx)
	created, err := s.Create(ctx, domain.TaskForm{Title: "Durable", DueDate: "2024-07-04", Time: "12:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s2 := store.New(db)
	list := s2.Load(ctx)
	if len(list) != 1 || list[0].ID != created.ID || list[0].DueDate != "2024-07-04" {
		t.Fatalf("round trip mismatch: %v", list)
	}
}
