package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskline/internal/profile"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/validate"
)

func newTestService(t *testing.T) (*profile.Service, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	s := profile.New(kv)
	s.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s, kv
}

func TestLoadMaterializesDefaultProfile(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()

	p := s.Load(ctx)
	if p.FullName != "John Doe" || p.Email != "john.doe@example.com" {
		t.Fatalf("unexpected default: %+v", p)
	}
	if p.Avatar != profile.DefaultAvatar {
		t.Fatalf("expected default avatar, got %s", p.Avatar)
	}

	// The default was persisted, not just returned.
	if _, err := kv.Get(ctx, storage.KeyProfile); err != nil {
		t.Fatalf("default profile not persisted: %v", err)
	}
}

func TestLoadRecoversToDefaultOnErrors(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()

	kv.FailReads = errors.New("io error")
	if p := s.Load(ctx); p.FullName != "John Doe" {
		t.Fatalf("expected default on read error, got %+v", p)
	}
	kv.FailReads = nil

	if err := kv.Set(ctx, storage.KeyProfile, "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if p := s.Load(ctx); p.FullName != "John Doe" {
		t.Fatalf("expected default on bad payload, got %+v", p)
	}
}

func TestUpdateMergesSuppliedFields(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	name := "Jane Smith"
	p, err := s.Update(ctx, profile.Patch{FullName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.FullName != "Jane Smith" {
		t.Fatalf("name not updated: %s", p.FullName)
	}
	if p.Email != "john.doe@example.com" {
		t.Fatalf("email should be untouched, got %s", p.Email)
	}

	// The merge persisted.
	if got := s.Load(ctx); got.FullName != "Jane Smith" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateRejectsInvalidResult(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	empty := ""
	_, err := s.Update(ctx, profile.Patch{FullName: &empty})
	var fe validate.FieldError
	if !errors.As(err, &fe) || fe.Field != "fullName" {
		t.Fatalf("expected fullName FieldError, got %v", err)
	}

	bad := "nope"
	if _, err := s.Update(ctx, profile.Patch{Email: &bad}); err == nil {
		t.Fatalf("expected email validation error")
	}
}

func TestUpdateWrapsWriteFailures(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()
	s.Load(ctx)

	kv.FailWrites = errors.New("disk full")
	name := "Jane"
	if _, err := s.Update(ctx, profile.Patch{FullName: &name}); !errors.Is(err, store.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
}
