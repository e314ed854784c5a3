// Package profile manages the stored user profile: a default record is
// materialized on first load, and updates are partial merges of the supplied
// fields.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/validate"
)

// DefaultAvatar is used when no avatar is configured.
const DefaultAvatar = "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=150&h=150&dpr=2"

// Patch holds a partial profile update; nil fields are left untouched.
type Patch struct {
	FullName *string
	Email    *string
	Avatar   *string
}

type Service struct {
	KV     storage.KV
	Events events.Appender
	Logger *log.Logger
	Now    func() time.Time

	// Avatar used when materializing the default profile.
	Avatar string
}

func New(kv storage.KV) *Service {
	return &Service{KV: kv, Now: time.Now, Avatar: DefaultAvatar}
}

func (s *Service) defaultProfile() domain.UserProfile {
	return domain.UserProfile{
		ID:        "1",
		FullName:  "John Doe",
		Email:     "john.doe@example.com",
		Avatar:    s.Avatar,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
}

// Load returns the stored profile. When none is stored the default profile
// is persisted and returned; read errors recover to the default without
// surfacing to the caller.
func (s *Service) Load(ctx context.Context) domain.UserProfile {
	def := s.defaultProfile()
	raw, err := s.KV.Get(ctx, storage.KeyProfile)
	switch {
	case errors.Is(err, storage.ErrNoValue):
		if err := s.save(ctx, def); err != nil {
			s.logger().Printf("materialize default profile: %v", err)
		}
		return def
	case err != nil:
		s.logger().Printf("load profile: %v", err)
		return def
	}
	var p domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger().Printf("load profile: unparseable payload: %v", err)
		return def
	}
	return p
}

// Update merges the supplied fields into the stored profile, validates the
// result, and persists it.
func (s *Service) Update(ctx context.Context, patch Patch) (domain.UserProfile, error) {
	p := s.Load(ctx)
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	if err := validate.Profile(p.FullName, p.Email); err != nil {
		return domain.UserProfile{}, err
	}
	if err := s.save(ctx, p); err != nil {
		return domain.UserProfile{}, err
	}
	if s.Events != nil {
		if err := s.Events.Append(ctx, "profile.updated", p.ID, events.Payload{"fullName": p.FullName}); err != nil {
			s.logger().Printf("append profile.updated event: %v", err)
		}
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p domain.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	if err := s.KV.Set(ctx, storage.KeyProfile, string(data)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

func (s *Service) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
