// Package auth holds the session layer. Credential verification is a
// pluggable capability; the only implementation shipped is MockVerifier,
// which always succeeds and fabricates the user. Sessions are persisted to
// key-value storage and carry an HS256 token for the HTTP API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/validate"
)

// ErrSignedOut is returned by Current when no session is stored.
var ErrSignedOut = errors.New("not signed in")

// DefaultTokenTTL bounds session token lifetime.
const DefaultTokenTTL = 30 * 24 * time.Hour

// CredentialVerifier either verifies credentials or issues a session
// identity. Real backends would check a credential store here.
type CredentialVerifier interface {
	VerifySignIn(email, password string) (domain.User, error)
	VerifySignUp(fullName, email, password string) (domain.User, error)
}

// MockVerifier is the demo implementation: it never checks a password.
// Sign-in fabricates the fixed demo identity with the supplied email;
// sign-up fabricates a fresh identity from the supplied fields.
type MockVerifier struct {
	NewID func() string
}

func (v MockVerifier) VerifySignIn(email, _ string) (domain.User, error) {
	return domain.User{ID: "1", FullName: "John Doe", Email: email}, nil
}

func (v MockVerifier) VerifySignUp(fullName, email, _ string) (domain.User, error) {
	newID := uuid.NewString
	if v.NewID != nil {
		newID = v.NewID
	}
	return domain.User{ID: newID(), FullName: fullName, Email: email}, nil
}

// Session is a signed-in user plus the bearer token for the HTTP API.
type Session struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type Service struct {
	KV       storage.KV
	Verifier CredentialVerifier
	Secret   string
	TokenTTL time.Duration
	Events   events.Appender
	Logger   *log.Logger
	Now      func() time.Time
}

func New(kv storage.KV, secret string) *Service {
	return &Service{
		KV:       kv,
		Verifier: MockVerifier{},
		Secret:   secret,
		TokenTTL: DefaultTokenTTL,
		Now:      time.Now,
	}
}

// SignIn validates the form, asks the verifier for an identity, persists it,
// and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := validate.SignIn(email, password); err != nil {
		return Session{}, err
	}
	u, err := s.Verifier.VerifySignIn(email, password)
	if err != nil {
		return Session{}, err
	}
	return s.openSession(ctx, u, "auth.signin")
}

// SignUp validates the form, asks the verifier to issue an identity,
// persists it, and issues a session token.
func (s *Service) SignUp(ctx context.Context, fullName, email, password string) (Session, error) {
	if err := validate.SignUp(fullName, email, password); err != nil {
		return Session{}, err
	}
	u, err := s.Verifier.VerifySignUp(fullName, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.openSession(ctx, u, "auth.signup")
}

// SignOut clears the stored session. Signing out while signed out is a no-op.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.KV.Remove(ctx, storage.KeyAuthUser); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	s.logEvent(ctx, "auth.signout", "")
	return nil
}

// Current returns the stored session user, or ErrSignedOut.
func (s *Service) Current(ctx context.Context) (domain.User, error) {
	raw, err := s.KV.Get(ctx, storage.KeyAuthUser)
	if errors.Is(err, storage.ErrNoValue) {
		return domain.User{}, ErrSignedOut
	}
	if err != nil {
		s.logger().Printf("load session: %v", err)
		return domain.User{}, ErrSignedOut
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger().Printf("load session: unparseable payload: %v", err)
		return domain.User{}, ErrSignedOut
	}
	return u, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// IssueToken signs a session token for the user.
func (s *Service) IssueToken(u domain.User) (string, error) {
	if s.Secret == "" {
		return "", errors.New("session secret not configured")
	}
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		FullName: u.FullName,
		Email:    u.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// VerifyToken parses and validates a session token and returns the user it
// encodes.
func (s *Service) VerifyToken(token string) (domain.User, error) {
	if s.Secret == "" {
		return domain.User{}, errors.New("session secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.Secret), nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.User{}, errors.New("invalid token")
	}
	return domain.User{ID: claims.Subject, FullName: claims.FullName, Email: claims.Email}, nil
}

func (s *Service) openSession(ctx context.Context, u domain.User, evtType string) (Session, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	if err := s.KV.Set(ctx, storage.KeyAuthUser, string(data)); err != nil {
		return Session{}, fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return Session{}, err
	}
	s.logEvent(ctx, evtType, u.ID)
	return Session{User: u, Token: token}, nil
}

func (s *Service) logEvent(ctx context.Context, evtType, id string) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Append(ctx, evtType, id, nil); err != nil {
		s.logger().Printf("append %s event: %v", evtType, err)
	}
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
