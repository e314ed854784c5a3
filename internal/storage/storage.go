// Package storage provides the local key-value storage the rest of the app
// persists through. Values are opaque strings; callers JSON-encode what they
// store.
package storage

import (
	"context"
	"errors"
)

// Storage keys used by the app.
const (
	KeyTasks    = "tasks"
	KeyProfile  = "userProfile"
	KeyAuthUser = "auth_user"
)

// ErrNoValue is returned by Get when no value is stored under the key.
var ErrNoValue = errors.New("no value")

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
