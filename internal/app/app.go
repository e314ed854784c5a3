// Package app wires the workspace database, config, and services into one
// aggregate shared by the CLI and the HTTP server.
package app

import (
	"context"
	"log"
	"time"

	"taskline/internal/auth"
	"taskline/internal/config"
	"taskline/internal/events"
	"taskline/internal/migrate"
	"taskline/internal/profile"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/timer"
)

// App holds the opened workspace and all services wired to it.
type App struct {
	Workspace string
	Config    *config.Config
	DB        *storage.SQLite
	Events    events.Writer
	Log       events.Reader
	Store     *store.Store
	Profile   *profile.Service
	Auth      *auth.Service
	Timer     *timer.Timer
	Logger    *log.Logger
}

// Open opens (creating if needed) the workspace database, migrates it, loads
// config, and wires the services. The task list is loaded into the store
// before Open returns.
func Open(ctx context.Context, workspace string) (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(storage.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	logger := log.Default()
	writer := events.Writer{DB: db.DB, Now: time.Now}

	st := store.New(db)
	st.Events = writer
	st.Logger = logger

	prof := profile.New(db)
	prof.Events = writer
	prof.Logger = logger
	if cfg.Profile.Avatar != "" {
		prof.Avatar = cfg.Profile.Avatar
	}

	au := auth.New(db, cfg.Auth.SessionSecret)
	au.Events = writer
	au.Logger = logger

	a := &App{
		Workspace: workspace,
		Config:    cfg,
		DB:        db,
		Events:    writer,
		Log:       events.Reader{DB: db.DB},
		Store:     st,
		Profile:   prof,
		Auth:      au,
		Timer:     timer.New(cfg.Presets()),
		Logger:    logger,
	}
	a.Store.Load(ctx)
	return a, nil
}

// Close releases the workspace database.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
