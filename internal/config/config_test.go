package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskline/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	p := cfg.Presets()
	if p.Pomodoro != 25*time.Minute || p.ShortBreak != 5*time.Minute || p.LongBreak != 15*time.Minute {
		t.Fatalf("unexpected default presets: %+v", p)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr %s", cfg.Server.Addr)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timer.PomodoroMinutes != 25 {
		t.Fatalf("expected default timer config, got %+v", cfg.Timer)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	data := "timer:\n  pomodoro_minutes: 50\nauth:\n  session_secret: s3cret\n"
	if err := os.WriteFile(filepath.Join(dir, "taskline.yml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timer.PomodoroMinutes != 50 {
		t.Fatalf("file value not applied: %d", cfg.Timer.PomodoroMinutes)
	}
	if cfg.Timer.ShortBreakMinutes != 5 {
		t.Fatalf("default not preserved: %d", cfg.Timer.ShortBreakMinutes)
	}
	if cfg.Auth.SessionSecret != "s3cret" {
		t.Fatalf("secret not applied")
	}
}

func TestFromYAMLRejectsBadValues(t *testing.T) {
	if _, err := config.FromYAML([]byte("timer:\n  pomodoro_minutes: -1\n")); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := config.FromYAML([]byte("timer: [broken")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestGenerateDefaultParses(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	if err != nil {
		t.Fatalf("generated default invalid: %v", err)
	}
	if cfg.Profile.FullName != "John Doe" {
		t.Fatalf("unexpected profile default: %+v", cfg.Profile)
	}
}
