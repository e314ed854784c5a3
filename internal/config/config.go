package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"taskline/internal/timer"
)

// Config models taskline.yml.
type Config struct {
	Profile struct {
		FullName string `yaml:"full_name"`
		Email    string `yaml:"email"`
		Avatar   string `yaml:"avatar"`
	} `yaml:"profile"`
	Timer struct {
		PomodoroMinutes   int `yaml:"pomodoro_minutes"`
		ShortBreakMinutes int `yaml:"short_break_minutes"`
		LongBreakMinutes  int `yaml:"long_break_minutes"`
	} `yaml:"timer"`
	Auth struct {
		SessionSecret string `yaml:"session_secret"`
	} `yaml:"auth"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Timer.PomodoroMinutes <= 0 {
		return fmt.Errorf("config.timer.pomodoro_minutes must be positive")
	}
	if c.Timer.ShortBreakMinutes <= 0 {
		return fmt.Errorf("config.timer.short_break_minutes must be positive")
	}
	if c.Timer.LongBreakMinutes <= 0 {
		return fmt.Errorf("config.timer.long_break_minutes must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	return nil
}

// Presets converts the configured minutes into timer presets.
func (c *Config) Presets() timer.Presets {
	return timer.Presets{
		Pomodoro:   time.Duration(c.Timer.PomodoroMinutes) * time.Minute,
		ShortBreak: time.Duration(c.Timer.ShortBreakMinutes) * time.Minute,
		LongBreak:  time.Duration(c.Timer.LongBreakMinutes) * time.Minute,
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskline.yml")
}

// Load reads config from workspace, falling back to defaults when the file
// does not exist. File values overlay defaults field by field.
func Load(workspace string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateDefault returns the default config YAML, suitable for writing to a
// fresh workspace.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `profile:
  full_name: John Doe
  email: john.doe@example.com
  avatar: ""

timer:
  pomodoro_minutes: 25
  short_break_minutes: 5
  long_break_minutes: 15

auth:
  session_secret: dev-secret-change-me

server:
  addr: :8080
`
