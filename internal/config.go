package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	State     StateConfig       `yaml:"state"`
	Insight   InsightConfig     `yaml:"insight"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Oracle    OracleConfig      `yaml:"oracle"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	if err := c.Insight.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Oracle.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the path to the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StateConfig holds state-controller configuration. DebounceQuiet is
// the quiet interval after the last mutation before a snapshot is
// persisted; bursts of edits collapse into one write.
type StateConfig struct {
	DebounceQuiet time.Duration `yaml:"debounce_quiet"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	if c.DebounceQuiet <= 0 {
		return fmt.Errorf("state: debounce_quiet must be positive")
	}
	return nil
}

// InsightConfig holds daily-synthesis configuration. MinEntries is the
// minimum number of journal moments before the generator is consulted.
type InsightConfig struct {
	MinEntries int `yaml:"min_entries"`
}

// Validate validates the insight configuration.
func (c *InsightConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinEntries, validation.Required, validation.Min(1)),
	)
}

// SchedulerConfig holds the transmission scheduling policy. The
// threshold values are a product decision; they are named here so no
// call site carries magic numbers.
type SchedulerConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	MinGap         time.Duration `yaml:"min_gap"`
	RecentWindow   time.Duration `yaml:"recent_window"`
	MinSignal      int           `yaml:"min_signal"`
	ReaderInterval time.Duration `yaml:"reader_interval"`
}

// Validate validates the scheduler configuration.
func (c *SchedulerConfig) Validate() error {
	if c.PollInterval <= 0 || c.MinGap <= 0 || c.RecentWindow <= 0 || c.ReaderInterval <= 0 {
		return fmt.Errorf("scheduler: all intervals must be positive")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.MinSignal, validation.Required, validation.Min(1)),
	)
}

// OracleConfig holds the external text-generator configuration. An
// empty APIKey disables generation; both generator paths then run on
// their fallbacks.
type OracleConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the oracle configuration.
func (c *OracleConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("oracle: timeout must not be negative")
	}
	return nil
}

// InboxConfig holds the optional import directory. Empty disables the
// inbox watcher.
type InboxConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./pdaok.db",
		},
		State: StateConfig{
			DebounceQuiet: 2 * time.Second,
		},
		Insight: InsightConfig{
			MinEntries: 5,
		},
		Scheduler: SchedulerConfig{
			PollInterval:   30 * time.Minute,
			MinGap:         20 * time.Hour,
			RecentWindow:   48 * time.Hour,
			MinSignal:      3,
			ReaderInterval: 60 * time.Second,
		},
		Oracle: OracleConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
