package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Registry drivers.
const (
	DriverMemory   = "memory"
	DriverLocked   = "locked"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidSettings wraps every validation failure from Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New(validator.WithRequiredStructEnabled())

// settingPaths maps Settings fields to their document paths for error messages.
var settingPaths = map[string]string{
	"LogFormat":      "log.format",
	"PoolWorkers":    "pool.workers",
	"RegistryDriver": "registry.driver",
	"RegistryPath":   "registry.path",
	"RegistryDSN":    "registry.dsn",
}

// Settings holds everything needed to assemble a bus.
type Settings struct {
	LogLevel  slog.Level
	LogFormat string `validate:"oneof=text json"`

	// PoolWorkers is the worker count for pool handlers; 0 means GOMAXPROCS.
	PoolWorkers int `validate:"gte=0"`

	Metrics bool
	Tracing bool

	RegistryDriver string `validate:"oneof=memory locked sqlite postgres"`
	RegistryPath   string `validate:"required_if=RegistryDriver sqlite"`
	RegistryDSN    string `validate:"required_if=RegistryDriver postgres"`
}

// DefaultSettings returns the settings used for missing keys.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:       slog.LevelInfo,
		LogFormat:      FormatText,
		RegistryDriver: DriverMemory,
		RegistryPath:   "eventbus.db",
	}
}

// LoadSettings reads and validates a settings file.
func LoadSettings(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFrom(cfg)
}

// SettingsFrom extracts and validates Settings from cfg.
func SettingsFrom(cfg Config) (Settings, error) {
	s := DefaultSettings()

	if raw := cfg.String("log.level", ""); raw != "" {
		if err := s.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Settings{}, fmt.Errorf("%w: log.level %q", ErrInvalidSettings, raw)
		}
	}
	s.LogFormat = strings.ToLower(cfg.String("log.format", s.LogFormat))
	s.PoolWorkers = cfg.Int("pool.workers", s.PoolWorkers)
	s.Metrics = cfg.Bool("observability.metrics", s.Metrics)
	s.Tracing = cfg.Bool("observability.tracing", s.Tracing)
	s.RegistryDriver = strings.ToLower(cfg.String("registry.driver", s.RegistryDriver))
	s.RegistryPath = cfg.String("registry.path", s.RegistryPath)
	s.RegistryDSN = cfg.String("registry.dsn", s.RegistryDSN)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks field values.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path, ok := settingPaths[fe.Field()]
		if !ok {
			path = fe.Field()
		}
		errs = append(errs, fmt.Errorf("%s: %v fails %s", path, fe.Value(), fe.Tag()))
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

// NewLogger builds a logger writing to w in the configured format and level.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
