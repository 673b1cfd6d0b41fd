package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// App is the runtime configuration of the library CLI.
type App struct {
	Store    Store  `yaml:"store"`
	LoanDays int    `yaml:"loan_days" validate:"min=1,max=365"`
	Log      Log    `yaml:"log"`
	Seed     string `yaml:"seed"`
}

// Store selects the collection backend. The sqlite backend always runs
// against an in-memory database; an empty DSN gives a private one.
type Store struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite"`
	DSN    string `yaml:"dsn"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() App {
	return App{
		Store:    Store{Driver: "memory"},
		LoanDays: 14,
		Log:      Log{Level: "warn", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults, applies LIBRARY_*
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (App, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return App{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return App{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return App{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return App{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *App) error {
	cfg.Store.Driver = getenv("LIBRARY_STORE", cfg.Store.Driver)
	cfg.Store.DSN = getenv("LIBRARY_DSN", cfg.Store.DSN)
	cfg.Log.Level = strings.ToLower(getenv("LIBRARY_LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getenv("LIBRARY_LOG_FORMAT", cfg.Log.Format))
	cfg.Seed = getenv("LIBRARY_SEED", cfg.Seed)
	if v := os.Getenv("LIBRARY_LOAN_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("LIBRARY_LOAN_DAYS must be an integer")
		}
		cfg.LoanDays = n
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// LoanPeriod converts LoanDays to a duration.
func (a App) LoanPeriod() time.Duration {
	return time.Duration(a.LoanDays) * 24 * time.Hour
}

// NewLogger builds the slog logger described by the Log section.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	// Validated already; UnmarshalText only fails on unknown names.
	_ = level.UnmarshalText([]byte(l.Level))

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
