package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/heshbon/internal/reconcile"
)

// Rules storage backends.
const (
	BackendFiles    = "files"
	BackendPostgres = "postgres"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Heshbon"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"heshbon"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Rules struct {
		// Backend selects where rule sets live: sidecar files next to the
		// statements, or PostgreSQL documents keyed by workspace.
		Backend string `envconfig:"RULES_BACKEND" default:"files"`
	}

	Workspace struct {
		Dir string `envconfig:"WORKSPACE_DIR" default:"."`
	}

	Match struct {
		DateWindowDays       int   `envconfig:"MATCH_DATE_WINDOW_DAYS" default:"5"`
		AmountToleranceCents int64 `envconfig:"MATCH_AMOUNT_TOLERANCE_CENTS" default:"1"`
		MaxComboSize         int   `envconfig:"MATCH_MAX_COMBO_SIZE" default:"4"`
		MaxSplitParts        int   `envconfig:"MATCH_MAX_SPLIT_PARTS" default:"3"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MatchOptions returns the reconciliation options.
func (c *Config) MatchOptions() reconcile.Options {
	return reconcile.Options{
		DateWindowDays:  c.Match.DateWindowDays,
		AmountTolerance: c.Match.AmountToleranceCents,
		MaxComboSize:    c.Match.MaxComboSize,
		MaxSplitParts:   c.Match.MaxSplitParts,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Rules.Backend {
	case BackendFiles, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown RULES_BACKEND %q", cfg.Rules.Backend)
	}

	return &cfg, nil
}
