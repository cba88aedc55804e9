package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/config"
	"github.com/MrJamesThe3rd/heshbon/internal/reconcile"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, config.BackendFiles, cfg.Rules.Backend)
	assert.Equal(t, reconcile.DefaultOptions(), cfg.MatchOptions())
	assert.Equal(t, "postgres://postgres:@localhost:5432/heshbon?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RULES_BACKEND", "postgres")
	t.Setenv("MATCH_DATE_WINDOW_DAYS", "7")
	t.Setenv("MATCH_MAX_COMBO_SIZE", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, config.BackendPostgres, cfg.Rules.Backend)
	assert.Equal(t, 7, cfg.MatchOptions().DateWindowDays)
	assert.Equal(t, 2, cfg.MatchOptions().MaxComboSize)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_Errors(t *testing.T) {
	type testCase struct {
		name string
		key  string
		val  string
	}

	tests := []testCase{
		{name: "Unknown backend", key: "RULES_BACKEND", val: "redis"},
		{name: "Malformed port", key: "PORT", val: "eighty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
