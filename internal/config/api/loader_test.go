package api_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setAuthEnv(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "access")
	t.Setenv("AUTH_ACCESS_TTL", "15m")
	t.Setenv("AUTH_REFRESH_SECRET", "refresh")
	t.Setenv("AUTH_REFRESH_TTL", "720h")
	t.Setenv("AUTH_BCRYPT_COST", "10")
}

func TestLoadFromEnv(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "access", cfg.Auth.AccessSecret)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.False(t, cfg.Auth.RotateRefresh)
	require.Equal(t, DriverMemory, cfg.DB.Driver)
	require.Equal(t, 1, cfg.App.APIVersion)
	require.Equal(t, time.Minute, cfg.Sweeper.Tick)
	require.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  api_version: 2
db:
  url: postgres://u:p@db:5432/tasker
auth:
  access_secret: a
  access_ttl: 10m
  refresh_secret: r
  refresh_ttl: 24h
  bcrypt_cost: 12
  rotate_refresh: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.App.APIVersion)
	require.Equal(t, "postgres://u:p@db:5432/tasker", cfg.DB.URL)
	require.Equal(t, 12, cfg.Auth.BcryptCost)
	require.True(t, cfg.Auth.RotateRefresh)
}

func TestLoadMissingAuth(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "access")

	_, err := Load("")
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, err.Error(), "auth.refresh_secret")
	require.Contains(t, err.Error(), "auth.bcrypt_cost")
	require.NotContains(t, err.Error(), "auth.access_secret")
}

func TestLoadRejectsInvalidAuth(t *testing.T) {
	cases := map[string]map[string]string{
		"same secrets":  {"AUTH_REFRESH_SECRET": "access"},
		"cost too low":  {"AUTH_BCRYPT_COST": "3"},
		"cost too high": {"AUTH_BCRYPT_COST": "32"},
		"zero ttl":      {"AUTH_ACCESS_TTL": "0s"},
		"bad duration":  {"AUTH_REFRESH_TTL": "soon"},
		"bad driver":    {"DB_DRIVER": "mongo"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setAuthEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			var cerr ErrConfig
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	require.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/tasker/api.yaml")
	require.Equal(t, "/etc/tasker/api.yaml", Path())
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "access", cfg.Auth.AccessSecret)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	setAuthEnv(t)
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  access_ttl: [15m\n"), 0o600))

	_, err := Load(path)
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, err.Error(), "read config")
	require.NotContains(t, err.Error(), "missing required config")
}

func TestLoadRateLimit(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.RateLimit.Enable)
	require.True(t, cfg.RateLimit.SkipLoopback)
	require.Equal(t, 100, cfg.RateLimit.GeneralRequests)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.GeneralWindow)
	require.Equal(t, 10, cfg.RateLimit.StrictRequests)
	require.Equal(t, 10*time.Minute, cfg.RateLimit.StrictWindow)

	t.Setenv("RATE_LIMIT_STRICT_REQUESTS", "3")
	t.Setenv("RATE_LIMIT_STRICT_WINDOW", "1m")
	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.RateLimit.StrictRequests)
	require.Equal(t, time.Minute, cfg.RateLimit.StrictWindow)

	t.Setenv("RATE_LIMIT_GENERAL_WINDOW", "0s")
	_, err = Load("")
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
}
