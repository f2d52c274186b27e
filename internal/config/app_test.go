package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "https://api.frankfurter.app", cfg.Backend.BaseURL)
	require.Equal(t, 10, cfg.HTTPClient.TimeoutSeconds)
	require.Equal(t, int64(32), cfg.HTTPClient.MaxConcurrent)
	require.Equal(t, 1800, cfg.Session.TTLSeconds)
	require.Equal(t, 0, cfg.Refresh.IntervalSeconds)
	require.Equal(t, "USD", cfg.Defaults.From)
	require.Equal(t, "EUR", cfg.Defaults.To)
	require.Equal(t, "1", cfg.DefaultAmount().String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
backend:
  base_url: "http://file.test/"
session:
  ttl_seconds: 60
rate_limit:
  requests_per_second: 2.5
  burst: 4
defaults:
  amount: "12.50"
  from: "gbp"
  to: " jpy "
`)
	t.Setenv("REFRESH_INTERVAL_SECONDS", "30")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)
	require.Equal(t, "http://file.test", cfg.Backend.BaseURL)
	require.Equal(t, 60, cfg.Session.TTLSeconds)
	require.Equal(t, 30, cfg.Refresh.IntervalSeconds)
	require.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 1e-9)
	require.Equal(t, 4, cfg.RateLimit.Burst)
	require.Equal(t, "GBP", cfg.Defaults.From)
	require.Equal(t, "JPY", cfg.Defaults.To)
	require.Equal(t, "12.5", cfg.DefaultAmount().String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, "backend:\n  base_url: \"http://file.test\"\n")
	t.Setenv("BACKEND_BASE_URL", "http://env.test")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)
	require.Equal(t, "http://env.test", cfg.Backend.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "blank base url", body: "backend:\n  base_url: \"  \"\n"},
		{name: "bad amount", body: "defaults:\n  amount: \"ten\"\n"},
		{name: "bad currency", body: "defaults:\n  from: \"US\"\n"},
		{name: "malformed yaml", body: "backend: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(viper.New(), writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}
