package config_test

import (
	"enricher/internal/config"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  urlTemplate: "https://api.example.test/search/{}/{}"
  key: "secret"
  contentType: "application/json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "https://api.example.test/search/{}/{}", cfg.API.URLTemplate)
	require.Equal(t, "secret", cfg.API.Key)
	require.Equal(t, "employees", cfg.API.SearchType)
	require.True(t, cfg.ThirdPartyDomains())
	require.False(t, cfg.Dispatch.NoProgress)
	require.Equal(t, 30, cfg.API.LookbackDays)
	require.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
	require.Equal(t, 50, cfg.Dispatch.BatchSize)
	require.Equal(t, 4, cfg.Dispatch.Concurrency)
	require.Equal(t, 5, cfg.Dispatch.MaxAttempts)
	require.Equal(t, 2*time.Second, cfg.Dispatch.BackoffBase)
	require.Equal(t, "domains.json", cfg.Files.Input)
	require.Equal(t, "results.txt", cfg.Files.Output)
	require.Empty(t, cfg.Debug.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
log:
  file: script.log
api:
  urlTemplate: "https://api.example.test/{start}/{end}"
  key: "secret"
  contentType: "application/json"
  requestsPerSecond: 2.5
  thirdPartyDomains: "false"
dispatch:
  batchSize: 10
  concurrency: 8
files:
  output: out/matches.txt
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "script.log", cfg.Log.File)
	require.False(t, cfg.ThirdPartyDomains())
	require.InDelta(t, 2.5, cfg.API.RequestsPerSecond, 0.0001)
	require.Equal(t, 10, cfg.Dispatch.BatchSize)
	require.Equal(t, 8, cfg.Dispatch.Concurrency)
	require.Equal(t, "out/matches.txt", cfg.Files.Output)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  urlTemplate: "https://api.example.test/{}/{}"
  key: "from-file"
  contentType: "application/json"
`)
	t.Setenv("API_KEY", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.API.Key)
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	path := writeConfig(t, `
api:
  urlTemplate: "https://api.example.test/{}/{}"
  contentType: "application/json"
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestLoad_MaxAttemptsBounded(t *testing.T) {
	for attempts, ok := range map[int]bool{1: true, 16: true, 17: false, 40: false, -1: false} {
		path := writeConfig(t, fmt.Sprintf(`
api:
  urlTemplate: "https://api.example.test/{}/{}"
  key: "secret"
  contentType: "application/json"
dispatch:
  maxAttempts: %d
`, attempts))

		_, err := config.Load(path)
		if ok {
			require.NoError(t, err, "maxAttempts %d", attempts)
		} else {
			require.ErrorContains(t, err, "maxAttempts", "maxAttempts %d", attempts)
		}
	}
}

func TestLoad_InvalidThirdPartyDomains(t *testing.T) {
	path := writeConfig(t, `
api:
  urlTemplate: "https://api.example.test/{}/{}"
  key: "secret"
  contentType: "application/json"
  thirdPartyDomains: "sometimes"
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "thirdPartyDomains")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoad_InvalidRanges(t *testing.T) {
	path := writeConfig(t, `
api:
  urlTemplate: "https://api.example.test/{}/{}"
  key: "secret"
  contentType: "application/json"
dispatch:
  concurrency: -1
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "concurrency")
}
