package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cafeledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cafeledger.db", cfg.DB)
	assert.Equal(t, ":8888", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.Cache.ReportTTL)
	assert.Equal(t, "1010", cfg.Roles.Cash)
	assert.Equal(t, "1300", cfg.Roles.Purchases["ingredients"])
	assert.False(t, cfg.GistEnabled())
	assert.False(t, cfg.AIEnabled())
}

func TestLoadFileMergesRoles(t *testing.T) {
	path := writeFile(t, `
cafe:
  name: Corner Cafe
db: /var/lib/cafe.db
log:
  level: debug
  format: json
roles:
  cash: "1011"
  purchases:
    equipment: "1610"
cache:
  report_ttl: 2m
  disabled: true
ai:
  url: http://ai.local/run
  timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Corner Cafe", cfg.Cafe.Name)
	assert.Equal(t, "/var/lib/cafe.db", cfg.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "1011", cfg.Roles.Cash)
	assert.Equal(t, "1020", cfg.Roles.Bank, "unset roles keep defaults")
	assert.Equal(t, "1610", cfg.Roles.Purchases["equipment"])
	assert.Equal(t, "6010", cfg.Roles.Purchases["supplies"])
	assert.Equal(t, 2*time.Minute, cfg.Cache.ReportTTL)
	assert.True(t, cfg.Cache.Disabled)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.True(t, cfg.AIEnabled())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAFELEDGER_DB", "env.db")
	t.Setenv("CAFELEDGER_GIST_ID", "abc123")
	t.Setenv("GIST_TOKEN", "ghp_secret")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("CAFELEDGER_REPORT_TTL", "0s")

	cfg, err := Load(writeFile(t, "db: file.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "env.db", cfg.DB)
	assert.Equal(t, "abc123", cfg.Gist.ID)
	assert.Equal(t, "ghp_secret", cfg.Gist.Token)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Zero(t, cfg.Cache.ReportTTL)
	assert.True(t, cfg.GistEnabled())
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv("CAFELEDGER_REPORT_TTL", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "REPORT_TTL")

	t.Setenv("CAFELEDGER_REPORT_TTL", "")
	t.Setenv("CAFELEDGER_REPORT_CACHE_DISABLED", "sometimes")
	_, err = Load("")
	assert.ErrorContains(t, err, "REPORT_CACHE_DISABLED")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "db: [unclosed\n"))
	assert.ErrorContains(t, err, "parsing config")

	_, err = Load(writeFile(t, "ai:\n  max_retries: -1\n"))
	assert.ErrorContains(t, err, "max_retries")
}

func TestSaveOmitsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Gist.ID = "abc"
	cfg.Gist.Token = "ghp_secret"
	cfg.AI.APIKey = "sk-test"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ghp_secret")
	assert.NotContains(t, string(data), "sk-test")
	assert.Contains(t, string(data), "id: abc")

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", back.Gist.ID)
	assert.Empty(t, back.Gist.Token)
}
