package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 9090
database:
  global:
    url: "file:/tmp/global.db"
jwt:
  secret: "from-file"
  access_token_ttl: 30m
billing:
  trial_days: 30
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file:/tmp/global.db", cfg.Database.Global.URL)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 30, cfg.Billing.TrialDays)

	// defaults
	assert.Equal(t, "0 0 1 * *", cfg.Scheduler.RentGenerationSchedule)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "starter", cfg.Billing.DefaultPlan)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDomainsOrigins(t *testing.T) {
	d := DomainsConfig{AppDomain: "app.propertyhub.my", AllowedOrigins: []string{"http://localhost:3000"}}
	assert.Equal(t, []string{"http://localhost:3000", "https://app.propertyhub.my"}, d.Origins())
	assert.Empty(t, DomainsConfig{}.Origins())
}
