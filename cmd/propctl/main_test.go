package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`database:
  global:
    url: file:%s
  tenant:
    base_path: %s
jwt:
  secret: test-secret
logging:
  level: error
  format: text
`, filepath.Join(dir, "global.db"), filepath.Join(dir, "tenants"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateAndCreateSuperAdmin(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "migrate", "--config", cfg, "--target", "global")
	require.NoError(t, err)
	assert.Contains(t, out, "global:")

	out, err = run(t, "create-superadmin", "--config", cfg, "--email", "ops@propertyhub.my", "--password", "s3cret-pass", "--name", "Ops")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@propertyhub.my")

	_, err = run(t, "create-superadmin", "--config", cfg, "--email", "ops@propertyhub.my", "--password", "s3cret-pass", "--name", "Ops")
	assert.Error(t, err)

	// No organizations yet, so there is nothing to do.
	_, err = run(t, "migrate", "--config", cfg, "--target", "tenant")
	assert.NoError(t, err)
}

func TestMigrateRejectsUnknownTarget(t *testing.T) {
	_, err := run(t, "migrate", "--config", writeConfig(t), "--target", "replica")
	assert.ErrorContains(t, err, "invalid target")
}

func TestGenerateRentUnknownOrganization(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "migrate", "--config", cfg)
	require.NoError(t, err)

	_, err = run(t, "generate-rent", "--config", cfg, "--org", "no-such-org", "--dry-run")
	assert.ErrorContains(t, err, "not found")
}
