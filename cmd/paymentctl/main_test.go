package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "payment.yaml")
	content := `
service:
  name: payment
  internal_key: "0123456789abcdef0123456789abcdef"
database:
  driver: sqlite
  name: "` + filepath.Join(dir, "payment.db") + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcile_EmptyDatabase(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "reconcile", "--config", path, "--limit", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "scanned=0 granted=0 skipped=0 failed=0")
}

func TestSubscriptions_SweepEmptyDatabase(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "subscriptions", "sweep", "--config", path, "--grace", "24h")

	require.NoError(t, err)
	assert.Contains(t, out, "expired=0 past_due=0 failed=0")
}

func TestProvider_SetAndShow(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "provider", "set", "--config", path, "--provider", "midtrans", "--methods", "QRIS", "--by", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "active provider is now midtrans")

	out, err = run(t, "provider", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"active_provider": "midtrans"`)
	assert.Contains(t, out, "webhook secret override: false")
}

func TestProvider_SetRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t)

	_, err := run(t, "provider", "set", "--config", path, "--provider", "paypal", "--by", "ops")

	assert.Error(t, err)
}

func TestPayments_Stats(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "payments", "stats", "--config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "total")
}

func TestPayments_GetMissing(t *testing.T) {
	path := writeConfig(t)

	_, err := run(t, "payments", "get", "nope", "--config", path)

	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PAYMENTCTL_CONFIG", "")
	v := viper.New()
	assert.Equal(t, defaultConfigPath, configPath(v))

	t.Setenv("CONFIG_PATH", "/etc/payment.yaml")
	assert.Equal(t, "/etc/payment.yaml", configPath(v))

	v.Set("config", "/tmp/override.yaml")
	assert.Equal(t, "/tmp/override.yaml", configPath(v))
}
