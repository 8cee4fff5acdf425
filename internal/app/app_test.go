package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Posteriot/makalah-app-sub005/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = filepath.Join(t.TempDir(), "payment.db")
	cfg.Reconcile.BatchSize = 10
	return cfg
}

func TestNew_SQLite(t *testing.T) {
	a, err := New(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NoError(t, a.Ping(context.Background()))
	assert.Nil(t, a.Redis)
	assert.NoError(t, a.ListenForConfigChanges(context.Background()))

	active, err := a.ProviderAdmin.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xendit", active.ActiveProvider)

	report, err := a.Reconcile.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestNew_RejectsBadEncryptionKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Service.EncryptionKey = "not-hex"

	_, err := New(cfg, zap.NewNop())

	assert.Error(t, err)
}
