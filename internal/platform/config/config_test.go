package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eldcore/internal/hos/regulation"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "hos.violations", cfg.Kafka.ViolationsTopic)
	assert.Equal(t, 5*time.Second, cfg.Coordinator.PersistTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HOS_ADDR", ":9090")
	t.Setenv("HOS_KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("HOS_PERSIST_TIMEOUT", "250ms")
	t.Setenv("HOS_REQUEST_TIMEOUT", "2s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Coordinator.PersistTimeout)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("HOS_PERSIST_TIMEOUT", "soon")
	t.Setenv("HOS_NOTIFY_BUFFER", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOS_PERSIST_TIMEOUT")
	assert.Contains(t, err.Error(), "HOS_NOTIFY_BUFFER")
}

func TestLoadRuleSet(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := LoadRuleSet("")
		require.NoError(t, err)
		assert.Equal(t, regulation.Default(), rules)
	})

	t.Run("file overrides selected limits", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("driving_limit: 10h\n"), 0o600))

		rules, err := LoadRuleSet(path)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Hour, rules.DrivingLimit.Std())
		assert.Equal(t, regulation.Default().DutyWindow, rules.DutyWindow)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadRuleSet(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
