package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Empty(t, cfg.Notification.KafkaBrokers)
	assert.Equal(t, 1024, cfg.Notification.QueueSize)
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("STORAGE_DRIVER", "REDIS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notification.KafkaBrokers)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
}

func TestLoadRejectsInvalidDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestRequestTimeoutDisabled(t *testing.T) {
	assert.Zero(t, AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
