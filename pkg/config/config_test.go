package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TESTING", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "")
	t.Setenv("SSE_QUEUE_SIZE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Testing)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 64, cfg.StreamQueueSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TESTING", "1")
	t.Setenv("REDIS_URL", "redis://broker:6380/2")
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "5s")
	t.Setenv("SSE_QUEUE_SIZE", "8")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Testing)
	assert.Equal(t, "redis://broker:6380/2", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 8, cfg.StreamQueueSize)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "soon")
	t.Setenv("SSE_QUEUE_SIZE", "-3")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 64, cfg.StreamQueueSize)
}

func TestInitDBRequiresPostgresOutsideTesting(t *testing.T) {
	_, err := InitDB(&Config{}, logrus.New())
	assert.Error(t, err)
}

func TestInitDBTestingUsesSQLite(t *testing.T) {
	db, err := InitDB(&Config{Testing: true, SQLiteDSN: "file:config_test?mode=memory&cache=shared"}, logrus.New())
	require.NoError(t, err)
	defer db.CloseDB()

	assert.Equal(t, "sqlite", db.SQL.Dialector.Name())
}

func TestInitDBLogsQueryErrorsThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := InitDB(&Config{Testing: true, SQLiteDSN: "file:config_log_test?mode=memory&cache=shared"}, log)
	require.NoError(t, err)
	defer db.CloseDB()

	assert.Error(t, db.SQL.Exec("SELECT * FROM missing_table").Error)
	assert.Contains(t, buf.String(), "missing_table")
	assert.Contains(t, buf.String(), `"level":"info"`)
}
