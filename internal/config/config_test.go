package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)

	_, err = tmpfile.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9091
  host: "127.0.0.1"

database:
  host: "testdb"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"

auth:
  jwtSecret: "secret"
  tokenTTL: "1h"

payment:
  webhookSecret: "whsec_test"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9091, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "testdb", cfg.Database.Host)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "whsec_test", cfg.Payment.WebhookSecret)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwtSecret: "secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 3, cfg.Auth.OTPMaxRequests)
	assert.Equal(t, int64(100*1024*1024), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, 5*time.Minute, cfg.Payment.SignatureTolerance)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 10, cfg.Queue.Prefetch)
	assert.Equal(t, "@every 30s", cfg.Scheduler.QueueDepthSpec)
	assert.Equal(t, "@every 15m", cfg.Scheduler.OTPPurgeSpec)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwtSecret: "from-file"
`)
	t.Setenv("AUTH_JWTSECRET", "from-env")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingSecret(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "jwtSecret")
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	assert.Error(t, err)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", db.DSN())

	q := QueueConfig{Host: "mq", Port: 5672, User: "guest", Password: "guest", Vhost: "/"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", q.URL())
}
