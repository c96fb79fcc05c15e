package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Approval.PriorityLead)
	assert.Equal(t, 6*time.Hour, cfg.Approval.MinimumLead)
	assert.Equal(t, 15*time.Minute, cfg.Approval.StartLead)
	assert.Equal(t, time.Minute, cfg.Scheduler.ExpirePendingInterval)
	assert.False(t, cfg.Redis.Enabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "mentor")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APPROVAL_PRIORITY_LEAD", "48h")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PUBSUB", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCHEDULER_EXPIRE_BATCH_SIZE", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://mentor:pw@db:5432/mentoria?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 48*time.Hour, cfg.Approval.PriorityLead)
	assert.True(t, cfg.Redis.PubSub)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, 100, cfg.Scheduler.ExpireBatchSize, "unparsable values keep the default")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("HTTP_PORT", "0")
	t.Setenv("APPROVAL_MINIMUM_LEAD", "30h")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_PUBSUB", "true")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required in production")
	assert.Contains(t, err.Error(), "HTTP_PORT must be 1-65535")
	assert.Contains(t, err.Error(), "APPROVAL_MINIMUM_LEAD")
	assert.Contains(t, err.Error(), "REDIS_PUBSUB requires REDIS_ENABLED")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, godotenv.Write(map[string]string{"APP_NAME": "from-dotenv"}, filepath.Join(dir, ".env")))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("APP_NAME", "")
	require.NoError(t, os.Unsetenv("APP_NAME"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
