package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "requests", cfg.DynamoTables.Requests)
	assert.Equal(t, "kapon_schedules", cfg.DynamoTables.Schedules)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.SMSEnabled)
	assert.Equal(t, 3, cfg.NotifyMaxRetries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://taara.ph,https://admin.taara.ph")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.SMSEnabled)
	assert.Equal(t, []string{"https://taara.ph", "https://admin.taara.ph"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.RedisDB)
}
