package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "admin@hms.com", cfg.Auth.AdminEmail)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, time.Duration(0), cfg.Store.Latency)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxBytes)
	assert.False(t, cfg.Redis.Enabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_LATENCY", "300ms")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("JWT_EXPIRATION", "not-a-duration")
	cfg := fromViper(v)

	assert.Equal(t, 300*time.Millisecond, cfg.Store.Latency)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}
