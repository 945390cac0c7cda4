package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	err := LoadConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, "openauth", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, "openauth", cfg.TOTP.Issuer)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAUTH_SERVER_PORT", "9999")
	t.Setenv("OPENAUTH_OTP_EXPIRY", "90s")
	t.Setenv("OPENAUTH_DATABASE_DRIVER", "postgres")

	cfg := &Config{}
	err := LoadConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.OTP.Expiry)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}
