package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Reset.TokenExpiry)
	assert.Equal(t, 60*time.Minute, cfg.Reset.RateLimitWindow)
	assert.Equal(t, 5, cfg.Reset.RateLimitMax)
	assert.Equal(t, 8, cfg.Reset.PasswordMinLen)
	assert.Equal(t, 128, cfg.Reset.PasswordMaxLen)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("RESET_TOKEN_EXPIRY", "5m")
	t.Setenv("RESET_RATE_LIMIT_MAX", "3")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Reset.TokenExpiry)
	assert.Equal(t, 3, cfg.Reset.RateLimitMax)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
}

func TestResetConfig_Validate(t *testing.T) {
	valid := ResetConfig{
		TokenExpiry:     30 * time.Minute,
		RateLimitWindow: time.Hour,
		RateLimitMax:    5,
		PasswordMinLen:  8,
		PasswordMaxLen:  128,
	}
	assert.NoError(t, valid.Validate())

	noExpiry := valid
	noExpiry.TokenExpiry = 0
	assert.Error(t, noExpiry.Validate())

	badBounds := valid
	badBounds.PasswordMaxLen = 4
	assert.Error(t, badBounds.Validate())

	noCeiling := valid
	noCeiling.RateLimitMax = 0
	assert.Error(t, noCeiling.Validate())
}
