package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWith(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load()
}

func TestLoad_RejectsEmptyJWTSecretInProduction(t *testing.T) {
	_, err := loadWith(t, map[string]string{"APP_ENV": "production", "JWT_SECRET": ""})
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_AllowsEmptyJWTSecretInDevelopment(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{"APP_ENV": "development", "JWT_SECRET": ""})
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoad_ReadsUndefaultedKeysFromEnv(t *testing.T) {
	cfg, err := loadWith(t, map[string]string{
		"APP_ENV":    "production",
		"JWT_SECRET": "s3cret",
		"SMTP_HOST":  "smtp.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "Europe/Istanbul", cfg.FarmTimezone)
}

func TestValidate_RejectsUnknownTimezone(t *testing.T) {
	cfg := &Config{Env: "development", FarmTimezone: "Mars/Olympus"}
	assert.Error(t, cfg.Validate())
}
