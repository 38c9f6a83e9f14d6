package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "qa")
	t.Setenv("QA_SECRETKEY", "qa-user-key")
	t.Setenv("QA_JWTELEVATEDEXPIRATIONDELTA", "30m")
	t.Setenv("QA_FRONTENDBASEURL", "https://app.example.com/")
	t.Setenv("QA_RATELIMITMAXFAILURES", "3")

	conf := NewConfig()
	assert.Equal(t, "QA", conf.Env)
	assert.False(t, conf.Debug)
	assert.Equal(t, "qa-user-key", conf.SecretKey)
	assert.Equal(t, 30*time.Minute, conf.Server.JWTElevatedExpirationDelta)
	assert.Equal(t, 24*time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, "https://app.example.com", conf.FrontendBaseURL)
	assert.Equal(t, 3, conf.RateLimit.MaxFailures)
	assert.Equal(t, "noreply@localhost", conf.DefaultFromEmail.Address)
}

func TestConfig_Validate(t *testing.T) {
	prod := func(edit func(c *Config)) *Config {
		c := NewTestConfig()
		c.Env = "PROD"
		edit(c)
		return c
	}
	tests := []struct {
		name    string
		conf    *Config
		wantErr string
	}{
		{name: "test config", conf: NewTestConfig()},
		{name: "prod", conf: prod(func(*Config) {})},
		{
			name:    "no app name",
			conf:    prod(func(c *Config) { c.AppName = "" }),
			wantErr: "app name must not be empty: it is the token issuer",
		},
		{
			name:    "empty key",
			conf:    prod(func(c *Config) { c.SuperadminSecretKey = "" }),
			wantErr: "signing keys must not be empty",
		},
		{
			name:    "shared key",
			conf:    prod(func(c *Config) { c.SuperadminSecretKey = c.SecretKey }),
			wantErr: "user and superadmin signing keys must differ",
		},
		{
			name:    "default key",
			conf:    prod(func(c *Config) { c.SecretKey = insecureDefaultKey }),
			wantErr: "default signing keys are not allowed in PROD",
		},
		{
			name:    "no master key",
			conf:    prod(func(c *Config) { c.MasterKey = "" }),
			wantErr: "superadmin master key and device fingerprint are required in PROD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
