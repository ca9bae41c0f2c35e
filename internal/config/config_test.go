package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_PORT", "DATABASE_URL", "JWT_SECRET", "JWT_TOKEN_TTL",
		"RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "4400", cfg.Server.Port)
	assert.Equal(t, ":4400", cfg.Addr())
	assert.Equal(t, 72*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "loginLogout", cfg.Database.MongoDatabase)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_TOKEN_TTL", "3m")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("AUTH_GENERIC_LOGIN_ERRORS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Minute, cfg.JWT.TokenTTL)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.True(t, cfg.Auth.GenericLoginErrors)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int32(5), cfg.Database.MaxConns)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := FromEnv()
		c.JWT.Secret = "s3cret"
		c.JWT.TokenTTL = time.Hour
		c.Database.URL = "memory://"
		c.RateLimit.Max = 100
		c.RateLimit.Window = time.Minute
		c.Auth.BcryptCost = 10
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "missing database", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "DATABASE_URL is required"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit.Max = 0 }, wantErr: "RATE_LIMIT_MAX"},
		{name: "bcrypt cost too high", mutate: func(c *Config) { c.Auth.BcryptCost = 99 }, wantErr: "BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
