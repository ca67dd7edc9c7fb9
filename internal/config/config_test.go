// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false}, // not a real localhost
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestShouldUseTLS(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		cert     string
		key      string
		expected bool
	}{
		{"off mode", "off", "cert.pem", "key.pem", false},
		{"manual mode", "manual", "", "", true},
		{"auto mode without files", "auto", "", "", false},
		{"auto mode with files", "auto", "cert.pem", "key.pem", true},
		{"auto mode with cert only", "auto", "cert.pem", "", false},
		{"empty mode with files", "", "cert.pem", "key.pem", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldUseTLS(tt.mode, tt.cert, tt.key))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{Mode: "auto"},
			},
			expected: "http://localhost:8080",
		},
		{
			name: "manual TLS default port",
			cfg: &Config{
				Server: ServerConfig{Host: "api.example.com", Port: 443},
				TLS:    TLSConfig{Mode: "manual", CertFile: "c", KeyFile: "k"},
			},
			expected: "https://api.example.com",
		},
		{
			name: "auto TLS custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "api.example.com", Port: 8443},
				TLS:    TLSConfig{Mode: "auto", CertFile: "c", KeyFile: "k"},
			},
			expected: "https://api.example.com:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestApplyAppDefaults(t *testing.T) {
	t.Run("falls back to server URL", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{BaseURL: "http://localhost:8080"}}

		applyAppDefaults(cfg)

		assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
		assert.Equal(t, []string{"http://localhost:8080"}, cfg.App.CORSOrigins)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{BaseURL: "http://localhost:8080"},
			App: AppConfig{
				BaseURL:     "https://app.example.com/",
				CORSOrigins: []string{"https://a.example.com", "https://b.example.com"},
			},
		}

		applyAppDefaults(cfg)

		assert.Equal(t, "https://app.example.com", cfg.App.BaseURL)
		assert.Len(t, cfg.App.CORSOrigins, 2)
	})
}

func validConfig() *Config {
	return &Config{
		TLS: TLSConfig{Mode: "auto"},
		Auth: AuthConfig{
			SecretKey:         strings.Repeat("s", MinSecretKeyLength),
			AccessTokenTTL:    time.Minute,
			RefreshTokenTTL:   time.Hour,
			SignupTokenExpiry: 24 * time.Hour,
		},
		Optimus: OptimusConfig{
			Prime:   DefaultOptimusPrime,
			Inverse: DefaultOptimusInverse,
			Random:  DefaultOptimusRandom,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Auth.SecretKey = "short" }, "secret key"},
		{"zero ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }, "lifetimes must be positive"},
		{"access outlives refresh", func(c *Config) { c.Auth.AccessTokenTTL = 2 * time.Hour }, "must not exceed"},
		{"optimus mismatch", func(c *Config) { c.Optimus.Inverse = 12345 }, "inverses"},
		{"manual TLS without files", func(c *Config) { c.TLS.Mode = "manual" }, "certificate"},
		{"SMTP without sender", func(c *Config) { c.SMTP.Host = "smtp.example.com" }, "from address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	flags := Flags()

	flagNames := make(map[string]bool)
	for _, f := range flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"host", "port", "base-url", "log-level", "database-dsn", "tls-mode",
		"app-base-url", "cors-origins", "secret-key", "access-token-ttl",
		"refresh-token-ttl", "signup-token-expiry", "optimus-prime",
		"optimus-inverse", "optimus-random", "smtp-host",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format)
			assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
			assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
			assert.Equal(t, 24*time.Hour, cfg.Auth.SignupTokenExpiry)
			assert.Equal(t, DefaultOptimusPrime, cfg.Optimus.Prime)
			assert.NoError(t, cfg.Optimus.Codec().Validate())
			assert.False(t, cfg.SMTP.Enabled())

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
			assert.Equal(t, "https://app.example.com", cfg.App.BaseURL)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "./data/test.db", cfg.Database.DSN)
			assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, uint64(2), cfg.Optimus.Prime)
			assert.Equal(t, uint64(4611686018427387904), cfg.Optimus.Inverse)
			assert.Equal(t, uint64(0), cfg.Optimus.Random)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://api.example.com",
		"--app-base-url", "https://app.example.com/",
		"--log-level", "debug",
		"--database-dsn", "./data/test.db",
		"--access-token-ttl", "5m",
		"--optimus-prime", "2",
		"--optimus-inverse", "4611686018427387904",
		"--optimus-random", "0",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
