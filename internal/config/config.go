// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/obfuscate"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ACCOUNTS_"

// MinSecretKeyLength is the shortest accepted signing secret.
const MinSecretKeyLength = 32

// Default obfuscation parameters. Production deployments set their own.
const (
	DefaultOptimusPrime   uint64 = 1580030173
	DefaultOptimusInverse uint64 = 2884772851557769355
	DefaultOptimusRandom  uint64 = 1163945558
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	App      AppConfig
	Auth     AuthConfig
	Optimus  OptimusConfig
	SMTP     SMTPConfig
}

type TLSConfig struct {
	Mode     string // auto, manual, off
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// AppConfig describes the client app that serves confirmation pages.
type AppConfig struct {
	BaseURL     string
	CORSOrigins []string
}

// AuthConfig holds the token signing secret and lifetimes.
type AuthConfig struct {
	SecretKey         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	SignupTokenExpiry time.Duration
}

// OptimusConfig holds the id obfuscation parameters.
type OptimusConfig struct {
	Prime   uint64
	Inverse uint64
	Random  uint64
}

// Codec returns the obfuscation codec for the parameters.
func (o OptimusConfig) Codec() obfuscate.Codec {
	return obfuscate.New(o.Prime, o.Inverse, o.Random)
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether an SMTP server is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		App: AppConfig{
			BaseURL:     cmd.String("app-base-url"),
			CORSOrigins: cmd.StringSlice("cors-origins"),
		},
		Auth: AuthConfig{
			SecretKey:         cmd.String("secret-key"),
			AccessTokenTTL:    cmd.Duration("access-token-ttl"),
			RefreshTokenTTL:   cmd.Duration("refresh-token-ttl"),
			SignupTokenExpiry: cmd.Duration("signup-token-expiry"),
		},
		Optimus: OptimusConfig{
			Prime:   cmd.Uint64("optimus-prime"),
			Inverse: cmd.Uint64("optimus-inverse"),
			Random:  cmd.Uint64("optimus-random"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applyAppDefaults(cfg)

	return cfg
}

// applyAppDefaults falls back to the API's own URL for the app and lets the
// app origin through CORS.
func applyAppDefaults(cfg *Config) {
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = cfg.Server.BaseURL
	}
	cfg.App.BaseURL = strings.TrimSuffix(cfg.App.BaseURL, "/")
	if len(cfg.App.CORSOrigins) == 0 {
		cfg.App.CORSOrigins = []string{cfg.App.BaseURL}
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.SecretKey) < MinSecretKeyLength {
		errs = append(errs, fmt.Errorf("secret key must be at least %d characters", MinSecretKeyLength))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 || c.Auth.SignupTokenExpiry <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Auth.AccessTokenTTL > c.Auth.RefreshTokenTTL {
		errs = append(errs, errors.New("access token lifetime must not exceed refresh token lifetime"))
	}
	if err := c.Optimus.Codec().Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.EqualFold(c.TLS.Mode, "manual") && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("manual TLS mode requires a certificate and a key file"))
	}
	if c.SMTP.Enabled() && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP from address is required"))
	}

	return errors.Join(errs...)
}

// UseTLS reports whether the server terminates TLS itself.
func (c *Config) UseTLS() bool {
	return shouldUseTLS(strings.ToLower(c.TLS.Mode), c.TLS.CertFile, c.TLS.KeyFile)
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	scheme := "http"
	if cfg.UseTLS() {
		scheme = "https"
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, certFile, keyFile string) bool {
	switch mode {
	case "off":
		return false
	case "manual":
		return true
	default: // "auto" or empty
		return certFile != "" && keyFile != ""
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func sources(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(EnvPrefix+env), toml.TOML(key, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: sources("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL of the API",
			Sources: sources("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN",
			Sources: sources("DATABASE_DSN", "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, manual, off)",
			Sources: sources("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file",
			Sources: sources("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file",
			Sources: sources("TLS_KEY_FILE", "tls.key_file"),
		},
		// App flags
		&cli.StringFlag{
			Name:    "app-base-url",
			Usage:   "Base URL of the client app used in confirmation links (defaults to base_url)",
			Sources: sources("APP_BASE_URL", "app.base_url"),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Usage:   "Origins allowed to call the API (defaults to app_base_url)",
			Sources: sources("CORS_ORIGINS", "app.cors_origins"),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "secret-key",
			Usage:   "Secret used to sign access and refresh tokens",
			Sources: sources("SECRET_KEY", "auth.secret_key"),
		},
		&cli.DurationFlag{
			Name:    "access-token-ttl",
			Value:   15 * time.Minute,
			Usage:   "Lifetime of access tokens",
			Sources: sources("ACCESS_TOKEN_TTL", "auth.access_token_ttl"),
		},
		&cli.DurationFlag{
			Name:    "refresh-token-ttl",
			Value:   7 * 24 * time.Hour,
			Usage:   "Lifetime of refresh tokens",
			Sources: sources("REFRESH_TOKEN_TTL", "auth.refresh_token_ttl"),
		},
		&cli.DurationFlag{
			Name:    "signup-token-expiry",
			Value:   24 * time.Hour,
			Usage:   "How long an email confirmation link stays valid",
			Sources: sources("SIGNUP_TOKEN_EXPIRY", "auth.signup_token_expiry"),
		},
		// Optimus flags
		&cli.Uint64Flag{
			Name:    "optimus-prime",
			Value:   DefaultOptimusPrime,
			Usage:   "Prime used to obfuscate public ids",
			Sources: sources("OPTIMUS_PRIME", "optimus.prime"),
		},
		&cli.Uint64Flag{
			Name:    "optimus-inverse",
			Value:   DefaultOptimusInverse,
			Usage:   "Modular inverse of optimus-prime",
			Sources: sources("OPTIMUS_INVERSE", "optimus.inverse"),
		},
		&cli.Uint64Flag{
			Name:    "optimus-random",
			Value:   DefaultOptimusRandom,
			Usage:   "Random XOR mask for public ids",
			Sources: sources("OPTIMUS_RANDOM", "optimus.random"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (confirmation links are logged when empty)",
			Sources: sources("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: sources("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address of outgoing emails",
			Sources: sources("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Accounts",
			Usage:   "Sender name of outgoing emails",
			Sources: sources("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: sources("SMTP_TLS", "smtp.tls"),
		},
	}
}
