// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Duration is a time.Duration that reads from Go duration strings ("90m",
// "168h") in flags, JSON and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error { return d.UnmarshalText([]byte(s)) }

// String implements flag.Value.
func (d *Duration) String() string { return time.Duration(*d).String() }

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address" env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// LogLevel is the minimum zap level.
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// JWTSecret signs bearer tokens.
	JWTSecret string   `json:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  Duration `json:"token_ttl" env:"TOKEN_TTL"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" env:"TLS_CERT"`
	TLSKey  string `json:"tls_key" env:"TLS_KEY"`

	Mail   Mail   `json:"mail" envPrefix:"MAIL_"`
	Avatar Avatar `json:"avatar" envPrefix:"AVATAR_"`
	Limit  Limit  `json:"rate_limit" envPrefix:"RATE_LIMIT_"`

	// CleanupInterval is how often expired sessions are purged.
	CleanupInterval Duration `json:"cleanup_interval" env:"CLEANUP_INTERVAL"`

	// Config is the path to the config file.
	Config string `json:"-" env:"CONFIG"`
}

// Mail holds SMTP settings. Notifications are only logged when Host is empty.
type Mail struct {
	Host     string `json:"host" env:"HOST"`
	Port     int    `json:"port" env:"PORT"`
	Username string `json:"username" env:"USERNAME"`
	APIKey   string `json:"api_key" env:"API_KEY"`
	From     string `json:"from" env:"FROM"`
}

// Avatar holds upload limits and the stored image size.
type Avatar struct {
	MaxBytes   int64    `json:"max_bytes" env:"MAX_BYTES"`
	Extensions []string `json:"extensions" env:"EXTENSIONS" envSeparator:","`
	Width      int      `json:"width" env:"WIDTH"`
	Height     int      `json:"height" env:"HEIGHT"`
	MaxPixels  int      `json:"max_pixels" env:"MAX_PIXELS"`
}

// Limit configures per-IP rate limiting.
type Limit struct {
	Enabled bool    `json:"enabled" env:"ENABLED"`
	RPS     float64 `json:"rps" env:"RPS"`
	Burst   int     `json:"burst" env:"BURST"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// EnsureJWTSecret fills in a random secret when none is configured and
// reports whether it did so.
func (o *Options) EnsureJWTSecret() (bool, error) {
	if o.JWTSecret != "" {
		return false, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return false, fmt.Errorf("generate jwt secret: %w", err)
	}
	o.JWTSecret = hex.EncodeToString(b)
	return true, nil
}

func defaults() *Options {
	return &Options{
		Address:         "localhost:8080",
		LogLevel:        "info",
		TokenTTL:        Duration(7 * 24 * time.Hour),
		CleanupInterval: Duration(time.Hour),
		Config:          "config.json",
		Mail: Mail{
			Port:     587,
			Username: "apikey",
		},
		Avatar: Avatar{
			MaxBytes:   1_000_000,
			Extensions: []string{".jpg", ".jpeg", ".png"},
			Width:      250,
			Height:     250,
			MaxPixels:  16_000_000,
		},
		Limit: Limit{Enabled: true, RPS: 10, Burst: 20},
	}
}

// Parse reads configuration from os.Args and the process environment. It
// exits on invalid input.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseArgs builds Options from flag defaults, then the JSON config file,
// then environment variables, each layer overriding the previous one.
// A nil environ means the process environment.
func ParseArgs(args []string, environ map[string]string) (*Options, error) {
	opts := defaults()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Address, "a", opts.Address, "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", opts.DatabaseDSN, "db address")
	fs.StringVar(&opts.LogLevel, "l", opts.LogLevel, "log level")
	fs.StringVar(&opts.JWTSecret, "k", opts.JWTSecret, "jwt signing secret")
	fs.Var(&opts.TokenTTL, "ttl", "session lifetime")
	fs.StringVar(&opts.TLSCert, "tls-cert", opts.TLSCert, "TLS certificate path")
	fs.StringVar(&opts.TLSKey, "tls-key", opts.TLSKey, "TLS key path")
	fs.StringVar(&opts.Config, "config", opts.Config, "path to config file")
	fs.StringVar(&opts.Config, "c", opts.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if path := lookupEnv(environ, "CONFIG"); path != "" {
		opts.Config = path
	}
	if err := loadFile(opts); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(opts, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	normalizeExtensions(opts.Avatar.Extensions)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// validate rejects values the server cannot start or serve with.
func (o *Options) validate() error {
	switch {
	case o.TokenTTL <= 0:
		return errors.New("token ttl must be positive")
	case o.CleanupInterval <= 0:
		return errors.New("cleanup interval must be positive")
	case o.Avatar.MaxBytes <= 0:
		return errors.New("avatar max bytes must be positive")
	case o.Avatar.Width <= 0 || o.Avatar.Height <= 0:
		return fmt.Errorf("avatar size must be positive, got %dx%d", o.Avatar.Width, o.Avatar.Height)
	case o.Avatar.MaxPixels <= 0:
		return errors.New("avatar max pixels must be positive")
	case o.Limit.Enabled && (o.Limit.RPS <= 0 || o.Limit.Burst <= 0):
		return errors.New("rate limit rps and burst must be positive")
	}
	return nil
}

// loadFile overlays the JSON config file onto opts. A missing file is not an
// error.
func loadFile(opts *Options) error {
	if opts.Config == "" {
		return nil
	}
	data, err := os.ReadFile(opts.Config)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func lookupEnv(environ map[string]string, key string) string {
	if environ == nil {
		return os.Getenv(key)
	}
	return environ[key]
}

func normalizeExtensions(exts []string) {
	for i, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = e
	}
}
