// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file, a .env file,
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// JWTSecret signs session tokens.
	JWTSecret string `env:"JWT_SECRET"`

	// SendGridAPIKey enables email delivery. Empty logs emails instead.
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`

	// MailFrom is the sender address of every notification.
	MailFrom string `env:"MAIL_FROM"`

	LogLevel string `env:"LOG_LEVEL"`

	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// SessionRetention is the age after which session tokens are pruned.
	// Zero disables pruning.
	SessionRetention Duration `env:"SESSION_RETENTION"`
	PruneInterval    Duration `env:"PRUNE_INTERVAL"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration written as "90s" or "1h" in JSON, env, and flags.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	return d.Set(string(b))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// dotenvPath is the optional .env file merged into the process environment.
var dotenvPath = ".env"

// ParseArgs builds Options from args (without the program name).
//
// Sources are applied lowest first: flag defaults, the JSON config file, the
// .env file and process environment, and finally flags given explicitly on
// the command line.
func ParseArgs(args []string) (*Options, error) {
	opts := &Options{PruneInterval: Duration{time.Hour}}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.JWTSecret, "s", "", "session token signing secret")
	fs.StringVar(&opts.MailFrom, "mail-from", "radek.fr@email.cz", "notification sender address")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level")
	fs.StringVar(&opts.TLSCertFile, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.TLSKeyFile, "tls-key", "", "TLS key file")
	fs.Var(&opts.SessionRetention, "session-retention", "prune session tokens older than this (0 disables)")
	fs.Var(&opts.PruneInterval, "prune-interval", "how often to prune session tokens")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	_, configSet := explicit["config"]
	if _, ok := explicit["c"]; ok {
		configSet = true
	}
	if configPath := os.Getenv("CONFIG"); configPath != "" && !configSet {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			data, err := os.ReadFile(opts.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, opts); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// Validate reports configuration that the server cannot start with.
func (o *Options) Validate() error {
	if o.JWTSecret == "" {
		return errors.New("config: JWT secret is required (-s or JWT_SECRET)")
	}
	if (o.TLSCertFile == "") != (o.TLSKeyFile == "") {
		return errors.New("config: TLS needs both a certificate and a key")
	}
	if o.SessionRetention.Duration < 0 {
		return errors.New("config: session retention must not be negative")
	}
	if o.SessionRetention.Duration > 0 && o.PruneInterval.Duration <= 0 {
		return errors.New("config: prune interval must be positive when retention is set")
	}
	return nil
}
