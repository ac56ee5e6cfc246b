// Package config loads the settings for the indieauth command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
)

// EnvPrefix is prepended to the name of every environment variable.
const EnvPrefix = "INDIEAUTH_"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageValkey = "valkey"
)

// Channel kinds.
const (
	ChannelLocal  = "local"
	ChannelValkey = "valkey"
)

type Config struct {
	Log      Log      `yaml:"log" envPrefix:"LOG_"`
	ClientID string   `yaml:"clientId" env:"CLIENT_ID"`
	Storage  Storage  `yaml:"storage" envPrefix:"STORAGE_"`
	Channel  string   `yaml:"channel" env:"CHANNEL"`
	Valkey   Valkey   `yaml:"valkey" envPrefix:"VALKEY_"`
	HTTP     HTTP     `yaml:"http" envPrefix:"HTTP_"`
	Watch    Watch    `yaml:"watch" envPrefix:"WATCH_"`
	Loopback Loopback `yaml:"loopback" envPrefix:"LOOPBACK_"`
	Web      Web      `yaml:"web" envPrefix:"WEB_"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Storage struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Path    string `yaml:"path" env:"PATH"`
}

type Valkey struct {
	Addresses []string `yaml:"addresses" env:"ADDRESSES" envSeparator:","`
	Username  string   `yaml:"username" env:"USERNAME"`
	Password  string   `yaml:"password" env:"PASSWORD"`
	Key       string   `yaml:"key" env:"KEY"`
	Channel   string   `yaml:"channel" env:"CHANNEL"`
}

type HTTP struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type Watch struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type Loopback struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type Web struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	BaseURL      string `yaml:"baseUrl" env:"BASE_URL"`
	CookieSecret string `yaml:"cookieSecret" env:"COOKIE_SECRET"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Storage: Storage{
			Backend: StorageSQLite,
			Path:    defaultStoragePath(),
		},
		Channel: ChannelLocal,
		Valkey: Valkey{
			Addresses: []string{"localhost:6379"},
		},
		HTTP: HTTP{
			Timeout: 30 * time.Second,
		},
		Watch: Watch{
			Interval: 250 * time.Millisecond,
			Timeout:  10 * time.Minute,
		},
		Loopback: Loopback{
			Addr: "127.0.0.1:0",
		},
		Web: Web{
			Addr:    "localhost:8080",
			BaseURL: "http://localhost:8080",
		},
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, "indieauth", "session.db")
}

// Load reads the YAML file at path, if path is not empty, over the defaults
// and then applies any INDIEAUTH_ environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be fixed by defaults.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case StorageMemory, StorageValkey:
	case StorageSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of memory, sqlite, valkey; got %q", c.Storage.Backend))
	}

	switch c.Channel {
	case ChannelLocal, ChannelValkey:
	default:
		errs = append(errs, fmt.Errorf("channel must be local or valkey; got %q", c.Channel))
	}

	if (c.Storage.Backend == StorageValkey || c.Channel == ChannelValkey) && len(c.Valkey.Addresses) == 0 {
		errs = append(errs, errors.New("valkey.addresses is required when using valkey"))
	}

	if c.Watch.Interval <= 0 {
		errs = append(errs, errors.New("watch.interval must be greater than zero"))
	}
	if c.Watch.Timeout < 0 {
		errs = append(errs, errors.New("watch.timeout must not be negative"))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, errors.New("http.timeout must not be negative"))
	}

	return errors.Join(errs...)
}
