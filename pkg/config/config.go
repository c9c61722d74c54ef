package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscience/rocketscience/pkg/remote"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/stores"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// Config is the rocketscience configuration file.
type Config struct {
	API       APIConfig             `yaml:"api" mapstructure:"api"`
	Store     StoreConfig           `yaml:"store" mapstructure:"store"`
	Sync      SyncConfig            `yaml:"sync" mapstructure:"sync"`
	Filter    spacex.FilterCriteria `yaml:"filter" mapstructure:"filter"`
	Telemetry telemetry.Config      `yaml:"telemetry" mapstructure:"telemetry" validate:"-"`
	Server    ServerConfig          `yaml:"server" mapstructure:"server"`
}

// APIConfig configures the SpaceX API client.
type APIConfig struct {
	// BaseURL is the API root, without a trailing /info or /launches.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent overrides the default "rocketscience/<version>".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the local SQLite cache.
type StoreConfig struct {
	// Path is the database file, or ":memory:".
	Path string `yaml:"path" mapstructure:"path" validate:"required"`

	MaxOpenConns int           `yaml:"max_open_conns" mapstructure:"max_open_conns" validate:"gte=0"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout" validate:"gte=0"`

	// PollInterval is how often writes by other processes are looked for.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gte=0"`
}

// SyncConfig tunes the sync coordinator.
type SyncConfig struct {
	// FollowCache keeps forwarding cache snapshots after a recovered failure.
	FollowCache bool `yaml:"follow_cache" mapstructure:"follow_cache"`

	// Coalesce shares one in-flight fetch among concurrent requests.
	Coalesce bool `yaml:"coalesce" mapstructure:"coalesce"`

	// PersistTimeout bounds each cache write. Zero means no bound.
	PersistTimeout time.Duration `yaml:"persist_timeout" mapstructure:"persist_timeout" validate:"gte=0"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address" mapstructure:"listen_address" validate:"required,hostname_port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration.
func Default() *Config {
	tel := telemetry.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL: remote.DefaultBaseURL,
			Timeout: remote.DefaultTimeout,
		},
		Store: StoreConfig{
			Path:         "rocketscience.db",
			MaxOpenConns: 4,
			BusyTimeout:  5 * time.Second,
			PollInterval: stores.DefaultPollInterval,
		},
		Sync: SyncConfig{
			FollowCache: true,
		},
		Filter:    spacex.FilterCriteria{Years: []string{}},
		Telemetry: *tel,
		Server: ServerConfig{
			ListenAddress:   "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks field constraints and the rules spanning several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %s", describe(verrs))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid configuration: api.base_url must be an http or https URL, got %q", c.API.BaseURL)
	}

	if c.Sync.PersistTimeout > 0 && c.Sync.PersistTimeout < c.Store.BusyTimeout {
		return fmt.Errorf("invalid configuration: sync.persist_timeout (%s) is shorter than store.busy_timeout (%s)",
			c.Sync.PersistTimeout, c.Store.BusyTimeout)
	}

	if err := c.Filter.Validate(); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: telemetry: %w", err)
	}

	return nil
}

// describe renders validation errors as "field: rule" pairs.
func describe(verrs validator.ValidationErrors) string {
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return msg
}
