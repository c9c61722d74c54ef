package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. ROCKET_API_TIMEOUT=5s.
	EnvPrefix = "ROCKET"

	// FileName is the configuration file name searched for when no path is
	// given, without its extension.
	FileName = "rocket"
)

// ErrConfigNotFound is returned when an explicitly requested file does not
// exist.
var ErrConfigNotFound = errors.New("config file not found")

// Loader reads the configuration from defaults, an optional YAML file and
// ROCKET_* environment variables, in increasing order of precedence.
type Loader struct {
	path   string
	used   string
	logger zerolog.Logger
}

// NewLoader creates a loader for path. An empty path searches for rocket.yaml
// in the working directory and the user configuration directory.
func NewLoader(path string, logger zerolog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: logger.With().Str("component", "config-loader").Logger(),
	}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seeding viper with the marshalled defaults registers every key, which
	// AutomaticEnv needs to pick up overrides for keys absent from the file.
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if l.path != "" {
		if _, err := os.Stat(l.path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, l.path)
			}
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		v.SetConfigFile(l.path)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range SearchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		l.logger.Debug().Msg("No config file found, using defaults")
	}
	l.used = v.ConfigFileUsed()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("file", l.used).
		Str("base_url", cfg.API.BaseURL).
		Str("store", cfg.Store.Path).
		Msg("Configuration loaded")

	return &cfg, nil
}

// ConfigFile returns the file read by the last Load, or "" when only defaults
// and the environment were used.
func (l *Loader) ConfigFile() string {
	if l.used != "" {
		return l.used
	}
	return l.path
}

// SearchPaths lists the directories searched for rocket.yaml.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "rocketscience"))
	}
	return paths
}

// DefaultPath is where `rocket config init` writes when no path is given.
func DefaultPath() string {
	return FileName + ".yaml"
}
