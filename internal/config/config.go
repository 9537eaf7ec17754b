package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/tgienger/deck/internal/errors"
)

// Environment variables that override the config file
const (
	EnvAPIURL   = "DECK_API_URL"
	EnvLogLevel = "DECK_LOG_LEVEL"
	EnvDataDir  = "DECK_DATA_DIR"
)

// Config is the client configuration
type Config struct {
	API     APIConfig     `toml:"api"`
	Socket  SocketConfig  `toml:"socket"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig locates the REST collaborator
type APIConfig struct {
	Origin   string   `toml:"origin"`
	BasePath string   `toml:"base_path"`
	Timeout  Duration `toml:"timeout"`
}

// BaseURL joins origin and base path
func (c APIConfig) BaseURL() string {
	return strings.TrimRight(c.Origin, "/") + "/" + strings.Trim(c.BasePath, "/")
}

// SocketConfig locates the push channel
type SocketConfig struct {
	Namespace string `toml:"namespace"`
}

// StorageConfig locates the local database
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig controls the logrus sinks
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`
}

// Duration decodes "10s" style strings from TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			Origin:   "http://localhost:3000",
			BasePath: "/api",
			Timeout:  Duration{10 * time.Second},
		},
		Socket: SocketConfig{Namespace: "/commitments"},
		Storage: StorageConfig{
			Path: filepath.Join(DataDir(), "deck.db"),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path over the defaults. An empty path means the default
// location; a missing default file is not an error. A .env file in the working directory is
// loaded first so that DECK_* variables can be kept next to a project.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
				WithDetail("path", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config").
			WithDetail("path", path)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.Origin = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.API.Origin == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "api.origin is required")
	}
	if !strings.HasPrefix(c.API.Origin, "http://") && !strings.HasPrefix(c.API.Origin, "https://") {
		return errors.New(errors.ErrCodeConfigInvalid, "api.origin must be an http(s) URL").
			WithDetail("origin", c.API.Origin)
	}
	if c.API.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "api.timeout must not be negative")
	}
	if c.Storage.Path == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "storage.path is required")
	}
	return nil
}

// Encode renders the config as TOML
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/deck/config.toml
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "deck", "config.toml")
}

// DataDir returns the directory for the database and logs
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "deck")
}
