package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/errors"
)

func TestLoadMissingDefaultUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.API.Origin)
	assert.Equal(t, "http://localhost:3000/api", cfg.API.BaseURL())
	assert.Equal(t, 10*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, "/commitments", cfg.Socket.Namespace)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
origin = "https://pm.example.com"
timeout = "3s"

[storage]
path = "/tmp/deck-test.db"

[logging]
level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv(EnvAPIURL, "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://pm.example.com/api", cfg.API.BaseURL())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, "/tmp/deck-test.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)

	t.Setenv(EnvAPIURL, "http://override:9000")
	t.Setenv(EnvLogLevel, "debug")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000/api", cfg.API.BaseURL())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[api\norigin="), 0644))
	_, err = Load(bad)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	ftp := filepath.Join(t.TempDir(), "ftp.toml")
	require.NoError(t, os.WriteFile(ftp, []byte("[api]\norigin = \"ftp://x\"\n"), 0644))
	_, err = Load(ftp)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://localhost:3000")
	assert.Contains(t, string(data), "10s")
}
