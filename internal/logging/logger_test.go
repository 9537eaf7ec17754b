package logging

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tgienger/deck/internal/config"
)

func TestNewLoggerCachesPerComponent(t *testing.T) {
	SetOutput(io.Discard)

	a := NewLogger("cache-test")
	b := NewLogger("cache-test")
	c := NewLogger("cache-test-other")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "cache-test", a.Data["component"])
}

func TestConfigureLevelAndFormat(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "")
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(config.LoggingConfig{Level: "warn", Format: "json"})
	defer Configure(config.Default().Logging)

	log := NewLogger("json-test")
	assert.Equal(t, logrus.WarnLevel, log.Logger.GetLevel())

	log.Info("hidden")
	log.WithField("id", "c1").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"id":"c1"`)
	assert.Contains(t, buf.String(), `"component":"json-test"`)
}

func TestEnvLevelWins(t *testing.T) {
	SetOutput(io.Discard)
	t.Setenv(config.EnvLogLevel, "debug")
	Configure(config.LoggingConfig{Level: "error"})
	defer Configure(config.Default().Logging)

	assert.Equal(t, logrus.DebugLevel, NewLogger("env-test").Logger.GetLevel())
}
