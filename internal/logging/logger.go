package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/config"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	settings  = config.Default().Logging
	output    io.Writer
)

// Configure sets the logging config used by loggers created afterwards.
// Already created loggers keep their settings.
func Configure(cfg config.LoggingConfig) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	settings = cfg
}

// SetOutput forces every logger created afterwards to write to w. Tests use io.Discard.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	output = w
	for _, entry := range loggers {
		entry.Logger.SetOutput(w)
	}
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// One logger is kept per component.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	levelStr := "info"
	if os.Getenv(config.EnvLogLevel) != "" {
		levelStr = os.Getenv(config.EnvLogLevel)
	} else if settings.Level != "" {
		levelStr = settings.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch settings.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	}

	if output != nil {
		logger.SetOutput(output)
	} else {
		logger.SetOutput(sinks(logger, component))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// sinks opens the log file and decides whether stderr gets structured output.
// The TUI owns the terminal, so stderr is only used when it is not interactive or in debug.
func sinks(logger *logrus.Logger, component string) io.Writer {
	var writers []io.Writer

	logFilePath := settings.File
	if logFilePath == "" {
		dateStr := time.Now().Format("2006-01-02")
		logFilePath = filepath.Join(config.DataDir(), "logs", fmt.Sprintf("%s-%s.log", component, dateStr))
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err == nil {
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			writers = append(writers, file)
		}
	}

	isDebug := logger.GetLevel() >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if isDebug || !isInteractive {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}
