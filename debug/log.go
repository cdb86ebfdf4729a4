package debug

import (
	"os"
	"path/filepath"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	file    *os.File
	logger  *charmlog.Logger
	enabled bool
)

// Enable starts debug logging to ~/.config/keycoach/debug.log.
func Enable() error {
	homeDir, _ := os.UserHomeDir()
	dir := filepath.Join(homeDir, ".config", "keycoach")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return EnableTo(filepath.Join(dir, "debug.log"))
}

// EnableTo routes debug logging to an explicit path (used by the --log flag).
func EnableTo(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	file = f
	logger = charmlog.NewWithOptions(f, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	enabled = true

	logger.Info("debug logging started")
	return nil
}

// Disable stops debug logging.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = nil
	enabled = false
}

// Log writes a categorized message to the debug log.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || logger == nil {
		return
	}
	logger.With("cat", category).Infof(format, args...)
}

// Warn writes a categorized warning to the debug log.
func Warn(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || logger == nil {
		return
	}
	logger.With("cat", category).Warnf(format, args...)
}
