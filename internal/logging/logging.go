package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pathguard/internal/config"
)

const logFile = "pathguard.log"

// New creates the process logger from configuration.
// Verbose logging goes to stderr; logging.dir adds a rotated pathguard.log.
// With neither, log output is discarded.
func New(cfg *config.Config) *log.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, stderr io.Writer) *log.Logger {
	if cfg == nil {
		cfg = config.Default()
	}

	var writers []io.Writer
	if cfg.Logging.Verbose {
		writers = append(writers, stderr)
	}

	if cfg.Logging.Dir != "" {
		if f := openLogFile(cfg.Logging.Dir, cfg.Logging.RotationDays, stderr); f != nil {
			writers = append(writers, f)
		}
	}

	if len(writers) == 0 {
		return log.New(io.Discard, "", 0)
	}
	return log.New(io.MultiWriter(writers...), "", log.LstdFlags|log.Lmicroseconds)
}

func openLogFile(dir string, rotationDays int, stderr io.Writer) *os.File {
	fallback := log.New(stderr, "", log.LstdFlags)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fallback.Printf("failed to ensure log directory %s: %v", dir, err)
		return nil
	}

	filePath := filepath.Join(dir, logFile)
	if rotationDays <= 0 {
		rotationDays = 30 // default
	}
	rotateLogsIfNeeded(filePath, rotationDays, fallback)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fallback.Printf("failed to open log file %s: %v", filePath, err)
		return nil
	}
	return f
}

// rotateLogsIfNeeded rotates the log file once it is older than the specified days
func rotateLogsIfNeeded(logPath string, rotationDays int, fallback *log.Logger) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			fallback.Printf("failed to rotate log file: %v", err)
			return
		}
	}

	cleanupOldLogs(logPath, rotationDays, fallback)
}

// cleanupOldLogs removes rotated log files older than rotation days
func cleanupOldLogs(logPath string, rotationDays int, fallback *log.Logger) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				fallback.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
