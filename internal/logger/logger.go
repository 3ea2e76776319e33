// Package logger provides verbose logging for gitscope.
// Nothing is written unless verbose mode is enabled with the --verbose flag,
// which keeps terminal output clean for normal CLI and TUI use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// ToFile appends verbose logs to path until the returned restore func is
// called, which closes the file and puts back the previous writer. The TUI
// uses it so log lines do not tear the alternate screen.
func ToFile(path string) (restore func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	prev := output
	output = f
	mu.Unlock()

	return func() {
		mu.Lock()
		output = prev
		mu.Unlock()
		_ = f.Close()
	}, nil
}

func logf(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { logf("DEBUG", format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { logf("INFO", format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { logf("WARN", format, args...) }

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) { logf("ERROR", format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Redact masks a secret for log output, keeping only its last four characters.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
