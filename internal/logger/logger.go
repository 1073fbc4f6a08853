// Package logger provides verbose logging for Synapse.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr so users can follow context arbitration,
// cache decisions and navigation retries as they happen.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
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

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write("DEBUG", "", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write("INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write("WARN", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Scope is a logger that prefixes every line with a component name.
type Scope string

// Debug prints a scoped debug message.
func (s Scope) Debug(format string, args ...any) {
	write("DEBUG", string(s), format, args...)
}

// Info prints a scoped informational message.
func (s Scope) Info(format string, args ...any) {
	write("INFO", string(s), format, args...)
}

// Warn prints a scoped warning.
func (s Scope) Warn(format string, args ...any) {
	write("WARN", string(s), format, args...)
}

func write(level, scope, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	stamp := now().Format("15:04:05.000")
	if scope == "" {
		fmt.Fprintf(output, "%s [%s] "+format+"\n", append([]any{stamp, level}, args...)...)
		return
	}
	fmt.Fprintf(output, "%s [%s] %s: "+format+"\n", append([]any{stamp, level, scope}, args...)...)
}
