// ABOUTME: Log file sink used while a full-screen view owns the terminal
// ABOUTME: Keeps slog output from tearing the progress display

package debuglog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	logFile *os.File
	mu      sync.Mutex
)

// Open opens (or creates) debug.log under dir for appending and returns it
// as the writer to hand to the logger. An empty dir discards output.
func Open(dir string) (io.Writer, error) {
	mu.Lock()
	defer mu.Unlock()

	if dir == "" {
		return io.Discard, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return f, nil
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
