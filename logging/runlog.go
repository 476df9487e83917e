package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// RunLog is the single append-only log file owned by one run.
//
// Every executed command line and its combined output is appended in
// execution order. There is exactly one writer per run, so no locking
// is needed.
type RunLog struct {
	path string
	file *os.File
}

// OpenRunLog creates the log file for a run, creating the directory if
// needed. Run identifiers have second granularity, so an existing file
// means a concurrent run claimed the same identifier; that collision is
// an error rather than two runs sharing one log.
func OpenRunLog(dir string, runID string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, runID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("run %s already has a log at %s: %w", runID, path, err)
		}
		return nil, fmt.Errorf("failed to open run log %s: %w", path, err)
	}

	return &RunLog{path: path, file: file}, nil
}

// Path returns the log file location.
func (l *RunLog) Path() string {
	return l.path
}

// Printf appends a formatted line with a timestamp prefix.
func (l *RunLog) Printf(format string, args ...any) {
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

// Command appends the literal command line before execution, for audit.
func (l *RunLog) Command(cmdline string) {
	l.Printf("$ %s", cmdline)
}

// Writer exposes the underlying file for command output streaming.
func (l *RunLog) Writer() io.Writer {
	return l.file
}

// Close flushes and closes the log file.
func (l *RunLog) Close() error {
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
