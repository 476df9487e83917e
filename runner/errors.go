package runner

import "fmt"

// Kind classifies why a command failed.
type Kind string

const (
	// KindExit means the command ran and returned a non-zero exit status
	KindExit Kind = "non-zero-exit"

	// KindNotFound means the command binary could not be started
	KindNotFound Kind = "not-found"

	// KindTimeout means a bounded wait expired before the command finished.
	// Readiness timeouts are reported with this kind and are treated the
	// same as any other command failure.
	KindTimeout Kind = "timeout"
)

// CommandError is returned for every failed external command. The default
// propagation policy is to abort the entire run; there is no automatic
// retry anywhere.
type CommandError struct {
	// Message is the human-readable failure message supplied by the caller
	Message string

	// Command is the literal command line that failed
	Command string

	Kind     Kind
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: command timed out: %s", e.Message, e.Command)
	case KindNotFound:
		return fmt.Sprintf("%s: command not found: %s", e.Message, e.Command)
	default:
		return fmt.Sprintf("%s: exit status %d: %s", e.Message, e.ExitCode, e.Command)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
