package health

import (
	"fmt"
	"time"
)

// State represents the coarse liveness state of a monitored connection.
type State string

const (
	// StateConnected means the last probe completed successfully.
	StateConnected State = "connected"

	// StateDisconnected means no connection handle is currently attached.
	StateDisconnected State = "disconnected"

	// StateError means the last probe failed; see ConnectionStatus.Error.
	StateError State = "error"
)

// ConnectionStatus is the outcome of a single liveness assessment.
// For StateError, Error carries the probe failure message.
type ConnectionStatus struct {
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// Connected returns a ConnectionStatus for a healthy connection.
func Connected() ConnectionStatus {
	return ConnectionStatus{State: StateConnected}
}

// Disconnected returns a ConnectionStatus for a missing connection handle.
func Disconnected() ConnectionStatus {
	return ConnectionStatus{State: StateDisconnected}
}

// Errored returns a ConnectionStatus wrapping a probe failure message.
func Errored(message string) ConnectionStatus {
	return ConnectionStatus{State: StateError, Error: message}
}

// String returns a human-readable rendering of the status.
func (s ConnectionStatus) String() string {
	if s.State == StateError {
		return fmt.Sprintf("error: %s", s.Error)
	}
	return string(s.State)
}

// ConnectionEvent is published by the ConnectionMonitor after each tick.
type ConnectionEvent struct {
	Status    ConnectionStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
}

// HealthEvent is published by the DatabaseHealthChecker after each tick.
// Metrics is a value snapshot taken at publish time; it never aliases the
// checker's live state.
type HealthEvent struct {
	Metrics   HealthMetrics `json:"metrics"`
	Timestamp time.Time     `json:"timestamp"`
}

// Logger is the narrow logging interface accepted by monitor components.
// It is compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
