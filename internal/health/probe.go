package health

import "context"

// Probe executes one trivial round trip against the current database
// connection. It is the only capability the monitoring components consume;
// connection strings, credentials and pooling are entirely the caller's
// concern.
//
// Implementations must respect context cancellation: Ping is always invoked
// with a deadline and must return promptly once the context is done.
type Probe interface {
	// Connected reports whether a connection handle is currently attached.
	// When false, the components report Disconnected without invoking Ping.
	Connected() bool

	// Ping performs a single round trip (for SQL handles, typically
	// "SELECT 1"). It returns nil on success or a descriptive error.
	Ping(ctx context.Context) error
}

// ProbeFunc adapts a plain function to the Probe interface.
// A ProbeFunc always reports an attached handle.
type ProbeFunc func(ctx context.Context) error

// Connected implements Probe.
func (ProbeFunc) Connected() bool { return true }

// Ping implements Probe by calling the function.
func (f ProbeFunc) Ping(ctx context.Context) error { return f(ctx) }
