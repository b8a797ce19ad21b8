package health

import "errors"

// Probe failure classes. All are non-fatal: they are recorded in metrics and
// delivered as events while the check loop continues on schedule.
// Use errors.Is() to distinguish them in calling code.
var (
	// ErrNotConnected is reported when no connection handle is attached.
	// The probe is not invoked and no timeout is started.
	ErrNotConnected = errors.New("health: no connection handle")

	// ErrProbeTimeout is reported when a probe round trip exceeds the
	// configured check timeout. It cancels only that check, never the loop.
	ErrProbeTimeout = errors.New("health: probe timed out")
)
