package supervisor

import "errors"

// Sentinel errors for supervisor operations.
// These support errors.Is() checks for specific failure conditions.
var (
	// ErrUnknownTarget indicates the requested target ID is not configured.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrNoTargets indicates the configuration declares no targets to watch.
	ErrNoTargets = errors.New("no targets configured")
)
