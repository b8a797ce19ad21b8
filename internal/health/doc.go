// Package health implements connection liveness monitoring for database
// handles.
//
// Two complementary components are provided:
//
//   - ConnectionMonitor: probes a connection on a fixed cadence and publishes
//     ConnectionEvents (connected / disconnected / error) to subscribers.
//   - DatabaseHealthChecker: probes adaptively, backing off while the
//     connection stays down, and publishes HealthEvents carrying rolling
//     metrics (success rate, consecutive failures, response time).
//
// Both components run their check loop as a single background goroutine that
// exclusively owns all mutable state. External readers only ever receive
// value snapshots, and Stop blocks until the loop has fully exited, so no
// event is ever published after Stop returns.
//
// The only capability the package consumes is Probe: one trivial round trip
// against the current connection, bounded by the caller's context. Probe
// failures never terminate a loop; they are recorded and delivered as
// ordinary events, and the schedule continues.
//
// Event delivery is lossy by design: each subscriber has a bounded buffer
// and a subscriber that falls behind loses its oldest unconsumed events
// rather than blocking the publisher. Subscribers therefore always converge
// on the latest status but must not assume at-least-once delivery.
package health
