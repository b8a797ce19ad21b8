// Package supervisor wires monitored database targets to their monitoring
// loops and fans their events out to the configured sinks.
//
// For every target in the configuration it owns a read-only database handle,
// a connection monitor, and an adaptive health checker. Relay goroutines
// subscribe to both event streams and mirror them to MQTT, InfluxDB, and the
// WebSocket hub; each sink is optional and attached through a narrow
// interface so the supervisor never depends on transport details.
//
// Lifecycle follows the infrastructure pattern: New builds the tree,
// Start(ctx) launches the loops and relays, Stop halts them, Close releases
// the database handles.
package supervisor
