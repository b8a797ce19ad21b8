// Package api provides the HTTP REST API and WebSocket server for DB Sentinel.
//
// It exposes target health summaries, on-demand check triggers, and system
// metrics to dashboards and operational tooling, plus a WebSocket stream of
// status and health events for clients that prefer push over polling.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
