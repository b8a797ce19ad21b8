package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/fernhollow/dbsentinel/internal/infrastructure/database"
)

// SystemMetrics is the response shape of the metrics endpoint.
type SystemMetrics struct {
	Version       string                        `json:"version"`
	UptimeSeconds int64                         `json:"uptime_seconds"`
	Runtime       RuntimeMetrics                `json:"runtime"`
	WebSocket     WSMetrics                     `json:"websocket"`
	MQTT          MQTTMetrics                   `json:"mqtt"`
	InfluxDB      InfluxDBMetrics               `json:"influxdb"`
	Targets       TargetMetrics                 `json:"targets"`
	Databases     map[string]database.PoolStats `json:"databases"`
}

// RuntimeMetrics reports Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes   uint64 `json:"heap_sys_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// WSMetrics reports WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics reports MQTT client statistics.
type MQTTMetrics struct {
	Enabled       bool `json:"enabled"`
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// InfluxDBMetrics reports InfluxDB client statistics.
type InfluxDBMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// TargetMetrics aggregates the monitored target fleet.
type TargetMetrics struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Detached  int `json:"detached"`
}

// handleMetrics returns system-wide operational metrics.
//
// GET /api/v1/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	metrics := SystemMetrics{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:     runtime.NumGoroutine(),
			HeapAllocBytes: mem.HeapAlloc,
			HeapSysBytes:   mem.HeapSys,
			NumGC:          mem.NumGC,
		},
		Targets:   s.targetMetrics(),
		Databases: s.supervisor.DBStats(),
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.mqtt != nil {
		metrics.MQTT.Enabled = true
		metrics.MQTT.Connected = s.mqtt.IsConnected()
		metrics.MQTT.Subscriptions = s.mqtt.SubscriptionCount()
	}
	if s.influx != nil {
		metrics.InfluxDB.Enabled = true
		metrics.InfluxDB.Connected = s.influx.IsConnected()
	}

	writeJSON(w, http.StatusOK, metrics)
}

// targetMetrics folds per-target summaries into fleet counts.
func (s *Server) targetMetrics() TargetMetrics {
	var tm TargetMetrics
	for _, info := range s.supervisor.DescribeAll() {
		tm.Total++
		switch {
		case !info.Attached:
			tm.Detached++
		case info.Metrics.Healthy:
			tm.Healthy++
		default:
			tm.Unhealthy++
		}
	}
	return tm
}
