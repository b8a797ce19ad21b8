package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/fernhollow/dbsentinel/internal/health"
)

// WriteHealthMetrics records one health check snapshot for a target.
//
// This is the primary method for persisting checker output. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - targetID: Identifier of the monitored database (e.g., "orders-primary")
//   - m: Metrics snapshot taken at publish time
//
// Example:
//
//	client.WriteHealthMetrics("orders-primary", event.Metrics)
func (c *Client) WriteHealthMetrics(targetID string, m health.HealthMetrics) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"db_health",
		map[string]string{
			"target_id": targetID,
		},
		map[string]interface{}{
			"healthy":              m.Healthy,
			"response_time_ms":     m.ResponseTimeMS,
			"success_rate":         m.SuccessRate,
			"total_checks":         int64(m.TotalChecks), //nolint:gosec // Counter fits int64 for any realistic uptime
			"consecutive_failures": int64(m.ConsecutiveFailures),
		},
		m.LastCheckAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionStatus records one connection status transition for a target.
//
// Parameters:
//   - targetID: Identifier of the monitored database
//   - status: The observed status
//   - at: When the status was observed
func (c *Client) WriteConnectionStatus(targetID string, status health.ConnectionStatus, at time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"connected": status.State == health.StateConnected,
	}
	if status.Error != "" {
		fields["error"] = status.Error
	}

	point := write.NewPoint(
		"db_connection",
		map[string]string{
			"target_id": targetID,
			"state":     string(status.State),
		},
		fields,
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("sentinel_stats",
//	    map[string]string{"instance": "dbsentinel-01"},
//	    map[string]interface{}{"targets": 4, "subscribers": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replayed events).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
