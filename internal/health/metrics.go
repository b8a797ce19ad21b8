package health

import (
	"fmt"
	"time"
)

// HealthMetrics accumulates rolling statistics over health checks.
//
// A HealthMetrics value is mutated exclusively by the check loop that owns
// it; everything handed to external readers (events, snapshots) is a value
// copy, so readers never observe a partially updated record.
type HealthMetrics struct {
	// Healthy reflects the outcome of the most recent check.
	Healthy bool `json:"healthy"`

	// ResponseTimeMS is the elapsed time of the most recent check in
	// milliseconds, whether it succeeded or failed.
	ResponseTimeMS int64 `json:"response_time_ms"`

	// SuccessRate is the percentage of all checks that succeeded,
	// always within [0, 100].
	SuccessRate float64 `json:"success_rate"`

	// TotalChecks counts completed checks; it increases by exactly one
	// per tick.
	TotalChecks uint64 `json:"total_checks"`

	// ConsecutiveFailures counts failures since the last success. It
	// resets to zero on the tick after a success.
	ConsecutiveFailures uint32 `json:"consecutive_failures"`

	// LastError is the message of the most recent failure, cleared on
	// success.
	LastError string `json:"last_error,omitempty"`

	// LastCheckAt is when the most recent check completed.
	LastCheckAt time.Time `json:"last_check_at"`

	// LastSuccess and LastFailure record when each outcome last occurred;
	// nil until the outcome has been observed at least once.
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`

	// successes backs the SuccessRate denominator arithmetic. Kept
	// separate because ConsecutiveFailures alone cannot recover the true
	// success count once failures and successes interleave.
	successes uint64
}

// recordSuccess folds one successful check into the metrics.
func (m *HealthMetrics) recordSuccess(now time.Time, elapsed time.Duration) {
	m.TotalChecks++
	m.successes++
	m.ConsecutiveFailures = 0
	m.Healthy = true
	m.ResponseTimeMS = elapsed.Milliseconds()
	m.LastError = ""
	m.LastCheckAt = now
	m.LastSuccess = &now
	m.recalculateRate()
}

// recordFailure folds one failed check into the metrics.
func (m *HealthMetrics) recordFailure(now time.Time, elapsed time.Duration, message string) {
	m.TotalChecks++
	m.ConsecutiveFailures++
	m.Healthy = false
	m.ResponseTimeMS = elapsed.Milliseconds()
	m.LastError = message
	m.LastCheckAt = now
	m.LastFailure = &now
	m.recalculateRate()
}

// recalculateRate recomputes SuccessRate as successes/total × 100.
func (m *HealthMetrics) recalculateRate() {
	if m.TotalChecks == 0 {
		m.SuccessRate = 0
		return
	}
	m.SuccessRate = float64(m.successes) / float64(m.TotalChecks) * 100
}

// Summary returns a one-line human-readable rendering of the metrics,
// suitable for status lines and log messages.
func (m HealthMetrics) Summary() string {
	if m.Healthy {
		return fmt.Sprintf("healthy (%dms) - %d checks, %.1f%% success rate",
			m.ResponseTimeMS, m.TotalChecks, m.SuccessRate)
	}
	msg := m.LastError
	if msg == "" {
		msg = "unknown error"
	}
	if m.ConsecutiveFailures > 1 {
		return fmt.Sprintf("unhealthy (%dms) - %d consecutive failures - %s",
			m.ResponseTimeMS, m.ConsecutiveFailures, msg)
	}
	return fmt.Sprintf("unhealthy (%dms) - %s", m.ResponseTimeMS, msg)
}

// Uptime returns the percentage of the given health events that were
// healthy, or 0 for an empty window.
func Uptime(events []HealthEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	healthy := 0
	for _, ev := range events {
		if ev.Metrics.Healthy {
			healthy++
		}
	}
	return float64(healthy) / float64(len(events)) * 100
}
