package health

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestHealthMetrics_ConsecutiveFailures(t *testing.T) {
	var m HealthMetrics
	now := time.Now().UTC()

	// Outcome sequence: fail, fail, success, fail, success.
	wantConsecutive := []uint32{1, 2, 0, 1, 0}
	outcomes := []bool{false, false, true, false, true}

	for i, success := range outcomes {
		if success {
			m.recordSuccess(now, time.Millisecond)
		} else {
			m.recordFailure(now, time.Millisecond, "boom")
		}
		if m.ConsecutiveFailures != wantConsecutive[i] {
			t.Errorf("after outcome %d: ConsecutiveFailures = %d, want %d",
				i, m.ConsecutiveFailures, wantConsecutive[i])
		}
	}

	if m.TotalChecks != 5 {
		t.Errorf("TotalChecks = %d, want 5", m.TotalChecks)
	}
}

func TestHealthMetrics_SuccessRate(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		want      float64
	}{
		{"all successes", 5, 0, 100},
		{"all failures", 0, 4, 0},
		{"mixed", 3, 1, 75},
		{"single success", 1, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m HealthMetrics
			now := time.Now().UTC()
			for i := 0; i < tt.successes; i++ {
				m.recordSuccess(now, time.Millisecond)
			}
			for i := 0; i < tt.failures; i++ {
				m.recordFailure(now, time.Millisecond, "boom")
			}
			if math.Abs(m.SuccessRate-tt.want) > 1e-9 {
				t.Errorf("SuccessRate = %v, want %v", m.SuccessRate, tt.want)
			}
			if m.SuccessRate < 0 || m.SuccessRate > 100 {
				t.Errorf("SuccessRate %v outside [0,100]", m.SuccessRate)
			}
		})
	}
}

func TestHealthMetrics_SuccessClearsError(t *testing.T) {
	var m HealthMetrics
	now := time.Now().UTC()

	m.recordFailure(now, time.Millisecond, "connection refused")
	if m.LastError != "connection refused" {
		t.Fatalf("LastError = %q, want %q", m.LastError, "connection refused")
	}
	if m.LastFailure == nil {
		t.Fatal("LastFailure = nil after a failure")
	}

	m.recordSuccess(now, time.Millisecond)
	if m.LastError != "" {
		t.Errorf("LastError after success = %q, want empty", m.LastError)
	}
	if !m.Healthy {
		t.Error("Healthy = false after success")
	}
	if m.LastSuccess == nil {
		t.Error("LastSuccess = nil after a success")
	}
	// The failure timestamp is history, not state; it must survive.
	if m.LastFailure == nil {
		t.Error("LastFailure cleared by success, want preserved")
	}
}

func TestHealthMetrics_Summary(t *testing.T) {
	now := time.Now().UTC()

	t.Run("healthy", func(t *testing.T) {
		var m HealthMetrics
		for i := 0; i < 100; i++ {
			m.recordSuccess(now, 42*time.Millisecond)
		}
		s := m.Summary()
		if !strings.Contains(s, "healthy") || !strings.Contains(s, "42ms") || !strings.Contains(s, "100.0%") {
			t.Errorf("Summary() = %q, want healthy/42ms/100.0%%", s)
		}
	})

	t.Run("repeated failures", func(t *testing.T) {
		var m HealthMetrics
		m.recordFailure(now, time.Millisecond, "timeout")
		m.recordFailure(now, time.Millisecond, "timeout")
		s := m.Summary()
		if !strings.Contains(s, "2 consecutive failures") || !strings.Contains(s, "timeout") {
			t.Errorf("Summary() = %q, want consecutive failure count and message", s)
		}
	})
}

func TestUptime(t *testing.T) {
	healthyEvent := HealthEvent{Metrics: HealthMetrics{Healthy: true}}
	unhealthyEvent := HealthEvent{Metrics: HealthMetrics{Healthy: false}}

	tests := []struct {
		name   string
		events []HealthEvent
		want   float64
	}{
		{"empty window", nil, 0},
		{"all healthy", []HealthEvent{healthyEvent, healthyEvent}, 100},
		{"half healthy", []HealthEvent{healthyEvent, unhealthyEvent}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Uptime(tt.events); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Uptime() = %v, want %v", got, tt.want)
			}
		})
	}
}
