package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Default configuration for the DatabaseHealthChecker.
const (
	// defaultBaseInterval is the check cadence while the connection is
	// healthy.
	defaultBaseInterval = 30 * time.Second

	// defaultMaxInterval caps backoff growth during a sustained outage.
	defaultMaxInterval = 5 * time.Minute

	// defaultMultiplier is the per-failure backoff growth factor.
	defaultMultiplier = 1.5

	// defaultCheckTimeout bounds a single check round trip.
	defaultCheckTimeout = 10 * time.Second
)

// DatabaseHealthChecker probes a connection adaptively: at a base cadence
// while healthy, backing off exponentially (capped) while failures persist,
// and resetting to the base cadence on the first success. Each completed
// check updates rolling metrics and publishes a HealthEvent.
//
// The checker is constructed unstarted; configure it with the With*
// builders, then call Start. Metrics are mutated exclusively by the check
// loop; CurrentMetrics returns an immutable snapshot. Cumulative counters
// survive a Stop/Start cycle — call ResetMetrics for a fresh accumulator.
type DatabaseHealthChecker struct {
	probe   Probe
	backoff Backoff
	timeout time.Duration
	bus     *Bus[HealthEvent]
	logger  Logger

	// Lifecycle state. The loop goroutine owns the schedule.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Rolling metrics, written only by the check loop.
	metricsMu sync.RWMutex
	metrics   HealthMetrics
}

// NewDatabaseHealthChecker creates a checker for the given probe with
// default intervals (base 30s, max 5m, multiplier 1.5) and a 10s check
// timeout. The checker is not started.
func NewDatabaseHealthChecker(probe Probe) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{
		probe: probe,
		backoff: Backoff{
			Base:       defaultBaseInterval,
			Max:        defaultMaxInterval,
			Multiplier: defaultMultiplier,
		},
		timeout: defaultCheckTimeout,
		bus:     NewBus[HealthEvent](0),
		logger:  noopLogger{},
	}
}

// WithIntervals sets the base and maximum check intervals.
// Configure before Start; the running loop does not observe changes.
func (c *DatabaseHealthChecker) WithIntervals(base, max time.Duration) *DatabaseHealthChecker {
	c.backoff.Base = base
	c.backoff.Max = max
	return c
}

// WithMultiplier sets the backoff growth factor applied per failure.
func (c *DatabaseHealthChecker) WithMultiplier(multiplier float64) *DatabaseHealthChecker {
	c.backoff.Multiplier = multiplier
	return c
}

// WithTimeout bounds each check round trip. A check exceeding the timeout is
// recorded as a distinguished timeout failure.
func (c *DatabaseHealthChecker) WithTimeout(timeout time.Duration) *DatabaseHealthChecker {
	c.timeout = timeout
	return c
}

// SetLogger sets the logger for the checker.
func (c *DatabaseHealthChecker) SetLogger(logger Logger) {
	c.logger = logger
}

// Start launches the background check loop. Calling Start while the checker
// is already running is a no-op returning nil. A Start after Stop begins at
// the base interval again but keeps the accumulated counters.
func (c *DatabaseHealthChecker) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.running = true
	c.cancel = cancel
	c.done = done

	go c.loop(loopCtx, done)
	return nil
}

// Stop cancels the check loop and blocks until it has fully exited.
// No event is published after Stop returns. A check in flight is cancelled
// through its context rather than waited out to its full timeout.
func (c *DatabaseHealthChecker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the check loop is currently running.
func (c *DatabaseHealthChecker) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// HealthReceiver returns a new independent subscription that observes only
// events published after this call. Close the subscription when done.
func (c *DatabaseHealthChecker) HealthReceiver() *Subscription[HealthEvent] {
	return c.bus.Subscribe()
}

// CurrentMetrics returns an immutable snapshot of the rolling metrics taken
// under a single synchronized read, never a live view.
func (c *DatabaseHealthChecker) CurrentMetrics() HealthMetrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

// ResetMetrics discards the accumulated counters. Intended for callers that
// want a fresh accumulator across a Stop/Start cycle; the loop itself never
// resets them.
func (c *DatabaseHealthChecker) ResetMetrics() {
	c.metricsMu.Lock()
	c.metrics = HealthMetrics{}
	c.metricsMu.Unlock()
}

// CheckOnce performs a single on-demand check, bypassing the schedule, and
// returns a standalone HealthEvent. It does not publish the event or touch
// the rolling metrics.
func (c *DatabaseHealthChecker) CheckOnce(ctx context.Context) HealthEvent {
	start := time.Now()
	err := c.probeOnce(ctx)
	elapsed := time.Since(start)
	now := time.Now().UTC()

	var m HealthMetrics
	if err != nil {
		m.recordFailure(now, elapsed, err.Error())
	} else {
		m.recordSuccess(now, elapsed)
	}
	return HealthEvent{Metrics: m, Timestamp: now}
}

// loop runs the adaptive check schedule until the context is cancelled.
// The inter-tick sleep uses the current interval resulting from the previous
// tick and is itself cancellable by Stop.
func (c *DatabaseHealthChecker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	interval := c.backoff.Reset()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		healthy, ok := c.runCheck(ctx)
		if !ok {
			return
		}
		if healthy {
			interval = c.backoff.Reset()
		} else {
			interval = c.backoff.Next(interval)
		}
		timer.Reset(interval)
	}
}

// runCheck performs one check, folds the outcome into the metrics, and
// publishes a HealthEvent. ok is false when the loop context was cancelled
// mid-check; nothing is recorded or published in that case.
func (c *DatabaseHealthChecker) runCheck(ctx context.Context) (healthy, ok bool) {
	start := time.Now()
	err := c.probeOnce(ctx)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return false, false
	}

	now := time.Now().UTC()

	c.metricsMu.Lock()
	if err != nil {
		c.metrics.recordFailure(now, elapsed, err.Error())
	} else {
		c.metrics.recordSuccess(now, elapsed)
	}
	snapshot := c.metrics
	c.metricsMu.Unlock()

	if err != nil {
		c.logger.Debug("health check failed",
			"error", err,
			"consecutive_failures", snapshot.ConsecutiveFailures,
		)
	}

	c.bus.Publish(HealthEvent{Metrics: snapshot, Timestamp: now})
	return err == nil, true
}

// probeOnce performs one bounded probe round trip. A missing handle reports
// ErrNotConnected without invoking the probe; exceeding the check timeout
// reports ErrProbeTimeout. The timeout cancels only this check.
func (c *DatabaseHealthChecker) probeOnce(ctx context.Context) error {
	if !c.probe.Connected() {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe.Ping(pingCtx)
	if err != nil && pingCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return fmt.Errorf("%w after %v", ErrProbeTimeout, c.timeout)
	}
	return err
}
