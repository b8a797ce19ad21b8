package health

import (
	"context"
	"sync"
	"time"
)

// Default configuration for the ConnectionMonitor.
const (
	// defaultPingInterval is the cadence between liveness probes.
	defaultPingInterval = 30 * time.Second

	// defaultPingTimeout bounds a single probe round trip.
	defaultPingTimeout = 10 * time.Second
)

// ConnectionMonitor probes a connection on a fixed cadence and publishes
// ConnectionEvents to subscribers.
//
// The monitor is constructed unstarted; configure it with the With*
// builders, then call Start. One monitor instance serves one connection and
// is long-lived: Start and Stop may be called repeatedly.
//
// Probe failures never terminate the loop: they become StateError events and
// the fixed-interval schedule continues unchanged.
type ConnectionMonitor struct {
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	bus      *Bus[ConnectionEvent]
	logger   Logger

	// Lifecycle state. The loop goroutine owns everything else.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Last observed status, for pull-based readers.
	statusMu   sync.RWMutex
	lastStatus ConnectionStatus
}

// NewConnectionMonitor creates a monitor for the given probe with a 30s ping
// interval. The monitor is not started.
func NewConnectionMonitor(probe Probe) *ConnectionMonitor {
	return &ConnectionMonitor{
		probe:      probe,
		interval:   defaultPingInterval,
		timeout:    defaultPingTimeout,
		bus:        NewBus[ConnectionEvent](0),
		logger:     noopLogger{},
		lastStatus: Disconnected(),
	}
}

// WithPingInterval sets the cadence between probes.
// Configure before Start; the running loop does not observe changes.
func (m *ConnectionMonitor) WithPingInterval(interval time.Duration) *ConnectionMonitor {
	m.interval = interval
	return m
}

// WithPingTimeout bounds each probe round trip.
// Configure before Start; the running loop does not observe changes.
func (m *ConnectionMonitor) WithPingTimeout(timeout time.Duration) *ConnectionMonitor {
	m.timeout = timeout
	return m
}

// SetLogger sets the logger for the monitor.
func (m *ConnectionMonitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Start launches the background check loop. Calling Start while the monitor
// is already running is a no-op returning nil.
//
// The loop stops when Stop is called or the parent context is cancelled.
func (m *ConnectionMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.running = true
	m.cancel = cancel
	m.done = done

	go m.loop(loopCtx, done)
	return nil
}

// Stop cancels the check loop and blocks until it has fully exited.
// No event is published after Stop returns. Stopping a monitor that is not
// running is a no-op.
func (m *ConnectionMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	<-done
}

// Monitoring reports whether the check loop is currently running.
func (m *ConnectionMonitor) Monitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// StatusReceiver returns a new independent subscription that observes only
// events published after this call. Close the subscription when done.
func (m *ConnectionMonitor) StatusReceiver() *Subscription[ConnectionEvent] {
	return m.bus.Subscribe()
}

// Status returns the last observed connection status. Before the first
// completed check it reports Disconnected.
func (m *ConnectionMonitor) Status() ConnectionStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.lastStatus
}

// CheckOnce performs a single on-demand probe, bypassing the schedule, and
// returns the resulting event synchronously. It does not publish the event
// or disturb the periodic loop.
func (m *ConnectionMonitor) CheckOnce(ctx context.Context) ConnectionEvent {
	return ConnectionEvent{
		Status:    m.observe(ctx),
		Timestamp: time.Now().UTC(),
	}
}

// loop runs the periodic check schedule until the context is cancelled.
func (m *ConnectionMonitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, first)
			first = false
		}
	}
}

// tick performs one scheduled check and publishes the outcome.
// Connected is only published on the first tick or when the status changed;
// Disconnected and Error outcomes are published on every tick.
func (m *ConnectionMonitor) tick(ctx context.Context, first bool) {
	status := m.observe(ctx)
	if ctx.Err() != nil {
		// Stopped while the probe was in flight: publish nothing.
		return
	}

	m.statusMu.Lock()
	previous := m.lastStatus
	m.lastStatus = status
	m.statusMu.Unlock()

	if status.State == StateConnected && previous.State == StateConnected && !first {
		return
	}
	if status.State != StateConnected {
		m.logger.Debug("connection check failed", "status", status.String())
	}
	m.bus.Publish(ConnectionEvent{Status: status, Timestamp: time.Now().UTC()})
}

// observe performs one probe and maps the outcome to a ConnectionStatus.
// Without an attached handle it reports Disconnected immediately, invoking
// neither the probe nor a timeout.
func (m *ConnectionMonitor) observe(ctx context.Context) ConnectionStatus {
	if !m.probe.Connected() {
		return Disconnected()
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.probe.Ping(pingCtx); err != nil {
		return Errored(err.Error())
	}
	return Connected()
}
