package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fernhollow/dbsentinel/internal/health"
	"github.com/fernhollow/dbsentinel/internal/infrastructure/config"
	"github.com/fernhollow/dbsentinel/internal/infrastructure/database"
	"github.com/fernhollow/dbsentinel/internal/infrastructure/logging"
)

// checkTriggerTimeout bounds an on-demand check requested over MQTT or HTTP.
const checkTriggerTimeout = 15 * time.Second

// EventSink receives serialized status and health events, typically an MQTT
// client.
type EventSink interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MetricSink receives metric points, typically an InfluxDB client.
type MetricSink interface {
	WriteConnectionStatus(targetID string, status health.ConnectionStatus, at time.Time)
	WriteHealthMetrics(targetID string, m health.HealthMetrics)
}

// Broadcaster pushes events to live WebSocket subscribers.
type Broadcaster interface {
	Broadcast(channel string, payload interface{})
}

// Target bundles one monitored database with its monitoring loops.
type Target struct {
	ID      string
	Path    string
	db      *database.DB // nil when the file could not be opened
	monitor *health.ConnectionMonitor
	checker *health.DatabaseHealthChecker
}

// TargetInfo is a point-in-time summary of one target, shaped for API
// responses.
type TargetInfo struct {
	ID       string                  `json:"id"`
	Path     string                  `json:"path"`
	Attached bool                    `json:"attached"`
	Status   health.ConnectionStatus `json:"status"`
	Metrics  health.HealthMetrics    `json:"metrics"`
}

// Supervisor owns the monitoring loops for every configured target and fans
// their events out to the attached sinks.
type Supervisor struct {
	cfg    *config.Config
	logger *logging.Logger

	targets map[string]*Target
	order   []string
	qos     byte

	events    EventSink
	metrics   MetricSink
	broadcast Broadcaster

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// detachedProbe stands in for a target whose database file could not be
// opened. It keeps the monitoring loops running so the outage is visible as
// a stream of disconnected events rather than a startup failure.
type detachedProbe struct{}

func (detachedProbe) Connected() bool { return false }

func (detachedProbe) Ping(context.Context) error { return health.ErrNotConnected }

// New builds a supervisor from the configuration. Every configured target
// gets a connection monitor and a health checker; a target whose database
// file cannot be opened is kept with a detached handle and logged, not
// rejected, so the service still reports on it.
func New(cfg *config.Config, logger *logging.Logger) (*Supervisor, error) {
	if len(cfg.Targets) == 0 {
		return nil, ErrNoTargets
	}

	s := &Supervisor{
		cfg:     cfg,
		logger:  logger,
		targets: make(map[string]*Target, len(cfg.Targets)),
		order:   make([]string, 0, len(cfg.Targets)),
		qos:     byte(cfg.MQTT.QoS),
	}

	for _, tc := range cfg.Targets {
		if _, exists := s.targets[tc.ID]; exists {
			return nil, fmt.Errorf("duplicate target %q", tc.ID)
		}

		target := &Target{ID: tc.ID, Path: tc.Path}

		var probe health.Probe
		db, err := database.Open(database.Config{
			Path:        tc.Path,
			WALMode:     tc.WALMode,
			BusyTimeout: tc.BusyTimeout,
		})
		if err != nil {
			logger.Warn("target database unavailable, monitoring as detached",
				"target", tc.ID,
				"path", tc.Path,
				"error", err,
			)
			probe = detachedProbe{}
		} else {
			target.db = db
			probe = db
		}

		target.monitor = health.NewConnectionMonitor(probe).
			WithPingInterval(cfg.GetPingInterval()).
			WithPingTimeout(cfg.GetPingTimeout())
		target.monitor.SetLogger(logger.With("target", tc.ID))

		target.checker = health.NewDatabaseHealthChecker(probe).
			WithIntervals(cfg.GetBaseInterval(), cfg.GetMaxInterval()).
			WithMultiplier(cfg.Checker.Multiplier).
			WithTimeout(cfg.GetCheckTimeout())
		target.checker.SetLogger(logger.With("target", tc.ID))

		s.targets[tc.ID] = target
		s.order = append(s.order, tc.ID)
	}

	return s, nil
}

// SetEventSink attaches the outbound event publisher. Attach before Start.
func (s *Supervisor) SetEventSink(sink EventSink) {
	s.events = sink
}

// SetMetricSink attaches the metric writer. Attach before Start.
func (s *Supervisor) SetMetricSink(sink MetricSink) {
	s.metrics = sink
}

// SetBroadcaster attaches the WebSocket broadcaster. Attach before Start.
func (s *Supervisor) SetBroadcaster(b Broadcaster) {
	s.broadcast = b
}

// Start launches the monitoring loops and relay goroutines for every target.
// Calling Start while already running is a no-op returning nil.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel

	for _, id := range s.order {
		target := s.targets[id]

		// Subscribe before starting the loops so the relays observe the
		// very first event.
		statusSub := target.monitor.StatusReceiver()
		healthSub := target.checker.HealthReceiver()

		s.wg.Add(2)
		go s.relayStatus(runCtx, target, statusSub)
		go s.relayHealth(runCtx, target, healthSub)

		if err := target.monitor.Start(runCtx); err != nil {
			s.logger.Error("starting connection monitor", "target", id, "error", err)
		}
		if err := target.checker.Start(runCtx); err != nil {
			s.logger.Error("starting health checker", "target", id, "error", err)
		}
	}

	s.logger.Info("supervisor started", "targets", len(s.order))
	return nil
}

// Stop halts the monitoring loops and relays and blocks until they have
// exited. Stopping a supervisor that is not running is a no-op. Database
// handles stay open; call Close to release them.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	for _, id := range s.order {
		target := s.targets[id]
		target.monitor.Stop()
		target.checker.Stop()
	}

	cancel()
	s.wg.Wait()
	s.logger.Info("supervisor stopped")
}

// Close releases the database handles. Call after Stop.
func (s *Supervisor) Close() error {
	var firstErr error
	for _, id := range s.order {
		target := s.targets[id]
		if target.db == nil {
			continue
		}
		if err := target.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Running reports whether the supervisor loops are active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TargetIDs returns the configured target IDs in declaration order.
func (s *Supervisor) TargetIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Describe returns a point-in-time summary of one target.
func (s *Supervisor) Describe(id string) (TargetInfo, error) {
	target, ok := s.targets[id]
	if !ok {
		return TargetInfo{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return TargetInfo{
		ID:       target.ID,
		Path:     target.Path,
		Attached: target.db != nil && target.db.Connected(),
		Status:   target.monitor.Status(),
		Metrics:  target.checker.CurrentMetrics(),
	}, nil
}

// DescribeAll returns summaries for every target in declaration order.
func (s *Supervisor) DescribeAll() []TargetInfo {
	infos := make([]TargetInfo, 0, len(s.order))
	for _, id := range s.order {
		info, err := s.Describe(id)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Status returns the last observed connection status of one target.
func (s *Supervisor) Status(id string) (health.ConnectionStatus, error) {
	target, ok := s.targets[id]
	if !ok {
		return health.ConnectionStatus{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return target.monitor.Status(), nil
}

// Metrics returns a snapshot of one target's rolling health metrics.
func (s *Supervisor) Metrics(id string) (health.HealthMetrics, error) {
	target, ok := s.targets[id]
	if !ok {
		return health.HealthMetrics{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return target.checker.CurrentMetrics(), nil
}

// ResetMetrics discards the accumulated counters of one target.
func (s *Supervisor) ResetMetrics(id string) error {
	target, ok := s.targets[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	target.checker.ResetMetrics()
	return nil
}

// CheckNow performs an on-demand health check of one target, bypassing the
// schedule. The resulting event is standalone: it does not touch the rolling
// metrics or the periodic loops.
func (s *Supervisor) CheckNow(ctx context.Context, id string) (health.HealthEvent, error) {
	target, ok := s.targets[id]
	if !ok {
		return health.HealthEvent{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return target.checker.CheckOnce(ctx), nil
}

// DBStats returns connection pool statistics for targets with an attached
// handle, keyed by target ID.
func (s *Supervisor) DBStats() map[string]database.PoolStats {
	stats := make(map[string]database.PoolStats)
	for _, id := range s.order {
		target := s.targets[id]
		if target.db == nil || !target.db.Connected() {
			continue
		}
		st := target.db.Stats()
		stats[id] = database.PoolStats{
			OpenConnections: st.OpenConnections,
			InUse:           st.InUse,
			Idle:            st.Idle,
		}
	}
	return stats
}
