package supervisor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fernhollow/dbsentinel/internal/health"
	"github.com/fernhollow/dbsentinel/internal/infrastructure/mqtt"
)

// Broadcast channels consumed by WebSocket subscribers.
const (
	// ChannelStatus carries connection status changes.
	ChannelStatus = "target.status"

	// ChannelHealth carries health metric snapshots.
	ChannelHealth = "target.health"
)

// StatusMessage is the wire form of a connection status event, published to
// MQTT and broadcast to WebSocket subscribers.
type StatusMessage struct {
	TargetID  string                  `json:"target_id"`
	Status    health.ConnectionStatus `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
}

// HealthMessage is the wire form of a health snapshot.
type HealthMessage struct {
	TargetID  string               `json:"target_id"`
	Metrics   health.HealthMetrics `json:"metrics"`
	Timestamp time.Time            `json:"timestamp"`
}

// relayStatus forwards connection events of one target to the sinks until
// the run context is cancelled.
func (s *Supervisor) relayStatus(ctx context.Context, target *Target, sub *health.Subscription[health.ConnectionEvent]) {
	defer s.wg.Done()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.forwardStatus(target.ID, ev)
		}
	}
}

// relayHealth forwards health events of one target to the sinks until the
// run context is cancelled.
func (s *Supervisor) relayHealth(ctx context.Context, target *Target, sub *health.Subscription[health.HealthEvent]) {
	defer s.wg.Done()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.forwardHealth(target.ID, ev)
		}
	}
}

// forwardStatus mirrors one connection event to every attached sink.
// Sink failures are logged and swallowed; monitoring never stops because a
// transport is down.
func (s *Supervisor) forwardStatus(targetID string, ev health.ConnectionEvent) {
	msg := StatusMessage{
		TargetID:  targetID,
		Status:    ev.Status,
		Timestamp: ev.Timestamp,
	}

	if s.events != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			topic := mqtt.Topics{}.TargetStatus(targetID)
			// Retained so late subscribers see the current state immediately.
			if err := s.events.Publish(topic, payload, s.qos, true); err != nil {
				s.logger.Warn("publishing status event", "target", targetID, "error", err)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.WriteConnectionStatus(targetID, ev.Status, ev.Timestamp)
	}

	if s.broadcast != nil {
		s.broadcast.Broadcast(ChannelStatus, msg)
	}
}

// forwardHealth mirrors one health snapshot to every attached sink.
func (s *Supervisor) forwardHealth(targetID string, ev health.HealthEvent) {
	msg := HealthMessage{
		TargetID:  targetID,
		Metrics:   ev.Metrics,
		Timestamp: ev.Timestamp,
	}

	if s.events != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			topic := mqtt.Topics{}.TargetHealth(targetID)
			if err := s.events.Publish(topic, payload, s.qos, true); err != nil {
				s.logger.Warn("publishing health event", "target", targetID, "error", err)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.WriteHealthMetrics(targetID, ev.Metrics)
	}

	if s.broadcast != nil {
		s.broadcast.Broadcast(ChannelHealth, msg)
	}
}

// BindCheckTriggers subscribes to the check trigger topics so operators can
// request an on-demand probe of any target over MQTT. The result is
// published to the target's health topic.
func (s *Supervisor) BindCheckTriggers(client *mqtt.Client) error {
	topics := mqtt.Topics{}
	return client.Subscribe(topics.AllTargetChecks(), s.qos, func(topic string, _ []byte) error {
		id, ok := mqtt.CheckTarget(topic)
		if !ok {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), checkTriggerTimeout)
		defer cancel()

		ev, err := s.CheckNow(ctx, id)
		if err != nil {
			s.logger.Warn("check trigger for unknown target", "topic", topic)
			return nil
		}

		s.logger.Debug("on-demand check triggered", "target", id, "healthy", ev.Metrics.Healthy)
		s.forwardHealth(id, ev)
		return nil
	})
}
