// Package realtime carries WebSocket messages between API instances. Every
// instance publishes to one broker channel and rebroadcasts what it receives
// to its local hub, so a client connected anywhere sees every message.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/pkg/messaging"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/websocket"
)

// Envelope is the broker wire format.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher delivers a payload to every WebSocket client subscribed to topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// UserTopic is the group every connection of a user joins.
func UserTopic(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// ChatRoom names the room shared by two users regardless of who opened it.
func ChatRoom(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat_%d_%d", a, b)
}

type Relay struct {
	hub     *websocket.Hub
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRelay builds a relay. A nil broker makes Publish broadcast straight to hub.
func NewRelay(hub *websocket.Hub, broker messaging.Broker, channel string, m *metrics.Metrics) *Relay {
	return &Relay{
		hub:     hub,
		broker:  broker,
		channel: channel,
		metrics: m,
		logger:  log.With().Str("component", "realtime").Logger(),
	}
}

func (r *Relay) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if r.broker == nil {
		r.hub.BroadcastRaw(topic, data)
		return nil
	}

	err = r.broker.Publish(ctx, r.channel, Envelope{Topic: topic, Payload: data})
	r.count("out", err)
	if err != nil {
		// Local clients still get the message when the broker is down.
		r.logger.Warn().Err(err).Str("topic", topic).Msg("broker publish failed, delivering locally")
		r.hub.BroadcastRaw(topic, data)
	}
	return nil
}

// Start consumes the broker channel until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	if r.broker == nil {
		return nil
	}
	return messaging.Consume(ctx, r.broker, r.channel, r.handle)
}

func (r *Relay) handle(raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.count("in", err)
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	r.count("in", nil)
	r.hub.BroadcastRaw(env.Topic, env.Payload)
	return nil
}

func (r *Relay) count(direction string, err error) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.BrokerMessages.WithLabelValues(direction, status).Inc()
}
