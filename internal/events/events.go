// Package events publishes planning domain events to Redis Streams and MQTT.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/mqtt"
	rediscommon "github.com/raviakasapu/generative-planner-vision-sub000/common/redis"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 事件类型
const (
	TypeFactCreated          = "fact.created"
	TypeFactUpdated          = "fact.updated"
	TypeVersionCreated       = "version.created"
	TypeVersionStatusChanged = "version.status_changed"
	TypeGrantRequested       = "grant.requested"
	TypeGrantDecided         = "grant.decided"
)

// Event 领域事件
type Event struct {
	Type       string         `json:"event_type"`
	EntityID   string         `json:"entity_id"`
	UserID     string         `json:"user_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(eventType, entityID, userID string, payload map[string]any) Event {
	return Event{Type: eventType, EntityID: entityID, UserID: userID, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events to one sink.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// StreamPublisher appends events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	_, err = rediscommon.PublishToStream(ctx, p.client, p.stream, map[string]any{
		"event_type":  ev.Type,
		"entity_id":   ev.EntityID,
		"user_id":     ev.UserID,
		"payload":     string(payload),
		"occurred_at": ev.OccurredAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to stream %s: %w", ev.Type, p.stream, err)
	}
	return nil
}

// mqttSender is the part of the MQTT client the publisher needs.
type mqttSender interface {
	Publish(topic string, retained bool, payload []byte) error
}

var _ mqttSender = (*mqtt.Client)(nil)

// MQTTPublisher publishes each event as JSON to "<prefix>/<event type>".
type MQTTPublisher struct {
	client mqttSender
	prefix string
}

func NewMQTTPublisher(client *mqtt.Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix}
}

// Topic returns the topic ev is published on.
func (p *MQTTPublisher) Topic(ev Event) string {
	prefix := strings.TrimSuffix(p.prefix, "/")
	if prefix == "" {
		return ev.Type
	}
	return prefix + "/" + ev.Type
}

func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.client.Publish(p.Topic(ev), false, b)
}

// Multi fans an event out to several named sinks. A failing sink is logged
// and counted; Publish never returns an error, so the request that raised
// the event is not failed by its delivery.
type Multi struct {
	sinks  map[string]Publisher
	order  []string
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: map[string]Publisher{}, logger: logger}
}

// Add registers a sink under name.
func (m *Multi) Add(name string, p Publisher) *Multi {
	if _, ok := m.sinks[name]; !ok {
		m.order = append(m.order, name)
	}
	m.sinks[name] = p
	return m
}

// Len reports the number of sinks.
func (m *Multi) Len() int { return len(m.order) }

func (m *Multi) Publish(ctx context.Context, ev Event) error {
	for _, name := range m.order {
		err := m.sinks[name].Publish(ctx, ev)
		metrics.EventsPublished.WithLabelValues(name, metrics.Result(err)).Inc()
		if err != nil {
			m.logger.Warn("Failed to publish event",
				zap.String("sink", name),
				zap.String("event_type", ev.Type),
				zap.String("entity_id", ev.EntityID),
				zap.Error(err),
			)
		}
	}
	return nil
}
