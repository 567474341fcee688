package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscommon "github.com/raviakasapu/generative-planner-vision-sub000/common/redis"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Handler reacts to one consumed event.
type Handler func(ctx context.Context, ev Event) error

// Listener consumes the event stream through a consumer group private to
// this process, so every instance sees every event published after Start.
type Listener struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	batch    int64
	block    time.Duration
	handlers map[string]Handler
	logger   *zap.Logger
}

// NewListener 创建事件流监听器；group 为本实例独占的消费者组名
func NewListener(client *redis.Client, stream, group string, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: group,
		batch:    50,
		block:    5 * time.Second,
		handlers: map[string]Handler{},
		logger:   logger,
	}
}

// On registers h for eventType, replacing any earlier handler.
func (l *Listener) On(eventType string, h Handler) *Listener {
	l.handlers[eventType] = h
	return l
}

// Start creates the consumer group at the stream tail.
func (l *Listener) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, l.client, l.stream, l.group, "$"); err != nil {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", l.group, l.stream, err)
	}
	l.logger.Info("Event listener started", zap.String("stream", l.stream), zap.String("group", l.group))
	return nil
}

// Run polls until ctx is done, backing off exponentially while reads fail.
func (l *Listener) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := l.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Failed to consume event stream", zap.String("stream", l.stream), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

// Poll reads one batch, dispatches it and acknowledges every message. A
// message that cannot be decoded or whose handler fails is logged and still
// acknowledged. It returns the number of messages read.
func (l *Listener) Poll(ctx context.Context) (int, error) {
	msgs, err := rediscommon.ReadFromStream(ctx, l.client, l.stream, l.group, l.consumer, l.batch, l.block)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
		ev, err := DecodeStreamValues(msg.Values)
		if err != nil {
			l.logger.Warn("Skipping undecodable stream entry", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		h, ok := l.handlers[ev.Type]
		if !ok {
			continue
		}
		err = h(ctx, ev)
		metrics.EventsConsumed.WithLabelValues(ev.Type, metrics.Result(err)).Inc()
		if err != nil {
			l.logger.Error("Event handler failed",
				zap.String("event_type", ev.Type),
				zap.String("entity_id", ev.EntityID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	if err := rediscommon.AckMessages(ctx, l.client, l.stream, l.group, ids...); err != nil {
		return len(msgs), fmt.Errorf("failed to ack stream entries: %w", err)
	}
	return len(msgs), nil
}

// Close removes the consumer group.
func (l *Listener) Close(ctx context.Context) error {
	return rediscommon.DestroyConsumerGroup(ctx, l.client, l.stream, l.group)
}

// DecodeStreamValues is the inverse of StreamPublisher's field layout.
func DecodeStreamValues(values map[string]any) (Event, error) {
	var ev Event
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}
	ev.Type = str("event_type")
	if ev.Type == "" {
		return ev, fmt.Errorf("missing event_type")
	}
	ev.EntityID = str("entity_id")
	ev.UserID = str("user_id")
	if raw := str("payload"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &ev.Payload); err != nil {
			return ev, fmt.Errorf("invalid payload: %w", err)
		}
	}
	if ts := str("occurred_at"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return ev, fmt.Errorf("invalid occurred_at: %w", err)
		}
		ev.OccurredAt = t
	}
	return ev, nil
}
