package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishToStream appends values to stream with XADD. Non-string values are
// stringified; composite values are JSON encoded.
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]any) (string, error) {
	streamValues := make(map[string]any, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			streamValues[k] = val
		case []byte:
			streamValues[k] = string(val)
		case int:
			streamValues[k] = strconv.Itoa(val)
		case int64:
			streamValues[k] = strconv.FormatInt(val, 10)
		case float64:
			streamValues[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			streamValues[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			streamValues[k] = string(b)
		}
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: streamValues,
	}).Result()
}

// PublishJSONToStream publishes data as a single JSON "data" field plus a unix timestamp.
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return PublishToStream(ctx, client, stream, map[string]any{
		"data":      string(b),
		"timestamp": time.Now().Unix(),
	})
}

// StreamMessage is one entry read from a stream.
type StreamMessage struct {
	ID     string
	Stream string
	Values map[string]any
}

// ReadFromStream reads up to count new entries for consumer in consumerGroup
// with XREADGROUP, blocking at most block. A timeout yields no messages.
func ReadFromStream(ctx context.Context, client *redis.Client, stream, consumerGroup, consumer string, count int64, block time.Duration) ([]StreamMessage, error) {
	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, msg := range s.Messages {
			messages = append(messages, StreamMessage{Stream: s.Stream, ID: msg.ID, Values: msg.Values})
		}
	}
	return messages, nil
}

// CreateConsumerGroup creates groupName on stream starting at start ("$" for
// new entries only, "0" for the whole stream). The stream is created when
// missing; an existing group is not an error.
func CreateConsumerGroup(ctx context.Context, client *redis.Client, stream, groupName, start string) error {
	err := client.XGroupCreateMkStream(ctx, stream, groupName, start).Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// DestroyConsumerGroup removes groupName from stream.
func DestroyConsumerGroup(ctx context.Context, client *redis.Client, stream, groupName string) error {
	return client.XGroupDestroy(ctx, stream, groupName).Err()
}

// AckMessages acknowledges ids for consumerGroup.
func AckMessages(ctx context.Context, client *redis.Client, stream, consumerGroup string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return client.XAck(ctx, stream, consumerGroup, ids...).Err()
}
