package publisher

import (
	"context"
	"encoding/base64"
	"strconv"

	"math/rand"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis streams. The ingestion
// pipeline emits a compact product-updated event after each successful
// write so downstream consumers can react without polling the tables.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Publish publishes a message to a Redis stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	// stream name is sharded across streamCount streams
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.Intn(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err()
		if err != nil {
			return err
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
