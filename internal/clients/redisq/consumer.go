package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// Delivery pairs a decoded ingest message with the stream entry id needed to
// acknowledge it. Delivery is at-least-once: a consumer that dies between
// Fetch and Ack sees the entry again on restart via the pending list.
type Delivery struct {
	ID  string
	Msg domain.IngestMessage
}

// Consumer reads ingest hand-off messages for a worker group.
type Consumer interface {
	Fetch(ctx context.Context, count int64, block time.Duration) ([]Delivery, error)
	Ack(ctx context.Context, ids ...string) error
	Close() error
}

type consumer struct {
	log      *logger.Logger
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

func NewConsumer(log *logger.Logger, client *redis.Client, group, name string) (Consumer, error) {
	c := &consumer{
		log:      log.With("service", "IngestConsumer", "group", group, "consumer", name),
		client:   client,
		stream:   IngestStream,
		group:    group,
		consumer: name,
	}
	if err := c.ensureGroup(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("ensure consumer group %q: %w", c.group, err)
	}
	return nil
}

func (c *consumer) Fetch(ctx context.Context, count int64, block time.Duration) ([]Delivery, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group %q: %w", c.group, err)
	}

	var out []Delivery
	for _, s := range streams {
		for _, entry := range s.Messages {
			raw, ok := entry.Values["body"].(string)
			if !ok {
				c.log.Warn("Skipping malformed stream entry", "id", entry.ID)
				continue
			}
			var msg domain.IngestMessage
			if err := json.Unmarshal([]byte(raw), &msg); err != nil {
				c.log.Warn("Skipping undecodable stream entry", "id", entry.ID, "error", err)
				continue
			}
			out = append(out, Delivery{ID: entry.ID, Msg: msg})
		}
	}
	return out, nil
}

func (c *consumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, c.stream, c.group, ids...).Err(); err != nil {
		return fmt.Errorf("ack %d entries: %w", len(ids), err)
	}
	return nil
}

func (c *consumer) Close() error {
	return c.client.Close()
}
