package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/logger"
)

const (
	// IngestStream is the stream carrying ingest hand-off messages.
	IngestStream = "docbridge:ingest"

	publishTimeout = 30 * time.Second
)

// PublishError marks a failed hand-off to the ingest queue. The caller is
// expected to compensate: a record that was created but never announced must
// not linger as if it were queued.
type PublishError struct {
	Stream string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %q: %v", e.Stream, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher announces newly stored files to the ingest pipeline.
type Publisher interface {
	PublishIngest(ctx context.Context, msg domain.IngestMessage) error
	Close() error
}

type publisher struct {
	log    *logger.Logger
	client *redis.Client
	stream string
}

func NewPublisher(log *logger.Logger) (Publisher, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing env var REDIS_ADDR")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return NewPublisherWithClient(log, client), nil
}

func NewPublisherWithClient(log *logger.Logger, client *redis.Client) Publisher {
	return &publisher{
		log:    log.With("service", "IngestPublisher"),
		client: client,
		stream: IngestStream,
	}
}

func (p *publisher) PublishIngest(ctx context.Context, msg domain.IngestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	body, err := json.Marshal(msg)
	if err != nil {
		return &PublishError{Stream: p.stream, Err: err}
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"body": body},
	}).Result()
	if err != nil {
		return &PublishError{Stream: p.stream, Err: err}
	}
	p.log.Debug("Published ingest message", "stream", p.stream, "id", id, "file_id", msg.FileID)
	return nil
}

func (p *publisher) Close() error {
	return p.client.Close()
}
