package redisq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/logger"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), IngestStream)
		client.Close()
	})
	return client
}

func TestPublishFetchAck(t *testing.T) {
	client := testClient(t)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	pub := NewPublisherWithClient(log, client)
	cons, err := NewConsumer(log, client, "ingest-workers", "test-1")
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	fileID := uuid.New()
	msg := domain.IngestMessage{
		FileID:      fileID,
		StorageKey:  "report.pdf",
		ContentType: "application/pdf",
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := pub.PublishIngest(context.Background(), msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := cons.Fetch(context.Background(), 10, 2*time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Msg.FileID != fileID {
		t.Fatalf("file id mismatch: got %s want %s", got[0].Msg.FileID, fileID)
	}
	if err := cons.Ack(context.Background(), got[0].ID); err != nil {
		t.Fatalf("ack: %v", err)
	}

	again, err := cons.Fetch(context.Background(), 10, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no redelivery after ack, got %d", len(again))
	}
}
