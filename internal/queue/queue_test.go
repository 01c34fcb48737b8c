package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/queue"
)

func TestMemoryQueueFIFOAndBackpressure(t *testing.T) {
	q := queue.NewMemoryQueue(2)
	ctx := context.Background()

	if err := q.Enqueue(ctx, &model.Task{ID: "1"}); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	if err := q.Enqueue(ctx, &model.Task{ID: "2"}); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}
	if err := q.Enqueue(ctx, &model.Task{ID: "3"}); !errors.Is(err, queue.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 buffered tasks, got %d", q.Len())
	}

	for _, want := range []string{"1", "2"} {
		task, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if task.ID != want {
			t.Fatalf("expected task %s, got %s", want, task.ID)
		}
	}
}

func TestMemoryQueueDequeueHonoursContext(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := queue.NewRedisQueue(client, "tasks", logging.NewNop())
	ctx := context.Background()

	first := &model.Task{ID: "t-1", Topic: "BOOK", Event: model.ProductEvent{ProductType: "book", ProductID: "1", Status: model.StatusCreated}}
	second := &model.Task{ID: "t-2", Topic: "TOY"}
	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != "t-1" || got.Event.ProductID != "1" {
		t.Fatalf("expected first task back, got %+v", got)
	}
	got, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != "t-2" {
		t.Fatalf("expected second task, got %+v", got)
	}
}

func TestRedisQueueSkipsUndecodableEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := mr.Lpush("tasks", "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	q := queue.NewRedisQueue(client, "tasks", logging.NewNop())
	ctx := context.Background()
	if err := q.Enqueue(ctx, &model.Task{ID: "ok"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != "ok" {
		t.Fatalf("expected valid task after skipping garbage, got %+v", got)
	}
}
