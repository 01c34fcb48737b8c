package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/notification"
	"notification-hub/internal/queue"
)

// Publisher is the part of Dispatcher the pool depends on.
type Publisher interface {
	Publish(ctx context.Context, topic string, n model.Notification) (model.Report, error)
}

// Pool drains queued publish tasks with a fixed number of workers.
type Pool struct {
	Size      int
	Queue     queue.Queue
	Publisher Publisher
	Builder   notification.Builder
	Logger    *slog.Logger
}

func NewPool(size int, q queue.Queue, p Publisher, logger *slog.Logger) *Pool {
	return &Pool{
		Size:      size,
		Queue:     q,
		Publisher: p,
		Logger:    logging.Component(logger, "worker-pool"),
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has returned.
func (p *Pool) Run(ctx context.Context) {
	size := p.Size
	if size <= 0 {
		size = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	p.logger().Info("worker pool started", "workers", size)
	wg.Wait()
	p.logger().Info("worker pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		task, err := p.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.logger().Warn("dequeue failed", logging.FieldWorker, id, "error", err)
			continue
		}
		p.process(ctx, id, task)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, task *model.Task) {
	logger := p.logger().With(logging.FieldWorker, workerID, logging.FieldTaskID, task.ID)

	n, err := p.Builder.Build(task.Event)
	if err != nil {
		// Malformed input is dropped, not retried.
		logger.Error("dropping malformed task", "error", err)
		return
	}
	if task.ID != "" {
		n.ID = task.ID
	}
	if !task.CreatedAt.IsZero() {
		n.CreatedAt = task.CreatedAt
	}
	topic := task.Topic
	if topic == "" {
		topic = n.ProductType
	}

	report, err := p.Publisher.Publish(ctx, topic, n)
	if err != nil {
		logger.Error("publish failed", logging.FieldTopic, topic, "error", err)
		return
	}
	logger.Debug("task processed", logging.FieldTopic, report.Topic, "failed", report.Failed)
}

func (p *Pool) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logging.NewNop()
}
