package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"notification-hub/internal/events"
	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/registry"
)

const defaultUserAgent = "notification-hub/0.1"

// Dispatcher delivers a notification to every subscriber of a topic.
type Dispatcher struct {
	Registry registry.Registry
	Client   *http.Client
	Sink     events.Sink
	Logger   *slog.Logger

	UserAgent string
	// MaxConcurrency bounds in-flight deliveries per publish; 0 means one
	// goroutine per subscriber.
	MaxConcurrency int
}

func NewDispatcher(reg registry.Registry, timeout time.Duration, sink events.Sink, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		Registry: reg,
		Client: &http.Client{
			Timeout: timeout,
		},
		Sink:      sink,
		Logger:    logging.Component(logger, "dispatcher"),
		UserAgent: defaultUserAgent,
	}
}

// Publish sends n to all subscribers of topic concurrently. A failed delivery
// is logged and recorded in the report but never stops the others. The
// returned error is non-nil only when the subscriber list cannot be read.
func (d *Dispatcher) Publish(ctx context.Context, topic string, n model.Notification) (model.Report, error) {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return model.Report{}, err
	}
	report := model.Report{NotificationID: n.ID, Topic: t, Results: []model.DeliveryResult{}}

	subs, err := d.Registry.List(ctx, t)
	if err != nil {
		return report, fmt.Errorf("list subscribers for %s: %w", t, err)
	}

	results := make([]model.DeliveryResult, len(subs))
	var sem chan struct{}
	if d.MaxConcurrency > 0 {
		sem = make(chan struct{}, d.MaxConcurrency)
	}

	var wg sync.WaitGroup
	for i, s := range subs {
		wg.Add(1)
		go func(i int, s model.Subscriber) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[i] = model.DeliveryResult{Subscriber: s, Error: ctx.Err().Error()}
					return
				}
			}
			results[i] = d.deliver(ctx, s, n.For(s))
		}(i, s)
	}
	wg.Wait()

	for _, res := range results {
		report.Add(res)
	}

	d.logger().Info("publish complete",
		logging.FieldTopic, t,
		logging.FieldNotificationID, n.ID,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)

	if d.Sink != nil && report.Attempted > 0 {
		if err := d.Sink.Publish(ctx, report); err != nil {
			d.logger().Warn("report sink failed", logging.FieldNotificationID, n.ID, "error", err)
		}
	}
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, s model.Subscriber, n model.Notification) model.DeliveryResult {
	start := time.Now()
	res := model.DeliveryResult{Subscriber: s}
	logger := d.logger().With(logging.FieldSubscriberURL, s.URL, logging.FieldNotificationID, n.ID)

	body, err := json.Marshal(n)
	if err != nil {
		res.Error = fmt.Sprintf("marshal notification: %v", err)
		logger.Error("delivery failed", "error", res.Error)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		res.Error = fmt.Sprintf("build request: %v", err)
		logger.Warn("delivery failed", "error", res.Error)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent())

	resp, err := d.client().Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		logger.Warn("delivery network error", "error", err)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		res.Error = fmt.Sprintf("subscriber returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		logger.Warn("delivery rejected", "status", resp.StatusCode)
		return res
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.Debug("delivered", "status", resp.StatusCode, "duration", res.Duration)
	return res
}

func (d *Dispatcher) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *Dispatcher) userAgent() string {
	if d.UserAgent != "" {
		return d.UserAgent
	}
	return defaultUserAgent
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NewNop()
}
