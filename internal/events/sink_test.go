package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"notification-hub/internal/events"
	"notification-hub/internal/model"
)

func sampleReport() model.Report {
	r := model.Report{NotificationID: "n-1", Topic: "BOOK"}
	r.Add(model.DeliveryResult{Subscriber: model.Subscriber{URL: "http://a.example.com", Name: "a"}, StatusCode: 200})
	return r
}

type fakeNATS struct {
	mu       sync.Mutex
	subjects []string
	bodies   [][]byte
	headers  []map[string]string
	err      error
}

func (f *fakeNATS) Publish(subject string, data []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, data)
	f.headers = append(f.headers, headers)
	return nil
}

func TestNATSSinkPublishesReportJSON(t *testing.T) {
	client := &fakeNATS{}
	sink := &events.NATSSink{Client: client, Prefix: "reports."}

	if err := sink.Publish(t.Context(), sampleReport()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(client.subjects) != 1 || client.subjects[0] != "reports.BOOK" {
		t.Fatalf("unexpected subjects: %v", client.subjects)
	}

	var got model.Report
	if err := json.Unmarshal(client.bodies[0], &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.NotificationID != "n-1" || got.Succeeded != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if client.headers[0]["notification-id"] != "n-1" {
		t.Fatalf("missing notification-id header: %v", client.headers[0])
	}
}

func TestNATSSinkDefaultPrefix(t *testing.T) {
	client := &fakeNATS{}
	sink := &events.NATSSink{Client: client}
	if err := sink.Publish(t.Context(), sampleReport()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if client.subjects[0] != "notifications.reports.BOOK" {
		t.Fatalf("unexpected subject %q", client.subjects[0])
	}
}

func TestNATSSinkWrapsClientErrors(t *testing.T) {
	sink := &events.NATSSink{Client: &fakeNATS{err: errors.New("boom")}}
	err := sink.Publish(t.Context(), sampleReport())
	if !errors.Is(err, events.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
}

func TestSinksRequireClient(t *testing.T) {
	sinks := map[string]events.Sink{
		"nats":  &events.NATSSink{},
		"amqp":  &events.AMQPSink{},
		"kafka": &events.KafkaSink{},
	}
	for name, s := range sinks {
		t.Run(name, func(t *testing.T) {
			if err := s.Publish(t.Context(), sampleReport()); !errors.Is(err, events.ErrNotConfigured) {
				t.Fatalf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestSinksHonourCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	sink := &events.KafkaSink{Writer: &fakeKafka{}}
	if err := sink.Publish(ctx, sampleReport()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeAMQP struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeAMQP) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return nil
}

func TestAMQPSinkPublishesToTopicExchange(t *testing.T) {
	ch := &fakeAMQP{}
	sink := &events.AMQPSink{Channel: ch}
	if err := sink.Publish(t.Context(), sampleReport()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ch.exchange != "notifications" || ch.key != "BOOK" {
		t.Fatalf("unexpected routing: exchange=%q key=%q", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.MessageId != "n-1" {
		t.Fatalf("unexpected publishing: %+v", ch.msg)
	}
	if ch.msg.Headers["topic"] != "BOOK" {
		t.Fatalf("unexpected headers: %v", ch.msg.Headers)
	}
}

type fakeKafka struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (f *fakeKafka) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	f.key = key
	f.value = value
	return nil
}

func TestKafkaSinkKeysByTopic(t *testing.T) {
	w := &fakeKafka{}
	sink := &events.KafkaSink{Writer: w}
	if err := sink.Publish(t.Context(), sampleReport()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if w.topic != "notification-reports" || string(w.key) != "BOOK" {
		t.Fatalf("unexpected record: topic=%q key=%q", w.topic, w.key)
	}
}

func TestKafkaSinkPassesThroughDeadline(t *testing.T) {
	sink := &events.KafkaSink{Writer: &fakeKafka{err: context.DeadlineExceeded}}
	err := sink.Publish(t.Context(), sampleReport())
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, events.ErrPublishFailed) {
		t.Fatalf("expected bare deadline error, got %v", err)
	}
}

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Publish(ctx context.Context, report model.Report) error {
	c.calls++
	return c.err
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &countingSink{}
	bad := &countingSink{err: errors.New("down")}
	m := events.Multi{ok, bad, events.LogSink{}}

	err := m.Publish(t.Context(), sampleReport())
	if err == nil || err.Error() != "down" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every sink to be called, got ok=%d bad=%d", ok.calls, bad.calls)
	}
}
