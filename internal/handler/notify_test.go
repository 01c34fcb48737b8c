package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"notification-hub/internal/handler"
	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/queue"
	"notification-hub/internal/registry"
)

type stubPublisher struct {
	topic string
	n     model.Notification
}

func (s *stubPublisher) Publish(ctx context.Context, topic string, n model.Notification) (model.Report, error) {
	s.topic = topic
	s.n = n
	return model.Report{NotificationID: n.ID, Topic: topic, Results: []model.DeliveryResult{}}, nil
}

type fixture struct {
	e   *echo.Echo
	reg *registry.MemoryRegistry
	pub *stubPublisher
	q   *queue.MemoryQueue
}

func newFixture(queueSize int) *fixture {
	f := &fixture{
		e:   echo.New(),
		reg: registry.NewMemoryRegistry(),
		pub: &stubPublisher{},
		q:   queue.NewMemoryQueue(queueSize),
	}
	handler.NewHandler(f.reg, f.pub, f.q, logging.NewNop()).Register(f.e)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeFlow(t *testing.T) {
	f := newFixture(1)

	rec := f.do(http.MethodPost, "/subscribe/book", `{"url":"http://a.example.com/hook","name":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sub model.Subscriber
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.URL != "http://a.example.com/hook" || sub.Name != "alice" {
		t.Fatalf("unexpected subscriber: %+v", sub)
	}

	rec = f.do(http.MethodPost, "/subscribe/BOOK", `{"url":"http://a.example.com/hook","name":"again"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/subscribers/book", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var subs []model.Subscriber
	if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscriber, got %+v", subs)
	}

	rec = f.do(http.MethodGet, "/topics", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `["BOOK"]` {
		t.Fatalf("unexpected topics response %d: %s", rec.Code, rec.Body.String())
	}

	target := "/unsubscribe/book?url=" + url.QueryEscape("http://a.example.com/hook")
	rec = f.do(http.MethodDelete, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on unsubscribe, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodDelete, target, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subscriber, got %d", rec.Code)
	}
}

func TestSubscribeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "bad json", method: http.MethodPost, target: "/subscribe/book", body: `{"url":`},
		{name: "missing name", method: http.MethodPost, target: "/subscribe/book", body: `{"url":"http://a.example.com"}`},
		{name: "bad url", method: http.MethodPost, target: "/subscribe/book", body: `{"url":"not a url","name":"x"}`},
		{name: "unsubscribe without url", method: http.MethodDelete, target: "/unsubscribe/book"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(1)
			rec := f.do(tc.method, tc.target, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPublishReturnsReport(t *testing.T) {
	f := newFixture(1)

	rec := f.do(http.MethodPost, "/publish", `{"product_type":"book","product_id":"42","product_title":"Go","status":"created"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.pub.topic != "BOOK" {
		t.Fatalf("expected publish to BOOK, got %q", f.pub.topic)
	}
	if f.pub.n.Status != model.StatusCreated || f.pub.n.ProductTitle != "Go" {
		t.Fatalf("unexpected notification: %+v", f.pub.n)
	}

	var report model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.NotificationID != f.pub.n.ID {
		t.Fatalf("expected report for %s, got %+v", f.pub.n.ID, report)
	}
}

func TestPublishRejectsMalformedEvent(t *testing.T) {
	f := newFixture(1)
	rec := f.do(http.MethodPost, "/publish", `{"product_type":"book","status":"created"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if f.pub.topic != "" {
		t.Fatal("publisher should not be called for malformed events")
	}
}

func TestNotifyQueuesTaskAndAppliesBackpressure(t *testing.T) {
	f := newFixture(1)
	body := `{"product_type":"toy","product_id":"7","status":"PROMOTION"}`

	rec := f.do(http.MethodPost, "/notify", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "accepted" || resp["task_id"] == "" {
		t.Fatalf("unexpected response: %v", resp)
	}

	task, err := f.q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if task.ID != resp["task_id"] || task.Topic != "TOY" || task.Event.ProductID != "7" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("expected task to carry the notification timestamp")
	}

	if rec := f.do(http.MethodPost, "/notify", body); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/notify", body); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when queue is full, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(1)
	if rec := f.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
