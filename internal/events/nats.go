package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"notification-hub/internal/model"
)

// NATSClient is the subset of a NATS connection the sink needs.
type NATSClient interface {
	Publish(subject string, data []byte, headers map[string]string) error
}

// NATSSink publishes reports to "<prefix>.<topic>".
type NATSSink struct {
	Client NATSClient
	Prefix string
}

func (s *NATSSink) Publish(ctx context.Context, report model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.Client == nil {
		return fmt.Errorf("nats: %w", ErrNotConfigured)
	}
	body, err := encode(report)
	if err != nil {
		return err
	}
	subject := s.subject(report.Topic)
	if err := s.Client.Publish(subject, body, headers(report)); err != nil {
		return wrapPublishErr("nats", subject, err)
	}
	return nil
}

func (s *NATSSink) subject(topic string) string {
	prefix := strings.TrimSuffix(strings.TrimSpace(s.Prefix), ".")
	if prefix == "" {
		prefix = "notifications.reports"
	}
	return prefix + "." + topic
}

// NATSConfig configures a real NATS connection.
type NATSConfig struct {
	URL         string
	Name        string
	Prefix      string
	ConnTimeout time.Duration
}

type natsConn struct{ nc *nats.Conn }

func (c natsConn) Publish(subject string, data []byte, headers map[string]string) error {
	msg := &nats.Msg{Subject: subject, Data: data}
	if len(headers) > 0 {
		msg.Header = nats.Header{}
		for k, v := range headers {
			msg.Header.Add(k, v)
		}
	}
	if err := c.nc.PublishMsg(msg); err != nil {
		return err
	}
	return c.nc.Flush()
}

// NewNATSSink connects to NATS and returns the sink and a cleanup func.
func NewNATSSink(cfg NATSConfig) (*NATSSink, func(), error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", ErrNotConfigured)
	}

	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	cleanup := func() {
		if !nc.IsClosed() {
			_ = nc.Drain()
			nc.Close()
		}
	}
	return &NATSSink{Client: natsConn{nc: nc}, Prefix: cfg.Prefix}, cleanup, nil
}
