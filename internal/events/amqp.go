package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"notification-hub/internal/model"
)

const defaultExchange = "notifications"

// AMQPPublisher is the subset of an AMQP channel the sink needs.
type AMQPPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes reports to a topic exchange using the notification topic
// as routing key.
type AMQPSink struct {
	Channel  AMQPPublisher
	Exchange string
}

func (s *AMQPSink) Publish(ctx context.Context, report model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.Channel == nil {
		return fmt.Errorf("amqp: %w", ErrNotConfigured)
	}
	body, err := encode(report)
	if err != nil {
		return err
	}

	table := amqp.Table{}
	for k, v := range headers(report) {
		table[k] = v
	}

	exchange := s.exchange()
	key := report.Topic
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    report.NotificationID,
		Timestamp:    time.Now().UTC(),
		Headers:      table,
		Body:         body,
	}
	if err := s.Channel.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return wrapPublishErr("amqp", exchange+"/"+key, err)
	}
	return nil
}

func (s *AMQPSink) exchange() string {
	if e := strings.TrimSpace(s.Exchange); e != "" {
		return e
	}
	return defaultExchange
}

// AMQPConfig configures a real RabbitMQ connection.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// NewAMQPSink dials RabbitMQ, declares the topic exchange and returns the
// sink and a cleanup func.
func NewAMQPSink(cfg AMQPConfig) (*AMQPSink, func(), error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil, fmt.Errorf("%w: amqp url required", ErrNotConfigured)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	sink := &AMQPSink{Channel: ch, Exchange: cfg.Exchange}
	if err := ch.ExchangeDeclare(sink.exchange(), "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return sink, cleanup, nil
}
