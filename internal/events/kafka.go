package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"notification-hub/internal/model"
)

const defaultKafkaTopic = "notification-reports"

// KafkaWriter is the subset of a Kafka producer the sink needs.
type KafkaWriter interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaSink writes reports to one Kafka topic keyed by notification topic.
type KafkaSink struct {
	Writer KafkaWriter
	Topic  string
}

func (s *KafkaSink) Publish(ctx context.Context, report model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.Writer == nil {
		return fmt.Errorf("kafka: %w", ErrNotConfigured)
	}
	body, err := encode(report)
	if err != nil {
		return err
	}
	topic := s.topic()
	if err := s.Writer.Write(ctx, topic, []byte(report.Topic), body, headers(report)); err != nil {
		return wrapPublishErr("kafka", topic, err)
	}
	return nil
}

func (s *KafkaSink) topic() string {
	if t := strings.TrimSpace(s.Topic); t != "" {
		return t
	}
	return defaultKafkaTopic
}

// KafkaConfig configures a real franz-go producer.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

type kgoWriter struct{ cl *kgo.Client }

func (w kgoWriter) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if len(headers) > 0 {
		rec.Headers = make([]kgo.RecordHeader, 0, len(headers))
		for k, v := range headers {
			rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
		}
	}
	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

// NewKafkaSink builds a franz-go client and returns the sink and a cleanup func.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", ErrNotConfigured)
	}

	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka client init: %w", err)
	}
	return &KafkaSink{Writer: kgoWriter{cl: cl}, Topic: cfg.Topic}, cl.Close, nil
}
