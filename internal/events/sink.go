package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"notification-hub/internal/logging"
	"notification-hub/internal/model"
)

var (
	ErrPublishFailed       = errors.New("report publish failed")
	ErrSerializationFailed = errors.New("report serialization failed")
	ErrNotConfigured       = errors.New("report sink not configured")
)

// Sink receives the report of every publish call.
type Sink interface {
	Publish(ctx context.Context, report model.Report) error
}

// LogSink writes a one-line summary of each report.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(ctx context.Context, report model.Report) error {
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.InfoContext(ctx, "delivery report",
		logging.FieldNotificationID, report.NotificationID,
		logging.FieldTopic, report.Topic,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return nil
}

// Multi fans a report out to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, report model.Report) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encode(report model.Report) ([]byte, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return body, nil
}

func headers(report model.Report) map[string]string {
	return map[string]string{
		"content-type":    "application/json",
		"notification-id": report.NotificationID,
		"topic":           report.Topic,
	}
}

func wrapPublishErr(label, dest string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s publish to %q: %w", label, dest, errors.Join(ErrPublishFailed, err))
}
