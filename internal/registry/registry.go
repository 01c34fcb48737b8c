// Package registry stores subscriber records keyed by topic.
//
// Every backend enforces the same rules: a subscriber URL appears at most once
// per topic, unsubscribing an unknown URL fails with ErrNotFound, and List
// returns a snapshot that later mutations do not affect.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"notification-hub/internal/model"
)

var (
	ErrDuplicateSubscriber = errors.New("subscriber already registered")
	ErrNotFound            = errors.New("subscriber not found")
	ErrInvalidSubscriber   = errors.New("invalid subscriber")
)

// Registry defines the subscriber store used by the HTTP API and the dispatcher.
type Registry interface {
	Subscribe(ctx context.Context, topic string, s model.Subscriber) error
	Unsubscribe(ctx context.Context, topic, url string) error
	List(ctx context.Context, topic string) ([]model.Subscriber, error)
	Topics(ctx context.Context) ([]string, error)
	Close() error
}

// ValidateSubscriber checks that s has a name and an absolute http(s) URL.
func ValidateSubscriber(s model.Subscriber) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSubscriber)
	}
	raw := strings.TrimSpace(s.URL)
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSubscriber)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: parse url: %v", ErrInvalidSubscriber, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) url", ErrInvalidSubscriber)
	}
	return nil
}

func prepare(topic string, s model.Subscriber) (string, model.Subscriber, error) {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return "", s, err
	}
	s.URL = strings.TrimSpace(s.URL)
	s.Name = strings.TrimSpace(s.Name)
	if err := ValidateSubscriber(s); err != nil {
		return "", s, err
	}
	return t, s, nil
}
