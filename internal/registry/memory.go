package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"notification-hub/internal/model"
)

// MemoryRegistry keeps subscribers in process memory.
type MemoryRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]model.Subscriber
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		topics: make(map[string]map[string]model.Subscriber),
	}
}

func (r *MemoryRegistry) Subscribe(ctx context.Context, topic string, s model.Subscriber) error {
	t, s, err := prepare(topic, s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.topics[t]
	if !ok {
		subs = make(map[string]model.Subscriber)
		r.topics[t] = subs
	}
	if _, exists := subs[s.URL]; exists {
		return fmt.Errorf("subscribe %s to %s: %w", s.URL, t, ErrDuplicateSubscriber)
	}
	subs[s.URL] = s
	return nil
}

func (r *MemoryRegistry) Unsubscribe(ctx context.Context, topic, url string) error {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)

	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.topics[t]
	if !ok {
		return fmt.Errorf("unsubscribe %s from %s: %w", url, t, ErrNotFound)
	}
	if _, exists := subs[url]; !exists {
		return fmt.Errorf("unsubscribe %s from %s: %w", url, t, ErrNotFound)
	}
	delete(subs, url)
	if len(subs) == 0 {
		delete(r.topics, t)
	}
	return nil
}

func (r *MemoryRegistry) List(ctx context.Context, topic string) ([]model.Subscriber, error) {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	subs := r.topics[t]
	out := make([]model.Subscriber, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sortSubscribers(out)
	return out, nil
}

func (r *MemoryRegistry) Topics(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	out := make([]string, 0, len(r.topics))
	for t := range r.topics {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out, nil
}

func (r *MemoryRegistry) Close() error {
	return nil
}

func sortSubscribers(subs []model.Subscriber) {
	sort.Slice(subs, func(i, j int) bool { return subs[i].URL < subs[j].URL })
}
