package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"notification-hub/internal/model"
)

// RedisRegistry stores one hash per topic, field = subscriber URL and value =
// the JSON encoded subscriber. HSETNX and HDEL give the duplicate and
// not-found checks atomically.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// unsubscribeScript removes the field and drops the topic from the topic set
// when its hash is empty, in one step so a concurrent subscribe cannot be lost.
var unsubscribeScript = redis.NewScript(`
if redis.call("HDEL", KEYS[1], ARGV[1]) == 0 then
	return 0
end
if redis.call("HLEN", KEYS[1]) == 0 then
	redis.call("SREM", KEYS[2], ARGV[2])
end
return 1
`)

func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "subscribers"
	}
	return &RedisRegistry{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRegistry) topicKey(topic string) string {
	return r.prefix + ":topic:" + topic
}

func (r *RedisRegistry) topicsKey() string {
	return r.prefix + ":topics"
}

func (r *RedisRegistry) Subscribe(ctx context.Context, topic string, s model.Subscriber) error {
	t, s, err := prepare(topic, s)
	if err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal subscriber: %w", err)
	}

	added, err := r.client.HSetNX(ctx, r.topicKey(t), s.URL, data).Result()
	if err != nil {
		return fmt.Errorf("redis hsetnx: %w", err)
	}
	if !added {
		return fmt.Errorf("subscribe %s to %s: %w", s.URL, t, ErrDuplicateSubscriber)
	}
	if err := r.client.SAdd(ctx, r.topicsKey(), t).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Unsubscribe(ctx context.Context, topic, url string) error {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)

	removed, err := unsubscribeScript.Run(ctx, r.client, []string{r.topicKey(t), r.topicsKey()}, url, t).Int()
	if err != nil {
		return fmt.Errorf("redis unsubscribe: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("unsubscribe %s from %s: %w", url, t, ErrNotFound)
	}
	return nil
}

func (r *RedisRegistry) List(ctx context.Context, topic string) ([]model.Subscriber, error) {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return nil, err
	}

	fields, err := r.client.HGetAll(ctx, r.topicKey(t)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	out := make([]model.Subscriber, 0, len(fields))
	for url, raw := range fields {
		var s model.Subscriber
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode subscriber %s: %w", url, err)
		}
		out = append(out, s)
	}
	sortSubscribers(out)
	return out, nil
}

// Topics returns topics that still hold subscribers. The topic set can lag a
// concurrent unsubscribe, so each member is checked against its hash.
func (r *RedisRegistry) Topics(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.topicsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}

	pipe := r.client.Pipeline()
	lens := make([]*redis.IntCmd, len(members))
	for i, t := range members {
		lens[i] = pipe.HLen(ctx, r.topicKey(t))
	}
	if len(members) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("redis hlen: %w", err)
		}
	}

	out := make([]string, 0, len(members))
	for i, t := range members {
		if lens[i].Val() > 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
