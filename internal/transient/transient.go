// Package transient wraps the short-TTL KV store and event stream described
// in spec §3: the search cache, txn→query map, throttle keys, cron sweep
// state, and the app_events stream. The teacher has no cache layer of its
// own; this is enriched entirely from the rest of the retrieval pack
// (other_examples/grafana-tempo wraps the identical go-redis client for a
// cache tier) per SPEC_FULL.md §11.
package transient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store is the transient-store client. It is the single source of truth
// for cached-fanout search state (spec §9: "do not add an in-process
// mirror").
type Store struct {
	rdb *redis.Client
	log *logrus.Entry
}

// Config names the transient store connection.
type Config struct {
	URL string
}

// New connects to the transient store.
func New(cfg Config, log *logrus.Entry) (*Store, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("transient: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	return &Store{rdb: rdb, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.rdb.Close()}

// Ping checks connectivity, used at startup to fail fast (spec §6 exit codes).
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// --- generic byte get/set (used by the embedding cache) ---

// GetBytes returns the raw value and whether it was present.
func (s *Store) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetBytes stores a value with no TTL (best-effort persistence).
func (s *Store) SetBytes(ctx context.Context, key string, val []byte) error {
	return s.rdb.Set(ctx, key, val, 0).Err()
}

// SetBytesTTL stores a value with a TTL.
func (s *Store) SetBytesTTL(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// Exists reports whether a key is present (used for throttle presence checks).
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetNXTTL sets key only if absent, with a TTL, and reports whether it was
// this call that set it (true) or the key already existed (false). This is
// the throttle primitive of spec §4.5 step 4.
func (s *Store) SetNXTTL(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, val, ttl).Result()
}

// Keys lists keys matching a glob pattern, used to scan search:{q}:*
// (spec §4.5 step 2). Scan is used instead of KEYS to avoid blocking
// the transient store on large keyspaces.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MGet fetches multiple keys' values in one round trip, skipping absent ones.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, []byte(s))
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Lock acquires a short lease on a sentinel key, used to serialize
// read-modify-write cron merges per (txn, bpp_id) per spec §9's
// "short lease on a sentinel key" suggestion for cross-process safety.
// Returns a release func; callers must defer it.
func (s *Store) Lock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error) {
	ok, err := s.rdb.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		if err := s.rdb.Del(context.Background(), "lock:"+key).Err(); err != nil {
			s.log.WithError(err).Warn("failed to release cron merge lock")
		}
	}, true, nil
}

// --- streams ---

// EnsureGroup creates the consumer group if it does not already exist,
// creating the stream too (spec §4.10 step 1). "group already exists" is
// swallowed; any other error is returned.
func (s *Store) EnsureGroup(ctx context.Context, stream, group string) error {
	err := s.rdb.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !isBusyGroupErr(err) {
		return err
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && (err.Error() == "BUSYGROUP Consumer Group name already exists" ||
		containsBusyGroup(err.Error()))
}

func containsBusyGroup(s string) bool {
	for i := 0; i+len("BUSYGROUP") <= len(s); i++ {
		if s[i:i+len("BUSYGROUP")] == "BUSYGROUP" {
			return true
		}
	}
	return false
}

// StreamEntry is one message read from a consumer group.
type StreamEntry struct {
	ID     string
	Fields map[string]any
}

// ReadGroup reads up to count entries for consumer within group, blocking
// up to block for new entries (spec §4.10 step 2:
// "XREADGROUP … COUNT 10 BLOCK 5000 STREAMS app_events >").
func (s *Store) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]StreamEntry, error) {
	res, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []StreamEntry
	for _, s := range res {
		for _, msg := range s.Messages {
			out = append(out, StreamEntry{ID: msg.ID, Fields: msg.Values})
		}
	}
	return out, nil
}

// Ack acknowledges successful handling of a stream entry (spec §4.10 step 4).
func (s *Store) Ack(ctx context.Context, stream, group, id string) error {
	return s.rdb.XAck(ctx, stream, group, id).Err()
}

// Publish appends an entry to a stream (used by the event-admission endpoint).
func (s *Store) Publish(ctx context.Context, stream string, fields map[string]any) (string, error) {
	return s.rdb.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: fields}).Result()
}
