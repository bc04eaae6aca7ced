package mirror

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jpalmerr/signalboard"
)

// HashWriter is the subset of a Redis client the Redis mirror uses.
type HashWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) error
	Close() error
}

// RedisOptions configures [DialRedis].
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Key is the hash receiving the values. Defaults to "signalboard".
	Key string
}

// Redis writes rendered values into a Redis hash:
//
//	HSET <key> count <N> updated_at <RFC3339>
//	HSET <key> strength <S> updated_at <RFC3339>
type Redis struct {
	w    HashWriter
	key  string
	last lastValues
}

// NewRedis creates a Redis mirror writing to key through w.
func NewRedis(w HashWriter, key string) *Redis {
	if strings.TrimSpace(key) == "" {
		key = "signalboard"
	}
	return &Redis{w: w, key: key}
}

// DialRedis connects to Redis, verifies the connection with PING and
// returns a Redis mirror.
func DialRedis(ctx context.Context, o RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", o.Addr, err)
	}

	return NewRedis(clientHashWriter{client}, o.Key), nil
}

// Key returns the hash key values are written to.
func (r *Redis) Key() string {
	return r.key
}

// Publish writes res into the hash if its value changed since the last
// successful write. Results that were not rendered are ignored.
func (r *Redis) Publish(ctx context.Context, res signalboard.PollResult) error {
	if !res.Rendered() || !r.last.admit(res.Poller, res.Seq, res.Value) {
		return nil
	}

	var field string
	switch res.Poller {
	case signalboard.PollerNotifications:
		field = "count"
	case signalboard.PollerSignal:
		field = "strength"
	default:
		return fmt.Errorf("unknown poller %q", res.Poller)
	}

	ts := res.CheckedAt.UTC().Format(time.RFC3339)
	if err := r.w.HSet(ctx, r.key, field, res.Value, "updated_at", ts); err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}

	r.last.record(res.Poller, res.Value)
	return nil
}

// Close closes the underlying connection.
func (r *Redis) Close() error {
	return r.w.Close()
}

// clientHashWriter adapts *redis.Client to HashWriter.
type clientHashWriter struct {
	c *redis.Client
}

func (w clientHashWriter) HSet(ctx context.Context, key string, values ...interface{}) error {
	return w.c.HSet(ctx, key, values...).Err()
}

func (w clientHashWriter) Close() error {
	return w.c.Close()
}
