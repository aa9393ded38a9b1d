package store

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/erkit/pkg/errors"
)

// DefaultKeyPrefix namespaces diagram keys in Redis.
const DefaultKeyPrefix = "erkit:diagram:"

// Client is the subset of *redis.Client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// RedisStore keeps documents as Redis strings under Prefix+id.
type RedisStore struct {
	client Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr   string
	Prefix string
	// TTL expires documents after the given duration; zero keeps them.
	TTL time.Duration
}

// NewRedisStore connects to the Redis server at opts.Addr.
func NewRedisStore(opts RedisOptions) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: opts.Addr}), opts.Prefix, opts.TTL)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(c Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: c, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) (string, error) {
	if err := errors.ValidateID(id); err != nil {
		return "", err
	}
	return s.prefix + id, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = RetryWithBackoff(ctx, func() error {
		b, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			return classify(err)
		}
		data = b
		return nil
	})
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get diagram %s", id)
	}
	return data, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, id string, doc []byte) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}
	err = RetryWithBackoff(ctx, func() error {
		return classify(s.client.Set(ctx, key, doc, s.ttl).Err())
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "put diagram %s", id)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}
	var n int64
	err = RetryWithBackoff(ctx, func() error {
		v, err := s.client.Del(ctx, key).Result()
		n = v
		return classify(err)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete diagram %s", id)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan diagrams")
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, s.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements Store.
func (s *RedisStore) Close() error { return s.client.Close() }

// classify marks everything except a missing key and context errors as
// retryable.
func classify(err error) error {
	if err == nil || stderrors.Is(err, redis.Nil) ||
		stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(err)
}

var _ Store = (*RedisStore)(nil)
