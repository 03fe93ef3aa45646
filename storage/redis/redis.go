// Package redis stores run state in Redis using go-redis. Keys are laid
// out as "<prefix>:<namespace>:<key>" and listed with SCAN.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderRedis, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Adapter, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("redis: expected *redis.Config, got %T", providerCfg)
			}
			c = pc
		}
		a, err := New(*c, cfg.KeyPrefix, log)
		if err != nil {
			return nil, err
		}
		if err := a.Ping(context.Background()); err != nil {
			_ = a.Close()
			return nil, err
		}
		return a, nil
	})
}

// Adapter implements storage.Adapter on a go-redis client.
type Adapter struct {
	rdb    *goredis.Client
	log    *logger.Logger
	prefix string
	ttl    time.Duration
	count  int64
	closed bool
	mu     sync.Mutex
}

var _ storage.Adapter = (*Adapter)(nil)

// New creates a Redis-backed adapter. prefix scopes every key it writes.
func New(cfg Config, prefix string, log *logger.Logger) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	dialTimeout, _ := time.ParseDuration(cfg.DialTimeout)
	readTimeout, _ := time.ParseDuration(cfg.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	var ttl time.Duration
	if cfg.TTL != "" {
		ttl, _ = time.ParseDuration(cfg.TTL)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	log.Info("Redis client created", map[string]interface{}{
		"addr":      cfg.Addr,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})

	return &Adapter{rdb: rdb, log: log, prefix: prefix, ttl: ttl, count: cfg.ScanCount}, nil
}

// Ping verifies the Redis connection is alive.
func (a *Adapter) Ping(ctx context.Context) error {
	pong, err := a.rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected redis ping response: %s", pong)
	}
	return nil
}

// Set stores value under namespace/key.
func (a *Adapter) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := a.rdb.Set(ctx, a.key(namespace, key), value, a.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get returns the value under namespace/key or storage.ErrNotFound.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := a.rdb.Get(ctx, a.key(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// Delete removes namespace/key.
func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	if err := a.rdb.Del(ctx, a.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Clear removes every key under the adapter's prefix.
func (a *Adapter) Clear(ctx context.Context) error {
	pattern := "*"
	if a.prefix != "" {
		pattern = a.prefix + storage.KeySeparator + "*"
	}
	return a.deleteMatching(ctx, pattern)
}

// ClearNamespace removes every key of one namespace.
func (a *Adapter) ClearNamespace(ctx context.Context, namespace string) error {
	return a.deleteMatching(ctx, a.nsPattern(namespace))
}

// Keys lists the keys of one namespace in ascending order.
func (a *Adapter) Keys(ctx context.Context, namespace string) ([]string, error) {
	full, err := a.scan(ctx, a.nsPattern(namespace))
	if err != nil {
		return nil, err
	}
	prefix := storage.NamespacePrefix(a.prefix, namespace)
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the Redis connection. Safe to call multiple times.
func (a *Adapter) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.log.Info("Closing Redis connection")
	a.closed = true
	return a.rdb.Close()
}

// Unwrap returns the underlying go-redis client.
func (a *Adapter) Unwrap() *goredis.Client {
	return a.rdb
}

func (a *Adapter) key(namespace, key string) string {
	return storage.JoinKey(a.prefix, namespace, key)
}

func (a *Adapter) nsPattern(namespace string) string {
	return escapeGlob(storage.NamespacePrefix(a.prefix, namespace)) + "*"
}

func (a *Adapter) scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := a.rdb.Scan(ctx, cursor, pattern, a.count).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (a *Adapter) deleteMatching(ctx context.Context, pattern string) error {
	keys, err := a.scan(ctx, pattern)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := a.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: delete %d keys: %w", len(keys), err)
	}
	a.log.Debug("cleared keys", map[string]interface{}{"pattern": pattern, "count": len(keys)})
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
