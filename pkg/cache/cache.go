// Package cache provides the read-mostly cache used in front of the voice
// catalog: an in-process map by default, with
// an optional Redis-backed second tier. Redis is never a correctness
// dependency — the process boots and serves correctly with only the local
// tier.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the optional second-tier cache.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LocalConfig configures the in-process tier.
type LocalConfig struct {
	MaxSize           int
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// Config selects and configures the cache backend. Type is "local" or
// "redis"; "redis" still keeps a local tier as a read-through fallback.
type Config struct {
	Type  string
	Redis RedisConfig
	Local LocalConfig
}

// Cache is the minimal key/value contract the voice registry depends on.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetMulti(ctx context.Context, keys []string) (map[string]string, error)
	SetMulti(ctx context.Context, values map[string]string, ttl time.Duration) error
	DeleteMulti(ctx context.Context, keys []string) error
	Close() error
}

type entry struct {
	value   string
	expires time.Time
}

// localCache is a bounded, lazily-swept in-memory cache.
type localCache struct {
	mu      sync.RWMutex
	items   map[string]entry
	cfg     LocalConfig
	stopCh  chan struct{}
	stopped bool
}

func newLocalCache(cfg LocalConfig) *localCache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.DefaultExpiration <= 0 {
		cfg.DefaultExpiration = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	lc := &localCache{items: make(map[string]entry), cfg: cfg, stopCh: make(chan struct{})}
	go lc.janitor()
	return lc
}

func (l *localCache) janitor() {
	t := time.NewTicker(l.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			now := time.Now()
			l.mu.Lock()
			for k, e := range l.items {
				if !e.expires.IsZero() && now.After(e.expires) {
					delete(l.items, k)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func (l *localCache) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.items[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (l *localCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.cfg.DefaultExpiration
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) >= l.cfg.MaxSize {
		for k := range l.items {
			delete(l.items, k)
			break
		}
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	l.items[key] = entry{value: value, expires: exp}
	return nil
}

func (l *localCache) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, key)
	return nil
}

func (l *localCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := l.Get(ctx, key)
	return ok, err
}

func (l *localCache) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]entry)
	return nil
}

func (l *localCache) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok, _ := l.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (l *localCache) SetMulti(ctx context.Context, values map[string]string, ttl time.Duration) error {
	for k, v := range values {
		if err := l.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (l *localCache) DeleteMulti(ctx context.Context, keys []string) error {
	for _, k := range keys {
		_ = l.Delete(ctx, k)
	}
	return nil
}

func (l *localCache) Close() error {
	if !l.stopped {
		l.stopped = true
		close(l.stopCh)
	}
	return nil
}

// redisCache wraps go-redis, falling back to an embedded local tier on any
// Redis error so catalog reads never hard-fail when Redis is unavailable.
type redisCache struct {
	client *redis.Client
	local  *localCache
}

func newRedisCache(cfg Config) *redisCache {
	rc := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	return &redisCache{client: rc, local: newLocalCache(cfg.Local)}
}

func (r *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return v, true, nil
	}
	if err == redis.Nil {
		return r.local.Get(ctx, key)
	}
	return r.local.Get(ctx, key)
}

func (r *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = r.local.Set(ctx, key, value, ttl)
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	_ = r.local.Delete(ctx, key)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return r.local.Exists(ctx, key)
	}
	return n > 0, nil
}

func (r *redisCache) Clear(ctx context.Context) error {
	_ = r.local.Clear(ctx)
	return r.client.FlushDB(ctx).Err()
}

func (r *redisCache) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok, _ := r.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (r *redisCache) SetMulti(ctx context.Context, values map[string]string, ttl time.Duration) error {
	for k, v := range values {
		if err := r.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (r *redisCache) DeleteMulti(ctx context.Context, keys []string) error {
	for _, k := range keys {
		_ = r.Delete(ctx, k)
	}
	return nil
}

func (r *redisCache) Close() error {
	_ = r.local.Close()
	return r.client.Close()
}

// NewCache builds a Cache from Config.Type ("local" or "redis").
func NewCache(cfg Config) (Cache, error) {
	if cfg.Type == "redis" {
		return newRedisCache(cfg), nil
	}
	return newLocalCache(cfg.Local), nil
}

var (
	globalCache Cache
	globalOnce  sync.Once
	globalMu    sync.RWMutex
)

// InitGlobalCache initializes the process-wide cache singleton.
func InitGlobalCache(cfg Config) error {
	var err error
	globalOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		globalCache, err = NewCache(cfg)
	})
	return err
}

// GetGlobalCache returns the process-wide cache, or nil if InitGlobalCache
// was never called.
func GetGlobalCache() Cache {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCache
}

// CloseGlobalCache releases the process-wide cache's resources.
func CloseGlobalCache() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCache == nil {
		return nil
	}
	err := globalCache.Close()
	globalCache = nil
	return err
}
