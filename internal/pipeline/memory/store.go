// Package memory keeps short-lived follow-up state per user or conversation
// behind a narrow get/set contract.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"shop-assistant/internal/common/logger"
)

// Store is a TTL key-value store. Get reports a miss with ok=false.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RedisStore is the shared store used when more than one instance serves traffic.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// LocalStore is a single-process fallback. Expired entries are hidden on read
// and removed by a cron sweep.
type LocalStore struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	now     func() time.Time
	cron    *cron.Cron
	logger  logger.Logger
}

// NewLocalStore schedules the sweep with a cron spec such as "@every 1m".
func NewLocalStore(schedule string, log logger.Logger) (*LocalStore, error) {
	s := &LocalStore{
		entries: make(map[string]localEntry),
		now:     time.Now,
		cron:    cron.New(),
		logger:  log.WithFields(map[string]interface{}{"component": "local-memory"}),
	}
	if schedule == "" {
		schedule = "@every 1m"
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("schedule memory sweep: %w", err)
	}
	return s, nil
}

// Start runs the sweep scheduler in its own goroutine.
func (s *LocalStore) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *LocalStore) Stop() {
	<-s.cron.Stop().Done()
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = localEntry{value: append([]byte(nil), value...), expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) Ping(context.Context) error {
	return nil
}

// Sweep deletes expired entries and returns how many were removed.
func (s *LocalStore) Sweep() int {
	now := s.now()
	removed := 0
	s.mu.Lock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("swept expired entries", map[string]interface{}{"removed": removed, "remaining": remaining})
	}
	return removed
}
