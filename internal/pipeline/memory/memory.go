package memory

import (
	"context"
	"encoding/json"
	"time"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/models"
)

const (
	DefaultTTL    = time.Hour
	DefaultPrefix = "assistant:"
)

// Memory stores the compiled query for an exact prompt and the last result
// per scope. A scope is a conversation id or a user id. Backend failures are
// logged and treated as misses.
type Memory struct {
	store  Store
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func New(store Store, ttl time.Duration, prefix string, log logger.Logger) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Memory{
		store:  store,
		ttl:    ttl,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "memory"}),
	}
}

func (m *Memory) queryKey(scope string) string {
	return m.prefix + "query:" + scope
}

func (m *Memory) contextKey(scope string) string {
	return m.prefix + "context:" + scope
}

// CachedQuery returns the compiled query remembered for scope when it was
// compiled from exactly prompt. Comparison is case-sensitive.
func (m *Memory) CachedQuery(ctx context.Context, scope, prompt string) (models.CompiledQuery, bool) {
	var cached models.CachedQuery
	if !m.load(ctx, "query", m.queryKey(scope), &cached) {
		return models.CompiledQuery{}, false
	}
	if cached.Prompt != prompt {
		metrics.MemoryLookups.WithLabelValues("query", "stale").Inc()
		return models.CompiledQuery{}, false
	}
	return cached.Query, true
}

// RememberQuery overwrites the cached query for scope.
func (m *Memory) RememberQuery(ctx context.Context, scope, prompt string, q models.CompiledQuery) {
	m.save(ctx, m.queryKey(scope), models.CachedQuery{Prompt: prompt, Query: q})
}

// Context returns the last successful execution for scope.
func (m *Memory) Context(ctx context.Context, scope string) (*models.ConversationContext, bool) {
	var c models.ConversationContext
	if !m.load(ctx, "context", m.contextKey(scope), &c) {
		return nil, false
	}
	return &c, true
}

// RememberContext overwrites the last execution for scope.
func (m *Memory) RememberContext(ctx context.Context, scope string, c models.ConversationContext) {
	m.save(ctx, m.contextKey(scope), c)
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Memory) load(ctx context.Context, kind, key string, v interface{}) bool {
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		metrics.MemoryLookups.WithLabelValues(kind, "error").Inc()
		m.logger.Warn("memory lookup failed", map[string]interface{}{"key": key, "error": err})
		return false
	}
	if !ok {
		metrics.MemoryLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		metrics.MemoryLookups.WithLabelValues(kind, "error").Inc()
		m.logger.Warn("discarding unreadable memory entry", map[string]interface{}{"key": key, "error": err})
		return false
	}
	metrics.MemoryLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (m *Memory) save(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("encode memory entry", map[string]interface{}{"key": key, "error": err})
		return
	}
	if err := m.store.Set(ctx, key, raw, m.ttl); err != nil {
		m.logger.Warn("memory write failed", map[string]interface{}{"key": key, "error": err})
	}
}
