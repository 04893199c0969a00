package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/pkg/logger"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// CachedResponse is a replayable snapshot of a completed request.
type CachedResponse struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, resp *CachedResponse)
	Stop()
}

type memoryEntry struct {
	resp      *CachedResponse
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps replay entries per process. Suitable for a
// single instance; use the Redis store when running more than one replica.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.resp, true
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, resp *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{resp: resp, expiresAt: time.Now().Add(s.ttl)}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RedisIdempotencyStore shares replay entries across replicas.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl, log: log}
}

func (s *RedisIdempotencyStore) redisKey(key string) string {
	return "idempotency:" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("Idempotency lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.log.Warn("Idempotency entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &resp, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, resp *CachedResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.redisKey(key), raw, s.ttl).Err(); err != nil {
		s.log.Warn("Idempotency store failed", "key", key, "error", err)
	}
}

func (s *RedisIdempotencyStore) Stop() {}

type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	wrote      bool
}

func (cw *captureWriter) WriteHeader(statusCode int) {
	if !cw.wrote {
		cw.statusCode = statusCode
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(http.StatusOK)
	}
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating methods. Only 2xx responses are cached, so failed attempts may be
// retried with the same key. Entries are scoped to the authenticated user:
// one caller's key can never replay another caller's response, so this
// middleware must run after the identity layer.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if userID, ok := UserIDFromContext(r.Context()); ok {
				key = userID + ":" + key
			}

			if cached, ok := store.Get(r.Context(), key); ok {
				w.Header().Set("Content-Type", cached.ContentType)
				w.Header().Set("X-Idempotency-Replay", "true")
				w.WriteHeader(cached.StatusCode)
				_, _ = w.Write(cached.Body)
				return
			}

			cw := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.statusCode >= 200 && cw.statusCode < 300 {
				store.Set(r.Context(), key, &CachedResponse{
					StatusCode:  cw.statusCode,
					Body:        cw.body.Bytes(),
					ContentType: cw.Header().Get("Content-Type"),
				})
			}
		})
	}
}
