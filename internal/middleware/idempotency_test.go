package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// memoryResponseStore is an in-memory ResponseStore without TTL handling.
type memoryResponseStore struct {
	mu   sync.Mutex
	data map[string][]byte

	getError error
}

func newMemoryResponseStore() *memoryResponseStore {
	return &memoryResponseStore{data: make(map[string][]byte)}
}

func (s *memoryResponseStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getError != nil {
		return nil, s.getError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryResponseStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func newIdempotencyRouter(store ResponseStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(IdempotencyMiddleware(store))
	router.POST("/payments", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusCreated, gin.H{"id": "pay-1"})
	})
	router.GET("/payments", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"id": "pay-1"})
	})
	return router
}

func postWithKey(router *gin.Engine, key string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestIdempotencyMiddleware_ReplaysCachedResponse(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	calls := 0
	router := newIdempotencyRouter(store, &calls)

	first := postWithKey(router, "key-1")
	second := postWithKey(router, "key-1")

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != first.Code {
		t.Errorf("replay must carry the original status: %d vs %d", second.Code, first.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replay must carry the original body: %q vs %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyMiddleware_DistinctKeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	calls := 0
	router := newIdempotencyRouter(store, &calls)

	postWithKey(router, "key-1")
	postWithKey(router, "key-2")

	if calls != 2 {
		t.Errorf("expected handler to run twice, ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_NoKeyPassesThrough(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	calls := 0
	router := newIdempotencyRouter(store, &calls)

	postWithKey(router, "")
	postWithKey(router, "")

	if calls != 2 {
		t.Errorf("expected handler to run twice without a key, ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_ReadsNotCached(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	calls := 0
	router := newIdempotencyRouter(store, &calls)

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/payments", nil)
		req.Header.Set(idempotencyHeader, "key-1")
		router.ServeHTTP(recorder, req)
	}

	if calls != 2 {
		t.Errorf("GET requests must bypass the cache, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_StoreFailureServesUncached(t *testing.T) {
	t.Parallel()

	store := newMemoryResponseStore()
	store.getError = context.DeadlineExceeded
	calls := 0
	router := newIdempotencyRouter(store, &calls)

	first := postWithKey(router, "key-1")
	postWithKey(router, "key-1")

	if first.Code != http.StatusCreated {
		t.Errorf("expected 201 despite cache failure, got %d", first.Code)
	}
	if calls != 2 {
		t.Errorf("cache failure must fall through to the handler, ran %d times", calls)
	}
}
