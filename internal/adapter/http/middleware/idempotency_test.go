package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
	"github.com/iho/gofinance/internal/usecase/mocks"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	deleteFn      func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Delete(ctx context.Context, key string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, key)
	}
	return nil
}

func postWithKey(path, key, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("symbol=AAPL&shares=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if userID != "" {
		req = req.WithContext(ContextWithSession(req.Context(), &domain.Session{ID: "s-" + userID, UserID: userID}))
	}
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/buy", "key-err", "user-1"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyOnFailure(t *testing.T) {
	var updated, deleted bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, postWithKey("/buy", "key-fail", "user-1"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if !deleted {
		t.Fatalf("expected key to be released")
	}
}

func TestIdempotencyMiddleware_SkipsRequestsWithoutKey(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			t.Fatal("store should not be consulted")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/history", nil),
		postWithKey("/buy", "", "user-1"),
	} {
		called := false
		mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})).ServeHTTP(httptest.NewRecorder(), req)

		if !called {
			t.Fatalf("expected next handler to be called for %s %s", req.Method, req.URL.Path)
		}
	}
}

func TestIdempotencyMiddleware_InProgress(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(usecase.IdempotencyProcessingMarker), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the first request is in flight")
	})).ServeHTTP(rr, postWithKey("/buy", "key-busy", "user-1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysRedirect(t *testing.T) {
	replays := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_replays_total"})
	mw := NewIdempotencyMiddleware(mocks.NewMemoryIdempotencyStore(), time.Hour).CountReplays(replays)

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("/buy", "key-1", "user-1"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, postWithKey("/buy", "key-1", "user-1"))

	if calls != 1 {
		t.Fatalf("expected the trade handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusSeeOther || second.Header().Get("Location") != "/" {
		t.Fatalf("expected replayed redirect, got %d %q", second.Code, second.Header().Get("Location"))
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected %s header to be set", IdempotencyReplayHeader)
	}
	if got := testutil.ToFloat64(replays); got != 1 {
		t.Fatalf("expected one replay to be counted, got %v", got)
	}
}

func TestIdempotencyMiddleware_ReplaysJSON(t *testing.T) {
	mw := NewIdempotencyMiddleware(mocks.NewMemoryIdempotencyStore(), time.Hour)

	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"txn-1"}`))
	}))

	h.ServeHTTP(httptest.NewRecorder(), postWithKey("/sell", "key-2", "user-1"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postWithKey("/sell", "key-2", "user-1"))

	if rr.Body.String() != `{"id":"txn-1"}` || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected replay: %q %q", rr.Body.String(), rr.Header().Get("Content-Type"))
	}
}

func TestIdempotencyMiddleware_KeysAreScoped(t *testing.T) {
	mw := NewIdempotencyMiddleware(mocks.NewMemoryIdempotencyStore(), time.Hour)

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), postWithKey("/buy", "shared", "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), postWithKey("/buy", "shared", "user-2"))
	h.ServeHTTP(httptest.NewRecorder(), postWithKey("/sell", "shared", "user-1"))

	if calls != 3 {
		t.Fatalf("expected keys to be scoped by user and route, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_RetryAfterFailure(t *testing.T) {
	mw := NewIdempotencyMiddleware(mocks.NewMemoryIdempotencyStore(), time.Hour)

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("/buy", "retry", "user-1"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, postWithKey("/buy", "retry", "user-1"))

	if first.Code != http.StatusServiceUnavailable || second.Code != http.StatusOK || calls != 2 {
		t.Fatalf("expected retry to run the handler again, got %d then %d (%d calls)", first.Code, second.Code, calls)
	}
}

// cancelAwareStore fails writes on a cancelled context, as redis does.
type cancelAwareStore struct {
	*mocks.MemoryIdempotencyStore
}

func (s cancelAwareStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryIdempotencyStore.Update(ctx, key, response, ttl)
}

func (s cancelAwareStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryIdempotencyStore.Delete(ctx, key)
}

func TestIdempotencyMiddleware_ReleasesKeyAfterClientDisconnect(t *testing.T) {
	mw := NewIdempotencyMiddleware(cancelAwareStore{mocks.NewMemoryIdempotencyStore()}, time.Hour)

	first := postWithKey("/buy", "gone", "user-1")
	ctx, cancel := context.WithCancel(first.Context())
	first = first.WithContext(ctx)

	calls := 0
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	})).ServeHTTP(httptest.NewRecorder(), first)

	retry := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(retry, postWithKey("/buy", "gone", "user-1"))

	if retry.Code != http.StatusOK || calls != 2 {
		t.Fatalf("expected the retry to run after a disconnect, got %d (%d calls)", retry.Code, calls)
	}
}

func TestIdempotencyMiddleware_StoresResponseAfterClientDisconnect(t *testing.T) {
	store := cancelAwareStore{mocks.NewMemoryIdempotencyStore()}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := postWithKey("/buy", "late", "user-1")
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(httptest.NewRecorder(), req)

	replayed := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("committed trade must not run twice")
	})).ServeHTTP(replayed, postWithKey("/buy", "late", "user-1"))

	if replayed.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected stored response to be replayed, got %d", replayed.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyAfterPanic(t *testing.T) {
	mw := NewIdempotencyMiddleware(mocks.NewMemoryIdempotencyStore(), time.Hour)

	calls := 0
	h := Recovery(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusOK)
	})))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("/buy", "panicky", "user-1"))

	retry := httptest.NewRecorder()
	h.ServeHTTP(retry, postWithKey("/buy", "panicky", "user-1"))

	if first.Code != http.StatusInternalServerError || retry.Code != http.StatusOK || calls != 2 {
		t.Fatalf("expected 500 then a fresh run, got %d then %d (%d calls)", first.Code, retry.Code, calls)
	}
}
