package pdl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/circuit"
	"punsj/pkg/requestcontext"
)

func pdlServer(t *testing.T, status int, body string, seen func(*http.Request, queryRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			seen(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientActorID(t *testing.T) {
	t.Run("sends graphql query with nav headers", func(t *testing.T) {
		body := `{"data":{"hentIdenter":{"identer":[
			{"ident":"1000000000001","historisk":true,"gruppe":"AKTORID"},
			{"ident":"1000000000002","historisk":false,"gruppe":"AKTORID"}]}}}`
		srv := pdlServer(t, http.StatusOK, body, func(r *http.Request, req queryRequest) {
			assert.Equal(t, "/graphql", r.URL.Path)
			assert.Equal(t, "k9-punsj", r.Header.Get("Nav-Consumer-Id"))
			assert.Equal(t, "OMS", r.Header.Get("Tema"))
			assert.Equal(t, "call-1", r.Header.Get("Nav-Callid"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "01010050053", req.Variables.Ident)
			assert.Equal(t, []string{"AKTORID"}, req.Variables.Grupper)
			assert.Contains(t, req.Query, "hentIdenter")
		})

		ctx := requestcontext.WithCorrelationID(context.Background(), "call-1")
		ctx = requestcontext.WithBearerToken(ctx, "tok")
		got, err := New(srv.URL, time.Second).ActorID(ctx, "01010050053")
		require.NoError(t, err)
		assert.Equal(t, domain.ActorID("1000000000002"), got)
	})

	t.Run("no ident is not found", func(t *testing.T) {
		srv := pdlServer(t, http.StatusOK, `{"data":{"hentIdenter":null},"errors":[{"message":"Fant ikke person"}]}`, nil)
		_, err := New(srv.URL, time.Second).ActorID(context.Background(), "01010050053")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Equal(t, "Fant ikke aktørId i PDL", dErrors.MessageOf(err))
	})

	t.Run("forbidden", func(t *testing.T) {
		srv := pdlServer(t, http.StatusForbidden, `{}`, nil)
		_, err := New(srv.URL, time.Second).ActorID(context.Background(), "01010050053")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("server errors are retried then unavailable", func(t *testing.T) {
		var calls atomic.Int32
		srv := pdlServer(t, http.StatusBadGateway, `{}`, func(*http.Request, queryRequest) { calls.Add(1) })
		_, err := New(srv.URL, time.Second, WithRetry(2)).ActorID(context.Background(), "01010050053")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Equal(t, int32(3), calls.Load())
	})
}

type countingResolver struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	mu      sync.Mutex
	ctxErr  error
}

func (r *countingResolver) ActorID(ctx context.Context, nid domain.NationalID) (domain.ActorID, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.ctxErr = ctx.Err()
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	return domain.ActorID("aktor-" + nid.String()), nil
}

func (r *countingResolver) lastCtxErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctxErr
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from redis", func(t *testing.T) {
		mr, client := newRedis(t)
		next := &countingResolver{}
		cached := NewCachedResolver(next, client, time.Hour)

		first, err := cached.ActorID(ctx, "01010050053")
		require.NoError(t, err)
		second, err := cached.ActorID(ctx, "01010050053")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), next.calls.Load())

		key := cacheKey("01010050053")
		assert.True(t, mr.Exists(key))
		assert.NotContains(t, key, "01010050053")
		assert.Equal(t, time.Hour, mr.TTL(key))
	})

	t.Run("errors are not cached", func(t *testing.T) {
		mr, client := newRedis(t)
		next := &countingResolver{err: dErrors.New(dErrors.CodeNotFound, "Fant ikke aktørId i PDL")}
		cached := NewCachedResolver(next, client, time.Hour)

		_, err := cached.ActorID(ctx, "01010050053")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.False(t, mr.Exists(cacheKey("01010050053")))
	})

	t.Run("redis outage falls through", func(t *testing.T) {
		mr, client := newRedis(t)
		mr.Close()
		next := &countingResolver{}

		got, err := NewCachedResolver(next, client, time.Hour).ActorID(ctx, "01010050053")
		require.NoError(t, err)
		assert.Equal(t, domain.ActorID("aktor-01010050053"), got)
	})

	t.Run("open breaker skips writes until redis recovers", func(t *testing.T) {
		mr, client := newRedis(t)
		next := &countingResolver{}
		breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(2))
		cached := NewCachedResolver(next, client, time.Hour, WithCacheBreaker(breaker))

		mr.Close()
		_, err := cached.ActorID(ctx, "01010050053")
		require.NoError(t, err)
		assert.True(t, breaker.IsOpen())

		require.NoError(t, mr.Restart())
		_, err = cached.ActorID(ctx, "01010050053")
		require.NoError(t, err)
		assert.False(t, mr.Exists(cacheKey("01010050053")))

		_, err = cached.ActorID(ctx, "01010050053")
		require.NoError(t, err)
		assert.False(t, breaker.IsOpen())
		assert.True(t, mr.Exists(cacheKey("01010050053")))
	})

	t.Run("shared lookup survives the first caller leaving", func(t *testing.T) {
		next := &countingResolver{release: make(chan struct{})}
		cached := NewCachedResolver(next, nil, time.Hour, WithLookupTimeout(time.Minute))

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := cached.ActorID(firstCtx, "01010050053")
			firstErr <- err
		}()
		require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		second := make(chan domain.ActorID, 1)
		go func() {
			got, err := cached.ActorID(ctx, "01010050053")
			assert.NoError(t, err)
			second <- got
		}()
		time.Sleep(50 * time.Millisecond)

		cancelFirst()
		err := <-firstErr
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

		close(next.release)
		assert.Equal(t, domain.ActorID("aktor-01010050053"), <-second)
		assert.NoError(t, next.lastCtxErr())
		assert.Equal(t, int32(1), next.calls.Load())
	})

	t.Run("concurrent lookups are coalesced", func(t *testing.T) {
		next := &countingResolver{release: make(chan struct{})}
		cached := NewCachedResolver(next, nil, time.Hour)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := cached.ActorID(ctx, "01010050053")
				assert.NoError(t, err)
				assert.Equal(t, domain.ActorID("aktor-01010050053"), got)
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(next.release)
		wg.Wait()

		assert.Equal(t, int32(1), next.calls.Load())
	})
}
