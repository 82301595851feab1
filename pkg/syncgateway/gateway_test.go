package syncgateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

type seenRequest struct {
	Method    string
	Path      string
	RequestID string
	Auth      string
	Body      string
}

// requestLog records what the fake server saw and which status each path
// should answer with.
type requestLog struct {
	mu       sync.Mutex
	seen     []seenRequest
	statuses map[string]int
}

func (l *requestLog) setStatus(path string, status int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses[path] = status
}

func (l *requestLog) paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.seen))
	for _, s := range l.seen {
		out = append(out, s.Path)
	}
	return out
}

func (l *requestLog) first() seenRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[0]
}

func (l *requestLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

func newTestServer(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()
	reqLog := &requestLog{statuses: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqLog.mu.Lock()
		reqLog.seen = append(reqLog.seen, seenRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			Auth:      r.Header.Get("Authorization"),
			Body:      string(body),
		})
		status := reqLog.statuses[r.URL.Path]
		reqLog.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, reqLog
}

func newTestGateway(t *testing.T, baseURL string, onReject func(Op, int)) *Gateway {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(store, Config{
		BaseURL:    baseURL,
		TokenFunc:  func() string { return "test-token" },
		OnReject:   onReject,
		Backoff:    10 * time.Millisecond,
		MaxBackoff: 50 * time.Millisecond,
	}, logger.NewLogger("syncgateway_test"))
}

func TestDoDeliversWhenOnline(t *testing.T) {
	srv, reqLog := newTestServer(t)
	gw := newTestGateway(t, srv.URL, nil)

	res, err := gw.Do(context.Background(), Op{
		Method: http.MethodPost,
		Path:   "/visits/start-journey",
		Body:   []byte(`{"jobId":"JOB-1"}`),
	})
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"ok":true}`, string(res.Body))

	require.Equal(t, 1, reqLog.count())
	first := reqLog.first()
	assert.Equal(t, http.MethodPost, first.Method)
	assert.NotEmpty(t, first.RequestID)
	assert.Equal(t, "Bearer test-token", first.Auth)
	assert.JSONEq(t, `{"jobId":"JOB-1"}`, first.Body)
}

func TestDoQueuesWhenOffline(t *testing.T) {
	srv, reqLog := newTestServer(t)
	gw := newTestGateway(t, srv.URL, nil)
	gw.SetOnline(false)

	res, err := gw.Do(context.Background(), Op{Method: http.MethodPost, Path: "/location"})
	require.NoError(t, err)
	assert.True(t, res.Queued)

	pending, err := gw.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Zero(t, reqLog.count())
}

func TestDoQueuesBehindBacklog(t *testing.T) {
	srv, reqLog := newTestServer(t)
	gw := newTestGateway(t, srv.URL, nil)

	require.NoError(t, gw.store.Enqueue(context.Background(),
		&Op{RequestID: "req-backlog", Method: http.MethodPost, Path: "/location"}))

	res, err := gw.Do(context.Background(), Op{Method: http.MethodPost, Path: "/visits/start-journey"})
	require.NoError(t, err)
	assert.True(t, res.Queued)

	pending, err := gw.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
	assert.Zero(t, reqLog.count())
}

func TestDoQueuesOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := newTestGateway(t, url, nil)

	res, err := gw.Do(context.Background(), Op{Method: http.MethodPost, Path: "/location"})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.False(t, gw.Online())
}

func TestRunReplaysInOrderAndDropsRejected(t *testing.T) {
	srv, reqLog := newTestServer(t)
	reqLog.setStatus("/b", http.StatusConflict)

	var (
		rejectedMu sync.Mutex
		rejected   []string
	)
	gw := newTestGateway(t, srv.URL, func(op Op, status int) {
		rejectedMu.Lock()
		defer rejectedMu.Unlock()
		rejected = append(rejected, op.Path)
		assert.Equal(t, http.StatusConflict, status)
	})
	gw.SetOnline(false)

	for _, path := range []string{"/a", "/b", "/c"} {
		res, err := gw.Do(context.Background(), Op{Method: http.MethodPost, Path: path})
		require.NoError(t, err)
		require.True(t, res.Queued)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	gw.SetOnline(true)

	require.Eventually(t, func() bool {
		n, err := gw.Pending(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, []string{"/a", "/b", "/c"}, reqLog.paths())
	rejectedMu.Lock()
	defer rejectedMu.Unlock()
	assert.Equal(t, []string{"/b"}, rejected)
}

func TestRunHoldsBatchBehindServerError(t *testing.T) {
	srv, reqLog := newTestServer(t)
	reqLog.setStatus("/a", http.StatusInternalServerError)

	gw := newTestGateway(t, srv.URL, nil)
	gw.SetOnline(false)
	for _, path := range []string{"/a", "/b"} {
		_, err := gw.Do(context.Background(), Op{Method: http.MethodPost, Path: path})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	gw.SetOnline(true)

	// the 5xx keeps the head op queued and /b never jumps the line
	require.Eventually(t, func() bool {
		ops, err := gw.store.NextBatch(context.Background(), 10)
		return err == nil && len(ops) == 2 && ops[0].Attempts >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, reqLog.paths(), "/b")

	reqLog.setStatus("/a", http.StatusOK)

	require.Eventually(t, func() bool {
		n, err := gw.Pending(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	paths := reqLog.paths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/b", paths[len(paths)-1])
	bCount := 0
	for _, p := range paths {
		if p == "/b" {
			bCount++
		}
	}
	assert.Equal(t, 1, bCount)
}
