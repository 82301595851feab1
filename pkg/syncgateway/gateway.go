package syncgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
)

// Defaults for Config fields left zero.
const (
	DefaultBatchSize  = 25
	DefaultBackoff    = time.Second
	DefaultMaxBackoff = 30 * time.Second

	maxResponseBody = 1 << 20
)

// Config tunes a Gateway.
type Config struct {
	// BaseURL is prefixed to every op path.
	BaseURL string

	// TokenFunc supplies the bearer token for outgoing calls. Optional.
	TokenFunc func() string

	// OnReject is called when a replayed op is dropped on a 4xx. Optional.
	OnReject func(op Op, status int)

	// BatchSize caps how many ops one replay round sends.
	BatchSize int

	// Backoff and MaxBackoff bound the delay between failed replay rounds.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// HTTPClient defaults to a client with a 10 second timeout.
	HTTPClient *http.Client
}

// Gateway sends mutating API calls for the mobile client, queueing them
// while the device is offline and replaying the queue strictly in enqueue
// order. Delivery is at-least-once; the server deduplicates by request id.
type Gateway struct {
	store      *Store
	client     *http.Client
	baseURL    string
	tokenFunc  func() string
	onReject   func(Op, int)
	batchSize  int
	backoff    time.Duration
	maxBackoff time.Duration
	online     atomic.Bool
	kick       chan struct{}
	log        *logger.Logger
}

// New creates a gateway over the given queue store. The gateway starts
// online; the connectivity monitor drives SetOnline from there.
func New(store *Store, cfg Config, log *logger.Logger) *Gateway {
	g := &Gateway{
		store:      store,
		client:     cfg.HTTPClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokenFunc:  cfg.TokenFunc,
		onReject:   cfg.OnReject,
		batchSize:  cfg.BatchSize,
		backoff:    cfg.Backoff,
		maxBackoff: cfg.MaxBackoff,
		kick:       make(chan struct{}, 1),
		log:        log,
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 10 * time.Second}
	}
	if g.batchSize <= 0 {
		g.batchSize = DefaultBatchSize
	}
	if g.backoff <= 0 {
		g.backoff = DefaultBackoff
	}
	if g.maxBackoff <= 0 {
		g.maxBackoff = DefaultMaxBackoff
	}
	g.online.Store(true)
	return g
}

// SetOnline records the device connectivity state. Coming back online wakes
// the replay loop.
func (g *Gateway) SetOnline(online bool) {
	prev := g.online.Swap(online)
	if prev == online {
		return
	}
	if online {
		g.log.Info(logger.Entry{Action: "gateway_online", Message: "connectivity restored"})
		g.wake()
	} else {
		g.log.Info(logger.Entry{Action: "gateway_offline", Message: "connectivity lost"})
	}
}

// Online reports the last known connectivity state.
func (g *Gateway) Online() bool {
	return g.online.Load()
}

// Pending reports how many ops wait in the queue.
func (g *Gateway) Pending(ctx context.Context) (int, error) {
	return g.store.Len(ctx)
}

// Do sends the op immediately when the device is online and the queue is
// empty. When offline, behind a backlog, or on a network failure the op is
// queued and the result comes back with Queued set. An op without a request
// id gets one here.
func (g *Gateway) Do(ctx context.Context, op Op) (*Result, error) {
	if op.RequestID == "" {
		op.RequestID = uuid.NewString()
	}

	if !g.online.Load() {
		return g.enqueue(ctx, op)
	}

	// new ops go behind an existing backlog so replay order holds
	pending, err := g.store.Len(ctx)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return g.enqueue(ctx, op)
	}

	resp, err := g.send(ctx, op)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.SetOnline(false)
		return g.enqueue(ctx, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Result{Status: resp.StatusCode, Body: body}, nil
}

// Run replays queued ops until ctx is cancelled. Failed rounds back off
// exponentially up to the configured cap; coming back online or a fresh
// enqueue retries immediately.
func (g *Gateway) Run(ctx context.Context) error {
	delay := g.backoff
	for {
		if !g.online.Load() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.kick:
			}
			continue
		}

		progressed, err := g.flushBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.log.Warn(logger.Entry{
				Action:  "replay_round_failed",
				Message: err.Error(),
				Additional: map[string]any{
					"retry_in": delay.String(),
				},
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			case <-g.kick:
			}
			delay *= 2
			if delay > g.maxBackoff {
				delay = g.maxBackoff
			}
			continue
		}

		delay = g.backoff
		if progressed {
			// keep draining
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.kick:
		}
	}
}

// flushBatch sends one batch in seq order. It reports whether any op left
// the queue. Network errors and 5xx answers stop the batch so the failed op
// stays at the head.
func (g *Gateway) flushBatch(ctx context.Context) (bool, error) {
	ops, err := g.store.NextBatch(ctx, g.batchSize)
	if err != nil {
		return false, err
	}
	if len(ops) == 0 {
		return false, nil
	}

	progressed := false
	for _, op := range ops {
		resp, err := g.send(ctx, *op)
		if err != nil {
			_ = g.store.MarkAttempt(ctx, op.Seq)
			return progressed, fmt.Errorf("send %s %s: %w", op.Method, op.Path, err)
		}
		status := resp.StatusCode
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		_ = resp.Body.Close()

		switch {
		case status >= 200 && status < 300:
			if err := g.store.Delete(ctx, op.Seq); err != nil {
				return progressed, err
			}
			progressed = true
			metrics.SyncOpsReplayed.Inc()

		case status >= 400 && status < 500:
			// the server said no; retrying the same op cannot succeed
			if err := g.store.Delete(ctx, op.Seq); err != nil {
				return progressed, err
			}
			progressed = true
			g.log.Warn(logger.Entry{
				Action:  "op_rejected",
				Message: fmt.Sprintf("%s %s rejected with %d", op.Method, op.Path, status),
				Additional: map[string]any{
					"request_id": op.RequestID,
					"status":     status,
				},
			})
			if g.onReject != nil {
				g.onReject(*op, status)
			}

		default:
			_ = g.store.MarkAttempt(ctx, op.Seq)
			return progressed, fmt.Errorf("server answered %d for %s %s", status, op.Method, op.Path)
		}
	}
	return progressed, nil
}

func (g *Gateway) enqueue(ctx context.Context, op Op) (*Result, error) {
	if err := g.store.Enqueue(ctx, &op); err != nil {
		return nil, err
	}
	g.log.Debug(logger.Entry{
		Action:  "op_queued",
		Message: fmt.Sprintf("%s %s queued for replay", op.Method, op.Path),
		Additional: map[string]any{
			"request_id": op.RequestID,
		},
	})
	g.wake()
	return &Result{Queued: true}, nil
}

func (g *Gateway) send(ctx context.Context, op Op) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, op.Method, g.baseURL+op.Path, bytes.NewReader(op.Body))
	if err != nil {
		return nil, err
	}
	if len(op.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", op.RequestID)
	if g.tokenFunc != nil {
		if token := g.tokenFunc(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return g.client.Do(req)
}

// wake nudges the replay loop without blocking.
func (g *Gateway) wake() {
	select {
	case g.kick <- struct{}{}:
	default:
	}
}
