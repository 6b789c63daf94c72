// Package failover wraps a keyed completion transport with credential
// rotation across a key pool.
package failover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"resume-ingest/internal/keypool"
	"resume-ingest/internal/llm"
	"resume-ingest/internal/shared/metrics"
)

// DefaultBackoff is the fixed wait between attempts.
const DefaultBackoff = time.Second

// ErrAllKeysExhausted is matched by errors returned when the retry budget runs out.
var ErrAllKeysExhausted = errors.New("all api keys failed or are invalid")

// ExhaustedError carries the last transport error after the retry budget is spent.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrAllKeysExhausted.Error(), e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrAllKeysExhausted, e.Err}
}

// Pool is the subset of keypool.Pool used here.
type Pool interface {
	Select(ctx context.Context) (string, error)
	MarkInvalid(key string)
	IsInvalid(key string) bool
	Len() int
}

// Client implements llm.Client on top of a rotating credential.
type Client struct {
	pool      Pool
	transport llm.KeyedClient
	backoff   time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	active string
}

// Option configures a Client.
type Option func(*Client)

// WithBackoff sets the wait between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// New selects an initial credential from the pool.
func New(ctx context.Context, pool Pool, transport llm.KeyedClient, opts ...Option) (*Client, error) {
	if pool == nil || transport == nil {
		return nil, errors.New("failover: pool and transport are required")
	}
	c := &Client{
		pool:      pool,
		transport: transport,
		backoff:   DefaultBackoff,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	key, err := pool.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failover: initial credential: %w", err)
	}
	c.active = key
	return c, nil
}

// Complete tries the request with the active credential and rotates to a new
// one after every failure. Attempts are bounded by the pool size. A credential
// left invalid by an earlier call is replaced before the first attempt.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool.IsInvalid(c.active) {
		next, err := c.pool.Select(ctx)
		if err != nil {
			return llm.Response{}, err
		}
		c.active = next
	}

	maxAttempts := c.pool.Len()
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		metrics.IncLLMRequests()
		start := time.Now()
		resp, err := c.transport.Complete(ctx, c.active, req)
		metrics.ObserveLLMDurationMs(float64(time.Since(start).Milliseconds()))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return llm.Response{}, ctxErr
		}

		if llm.IsAuthRejected(err) {
			log.Printf("llm: credential ...%s rejected, marking invalid", llm.KeySuffix(c.active))
			c.pool.MarkInvalid(c.active)
			metrics.IncCredentialsInvalidated()
		}
		if attempt == maxAttempts {
			break
		}

		log.Printf("llm: call failed attempt=%d max=%d: %v", attempt, maxAttempts, err)
		next, selErr := c.pool.Select(ctx)
		if selErr != nil {
			return llm.Response{}, selErr
		}
		c.active = next
		metrics.IncLLMRetries()
		if err := c.sleep(ctx, c.backoff); err != nil {
			return llm.Response{}, err
		}
	}
	return llm.Response{}, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// IsFatal reports whether err means no further completion can succeed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAllKeysExhausted) || errors.Is(err, keypool.ErrAllCredentialsInvalid)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ llm.Client = (*Client)(nil)
	_ Pool       = (*keypool.Pool)(nil)
)
