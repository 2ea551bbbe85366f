package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	rapidQueueKey     = "rapidapi:queue"
	rapidQueueTTL     = time.Minute
	rapidPollInterval = 50 * time.Millisecond
	rapidRatePerSec   = 4
	rapidMaxRetries   = 5
	rapidBackoffBase  = time.Second
	rapidBackoffLimit = 30 * time.Second
)

// RapidAPIThrottle serializes outbound RapidAPI calls across all processes
// through a Redis FIFO list and paces the drain at 4 requests per second.
// Callers enqueue a ticket with RPUSH and may proceed once their ticket is at
// the head of the list; HTTP 429 responses retry with capped exponential
// backoff.
type RapidAPIThrottle struct {
	redis   *redis.Client
	client  *http.Client
	limiter *rate.Limiter
}

// NewRapidAPIThrottle constructs a throttle over the shared Redis client.
func NewRapidAPIThrottle(rdb *redis.Client, client *http.Client) *RapidAPIThrottle {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RapidAPIThrottle{
		redis:   rdb,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rapidRatePerSec), 1),
	}
}

// acquire blocks until this caller's ticket reaches the front of the queue
// and the local limiter admits a request.
func (t *RapidAPIThrottle) acquire(ctx context.Context) (release func(), err error) {
	ticket := uuid.NewString()

	if err := t.redis.RPush(ctx, rapidQueueKey, ticket).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue rapidapi ticket: %w", err)
	}
	// Expiry guards against tickets orphaned by crashed processes.
	t.redis.Expire(ctx, rapidQueueKey, rapidQueueTTL)

	remove := func() {
		t.redis.LRem(context.Background(), rapidQueueKey, 1, ticket)
	}

	for {
		head, err := t.redis.LIndex(ctx, rapidQueueKey, 0).Result()
		if err != nil && err != redis.Nil {
			remove()
			return nil, fmt.Errorf("failed to inspect rapidapi queue: %w", err)
		}
		if err == redis.Nil {
			// Queue expired from under us; re-enqueue.
			if err := t.redis.RPush(ctx, rapidQueueKey, ticket).Err(); err != nil {
				return nil, fmt.Errorf("failed to re-enqueue rapidapi ticket: %w", err)
			}
			t.redis.Expire(ctx, rapidQueueKey, rapidQueueTTL)
			continue
		}

		if head == ticket {
			if err := t.limiter.Wait(ctx); err != nil {
				remove()
				return nil, err
			}
			return func() {
				t.redis.LPop(context.Background(), rapidQueueKey)
			}, nil
		}

		select {
		case <-time.After(rapidPollInterval):
		case <-ctx.Done():
			remove()
			return nil, ctx.Err()
		}
	}
}

// Do executes the request under the throttle. The request is rebuilt from
// makeReq on every attempt so bodies are fresh; 429 responses are retried.
func (t *RapidAPIThrottle) Do(ctx context.Context, makeReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt < rapidMaxRetries; attempt++ {
		release, err := t.acquire(ctx)
		if err != nil {
			return nil, err
		}

		req, err := makeReq(ctx)
		if err != nil {
			release()
			return nil, err
		}

		resp, err := t.client.Do(req)
		release()
		if err != nil {
			return nil, fmt.Errorf("rapidapi request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()

		wait := rapidBackoffWait(attempt, retryAfter)
		log.Printf("rapidapi rate limited, retrying in %s (attempt %d)", wait, attempt+1)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("rapidapi request gave up after %d rate limit retries", rapidMaxRetries)
}

func rapidBackoffWait(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if d, err := time.ParseDuration(retryAfter + "s"); err == nil && d >= 0 {
			return d
		}
	}
	wait := rapidBackoffBase << attempt
	if wait > rapidBackoffLimit {
		wait = rapidBackoffLimit
	}
	return wait
}
