package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/response"
)

type ILimiter interface {
	Allow() bool
}

/*
TokenBucket
每經過 RefillRate 補一個 token，最多 Capacity 個
補充在 Allow 時計算，不需要背景 goroutine
*/
type TokenBucket struct {
	capacity     int
	refillRate   time.Duration
	mu           sync.Mutex
	current      int
	lastRefilled time.Time
	now          func() time.Time
}

func NewTokenBucket(capacity int, refillRate time.Duration) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	t := &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		current:    capacity,
		now:        time.Now,
	}
	t.lastRefilled = t.now()
	return t
}

func (t *TokenBucket) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refill()
	if t.current <= 0 {
		return false
	}
	t.current--
	return true
}

func (t *TokenBucket) refill() {
	now := t.now()
	n := int(now.Sub(t.lastRefilled) / t.refillRate)
	if n <= 0 {
		return
	}
	t.current += n
	if t.current >= t.capacity {
		t.current = t.capacity
		t.lastRefilled = now
		return
	}
	t.lastRefilled = t.lastRefilled.Add(time.Duration(n) * t.refillRate)
}

// NewRateLimitMiddleware 超過限制回 429
func NewRateLimitMiddleware(limiter ILimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.ErrorJSON(w, http.StatusTooManyRequests, "Too Many Requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
