package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

// Class separates limiter budgets per route family. Voice is stricter
// than chat because a voice request fans out to STT and TTS spend.
type Class string

const (
	ClassChat  Class = "chat"
	ClassVoice Class = "voice"
)

type Limit struct {
	Requests int64
	Window   time.Duration
}

func DefaultLimits() map[Class]Limit {
	return map[Class]Limit{
		ClassChat:  {Requests: 10, Window: time.Minute},
		ClassVoice: {Requests: 5, Window: time.Minute},
	}
}

// Store increments the counter for a window-bucketed key and returns the
// count after the increment. Implementations must be atomic per key.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter is a fixed-window admission counter keyed by (clientKey, class).
// A store failure fails closed: the request is rejected with a retry hint
// rather than admitted unmetered.
type Limiter struct {
	store  Store
	limits map[Class]Limit
	now    func() time.Time
}

type Option func(*Limiter)

func WithLimits(limits map[Class]Limit) Option {
	return func(l *Limiter) { l.limits = limits }
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limits: DefaultLimits(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit returns nil when the request is admitted, or a RESOURCE_EXHAUSTED
// AppError carrying RetryAfterSeconds when rejected.
func (l *Limiter) Admit(ctx context.Context, clientKey string, class Class) error {
	const op = "Limiter.Admit"

	limit, ok := l.limits[class]
	if !ok {
		limit = l.limits[ClassChat]
	}

	windowSec := int64(limit.Window / time.Second)
	nowSec := l.now().Unix()
	bucket := nowSec / windowSec
	retryAfter := int((bucket+1)*windowSec - nowSec)
	if retryAfter < 1 {
		retryAfter = 1
	}

	key := "ratelimit:" + string(class) + ":" + clientKey + ":" + strconv.FormatInt(bucket, 10)

	count, err := l.store.Incr(ctx, key, limit.Window)
	if err != nil {
		return utils.RateLimited(op, retryAfter)
	}
	if count > limit.Requests {
		return utils.RateLimited(op, retryAfter)
	}
	return nil
}

// ClientKey derives a stable per-client key: the leftmost address of the
// forwarded-for chain, then the direct peer address, then an anonymous
// fallback.
func ClientKey(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}
	if remoteAddr != "" {
		return remoteAddr
	}
	return "anonymous"
}
