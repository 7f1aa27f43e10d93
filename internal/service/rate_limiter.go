package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"brevio/web/internal/logger"
)

// DefaultRateLimit is the default QPS towards the summarization service.
const DefaultRateLimit = 10

// RateLimiter spaces out exchanges with the summarization service so a burst
// of submissions cannot flood it. It only delays; it never rejects or retries.
type RateLimiter struct {
	limiter *rate.Limiter
	qps     int
}

// NewRateLimiter creates a limiter with the given QPS; qps <= 0 uses the default.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(qps), qps), qps: qps}
}

// Limit returns the configured QPS.
func (r *RateLimiter) Limit() int {
	return r.qps
}

// Wait blocks until the next exchange may start or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited >= 50*time.Millisecond {
		logger.Debug("summary request delayed", "module", "service", "action", "throttle", "resource", "summary", "result", "ok", "qps", r.qps, "waited_ms", waited.Milliseconds())
	}
	return nil
}
