package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket guarding one upstream provider.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a limiter refilling perSecond tokens per second with
// room for burst tokens. A non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{lim: rate.NewLimiter(limit, burst)}
}

// Allow checks if a request can proceed immediately.
// Returns true if a token is available and consumed.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.lim.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.lim.Wait(ctx)
}

// Limiters holds one limiter per upstream provider.
type Limiters struct {
	Naver     *Limiter
	Domeggook *Limiter
	Kakao     *Limiter
}

// NewDefaultLimiters creates limiters with conservative defaults for each API.
func NewDefaultLimiters() *Limiters {
	return &Limiters{
		// Naver open API: 25,000 calls/day per app, bursts are tolerated.
		Naver: NewLimiter(10, 10),

		// Domeggook does not publish a quota; stay polite.
		Domeggook: NewLimiter(5, 5),

		// Kakao memo API is per-user; a small bucket is plenty.
		Kakao: NewLimiter(5, 3),
	}
}

// NewCustomLimiters creates limiters with custom per-second rates. The burst
// equals the rate rounded up so a one-second window can be used in full.
// A non-positive rate keeps that provider's default limiter.
func NewCustomLimiters(naverRate, domeggookRate, kakaoRate float64) *Limiters {
	l := NewDefaultLimiters()
	if naverRate > 0 {
		l.Naver = NewLimiter(naverRate, burstFor(naverRate))
	}
	if domeggookRate > 0 {
		l.Domeggook = NewLimiter(domeggookRate, burstFor(domeggookRate))
	}
	if kakaoRate > 0 {
		l.Kakao = NewLimiter(kakaoRate, burstFor(kakaoRate))
	}
	return l
}

func burstFor(perSecond float64) int {
	return max(1, int(math.Ceil(perSecond)))
}
