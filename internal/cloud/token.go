package cloud

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/printhq/cloudprint/internal/metrics"
)

// TokenProvider supplies bearer tokens for device-authenticated requests.
// An empty token with a nil error means no token is available.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed token. Used by the CLI when the
// token is provisioned out of band.
type StaticTokenProvider struct {
	Token string
}

func (p *StaticTokenProvider) AccessToken(ctx context.Context) (string, error) {
	return p.Token, nil
}

// CachingTokenProvider caches the inner provider's token until the exp
// claim of the token itself, when the token is a JWT. The claim is decoded
// without signature verification; verifying is the server's job.
type CachingTokenProvider struct {
	Provider TokenProvider
	Leeway   time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (p *CachingTokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt) {
		return p.token, nil
	}

	token, err := p.Provider.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	p.token = token
	p.expiresAt = time.Time{}

	if exp, ok := tokenExpiry(token); ok {
		p.expiresAt = exp.Add(-p.Leeway)
	}

	return token, nil
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// tokenFetcher serializes access token fetches. At most one fetch is in
// flight process-wide; waiters arriving meanwhile join it. The pending
// fetch is always cleared once resolved so the next request triggers a
// fresh one.
type tokenFetcher struct {
	mu sync.Mutex

	provider TokenProvider
	metrics  *metrics.Metrics
	waiters  []chan string
	inFlight bool
}

func newTokenFetcher(provider TokenProvider, metrics *metrics.Metrics) *tokenFetcher {
	return &tokenFetcher{
		provider: provider,
		metrics:  metrics,
	}
}

// get returns a channel that yields the token, or the empty string on
// fetch failure.
func (f *tokenFetcher) get(ctx context.Context) <-chan string {
	ch := make(chan string, 1)

	f.mu.Lock()
	f.waiters = append(f.waiters, ch)
	if f.metrics != nil {
		f.metrics.TokenWaiters.Inc()
	}

	if f.inFlight {
		f.mu.Unlock()
		return ch
	}

	f.inFlight = true
	f.mu.Unlock()

	go func() {
		if f.metrics != nil {
			f.metrics.TokenFetchesTotal.Inc()
		}

		token, err := f.provider.AccessToken(ctx)
		if err != nil {
			slog.Warn("access token fetch failed", "err", err)
			token = ""
		}

		f.mu.Lock()
		waiters := f.waiters
		f.waiters = nil
		f.inFlight = false
		if f.metrics != nil {
			f.metrics.TokenWaiters.Sub(float64(len(waiters)))
		}
		f.mu.Unlock()

		for _, w := range waiters {
			w <- token
		}
	}()

	return ch
}
