// Package transport builds the HTTP clients used to talk to the backend.
//
// Cross-cutting request behavior is expressed as [Middleware] around an [http.RoundTripper]:
// bearer credentials, the retry-once-on-401 policy, request ids, throttling and logging.
package transport

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Middleware wraps an [http.RoundTripper] and returns a new one with additional behavior.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base with the middleware. The first middleware listed is the outermost.
func Chain(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	wrapped := base
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			wrapped = mw[i](wrapped)
		}
	}
	return wrapped
}

// ClientOpts configures [NewClient].
type ClientOpts struct {
	Base      http.RoundTripper   // defaults to [http.DefaultTransport]
	Tokens    oauth2.TokenSource  // bearer credentials; nil sends every request unauthenticated
	Refresher Refresher           // enables the retry-once-on-401 policy when set
	Limiter   *rate.Limiter       // optional client-side throttle
	UserAgent string
	Timeout   time.Duration
	Logger    *log.Logger
}

// NewClient builds an [http.Client] with the standard chain:
// request id, user agent, logging, rate limit, retry on 401, bearer.
//
// Retry sits outside Bearer so the re-issued request picks up the refreshed token.
func NewClient(opts ClientOpts) *http.Client {
	var retry, bearer, limit, logging Middleware
	if opts.Refresher != nil {
		retry = RetryOnUnauthorized(opts.Refresher, opts.Logger)
	}
	if opts.Tokens != nil {
		bearer = Bearer(opts.Tokens)
	}
	if opts.Limiter != nil {
		limit = RateLimit(opts.Limiter)
	}
	if opts.Logger != nil {
		logging = Logging(opts.Logger)
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: Chain(opts.Base,
			RequestID(),
			UserAgent(opts.UserAgent),
			logging,
			limit,
			retry,
			bearer,
		),
	}
}

// NewLimiter returns a limiter allowing rps requests per second with a matching burst, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
