package transport

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// HeaderRequestID carries a per-request id for correlating client and server logs.
const HeaderRequestID = "X-Request-ID"

// Bearer attaches the current access token from src. When src has no token the request is sent unauthenticated.
func Bearer(src oauth2.TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			tok, err := src.Token()
			if err != nil || tok == nil || tok.AccessToken == "" {
				return next.RoundTrip(req)
			}

			authed := req.Clone(req.Context())
			tok.SetAuthHeader(authed)
			return next.RoundTrip(authed)
		})
	}
}

// RequestID sets [HeaderRequestID] to a new UUID unless the request already has one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set(HeaderRequestID, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// UserAgent sets the User-Agent header. An empty ua leaves requests unchanged.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if ua == "" {
			return next
		}
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			r := req.Clone(req.Context())
			r.Header.Set("User-Agent", ua)
			return next.RoundTrip(r)
		})
	}
}

// RateLimit blocks each request until l allows it or the request context ends.
func RateLimit(l *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if err := l.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}

// Logging writes one debug entry per request with its status and duration.
func Logging(logger *log.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			kv := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(HeaderRequestID),
				"duration", time.Since(start).Round(time.Millisecond),
			}
			if err != nil {
				logger.Debug("request failed", append(kv, "error", err)...)
				return resp, err
			}
			logger.Debug("request", append(kv, "status", resp.StatusCode)...)
			return resp, nil
		})
	}
}
