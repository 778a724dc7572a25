package transport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/shared"
)

// Refresher is the part of the session manager the retry policy needs.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
	Expire(ctx context.Context, cause error)
}

type retriedKey struct{}

// WithRetried marks requests made with ctx as already retried.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetried reports whether ctx carries the retried mark.
func IsRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// RetryOnUnauthorized re-issues a request once after a 401 by refreshing the access token.
//
//   - A 401 on a request not yet marked retried triggers a refresh. On success the identical request is sent
//     again, marked retried, and its response returned.
//   - If the refresh is rejected ([shared.ErrRefreshFailed]) the session is expired and the original 401 is
//     returned. Any other refresh failure returns the 401 and leaves the session alone.
//   - A 401 on an already retried request, any other status, and transport errors pass through unchanged.
//
// Requests whose body cannot be replayed (no GetBody) are not retried.
func RetryOnUnauthorized(r Refresher, logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			ctx := req.Context()
			if IsRetried(ctx) {
				return resp, nil
			}

			hasBody := req.Body != nil && req.Body != http.NoBody
			if hasBody && req.GetBody == nil {
				logger.Debug("401 on a request with a one-shot body; not retrying", "path", req.URL.Path)
				return resp, nil
			}

			if _, rerr := r.RefreshAccessToken(ctx); rerr != nil {
				logger.Warn("token refresh after 401 failed", "path", req.URL.Path, "error", rerr)
				if errors.Is(rerr, shared.ErrRefreshFailed) {
					r.Expire(ctx, rerr)
				}
				return resp, nil
			}

			retry := req.Clone(WithRetried(ctx))
			retry.Header.Del("Authorization")
			if hasBody {
				body, berr := req.GetBody()
				if berr != nil {
					return resp, nil
				}
				retry.Body = body
			}

			drain(resp.Body)
			logger.Debug("retrying after token refresh", "path", req.URL.Path)
			return next.RoundTrip(retry)
		})
	}
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}
