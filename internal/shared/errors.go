package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrValidation       = fmt.Errorf("validation failed")
	ErrNotFound         = fmt.Errorf("resource not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrSongNotFound     = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RequestError is a non-2xx response from the backend.
//
// Detail holds the backend's human readable message (from "detail", "error" or "message")
// and Fields holds per-field validation messages. It unwraps to [ErrAPIRequest].
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Fields     map[string][]string
	Body       []byte
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Fields[k], " "))
		}
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return ErrAPIRequest
}

// IsStatus reports whether err is a [RequestError] with the given status code.
func IsStatus(err error, code int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == code
}

// IsUndelivered reports whether err means the backend never handled the request,
// as opposed to answering it with a client error. Canceled requests count as handled.
func IsUndelivered(err error) bool {
	if err == nil {
		return false
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}
