package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/desertthunder/cadence/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// APIService sends requests to the backend REST API. Authentication and retries are the job of the
// [http.Client] it is given (see package transport).
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the API root.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// URL joins path (and an optional query) onto the base URL. Absolute URLs, such as pagination links,
// are returned as is.
func (a *APIService) URL(path string, query url.Values) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	u := a.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data, "application/json")
}

// Do performs a request with an optional body and returns the raw response regardless of status.
// The body is held in memory so the request can be replayed after a token refresh.
func (a *APIService) Do(ctx context.Context, method, path string, body []byte, contentType string) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.URL(path, nil), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// DoJSON sends in (if non-nil) as JSON and decodes a 2xx response into out (if non-nil).
// Non-2xx responses become a [*shared.RequestError].
func (a *APIService) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		contentType = "application/json"
	}

	target := path
	if len(query) > 0 {
		target = a.URL(path, query)
	}

	resp, err := a.Do(ctx, method, target, body, contentType)
	if err != nil {
		return err
	}
	return decodeResponse(method, path, resp, out)
}

func decodeResponse(method, path string, resp *APIResponse, out any) error {
	if !resp.OK() {
		return newRequestError(method, path, resp)
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s %s: decoding response: %w", shared.ErrAPIRequest, method, path, err)
	}
	return nil
}

// newRequestError extracts the backend's message and field errors from an error response.
//
// The backend answers with {"detail": ...}, {"error": ...}, {"message": ...} or a map of field names to
// message lists; "non_field_errors" is folded into Detail.
func newRequestError(method, path string, resp *APIResponse) *shared.RequestError {
	re := &shared.RequestError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}

	obj, ok := resp.JSONData.(map[string]any)
	if !ok {
		if s := strings.TrimSpace(string(resp.Body)); s != "" && len(s) < 200 && !resp.IsJSON {
			re.Detail = s
		}
		return re
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var details []string
	for _, k := range keys {
		msgs := messages(obj[k])
		if len(msgs) == 0 {
			continue
		}
		switch k {
		case "detail", "error", "message", "non_field_errors":
			details = append(details, msgs...)
		default:
			if re.Fields == nil {
				re.Fields = make(map[string][]string)
			}
			re.Fields[k] = msgs
		}
	}
	re.Detail = strings.Join(details, " ")
	return re
}

func messages(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, messages(item)...)
		}
		return out
	default:
		return nil
	}
}
