package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/cadence/internal/models"
)

// LibraryService covers the catalog, activity and profile endpoints. Its client is expected to attach
// bearer credentials and retry once on 401.
type LibraryService struct {
	api *APIService
}

// NewLibraryService creates a LibraryService over api.
func NewLibraryService(api *APIService) *LibraryService {
	return &LibraryService{api: api}
}

// API returns the underlying raw client.
func (s *LibraryService) API() *APIService {
	return s.api
}

// ListQuery holds the ordering and pagination parameters shared by list endpoints.
type ListQuery struct {
	Ordering string
	Page     int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// getPage fetches one page of a list endpoint. path may be an absolute "next" link.
func getPage[T any](ctx context.Context, api *APIService, path string, query url.Values) (*models.Page[T], error) {
	var page models.Page[T]
	if err := api.DoJSON(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// collect follows next links from the first page until the last, calling onPage after each.
func collect[T any](ctx context.Context, api *APIService, path string, query url.Values, onPage func(page, total int)) ([]T, error) {
	var all []T
	n := 0
	for {
		page, err := getPage[T](ctx, api, path, query)
		if err != nil {
			return nil, err
		}
		n++
		all = append(all, page.Results...)
		if onPage != nil {
			onPage(n, page.Count)
		}
		if !page.HasNext() {
			return all, nil
		}
		path, query = page.Next, nil
	}
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + strconv.FormatInt(id, 10) + "/" + suffix
}
