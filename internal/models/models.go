package models

import (
	"bytes"
	"encoding/json"
)

// Repository defines the data access operations of the local catalog cache.
// Records are keyed by their backend integer ID.
type Repository[T any] interface {
	Upsert(model T) error                      // Upsert inserts the record or replaces the cached copy
	Get(id int64) (T, error)                   // Get retrieves a cached record by its backend ID
	Delete(id int64) error                     // Delete soft-deletes a cached record
	List(criteria map[string]any) ([]T, error) // List retrieves all cached records matching the criteria
}

// Page is a paginated list response.
//
// The backend returns either {count, next, previous, results} or a bare JSON array when pagination is off;
// both decode into a Page.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// UnmarshalJSON accepts both paginated objects and bare arrays.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []T
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return err
		}
		*p = Page[T]{Count: len(results), Results: results}
		return nil
	}

	var raw struct {
		Count    int    `json:"count"`
		Next     string `json:"next"`
		Previous string `json:"previous"`
		Results  []T    `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*p = Page[T]{Count: raw.Count, Next: raw.Next, Previous: raw.Previous, Results: raw.Results}
	return nil
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
