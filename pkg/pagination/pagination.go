package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a 1-based page window read from ?page= and ?per_page=.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// FromRequest reads the window from the query string. Out-of-range or
// malformed values fall back to the defaults rather than failing the request.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}
	return p
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Slice returns the part of items that falls inside the window. The result
// is never nil so it encodes as [] in JSON.
func Slice[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+p.PerPage, len(items))]
}
