package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: 20}},
		{"explicit", "?page=3&per_page=50", Params{Page: 3, PerPage: 50}},
		{"max per page", "?per_page=100", Params{Page: 1, PerPage: 100}},
		{"per page above max", "?per_page=101", Params{Page: 1, PerPage: 20}},
		{"zero page", "?page=0", Params{Page: 1, PerPage: 20}},
		{"negative page", "?page=-4", Params{Page: 1, PerPage: 20}},
		{"not a number", "?page=two&per_page=ten", Params{Page: 1, PerPage: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sponsors"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(req))
		})
	}
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, Params{Page: 5, PerPage: 10}.Offset())
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, []string{"a", "b"}, Slice(items, Params{Page: 1, PerPage: 2}))
	assert.Equal(t, []string{"e"}, Slice(items, Params{Page: 3, PerPage: 2}))
	assert.Equal(t, items, Slice(items, Params{Page: 1, PerPage: 20}))
}

func TestSlice_PastEndIsEmpty(t *testing.T) {
	got := Slice([]int{1, 2, 3}, Params{Page: 4, PerPage: 2})

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, Slice[int](nil, Params{Page: 1, PerPage: 20}))
}
