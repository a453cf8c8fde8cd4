package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"labsite/internal/pkg/collection"
)

func TestReadOptionalInt(t *testing.T) {
	tests := map[string]struct {
		query string
		want  collection.Optional[int]
	}{
		"missing":           {query: "", want: collection.None[int]()},
		"zero":              {query: "limit=0", want: collection.Some(0)},
		"within cap":        {query: "limit=25", want: collection.Some(25)},
		"above cap":         {query: "limit=500", want: collection.Some(maxPageLimit)},
		"overflows int":     {query: "limit=99999999999999999999", want: collection.Some(maxPageLimit)},
		"negative":          {query: "limit=-3", want: collection.None[int]()},
		"negative overflow": {query: "limit=-99999999999999999999", want: collection.None[int]()},
		"not a number":      {query: "limit=ten", want: collection.None[int]()},
		"trimmed":           {query: "limit=%2012%20", want: collection.Some(12)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/posts?"+tt.query, nil)
			assert.Equal(t, tt.want, readOptionalInt(r, "limit", maxPageLimit))
		})
	}
}

func TestReadPage_HugeValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/posts?limit=99999999999999999999&offset=99999999999999999999", nil)
	page := readPage(r)

	limit, ok := page.Limit.Get()
	assert.True(t, ok)
	assert.Equal(t, maxPageLimit, limit)
	assert.Positive(t, page.Offset)
}
