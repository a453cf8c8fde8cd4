package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"labsite/internal/pkg/collection"
)

// maxPageLimit caps the limit query parameter on list endpoints.
const maxPageLimit = 100

// statusAll means "no status filter".
const statusAll = "all"

// readOptionalInt parses a non-negative integer query parameter. Missing,
// non-numeric and negative values are absent. Values above max (when max > 0)
// are clamped, including positive values too large for an int.
func readOptionalInt(r *http.Request, key string, max int) collection.Optional[int] {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return collection.None[int]()
	}
	v, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		v, err = math.MaxInt, nil
	}
	if err != nil || v < 0 {
		return collection.None[int]()
	}
	if max > 0 && v > max {
		v = max
	}
	return collection.Some(v)
}

// readPage builds the requested window from limit and offset.
func readPage(r *http.Request) collection.Page {
	return collection.Page{
		Offset: readOptionalInt(r, "offset", 0).OrElse(0),
		Limit:  readOptionalInt(r, "limit", maxPageLimit),
	}
}

// readOptionalString returns the first non-empty value among keys.
func readOptionalString(r *http.Request, keys ...string) collection.Optional[string] {
	q := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return collection.Some(v)
		}
	}
	return collection.None[string]()
}

func readStatus(r *http.Request) collection.Optional[string] {
	status := readOptionalString(r, "status")
	if v, ok := status.Get(); ok && strings.EqualFold(v, statusAll) {
		return collection.None[string]()
	}
	return status
}

// readOptionalBool accepts only "true" and "false"; anything else is absent.
func readOptionalBool(r *http.Request, key string) collection.Optional[bool] {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "true":
		return collection.Some(true)
	case "false":
		return collection.Some(false)
	default:
		return collection.None[bool]()
	}
}

// readTag accepts tag and topic as aliases.
func readTag(r *http.Request) collection.Optional[string] {
	return readOptionalString(r, "tag", "topic")
}
