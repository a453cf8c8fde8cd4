// Package collection implements the in-memory query pipeline shared by the
// list endpoints: predicate filtering, newest-first ordering and offset
// pagination over an immutable record slice.
//
// Every function returns a new slice; the input is never reordered or
// modified.
package collection

import (
	"slices"
	"strings"
	"time"

	"labsite/internal/pkg/timeutil"
)

// Predicate reports whether a record satisfies a filter condition.
type Predicate[T any] func(T) bool

// Page describes the requested window of a sorted result.
type Page struct {
	Offset int
	Limit  Optional[int]
}

// Result is a page of records plus the number of records that matched
// before pagination.
type Result[T any] struct {
	Items []T
	Total int
}

// Spec bundles everything Run needs besides the records.
type Spec[T any] struct {
	Predicates []Predicate[T]
	// DateKey returns the chronological sort key. Nil keeps input order.
	DateKey func(T) string
	Page    Page
}

// Run filters, sorts and paginates records. Total is taken after filtering
// and before pagination.
func Run[T any](records []T, spec Spec[T]) Result[T] {
	filtered := Filter(records, spec.Predicates...)
	if spec.DateKey != nil {
		filtered = SortByDateDesc(filtered, spec.DateKey)
	}
	return Result[T]{
		Items: Paginate(filtered, spec.Page),
		Total: len(filtered),
	}
}

// Filter returns the records that satisfy all predicates. Nil predicates are
// skipped, so a filter built from an absent parameter never runs.
func Filter[T any](records []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}

	out := make([]T, 0, len(records))
next:
	for _, rec := range records {
		for _, p := range active {
			if !p(rec) {
				continue next
			}
		}
		out = append(out, rec)
	}
	return out
}

// SortByDateDesc orders records newest first. Keys are parsed once per
// record; records whose key cannot be parsed sort as the oldest. Ties keep
// their input order.
func SortByDateDesc[T any](records []T, key func(T) string) []T {
	type keyed struct {
		rec T
		at  time.Time
		ok  bool
	}
	tmp := make([]keyed, len(records))
	for i, rec := range records {
		at, ok := timeutil.ParseLoose(key(rec))
		tmp[i] = keyed{rec: rec, at: at, ok: ok}
	}

	slices.SortStableFunc(tmp, func(a, b keyed) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		return b.at.Compare(a.at)
	})

	out := make([]T, len(tmp))
	for i, k := range tmp {
		out[i] = k.rec
	}
	return out
}

// Paginate slices records to the requested page. An offset past the end or
// an explicit limit of zero yields an empty, non-nil slice.
func Paginate[T any](records []T, page Page) []T {
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []T{}
	}
	end := len(records)
	if limit, ok := page.Limit.Get(); ok {
		if limit <= 0 {
			return []T{}
		}
		if limit < end-offset {
			end = offset + limit
		}
	}
	out := make([]T, end-offset)
	copy(out, records[offset:end])
	return out
}

// Equals matches records whose field equals want exactly.
// It returns nil when want is absent.
func Equals[T any](want Optional[string], field func(T) string) Predicate[T] {
	v, ok := want.Get()
	if !ok {
		return nil
	}
	return func(rec T) bool {
		return field(rec) == v
	}
}

// HasTag matches records whose tag list contains want, ignoring case and
// surrounding whitespace. It returns nil when want is absent.
func HasTag[T any](want Optional[string], tags func(T) []string) Predicate[T] {
	v, ok := want.Get()
	if !ok {
		return nil
	}
	needle := normalize(v)
	return func(rec T) bool {
		return containsTag(tags(rec), needle)
	}
}

// Flag matches records by presence (want=true) or absence (want=false) of a
// sentinel tag. It returns nil when want is absent.
func Flag[T any](want Optional[bool], sentinel string, tags func(T) []string) Predicate[T] {
	v, ok := want.Get()
	if !ok {
		return nil
	}
	needle := normalize(sentinel)
	return func(rec T) bool {
		return containsTag(tags(rec), needle) == v
	}
}

// Contains matches records where any of the text fields contains the needle,
// ignoring case. It returns nil when the needle is absent or blank.
func Contains[T any](needle Optional[string], fields func(T) []string) Predicate[T] {
	v, ok := needle.Get()
	if !ok {
		return nil
	}
	n := normalize(v)
	if n == "" {
		return nil
	}
	return func(rec T) bool {
		for _, f := range fields(rec) {
			if strings.Contains(strings.ToLower(f), n) {
				return true
			}
		}
		return false
	}
}

func containsTag(tags []string, needle string) bool {
	for _, t := range tags {
		if normalize(t) == needle {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
