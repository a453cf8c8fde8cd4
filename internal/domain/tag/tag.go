package tag

import (
	"sort"
	"strings"
)

// Featured is the sentinel tag that marks a record as featured.
const Featured = "featured"

// NormalizeName trims spaces and converts the tag name to lower-case.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalize returns normalized, de-duplicated tags in their original order.
// Blank tags are dropped.
func Normalize(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		norm := NormalizeName(t)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// Facet is a distinct value and the number of records carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Counter accumulates facet counts.
type Counter struct {
	counts map[string]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts each non-blank value once.
func (c *Counter) Add(values ...string) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		c.counts[v]++
	}
}

// Facets returns the counted values ordered by name.
func (c *Counter) Facets() []Facet {
	out := make([]Facet, 0, len(c.counts))
	for name, n := range c.counts {
		out = append(out, Facet{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
