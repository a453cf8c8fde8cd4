package repo

import (
	"errors"
	"strings"

	"labsite/internal/domain/tag"
	"labsite/internal/pkg/collection"
)

// ErrUpstream wraps failures talking to the repository host.
var ErrUpstream = errors.New("upstream repository fetch failed")

// DefaultStatus is applied to repositories without local metadata.
const DefaultStatus = "active"

// Entry is a project repository as shown in the showcase: upstream fields
// plus local annotations.
type Entry struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Homepage    string   `json:"homepage,omitempty"`
	Language    string   `json:"language,omitempty"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updated_at"`

	AppType  string `json:"app_type,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Featured bool   `json:"featured"`
}

// Metadata is the locally maintained annotation for one repository.
type Metadata struct {
	AppType     string   `yaml:"app_type"`
	Category    string   `yaml:"category"`
	Status      string   `yaml:"status"`
	Featured    bool     `yaml:"featured"`
	Topics      []string `yaml:"topics"`
	Description string   `yaml:"description"`
}

// MetadataTable maps repository names (case-insensitive) to annotations.
type MetadataTable map[string]Metadata

// Lookup returns the annotation for name.
func (t MetadataTable) Lookup(name string) (Metadata, bool) {
	if t == nil {
		return Metadata{}, false
	}
	if m, ok := t[name]; ok {
		return m, true
	}
	key := strings.ToLower(name)
	for k, m := range t {
		if strings.ToLower(k) == key {
			return m, true
		}
	}
	return Metadata{}, false
}

// Annotate returns a copy of e enriched with its local metadata. An upstream
// status (archived) survives unless the metadata sets one. Featured
// repositories carry the featured topic so the shared tag filter can match
// them.
func (t MetadataTable) Annotate(e Entry) Entry {
	out := e
	out.Topics = tag.Normalize(e.Topics)
	if out.Status == "" {
		out.Status = DefaultStatus
	}

	m, ok := t.Lookup(e.Name)
	if !ok {
		if out.Topics == nil {
			out.Topics = []string{}
		}
		return out
	}

	if m.AppType != "" {
		out.AppType = m.AppType
	}
	if m.Category != "" {
		out.Category = m.Category
	}
	if m.Status != "" {
		out.Status = m.Status
	}
	if out.Description == "" && m.Description != "" {
		out.Description = m.Description
	}
	topics := append(append([]string{}, out.Topics...), m.Topics...)
	if m.Featured {
		topics = append(topics, tag.Featured)
	}
	out.Topics = tag.Normalize(topics)
	if out.Topics == nil {
		out.Topics = []string{}
	}
	out.Featured = m.Featured
	return out
}

// ListQuery represents filters applied when listing repositories.
type ListQuery struct {
	Status   collection.Optional[string]
	Category collection.Optional[string]
	AppType  collection.Optional[string]
	Topic    collection.Optional[string]
	Featured collection.Optional[bool]
	Page     collection.Page
}

// Spec builds the collection pipeline for the query. Repositories are
// ordered by UpdatedAt, most recently updated first.
func (q ListQuery) Spec() collection.Spec[Entry] {
	topics := func(e Entry) []string { return e.Topics }
	return collection.Spec[Entry]{
		Predicates: []collection.Predicate[Entry]{
			collection.Equals(q.Status, func(e Entry) string { return e.Status }),
			collection.Equals(q.Category, func(e Entry) string { return e.Category }),
			collection.Equals(q.AppType, func(e Entry) string { return e.AppType }),
			collection.HasTag(q.Topic, topics),
			collection.Flag(q.Featured, tag.Featured, topics),
		},
		DateKey: func(e Entry) string { return e.UpdatedAt },
		Page:    q.Page,
	}
}
