package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
)

var (
	locationMu sync.RWMutex
	location   = time.UTC
)

// SetLocation sets the timezone used for dates that carry no offset.
func SetLocation(name string) error {
	tz := strings.TrimSpace(name)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load location %q: %w", tz, err)
	}
	locationMu.Lock()
	location = loc
	locationMu.Unlock()
	return nil
}

// Location returns the configured timezone.
func Location() *time.Location {
	locationMu.RLock()
	loc := location
	locationMu.RUnlock()
	return loc
}

// ParseLoose parses a date-like string (ISO-8601 date, RFC 3339 timestamp and
// the other layouts dateparse understands). Blank or unparseable input
// reports false.
func ParseLoose(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(v, Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as YYYY-MM-DD in the configured timezone.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format(time.DateOnly)
}
