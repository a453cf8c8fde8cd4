package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WatchSnapshotAge exports the age of a cached upstream snapshot. The gauge
// reads -1 while the cache has never been filled.
func (m *HTTPMetrics) WatchSnapshotAge(cache string, fetchedAt func() time.Time, now func() time.Time) {
	if m == nil || fetchedAt == nil {
		return
	}
	if now == nil {
		now = time.Now
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "cache_snapshot_age_seconds",
		Help:        "Seconds since the cached upstream snapshot was fetched.",
		ConstLabels: prometheus.Labels{"cache": cache},
	}, func() float64 {
		at := fetchedAt()
		if at.IsZero() {
			return -1
		}
		return now().Sub(at).Seconds()
	}))
}

// WatchRecords exports the number of loaded records of one kind.
func (m *HTTPMetrics) WatchRecords(kind string, count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "content_records",
		Help:        "Records loaded into memory by kind.",
		ConstLabels: prometheus.Labels{"kind": kind},
	}, func() float64 {
		return float64(count())
	}))
}
