package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotSizer reports the number of entries each source's comparer holds.
type SnapshotSizer interface {
	SnapshotSizes() map[string]int
}

// Collector exports snapwatch_snapshot_entries at scrape time.
type Collector struct {
	sizer SnapshotSizer
	desc  *prometheus.Desc
}

// NewCollector creates a collector reading sizes from sizer.
func NewCollector(sizer SnapshotSizer) *Collector {
	return &Collector{
		sizer: sizer,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "snapshot_entries"),
			"Entries in the last observed snapshot, by source.",
			[]string{"source"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for source, n := range c.sizer.SnapshotSizes() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), source)
	}
}
