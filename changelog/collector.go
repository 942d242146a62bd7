package changelog

import (
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the storage health of a Log as prometheus metrics.
type Collector struct {
	db *pebble.DB

	memtableSize  *prometheus.Desc
	memtableCount *prometheus.Desc

	walFiles        *prometheus.Desc
	walSize         *prometheus.Desc
	walBytesWritten *prometheus.Desc

	diskUsage *prometheus.Desc
}

func NewCollector(l *Log) *Collector {
	return &Collector{
		db: l.db,

		memtableSize: prometheus.NewDesc(
			"automerge_changelog_memtable_size_bytes",
			"Current size of the memtable",
			nil, nil,
		),
		memtableCount: prometheus.NewDesc(
			"automerge_changelog_memtable_count",
			"Number of memtables",
			nil, nil,
		),
		walFiles: prometheus.NewDesc(
			"automerge_changelog_wal_files",
			"Number of live WAL files",
			nil, nil,
		),
		walSize: prometheus.NewDesc(
			"automerge_changelog_wal_size_bytes",
			"Size of the WAL",
			nil, nil,
		),
		walBytesWritten: prometheus.NewDesc(
			"automerge_changelog_wal_bytes_written_total",
			"Total physical bytes written to the WAL",
			nil, nil,
		),
		diskUsage: prometheus.NewDesc(
			"automerge_changelog_disk_usage_bytes",
			"Total disk space used by the log",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.memtableSize
	ch <- c.memtableCount
	ch <- c.walFiles
	ch <- c.walSize
	ch <- c.walBytesWritten
	ch <- c.diskUsage
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	metrics := c.db.Metrics()

	ch <- prometheus.MustNewConstMetric(
		c.memtableSize,
		prometheus.GaugeValue,
		float64(metrics.MemTable.Size),
	)
	ch <- prometheus.MustNewConstMetric(
		c.memtableCount,
		prometheus.GaugeValue,
		float64(metrics.MemTable.Count),
	)
	ch <- prometheus.MustNewConstMetric(
		c.walFiles,
		prometheus.GaugeValue,
		float64(metrics.WAL.Files),
	)
	ch <- prometheus.MustNewConstMetric(
		c.walSize,
		prometheus.GaugeValue,
		float64(metrics.WAL.Size),
	)
	ch <- prometheus.MustNewConstMetric(
		c.walBytesWritten,
		prometheus.CounterValue,
		float64(metrics.WAL.BytesWritten),
	)
	ch <- prometheus.MustNewConstMetric(
		c.diskUsage,
		prometheus.GaugeValue,
		float64(metrics.DiskSpaceUsage()),
	)
}
