package automerge

import "github.com/prometheus/client_golang/prometheus"

var OpsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "automerge",
	Subsystem: "doc",
	Name:      "ops_applied",
}, []string{"op"})

var PatchesEmitted = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "automerge",
	Subsystem: "observer",
	Name:      "patches_emitted",
})

var Commits = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "automerge",
	Subsystem: "doc",
	Name:      "commits",
})

var CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "automerge",
	Subsystem: "doc",
	Name:      "commit_duration_seconds",
	Buckets:   prometheus.DefBuckets,
})

// RegisterMetrics hooks every collector of this package into reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{OpsApplied, PatchesEmitted, Commits, CommitDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
