package medial

import "github.com/prometheus/client_golang/prometheus"

// Statement kinds used as metric labels.
const (
	kindQuery  = "query"
	kindExec   = "exec"
	kindCommit = "commit"
)

// Collectors for gateway statement metrics. They are not registered by the
// package; see Collectors.
var (
	statementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medial_statements_total",
		Help: "Cumulative number of statements executed by a gateway.",
	}, []string{"dialect", "kind"})
	statementFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medial_statement_failures_total",
		Help: "Cumulative number of statements which returned an error.",
	}, []string{"dialect", "kind"})
	statementDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medial_statement_duration_seconds",
		Help:    "Duration of statement execution.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect", "kind"})
)

// Collectors returns the package's metric collectors, for registration with
// a prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		statementsTotal,
		statementFailuresTotal,
		statementDurationSeconds,
	}
}
