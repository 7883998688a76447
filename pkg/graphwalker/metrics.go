package graphwalker

// metrics.go is a thin Prometheus abstraction: a no-op implementation
// when the user never opts in via WithMetrics, and a real implementation
// registered against the supplied *prometheus.Registry otherwise, so the
// engine's hot path never pays for metric updates it has no sink for.
//
// ┌──────────────────────────────────┬───────┬────────┐
// │ Metric                           │ Type  │ Labels │
// ├──────────────────────────────────┼───────┼────────┤
// │ graphwalker_intervals_total      │ Ctr   │ –      │
// │ graphwalker_walks_live           │ Gge   │ –      │
// │ graphwalker_walks_seeded_total   │ Ctr   │ shard  │
// │ graphwalker_walks_moved_total    │ Ctr   │ shard  │
// │ graphwalker_walks_terminated_total│ Ctr  │ shard  │
// │ graphwalker_shard_loads_total    │ Ctr   │ –      │
// │ graphwalker_shard_load_seconds   │ Hist  │ –      │
// │ graphwalker_spills_total         │ Ctr   │ shard  │
// │ graphwalker_scheduler_picks_total│ Ctr   │ policy │
// │ graphwalker_scheduler_staleness_intervals │ Gge │ shard │
// └──────────────────────────────────┴───────┴────────┘
//
// © 2025 graphwalker authors. MIT License.

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incInterval()
	setWalksLive(n uint64)
	incWalksSeeded(shard int, n int)
	incWalksMoved(shard int)
	incWalksTerminated(shard int)
	incShardLoad(dur time.Duration)
	incSpill(shard int, count int)
	incSchedulerPick(byMinStep bool)
	setSchedulerStaleness(shard int, n int)
}

type noopMetrics struct{}

func (noopMetrics) incInterval()                  {}
func (noopMetrics) setWalksLive(uint64)           {}
func (noopMetrics) incWalksSeeded(int, int)       {}
func (noopMetrics) incWalksMoved(int)             {}
func (noopMetrics) incWalksTerminated(int)        {}
func (noopMetrics) incShardLoad(time.Duration)    {}
func (noopMetrics) incSpill(int, int)             {}
func (noopMetrics) incSchedulerPick(bool)         {}
func (noopMetrics) setSchedulerStaleness(int, int) {}

type promMetrics struct {
	intervals      prometheus.Counter
	walksLive      prometheus.Gauge
	walksSeeded    *prometheus.CounterVec
	walksMoved     *prometheus.CounterVec
	walksTerminated *prometheus.CounterVec
	shardLoads     prometheus.Counter
	shardLoadSecs  prometheus.Histogram
	spills             *prometheus.CounterVec
	schedulerPicks     *prometheus.CounterVec
	schedulerStaleness *prometheus.GaugeVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	shardLabel := []string{"shard"}
	m := &promMetrics{
		intervals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "intervals_total",
			Help: "Number of interval ticks the scheduler has executed.",
		}),
		walksLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphwalker", Name: "walks_live",
			Help: "Current number of walks not yet terminated.",
		}),
		walksSeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "walks_seeded_total",
			Help: "Walks seeded per shard.",
		}, shardLabel),
		walksMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "walks_moved_total",
			Help: "Walks moved into a shard after crossing a shard boundary.",
		}, shardLabel),
		walksTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "walks_terminated_total",
			Help: "Walks terminated per shard.",
		}, shardLabel),
		shardLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "shard_loads_total",
			Help: "Number of shard CSR loads from disk.",
		}),
		shardLoadSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graphwalker", Name: "shard_load_seconds",
			Help:    "Shard load latency.",
			Buckets: prometheus.DefBuckets,
		}),
		spills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "spills_total",
			Help: "Walk spill operations per shard.",
		}, shardLabel),
		schedulerPicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphwalker", Name: "scheduler_picks_total",
			Help: "Scheduler picks by policy (min_step or max_walk).",
		}, []string{"policy"}),
		schedulerStaleness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "graphwalker", Name: "scheduler_staleness_intervals",
			Help: "Consecutive interval picks since each shard was last made resident.",
		}, shardLabel),
	}
	reg.MustRegister(m.intervals, m.walksLive, m.walksSeeded, m.walksMoved,
		m.walksTerminated, m.shardLoads, m.shardLoadSecs, m.spills, m.schedulerPicks,
		m.schedulerStaleness)
	return m
}

func (m *promMetrics) incInterval()            { m.intervals.Inc() }
func (m *promMetrics) setWalksLive(n uint64)   { m.walksLive.Set(float64(n)) }
func (m *promMetrics) incWalksSeeded(shard, n int) {
	m.walksSeeded.WithLabelValues(strconv.Itoa(shard)).Add(float64(n))
}
func (m *promMetrics) incWalksMoved(shard int) {
	m.walksMoved.WithLabelValues(strconv.Itoa(shard)).Inc()
}
func (m *promMetrics) incWalksTerminated(shard int) {
	m.walksTerminated.WithLabelValues(strconv.Itoa(shard)).Inc()
}
func (m *promMetrics) incShardLoad(dur time.Duration) {
	m.shardLoads.Inc()
	m.shardLoadSecs.Observe(dur.Seconds())
}
func (m *promMetrics) incSpill(shard, count int) {
	m.spills.WithLabelValues(strconv.Itoa(shard)).Add(float64(count))
}
func (m *promMetrics) incSchedulerPick(byMinStep bool) {
	policy := "max_walk"
	if byMinStep {
		policy = "min_step"
	}
	m.schedulerPicks.WithLabelValues(policy).Inc()
}
func (m *promMetrics) setSchedulerStaleness(shard, n int) {
	m.schedulerStaleness.WithLabelValues(strconv.Itoa(shard)).Set(float64(n))
}

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
