package graphwalker

// observer.go fans out the small lifecycle-observer interfaces each
// internal package defines (shardstore.Observer, walkpool.Observer,
// scheduler.Observer) into this package's zap logger and metrics sink,
// so those low-level packages stay free of any dependency on the
// logging/metrics stack (spec.md §9 "kept dependency-free").
//
// © 2025 graphwalker authors. MIT License.

import (
	"time"

	"go.uber.org/zap"
)

type engineObserver struct {
	log     *zap.Logger
	metrics metricsSink
}

func newEngineObserver(log *zap.Logger, metrics metricsSink) *engineObserver {
	return &engineObserver{log: log, metrics: metrics}
}

// shardstore.Observer

func (o *engineObserver) ShardLoadStarted(p int) {
	o.log.Debug("shard load started", zap.Int("shard", p))
}

func (o *engineObserver) ShardLoadRetrying(p int, attempt int, err error) {
	o.log.Warn("shard load retrying", zap.Int("shard", p), zap.Int("attempt", attempt), zap.Error(err))
}

func (o *engineObserver) ShardLoadSucceeded(p int, vertices, edges int, dur time.Duration) {
	o.metrics.incShardLoad(dur)
	o.log.Debug("shard load succeeded",
		zap.Int("shard", p), zap.Int("vertices", vertices), zap.Int("edges", edges), zap.Duration("took", dur))
}

func (o *engineObserver) ShardLoadFailed(p int, err error) {
	o.log.Error("shard load failed", zap.Int("shard", p), zap.Error(err))
}

func (o *engineObserver) ShardReleased(p int) {
	o.log.Debug("shard released", zap.Int("shard", p))
}

// walkpool.Observer

func (o *engineObserver) WalksSeeded(p int, n int) {
	o.metrics.incWalksSeeded(p, n)
}

func (o *engineObserver) WalkMoved(pDst int) {
	o.metrics.incWalksMoved(pDst)
}

func (o *engineObserver) WalkTerminated(p int) {
	o.metrics.incWalksTerminated(p)
}

func (o *engineObserver) Spilled(p int, count int) {
	o.metrics.incSpill(p, count)
	o.log.Debug("shard spilled", zap.Int("shard", p), zap.Int("walks", count))
}

func (o *engineObserver) Freshened(p int, count int) {
	o.log.Debug("shard freshened", zap.Int("shard", p), zap.Int("walks", count))
}

// scheduler.Observer

func (o *engineObserver) Picked(shard int, byMinStep bool) {
	o.metrics.incSchedulerPick(byMinStep)
}

func (o *engineObserver) Staleness(shard int, sincePick int) {
	o.metrics.setSchedulerStaleness(shard, sincePick)
}
