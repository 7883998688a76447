package graphwalker

// config.go defines the engine's configuration object and the functional
// options that tune it: sensible defaults in defaultConfig, options that
// only capture external references (logger, registry) or small scalars,
// and a single applyOptions/validate pass before construction.
//
// © 2025 graphwalker authors. MIT License.

import (
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/visitstore"
)

// Option configures an Engine. All of the recognized options from
// spec.md §6 are exposed here plus the ambient knobs (logger, metrics,
// codec split, RNG seed) the Go rewrite adds.
type Option func(*config)

type config struct {
	// file is the base path for every derived file: shards, intervals,
	// spill files, and the visit-count file (spec.md §6 "file").
	file string

	nvertices    uint32
	walksPerSrc  uint32 // R
	maxHops      uint32 // L
	shardSizeKB  int64  // drives the external sharder, not consumed by the engine itself
	membudgetMB  int64
	execThreads  int
	minStepProb  float64 // α
	semiExternal bool
	tail         float64

	counterWidth visitstore.Width
	codec        *walkcodec.Codec

	logger  *zap.Logger
	registry *prometheus.Registry

	rngSeed1, rngSeed2 uint64

	// retry budget for transient shard reads, spec.md §7.
	shardRetries int
	shardBackoff time.Duration
}

func defaultConfig() *config {
	return &config{
		walksPerSrc:  1,
		maxHops:      10,
		shardSizeKB:  64 * 1024,
		membudgetMB:  512,
		execThreads:  1,
		minStepProb:  0.2,
		tail:         0.0,
		counterWidth: visitstore.Width64,
		codec:        walkcodec.Default(),
		logger:       zap.NewNop(),
		rngSeed1:     1,
		rngSeed2:     2,
		shardRetries: 3,
		shardBackoff: 50 * time.Millisecond,
	}
}

// WithFile sets the base path for all derived files. Required.
func WithFile(path string) Option {
	return func(c *config) { c.file = path }
}

// WithVertexCount sets N, the total vertex count. Required.
func WithVertexCount(n uint32) Option {
	return func(c *config) { c.nvertices = n }
}

// WithWalksPerSource sets R, the number of walks seeded per source
// vertex by the default seeding policy.
func WithWalksPerSource(r uint32) Option {
	return func(c *config) { c.walksPerSrc = r }
}

// WithMaxHops sets L, the maximum walk length.
func WithMaxHops(l uint32) Option {
	return func(c *config) { c.maxHops = l }
}

// WithShardSizeKB sets the target shard-file size used by the external
// sharder (cmd/graphwalker-shard) when partitioning a fresh graph. The
// core engine itself only ever consumes an already-written intervals
// file, so this has no effect on Engine.Run directly.
func WithShardSizeKB(kb int64) Option {
	return func(c *config) { c.shardSizeKB = kb }
}

// WithMemoryBudgetMB sets the RAM budget the resident shard plus walk
// pool must fit within.
func WithMemoryBudgetMB(mb int64) Option {
	return func(c *config) { c.membudgetMB = mb }
}

// WithExecThreads sets T, the fixed worker-thread count.
func WithExecThreads(t int) Option {
	return func(c *config) {
		if t > 0 {
			c.execThreads = t
		}
	}
}

// WithMinStepProb sets α, the scheduler's min-step selection
// probability (default 0.2).
func WithMinStepProb(alpha float64) Option {
	return func(c *config) { c.minStepProb = alpha }
}

// WithSemiExternal keeps visit counters fully in RAM instead of on disk.
func WithSemiExternal(on bool) Option {
	return func(c *config) { c.semiExternal = on }
}

// WithTail sets the fraction of walks whose early termination is
// tolerated when checking completion.
func WithTail(fraction float64) Option {
	return func(c *config) { c.tail = fraction }
}

// WithCounterWidth overrides the visit-count file's counter width (4 or
// 8 bytes). Defaults to 8.
func WithCounterWidth(w visitstore.Width) Option {
	return func(c *config) { c.counterWidth = w }
}

// WithCodec overrides the default 28/28/8 source/offset/hop bit split.
// Needed when N or L exceed the default split's range.
func WithCodec(codec *walkcodec.Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger plugs an external zap.Logger. The engine only logs at
// interval boundaries and on fatal errors, never on the per-visit hot
// path.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. A nil registry
// (the default) disables metrics entirely.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithRNGSeed fixes the deterministic seed stream for both the walker
// kernel and the scheduler (spec.md §4.4, §8 property 6). If never
// called, the fixed default seed pair (1, 2) is used, so reruns with the
// same thread count are byte-identical either way.
func WithRNGSeed(seed1, seed2 uint64) Option {
	return func(c *config) {
		c.rngSeed1 = seed1
		c.rngSeed2 = seed2
	}
}

// WithShardRetries overrides the shard-load retry budget (spec.md §7:
// "retry transient read failures up to 3 attempts with backoff").
func WithShardRetries(attempts int, backoff time.Duration) Option {
	return func(c *config) {
		c.shardRetries = attempts
		c.shardBackoff = backoff
	}
}

func applyOptions(opts []Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	if c.file == "" {
		return nil, newErr(ConfigInvalid, nil, "file (base path) must be set")
	}
	if c.nvertices == 0 {
		return nil, newErr(ConfigInvalid, nil, "nvertices must be > 0")
	}
	if c.maxHops == 0 {
		return nil, newErr(ConfigInvalid, nil, "L (max hops) must be > 0")
	}
	if c.execThreads <= 0 {
		return nil, newErr(ConfigInvalid, nil, "execthreads must be > 0")
	}
	if c.minStepProb < 0 || c.minStepProb > 1 {
		return nil, newErr(ConfigInvalid, nil, "prob (alpha) must be in [0,1], got %v", c.minStepProb)
	}
	if c.tail < 0 || c.tail >= 1 {
		return nil, newErr(ConfigInvalid, nil, "tail must be in [0,1), got %v", c.tail)
	}
	if uint64(c.nvertices) > c.codec.MaxSource()+1 {
		return nil, newErr(CodecOverflow, nil, "nvertices %d exceeds the codec's max source range %d; widen the source field with WithCodec", c.nvertices, c.codec.MaxSource()+1)
	}
	if uint64(c.maxHops) > c.codec.MaxHop() {
		return nil, newErr(CodecOverflow, nil, "L %d exceeds the codec's max hop value %d; widen the hop field with WithCodec", c.maxHops, c.codec.MaxHop())
	}
	return c, nil
}

func (c *config) rng() *rand.Rand {
	return rand.New(rand.NewPCG(c.rngSeed1, c.rngSeed2))
}
