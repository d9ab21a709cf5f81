package optigo

import (
	"github.com/hupe1980/optigo/index/projected"
)

// IndexKind selects the spatial index strategy.
type IndexKind int

const (
	// KindGrid is the uniform grid with auto-tuned cell resolution.
	KindGrid IndexKind = iota

	// KindTree is the exact k-d tree.
	KindTree

	// KindProjected is the approximate randomized-projection index.
	KindProjected
)

// String returns a string representation of the IndexKind.
func (k IndexKind) String() string {
	switch k {
	case KindGrid:
		return "Grid"
	case KindTree:
		return "Tree"
	case KindProjected:
		return "Projected"
	default:
		return "Unknown"
	}
}

// Grid creates a builder for a clusterer backed by the uniform grid index.
//
// Example:
//
//	c, err := optigo.Grid().
//	    MinPoints(8).
//	    Epsilon(0.5).
//	    Build()
func Grid() Builder {
	return newBuilder(KindGrid)
}

// Tree creates a builder for a clusterer backed by the exact k-d tree index.
func Tree() Builder {
	return newBuilder(KindTree)
}

// Projected creates a builder for a clusterer backed by the approximate
// randomized-projection index, intended for very large point sets.
func Projected() Builder {
	return newBuilder(KindProjected)
}

func newBuilder(kind IndexKind) Builder {
	return Builder{
		kind:     kind,
		minPts:   DefaultMinPoints,
		strategy: projected.StrategyMedian,
	}
}

// Builder is an immutable fluent builder for Clusterer instances. Each
// method returns a new builder with the updated configuration.
type Builder struct {
	kind        IndexKind
	minPts      int
	eps         float32
	seed        int64
	strategy    projected.Strategy
	projections int
	workers     int
	logger      *Logger
}

// DefaultMinPoints is the default minPts parameter.
const DefaultMinPoints = 4

// MinPoints sets the minimum neighborhood size for a core point.
// Default: 4.
func (b Builder) MinPoints(n int) Builder {
	b.minPts = n
	return b
}

// Epsilon sets the generating distance bounding all neighbor searches.
// 0 (the default) auto-estimates it from the data density at fit time.
func (b Builder) Epsilon(eps float32) Builder {
	b.eps = eps
	return b
}

// Seed seeds the random generator of the projected index. Fits with the
// same seed and input are reproducible. Ignored by the exact indexes.
func (b Builder) Seed(seed int64) Builder {
	b.seed = seed
	return b
}

// Strategy selects the pair-sampling strategy of the projected index.
// Default: median. Ignored by the exact indexes.
func (b Builder) Strategy(s projected.Strategy) Builder {
	b.strategy = s
	return b
}

// Projections overrides the number of random projection vectors of the
// projected index. 0 derives O(log N). Ignored by the exact indexes.
func (b Builder) Projections(n int) Builder {
	b.projections = n
	return b
}

// Workers bounds the concurrency of the projected-index build. 0 uses
// GOMAXPROCS. Ignored by the exact indexes.
func (b Builder) Workers(n int) Builder {
	b.workers = n
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Build validates the configuration and creates the clusterer. Validation
// happens before any work: an invalid minPts or epsilon never produces
// partial state.
func (b Builder) Build() (*Clusterer, error) {
	if b.minPts < 1 {
		return nil, ErrInvalidMinPoints
	}
	if b.eps < 0 {
		return nil, ErrInvalidEpsilon
	}

	logger := b.logger
	if logger == nil {
		logger = NoopLogger()
	}

	return &Clusterer{
		kind:        b.kind,
		minPts:      b.minPts,
		eps:         b.eps,
		seed:        b.seed,
		strategy:    b.strategy,
		projections: b.projections,
		workers:     b.workers,
		logger:      logger,
	}, nil
}

// MustBuild creates the clusterer, panicking on error.
func (b Builder) MustBuild() *Clusterer {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
