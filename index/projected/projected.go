// Package projected implements an approximate spatial index based on
// randomized projections, for very large point sets.
//
// The point set is projected onto O(log N) random unit vectors. Each
// projection is recursively split into nested sub-ranges until ranges fall
// below a minimum size tied to minPts; every final sub-range is treated as an
// approximate neighborhood. A sampling pass over the ranges accumulates, per
// point, a running sum and count of sampled squared distances (the
// approximate core distance) and a deduplicated neighbor-id set.
//
// Recall depends on the number of projections and splits: the index trades
// exactness for sub-quadratic scaling on millions of points.
package projected

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/point"
)

// Strategy selects how candidate pairs are sampled inside a final sub-range.
type Strategy int

const (
	// StrategyMedian pairs every point of a range with the range's middle
	// element only. O(n) per range.
	StrategyMedian Strategy = iota

	// StrategyRandomPair pairs each point with its deterministic "next"
	// element in the range. O(n) per range, needs n >= 2.
	StrategyRandomPair

	// StrategyAllPairs samples every pair in the range. O(n^2), exact
	// within the range.
	StrategyAllPairs
)

// DefaultMaxSplitSets caps the number of final sub-ranges accumulated across
// all projections.
const DefaultMaxSplitSets = 1 << 20

// maxSplitDepth caps split recursion on adversarial inputs (for example long
// runs of identical projected values).
const maxSplitDepth = 64

// lockShards is the size of the striped mutex table guarding the per-point
// neighbor sets during the concurrent sampling pass.
const lockShards = 256

// Compile-time check.
var _ index.Index = (*Projected)(nil)

// Options configures the projected index.
type Options struct {
	// Projections is the number of random projection vectors. 0 derives
	// O(log N) from the point count.
	Projections int

	// Strategy selects the pair-sampling strategy.
	Strategy Strategy

	// Seed seeds the root random generator. Builds with the same seed and
	// input are reproducible regardless of scheduling.
	Seed int64

	// Workers bounds the concurrent build tasks. 0 uses GOMAXPROCS.
	Workers int

	// MaxSplitSets is the ceiling on accumulated final sub-ranges.
	MaxSplitSets int

	// ThreeD selects 3D projection vectors and distances.
	ThreeD bool
}

// DefaultOptions holds the default projected-index configuration.
var DefaultOptions = Options{
	Strategy:     StrategyMedian,
	MaxSplitSets: DefaultMaxSplitSets,
}

// Projected is the randomized-projection approximate index.
type Projected struct {
	pts  []point.Point
	opts Options

	minSplitSize int

	// Per-point accumulators, written to disjoint ranges during sampling.
	sums   []float64
	counts []uint32

	// Per-point deduplicated neighbor ids, guarded by striped locks during
	// the build; read-only afterwards.
	neighbors []*roaring.Bitmap
}

// New builds the index over the given points. minPts ties the minimum split
// size; the point slice is retained, not copied.
func New(pts []point.Point, minPts int, optFns ...func(o *Options)) (*Projected, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxSplitSets <= 0 {
		opts.MaxSplitSets = DefaultMaxSplitSets
	}

	n := len(pts)
	if opts.Projections <= 0 {
		opts.Projections = autoProjections(n)
	}

	p := &Projected{
		pts:          pts,
		opts:         opts,
		minSplitSize: minPts,
		sums:         make([]float64, n),
		counts:       make([]uint32, n),
		neighbors:    make([]*roaring.Bitmap, n),
	}
	if p.minSplitSize < 2 {
		p.minSplitSize = 2
	}
	for i := range p.neighbors {
		p.neighbors[i] = roaring.New()
	}

	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

// autoProjections returns the O(log N) projection count.
func autoProjections(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// build runs the three phases: projection, splitting, sampling.
func (p *Projected) build() error {
	n := len(p.pts)
	if n == 0 {
		return nil
	}

	root := rand.New(rand.NewSource(p.opts.Seed))

	// Projection vectors and per-projection seeds are drawn from the root
	// generator up front, in a fixed order, so that worker scheduling
	// cannot influence the result.
	vecs := make([][3]float32, p.opts.Projections)
	seeds := make([]int64, p.opts.Projections)
	for i := range vecs {
		vecs[i] = p.randomUnitVector(root)
		seeds[i] = root.Int63()
	}

	// Phase 1: project all points onto each vector. One task per vector;
	// tasks write disjoint rows of proj.
	proj := make([][]float32, p.opts.Projections)
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for pi := range vecs {
		pi := pi
		g.Go(func() error {
			row := make([]float32, n)
			v := vecs[pi]
			for i := range p.pts {
				pt := &p.pts[i]
				d := pt.X*v[0] + pt.Y*v[1]
				if p.opts.ThreeD {
					d += pt.Z * v[2]
				}
				row[i] = d
			}
			proj[pi] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Phase 2: split each projection recursively. One task per projection,
	// each with a private random sub-stream; results are merged in
	// projection order after the join.
	sets := make([][][]uint32, p.opts.Projections)
	var sg errgroup.Group
	sg.SetLimit(p.opts.Workers)
	for pi := range vecs {
		pi := pi
		sg.Go(func() error {
			ids := make([]uint32, n)
			for i := range ids {
				ids[i] = uint32(i)
			}
			s := &splitter{
				proj:    proj[pi],
				rng:     rand.New(rand.NewSource(seeds[pi])),
				minSize: p.minSplitSize,
				limit:   p.opts.MaxSplitSets,
			}
			s.split(ids, 0)
			if s.overflow {
				return &index.ErrCapacityExceeded{
					Requested: s.produced,
					Limit:     p.opts.MaxSplitSets,
				}
			}
			sets[pi] = s.sets
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return err
	}

	total := 0
	for _, s := range sets {
		total += len(s)
	}
	if total > p.opts.MaxSplitSets {
		return &index.ErrCapacityExceeded{Requested: total, Limit: p.opts.MaxSplitSets}
	}

	// Phase 3: sample neighborhoods. Projections are processed in order;
	// within one projection the final ranges are disjoint in point ids, so
	// parallel tasks write disjoint slices of sums/counts. Only the shared
	// neighbor sets need the striped locks.
	var locks [lockShards]sync.Mutex
	for pi := range sets {
		var eg errgroup.Group
		eg.SetLimit(p.opts.Workers)
		for _, ids := range sets[pi] {
			ids := ids
			eg.Go(func() error {
				p.sample(ids, &locks)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// randomUnitVector draws a uniform direction: a semicircle angle in 2D, a
// spherical sample in 3D.
func (p *Projected) randomUnitVector(rng *rand.Rand) [3]float32 {
	if !p.opts.ThreeD {
		theta := rng.Float64() * math.Pi
		return [3]float32{float32(math.Cos(theta)), float32(math.Sin(theta)), 0}
	}
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return [3]float32{
		float32(r * math.Cos(phi)),
		float32(r * math.Sin(phi)),
		float32(z),
	}
}

// splitter recursively partitions one projection into nested sub-ranges.
type splitter struct {
	proj    []float32
	rng     *rand.Rand
	minSize int
	limit   int

	sets     [][]uint32
	produced int
	overflow bool
}

func (s *splitter) split(ids []uint32, depth int) {
	if s.overflow {
		return
	}
	if len(ids) <= s.minSize || depth >= maxSplitDepth {
		s.produced++
		if s.produced > s.limit {
			s.overflow = true
			return
		}
		s.sets = append(s.sets, ids)
		return
	}

	var mid int
	if s.rng.Intn(2) == 0 {
		mid = s.splitByPivotElement(ids)
	} else {
		mid = s.splitByValue(ids)
	}
	if mid <= 0 || mid >= len(ids) {
		// Degenerate partition (identical projected values); fall back to
		// the middle so recursion stays bounded.
		mid = len(ids) / 2
	}
	s.split(ids[:mid], depth+1)
	s.split(ids[mid:], depth+1)
}

// splitByPivotElement partitions around the projected value of a randomly
// chosen element and returns the boundary.
func (s *splitter) splitByPivotElement(ids []uint32) int {
	pivot := s.proj[ids[s.rng.Intn(len(ids))]]
	return s.partition(ids, pivot)
}

// splitByValue partitions around a uniformly random value between the range
// minimum and maximum.
func (s *splitter) splitByValue(ids []uint32) int {
	lo, hi := s.proj[ids[0]], s.proj[ids[0]]
	for _, id := range ids[1:] {
		v := s.proj[id]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return 0
	}
	pivot := lo + float32(s.rng.Float64())*(hi-lo)
	return s.partition(ids, pivot)
}

// partition reorders ids so that projected values <= pivot come first and
// returns the boundary index.
func (s *splitter) partition(ids []uint32, pivot float32) int {
	i, j := 0, len(ids)-1
	for i <= j {
		for i <= j && s.proj[ids[i]] <= pivot {
			i++
		}
		for i <= j && s.proj[ids[j]] > pivot {
			j--
		}
		if i < j {
			ids[i], ids[j] = ids[j], ids[i]
			i++
			j--
		}
	}
	return i
}

// sample accumulates distances and neighbor ids for one final sub-range.
func (p *Projected) sample(ids []uint32, locks *[lockShards]sync.Mutex) {
	switch p.opts.Strategy {
	case StrategyRandomPair:
		if len(ids) < 2 {
			return
		}
		for j := range ids {
			p.accumulate(ids[j], ids[(j+1)%len(ids)], locks)
		}
	case StrategyAllPairs:
		for j := range ids {
			for k := j + 1; k < len(ids); k++ {
				p.accumulate(ids[j], ids[k], locks)
			}
		}
	default: // StrategyMedian
		m := ids[len(ids)/2]
		for _, id := range ids {
			if id != m {
				p.accumulate(id, m, locks)
			}
		}
	}
}

func (p *Projected) accumulate(a, b uint32, locks *[lockShards]sync.Mutex) {
	d := point.SqDist(&p.pts[a], &p.pts[b], p.opts.ThreeD)

	p.sums[a] += float64(d)
	p.counts[a]++
	p.sums[b] += float64(d)
	p.counts[b]++

	locks[a%lockShards].Lock()
	p.neighbors[a].Add(b)
	locks[a%lockShards].Unlock()

	locks[b%lockShards].Lock()
	p.neighbors[b].Add(a)
	locks[b%lockShards].Unlock()
}

// Len returns the number of indexed points.
func (p *Projected) Len() int { return len(p.pts) }

// Points returns the backing point slice.
func (p *Projected) Points() []point.Point { return p.pts }

// Neighbors fills out with the sampled neighbors of point i within sqRadius.
func (p *Projected) Neighbors(i int, sqRadius float32, out *index.Candidates) {
	out.Reset()
	it := p.neighbors[i].Iterator()
	for it.HasNext() {
		id := it.Next()
		d := point.SqDist(&p.pts[i], &p.pts[id], p.opts.ThreeD)
		if d <= sqRadius {
			out.Add(id, d)
		}
	}
}

// CountAtLeast reports whether point i has at least minCount sampled
// neighbors within sqRadius.
func (p *Projected) CountAtLeast(i int, sqRadius float32, minCount int) bool {
	if minCount <= 0 {
		return true
	}
	count := 0
	it := p.neighbors[i].Iterator()
	for it.HasNext() {
		id := it.Next()
		if point.SqDist(&p.pts[i], &p.pts[id], p.opts.ThreeD) <= sqRadius {
			count++
			if count >= minCount {
				return true
			}
		}
	}
	return false
}

// CoreDistance returns the approximate squared core distance of point i: the
// mean of its sampled squared distances, Undefined when i has fewer than
// minPts-1 sampled neighbors.
func (p *Projected) CoreDistance(i int, cand *index.Candidates, minPts int) float32 {
	if cand.Len() < minPts-1 || p.counts[i] == 0 {
		return point.Undefined
	}
	return float32(p.sums[i] / float64(p.counts[i]))
}
