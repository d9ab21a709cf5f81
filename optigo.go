package optigo

import (
	"math"
	"time"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/index/grid"
	"github.com/hupe1980/optigo/index/kdtree"
	"github.com/hupe1980/optigo/index/projected"
	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// Clusterer runs OPTICS over one of the spatial index strategies. It is
// created via the Grid, Tree and Projected builders and is safe to reuse for
// successive fits; a single fit is strictly single-threaded apart from the
// projected-index build.
type Clusterer struct {
	kind        IndexKind
	minPts      int
	eps         float32 // 0 = auto-estimate at fit time
	seed        int64
	strategy    projected.Strategy
	projections int
	workers     int
	logger      *Logger
}

// MinPoints returns the configured minPts.
func (c *Clusterer) MinPoints() int { return c.minPts }

// Fit clusters a 2D point set. The coordinate slices must have equal,
// non-zero length.
func (c *Clusterer) Fit(x, y []float32) (*Result, error) {
	return c.fit(x, y, nil)
}

// Fit3D clusters a 3D point set.
func (c *Clusterer) Fit3D(x, y, z []float32) (*Result, error) {
	return c.fit(x, y, z)
}

func (c *Clusterer) fit(x, y, z []float32) (*Result, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if len(x) != len(y) || (z != nil && len(z) != len(x)) {
		return nil, ErrLengthMismatch
	}

	pts := point.FromCoords(x, y, z)
	threeD := z != nil

	eps := c.eps
	if eps == 0 {
		eps = EstimateEpsilon(pts, c.minPts, threeD)
	}

	start := time.Now()
	idx, err := c.buildIndex(pts, eps, threeD)
	c.logger.LogIndexBuild(c.kind.String(), len(pts), eps, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	engine, err := optics.NewEngine(idx, c.minPts, eps)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	ord, err := engine.Run()
	if err != nil {
		return nil, err
	}
	c.logger.LogOrdering(len(pts), c.minPts, eps, time.Since(start))

	return &Result{ord: ord, clusterer: c}, nil
}

func (c *Clusterer) buildIndex(pts []point.Point, eps float32, threeD bool) (index.Index, error) {
	switch c.kind {
	case KindTree:
		return kdtree.New(pts, func(o *kdtree.Options) {
			o.ThreeD = threeD
		}), nil
	case KindProjected:
		return projected.New(pts, c.minPts, func(o *projected.Options) {
			o.Seed = c.seed
			o.Strategy = c.strategy
			o.Projections = c.projections
			o.Workers = c.workers
			o.ThreeD = threeD
		})
	default:
		return grid.New(pts, eps, func(o *grid.Options) {
			o.ThreeD = threeD
		}), nil
	}
}

// EstimateEpsilon derives a generating distance from the data density: the
// radius of a disk (or ball) expected to contain minPts points if the data
// were spread uniformly over its bounding box.
func EstimateEpsilon(pts []point.Point, minPts int, threeD bool) float32 {
	b := index.ComputeBounds(pts)
	n := float64(len(pts))

	d := 2.0
	volume := float64(b.MaxX-b.MinX) * float64(b.MaxY-b.MinY)
	if threeD {
		d = 3.0
		volume *= float64(b.MaxZ - b.MinZ)
	}
	if volume <= 0 || n == 0 {
		return 1
	}

	eps := math.Pow(
		volume*float64(minPts)*math.Gamma(d/2+1)/(n*math.Pow(math.Pi, d/2)),
		1/d,
	)
	return float32(eps)
}
