package extract

import (
	"errors"
	"math"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/internal/visited"
	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// ErrInvalidEpsilon is returned when the clustering radius is not positive.
var ErrInvalidEpsilon = errors.New("epsilon must be positive")

// DBSCAN performs classic density clustering at a fixed epsilon. It can run
// standalone over a spatial index or be derived from an OPTICS ordering;
// both modes agree when epsilon is at most the generating distance.
type DBSCAN struct {
	minPts int
	eps    float32

	// CoreOnly restricts cluster membership to core points; border points
	// stay noise.
	coreOnly bool
}

// DBSCANOptions configures the extractor.
type DBSCANOptions struct {
	// CoreOnly restricts cluster membership to core points.
	CoreOnly bool
}

// NewDBSCAN validates the parameters and creates an extractor.
func NewDBSCAN(minPts int, eps float32, optFns ...func(o *DBSCANOptions)) (*DBSCAN, error) {
	if minPts < 1 {
		return nil, optics.ErrInvalidMinPoints
	}
	if eps <= 0 {
		return nil, ErrInvalidEpsilon
	}
	opts := DBSCANOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &DBSCAN{minPts: minPts, eps: eps, coreOnly: opts.CoreOnly}, nil
}

// Run clusters the indexed points standalone: every unprocessed core point
// expands a cluster by absorbing all points reachable through chains of core
// points within epsilon; the expansion order does not affect the partition.
// Cluster tags are written to the point slice; noise keeps tag 0. Returns the
// number of clusters.
func (d *DBSCAN) Run(idx index.Index) int {
	pts := idx.Points()
	for i := range pts {
		pts[i].Reset()
	}

	sqEps := d.eps * d.eps
	seen := visited.New(len(pts))
	cand := index.NewCandidates(d.minPts * 2)
	queue := make([]uint32, 0, 64)

	nextID := int32(0)
	for i := range pts {
		if pts[i].Processed {
			continue
		}
		pts[i].Processed = true

		// Only a core point can found a cluster.
		if !idx.CountAtLeast(i, sqEps, d.minPts-1) {
			continue
		}

		nextID++
		seen.Reset()
		seen.Visit(uint32(i))
		queue = append(queue[:0], uint32(i))
		pts[i].ClusterTag = nextID

		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]

			idx.Neighbors(int(cur), sqEps, cand)
			if cand.Len() < d.minPts-1 {
				continue // border point, do not expand
			}
			for _, nb := range cand.Items() {
				q := &pts[nb.ID]
				if !seen.Visit(nb.ID) {
					continue
				}
				if q.ClusterTag != point.Noise {
					continue // border point already claimed by an earlier cluster
				}
				q.Processed = true
				if d.coreOnly && !idx.CountAtLeast(int(nb.ID), sqEps, d.minPts-1) {
					continue
				}
				q.ClusterTag = nextID
				queue = append(queue, nb.ID)
			}
		}
	}
	return int(nextID)
}

// FromOrdering derives the epsilon clustering from an existing OPTICS
// ordering: walking the sequence, a reachability above epsilon either starts
// a new cluster (core distance within epsilon) or marks noise; otherwise the
// current cluster is extended. Returns the number of clusters.
func (d *DBSCAN) FromOrdering(ord *optics.Ordering) int {
	ord.ClearClusterTags()
	eps := float64(d.eps)

	nextID := int32(0)
	current := point.Noise
	for i := 0; i < ord.Len(); i++ {
		e := ord.Entry(i)
		if e.ReachDist > eps {
			if e.CoreDist <= eps {
				nextID++
				current = nextID
			} else {
				current = point.Noise
			}
		} else if d.coreOnly && (math.IsInf(e.CoreDist, 1) || e.CoreDist > eps) {
			// Border point under the core-only restriction.
			ord.SetClusterTag(i, point.Noise)
			continue
		}
		ord.SetClusterTag(i, current)
	}
	return int(nextID)
}
