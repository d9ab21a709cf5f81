// Package index provides the spatial index abstraction used by the ordering
// engine, plus helpers shared by the concrete strategies.
package index

import (
	"github.com/hupe1980/optigo/point"
)

// Neighbor is one candidate returned by a radius query.
type Neighbor struct {
	// ID is the identifier of the neighboring point.
	ID uint32

	// SqDist is the squared Euclidean distance to the query point.
	SqDist float32
}

// Candidates is a reusable buffer of radius-query results. It is cleared and
// refilled in place by every query, so callers must consume it before the
// next call and must not retain it.
type Candidates struct {
	items []Neighbor
}

// NewCandidates creates a candidate buffer with the given initial capacity.
func NewCandidates(capacity int) *Candidates {
	return &Candidates{items: make([]Neighbor, 0, capacity)}
}

// Add appends one neighbor.
func (c *Candidates) Add(id uint32, sqDist float32) {
	c.items = append(c.items, Neighbor{ID: id, SqDist: sqDist})
}

// Len returns the number of buffered neighbors.
func (c *Candidates) Len() int { return len(c.items) }

// At returns the i-th buffered neighbor.
func (c *Candidates) At(i int) Neighbor { return c.items[i] }

// Items exposes the backing slice for iteration. The slice is invalidated by
// the next query.
func (c *Candidates) Items() []Neighbor { return c.items }

// Reset clears the buffer for the next query.
func (c *Candidates) Reset() { c.items = c.items[:0] }

// Index is a nearest-neighbor index over a fixed point set. Implementations
// are built once per run; queries never mutate the point slice.
//
// Low-level contract: i must be a valid index into Points and out must be
// non-nil. Violations are programming errors, not recoverable failures.
type Index interface {
	// Len returns the number of indexed points.
	Len() int

	// Points returns the backing point slice. The ordering engine mutates
	// the scratch fields of these points during a run.
	Points() []point.Point

	// Neighbors fills out with every point within sqRadius of point i,
	// excluding i itself, together with squared distances.
	Neighbors(i int, sqRadius float32, out *Candidates)

	// CountAtLeast reports whether point i has at least minCount neighbors
	// within sqRadius, short-circuiting as soon as the count is reached and
	// skipping distance storage entirely.
	CountAtLeast(i int, sqRadius float32, minCount int) bool

	// CoreDistance returns the squared core distance of point i given the
	// candidates of the last Neighbors call, or point.Undefined when i is
	// not a core point for minPts.
	CoreDistance(i int, cand *Candidates, minPts int) float32
}

// CoreDistance is the shared exact implementation: the squared distance to
// the minPts-th nearest neighbor, where the point itself counts as its own
// first neighbor. cand holds the neighbors of the point excluding itself, so
// the core distance is defined iff len(cand) >= minPts-1.
func CoreDistance(cand *Candidates, minPts int) float32 {
	k := minPts - 1
	if k <= 0 {
		return 0
	}
	if cand.Len() < k {
		return point.Undefined
	}
	return selectKth(cand.items, k)
}

// selectKth returns the k-th smallest (1-based) SqDist using quickselect on a
// scratch copy of the distances. Average O(n), no full sort.
func selectKth(items []Neighbor, k int) float32 {
	dists := make([]float32, len(items))
	for i, n := range items {
		dists[i] = n.SqDist
	}

	lo, hi := 0, len(dists)-1
	target := k - 1
	for lo < hi {
		pivot := dists[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for dists[i] < pivot {
				i++
			}
			for dists[j] > pivot {
				j--
			}
			if i <= j {
				dists[i], dists[j] = dists[j], dists[i]
				i++
				j--
			}
		}
		if target <= j {
			hi = j
		} else if target >= i {
			lo = i
		} else {
			break
		}
	}
	return dists[target]
}

// Bounds is the axis-aligned bounding box of a point set.
type Bounds struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
}

// ComputeBounds scans pts once and returns its bounding box. An empty slice
// yields the zero Bounds.
func ComputeBounds(pts []point.Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: pts[0].X, MaxX: pts[0].X,
		MinY: pts[0].Y, MaxY: pts[0].Y,
		MinZ: pts[0].Z, MaxZ: pts[0].Z,
	}
	for i := 1; i < len(pts); i++ {
		p := &pts[i]
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
		if p.Z < b.MinZ {
			b.MinZ = p.Z
		}
		if p.Z > b.MaxZ {
			b.MaxZ = p.Z
		}
	}
	return b
}
