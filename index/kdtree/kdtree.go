// Package kdtree implements an exact k-d tree spatial index on top of
// gonum's spatial/kdtree, for 2D or 3D point sets.
//
// The tree is the strategy of choice for moderate point counts or highly
// non-uniform density, where grid cell tuning is unreliable.
package kdtree

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/point"
)

// Compile-time checks.
var _ index.Index = (*Tree)(nil)
var _ kdtree.Interface = nodes(nil)
var _ kdtree.Comparable = node{}

// node adapts one point to gonum's Comparable. Distances are squared
// Euclidean, matching the module-wide convention.
type node struct {
	x, y, z float64
	id      uint32
	dims    int
}

func (n node) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return n.x
	case 1:
		return n.y
	default:
		return n.z
	}
}

// Compare returns the signed distance of q from the plane through n along d.
func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(node)
	return n.coord(d) - q.coord(d)
}

// Dims returns the dimensionality of the indexed space.
func (n node) Dims() int { return n.dims }

// Distance returns the squared Euclidean distance between n and c.
func (n node) Distance(c kdtree.Comparable) float64 {
	q := c.(node)
	dx := n.x - q.x
	dy := n.y - q.y
	sum := dx*dx + dy*dy
	if n.dims == 3 {
		dz := n.z - q.z
		sum += dz * dz
	}
	return sum
}

// nodes implements kdtree.Interface for tree construction.
type nodes []node

func (ns nodes) Index(i int) kdtree.Comparable        { return ns[i] }
func (ns nodes) Len() int                             { return len(ns) }
func (ns nodes) Slice(start, end int) kdtree.Interface { return ns[start:end] }
func (ns nodes) Pivot(d kdtree.Dim) int {
	return plane{Dim: d, nodes: ns}.Pivot()
}

// plane is a partitioning helper over one splitting dimension.
type plane struct {
	kdtree.Dim
	nodes
}

func (p plane) Less(i, j int) bool {
	return p.nodes[i].coord(p.Dim) < p.nodes[j].coord(p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i]
}

// Options configures the tree index.
type Options struct {
	// ThreeD selects 3D splitting and distance computation.
	ThreeD bool
}

// DefaultOptions holds the default tree configuration.
var DefaultOptions = Options{}

// Tree is a balanced k-d tree index over a fixed point set.
type Tree struct {
	pts  []point.Point
	tree *kdtree.Tree
	dims int

	scratch index.Candidates
}

// New builds a balanced tree over the given points. The point slice is
// retained, not copied.
func New(pts []point.Point, optFns ...func(o *Options)) *Tree {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	dims := 2
	if opts.ThreeD {
		dims = 3
	}

	ns := make(nodes, len(pts))
	for i := range pts {
		ns[i] = node{
			x:    float64(pts[i].X),
			y:    float64(pts[i].Y),
			z:    float64(pts[i].Z),
			id:   pts[i].ID,
			dims: dims,
		}
	}

	return &Tree{
		pts:  pts,
		tree: kdtree.New(ns, false),
		dims: dims,
	}
}

// Len returns the number of indexed points.
func (t *Tree) Len() int { return len(t.pts) }

// Points returns the backing point slice.
func (t *Tree) Points() []point.Point { return t.pts }

// Visit calls fn with the id and squared distance of every point within
// sqRadius of point i, excluding i itself. Visit order is unspecified.
func (t *Tree) Visit(i int, sqRadius float32, fn func(id uint32, sqDist float32)) {
	p := &t.pts[i]
	q := node{
		x:    float64(p.X),
		y:    float64(p.Y),
		z:    float64(p.Z),
		id:   p.ID,
		dims: t.dims,
	}

	keep := kdtree.NewDistKeeper(float64(sqRadius))
	t.tree.NearestSet(keep, q)

	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		n := c.Comparable.(node)
		if int(n.id) == i {
			continue
		}
		fn(n.id, float32(c.Dist))
	}
}

// Neighbors fills out with every point within sqRadius of point i.
func (t *Tree) Neighbors(i int, sqRadius float32, out *index.Candidates) {
	out.Reset()
	t.Visit(i, sqRadius, out.Add)
}

// CountAtLeast reports whether point i has at least minCount neighbors
// within sqRadius.
func (t *Tree) CountAtLeast(i int, sqRadius float32, minCount int) bool {
	if minCount <= 0 {
		return true
	}
	t.Neighbors(i, sqRadius, &t.scratch)
	return t.scratch.Len() >= minCount
}

// CoreDistance returns the exact squared core distance from the last
// Neighbors result.
func (t *Tree) CoreDistance(_ int, cand *index.Candidates, minPts int) float32 {
	return index.CoreDistance(cand, minPts)
}
