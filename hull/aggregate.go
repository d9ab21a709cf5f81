package hull

import (
	"github.com/hupe1980/optigo/extract"
	"github.com/hupe1980/optigo/optics"
)

// Geometry is the hull and bounding box of one cluster. Hull is nil when the
// cluster's point set is degenerate.
type Geometry struct {
	ClusterID int32
	Hull      *Hull
	BBox      BBox

	// points is the fallback set for parent aggregation when Hull is nil:
	// the cluster's own raw points plus its children's contributions.
	points []Point
}

// Points returns the point set the geometry was computed over.
func (g *Geometry) Points() []Point { return g.points }

// Aggregate computes a Geometry per cluster, bottom-up. Each cluster
// combines the raw points tagged exactly with its id (points reassigned to a
// strict sub-cluster are excluded) with the hull vertices of every direct
// child, falling back to a child's full point set when its hull is absent.
//
// The hierarchy's construction order guarantees children are processed
// before their parents.
func Aggregate(ord *optics.Ordering, hier *extract.Hierarchy) map[int32]*Geometry {
	pts := ord.Points()
	out := make(map[int32]*Geometry, hier.NumClusters())

	for _, c := range hier.Nodes() {
		g := &Geometry{ClusterID: c.ClusterID}

		first := true
		for pos := c.Start; pos <= c.End; pos++ {
			e := ord.Entry(pos)
			if e.ClusterTag != c.ClusterID {
				continue
			}
			p := &pts[e.ParentID]
			g.points = append(g.points, Point{X: p.X, Y: p.Y})
			box := BBox{
				MinX: p.X, MaxX: p.X,
				MinY: p.Y, MaxY: p.Y,
				MinZ: p.Z, MaxZ: p.Z,
			}
			if first {
				g.BBox = box
				first = false
			} else {
				g.BBox.Merge(box)
			}
		}

		for _, child := range c.Children {
			cg := out[child.ClusterID]
			if cg == nil {
				continue
			}
			if cg.Hull != nil {
				g.points = append(g.points, cg.Hull.Vertices...)
			} else {
				g.points = append(g.points, cg.points...)
			}
			if first {
				g.BBox = cg.BBox
				first = false
			} else {
				g.BBox.Merge(cg.BBox)
			}
		}

		g.Hull = Compute(g.points)
		out[c.ClusterID] = g
	}
	return out
}
