package hull

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/optigo/extract"
	"github.com/hupe1980/optigo/index/grid"
	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// blob appends an 8x5 grid of points with 0.1 spacing at (cx, cy).
func blob(x, y []float32, cx, cy float32) ([]float32, []float32) {
	for i := 0; i < 8; i++ {
		for j := 0; j < 5; j++ {
			x = append(x, cx+float32(i)*0.1)
			y = append(y, cy+float32(j)*0.1)
		}
	}
	return x, y
}

func runOrdering(t *testing.T, pts []point.Point, minPts int, eps float32) *optics.Ordering {
	t.Helper()

	engine, err := optics.NewEngine(grid.New(pts, eps), minPts, eps)
	require.NoError(t, err)
	ord, err := engine.Run()
	require.NoError(t, err)
	return ord
}

func TestAggregateFlat(t *testing.T) {
	var x, y []float32
	x, y = blob(x, y, 0, 0)
	x, y = blob(x, y, 100, 100)
	pts := point.FromCoords(x, y, nil)

	ord := runOrdering(t, pts, 5, 300)

	d, err := extract.NewDBSCAN(5, 1)
	require.NoError(t, err)
	n := d.FromOrdering(ord)
	require.Equal(t, 2, n)

	geoms := Aggregate(ord, extract.FlatHierarchy(ord))
	require.Len(t, geoms, 2)

	for id, g := range geoms {
		require.NotNil(t, g.Hull, "cluster %d", id)
		assert.InDelta(t, 0.7*0.4, g.Hull.Area, 1e-3, "hull of one 8x5 blob")
		assert.InDelta(t, 0.7, g.BBox.MaxX-g.BBox.MinX, 1e-4)
		assert.InDelta(t, 0.4, g.BBox.MaxY-g.BBox.MinY, 1e-4)
	}

	// Every member point lies inside its cluster hull.
	for _, e := range ord.Entries() {
		if e.ClusterTag == point.Noise {
			continue
		}
		g := geoms[e.ClusterTag]
		p := pts[e.ParentID]
		assert.True(t, g.Hull.Contains(Point{X: p.X, Y: p.Y}, 1e-4))
	}
}

func TestAggregateNested(t *testing.T) {
	// Two blobs close together form a joint super-cluster, framed by sparse
	// ramps so the steepness extraction can see the boundaries.
	var x, y []float32
	for i := 0; i < 10; i++ {
		x = append(x, float32(i)*2)
		y = append(y, 0)
	}
	x, y = blob(x, y, 100, 0)
	x, y = blob(x, y, 105, 0)
	for i := 0; i < 10; i++ {
		x = append(x, 200+float32(i)*2)
		y = append(y, 0)
	}
	pts := point.FromCoords(x, y, nil)

	ord := runOrdering(t, pts, 5, 500)

	xi, err := extract.NewXi(ord, 0.4)
	require.NoError(t, err)
	hier := xi.Extract()
	require.NotZero(t, hier.NumClusters())

	geoms := Aggregate(ord, hier)
	require.Len(t, geoms, hier.NumClusters())

	for _, c := range hier.Nodes() {
		g := geoms[c.ClusterID]
		require.NotNil(t, g)

		for _, child := range c.Children {
			cg := geoms[child.ClusterID]
			require.NotNil(t, cg)

			// Parent bbox covers every child bbox.
			assert.LessOrEqual(t, g.BBox.MinX, cg.BBox.MinX)
			assert.GreaterOrEqual(t, g.BBox.MaxX, cg.BBox.MaxX)
			assert.LessOrEqual(t, g.BBox.MinY, cg.BBox.MinY)
			assert.GreaterOrEqual(t, g.BBox.MaxY, cg.BBox.MaxY)

			// Parent hull contains the child hull's vertices.
			if g.Hull != nil && cg.Hull != nil {
				for _, v := range cg.Hull.Vertices {
					assert.True(t, g.Hull.Contains(v, 1e-3))
				}
			}
		}
	}
}
