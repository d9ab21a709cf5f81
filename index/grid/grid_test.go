package grid

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/point"
)

func randomPoints(t *testing.T, n int, seed int64, threeD bool) []point.Point {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	x := make([]float32, n)
	y := make([]float32, n)
	var z []float32
	if threeD {
		z = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		x[i] = rng.Float32() * 100
		y[i] = rng.Float32() * 100
		if threeD {
			z[i] = rng.Float32() * 100
		}
	}
	return point.FromCoords(x, y, z)
}

// bruteNeighbors is the O(n^2) oracle the index is checked against.
func bruteNeighbors(pts []point.Point, i int, sqRadius float32, threeD bool) []index.Neighbor {
	var out []index.Neighbor
	for j := range pts {
		if j == i {
			continue
		}
		d := point.SqDist(&pts[i], &pts[j], threeD)
		if d <= sqRadius {
			out = append(out, index.Neighbor{ID: uint32(j), SqDist: d})
		}
	}
	return out
}

func sortNeighbors(ns []index.Neighbor) {
	sort.Slice(ns, func(a, b int) bool { return ns[a].ID < ns[b].ID })
}

func TestNeighborsMatchesBruteForce(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		eps    float32
		threeD bool
	}{
		{"Small2D", 50, 10, false},
		{"Dense2D", 300, 5, false},
		{"Small3D", 80, 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := randomPoints(t, tt.n, 42, tt.threeD)
			g := New(pts, tt.eps, func(o *Options) { o.ThreeD = tt.threeD })

			sqEps := tt.eps * tt.eps
			cand := index.NewCandidates(16)
			for i := range pts {
				g.Neighbors(i, sqEps, cand)
				got := append([]index.Neighbor(nil), cand.Items()...)
				want := bruteNeighbors(pts, i, sqEps, tt.threeD)
				sortNeighbors(got)
				sortNeighbors(want)
				require.Equal(t, want, got, "point %d", i)
			}
		})
	}
}

func TestCountAtLeast(t *testing.T) {
	pts := randomPoints(t, 120, 7, false)
	g := New(pts, 8)

	sqEps := float32(64)
	for i := 0; i < len(pts); i += 7 {
		want := len(bruteNeighbors(pts, i, sqEps, false))
		assert.True(t, g.CountAtLeast(i, sqEps, want))
		assert.False(t, g.CountAtLeast(i, sqEps, want+1))
	}

	assert.True(t, g.CountAtLeast(0, sqEps, 0), "zero count is always satisfied")
}

func TestCoreDistance(t *testing.T) {
	pts := point.FromCoords(
		[]float32{0, 1, 0, 10},
		[]float32{0, 0, 1, 10},
		nil,
	)
	g := New(pts, 2)

	cand := index.NewCandidates(4)
	g.Neighbors(0, 4, cand)

	// Point 0 has neighbors 1 and 2 at squared distance 1 each.
	assert.Equal(t, float32(1), g.CoreDistance(0, cand, 2))
	assert.Equal(t, float32(1), g.CoreDistance(0, cand, 3))
	assert.Equal(t, point.Undefined, g.CoreDistance(0, cand, 4))
}

func TestDegenerateInputs(t *testing.T) {
	t.Run("IdenticalPoints", func(t *testing.T) {
		pts := point.FromCoords(
			[]float32{5, 5, 5, 5},
			[]float32{5, 5, 5, 5},
			nil,
		)
		g := New(pts, 1)

		cand := index.NewCandidates(4)
		g.Neighbors(0, 1, cand)
		assert.Equal(t, 3, cand.Len(), "all duplicates at distance zero")
		for _, nb := range cand.Items() {
			assert.Equal(t, float32(0), nb.SqDist)
		}
	})

	t.Run("SinglePoint", func(t *testing.T) {
		pts := point.FromCoords([]float32{1}, []float32{1}, nil)
		g := New(pts, 1)

		cand := index.NewCandidates(1)
		g.Neighbors(0, 100, cand)
		assert.Equal(t, 0, cand.Len())
		assert.False(t, g.CountAtLeast(0, 100, 1))
	})

	t.Run("CollinearVerticalLine", func(t *testing.T) {
		// Zero x-extent gives a degenerate bounding box.
		pts := point.FromCoords(
			[]float32{3, 3, 3, 3},
			[]float32{0, 1, 2, 3},
			nil,
		)
		g := New(pts, 1.5)

		cand := index.NewCandidates(4)
		g.Neighbors(1, 1.5*1.5, cand)
		got := append([]index.Neighbor(nil), cand.Items()...)
		want := bruteNeighbors(pts, 1, 1.5*1.5, false)
		sortNeighbors(got)
		sortNeighbors(want)
		assert.Equal(t, want, got)
	})
}

func TestMaxCellsCeiling(t *testing.T) {
	pts := randomPoints(t, 200, 3, false)
	g := New(pts, 1, func(o *Options) { o.MaxCells = 64 })

	// The grid must degrade rather than fail, and stay correct.
	require.LessOrEqual(t, int64(g.nx)*int64(g.ny), int64(64))

	sqEps := float32(1)
	cand := index.NewCandidates(8)
	for i := 0; i < len(pts); i += 11 {
		g.Neighbors(i, sqEps, cand)
		got := append([]index.Neighbor(nil), cand.Items()...)
		want := bruteNeighbors(pts, i, sqEps, false)
		sortNeighbors(got)
		sortNeighbors(want)
		assert.Equal(t, want, got)
	}
}

func TestResolutionOverride(t *testing.T) {
	pts := randomPoints(t, 100, 5, false)
	g := New(pts, 10, func(o *Options) { o.Resolution = 3 })

	assert.Equal(t, 3, g.Resolution())
	assert.InDelta(t, float32(10)/3, g.BinWidth(), 1e-6)
}
