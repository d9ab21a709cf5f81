package optigo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/optigo/extract"
	"github.com/hupe1980/optigo/point"
)

// twoBlobs returns two 8x5 point grids with 0.1 spacing, 140 apart.
func twoBlobs() ([]float32, []float32) {
	var x, y []float32
	for _, c := range []float32{0, 100} {
		for i := 0; i < 8; i++ {
			for j := 0; j < 5; j++ {
				x = append(x, c+float32(i)*0.1)
				y = append(y, c+float32(j)*0.1)
			}
		}
	}
	return x, y
}

func TestBuilderValidation(t *testing.T) {
	t.Run("InvalidMinPoints", func(t *testing.T) {
		_, err := Grid().MinPoints(0).Build()
		assert.ErrorIs(t, err, ErrInvalidMinPoints)
	})

	t.Run("NegativeEpsilon", func(t *testing.T) {
		_, err := Grid().Epsilon(-1).Build()
		assert.ErrorIs(t, err, ErrInvalidEpsilon)
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			Grid().MinPoints(-1).MustBuild()
		})
	})

	t.Run("Defaults", func(t *testing.T) {
		c := Grid().MustBuild()
		assert.Equal(t, DefaultMinPoints, c.MinPoints())
	})
}

func TestFitValidation(t *testing.T) {
	c := Grid().MustBuild()

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := c.Fit(nil, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := c.Fit([]float32{1, 2}, []float32{1})
		assert.ErrorIs(t, err, ErrLengthMismatch)

		_, err = c.Fit3D([]float32{1}, []float32{1}, []float32{1, 2})
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestFitAndExtractDBSCAN(t *testing.T) {
	x, y := twoBlobs()

	c := Grid().MinPoints(5).Epsilon(300).MustBuild()
	res, err := c.Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, len(x), res.Len())

	n, err := res.ExtractDBSCAN(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, res.NumClusters())

	assignments := res.Assignments()
	for id := 0; id < 40; id++ {
		assert.Equal(t, assignments[0], assignments[id])
		assert.NotEqual(t, point.Noise, assignments[id])
	}
	for id := 40; id < 80; id++ {
		assert.Equal(t, assignments[40], assignments[id])
	}
	assert.NotEqual(t, assignments[0], assignments[40])

	t.Run("Members", func(t *testing.T) {
		m := res.Members(assignments[0])
		assert.Equal(t, uint64(40), m.GetCardinality())
		assert.True(t, m.Contains(0))
		assert.False(t, m.Contains(40))
	})

	t.Run("Profiles", func(t *testing.T) {
		reach := res.Reachability()
		require.Len(t, reach, len(x))
		assert.True(t, math.IsInf(reach[0], 1), "first entry of the run")

		byID := res.ReachabilityByID()
		for i, e := range res.Ordering().Entries() {
			assert.Equal(t, reach[i], byID[e.ParentID])
		}
	})

	t.Run("Hulls", func(t *testing.T) {
		h := res.HullOf(assignments[0])
		require.NotNil(t, h)
		assert.InDelta(t, 0.28, h.Area, 1e-3)

		box, ok := res.BBoxOf(assignments[0])
		require.True(t, ok)
		assert.InDelta(t, 0.7, box.MaxX-box.MinX, 1e-4)

		assert.Nil(t, res.HullOf(999))
		_, ok = res.BBoxOf(999)
		assert.False(t, ok)
	})

	t.Run("ParentOf", func(t *testing.T) {
		parents := res.ParentOf(assignments[0], assignments[40], 999)
		assert.Equal(t, []int32{0, 0, 0}, parents, "flat clusters have no parents")
	})

	t.Run("Stats", func(t *testing.T) {
		s := res.Stats()
		assert.Equal(t, len(x)-1, s.Finite)
		assert.Greater(t, s.Mean, 0.0)
		assert.GreaterOrEqual(t, s.Q3, s.Median)
		assert.GreaterOrEqual(t, s.Median, s.Q1)
		assert.GreaterOrEqual(t, s.Max, s.Q3)
	})

	t.Run("CoreAssignments", func(t *testing.T) {
		// Every point is core at the generating distance here.
		assert.Equal(t, res.Assignments(), res.CoreAssignments())
	})
}

func TestExtractDBSCANCoreOnly(t *testing.T) {
	// The border point (id 3) is popped between the row and the core pair,
	// so the core-only restriction punches a noise hole into the middle of
	// the cluster's tag run.
	x := []float32{0, 0.3, 0.6, 1.5, 0.6, 0.3}
	y := []float32{0, 0, 0, 0, 0.95, 0.95}

	res, err := Grid().MinPoints(3).Epsilon(100).MustBuild().Fit(x, y)
	require.NoError(t, err)

	n, err := res.ExtractDBSCAN(1, func(o *extract.DBSCANOptions) { o.CoreOnly = true })
	require.NoError(t, err)
	require.Equal(t, 1, n)

	assignments := res.Assignments()
	tag := assignments[0]
	assert.NotEqual(t, point.Noise, tag)
	for _, id := range []int{1, 2, 4, 5} {
		assert.Equal(t, tag, assignments[id])
	}
	assert.Equal(t, point.Noise, assignments[3])

	require.Equal(t, 1, res.Hierarchy().NumClusters())

	m := res.Members(tag)
	assert.Equal(t, uint64(5), m.GetCardinality())
	assert.True(t, m.Contains(0))
	assert.True(t, m.Contains(5))
	assert.False(t, m.Contains(3))

	h := res.HullOf(tag)
	require.NotNil(t, h)
	assert.InDelta(t, 0.4275, h.Area, 1e-3)

	box, ok := res.BBoxOf(tag)
	require.True(t, ok)
	assert.InDelta(t, 0.6, box.MaxX-box.MinX, 1e-4, "border point stays outside the box")
	assert.InDelta(t, 0.95, box.MaxY-box.MinY, 1e-4)
}

func TestScramblePreservesPartition(t *testing.T) {
	x, y := twoBlobs()

	res, err := Grid().MinPoints(5).Epsilon(300).MustBuild().Fit(x, y)
	require.NoError(t, err)
	_, err = res.ExtractDBSCAN(1)
	require.NoError(t, err)

	before := res.Assignments()
	res.Scramble(4711)
	after := res.Assignments()

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i] == point.Noise, after[i] == point.Noise)
		for j := i + 1; j < len(before); j++ {
			sameBefore := before[i] != point.Noise && before[i] == before[j]
			sameAfter := after[i] != point.Noise && after[i] == after[j]
			require.Equal(t, sameBefore, sameAfter, "points %d,%d", i, j)
		}
	}

	// Hierarchy and geometry follow the relabeling.
	assert.Equal(t, 2, res.NumClusters())
	assert.NotNil(t, res.HullOf(after[0]))
	assert.Equal(t, uint64(40), res.Members(after[0]).GetCardinality())
}

func TestPartitionInvariantUnderInputPermutation(t *testing.T) {
	x, y := twoBlobs()

	perm := make([]int, len(x))
	for i := range perm {
		perm[i] = (i*37 + 11) % len(x) // fixed bijection
	}
	px := make([]float32, len(x))
	py := make([]float32, len(y))
	for i, j := range perm {
		px[j] = x[i]
		py[j] = y[i]
	}

	cluster := func(xs, ys []float32) []int32 {
		res, err := Grid().MinPoints(5).Epsilon(300).MustBuild().Fit(xs, ys)
		require.NoError(t, err)
		_, err = res.ExtractDBSCAN(1)
		require.NoError(t, err)
		return res.Assignments()
	}

	orig := cluster(x, y)
	permuted := cluster(px, py)

	// Co-membership is a property of the coordinates, not the input order.
	for i := range orig {
		for j := i + 1; j < len(orig); j++ {
			same := orig[i] != point.Noise && orig[i] == orig[j]
			samePermuted := permuted[perm[i]] != point.Noise &&
				permuted[perm[i]] == permuted[perm[j]]
			require.Equal(t, same, samePermuted, "points %d,%d", i, j)
		}
	}
}

func TestTreeClusterer(t *testing.T) {
	x, y := twoBlobs()

	res, err := Tree().MinPoints(5).Epsilon(300).MustBuild().Fit(x, y)
	require.NoError(t, err)

	n, err := res.ExtractDBSCAN(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTreeClusterer3D(t *testing.T) {
	x, y := twoBlobs()
	z := make([]float32, len(x))
	for i := range z {
		z[i] = x[i]
	}

	res, err := Tree().MinPoints(5).Epsilon(500).MustBuild().Fit3D(x, y, z)
	require.NoError(t, err)

	n, err := res.ExtractDBSCAN(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProjectedClustererDeterminism(t *testing.T) {
	x, y := twoBlobs()

	build := func() *Result {
		res, err := Projected().MinPoints(5).Epsilon(300).Seed(99).Workers(4).MustBuild().Fit(x, y)
		require.NoError(t, err)
		return res
	}

	first := build()
	second := build()

	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Reachability(), second.Reachability())
	assert.Equal(t, first.CoreDistances(), second.CoreDistances())
}

func TestAutoEpsilon(t *testing.T) {
	x, y := twoBlobs()

	t.Run("Estimate", func(t *testing.T) {
		pts := point.FromCoords(x, y, nil)
		eps := EstimateEpsilon(pts, 5, false)
		assert.Greater(t, eps, float32(0))
	})

	t.Run("DegenerateBox", func(t *testing.T) {
		pts := point.FromCoords([]float32{1, 1, 1}, []float32{2, 2, 2}, nil)
		assert.Equal(t, float32(1), EstimateEpsilon(pts, 5, false))
	})

	t.Run("FitWithAutoEpsilon", func(t *testing.T) {
		res, err := Grid().MinPoints(5).MustBuild().Fit(x, y)
		require.NoError(t, err)
		assert.Equal(t, len(x), res.Len())
		assert.Greater(t, res.Ordering().Epsilon(), float32(0))
	})
}

func TestExtractXiEndToEnd(t *testing.T) {
	// Two dense runs framed by sparse ramps, laid out along the x axis.
	var x []float32
	for i := 0; i < 10; i++ {
		x = append(x, float32(i)*2)
	}
	for i := 0; i < 40; i++ {
		x = append(x, 60+float32(i)*0.01)
	}
	for i := 0; i < 40; i++ {
		x = append(x, 160+float32(i)*0.01)
	}
	for i := 0; i < 10; i++ {
		x = append(x, 200+float32(i)*2)
	}
	y := make([]float32, len(x))

	res, err := Grid().MinPoints(5).Epsilon(500).MustBuild().Fit(x, y)
	require.NoError(t, err)

	h, err := res.ExtractXi(0.4)
	require.NoError(t, err)
	assert.Equal(t, 2, h.NumClusters())
	assert.Same(t, h, res.Hierarchy())
	assert.Equal(t, 2, res.NumClusters())

	_, err = res.ExtractXi(2)
	assert.ErrorIs(t, err, ErrInvalidXi)
}
