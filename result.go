package optigo

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/optigo/extract"
	"github.com/hupe1980/optigo/hull"
	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// Result is the read-only view over one OPTICS run: the ordered sequence,
// and, after an extraction, cluster assignments, the cluster hierarchy and
// per-cluster geometry.
type Result struct {
	ord       *optics.Ordering
	clusterer *Clusterer

	hier        *extract.Hierarchy
	geoms       map[int32]*hull.Geometry
	numClusters int
	extracted   bool
}

// Ordering exposes the underlying ordered sequence.
func (r *Result) Ordering() *optics.Ordering { return r.ord }

// Len returns the number of clustered points.
func (r *Result) Len() int { return r.ord.Len() }

// NumClusters returns the cluster count of the last extraction.
func (r *Result) NumClusters() int { return r.numClusters }

// Reachability returns the true reachability distances in traversal order.
func (r *Result) Reachability() []float64 {
	return r.ord.ReachabilityProfile()
}

// CoreDistances returns the true core distances in traversal order.
func (r *Result) CoreDistances() []float64 {
	return r.ord.CoreProfile()
}

// ReachabilityByID returns the reachability distances in original point-id
// order.
func (r *Result) ReachabilityByID() []float64 {
	out := make([]float64, r.ord.Len())
	for _, e := range r.ord.Entries() {
		out[e.ParentID] = e.ReachDist
	}
	return out
}

// CoreDistancesByID returns the core distances in original point-id order.
func (r *Result) CoreDistancesByID() []float64 {
	out := make([]float64, r.ord.Len())
	for _, e := range r.ord.Entries() {
		out[e.ParentID] = e.CoreDist
	}
	return out
}

// ExtractDBSCAN derives a flat epsilon clustering from the ordering and
// returns the number of clusters. Agrees with standalone DBSCAN whenever
// eps is at most the generating distance.
func (r *Result) ExtractDBSCAN(eps float32, optFns ...func(o *extract.DBSCANOptions)) (int, error) {
	d, err := extract.NewDBSCAN(r.clusterer.minPts, eps, optFns...)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	n := d.FromOrdering(r.ord)
	r.clusterer.logger.LogExtraction("dbscan", n, time.Since(start))

	r.numClusters = n
	r.hier = extract.FlatHierarchy(r.ord)
	r.geoms = nil
	r.extracted = true
	return n, nil
}

// ExtractXi runs the hierarchical steepness extraction and returns the
// cluster hierarchy.
func (r *Result) ExtractXi(xi float64, optFns ...func(o *extract.XiOptions)) (*extract.Hierarchy, error) {
	x, err := extract.NewXi(r.ord, xi, optFns...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	h := x.Extract()
	r.clusterer.logger.LogExtraction("xi", h.NumClusters(), time.Since(start))

	r.hier = h
	r.numClusters = h.NumClusters()
	r.geoms = nil
	r.extracted = true
	return h, nil
}

// Hierarchy returns the cluster hierarchy of the last extraction, nil
// before any extraction.
func (r *Result) Hierarchy() *extract.Hierarchy { return r.hier }

// Assignments returns the cluster tag of every point in original id order;
// 0 marks noise.
func (r *Result) Assignments() []int32 {
	pts := r.ord.Points()
	out := make([]int32, len(pts))
	for i := range pts {
		out[i] = pts[i].ClusterTag
	}
	return out
}

// CoreAssignments returns cluster tags restricted to core points: points
// whose core distance exceeds the generating distance are reported as noise.
func (r *Result) CoreAssignments() []int32 {
	eps := float64(r.ord.Epsilon())
	out := make([]int32, r.ord.Len())
	for _, e := range r.ord.Entries() {
		if math.IsInf(e.CoreDist, 1) || e.CoreDist > eps {
			out[e.ParentID] = point.Noise
			continue
		}
		out[e.ParentID] = e.ClusterTag
	}
	return out
}

// Members returns the point-id set of one cluster, including the points of
// its nested sub-clusters.
func (r *Result) Members(id int32) *roaring.Bitmap {
	out := roaring.New()
	if r.hier == nil {
		for _, p := range r.ord.Points() {
			if p.ClusterTag == id {
				out.Add(p.ID)
			}
		}
		return out
	}
	c := r.hier.Find(id)
	if c == nil {
		return out
	}
	for pos := c.Start; pos <= c.End; pos++ {
		e := r.ord.Entry(pos)
		if e.ClusterTag != point.Noise {
			out.Add(e.ParentID)
		}
	}
	return out
}

// ParentOf returns, for each given cluster id, the id of its closest
// enclosing cluster, or 0 when the cluster is top-level or unknown.
func (r *Result) ParentOf(ids ...int32) []int32 {
	out := make([]int32, len(ids))
	if r.hier == nil {
		return out
	}
	for i, id := range ids {
		out[i] = r.hier.Parent(id)
	}
	return out
}

// geometry lazily aggregates hulls and bounding boxes for the current
// hierarchy.
func (r *Result) geometry() map[int32]*hull.Geometry {
	if r.geoms == nil && r.hier != nil {
		r.geoms = hull.Aggregate(r.ord, r.hier)
	}
	return r.geoms
}

// HullOf returns the convex hull of one cluster, nil when the cluster is
// unknown or its point set is degenerate. A nil hull is a valid state.
func (r *Result) HullOf(id int32) *hull.Hull {
	g := r.geometry()[id]
	if g == nil {
		return nil
	}
	return g.Hull
}

// BBoxOf returns the bounding box of one cluster; ok is false for unknown
// clusters.
func (r *Result) BBoxOf(id int32) (hull.BBox, bool) {
	g := r.geometry()[id]
	if g == nil {
		return hull.BBox{}, false
	}
	return g.BBox, true
}

// Scramble relabels all cluster ids with a random bijection drawn from the
// given seed. The partition is untouched: two points share a cluster after
// scrambling iff they did before.
func (r *Result) Scramble(seed int64) {
	if !r.extracted || r.numClusters == 0 {
		return
	}

	old := make([]int32, 0, r.numClusters)
	seen := make(map[int32]bool, r.numClusters)
	for _, p := range r.ord.Points() {
		if p.ClusterTag != point.Noise && !seen[p.ClusterTag] {
			seen[p.ClusterTag] = true
			old = append(old, p.ClusterTag)
		}
	}
	if r.hier != nil {
		for _, c := range r.hier.Nodes() {
			if !seen[c.ClusterID] {
				seen[c.ClusterID] = true
				old = append(old, c.ClusterID)
			}
		}
	}
	sort.Slice(old, func(i, j int) bool { return old[i] < old[j] })

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(old))
	mapping := make(map[int32]int32, len(old))
	for i, o := range old {
		mapping[o] = old[perm[i]]
	}

	for i := 0; i < r.ord.Len(); i++ {
		if tag := r.ord.Entry(i).ClusterTag; tag != point.Noise {
			r.ord.SetClusterTag(i, mapping[tag])
		}
	}
	if r.hier != nil {
		for _, c := range r.hier.Nodes() {
			c.ClusterID = mapping[c.ClusterID]
		}
	}
	r.geoms = nil
}

// ProfileStats summarizes the finite part of the reachability profile.
type ProfileStats struct {
	Finite int // number of finite reachability values

	Mean   float64
	StdDev float64
	Median float64
	Q1, Q3 float64
	Max    float64
}

// Stats computes summary statistics over the finite reachability values,
// a cheap diagnostic for choosing epsilon and xi.
func (r *Result) Stats() ProfileStats {
	vals := make([]float64, 0, r.ord.Len())
	for _, e := range r.ord.Entries() {
		if !math.IsInf(e.ReachDist, 1) {
			vals = append(vals, e.ReachDist)
		}
	}
	if len(vals) == 0 {
		return ProfileStats{}
	}
	sort.Float64s(vals)

	mean, std := stat.MeanStdDev(vals, nil)
	return ProfileStats{
		Finite: len(vals),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, vals, nil),
		Q1:     stat.Quantile(0.25, stat.Empirical, vals, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, vals, nil),
		Max:    vals[len(vals)-1],
	}
}
