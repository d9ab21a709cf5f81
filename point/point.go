// Package point defines the point entity shared by the spatial indexes and
// the clustering algorithms.
//
// Distances attached to a point (CoreDist, ReachDist) are stored as squared
// Euclidean values; conversion to true distances happens once on output.
// Undefined marks a distance that does not exist (fewer than minPts neighbors
// within the generating distance) and maps to +Inf externally.
package point

import "github.com/chewxy/math32"

// Undefined is the sentinel for a missing core/reachability distance.
// It compares greater than every real squared distance, so priority
// comparisons need no special casing.
var Undefined = math32.Inf(1)

// NoPredecessor marks a point that was not reached from another point.
const NoPredecessor int32 = -1

// Noise is the cluster tag of unclustered points.
const Noise int32 = 0

// Point carries an immutable coordinate and the mutable scratch state of one
// clustering run. The ordering engine owns CoreDist, ReachDist and
// Predecessor; the extractors own ClusterTag. The whole slice is replaced on
// re-run, points are never removed individually.
type Point struct {
	ID uint32

	X, Y, Z float32 // Z is 0 for 2D data

	CoreDist    float32 // squared distance to the minPts-th nearest neighbor
	ReachDist   float32 // squared reachability distance
	Predecessor int32   // id of the reaching point, NoPredecessor if none
	Processed   bool
	ClusterTag  int32
}

// Reset restores the algorithm scratch fields to their defaults so the same
// slice can feed a new run.
func (p *Point) Reset() {
	p.CoreDist = Undefined
	p.ReachDist = Undefined
	p.Predecessor = NoPredecessor
	p.Processed = false
	p.ClusterTag = Noise
}

// IsDefined reports whether d is a real squared distance.
func IsDefined(d float32) bool {
	return !math32.IsInf(d, 1)
}

// TrueDist converts a squared distance to a true distance in float64.
// Undefined maps to +Inf.
func TrueDist(sq float32) float64 {
	return float64(math32.Sqrt(sq))
}

// SqDist2D returns the squared Euclidean distance between (x1,y1) and (x2,y2).
func SqDist2D(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// SqDist3D returns the squared Euclidean distance between two 3D coordinates.
func SqDist3D(x1, y1, z1, x2, y2, z2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	dz := z1 - z2
	return dx*dx + dy*dy + dz*dz
}

// SqDist returns the squared distance between two points, using the z axis
// only when threeD is set.
func SqDist(a, b *Point, threeD bool) float32 {
	if threeD {
		return SqDist3D(a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	}
	return SqDist2D(a.X, a.Y, b.X, b.Y)
}

// FromCoords builds the point slice for one run. z may be nil for 2D data;
// the caller has already validated the slice lengths.
func FromCoords(x, y, z []float32) []Point {
	pts := make([]Point, len(x))
	for i := range x {
		pts[i] = Point{
			ID:          uint32(i),
			X:           x[i],
			Y:           y[i],
			CoreDist:    Undefined,
			ReachDist:   Undefined,
			Predecessor: NoPredecessor,
		}
		if z != nil {
			pts[i].Z = z[i]
		}
	}
	return pts
}
