// Package hull computes per-cluster convex hulls and bounding boxes over an
// extracted hierarchy, reusing children's hulls bottom-up.
package hull

import (
	"math"
	"sort"
)

// Point is a 2D hull vertex. Hulls are computed over the x/y plane; the z
// axis only contributes to bounding boxes.
type Point struct {
	X, Y float32
}

// Hull is a convex boundary polygon with its area and perimeter.
type Hull struct {
	// Vertices in counter-clockwise order, no closing duplicate.
	Vertices []Point

	Area      float64
	Perimeter float64
}

// Contains reports whether p lies inside or on the hull, within eps
// tolerance.
func (h *Hull) Contains(p Point, eps float64) bool {
	n := len(h.Vertices)
	for i := 0; i < n; i++ {
		a, b := h.Vertices[i], h.Vertices[(i+1)%n]
		if cross(a, b, p) < -eps {
			return false
		}
	}
	return true
}

func cross(o, a, b Point) float64 {
	return (float64(a.X)-float64(o.X))*(float64(b.Y)-float64(o.Y)) -
		(float64(a.Y)-float64(o.Y))*(float64(b.X)-float64(o.X))
}

// Compute returns the convex hull of pts via the monotone chain algorithm,
// or nil for degenerate input (fewer than three distinct points, or all
// collinear). A nil hull is a valid terminal state, not an error.
func Compute(pts []Point) *Hull {
	if len(pts) < 3 {
		return nil
	}

	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	// Drop duplicates so collinearity detection is exact.
	uniq := sorted[:1]
	for _, p := range sorted[1:] {
		last := uniq[len(uniq)-1]
		if p != last {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil
	}

	chain := func(src []Point) []Point {
		var out []Point
		for _, p := range src {
			for len(out) >= 2 && cross(out[len(out)-2], out[len(out)-1], p) <= 0 {
				out = out[:len(out)-1]
			}
			out = append(out, p)
		}
		return out
	}

	lower := chain(uniq)
	upper := chain(reversed(uniq))
	vertices := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(vertices) < 3 {
		return nil // collinear
	}

	h := &Hull{Vertices: vertices}
	for i := range vertices {
		a, b := vertices[i], vertices[(i+1)%len(vertices)]
		h.Area += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
		h.Perimeter += math.Hypot(float64(b.X)-float64(a.X), float64(b.Y)-float64(a.Y))
	}
	h.Area /= 2
	if h.Area < 0 {
		h.Area = -h.Area
	}
	if h.Area == 0 {
		return nil
	}
	return h
}

func reversed(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
}

// Merge extends b to cover o.
func (b *BBox) Merge(o BBox) {
	if o.MinX < b.MinX {
		b.MinX = o.MinX
	}
	if o.MaxX > b.MaxX {
		b.MaxX = o.MaxX
	}
	if o.MinY < b.MinY {
		b.MinY = o.MinY
	}
	if o.MaxY > b.MaxY {
		b.MaxY = o.MaxY
	}
	if o.MinZ < b.MinZ {
		b.MinZ = o.MinZ
	}
	if o.MaxZ > b.MaxZ {
		b.MaxZ = o.MaxZ
	}
}
