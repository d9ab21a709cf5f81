// Package grid implements a uniform-grid spatial index.
//
// The bounding box of the point set is partitioned into cells whose width is
// the query radius divided by an auto-tuned resolution factor, chosen so that
// each cell holds roughly one point. Neighbor queries scan the square block
// of (2*resolution+1)^d cells around the query cell and filter candidates by
// exact squared distance.
package grid

import (
	"github.com/chewxy/math32"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/point"
)

// DefaultMaxCells caps the dense cell array (16M cells). When the tuned
// resolution would exceed it, the resolution is lowered and, if necessary,
// the bin width grown past the radius; the grid never fails to build.
const DefaultMaxCells = 16 * 1024 * 1024

// Compile-time check.
var _ index.Index = (*Grid)(nil)

// Options configures the grid index.
type Options struct {
	// Resolution overrides the auto-tuned resolution factor when > 0.
	Resolution int

	// MaxCells bounds the total number of grid cells.
	MaxCells int64

	// ThreeD selects 3D cell addressing and distance computation.
	ThreeD bool
}

// DefaultOptions holds the default grid configuration.
var DefaultOptions = Options{
	Resolution: 0,
	MaxCells:   DefaultMaxCells,
}

// Grid is a uniform-grid index over a fixed point set.
type Grid struct {
	pts    []point.Point
	opts   Options
	bounds index.Bounds

	resolution int
	binWidth   float32
	nx, ny, nz int

	cells [][]uint32
	// fastForward[i] is the flat index of the first non-empty cell at or
	// after i, so a row scan skips empty runs in one step.
	fastForward []int32
}

// New builds a grid index for the given points and generating distance.
// The point slice is retained, not copied.
func New(pts []point.Point, eps float32, optFns ...func(o *Options)) *Grid {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxCells <= 0 {
		opts.MaxCells = DefaultMaxCells
	}

	g := &Grid{
		pts:    pts,
		opts:   opts,
		bounds: index.ComputeBounds(pts),
	}
	g.tune(eps)
	g.fill()
	return g
}

// Resolution returns the tuned resolution factor.
func (g *Grid) Resolution() int { return g.resolution }

// BinWidth returns the tuned cell width.
func (g *Grid) BinWidth() float32 { return g.binWidth }

// Len returns the number of indexed points.
func (g *Grid) Len() int { return len(g.pts) }

// Points returns the backing point slice.
func (g *Grid) Points() []point.Point { return g.pts }

// tune derives resolution and bin width from the bounding box so that each
// cell holds roughly one point, within the cell-count ceiling. A degenerate
// (zero-extent) box falls back to resolution 1, bin width 1.
func (g *Grid) tune(eps float32) {
	dimX := g.bounds.MaxX - g.bounds.MinX
	dimY := g.bounds.MaxY - g.bounds.MinY
	dimZ := g.bounds.MaxZ - g.bounds.MinZ

	n := len(g.pts)
	volume := float64(dimX) * float64(dimY)
	dims := 2
	if g.opts.ThreeD {
		volume *= float64(dimZ)
		dims = 3
	}

	if volume <= 0 || n == 0 {
		g.resolution = 1
		g.binWidth = 1
		g.shape()
		return
	}

	g.resolution = g.opts.Resolution
	if g.resolution <= 0 {
		// Bin width with ~1 point per cell, expressed as a resolution
		// factor of the query radius.
		targetWidth := math32.Pow(float32(volume/float64(n)), 1/float32(dims))
		g.resolution = int(math32.Ceil(eps / targetWidth))
		if g.resolution < 1 {
			g.resolution = 1
		}
	}

	for {
		g.binWidth = eps / float32(g.resolution)
		if g.countCells() <= g.opts.MaxCells || g.resolution == 1 {
			break
		}
		g.resolution--
	}

	// Still over the ceiling at resolution 1: grow the bin width past the
	// radius. A (2*1+1)^d block still covers the query radius.
	for g.countCells() > g.opts.MaxCells {
		g.binWidth *= 2
	}
	g.shape()
}

func (g *Grid) countCells() int64 {
	nx := int64((g.bounds.MaxX-g.bounds.MinX)/g.binWidth) + 1
	ny := int64((g.bounds.MaxY-g.bounds.MinY)/g.binWidth) + 1
	total := nx * ny
	if g.opts.ThreeD {
		total *= int64((g.bounds.MaxZ-g.bounds.MinZ)/g.binWidth) + 1
	}
	return total
}

func (g *Grid) shape() {
	g.nx = int((g.bounds.MaxX-g.bounds.MinX)/g.binWidth) + 1
	g.ny = int((g.bounds.MaxY-g.bounds.MinY)/g.binWidth) + 1
	g.nz = 1
	if g.opts.ThreeD {
		g.nz = int((g.bounds.MaxZ-g.bounds.MinZ)/g.binWidth) + 1
	}
}

func (g *Grid) fill() {
	g.cells = make([][]uint32, g.nx*g.ny*g.nz)
	for i := range g.pts {
		c := g.cellOf(&g.pts[i])
		g.cells[c] = append(g.cells[c], uint32(i))
	}

	// Backward pass: every cell learns the next non-empty cell.
	g.fastForward = make([]int32, len(g.cells))
	next := int32(len(g.cells))
	for i := len(g.cells) - 1; i >= 0; i-- {
		if len(g.cells[i]) > 0 {
			next = int32(i)
		}
		g.fastForward[i] = next
	}
}

func (g *Grid) cellOf(p *point.Point) int {
	cx := g.clamp(int((p.X-g.bounds.MinX)/g.binWidth), g.nx)
	cy := g.clamp(int((p.Y-g.bounds.MinY)/g.binWidth), g.ny)
	if !g.opts.ThreeD {
		return cx + cy*g.nx
	}
	cz := g.clamp(int((p.Z-g.bounds.MinZ)/g.binWidth), g.nz)
	return cx + cy*g.nx + cz*g.nx*g.ny
}

func (g *Grid) clamp(c, n int) int {
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// scanBlock visits every candidate id in the (2*reach+1)^d cell block around
// point i, calling visit with the id and squared distance of each candidate
// within sqRadius. Scanning stops early when visit returns false.
func (g *Grid) scanBlock(i int, sqRadius float32, visit func(id uint32, sqDist float32) bool) {
	p := &g.pts[i]
	radius := math32.Sqrt(sqRadius)
	reach := int(math32.Ceil(radius / g.binWidth))
	if reach < 1 {
		reach = 1
	}

	cx := g.clamp(int((p.X-g.bounds.MinX)/g.binWidth), g.nx)
	cy := g.clamp(int((p.Y-g.bounds.MinY)/g.binWidth), g.ny)
	cz := 0
	zLo, zHi := 0, 0
	if g.opts.ThreeD {
		cz = g.clamp(int((p.Z-g.bounds.MinZ)/g.binWidth), g.nz)
		zLo, zHi = g.clamp(cz-reach, g.nz), g.clamp(cz+reach, g.nz)
	}
	xLo, xHi := g.clamp(cx-reach, g.nx), g.clamp(cx+reach, g.nx)
	yLo, yHi := g.clamp(cy-reach, g.ny), g.clamp(cy+reach, g.ny)

	for z := zLo; z <= zHi; z++ {
		for y := yLo; y <= yHi; y++ {
			row := y*g.nx + z*g.nx*g.ny
			end := row + xHi
			for c := row + xLo; c <= end; {
				if len(g.cells[c]) == 0 {
					// Jump straight to the next non-empty cell.
					next := int(g.fastForward[c])
					if next > end {
						break
					}
					c = next
					continue
				}
				for _, id := range g.cells[c] {
					if int(id) == i {
						continue
					}
					d := point.SqDist(p, &g.pts[id], g.opts.ThreeD)
					if d <= sqRadius {
						if !visit(id, d) {
							return
						}
					}
				}
				c++
			}
		}
	}
}

// Neighbors fills out with every point within sqRadius of point i, excluding
// i itself.
func (g *Grid) Neighbors(i int, sqRadius float32, out *index.Candidates) {
	out.Reset()
	g.scanBlock(i, sqRadius, func(id uint32, sqDist float32) bool {
		out.Add(id, sqDist)
		return true
	})
}

// CountAtLeast reports whether point i has at least minCount neighbors
// within sqRadius, short-circuiting without storing distances.
func (g *Grid) CountAtLeast(i int, sqRadius float32, minCount int) bool {
	if minCount <= 0 {
		return true
	}
	count := 0
	g.scanBlock(i, sqRadius, func(uint32, float32) bool {
		count++
		return count < minCount
	})
	return count >= minCount
}

// CoreDistance returns the exact squared core distance from the last
// Neighbors result.
func (g *Grid) CoreDistance(_ int, cand *index.Candidates, minPts int) float32 {
	return index.CoreDistance(cand, minPts)
}
