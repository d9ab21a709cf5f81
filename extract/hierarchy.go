// Package extract turns an OPTICS ordering (or a raw spatial index) into
// flat or hierarchical cluster assignments.
package extract

import (
	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// ClusterNode is one cluster in the extracted hierarchy. Start and End are
// inclusive positions into the ordered sequence. A child's range is always a
// sub-range of its parent's; sibling ranges never overlap. ClusterID is
// strictly positive and unique within a hierarchy; 0 is reserved for noise.
type ClusterNode struct {
	Start     int
	End       int
	ClusterID int32
	Level     uint32
	Children  []*ClusterNode

	parent *ClusterNode
}

// Size returns the number of ordered positions covered by the cluster.
func (c *ClusterNode) Size() int { return c.End - c.Start + 1 }

// ContainsRange reports whether [start,end] lies fully inside the cluster.
func (c *ClusterNode) ContainsRange(start, end int) bool {
	return c.Start <= start && end <= c.End
}

// Parent returns the enclosing cluster, nil for a root.
func (c *ClusterNode) Parent() *ClusterNode { return c.parent }

// Hierarchy is the result of a hierarchical extraction.
type Hierarchy struct {
	roots []*ClusterNode
	// nodes lists every cluster in construction order: nested clusters
	// come before the clusters that enclose them.
	nodes []*ClusterNode
}

// Roots returns the top-level clusters ordered by start position.
func (h *Hierarchy) Roots() []*ClusterNode { return h.roots }

// Nodes returns every cluster in construction order (children before
// parents), the order hull aggregation relies on.
func (h *Hierarchy) Nodes() []*ClusterNode { return h.nodes }

// NumClusters returns the number of extracted clusters.
func (h *Hierarchy) NumClusters() int { return len(h.nodes) }

// Find returns the cluster with the given id, nil if absent.
func (h *Hierarchy) Find(id int32) *ClusterNode {
	for _, c := range h.nodes {
		if c.ClusterID == id {
			return c
		}
	}
	return nil
}

// Parent returns the id of the enclosing cluster for the given cluster id,
// or 0 when the cluster is top-level or unknown.
func (h *Hierarchy) Parent(id int32) int32 {
	c := h.Find(id)
	if c == nil || c.parent == nil {
		return 0
	}
	return c.parent.ClusterID
}

// FlatHierarchy builds a one-level hierarchy from the cluster tags of a flat
// extraction. Each tag becomes exactly one root node spanning its first to
// last tagged position. Under the core-only restriction a tag's run can be
// interrupted by noise positions, so the span is not necessarily homogeneous;
// only noise ever appears between two positions of the same tag.
func FlatHierarchy(ord *optics.Ordering) *Hierarchy {
	h := &Hierarchy{}
	byTag := make(map[int32]*ClusterNode)
	for i := 0; i < ord.Len(); i++ {
		tag := ord.Entry(i).ClusterTag
		if tag == point.Noise {
			continue
		}
		if c, ok := byTag[tag]; ok {
			c.End = i
			continue
		}
		c := &ClusterNode{Start: i, End: i, ClusterID: tag}
		byTag[tag] = c
		h.roots = append(h.roots, c)
		h.nodes = append(h.nodes, c)
	}
	return h
}

// assignLevels walks the tree and stamps each node with its depth.
func (h *Hierarchy) assignLevels() {
	var walk func(c *ClusterNode, level uint32)
	walk = func(c *ClusterNode, level uint32) {
		c.Level = level
		for _, ch := range c.Children {
			walk(ch, level+1)
		}
	}
	for _, r := range h.roots {
		walk(r, 0)
	}
}
