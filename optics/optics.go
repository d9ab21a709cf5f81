// Package optics implements the OPTICS ordering algorithm over a spatial
// index, producing the reachability plot consumed by the extractors.
package optics

import (
	"errors"

	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/internal/seedqueue"
	"github.com/hupe1980/optigo/point"
)

var (
	// ErrInvalidMinPoints is returned when minPts is not positive.
	ErrInvalidMinPoints = errors.New("minPts must be positive")

	// ErrInvalidEpsilon is returned when the generating distance is not
	// positive.
	ErrInvalidEpsilon = errors.New("generating distance must be positive")
)

// Entry is one record of the ordered output sequence.
type Entry struct {
	// ParentID is the original id of the point at this position.
	ParentID uint32

	// PredecessorID is the id of the point this one was reached from,
	// point.NoPredecessor for seed-group starts.
	PredecessorID int32

	// CoreDist is the true core distance, +Inf when undefined.
	CoreDist float64

	// ReachDist is the true reachability distance, +Inf for the first
	// entry of each seed group.
	ReachDist float64

	// ClusterTag is filled in by the extractors, 0 for noise.
	ClusterTag int32
}

// Ordering is the result of one engine run: N entries in traversal order
// plus the mutated point slice.
type Ordering struct {
	entries []Entry
	idx     index.Index
	minPts  int
	eps     float32

	// pos maps point id to its position in entries.
	pos []int
}

// Len returns the number of ordered entries.
func (o *Ordering) Len() int { return len(o.entries) }

// Entry returns the i-th entry in traversal order.
func (o *Ordering) Entry(i int) Entry { return o.entries[i] }

// Entries returns the backing entry slice in traversal order.
func (o *Ordering) Entries() []Entry { return o.entries }

// Position returns the traversal position of the given point id.
func (o *Ordering) Position(id uint32) int { return o.pos[id] }

// Index returns the spatial index the ordering was produced from.
func (o *Ordering) Index() index.Index { return o.idx }

// Points returns the point slice in original id order.
func (o *Ordering) Points() []point.Point { return o.idx.Points() }

// MinPoints returns the minPts parameter of the run.
func (o *Ordering) MinPoints() int { return o.minPts }

// Epsilon returns the generating distance of the run.
func (o *Ordering) Epsilon() float32 { return o.eps }

// ReachabilityProfile returns the true reachability distances in traversal
// order.
func (o *Ordering) ReachabilityProfile() []float64 {
	out := make([]float64, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.ReachDist
	}
	return out
}

// CoreProfile returns the true core distances in traversal order.
func (o *Ordering) CoreProfile() []float64 {
	out := make([]float64, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.CoreDist
	}
	return out
}

// SetClusterTag tags the entry at traversal position i and its point.
func (o *Ordering) SetClusterTag(i int, tag int32) {
	o.entries[i].ClusterTag = tag
	o.idx.Points()[o.entries[i].ParentID].ClusterTag = tag
}

// ClearClusterTags resets all tags to noise, for a fresh extraction over the
// same ordering.
func (o *Ordering) ClearClusterTags() {
	pts := o.idx.Points()
	for i := range o.entries {
		o.entries[i].ClusterTag = point.Noise
	}
	for i := range pts {
		pts[i].ClusterTag = point.Noise
	}
}

// Engine runs the OPTICS algorithm. It is single-threaded and mutates the
// scratch fields of the index's point slice; it must not run concurrently
// with another engine on the same points.
type Engine struct {
	idx    index.Index
	minPts int
	eps    float32
}

// NewEngine validates the parameters and creates an engine.
func NewEngine(idx index.Index, minPts int, eps float32) (*Engine, error) {
	if minPts < 1 {
		return nil, ErrInvalidMinPoints
	}
	if eps <= 0 {
		return nil, ErrInvalidEpsilon
	}
	return &Engine{idx: idx, minPts: minPts, eps: eps}, nil
}

// Run produces the ordered sequence. Points are reset first, so the same
// index can be run repeatedly.
//
// The seed list is a priority queue on reachability with ties broken by the
// lower point id, which makes the ordering reproducible for a fixed input
// and parameters.
func (e *Engine) Run() (*Ordering, error) {
	pts := e.idx.Points()
	for i := range pts {
		pts[i].Reset()
	}

	sqEps := e.eps * e.eps
	seeds := seedqueue.New(len(pts))
	cand := index.NewCandidates(e.minPts * 2)

	ord := &Ordering{
		entries: make([]Entry, 0, len(pts)),
		idx:     e.idx,
		minPts:  e.minPts,
		eps:     e.eps,
		pos:     make([]int, len(pts)),
	}

	// expand processes one point: marks it, computes its neighborhood and
	// core distance, appends it to the output and updates seed priorities.
	expand := func(i int) {
		p := &pts[i]
		p.Processed = true

		e.idx.Neighbors(i, sqEps, cand)
		p.CoreDist = e.idx.CoreDistance(i, cand, e.minPts)

		ord.pos[p.ID] = len(ord.entries)
		ord.entries = append(ord.entries, Entry{
			ParentID:      p.ID,
			PredecessorID: p.Predecessor,
			CoreDist:      point.TrueDist(p.CoreDist),
			ReachDist:     point.TrueDist(p.ReachDist),
			ClusterTag:    point.Noise,
		})

		if !point.IsDefined(p.CoreDist) {
			return
		}

		for _, nb := range cand.Items() {
			q := &pts[nb.ID]
			if q.Processed {
				continue
			}
			newReach := nb.SqDist
			if p.CoreDist > newReach {
				newReach = p.CoreDist
			}
			if newReach < q.ReachDist {
				q.ReachDist = newReach
				q.Predecessor = int32(p.ID)
				if seeds.Contains(nb.ID) {
					seeds.Update(nb.ID, newReach)
				} else {
					seeds.Push(nb.ID, newReach)
				}
			}
		}
	}

	for i := range pts {
		if pts[i].Processed {
			continue
		}
		// Start of a new seed group.
		pts[i].ReachDist = point.Undefined
		pts[i].Predecessor = point.NoPredecessor
		expand(i)

		for {
			it, ok := seeds.Pop()
			if !ok {
				break
			}
			expand(int(it.ID))
		}
	}

	return ord, nil
}
