package extract

import (
	"errors"
	"math"
	"sort"

	"github.com/hupe1980/optigo/optics"
	"github.com/hupe1980/optigo/point"
)

// ErrInvalidXi is returned when xi lies outside (0,1).
var ErrInvalidXi = errors.New("xi must be in (0,1)")

// Flags tune the hierarchical extraction.
type Flags uint32

const (
	// FlagTopLevelOnly flattens the hierarchy; on overlap the surviving
	// cluster keeps the lowest id.
	FlagTopLevelOnly Flags = 1 << iota

	// FlagNoCorrection skips the trailing-infinity trim and the
	// predecessor containment correction, for parity with the published
	// algorithm.
	FlagNoCorrection

	// FlagUpperLimit rejects clusters whose boundary reachability exceeds
	// XiOptions.UpperLimit.
	FlagUpperLimit

	// FlagLowerLimit rejects clusters whose boundary reachability falls
	// below XiOptions.LowerLimit.
	FlagLowerLimit

	// FlagExcludeLastSteepUp ignores the last significant steep-up area of
	// the profile.
	FlagExcludeLastSteepUp
)

// XiOptions configures the Xi extractor.
type XiOptions struct {
	Flags Flags

	// UpperLimit and LowerLimit bound the admissible boundary reachability
	// of a cluster; each applies only when the matching flag is set.
	UpperLimit float64
	LowerLimit float64
}

// Xi extracts a cluster hierarchy from the reachability profile using
// steepness analysis with threshold 1-xi.
type Xi struct {
	ord  *optics.Ordering
	xi   float64
	opts XiOptions
}

// NewXi validates xi and creates an extractor over the given ordering.
func NewXi(ord *optics.Ordering, xi float64, optFns ...func(o *XiOptions)) (*Xi, error) {
	if xi <= 0 || xi >= 1 {
		return nil, ErrInvalidXi
	}
	opts := XiOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Xi{ord: ord, xi: xi, opts: opts}, nil
}

// steepDownArea is an open candidate area awaiting a matching steep-up area.
type steepDownArea struct {
	start, end int
	maximum    float64 // reachability at the area start (the peak)
	mib        float64 // maximum reachability seen since the area closed
}

// Extract runs the single left-to-right scan and returns the hierarchy.
// Cluster tags are written back to the ordering, nested clusters first.
func (x *Xi) Extract() *Hierarchy {
	x.ord.ClearClusterTags()

	h := &Hierarchy{}
	r := x.ord.ReachabilityProfile()
	n := len(r)
	if n < 2 {
		// A profile of length 0 or 1 is never steep.
		return h
	}

	ixi := 1 - x.xi
	minPts := x.ord.MinPoints()

	// A step is steep only between finite values. Equal values are never
	// steep: for positive values the threshold multiplier already excludes
	// them, but a run at exactly zero would satisfy both predicates.
	steepDown := func(i int) bool {
		return !math.IsInf(r[i], 1) && r[i] > r[i+1] && r[i]*ixi >= r[i+1]
	}
	steepUp := func(i int) bool {
		return !math.IsInf(r[i+1], 1) && r[i] < r[i+1] && r[i] <= r[i+1]*ixi
	}

	lastUpStep := -1
	if x.opts.Flags&FlagExcludeLastSteepUp != 0 {
		for i := n - 2; i >= 0; i-- {
			if steepUp(i) {
				lastUpStep = i
				break
			}
		}
	}

	var (
		sdas   []*steepDownArea
		built  []*ClusterNode
		nextID int32
		mib    float64
	)

	// updateFilter prunes areas whose peak is no longer above mib/(1-xi)
	// and raises the mib of the survivors.
	updateFilter := func() {
		kept := sdas[:0]
		for _, sda := range sdas {
			if sda.maximum*ixi <= mib {
				continue
			}
			if mib > sda.mib {
				sda.mib = mib
			}
			kept = append(kept, sda)
		}
		sdas = kept
	}

	i := 0
	for i+1 < n {
		switch {
		case steepDown(i):
			updateFilter()

			// Extend the steep-down area: values must keep falling, with
			// at most minPts consecutive non-steep steps.
			start, end := i, i+1
			nonSteep := 0
			for j := i + 1; j+1 < n; j++ {
				if steepDown(j) {
					end = j + 1
					nonSteep = 0
					continue
				}
				if r[j+1] > r[j] {
					break
				}
				if nonSteep++; nonSteep > minPts {
					break
				}
			}
			sdas = append(sdas, &steepDownArea{start: start, end: end, maximum: r[start]})
			i = end
			mib = r[i]

		case steepUp(i):
			updateFilter()

			upStart, upEnd := i, i+1
			nonSteep := 0
			for j := i + 1; j+1 < n; j++ {
				if steepUp(j) {
					upEnd = j + 1
					nonSteep = 0
					continue
				}
				if r[j+1] < r[j] {
					break
				}
				if nonSteep++; nonSteep > minPts {
					break
				}
			}
			endValue := r[upEnd]

			skip := x.opts.Flags&FlagExcludeLastSteepUp != 0 &&
				lastUpStep >= upStart && lastUpStep < upEnd
			if !skip {
				for k := len(sdas) - 1; k >= 0; k-- {
					if c := x.candidate(r, sdas[k], upEnd, endValue, ixi); c != nil {
						nextID = x.place(c, &built, nextID)
					}
				}
			}
			i = upEnd
			mib = r[i]

		default:
			i++
			if r[i] > mib {
				mib = r[i]
			}
		}
	}

	h.nodes = built
	for _, c := range built {
		if c.parent == nil {
			h.roots = append(h.roots, c)
		}
	}
	sort.Slice(h.roots, func(a, b int) bool { return h.roots[a].Start < h.roots[b].Start })
	h.assignLevels()

	// Nested clusters are built first, so first write wins.
	for _, c := range built {
		for pos := c.Start; pos <= c.End; pos++ {
			if x.ord.Entry(pos).ClusterTag == point.Noise {
				x.ord.SetClusterTag(pos, c.ClusterID)
			}
		}
	}
	return h
}

// candidate validates one steep-down/steep-up pairing and returns the
// corrected cluster range, or nil when rejected.
func (x *Xi) candidate(r []float64, sda *steepDownArea, upEnd int, endValue, ixi float64) *ClusterNode {
	// The area is stale once its mib rose above the steep-up end value.
	if sda.mib > endValue*ixi {
		return nil
	}

	cstart, cend := sda.start, upEnd
	noCorrect := x.opts.Flags&FlagNoCorrection != 0

	if !noCorrect {
		// Trim trailing points that were never properly reached.
		for cend > cstart && math.IsInf(r[cend], 1) {
			cend--
		}
	}

	// Asymmetric boundary trim: whichever side towers over the other gets
	// cut back to the other side's level.
	if sda.maximum*ixi >= endValue {
		for cstart < cend && r[cstart+1] > endValue {
			cstart++
		}
	} else if endValue*ixi >= sda.maximum {
		for cend > cstart && r[cend] > sda.maximum {
			cend--
		}
	}

	if !noCorrect {
		cend = x.predecessorCorrection(cstart, cend)
	}

	if cend < cstart || cend-cstart+1 < x.ord.MinPoints() {
		return nil
	}

	if x.opts.Flags&(FlagUpperLimit|FlagLowerLimit) != 0 {
		// Boundary reachability: the lower of the two enclosing walls.
		boundary := math.Min(sda.maximum, endValue)
		if x.opts.Flags&FlagUpperLimit != 0 && boundary > x.opts.UpperLimit {
			return nil
		}
		if x.opts.Flags&FlagLowerLimit != 0 && boundary < x.opts.LowerLimit {
			return nil
		}
	}

	return &ClusterNode{Start: cstart, End: cend}
}

// predecessorCorrection drops points from the candidate end until the
// predecessor of the last point lies inside [cstart, cend). This removes a
// known artifact of the published algorithm where the closing point of a
// steep-up area belongs to the next structure.
func (x *Xi) predecessorCorrection(cstart, cend int) int {
	for cend > cstart {
		pred := x.ord.Entry(cend).PredecessorID
		if pred >= 0 {
			pos := x.ord.Position(uint32(pred))
			if cstart <= pos && pos < cend {
				break
			}
		}
		cend--
	}
	return cend
}

// place inserts a validated cluster into the growing forest and returns the
// updated id counter.
func (x *Xi) place(c *ClusterNode, built *[]*ClusterNode, nextID int32) int32 {
	if x.opts.Flags&FlagTopLevelOnly != 0 {
		// Flatten: discard overlapped clusters, keep the lowest id.
		lowest := int32(math.MaxInt32)
		kept := (*built)[:0]
		for _, prev := range *built {
			if prev.Start <= c.End && c.Start <= prev.End {
				if prev.ClusterID < lowest {
					lowest = prev.ClusterID
				}
				continue
			}
			kept = append(kept, prev)
		}
		*built = kept
		if lowest != int32(math.MaxInt32) {
			c.ClusterID = lowest
		} else {
			nextID++
			c.ClusterID = nextID
		}
		*built = append(*built, c)
		return nextID
	}

	nextID++
	c.ClusterID = nextID
	for _, prev := range *built {
		if prev.parent == nil && c.ContainsRange(prev.Start, prev.End) {
			prev.parent = c
			c.Children = append(c.Children, prev)
		}
	}
	*built = append(*built, c)
	return nextID
}
