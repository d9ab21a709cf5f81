// Package seedqueue implements the OPTICS seed list: a binary min-heap keyed
// by reachability distance with true decrease-key support.
//
// Ties on reachability are broken by the lower point id so that a run is
// reproducible regardless of insertion order.
package seedqueue

// Item is one queued seed.
type Item struct {
	ID    uint32  // point id
	Reach float32 // squared reachability distance (priority)
}

// Queue is a value-based binary min-heap over Items with an id→slot table
// for O(log n) priority updates.
type Queue struct {
	items []Item
	slots []int32 // point id → heap slot, -1 when not queued
}

// New creates a queue able to hold point ids in [0, capacity).
func New(capacity int) *Queue {
	slots := make([]int32, capacity)
	for i := range slots {
		slots[i] = -1
	}
	return &Queue{
		items: make([]Item, 0, capacity),
		slots: slots,
	}
}

// Len returns the number of queued seeds.
func (q *Queue) Len() int { return len(q.items) }

// Contains reports whether the point id is currently queued.
func (q *Queue) Contains(id uint32) bool {
	return q.slots[id] >= 0
}

// Push inserts a seed. The id must not already be queued.
func (q *Queue) Push(id uint32, reach float32) {
	q.items = append(q.items, Item{ID: id, Reach: reach})
	q.slots[id] = int32(len(q.items) - 1)
	q.siftUp(len(q.items) - 1)
}

// Update lowers (or raises) the priority of a queued seed and restores the
// heap invariant from its slot.
func (q *Queue) Update(id uint32, reach float32) {
	slot := int(q.slots[id])
	old := q.items[slot].Reach
	q.items[slot].Reach = reach
	if reach < old {
		q.siftUp(slot)
	} else {
		q.siftDown(slot)
	}
}

// Pop removes and returns the seed with the smallest reachability, breaking
// ties by the lower id.
func (q *Queue) Pop() (Item, bool) {
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	root := q.items[0]
	q.slots[root.ID] = -1
	last := q.items[n-1]
	q.items[n-1] = Item{}
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.slots[last.ID] = 0
		q.siftDown(0)
	}
	return root, true
}

// Reset clears the queue for reuse over the same id range.
func (q *Queue) Reset() {
	for _, it := range q.items {
		q.slots[it.ID] = -1
	}
	q.items = q.items[:0]
}

func (q *Queue) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Reach != b.Reach {
		return a.Reach < b.Reach
	}
	return a.ID < b.ID
}

func (q *Queue) swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.slots[q.items[i].ID] = int32(i)
	q.slots[q.items[j].ID] = int32(j)
}

func (q *Queue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.swap(i, p)
		i = p
	}
}

func (q *Queue) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.swap(i, best)
		i = best
	}
}
