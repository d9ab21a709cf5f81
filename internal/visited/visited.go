// Package visited provides a reusable membership bitset for cluster
// expansion and the projected-index sampling pass.
package visited

// Set tracks visited point ids using a bitset and a dirty list for fast
// reset between expansions.
type Set struct {
	bits  []uint64
	dirty []uint32
}

// New creates a set sized for the given number of points.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]uint32, 0, 128),
	}
}

// Visit marks id as visited. Returns false if it was already visited.
func (s *Set) Visit(id uint32) bool {
	word := int(id >> 6)
	mask := uint64(1) << (id & 63)
	if s.bits[word]&mask != 0 {
		return false
	}
	s.bits[word] |= mask
	s.dirty = append(s.dirty, id)
	return true
}

// Visited reports whether id has been visited.
func (s *Set) Visited(id uint32) bool {
	return s.bits[id>>6]&(uint64(1)<<(id&63)) != 0
}

// Reset clears only the bits set since the previous reset.
func (s *Set) Reset() {
	for _, id := range s.dirty {
		s.bits[id>>6] &^= uint64(1) << (id & 63)
	}
	s.dirty = s.dirty[:0]
}
