package index

import "fmt"

// ErrCapacityExceeded reports that an index hit one of its hard allocation
// ceilings. Callers should fall back to an exact index strategy.
type ErrCapacityExceeded struct {
	// Requested is the capacity the build would have needed.
	Requested int

	// Limit is the configured ceiling.
	Limit int
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("index capacity exceeded: requested %d, limit %d", e.Requested, e.Limit)
}
