package visited

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisit(t *testing.T) {
	s := New(128)

	assert.True(t, s.Visit(0))
	assert.True(t, s.Visit(127))
	assert.False(t, s.Visit(0), "second visit must report already seen")

	assert.True(t, s.Visited(0))
	assert.True(t, s.Visited(127))
	assert.False(t, s.Visited(64))
}

func TestReset(t *testing.T) {
	s := New(256)
	for id := uint32(0); id < 256; id += 3 {
		s.Visit(id)
	}

	s.Reset()

	for id := uint32(0); id < 256; id++ {
		assert.False(t, s.Visited(id))
	}

	// Reusable after reset.
	assert.True(t, s.Visit(9))
	assert.False(t, s.Visit(9))
}
