package optigo

import (
	"errors"

	"github.com/hupe1980/optigo/extract"
	"github.com/hupe1980/optigo/index"
	"github.com/hupe1980/optigo/optics"
)

var (
	// ErrEmptyInput is returned when no points are supplied.
	ErrEmptyInput = errors.New("no input points")

	// ErrLengthMismatch is returned when the coordinate arrays differ in
	// length.
	ErrLengthMismatch = errors.New("coordinate arrays must have equal length")

	// ErrInvalidMinPoints is returned when minPts is not positive.
	ErrInvalidMinPoints = optics.ErrInvalidMinPoints

	// ErrInvalidEpsilon is returned when the generating distance is not
	// positive and not the auto-estimate sentinel 0.
	ErrInvalidEpsilon = optics.ErrInvalidEpsilon

	// ErrInvalidXi is returned when xi lies outside (0,1).
	ErrInvalidXi = extract.ErrInvalidXi
)

// ErrCapacityExceeded reports that the approximate index hit one of its hard
// allocation ceilings; fall back to the grid or tree index.
type ErrCapacityExceeded = index.ErrCapacityExceeded
