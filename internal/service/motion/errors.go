package motion

import "github.com/pkg/errors"

var (
	// ErrDimensionMismatch is fatal: the feed changed resolution after the
	// background was captured.
	ErrDimensionMismatch = errors.New("frame and background dimensions differ")
	// ErrEmptyFrame is returned when a frame carries no pixels.
	ErrEmptyFrame = errors.New("frame is empty")
	// ErrNotStarted is returned by Step before the background exists.
	ErrNotStarted = errors.New("pipeline has no background, call Start first")
)
