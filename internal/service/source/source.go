package source

import (
	"context"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrNoFrame reports a transient failure: no frame was available within
	// the capture timeout. The caller skips the cycle.
	ErrNoFrame = errors.New("no frame available")
	// ErrSourceClosed reports that the source will never deliver another frame.
	ErrSourceClosed = errors.New("frame source closed")
)

// FrameSource supplies raw video frames. The returned Mat is owned by the
// caller, who must Close it.
type FrameSource interface {
	Pull(ctx context.Context) (gocv.Mat, error)
	Close() error
}
