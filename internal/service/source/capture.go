package source

import (
	"context"
	"strconv"
	"sync"

	"motiontracker/internal/logger"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// CaptureSource pulls frames from an OpenCV capture: a device index, a video
// file or a stream URL.
type CaptureSource struct {
	capture   *gocv.VideoCapture
	name      string
	device    bool
	logger    *logger.Logger
	mu        sync.Mutex
	closed    bool
	exhausted bool
}

// OpenCapture opens target. A purely numeric target is treated as a device index.
func OpenCapture(target string, logger *logger.Logger) (*CaptureSource, error) {
	var device interface{} = target
	id, err := strconv.Atoi(target)
	isDevice := err == nil
	if isDevice {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture %q", target)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("capture %q did not open", target)
	}

	logger.Info("Capture source opened: %s", target)
	return &CaptureSource{capture: capture, name: target, device: isDevice, logger: logger}, nil
}

// Pull reads one frame. A failed read on an open capture is transient,
// except at the end of a video file, which closes the source for good.
func (s *CaptureSource) Pull(ctx context.Context) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.exhausted || !s.capture.IsOpened() {
		return gocv.Mat{}, ErrSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, err
	}

	frame := gocv.NewMat()
	if ok := s.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		if s.atEnd() {
			s.exhausted = true
			s.logger.Info("Capture source %s reached end of stream", s.name)
			return gocv.Mat{}, ErrSourceClosed
		}
		return gocv.Mat{}, ErrNoFrame
	}
	return frame, nil
}

// atEnd reports whether a file capture has delivered every frame. Devices and
// live streams report no frame count and never end.
func (s *CaptureSource) atEnd() bool {
	if s.device {
		return false
	}
	count := s.capture.Get(gocv.VideoCaptureFrameCount)
	if count <= 0 {
		return false
	}
	return s.capture.Get(gocv.VideoCapturePosFrames) >= count
}

// Close releases the capture device.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("Capture source closed: %s", s.name)
	return s.capture.Close()
}
