package motion

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"motiontracker/internal/config"
	"motiontracker/internal/logger"
	"motiontracker/internal/model"
	"motiontracker/internal/service/source"

	"gocv.io/x/gocv"
)

const (
	frameWidth  = 400
	frameHeight = 300
	sceneLevel  = 40
	objectLevel = 220
)

// uniformFrame returns a BGR frame filled with a single gray level.
func uniformFrame(level float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(level, level, level, 0), frameHeight, frameWidth, gocv.MatTypeCV8UC3)
}

// frameWith returns a scene frame with filled rectangles of objectLevel.
func frameWith(rects ...image.Rectangle) gocv.Mat {
	frame := uniformFrame(sceneLevel)
	for _, r := range rects {
		gocv.Rectangle(&frame, r, color.RGBA{objectLevel, objectLevel, objectLevel, 0}, -1)
	}
	return frame
}

func square(x, y, side int) image.Rectangle {
	return image.Rect(x, y, x+side, y+side)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func newDetector(t *testing.T, cfg config.Detection) *ChangeDetector {
	t.Helper()
	d, err := NewChangeDetector(cfg)
	if err != nil {
		t.Fatalf("NewChangeDetector: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func newBackground(t *testing.T, frame gocv.Mat) *BackgroundModel {
	t.Helper()
	bg, err := InitializeBackground(frame, config.DefaultDetection().BlurKernel)
	if err != nil {
		t.Fatalf("InitializeBackground: %v", err)
	}
	t.Cleanup(func() { bg.Close() })
	return bg
}

// sliceSource replays frames in order. An empty Mat stands for a transient
// capture failure; after the last frame the source reports closed.
type sliceSource struct {
	frames []gocv.Mat
	next   int
}

func newSliceSource(t *testing.T, frames ...gocv.Mat) *sliceSource {
	t.Helper()
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return &sliceSource{frames: frames}
}

func (s *sliceSource) Pull(ctx context.Context) (gocv.Mat, error) {
	if s.next >= len(s.frames) {
		return gocv.Mat{}, source.ErrSourceClosed
	}
	frame := s.frames[s.next]
	s.next++
	if frame.Empty() {
		return gocv.Mat{}, source.ErrNoFrame
	}
	return frame.Clone(), nil
}

func (s *sliceSource) Close() error { return nil }

type published struct {
	point    model.Point
	snapshot model.Coordinates
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []published
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, point model.Point, snapshot model.Coordinates) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, published{point: point, snapshot: snapshot})
	return p.err
}
