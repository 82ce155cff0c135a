package source

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// writeClip writes n small MJPG frames to an .avi file.
func writeClip(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")

	writer, err := gocv.VideoWriterFile(path, "MJPG", 10, 64, 48, true)
	if err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		t.Skip("video writer did not open")
	}

	for i := 0; i < n; i++ {
		frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 40, 40, 0), 48, 64, gocv.MatTypeCV8UC3)
		gocv.Rectangle(&frame, image.Rect(5*i, 10, 5*i+20, 30), color.RGBA{220, 220, 220, 0}, -1)
		if err := writer.Write(frame); err != nil {
			frame.Close()
			writer.Close()
			t.Fatalf("write frame %d: %v", i, err)
		}
		frame.Close()
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return path
}

func TestCaptureSource_EndOfFileClosesSource(t *testing.T) {
	const frames = 3
	path := writeClip(t, frames)

	src, err := OpenCapture(path, testLogger(t))
	if err != nil {
		t.Fatalf("OpenCapture failed: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	for i := 0; i < frames; i++ {
		frame, err := src.Pull(ctx)
		if err != nil {
			t.Fatalf("frame %d: unexpected error %v", i, err)
		}
		if frame.Cols() != 64 || frame.Rows() != 48 {
			t.Errorf("frame %d: unexpected size %dx%d", i, frame.Cols(), frame.Rows())
		}
		frame.Close()
	}

	for i := 0; i < 2; i++ {
		if _, err := src.Pull(ctx); !errors.Is(err, ErrSourceClosed) {
			t.Fatalf("pull past the last frame: expected ErrSourceClosed, got %v", err)
		}
	}
}

func TestCaptureSource_PullAfterClose(t *testing.T) {
	src, err := OpenCapture(writeClip(t, 1), testLogger(t))
	if err != nil {
		t.Fatalf("OpenCapture failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := src.Pull(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("expected ErrSourceClosed, got %v", err)
	}
}
