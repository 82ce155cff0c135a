package motion

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// grayBlur converts frame to a single channel and applies a k x k Gaussian
// blur. The background and every later frame go through this same function
// so their blur always matches.
func grayBlur(frame gocv.Mat, k int) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, ErrEmptyFrame
	}

	var gray gocv.Mat
	switch frame.Channels() {
	case 1:
		gray = frame.Clone()
	case 4:
		gray = gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray); err != nil {
			gray.Close()
			return gocv.Mat{}, errors.Wrap(err, "convert frame to grayscale")
		}
	default:
		gray = gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
			gray.Close()
			return gocv.Mat{}, errors.Wrap(err, "convert frame to grayscale")
		}
	}

	gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	return gray, nil
}

// BackgroundPolicy controls whether Found cycles replace the background.
type BackgroundPolicy string

const (
	// PolicyOnDetection replaces the background with the frame of every Found cycle.
	PolicyOnDetection BackgroundPolicy = "on-detection"
	// PolicyStatic keeps the first frame as the background for the whole run.
	PolicyStatic BackgroundPolicy = "static"
)

// BackgroundModel is the "empty scene" reference frame: grayscale, blurred,
// and replaced wholesale only when a cycle finds a qualifying region.
type BackgroundModel struct {
	reference  gocv.Mat
	blurKernel int
}

// InitializeBackground builds the reference from the first captured frame.
// A noisy or badly lit first frame stays the baseline until the first detection.
func InitializeBackground(frame gocv.Mat, blurKernel int) (*BackgroundModel, error) {
	if blurKernel < 1 || blurKernel%2 == 0 {
		return nil, errors.Errorf("blur kernel must be odd and >= 1, got %d", blurKernel)
	}

	reference, err := grayBlur(frame, blurKernel)
	if err != nil {
		return nil, errors.Wrap(err, "initialize background")
	}
	return &BackgroundModel{reference: reference, blurKernel: blurKernel}, nil
}

// MaybeUpdate replaces the reference with a copy of gray when detected is
// true. There is no averaging: the last detected frame becomes the baseline.
func (b *BackgroundModel) MaybeUpdate(gray gocv.Mat, detected bool) bool {
	if !detected {
		return false
	}
	next := gray.Clone()
	b.reference.Close()
	b.reference = next
	return true
}

// Size returns the background dimensions.
func (b *BackgroundModel) Size() image.Point {
	return image.Pt(b.reference.Cols(), b.reference.Rows())
}

// BlurKernel returns the blur kernel the reference was built with.
func (b *BackgroundModel) BlurKernel() int {
	return b.blurKernel
}

// Bytes returns a copy of the reference pixels.
func (b *BackgroundModel) Bytes() []byte {
	return b.reference.ToBytes()
}

// Close releases the reference frame.
func (b *BackgroundModel) Close() error {
	return b.reference.Close()
}
