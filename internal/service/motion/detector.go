package motion

import (
	"image"

	"motiontracker/internal/config"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Detection is the output of one change-detection pass. Gray is the blurred
// grayscale frame (the background candidate), Mask the dilated binary mask.
type Detection struct {
	Gray gocv.Mat
	Mask gocv.Mat
}

// Close releases both matrices.
func (d *Detection) Close() {
	d.Gray.Close()
	d.Mask.Close()
}

// ChangeDetector computes the binary change mask of a frame against the
// background. It never mutates the background.
type ChangeDetector struct {
	cfg    config.Detection
	kernel gocv.Mat
}

// NewChangeDetector validates cfg and builds the dilation structuring element.
func NewChangeDetector(cfg config.Detection) (*ChangeDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.DilateKernel, cfg.DilateKernel))
	return &ChangeDetector{cfg: cfg, kernel: kernel}, nil
}

// BlurKernel returns the blur kernel applied to frames and the background.
func (d *ChangeDetector) BlurKernel() int {
	return d.cfg.BlurKernel
}

// Detect converts frame to blurred grayscale, diffs it against the
// background, thresholds the difference and dilates the result.
// The caller owns the returned Detection.
func (d *ChangeDetector) Detect(frame gocv.Mat, background *BackgroundModel) (*Detection, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}
	size := image.Pt(frame.Cols(), frame.Rows())
	if size != background.Size() {
		return nil, errors.Wrapf(ErrDimensionMismatch, "frame %v, background %v", size, background.Size())
	}

	gray, err := grayBlur(frame, d.cfg.BlurKernel)
	if err != nil {
		return nil, err
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(background.reference, gray, &diff); err != nil {
		gray.Close()
		return nil, errors.Wrap(err, "compute absolute difference")
	}

	mask := gocv.NewMat()
	gocv.Threshold(diff, &mask, float32(d.cfg.DiffThreshold), 255, gocv.ThresholdBinary)

	for i := 0; i < d.cfg.DilateIterations; i++ {
		gocv.Dilate(mask, &mask, d.kernel)
	}

	return &Detection{Gray: gray, Mask: mask}, nil
}

// Close releases the structuring element.
func (d *ChangeDetector) Close() error {
	return d.kernel.Close()
}
