package render

import (
	"image/color"
	"io"
	"os"
	"path/filepath"

	"motiontracker/internal/model"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var trajectoryColor = color.RGBA{B: 255, A: 255}

// Renderer draws trajectories over a frame-sized canvas. The y axis is
// inverted so the plot reads like the camera image.
type Renderer struct {
	FrameWidth  int
	FrameHeight int
	Width       vg.Length
	Height      vg.Length
}

// New returns a Renderer for frames of the given size.
func New(frameWidth, frameHeight int) *Renderer {
	return &Renderer{
		FrameWidth:  frameWidth,
		FrameHeight: frameHeight,
		Width:       8 * vg.Inch,
		Height:      6 * vg.Inch,
	}
}

// Plot builds the trajectory plot: blue points joined by a line.
func (r *Renderer) Plot(snapshot model.Coordinates) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Object trajectory"
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, float64(r.FrameWidth)
	p.Y.Min, p.Y.Max = 0, float64(r.FrameHeight)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	if snapshot.Len() == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, 0, snapshot.Len())
	for _, pt := range snapshot.Points() {
		pts = append(pts, plotter.XY{X: float64(pt.X), Y: float64(pt.Y)})
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "build trajectory line")
	}
	line.Color = trajectoryColor
	line.Width = vg.Points(1)
	points.Color = trajectoryColor
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(2.5)

	p.Add(line, points)

	// keep the frame extent even when the trajectory leaves it
	p.X.Min, p.X.Max = 0, float64(r.FrameWidth)
	p.Y.Min, p.Y.Max = 0, float64(r.FrameHeight)
	return p, nil
}

// WritePNG renders snapshot as a PNG image to w.
func (r *Renderer) WritePNG(w io.Writer, snapshot model.Coordinates) error {
	p, err := r.Plot(snapshot)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return errors.Wrap(err, "create png canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write png")
	}
	return nil
}

// Save renders snapshot to path; the format follows the file extension.
func (r *Renderer) Save(path string, snapshot model.Coordinates) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output dir")
	}
	p, err := r.Plot(snapshot)
	if err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
