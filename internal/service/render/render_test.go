package render

import (
	"bytes"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"motiontracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePNG(t *testing.T) {
	r := New(640, 480)

	for name, snapshot := range map[string]model.Coordinates{
		"empty":      {},
		"single":     {X: []int{100}, Y: []int{140}},
		"trajectory": {X: []int{100, 110, 120}, Y: []int{140, 140, 150}},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.WritePNG(&buf, snapshot))

			cfg, format, err := image.DecodeConfig(&buf)
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Greater(t, cfg.Width, cfg.Height)
		})
	}
}

func TestPlot_KeepsFrameExtent(t *testing.T) {
	r := New(640, 480)

	p, err := r.Plot(model.Coordinates{X: []int{10, 20}, Y: []int{30, 40}})
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 640.0, p.X.Max)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 480.0, p.Y.Max)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "trajectory.png")

	require.NoError(t, New(320, 240).Save(path, model.Coordinates{X: []int{1, 2}, Y: []int{3, 4}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
