package motion

import (
	"image"
	"image/color"
	"testing"

	"motiontracker/internal/model"

	"gocv.io/x/gocv"
)

// maskWith returns a binary mask with the given rectangles set.
func maskWith(rects ...image.Rectangle) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frameHeight, frameWidth, gocv.MatTypeCV8UC1)
	for _, r := range rects {
		gocv.Rectangle(&mask, r, color.RGBA{255, 255, 255, 0}, -1)
	}
	return mask
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"first", "largest", "nearest"} {
		s, err := ParseStrategy(name)
		if err != nil || string(s) != name {
			t.Errorf("ParseStrategy(%q) = %q, %v", name, s, err)
		}
	}
	if _, err := ParseStrategy("biggest"); err == nil {
		t.Error("expected an unknown strategy to fail")
	}
}

func TestNewRegionSelector_DefaultsToFirst(t *testing.T) {
	if s := NewRegionSelector(10, ""); s.Strategy() != StrategyFirst {
		t.Errorf("expected first strategy, got %s", s.Strategy())
	}
}

func TestCandidates_DiscoveryOrder(t *testing.T) {
	upperRight := square(250, 20, 80)
	lowerLeft := square(20, 180, 100)
	mask := maskWith(lowerLeft, upperRight)
	defer mask.Close()

	candidates := NewRegionSelector(5000, StrategyFirst).Candidates(mask)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Bounds != upperRight || candidates[1].Bounds != lowerLeft {
		t.Errorf("expected raster order [%v %v], got [%v %v]",
			upperRight, lowerLeft, candidates[0].Bounds, candidates[1].Bounds)
	}
	for i, c := range candidates {
		if c.Order != i {
			t.Errorf("candidate %d has order %d", i, c.Order)
		}
	}
	if candidates[0].Area >= candidates[1].Area {
		t.Errorf("expected the lower square to be larger: %v vs %v", candidates[0].Area, candidates[1].Area)
	}
}

func TestCandidates_MinArea(t *testing.T) {
	mask := maskWith(square(20, 20, 20), square(200, 100, 80))
	defer mask.Close()

	candidates := NewRegionSelector(5000, StrategyFirst).Candidates(mask)
	if len(candidates) != 1 {
		t.Fatalf("expected the small square to be dropped, got %d candidates", len(candidates))
	}
	if got := candidates[0].Centroid(); got != (model.Point{X: 240, Y: 140}) {
		t.Errorf("unexpected centroid %v", got)
	}

	if got := NewRegionSelector(0, StrategyFirst).Candidates(mask); len(got) != 2 {
		t.Errorf("with no minimum both squares qualify, got %d", len(got))
	}
}

func TestSelect_Strategies(t *testing.T) {
	mask := maskWith(square(250, 20, 80), square(20, 180, 100))
	defer mask.Close()

	first, ok := NewRegionSelector(5000, StrategyFirst).Select(mask)
	if !ok || first.Centroid() != (model.Point{X: 290, Y: 60}) {
		t.Errorf("first: got %v (%v)", first.Centroid(), ok)
	}

	largest, ok := NewRegionSelector(5000, StrategyLargest).Select(mask)
	if !ok || largest.Centroid() != (model.Point{X: 70, Y: 230}) {
		t.Errorf("largest: got %v (%v)", largest.Centroid(), ok)
	}

	nearest := NewRegionSelector(5000, StrategyNearest)
	candidates := nearest.Candidates(mask)
	region, ok := nearest.Choose(candidates, &model.Point{X: 60, Y: 250})
	if !ok || region.Centroid() != (model.Point{X: 70, Y: 230}) {
		t.Errorf("nearest: got %v (%v)", region.Centroid(), ok)
	}
	region, _ = nearest.Choose(candidates, nil)
	if region.Order != 0 {
		t.Errorf("nearest without history should fall back to discovery order, got order %d", region.Order)
	}
}

func TestSelect_EmptyMask(t *testing.T) {
	mask := maskWith()
	defer mask.Close()

	if _, ok := NewRegionSelector(5000, StrategyFirst).Select(mask); ok {
		t.Error("expected no region in an empty mask")
	}
}

func TestChoose_TiesGoToDiscoveryOrder(t *testing.T) {
	candidates := []model.Region{
		{Bounds: image.Rect(0, 0, 10, 10), Area: 100, Order: 0},
		{Bounds: image.Rect(20, 0, 30, 10), Area: 100, Order: 1},
		{Bounds: image.Rect(40, 0, 50, 10), Area: 50, Order: 2},
	}

	got, _ := NewRegionSelector(0, StrategyLargest).Choose(candidates, nil)
	if got.Order != 0 {
		t.Errorf("largest tie: expected order 0, got %d", got.Order)
	}

	// equidistant from (15, 5)
	got, _ = NewRegionSelector(0, StrategyNearest).Choose(candidates, &model.Point{X: 15, Y: 5})
	if got.Order != 0 {
		t.Errorf("nearest tie: expected order 0, got %d", got.Order)
	}

	if _, ok := NewRegionSelector(0, StrategyFirst).Choose(nil, nil); ok {
		t.Error("expected no region from no candidates")
	}
}
