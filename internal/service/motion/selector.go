package motion

import (
	"math"
	"sort"

	"motiontracker/internal/model"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Strategy decides which qualifying region becomes the tracked object.
type Strategy string

const (
	// StrategyFirst picks the first region in discovery order.
	StrategyFirst Strategy = "first"
	// StrategyLargest picks the region with the largest contour area.
	StrategyLargest Strategy = "largest"
	// StrategyNearest picks the region closest to the previous centroid.
	StrategyNearest Strategy = "nearest"
)

// ParseStrategy maps a configured name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case StrategyFirst, StrategyLargest, StrategyNearest:
		return s, nil
	}
	return "", errors.Errorf("unknown selection strategy %q", name)
}

// RegionSelector extracts candidate regions from a change mask and picks one.
//
// Discovery order is defined by the top-left corner of each region's bounding
// box in raster order: smaller Min.Y first, then smaller Min.X. It does not
// depend on the order contours come back from OpenCV.
type RegionSelector struct {
	minArea  float64
	strategy Strategy
}

// NewRegionSelector creates a selector that ignores regions smaller than minArea.
func NewRegionSelector(minArea float64, strategy Strategy) *RegionSelector {
	if strategy == "" {
		strategy = StrategyFirst
	}
	return &RegionSelector{minArea: minArea, strategy: strategy}
}

// Strategy returns the configured strategy.
func (s *RegionSelector) Strategy() Strategy {
	return s.strategy
}

// Candidates returns the qualifying external regions of mask in discovery order.
func (s *RegionSelector) Candidates(mask gocv.Mat) []model.Region {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]model.Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < s.minArea {
			continue
		}
		regions = append(regions, model.Region{
			Bounds: gocv.BoundingRect(contour),
			Area:   area,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Bounds.Min, regions[j].Bounds.Min
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for i := range regions {
		regions[i].Order = i
	}
	return regions
}

// Choose applies the strategy to candidates, which must be in discovery
// order. previous is the last tracked centroid, or nil. Ties always go to
// the region discovered first.
func (s *RegionSelector) Choose(candidates []model.Region, previous *model.Point) (model.Region, bool) {
	if len(candidates) == 0 {
		return model.Region{}, false
	}

	best := 0
	switch s.strategy {
	case StrategyLargest:
		for i := 1; i < len(candidates); i++ {
			if candidates[i].Area > candidates[best].Area {
				best = i
			}
		}
	case StrategyNearest:
		if previous == nil {
			break
		}
		bestDist := math.Inf(1)
		for i, c := range candidates {
			center := c.Centroid()
			dist := math.Hypot(float64(center.X-previous.X), float64(center.Y-previous.Y))
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
	}
	return candidates[best], true
}

// Select returns the tracked region of mask, if any, without a previous centroid.
func (s *RegionSelector) Select(mask gocv.Mat) (model.Region, bool) {
	return s.Choose(s.Candidates(mask), nil)
}
