package model

import "image"

// Region is a candidate connected component of the change mask.
type Region struct {
	Bounds image.Rectangle `json:"bounds"`
	Area   float64         `json:"area"`
	// Order is the position of the region in discovery order.
	Order int `json:"order"`
}

// Centroid returns the bounding-box center of the region.
func (r Region) Centroid() Point {
	return Center(r.Bounds)
}
