package model

import "image"

// Point is a tracked centroid in frame pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Center returns the bounding-box center of r using integer division,
// the same way the tracked centroid is derived from a region.
func Center(r image.Rectangle) Point {
	return Point{
		X: r.Min.X + r.Dx()/2,
		Y: r.Min.Y + r.Dy()/2,
	}
}
