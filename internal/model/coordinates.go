package model

import "time"

// Coordinates is a trajectory snapshot. X and Y always have the same length
// and are ordered by the time each point was recorded.
type Coordinates struct {
	X []int `json:"x"`
	Y []int `json:"y"`
}

// Len returns the number of points in the snapshot.
func (c Coordinates) Len() int {
	return len(c.X)
}

// Last returns the most recent point of the snapshot, if any.
func (c Coordinates) Last() (Point, bool) {
	if len(c.X) == 0 {
		return Point{}, false
	}
	return Point{X: c.X[len(c.X)-1], Y: c.Y[len(c.Y)-1]}, true
}

// Points returns the snapshot as a slice of points.
func (c Coordinates) Points() []Point {
	points := make([]Point, 0, len(c.X))
	for i := range c.X {
		points = append(points, Point{X: c.X[i], Y: c.Y[i]})
	}
	return points
}

// TrackedPoint represents a persisted trajectory point.
type TrackedPoint struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Seq        int       `json:"seq"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	RecordedAt time.Time `json:"recorded_at"`
}
