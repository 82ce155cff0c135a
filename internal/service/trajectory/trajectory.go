package trajectory

import (
	"sync"

	"motiontracker/internal/model"
)

// Accumulator is the append-only trajectory shared between the detection
// loop (single writer) and any number of readers.
type Accumulator struct {
	x  []int
	y  []int
	mu sync.RWMutex
}

// NewAccumulator creates an empty trajectory.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		x: make([]int, 0, 64),
		y: make([]int, 0, 64),
	}
}

// Record appends p. Both sequences are updated under the same lock so a
// reader never observes one without the other.
func (a *Accumulator) Record(p model.Point) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.x = append(a.x, p.X)
	a.y = append(a.y, p.Y)
}

// Snapshot returns a copy of the full trajectory as of the call.
func (a *Accumulator) Snapshot() model.Coordinates {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := model.Coordinates{
		X: make([]int, len(a.x)),
		Y: make([]int, len(a.y)),
	}
	copy(snapshot.X, a.x)
	copy(snapshot.Y, a.y)
	return snapshot
}

// Latest returns the most recently recorded point.
func (a *Accumulator) Latest() (model.Point, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.x) == 0 {
		return model.Point{}, false
	}
	return model.Point{X: a.x[len(a.x)-1], Y: a.y[len(a.y)-1]}, true
}

// Len returns the number of recorded points.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.x)
}
