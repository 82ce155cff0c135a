package repository

import (
	"context"

	"motiontracker/internal/model"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no trajectory has been persisted yet.
var ErrNotFound = errors.New("no coordinates found")

// TrajectoryRepository persists the tracked trajectory so that it can be
// served after the fact.
type TrajectoryRepository interface {
	// Save persists the full trajectory, replacing the previous snapshot.
	Save(ctx context.Context, snapshot model.Coordinates) error

	// Latest returns the most recently saved trajectory or ErrNotFound.
	Latest(ctx context.Context) (model.Coordinates, error)

	Close() error
}
