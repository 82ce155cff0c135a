package sqlite

import (
	"context"
	"database/sql"
	"time"

	"motiontracker/internal/model"
	"motiontracker/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PointRepository implements repository.TrajectoryRepository for SQLite.
// Every repository instance is one tracking run; its points are keyed by a
// run id so that restarts do not mix trajectories.
type PointRepository struct {
	db    *DB
	runID string
}

var _ repository.TrajectoryRepository = (*PointRepository)(nil)

// NewPointRepository creates a repository for a fresh run.
func NewPointRepository(db *DB) *PointRepository {
	return &PointRepository{db: db, runID: uuid.NewString()}
}

// RunID identifies the run this repository writes to.
func (r *PointRepository) RunID() string {
	return r.runID
}

// Save stores the points of snapshot that this run has not stored yet.
// The trajectory only grows, so earlier points are never rewritten.
func (r *PointRepository) Save(ctx context.Context, snapshot model.Coordinates) error {
	if len(snapshot.X) != len(snapshot.Y) {
		return errors.Errorf("x has %d values, y has %d", len(snapshot.X), len(snapshot.Y))
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE run_id = ?`, r.runID).Scan(&stored); err != nil {
		return errors.Wrap(err, "failed to count points")
	}
	if stored >= snapshot.Len() {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (run_id, seq, x, y, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare statement")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for seq := stored; seq < snapshot.Len(); seq++ {
		if _, err := stmt.ExecContext(ctx, r.runID, seq, snapshot.X[seq], snapshot.Y[seq], now); err != nil {
			return errors.Wrap(err, "failed to insert point")
		}
	}

	return tx.Commit()
}

// Latest returns the trajectory of the most recent run that stored a point.
func (r *PointRepository) Latest(ctx context.Context) (model.Coordinates, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var runID string
	err := r.db.Conn().QueryRowContext(ctx, `SELECT run_id FROM points ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return model.Coordinates{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Coordinates{}, errors.Wrap(err, "failed to find latest run")
	}

	points, err := r.pointsLocked(ctx, runID)
	if err != nil {
		return model.Coordinates{}, err
	}

	coords := model.Coordinates{X: make([]int, 0, len(points)), Y: make([]int, 0, len(points))}
	for _, p := range points {
		coords.X = append(coords.X, p.X)
		coords.Y = append(coords.Y, p.Y)
	}
	return coords, nil
}

// Points returns the stored points of a run in recording order.
func (r *PointRepository) Points(ctx context.Context, runID string) ([]model.TrackedPoint, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.pointsLocked(ctx, runID)
}

func (r *PointRepository) pointsLocked(ctx context.Context, runID string) ([]model.TrackedPoint, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, run_id, seq, x, y, recorded_at
		FROM points WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query points")
	}
	defer rows.Close()

	var points []model.TrackedPoint
	for rows.Next() {
		var p model.TrackedPoint
		if err := rows.Scan(&p.ID, &p.RunID, &p.Seq, &p.X, &p.Y, &p.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan point")
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the underlying database.
func (r *PointRepository) Close() error {
	return r.db.Close()
}
