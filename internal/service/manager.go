package service

import (
	"context"
	"time"

	"motiontracker/internal/logger"
	"motiontracker/internal/model"
	"motiontracker/internal/repository"
	"motiontracker/internal/service/motion"
	"motiontracker/internal/service/trajectory"
	"motiontracker/internal/service/websocket"

	"github.com/pkg/errors"
)

// saveTimeout bounds how long Publish waits on a single snapshot write.
const saveTimeout = 2 * time.Second

// Manager is the publisher of the detection pipeline and the read side the
// HTTP handlers use. Each tracked point is persisted first and then broadcast.
type Manager struct {
	trajectory       *trajectory.Accumulator
	repository       repository.TrajectoryRepository
	websocketService *websocket.HubService
	pipeline         *motion.Pipeline
	logger           *logger.Logger
}

var _ motion.Publisher = (*Manager)(nil)

func NewManager(acc *trajectory.Accumulator, repo repository.TrajectoryRepository,
	hub *websocket.HubService, logger *logger.Logger) *Manager {
	return &Manager{
		trajectory:       acc,
		repository:       repo,
		websocketService: hub,
		logger:           logger,
	}
}

// AttachPipeline lets the manager report pipeline counters.
func (m *Manager) AttachPipeline(p *motion.Pipeline) {
	m.pipeline = p
}

// Publish persists snapshot and pushes it to live viewers. A failed save does
// not prevent the broadcast; both failures are reported together.
func (m *Manager) Publish(ctx context.Context, point model.Point, snapshot model.Coordinates) error {
	var saveErr, broadcastErr error

	if m.repository != nil {
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		saveErr = m.repository.Save(saveCtx, snapshot)
		cancel()
	}
	if m.websocketService != nil {
		broadcastErr = m.websocketService.Publish(ctx, point, snapshot)
	}

	switch {
	case saveErr != nil && broadcastErr != nil:
		return errors.Wrapf(saveErr, "save snapshot (broadcast also failed: %v)", broadcastErr)
	case saveErr != nil:
		return errors.Wrap(saveErr, "save snapshot")
	case broadcastErr != nil:
		return errors.Wrap(broadcastErr, "broadcast coordinates")
	}
	return nil
}

// Snapshot returns the in-memory trajectory.
func (m *Manager) Snapshot() model.Coordinates {
	return m.trajectory.Snapshot()
}

// Latest returns the most recent tracked point held in memory.
func (m *Manager) Latest() (model.Point, bool) {
	return m.trajectory.Latest()
}

// StoredCoordinates returns the persisted trajectory or repository.ErrNotFound.
func (m *Manager) StoredCoordinates(ctx context.Context) (model.Coordinates, error) {
	if m.repository == nil {
		return model.Coordinates{}, repository.ErrNotFound
	}
	return m.repository.Latest(ctx)
}

// Stats returns the pipeline counters, zero before a pipeline is attached.
func (m *Manager) Stats() motion.Stats {
	if m.pipeline == nil {
		return motion.Stats{}
	}
	return m.pipeline.Stats()
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}
