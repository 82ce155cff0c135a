package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"motiontracker/internal/config"
	"motiontracker/internal/logger"
	"motiontracker/internal/repository"
	"motiontracker/internal/repository/jsonfile"
	"motiontracker/internal/repository/sqlite"
	"motiontracker/internal/route"
	"motiontracker/internal/service"
	"motiontracker/internal/service/motion"
	"motiontracker/internal/service/render"
	"motiontracker/internal/service/source"
	"motiontracker/internal/service/trajectory"
	"motiontracker/internal/service/websocket"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	source     source.FrameSource
	detector   *motion.ChangeDetector
	pipeline   *motion.Pipeline
	repository repository.TrajectoryRepository
	hubService *websocket.HubService
	manager    *service.Manager
	server     *http.Server
}

// NewApp builds every component from cfg. Nothing runs until Run is called.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	strategy, err := motion.ParseStrategy(cfg.Detection.Strategy)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg)
	a := &App{config: cfg, logger: log}

	a.repository, err = openRepository(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.detector, err = motion.NewChangeDetector(cfg.Detection)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.source, err = openSource(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	acc := trajectory.NewAccumulator()
	a.hubService = websocket.NewHubService(log)
	a.manager = service.NewManager(acc, a.repository, a.hubService, log)
	a.pipeline = motion.NewPipeline(a.source, a.detector, motion.NewRegionSelector(cfg.Detection.MinArea, strategy), acc, a.manager, log)
	a.manager.AttachPipeline(a.pipeline)

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           route.SetupRoutes(a.manager, render.New(cfg.FrameWidth, cfg.FrameHeight), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func openRepository(cfg *config.Config) (repository.TrajectoryRepository, error) {
	switch cfg.SnapshotStore {
	case config.StoreSQLite:
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite store")
		}
		return sqlite.NewPointRepository(db), nil
	default:
		store, err := jsonfile.New(cfg.SnapshotPath)
		if err != nil {
			return nil, errors.Wrap(err, "open json store")
		}
		return store, nil
	}
}

func openSource(cfg *config.Config, log *logger.Logger) (source.FrameSource, error) {
	if cfg.CaptureSource == config.SourceUDP {
		src, err := source.ListenUDP(cfg.UDPPort, cfg.CaptureTimeout, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := source.OpenCapture(cfg.CaptureSource, log)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Run serves HTTP and runs the detection loop until ctx is cancelled or the
// loop stops. A frame source that runs out is a clean shutdown; any other
// loop failure is returned.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hubService.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer cancel()
		err := a.pipeline.Run(gctx, a.config.TickInterval)
		switch {
		case errors.Is(err, source.ErrSourceClosed):
			a.logger.Info("Frame source closed, stopping")
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		}
		return err
	})

	err := g.Wait()
	stats := a.pipeline.Stats()
	a.logger.Info("Stopped after %d cycles (%d found, %d not found, %d empty)",
		stats.Cycles, stats.Found, stats.NotFound, stats.EmptyPulls)
	return err
}

// Close releases every component that was created.
func (a *App) Close() {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warning("Failed to close frame source: %v", err)
		}
		a.source = nil
	}
	if a.detector != nil {
		a.detector.Close()
		a.detector = nil
	}
	if a.repository != nil {
		if err := a.repository.Close(); err != nil {
			a.logger.Warning("Failed to close snapshot store: %v", err)
		}
		a.repository = nil
	}
}

// Logger exposes the application logger to the entry point.
func (a *App) Logger() *logger.Logger {
	return a.logger
}
