package motion

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"motiontracker/internal/logger"
	"motiontracker/internal/model"
	"motiontracker/internal/service/source"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// startupPollInterval spaces out attempts to grab the first frame.
const startupPollInterval = 100 * time.Millisecond

// Outcome is how a single cycle ended.
type Outcome int

const (
	// OutcomeNoFrame means the source had nothing to give; the cycle was skipped.
	OutcomeNoFrame Outcome = iota
	// OutcomeNotFound means no region qualified.
	OutcomeNotFound
	// OutcomeFound means a region was tracked and committed.
	OutcomeFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoFrame:
		return "no-frame"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeFound:
		return "found"
	}
	return "unknown"
}

// Recorder is where tracked points accumulate. The in-memory trajectory
// satisfies it; a bounded or externally persisted variant can replace it.
type Recorder interface {
	Record(p model.Point)
	Snapshot() model.Coordinates
	Latest() (model.Point, bool)
}

// Publisher receives every tracked point together with the full trajectory.
type Publisher interface {
	Publish(ctx context.Context, point model.Point, snapshot model.Coordinates) error
}

// Stats counts cycle outcomes since the pipeline was created.
type Stats struct {
	Cycles     uint64 `json:"cycles"`
	Found      uint64 `json:"found"`
	NotFound   uint64 `json:"not_found"`
	EmptyPulls uint64 `json:"empty_pulls"`
}

// Pipeline owns everything one detection loop needs. Cycles run one at a
// time; only Commit mutates the background and the trajectory.
type Pipeline struct {
	source     source.FrameSource
	detector   *ChangeDetector
	selector   *RegionSelector
	recorder   Recorder
	publisher  Publisher
	logger     *logger.Logger
	background *BackgroundModel
	policy     BackgroundPolicy

	cycleMu    sync.Mutex
	cycles     atomic.Uint64
	found      atomic.Uint64
	notFound   atomic.Uint64
	emptyPulls atomic.Uint64
	emptyRun   int
}

// NewPipeline wires the stages together. The background is built by Start.
func NewPipeline(src source.FrameSource, detector *ChangeDetector, selector *RegionSelector,
	recorder Recorder, publisher Publisher, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		source:    src,
		detector:  detector,
		selector:  selector,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
		policy:    BackgroundPolicy(detector.cfg.BackgroundPolicy),
	}
}

// Start captures the first available frame and turns it into the background.
// Transient pull failures are waited out; a closed source aborts.
func (p *Pipeline) Start(ctx context.Context) error {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if p.background != nil {
		return nil
	}

	for {
		frame, err := p.source.Pull(ctx)
		if err == nil {
			background, err := InitializeBackground(frame, p.detector.BlurKernel())
			frame.Close()
			if err != nil {
				return err
			}
			p.background = background
			size := background.Size()
			p.logger.Info("Background initialized from first frame (%dx%d)", size.X, size.Y)
			return nil
		}
		if !errors.Is(err, source.ErrNoFrame) {
			return errors.Wrap(err, "capture first frame")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(startupPollInterval):
		}
	}
}

// Step runs one full cycle: pull, detect, select and, on success, commit.
// A transient pull failure yields OutcomeNoFrame with no error and is not retried.
// ErrDimensionMismatch and ErrSourceClosed are returned as errors.
func (p *Pipeline) Step(ctx context.Context) (Outcome, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if p.background == nil {
		return OutcomeNoFrame, ErrNotStarted
	}
	p.cycles.Add(1)

	frame, err := p.source.Pull(ctx)
	if err != nil {
		if errors.Is(err, source.ErrNoFrame) {
			p.emptyPulls.Add(1)
			if p.emptyRun == 0 {
				p.logger.Info("No frame available, skipping cycle")
			}
			p.emptyRun++
			return OutcomeNoFrame, nil
		}
		return OutcomeNoFrame, err
	}
	defer frame.Close()
	if p.emptyRun > 0 {
		p.logger.Info("Frames available again after %d empty cycles", p.emptyRun)
		p.emptyRun = 0
	}

	detection, err := p.detector.Detect(frame, p.background)
	if err != nil {
		return OutcomeNoFrame, err
	}
	defer detection.Close()

	var previous *model.Point
	if latest, ok := p.recorder.Latest(); ok {
		previous = &latest
	}

	region, ok := p.selector.Choose(p.selector.Candidates(detection.Mask), previous)
	if !ok {
		p.background.MaybeUpdate(detection.Gray, false)
		p.notFound.Add(1)
		return OutcomeNotFound, nil
	}

	p.commit(ctx, region, detection.Gray)
	p.found.Add(1)
	return OutcomeFound, nil
}

// Commit records region as the tracked object of a cycle whose blurred
// grayscale frame is gray. gray must match the background dimensions.
func (p *Pipeline) Commit(ctx context.Context, region model.Region, gray gocv.Mat) (model.Point, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if p.background == nil {
		return model.Point{}, ErrNotStarted
	}
	if gray.Empty() {
		return model.Point{}, ErrEmptyFrame
	}
	if size := image.Pt(gray.Cols(), gray.Rows()); size != p.background.Size() {
		return model.Point{}, errors.Wrapf(ErrDimensionMismatch, "commit frame %v, background %v", size, p.background.Size())
	}
	return p.commit(ctx, region, gray), nil
}

// commit records the region centroid, makes gray the new background and
// hands the point to the publisher. Publisher failures are logged only.
func (p *Pipeline) commit(ctx context.Context, region model.Region, gray gocv.Mat) model.Point {
	point := region.Centroid()
	p.recorder.Record(point)
	p.background.MaybeUpdate(gray, p.policy != PolicyStatic)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, point, p.recorder.Snapshot()); err != nil {
			p.logger.Error("Failed to publish point (%d, %d): %v", point.X, point.Y, err)
		}
	}
	return point
}

// Run starts the pipeline and then runs one cycle per tick until ctx is
// cancelled, the source closes, or a fatal detection error occurs.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if err := p.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("Detection loop running every %v (strategy %s)", interval, p.selector.Strategy())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			outcome, err := p.Step(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return errors.Wrap(err, "detection cycle")
			}
			if outcome == OutcomeFound {
				if latest, ok := p.recorder.Latest(); ok {
					p.logger.Info("Object tracked at (%d, %d)", latest.X, latest.Y)
				}
			}
		}
	}
}

// Background returns the current background model, nil before Start.
func (p *Pipeline) Background() *BackgroundModel {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	return p.background
}

// Stats returns the cycle counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Cycles:     p.cycles.Load(),
		Found:      p.found.Load(),
		NotFound:   p.notFound.Load(),
		EmptyPulls: p.emptyPulls.Load(),
	}
}

// Close releases the background. The source and detector are closed by their owner.
func (p *Pipeline) Close() {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	if p.background != nil {
		p.background.Close()
		p.background = nil
	}
}
