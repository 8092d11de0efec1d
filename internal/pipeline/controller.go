package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/milam/VodParser/internal/analysis"
	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/services"
	"github.com/milam/VodParser/internal/vod"
	"github.com/milam/VodParser/internal/workqueue"
)

// ErrPersistence marks a failed checkpoint write or segment flush.
var ErrPersistence = errors.New("persistence failure")

// DefaultCheckpointInterval is the number of folded chunks between
// checkpoint writes.
const DefaultCheckpointInterval = 16

// Source serves chunks in index order.
type Source interface {
	Size() int
	DurationAt(i int) float64
	Load(ctx context.Context, i int) (vod.Frame, error)
}

// Discarder deletes a chunk artifact once it is no longer needed.
type Discarder interface {
	Discard(i int) error
}

// Finder maps a time to the index of the chunk containing it.
type Finder interface {
	Find(t float64) int
}

// Analyzer turns a decoded frame into a roster analysis.
type Analyzer interface {
	Analyze(frame image.Image) (analysis.FrameAnalysis, error)
}

// SegmentSink receives closed segments.
type SegmentSink interface {
	Flush(ctx context.Context, segment Segment, frame image.Image) error
}

// Options wires a Controller.
type Options struct {
	Source   Source
	Analyzer Analyzer
	Sink     SegmentSink
	Reporter Reporter

	// Dir holds status.json and temp_frame.png.
	Dir    string
	Config checkpoint.RunConfig

	QueueDepth         int
	CheckpointInterval int
	PollInterval       time.Duration
	ReadyTimeout       time.Duration

	RunID  string
	Logger *slog.Logger
}

// Controller runs one scan.
type Controller struct {
	source    Source
	analyzer  Analyzer
	sink      SegmentSink
	reporter  Reporter
	dir       string
	cfg       checkpoint.RunConfig
	resumed   bool
	depth     int
	interval  int
	poll      time.Duration
	ready     time.Duration
	runID     string
	logger    *slog.Logger
	state     State
	mu        sync.Mutex
	status    Status
	runCalled bool
	// lastFrame is the most recent decoded frame, owned by the consumer.
	lastFrame image.Image
}

// New validates opts and restores a previous checkpoint from opts.Dir when
// one exists. A restored checkpoint's run config replaces opts.Config.
func New(opts Options) (*Controller, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if opts.Analyzer == nil {
		return nil, errors.New("pipeline: analyzer is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("pipeline: segment sink is required")
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("pipeline: checkpoint directory is required")
	}

	c := &Controller{
		source:   opts.Source,
		analyzer: opts.Analyzer,
		sink:     opts.Sink,
		reporter: opts.Reporter,
		dir:      dir,
		cfg:      opts.Config,
		depth:    opts.QueueDepth,
		interval: opts.CheckpointInterval,
		poll:     opts.PollInterval,
		ready:    opts.ReadyTimeout,
		runID:    opts.RunID,
		logger:   logging.NewComponentLogger(opts.Logger, "pipeline"),
	}
	if c.interval <= 0 {
		c.interval = DefaultCheckpointInterval
	}
	if c.poll <= 0 {
		c.poll = time.Second
	}
	if c.runID != "" {
		c.logger = c.logger.With(logging.String(logging.FieldRunID, c.runID))
	}

	rec, ok, err := checkpoint.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if ok {
		frame, _, err := checkpoint.LoadFrame(dir)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		c.cfg = rec.Config
		c.resumed = true
		c.state = State{
			Current:    rec.Current,
			Gap:        rec.Gap,
			Segment:    rec.Frames,
			MatchStart: rec.MatchStart,
			Frame:      frame,
		}
		c.logger.Info("resuming from checkpoint",
			logging.Int("current", rec.Current),
			logging.Int("gap", rec.Gap),
			logging.Int("segment_frames", len(rec.Frames)),
		)
	}
	if c.cfg.MaxThreads < 1 {
		c.cfg.MaxThreads = 1
	}
	if c.depth < c.cfg.MaxThreads {
		c.depth = 2 * c.cfg.MaxThreads
	}
	return c, nil
}

// Config returns the effective run config.
func (c *Controller) Config() checkpoint.RunConfig { return c.cfg }

// Resumed reports whether state was restored from a checkpoint.
func (c *Controller) Resumed() bool { return c.resumed }

// State returns a snapshot of the folded state. Only meaningful while the
// controller is not running.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status reports the lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Controller) commit(st State) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
}

// Range returns the half-open chunk index range covered by the run config.
// Chunks ending at or before the start time are skipped and the first chunk
// starting at or after the end time closes the range.
func (c *Controller) Range() (first, last int) {
	start, end := c.bounds()
	size := c.source.Size()
	first = size
	last = 0
	from := 0
	if f, ok := c.source.(Finder); ok && size > 0 {
		from = max(0, f.Find(start))
	}
	for i := from; i < size; i++ {
		if c.source.DurationAt(i+1) <= start {
			continue
		}
		if c.source.DurationAt(i) >= end {
			break
		}
		if first == size {
			first = i
		}
		last = i + 1
	}
	if last < first {
		last = first
	}
	return first, last
}

func (c *Controller) bounds() (float64, float64) {
	start := math.Max(0, c.cfg.StartTime)
	end := c.cfg.EndTime
	if end <= 0 {
		end = c.source.DurationAt(c.source.Size())
	}
	return start, end
}

// Run scans the configured range. It returns nil when the run finished or
// was stopped by ctx; a failed checkpoint write or segment flush returns an
// error wrapping ErrPersistence.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.runCalled {
		c.mu.Unlock()
		return errors.New("pipeline: run already called")
	}
	c.runCalled = true
	c.status = StatusRunning
	c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.setStatus(StatusStopped)
		return fmt.Errorf("%w: create output directory: %w", ErrPersistence, err)
	}
	lock, err := Lock(c.dir)
	if err != nil {
		c.setStatus(StatusStopped)
		return err
	}
	defer func() { _ = lock.Unlock() }()
	ctx = services.WithRunID(ctx, c.runID)

	first, last := c.Range()
	st := c.State()
	begin := max(first, st.Current)
	if st.Current < begin {
		st.Current = begin
		c.commit(st)
	}
	rangeStart, rangeEnd := c.bounds()

	c.logger.Info("scan started",
		logging.String(logging.FieldEventType, "scan_started"),
		logging.String("source", c.cfg.Source),
		logging.Int("first_chunk", begin),
		logging.Int("last_chunk", last),
		logging.Int("workers", c.cfg.MaxThreads),
	)
	if err := c.save(st); err != nil {
		c.setStatus(StatusStopped)
		return err
	}

	q := workqueue.New[int, Outcome](c.cfg.MaxThreads, c.depth, c.process)
	q.Start(ctx)

	go func() {
		for i := begin; i < last; i++ {
			if err := q.Submit(i); err != nil {
				return
			}
		}
		q.Finish()
	}()
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.Shutdown()
		case <-done:
		}
	}()

	runErr := c.consume(ctx, q, begin, rangeStart)
	close(done)
	q.Shutdown()

	st = c.State()
	if runErr != nil {
		c.setStatus(StatusStopped)
		if err := c.save(st); err != nil {
			c.logger.Error("checkpoint after failure not written", logging.Error(err))
		}
		return runErr
	}

	if ctx.Err() == nil && st.Current >= last {
		if len(st.Segment) > 0 {
			if err := c.sink.Flush(ctx, st.Segment, st.Frame); err != nil {
				c.setStatus(StatusStopped)
				if saveErr := c.save(st); saveErr != nil {
					c.logger.Error("checkpoint after failure not written", logging.Error(saveErr))
				}
				return fmt.Errorf("%w: flush final segment: %w", ErrPersistence, err)
			}
			st.Segment = nil
			st.Frame = nil
			st.MatchStart = 0
			c.commit(st)
		}
		c.setStatus(StatusFinished)
		if err := c.save(st); err != nil {
			return err
		}
		c.report(StatusFinished, rangeEnd-rangeStart, c.lastFrame)
		c.logger.Info("scan finished",
			logging.String(logging.FieldEventType, "scan_finished"),
			logging.Int("current", st.Current),
		)
		return nil
	}

	c.setStatus(StatusStopped)
	if err := c.save(st); err != nil {
		return err
	}
	c.report(StatusStopped, math.Max(0, c.source.DurationAt(st.Current)-rangeStart), c.lastFrame)
	c.logger.Info("scan stopped",
		logging.String(logging.FieldEventType, "scan_stopped"),
		logging.Int("current", st.Current),
	)
	return nil
}

func (c *Controller) consume(ctx context.Context, q *workqueue.Queue[int, Outcome], begin int, rangeStart float64) error {
	sinceSave := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, ok := q.Take()
		if !ok {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		index := begin + res.Seq
		out := res.Value
		out.Index = index
		failed := res.Err != nil
		if failed {
			logging.WarnWithContext(c.logger, "chunk skipped", "chunk_failed",
				logging.Int(logging.FieldChunk, index),
				logging.Error(res.Err),
				logging.String("error_kind", services.Kind(res.Err)),
				logging.String(logging.FieldErrorHint, "check that the chunk file is a readable video"),
				logging.String(logging.FieldImpact, "chunk treated as missing"),
			)
		}

		st, flushed := Fold(c.State(), out, failed)
		if flushed != nil {
			if err := c.sink.Flush(ctx, flushed.Segment, flushed.Frame); err != nil {
				return fmt.Errorf("%w: flush segment: %w", ErrPersistence, err)
			}
		}
		c.commit(st)
		c.discard(index, failed)
		if out.Image != nil {
			c.lastFrame = out.Image
		}

		sinceSave++
		// A flushed segment is on disk, so the cursor must move past it
		// before a crash could replay it.
		if flushed != nil || sinceSave >= c.interval {
			sinceSave = 0
			if err := c.save(st); err != nil {
				return err
			}
		}

		end := c.source.DurationAt(index + 1)
		c.report(StatusRunning, math.Max(0, end-rangeStart), out.Image)
	}
}

func (c *Controller) discard(index int, failed bool) {
	if !failed && !c.cfg.DeleteChunks {
		return
	}
	d, ok := c.source.(Discarder)
	if !ok {
		return
	}
	if err := d.Discard(index); err != nil {
		c.logger.Debug("chunk discard failed", logging.Int(logging.FieldChunk, index), logging.Error(err))
	}
}

func (c *Controller) process(ctx context.Context, index int) (Outcome, error) {
	ctx = services.WithChunk(ctx, index)
	out := Outcome{
		Index:    index,
		Start:    c.source.DurationAt(index),
		Duration: c.source.DurationAt(index+1) - c.source.DurationAt(index),
	}
	frame, err := c.loadWhenReady(ctx, index)
	if err != nil {
		return out, err
	}
	a, err := c.analyzer.Analyze(frame.Image)
	if err != nil {
		return out, fmt.Errorf("analyze chunk %d: %w", index, err)
	}
	out.Analysis = a
	out.Image = frame.Image
	return out, nil
}

func (c *Controller) loadWhenReady(ctx context.Context, index int) (vod.Frame, error) {
	deadline := time.Now().Add(c.ready)
	for {
		frame, err := c.source.Load(ctx, index)
		if err == nil || !errors.Is(err, vod.ErrNotReady) {
			return frame, err
		}
		if !time.Now().Before(deadline) {
			return vod.Frame{}, err
		}
		timer := time.NewTimer(c.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return vod.Frame{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Controller) save(st State) error {
	rec := &checkpoint.Record{
		Current:    st.Current,
		Gap:        st.Gap,
		Frames:     st.Segment,
		MatchStart: st.MatchStart,
		Config:     c.cfg,
		State:      c.Status().String(),
		RunID:      c.runID,
	}
	if err := checkpoint.SaveFrame(c.dir, st.Frame); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := checkpoint.Save(c.dir, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (c *Controller) report(status Status, elapsed float64, frame image.Image) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(status, elapsed, frame)
}
