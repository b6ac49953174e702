package crop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Private constants (alphabetical)
const (
	// defaultSampleTimeout bounds a single frame analysis.
	defaultSampleTimeout = 30 * time.Second

	// defaultWorkers is the number of samples analyzed at the same time.
	defaultWorkers = 4
)

// Public types (alphabetical)

// Detector runs the full crop detection pipeline for a file: duration probe,
// sample planning, per-sample analysis and consensus.
type Detector struct {
	prober        DurationProber
	analyzer      FrameAnalyzer
	logger        *zap.Logger
	workers       int
	sampleTimeout time.Duration
	hook          func(SampleResult)
	planHook      func(path string, schedule Schedule)

	// hookMutex serializes hook calls coming from workers
	hookMutex sync.Mutex
}

// Option configures a Detector.
type Option func(*Detector)

// Public functions (alphabetical)

// NewDetector creates a Detector backed by the given prober and analyzer.
func NewDetector(prober DurationProber, analyzer FrameAnalyzer, opts ...Option) *Detector {
	d := &Detector{
		prober:        prober,
		analyzer:      analyzer,
		logger:        zap.NewNop(),
		workers:       defaultWorkers,
		sampleTimeout: defaultSampleTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithLogger sets the logger used for sample failures and run summaries.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPlanHook registers a function called once the schedule of a file is
// known, before any sample is analyzed.
func WithPlanHook(hook func(path string, schedule Schedule)) Option {
	return func(d *Detector) {
		d.planHook = hook
	}
}

// WithSampleHook registers a function called once per attempted sample.
// Calls are serialized but arrive in completion order, not schedule order.
func WithSampleHook(hook func(SampleResult)) Option {
	return func(d *Detector) {
		d.hook = hook
	}
}

// WithSampleTimeout bounds every frame analysis. A sample that runs past the
// timeout counts as a failed sample. Zero or negative disables the bound.
func WithSampleTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		d.sampleTimeout = timeout
	}
}

// WithWorkers sets how many samples are analyzed concurrently.
// Values below 1 fall back to sequential analysis.
func WithWorkers(workers int) Option {
	return func(d *Detector) {
		if workers < 1 {
			workers = 1
		}
		d.workers = workers
	}
}

// Private methods (alphabetical)

// analyzeSample runs the analyzer for a single offset and wraps failures in a
// SampleError.
func (d *Detector) analyzeSample(ctx context.Context, path string, index int, offset float64) SampleResult {
	result := SampleResult{Index: index, Offset: offset}

	if err := ctx.Err(); err != nil {
		result.Err = &SampleError{Path: path, Offset: offset, Err: err}
		return result
	}

	sampleCtx := ctx
	if d.sampleTimeout > 0 {
		var cancel context.CancelFunc
		sampleCtx, cancel = context.WithTimeout(ctx, d.sampleTimeout)
		defer cancel()
	}

	candidate, ok, err := d.safeAnalyze(sampleCtx, path, offset)
	switch {
	case err != nil:
		result.Err = &SampleError{Path: path, Offset: offset, Err: err}
	case !ok:
		// Not an error: the frame simply had nothing to report
	case !candidate.Valid():
		result.Err = &SampleError{Path: path, Offset: offset, Err: fmt.Errorf("invalid crop size %s", candidate)}
	default:
		result.Candidate = candidate
		result.Found = true
	}
	return result
}

// emit forwards a sample result to the hook, if any.
func (d *Detector) emit(result SampleResult) {
	if d.hook == nil {
		return
	}
	d.hookMutex.Lock()
	defer d.hookMutex.Unlock()
	d.hook(result)
}

// runSamples analyzes every offset of the schedule with a bounded number of
// workers. The returned slice is indexed like the schedule.
func (d *Detector) runSamples(ctx context.Context, path string, schedule Schedule) []SampleResult {
	results := make([]SampleResult, len(schedule))
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	for i, offset := range schedule {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, offset float64) {
			defer wg.Done()
			defer func() { <-sem }()

			result := d.analyzeSample(ctx, path, i, offset)
			results[i] = result
			d.emit(result)
		}(i, offset)
	}

	wg.Wait()
	return results
}

// safeAnalyze shields the run from a panicking analyzer.
func (d *Detector) safeAnalyze(ctx context.Context, path string, offset float64) (candidate Candidate, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return d.analyzer.Analyze(ctx, path, offset)
}

// Public methods (alphabetical)

// Detect returns the consensus crop for the file at path.
//
// A duration that cannot be probed returns a *ProbeError and a duration that
// yields no samples returns a *PlanningError. Failed samples are logged and
// skipped. When none of the samples produced a candidate, a
// *NoConsensusError is returned after every sample has been attempted.
func (d *Detector) Detect(ctx context.Context, path string) (*Decision, error) {
	start := time.Now()

	duration, err := d.prober.Duration(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProbeError{Path: path, Err: err}
	}

	schedule := PlanSamples(duration)
	if len(schedule) == 0 {
		return nil, &PlanningError{Path: path, Duration: duration}
	}
	if d.planHook != nil {
		d.planHook(path, schedule)
	}

	d.logger.Debug("crop detection planned",
		zap.String("path", path),
		zap.Float64("duration", duration),
		zap.Int("samples", len(schedule)),
		zap.Float64("interval", SampleInterval(duration)),
	)

	results := d.runSamples(ctx, path, schedule)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			var sampleErr *SampleError
			if errors.As(result.Err, &sampleErr) {
				d.logger.Warn("crop sample failed",
					zap.String("path", sampleErr.Path),
					zap.Float64("offset", sampleErr.Offset),
					zap.Error(sampleErr.Err),
				)
			}
			continue
		}
		if !result.Found {
			d.logger.Debug("no crop reported for sample",
				zap.String("path", path),
				zap.Float64("offset", result.Offset),
			)
			continue
		}
		candidates = append(candidates, result.Candidate)
	}

	decision, err := ResolveConsensus(candidates)
	if err != nil {
		return nil, &NoConsensusError{Path: path, Attempted: len(schedule)}
	}
	decision.Samples = len(schedule)
	decision.Duration = duration

	d.logger.Info("crop detected",
		zap.String("path", path),
		zap.String("crop", decision.String()),
		zap.Int("votes", decision.Votes),
		zap.Int("candidates", decision.Candidates),
		zap.Int("samples", decision.Samples),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return decision, nil
}
