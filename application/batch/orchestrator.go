package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Adam-226/m4a-mp3/domain/model"
	"github.com/Adam-226/m4a-mp3/domain/ports"
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
	"github.com/Adam-226/m4a-mp3/pkg/logger"
	"github.com/Adam-226/m4a-mp3/pkg/progress"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// lockFileName guards an output tree against overlapping batch runs
const lockFileName = ".m4a-mp3.lock"

// Orchestrator drives one batch: discover inputs, plan output paths,
// convert each file in discovery order, and aggregate the results.
type Orchestrator struct {
	scanner   ports.FileScanner
	storage   ports.StorageProvider
	runner    *Runner
	reporter  progress.Reporter
	log       *logger.Logger
	sourceExt string
}

// Config holds Orchestrator dependencies
type Config struct {
	Scanner  ports.FileScanner
	Executor ports.TranscodeExecutor
	Storage  ports.StorageProvider
	Reporter progress.Reporter
	Logger   *logger.Logger

	// SourceExt is the input extension to discover; defaults to ".m4a"
	SourceExt string
}

// New creates a batch orchestrator
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("TranscodeExecutor is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("StorageProvider is required")
	}
	if cfg.Scanner == nil {
		return nil, fmt.Errorf("FileScanner is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	sourceExt := cfg.SourceExt
	if sourceExt == "" {
		sourceExt = model.SourceExtension
	}

	return &Orchestrator{
		scanner:   cfg.Scanner,
		storage:   cfg.Storage,
		runner:    NewRunner(cfg.Executor, cfg.Storage, log),
		reporter:  reporter,
		log:       log,
		sourceExt: sourceExt,
	}, nil
}

// Run executes one batch. The returned summary is always meaningful: on a
// fatal mid-run error it covers whatever was processed before the fault.
// Succeeded+Failed == TotalFound holds whenever err is nil.
func (o *Orchestrator) Run(ctx context.Context, opts model.BatchOptions) (summary model.BatchSummary, err error) {
	log := o.log.With(zap.String("batch_id", uuid.NewString()))

	// Pre-flight: option validation, then discovery. Nothing on the output
	// side of the filesystem is touched until both pass.
	params, err := model.ResolveParameters(opts.Format, opts.Quality)
	if err != nil {
		return summary, err
	}

	files, err := o.scanner.Discover(opts.InputDir, o.sourceExt, opts.Recursive)
	if err != nil {
		return summary, err
	}

	summary.TotalFound = len(files)
	if len(files) == 0 {
		log.Info("no source files found",
			zap.String("input_dir", opts.InputDir),
			zap.String("ext", o.sourceExt),
		)
		return summary, nil
	}

	requests, err := plan(files, opts, params)
	if err != nil {
		return summary, err
	}

	unlock, err := o.acquireLock(ctx, opts)
	if err != nil {
		return summary, err
	}
	defer multierr.AppendInvoke(&err, multierr.Invoke(unlock))

	log.Info("batch started",
		zap.Int("files", summary.TotalFound),
		zap.String("format", string(opts.Format)),
		zap.String("quality", string(opts.Quality)),
		zap.Int("workers", workerCount(opts.Workers)),
	)

	start := time.Now()
	if opts.Workers > 1 {
		err = o.runParallel(ctx, requests, params, opts, &summary)
	} else {
		err = o.runSequential(ctx, requests, params, opts, &summary)
	}

	log.Info("batch finished",
		zap.Int("total", summary.TotalFound),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, err
}

// runSequential converts files one at a time in discovery order
func (o *Orchestrator) runSequential(ctx context.Context, requests []model.ConversionRequest, params model.EncodingParameters, opts model.BatchOptions, summary *model.BatchSummary) error {
	for i, req := range requests {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := o.runner.Convert(ctx, req, params)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				o.log.Error("aborting batch", zap.Error(err))
			}
			return err
		}
		o.record(i, result, opts, summary)
	}
	return nil
}

// runParallel converts up to opts.Workers files concurrently. Results land
// in a slice indexed by discovery position and are recorded in order after
// the group drains, so the summary is identical to a sequential run.
func (o *Orchestrator) runParallel(ctx context.Context, requests []model.ConversionRequest, params model.EncodingParameters, opts model.BatchOptions, summary *model.BatchSummary) error {
	results := make([]model.ConversionResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := o.runner.Convert(gctx, req, params)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	err := g.Wait()

	for i, result := range results {
		if result.Outcome == "" {
			// never attempted: the group was cancelled first
			continue
		}
		o.record(i, result, opts, summary)
	}
	return err
}

func (o *Orchestrator) record(index int, result model.ConversionResult, opts model.BatchOptions, summary *model.BatchSummary) {
	summary.Record(result)
	o.reporter.Report(progress.Update{
		Index:     index + 1,
		Total:     summary.TotalFound,
		Path:      relTo(opts.InputDir, result.Request.InputPath),
		Succeeded: result.Outcome == model.OutcomeSuccess,
		Detail:    result.ErrorDetail,
		Timestamp: time.Now(),
	})
}

// acquireLock claims the run lock in the output root. Overlapping runs
// against the same output tree would race on output files; the lock turns
// that into an explicit error instead.
func (o *Orchestrator) acquireLock(ctx context.Context, opts model.BatchOptions) (func() error, error) {
	root := opts.OutputDir
	if root == "" {
		root = opts.InputDir
	}
	if err := o.storage.EnsureDir(ctx, root); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(root, lockFileName)
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, pkgerrors.NewBatchLocked(lockPath)
	}
	return fl.Unlock, nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func workerCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
