// Package m4amp3 batch-converts .m4a audio files to mp3 or wav by driving
// an external ffmpeg binary. It exposes a single Converter that discovers
// inputs under a directory, invokes ffmpeg once per file, and returns an
// aggregate summary.
package m4amp3

import (
	"context"
	"io"
	"time"

	"github.com/Adam-226/m4a-mp3/application/batch"
	"github.com/Adam-226/m4a-mp3/domain/model"
	"github.com/Adam-226/m4a-mp3/infrastructure/ffmpeg"
	"github.com/Adam-226/m4a-mp3/infrastructure/storage"
	"github.com/Adam-226/m4a-mp3/pkg/logger"
	"github.com/Adam-226/m4a-mp3/pkg/progress"
	"go.uber.org/zap"
)

// Re-export types for convenient use by callers
type (
	Format           = model.Format
	Quality          = model.Quality
	BatchOptions     = model.BatchOptions
	BatchSummary     = model.BatchSummary
	ConversionResult = model.ConversionResult
	Failure          = model.Failure
	ProgressUpdate   = progress.Update
)

// Re-export enum constants
const (
	FormatMP3 = model.FormatMP3
	FormatWAV = model.FormatWAV

	QualityHigh   = model.QualityHigh
	QualityMedium = model.QualityMedium
	QualityLow    = model.QualityLow
)

// Re-export boundary coercions
var (
	ParseFormat  = model.ParseFormat
	ParseQuality = model.ParseQuality
)

// Config holds top-level configuration for the converter
type Config struct {
	// FFmpegPath is the path to the ffmpeg binary (PATH lookup if empty)
	FFmpegPath string

	// Timeout bounds each ffmpeg invocation; zero disables the guard
	Timeout time.Duration

	// SourceExtension overrides the default ".m4a" input extension
	SourceExtension string

	// Logger is an optional custom logger. Logging is off when nil.
	Logger *logger.Logger

	// ZapLogger allows passing a *zap.Logger directly
	ZapLogger *zap.Logger

	// ProgressWriter receives one line per converted file when set
	ProgressWriter io.Writer

	// ProgressCh is an optional channel for receiving progress updates
	ProgressCh chan<- ProgressUpdate
}

// Converter is the main entry point
type Converter struct {
	orch *batch.Orchestrator
	log  *logger.Logger
}

// New creates a Converter. The ffmpeg binary is resolved and probed here,
// so an unavailable transcoder surfaces before any batch starts.
func New(cfg Config) (*Converter, error) {
	log := cfg.Logger
	if log == nil && cfg.ZapLogger != nil {
		log = logger.FromZap(cfg.ZapLogger)
	}
	if log == nil {
		log = logger.Nop()
	}

	executor, err := ffmpeg.NewExecutor(ffmpeg.ExecutorConfig{
		FFmpegPath: cfg.FFmpegPath,
		Timeout:    cfg.Timeout,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	reporters := progress.NewMultiReporter()
	if cfg.ProgressWriter != nil {
		reporters.Add(progress.NewConsoleReporter(cfg.ProgressWriter))
	}
	if cfg.ProgressCh != nil {
		reporters.Add(progress.NewChannelReporter(cfg.ProgressCh))
	}

	orch, err := batch.New(batch.Config{
		Scanner:   storage.NewScanner(),
		Executor:  executor,
		Storage:   storage.NewLocalStorage(),
		Reporter:  reporters,
		Logger:    log,
		SourceExt: cfg.SourceExtension,
	})
	if err != nil {
		return nil, err
	}

	return &Converter{orch: orch, log: log}, nil
}

// Run executes one batch. The summary is valid (possibly partial) even when
// an error is returned; callers decide the exit status from the error and
// the failure count from the summary.
func (c *Converter) Run(ctx context.Context, opts BatchOptions) (BatchSummary, error) {
	return c.orch.Run(ctx, opts)
}

// Close flushes the logger and releases resources
func (c *Converter) Close() {
	_ = c.log.Sync()
}
