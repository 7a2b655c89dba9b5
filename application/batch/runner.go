package batch

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/Adam-226/m4a-mp3/domain/model"
	"github.com/Adam-226/m4a-mp3/domain/ports"
	"github.com/Adam-226/m4a-mp3/infrastructure/ffmpeg"
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
	"github.com/Adam-226/m4a-mp3/pkg/logger"
	"go.uber.org/zap"
)

// Runner converts one file at a time: it prepares the output directory,
// invokes the transcoder, and classifies the outcome.
type Runner struct {
	executor ports.TranscodeExecutor
	storage  ports.StorageProvider
	log      *logger.Logger
}

// NewRunner creates a conversion runner
func NewRunner(executor ports.TranscodeExecutor, storage ports.StorageProvider, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		executor: executor,
		storage:  storage,
		log:      log,
	}
}

// Convert performs a single conversion. Ordinary failures (nonzero exit,
// timeout, unwritable output directory) come back inside the result; the
// returned error is non-nil only for conditions fatal to the whole batch,
// i.e. the transcoder being unavailable.
func (r *Runner) Convert(ctx context.Context, req model.ConversionRequest, params model.EncodingParameters) (model.ConversionResult, error) {
	exists, err := r.storage.Exists(ctx, req.InputPath)
	if err != nil {
		return failure(req, "cannot read input file: "+err.Error()), nil
	}
	if !exists {
		return failure(req, "input file does not exist"), nil
	}

	if err := r.storage.EnsureDir(ctx, filepath.Dir(req.OutputPath)); err != nil {
		return failure(req, "cannot create output directory: "+err.Error()), nil
	}

	args := ffmpeg.BuildArgs(req, params)

	err = r.executor.Execute(ctx, args)
	if err == nil {
		if size, sizeErr := r.storage.Size(ctx, req.OutputPath); sizeErr == nil {
			r.log.Debug("converted",
				zap.String("output", req.OutputPath),
				zap.Int64("bytes", size),
			)
		}
		return model.ConversionResult{Request: req, Outcome: model.OutcomeSuccess}, nil
	}

	if pkgerrors.IsTranscoderUnavailable(err) {
		return model.ConversionResult{}, err
	}

	// A cancelled run context means the child was killed on the caller's
	// behalf, not that this file failed. Stop the batch instead of recording.
	if errors.Is(err, context.Canceled) {
		return model.ConversionResult{}, err
	}

	var transcodeErr *pkgerrors.TranscodeError
	if errors.As(err, &transcodeErr) {
		return failure(req, transcodeErr.Detail()), nil
	}
	return failure(req, err.Error()), nil
}

func failure(req model.ConversionRequest, detail string) model.ConversionResult {
	return model.ConversionResult{
		Request:     req,
		Outcome:     model.OutcomeFailure,
		ErrorDetail: detail,
	}
}
