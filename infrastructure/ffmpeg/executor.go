package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/Adam-226/m4a-mp3/domain/model"
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
	"github.com/Adam-226/m4a-mp3/pkg/logger"
	"go.uber.org/zap"
)

// stderrTailLines bounds how much transcoder diagnostic output is retained
// per file; ffmpeg can emit megabytes on pathological inputs.
const stderrTailLines = 30

// Executor implements ports.TranscodeExecutor by shelling out to ffmpeg
type Executor struct {
	ffmpegPath string
	timeout    time.Duration
	log        *logger.Logger
}

// ExecutorConfig holds configuration for the ffmpeg executor
type ExecutorConfig struct {
	// FFmpegPath is the binary path; looked up on PATH when empty
	FFmpegPath string

	// Timeout bounds each invocation; zero disables the guard
	Timeout time.Duration

	Logger *logger.Logger
}

// NewExecutor creates an ffmpeg executor. The binary is resolved and probed
// with `ffmpeg -version` up front so a missing transcoder is reported before
// any file is touched.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, pkgerrors.NewTranscoderUnavailable("ffmpeg", err)
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	e := &Executor{
		ffmpegPath: ffmpegPath,
		timeout:    cfg.Timeout,
		log:        log,
	}

	if err := e.checkVersion(); err != nil {
		return nil, err
	}
	return e, nil
}

// checkVersion runs `ffmpeg -version` as a launch preflight
func (e *Executor) checkVersion() error {
	cmd := exec.Command(e.ffmpegPath, "-version")
	out, err := cmd.Output()
	if err != nil {
		return pkgerrors.NewTranscoderUnavailable(e.ffmpegPath, err)
	}
	if i := bytes.IndexByte(out, '\n'); i > 0 {
		e.log.Debug("transcoder ready", zap.String("version", string(out[:i])))
	}
	return nil
}

// Execute runs ffmpeg with the given arguments, blocking until it exits.
// Nonzero exit and timeout are returned as *errors.TranscodeError; failure
// to launch the process at all as *errors.TranscoderUnavailableError.
func (e *Executor) Execute(ctx context.Context, args []string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Unblocks Wait when a killed ffmpeg leaves children holding the pipes
	cmd.WaitDelay = 10 * time.Second

	e.log.Debug("executing ffmpeg", zap.Strings("args", args))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.NewTranscodeTimeout(args, ctx.Err())
	}

	// Parent cancellation killed the child; that is an abort of the whole
	// run, not a failure of this file.
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return pkgerrors.NewTranscodeError(
			"ffmpeg execution failed",
			args,
			exitErr.ExitCode(),
			tailLines(stderr.String(), stderrTailLines),
			err,
		)
	}

	// The process never ran: binary vanished or is not executable. This is
	// systemic and fatal for the whole batch.
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return pkgerrors.NewTranscoderUnavailable(e.ffmpegPath, err)
	}

	return pkgerrors.NewTranscodeError("ffmpeg execution failed", args, -1,
		tailLines(stderr.String(), stderrTailLines), err)
}

// BuildArgs maps a conversion request and its resolved parameters onto the
// ffmpeg argv: `-i IN -codec:a CODEC [-b:a NNNk] -y OUT`. `-y` makes
// existing outputs be overwritten rather than prompting or skipping.
func BuildArgs(req model.ConversionRequest, params model.EncodingParameters) []string {
	args := []string{"-i", req.InputPath, "-codec:a", params.CodecName}
	if params.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", params.BitrateKbps))
	}
	return append(args, "-y", req.OutputPath)
}

// tailLines keeps the last n lines of s
func tailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
