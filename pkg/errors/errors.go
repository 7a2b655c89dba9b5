package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes errors
type ErrorCode string

const (
	ErrCodeInvalidInputPath      ErrorCode = "INVALID_INPUT_PATH"
	ErrCodeUnsupportedFormat     ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupportedQuality    ErrorCode = "UNSUPPORTED_QUALITY"
	ErrCodeTranscoderUnavailable ErrorCode = "TRANSCODER_UNAVAILABLE"
	ErrCodeOutputCollision       ErrorCode = "OUTPUT_COLLISION"
	ErrCodeBatchLocked           ErrorCode = "BATCH_LOCKED"
	ErrCodeTranscode             ErrorCode = "TRANSCODE_ERROR"
)

// BatchError is the base structured error
type BatchError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *BatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

// InvalidInputPathError reports a missing or unreadable input directory
type InvalidInputPathError struct {
	BatchError
	Path string
}

func NewInvalidInputPath(path, message string, cause error) *InvalidInputPathError {
	return &InvalidInputPathError{
		BatchError: BatchError{
			Code:    ErrCodeInvalidInputPath,
			Message: message,
			Cause:   cause,
		},
		Path: path,
	}
}

func (e *InvalidInputPathError) Error() string {
	return fmt.Sprintf("%s (path=%s)", e.BatchError.Error(), e.Path)
}

// UnsupportedFormatError reports an output format outside {mp3, wav}
type UnsupportedFormatError struct {
	BatchError
	Value string
}

func NewUnsupportedFormat(value string) *UnsupportedFormatError {
	return &UnsupportedFormatError{
		BatchError: BatchError{
			Code:    ErrCodeUnsupportedFormat,
			Message: "output format must be mp3 or wav",
		},
		Value: value,
	}
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s (got=%q)", e.BatchError.Error(), e.Value)
}

// UnsupportedQualityError reports a quality tier outside {high, medium, low}
type UnsupportedQualityError struct {
	BatchError
	Value string
}

func NewUnsupportedQuality(value string) *UnsupportedQualityError {
	return &UnsupportedQualityError{
		BatchError: BatchError{
			Code:    ErrCodeUnsupportedQuality,
			Message: "quality must be high, medium or low",
		},
		Value: value,
	}
}

func (e *UnsupportedQualityError) Error() string {
	return fmt.Sprintf("%s (got=%q)", e.BatchError.Error(), e.Value)
}

// TranscoderUnavailableError is fatal for the whole batch: the external
// transcoder could not be found or launched at all.
type TranscoderUnavailableError struct {
	BatchError
	Binary string
}

func NewTranscoderUnavailable(binary string, cause error) *TranscoderUnavailableError {
	return &TranscoderUnavailableError{
		BatchError: BatchError{
			Code:    ErrCodeTranscoderUnavailable,
			Message: "transcoder is not available",
			Cause:   cause,
		},
		Binary: binary,
	}
}

func (e *TranscoderUnavailableError) Error() string {
	return fmt.Sprintf("%s (binary=%s)", e.BatchError.Error(), e.Binary)
}

// IsTranscoderUnavailable reports whether err carries the fatal
// transcoder-missing condition anywhere in its chain.
func IsTranscoderUnavailable(err error) bool {
	var target *TranscoderUnavailableError
	return errors.As(err, &target)
}

// OutputCollisionError reports two distinct inputs mapped to one output path
type OutputCollisionError struct {
	BatchError
	OutputPath  string
	FirstInput  string
	SecondInput string
}

func NewOutputCollision(output, first, second string) *OutputCollisionError {
	return &OutputCollisionError{
		BatchError: BatchError{
			Code:    ErrCodeOutputCollision,
			Message: "two inputs map to the same output path",
		},
		OutputPath:  output,
		FirstInput:  first,
		SecondInput: second,
	}
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("%s (output=%s, inputs=%s, %s)",
		e.BatchError.Error(), e.OutputPath, e.FirstInput, e.SecondInput)
}

// BatchLockedError reports another run holding the output-root lock
type BatchLockedError struct {
	BatchError
	LockPath string
}

func NewBatchLocked(lockPath string) *BatchLockedError {
	return &BatchLockedError{
		BatchError: BatchError{
			Code:    ErrCodeBatchLocked,
			Message: "another batch is already running against this output directory",
		},
		LockPath: lockPath,
	}
}

func (e *BatchLockedError) Error() string {
	return fmt.Sprintf("%s (lock=%s)", e.BatchError.Error(), e.LockPath)
}

// TranscodeError represents a per-file transcoder failure: nonzero exit or
// timeout. It is recorded in the batch summary, never fatal on its own.
type TranscodeError struct {
	BatchError
	Args     []string
	ExitCode int
	Stderr   string
	TimedOut bool
}

func NewTranscodeError(message string, args []string, exitCode int, stderr string, cause error) *TranscodeError {
	return &TranscodeError{
		BatchError: BatchError{
			Code:    ErrCodeTranscode,
			Message: message,
			Cause:   cause,
		},
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// NewTranscodeTimeout marks a conversion that exceeded its deadline
func NewTranscodeTimeout(args []string, cause error) *TranscodeError {
	e := NewTranscodeError("transcoder timed out", args, -1, "", cause)
	e.TimedOut = true
	return e
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("[%s] %s (exit=%d, stderr=%q): %v",
		e.Code, e.Message, e.ExitCode, Truncate(e.Stderr, 200), e.Cause)
}

// Detail returns the diagnostic text recorded into the batch summary
func (e *TranscodeError) Detail() string {
	if e.TimedOut {
		return "timeout"
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("transcoder exited with status %d", e.ExitCode)
}

// Is enables errors.Is checks
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As enables errors.As checks
func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

// Truncate caps s at n bytes for log-safe rendering
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
