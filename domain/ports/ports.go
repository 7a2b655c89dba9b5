package ports

import (
	"context"

	"github.com/Adam-226/m4a-mp3/domain/model"
)

// BatchConverter is the main processing interface
type BatchConverter interface {
	// Run converts every discovered source file and returns the aggregate
	// summary. The summary is valid (possibly partial) even when err != nil.
	Run(ctx context.Context, opts model.BatchOptions) (model.BatchSummary, error)
}

// TranscodeExecutor is the abstraction for external transcoder invocation
type TranscodeExecutor interface {
	// Execute runs the transcoder with the given arguments and blocks until
	// it exits. Nonzero exit and timeout come back as *errors.TranscodeError;
	// launch failure as *errors.TranscoderUnavailableError.
	Execute(ctx context.Context, args []string) error
}

// FileScanner discovers candidate input files
type FileScanner interface {
	// Discover returns every file under root (direct children only unless
	// recursive) whose extension matches ext case-insensitively, sorted
	// lexicographically by full path.
	Discover(root, ext string, recursive bool) ([]string, error)
}

// StorageProvider abstracts local filesystem operations
type StorageProvider interface {
	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)

	// EnsureDir creates dir and any missing parents; no error if present
	EnsureDir(ctx context.Context, dir string) error

	// Size returns file size in bytes
	Size(ctx context.Context, path string) (int64, error)
}
