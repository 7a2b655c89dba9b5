package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Adam-226/m4a-mp3/domain/model"
	"github.com/Adam-226/m4a-mp3/infrastructure/storage"
	"github.com/Adam-226/m4a-mp3/internal/mocks"
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
	"github.com/Adam-226/m4a-mp3/pkg/progress"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter collects updates for assertions
type recordingReporter struct {
	mu      sync.Mutex
	updates []progress.Update
}

func (r *recordingReporter) Report(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func writeInputs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func newOrchestrator(t *testing.T, exec *mocks.MockTranscodeExecutor, rep progress.Reporter) *Orchestrator {
	t.Helper()
	orch, err := New(Config{
		Scanner:  storage.NewScanner(),
		Executor: exec,
		Storage:  storage.NewLocalStorage(),
		Reporter: rep,
	})
	require.NoError(t, err)
	return orch
}

// inputArg extracts the `-i` value from a recorded argv
func inputArg(args []string) string {
	for i, a := range args {
		if a == "-i" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestRun_AllSucceed(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a", "c.m4a", "notes.txt")

	exec := &mocks.MockTranscodeExecutor{}
	rep := &recordingReporter{}
	orch := newOrchestrator(t, exec, rep)

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityLow,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFound)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, summary.TotalFound, summary.Processed())

	calls := exec.Calls()
	require.Len(t, calls, 3)
	for _, args := range calls {
		assert.Contains(t, args, "-b:a")
		assert.Contains(t, args, "128k")
	}

	// Progress lines follow discovery order with relative paths
	require.Len(t, rep.updates, 3)
	assert.Equal(t, 1, rep.updates[0].Index)
	assert.Equal(t, "a.m4a", rep.updates[0].Path)
	assert.Equal(t, 3, rep.updates[2].Index)
	assert.True(t, rep.updates[2].Succeeded)
}

func TestRun_OneFailureContinues(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a", "c.m4a")

	exec := &mocks.MockTranscodeExecutor{
		ExecuteFunc: func(_ context.Context, args []string) error {
			if strings.HasSuffix(inputArg(args), "b.m4a") {
				return pkgerrors.NewTranscodeError("ffmpeg execution failed", args, 1, "b.m4a: corrupt frame", nil)
			}
			return nil
		},
	}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFound)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, filepath.Join(root, "b.m4a"), summary.Failures[0].Path)
	assert.Contains(t, summary.Failures[0].Detail, "corrupt frame")
	assert.Len(t, exec.Calls(), 3)
}

func TestRun_EmptyDirectory(t *testing.T) {
	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: t.TempDir(),
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, model.BatchSummary{}, summary)
	assert.Empty(t, exec.Calls())
}

func TestRun_MissingRootFailsBeforeAnySubprocess(t *testing.T) {
	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	_, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: filepath.Join(t.TempDir(), "missing"),
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.Error(t, err)
	_, ok := pkgerrors.As[*pkgerrors.InvalidInputPathError](err)
	assert.True(t, ok)
	assert.Empty(t, exec.Calls())
}

func TestRun_InvalidOptionsFailFast(t *testing.T) {
	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	_, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: t.TempDir(),
		Format:   model.Format("flac"),
		Quality:  model.QualityHigh,
	})
	require.Error(t, err)
	_, ok := pkgerrors.As[*pkgerrors.UnsupportedFormatError](err)
	assert.True(t, ok)

	_, err = orch.Run(context.Background(), model.BatchOptions{
		InputDir: t.TempDir(),
		Format:   model.FormatMP3,
		Quality:  model.Quality("ultra"),
	})
	require.Error(t, err)
	_, ok = pkgerrors.As[*pkgerrors.UnsupportedQualityError](err)
	assert.True(t, ok)

	assert.Empty(t, exec.Calls())
}

func TestRun_TranscoderUnavailableAbortsWithPartialSummary(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a", "c.m4a")

	exec := &mocks.MockTranscodeExecutor{
		ExecuteFunc: func(_ context.Context, args []string) error {
			if strings.HasSuffix(inputArg(args), "b.m4a") {
				return pkgerrors.NewTranscoderUnavailable("ffmpeg", os.ErrNotExist)
			}
			return nil
		},
	}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatWAV,
		Quality:  model.QualityHigh,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTranscoderUnavailable(err))

	// a.m4a was processed before the fault; c.m4a never started
	assert.Equal(t, 3, summary.TotalFound)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, exec.Calls(), 2)
}

func TestRun_OutputCollisionRejectedUpFront(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "song.m4a", "song.M4A")

	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.Error(t, err)
	_, ok := pkgerrors.As[*pkgerrors.OutputCollisionError](err)
	assert.True(t, ok)
	assert.Zero(t, summary.Processed())
	assert.Empty(t, exec.Calls())
}

func TestRun_OutputDirOverrideMirrorsStructure(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")
	writeInputs(t, root, filepath.Join("album", "track.m4a"))

	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir:  root,
		Format:    model.FormatMP3,
		Quality:   model.QualityMedium,
		OutputDir: out,
		Recursive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	calls := exec.Calls()
	require.Len(t, calls, 1)
	want := filepath.Join(out, "album", "track.mp3")
	assert.Equal(t, want, calls[0][len(calls[0])-1])

	// Runner prepared the mirrored directory
	info, err := os.Stat(filepath.Join(out, "album"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a", "c.m4a", "d.m4a", "e.m4a")

	exec := &mocks.MockTranscodeExecutor{
		ExecuteFunc: func(_ context.Context, args []string) error {
			if strings.HasSuffix(inputArg(args), "c.m4a") {
				return pkgerrors.NewTranscodeError("ffmpeg execution failed", args, 1, "bad", nil)
			}
			return nil
		},
	}
	rep := &recordingReporter{}
	orch := newOrchestrator(t, exec, rep)

	summary, err := orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityLow,
		Workers:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalFound)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, filepath.Join(root, "c.m4a"), summary.Failures[0].Path)

	// Updates are emitted in discovery order regardless of completion order
	require.Len(t, rep.updates, 5)
	for i, u := range rep.updates {
		assert.Equal(t, i+1, u.Index)
	}
}

func TestRun_SecondRunRefusedWhileLocked(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a")

	held := flock.New(filepath.Join(root, lockFileName))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	exec := &mocks.MockTranscodeExecutor{}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	_, err = orch.Run(context.Background(), model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.Error(t, err)
	_, ok := pkgerrors.As[*pkgerrors.BatchLockedError](err)
	assert.True(t, ok)
	assert.Empty(t, exec.Calls())
}

func TestRun_CancelledContextStopsBatch(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a")

	ctx, cancel := context.WithCancel(context.Background())
	exec := &mocks.MockTranscodeExecutor{
		ExecuteFunc: func(_ context.Context, _ []string) error {
			cancel() // abort arrives while the first file is converting
			return nil
		},
	}
	orch := newOrchestrator(t, exec, progress.NoopReporter{})

	summary, err := orch.Run(ctx, model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.TotalFound)
	assert.Equal(t, 1, summary.Processed())
	assert.Len(t, exec.Calls(), 1)
}

func TestRun_AbortMidFileLeavesNoFailureRecord(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.m4a", "b.m4a")

	ctx, cancel := context.WithCancel(context.Background())
	exec := &mocks.MockTranscodeExecutor{
		ExecuteFunc: func(_ context.Context, _ []string) error {
			// the abort kills the in-flight transcode
			cancel()
			return context.Canceled
		},
	}
	rep := &recordingReporter{}
	orch := newOrchestrator(t, exec, rep)

	summary, err := orch.Run(ctx, model.BatchOptions{
		InputDir: root,
		Format:   model.FormatMP3,
		Quality:  model.QualityHigh,
	})
	require.ErrorIs(t, err, context.Canceled)

	// The killed file is neither a success nor a failure
	assert.Equal(t, 2, summary.TotalFound)
	assert.Zero(t, summary.Processed())
	assert.Empty(t, summary.Failures)
	assert.Empty(t, rep.updates)
	assert.Len(t, exec.Calls(), 1)
}
