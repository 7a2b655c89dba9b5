package mocks

import (
	"context"
	"sync"
)

// MockTranscodeExecutor is a test double for ports.TranscodeExecutor
type MockTranscodeExecutor struct {
	ExecuteFunc func(ctx context.Context, args []string) error

	mu           sync.Mutex
	ExecutedArgs [][]string
}

func (m *MockTranscodeExecutor) Execute(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return nil
}

// Calls returns a snapshot of the recorded invocations
func (m *MockTranscodeExecutor) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.ExecutedArgs))
	copy(out, m.ExecutedArgs)
	return out
}

// MockFileScanner is a test double for ports.FileScanner
type MockFileScanner struct {
	DiscoverFunc func(root, ext string, recursive bool) ([]string, error)
}

func (m *MockFileScanner) Discover(root, ext string, recursive bool) ([]string, error) {
	if m.DiscoverFunc != nil {
		return m.DiscoverFunc(root, ext, recursive)
	}
	return nil, nil
}

// MockStorageProvider is a test double for ports.StorageProvider
type MockStorageProvider struct {
	ExistsFunc    func(ctx context.Context, path string) (bool, error)
	EnsureDirFunc func(ctx context.Context, dir string) error
	SizeFunc      func(ctx context.Context, path string) (int64, error)

	mu          sync.Mutex
	EnsuredDirs []string
}

func (m *MockStorageProvider) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockStorageProvider) EnsureDir(ctx context.Context, dir string) error {
	m.mu.Lock()
	m.EnsuredDirs = append(m.EnsuredDirs, dir)
	m.mu.Unlock()
	if m.EnsureDirFunc != nil {
		return m.EnsureDirFunc(ctx, dir)
	}
	return nil
}

func (m *MockStorageProvider) Size(ctx context.Context, path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(ctx, path)
	}
	return 1024, nil
}
