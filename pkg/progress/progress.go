package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Update holds one per-file progress notification: which file out of how
// many, and how its conversion ended.
type Update struct {
	Index     int // 1-based position in discovery order
	Total     int
	Path      string // input path relative to the batch root
	Succeeded bool
	Detail    string // failure diagnostic, empty on success
	Timestamp time.Time
}

// Reporter is the interface for progress reporting
type Reporter interface {
	Report(update Update)
}

// ConsoleReporter writes one line per file, matching the CLI contract:
// index/total, relative path, outcome.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleReporter creates a reporter writing to w
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Report(update Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if update.Succeeded {
		fmt.Fprintf(r.w, "[%d/%d] %s ... ok\n", update.Index, update.Total, update.Path)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s ... FAILED: %s\n",
		update.Index, update.Total, update.Path, firstLine(update.Detail))
}

// ChannelReporter sends updates to a channel
type ChannelReporter struct {
	ch chan<- Update
}

// NewChannelReporter creates a reporter that sends updates to ch
func NewChannelReporter(ch chan<- Update) *ChannelReporter {
	return &ChannelReporter{ch: ch}
}

func (r *ChannelReporter) Report(update Update) {
	select {
	case r.ch <- update:
	default: // non-blocking: drop if channel is full
	}
}

// MultiReporter fans out to multiple reporters
type MultiReporter struct {
	mu        sync.RWMutex
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

func (m *MultiReporter) Add(r Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

func (m *MultiReporter) Report(update Update) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reporters {
		r.Report(update)
	}
}

// NoopReporter discards all updates
type NoopReporter struct{}

func (n NoopReporter) Report(_ Update) {}

// firstLine keeps per-file console output on a single line even when the
// transcoder diagnostic spans several.
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
