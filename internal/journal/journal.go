// Package journal holds the caller-owned record of guarded mutations.
// Components append one Entry per item as it completes; the caller
// decides whether that history lives in memory, in sqlite, or both.
package journal

import (
	"errors"
	"sync"
	"time"
)

// Operation names the guarded call that produced an entry
type Operation string

const (
	OpMkdir  Operation = "mkdir"
	OpTouch  Operation = "touch"
	OpRmDir  Operation = "rm_dir"
	OpRmFile Operation = "rm_file"
)

// Action is the outcome recorded for a single item
type Action string

const (
	ActionDone     Action = "done"
	ActionRejected Action = "rejected"
	ActionFailed   Action = "failed"
)

// Entry is one item of a guarded operation
type Entry struct {
	Time      time.Time `json:"time"`
	Operation Operation `json:"operation"`
	Action    Action    `json:"action"`
	Path      string    `json:"path"`
	// Line is the log line the operation returned for this item, e.g. "touched -> /tmp/a"
	Line  string `json:"line,omitempty"`
	Error string `json:"error,omitempty"`
}

// Journal receives entries. Implementations must be safe for sequential use;
// Memory is also safe for concurrent use.
type Journal interface {
	Record(e Entry) error
}

// Memory accumulates entries for the lifetime of the value
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty in-memory journal
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of everything recorded so far
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Lines returns the log lines of completed items, oldest first, optionally
// limited to the given operations.
func (m *Memory) Lines(ops ...Operation) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, e := range m.entries {
		if e.Action != ActionDone || e.Line == "" {
			continue
		}
		if len(ops) > 0 && !containsOp(ops, e.Operation) {
			continue
		}
		out = append(out, e.Line)
	}
	return out
}

// Reset drops all recorded entries
func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

func containsOp(ops []Operation, op Operation) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// Multi fans an entry out to every journal. All journals are written even
// when one fails; the failures are joined.
type Multi []Journal

func (m Multi) Record(e Entry) error {
	var errs []error
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := j.Record(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
