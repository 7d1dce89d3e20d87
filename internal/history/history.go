// Package history keeps the bounded in-memory request history and its
// optional SQLite archive.
package history

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/studiowebux/apiprobe/internal/types"
)

// DefaultCapacity is the maximum number of entries kept by a Log
const DefaultCapacity = 50

// Sink receives every entry recorded by a Log, e.g. a durable Archive
type Sink interface {
	Save(entry types.HistoryEntry) error
}

// Log is a bounded, in-memory request history. Entries are kept in
// completion order and the oldest ones are dropped once the cap is reached.
type Log struct {
	mu       sync.RWMutex
	entries  []types.HistoryEntry
	capacity int
	sink     Sink
	log      logr.Logger
	now      func() time.Time
}

// Option configures a Log
type Option func(*Log)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithSink mirrors each recorded entry to s
func WithSink(s Sink) Option {
	return func(l *Log) { l.sink = s }
}

// WithLogger sets the logger used to report sink failures
func WithLogger(log logr.Logger) Option {
	return func(l *Log) { l.log = log }
}

// WithClock overrides time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// NewLog creates an empty history log
func NewLog(opts ...Option) *Log {
	l := &Log{
		capacity: DefaultCapacity,
		log:      logr.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = make([]types.HistoryEntry, 0, l.capacity)
	return l
}

// Record appends a snapshot of req and resp and returns the stored entry.
// Sink failures are logged and never returned.
func (l *Log) Record(req types.Request, resp types.Response) types.HistoryEntry {
	entry := types.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Request:   req.Clone(),
		Response:  cloneResponse(resp),
	}

	l.mu.Lock()
	if len(l.entries) >= l.capacity {
		// shift down; the backing array stays at capacity
		n := copy(l.entries, l.entries[len(l.entries)-l.capacity+1:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, entry)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Save(entry); err != nil {
			l.log.Error(err, "failed to archive history entry", "id", entry.ID)
		}
	}

	return entry
}

// Entries returns a copy of the history, oldest first
func (l *Log) Entries() []types.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the most recently completed entry
func (l *Log) Latest() (types.HistoryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return types.HistoryEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Get returns the entry with the given ID
func (l *Log) Get(id string) (types.HistoryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// Len returns the number of stored entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the maximum number of stored entries
func (l *Log) Capacity() int {
	return l.capacity
}

// Clear drops every entry. The sink is not affected.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

func cloneResponse(r types.Response) types.Response {
	out := r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	return out
}
