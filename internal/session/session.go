// Package session ties a collection store, an environment, the request
// history and an executor together the way an interactive client uses them.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/studiowebux/apiprobe/internal/collection"
	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/history"
	"github.com/studiowebux/apiprobe/internal/parser"
	"github.com/studiowebux/apiprobe/internal/types"
)

// Manager owns the mutable client state. Sends run asynchronously; the most
// recently completed one becomes Current.
type Manager struct {
	store    *collection.Store
	history  *history.Log
	exec     *executor.Executor
	execOpts []executor.Option
	log      logr.Logger

	cancelPrevious bool

	mu        sync.Mutex
	env       types.Environment
	current   *types.Response
	currentID uint64
	seq       uint64
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
}

// Option configures a Manager
type Option func(*Manager)

// WithStore replaces the default seeded store
func WithStore(s *collection.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithHistory replaces the default history log
func WithHistory(h *history.Log) Option {
	return func(m *Manager) { m.history = h }
}

// WithEnvironment sets the initial environment
func WithEnvironment(env types.Environment) Option {
	return func(m *Manager) { m.env = env.Clone() }
}

// WithExecutorOptions passes options to the executor. The manager records
// sends in its own history, so WithRecorder has no effect here.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(m *Manager) { m.execOpts = append(m.execOpts, opts...) }
}

// WithCancelPrevious cancels the in-flight send whenever a new one starts
func WithCancelPrevious(enabled bool) Option {
	return func(m *Manager) { m.cancelPrevious = enabled }
}

// WithLogger sets the logger
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a manager. Without options it starts with the demo
// collections, an empty environment and a history capped at 50 entries.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		env: make(types.Environment),
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = collection.NewDefaultStore()
	}
	if m.history == nil {
		m.history = history.NewLog(history.WithLogger(m.log))
	}

	execOpts := append([]executor.Option{executor.WithLogger(m.log)}, m.execOpts...)
	m.exec = executor.New(execOpts...)

	return m
}

// Store returns the collection store
func (m *Manager) Store() *collection.Store {
	return m.store
}

// History returns the request history
func (m *Manager) History() *history.Log {
	return m.history
}

// Pending is the handle of an asynchronous send
type Pending struct {
	ID   uint64
	done chan struct{}
	resp types.Response
}

// Done is closed once the response is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the send completes and returns its response
func (p *Pending) Wait() types.Response {
	<-p.done
	return p.resp
}

// Send starts executing a stored request. Unknown IDs fail immediately;
// everything after that is reported through the returned Pending.
func (m *Manager) Send(ctx context.Context, collectionID, requestID string) (*Pending, error) {
	col, err := m.store.Get(collectionID)
	if err != nil {
		return nil, err
	}
	req, err := collection.FindRequest(col, requestID)
	if err != nil {
		return nil, err
	}
	return m.dispatch(ctx, &col, req), nil
}

// SendRequest starts executing an ad-hoc request
func (m *Manager) SendRequest(ctx context.Context, req types.Request) *Pending {
	return m.dispatch(ctx, nil, req.Clone())
}

func (m *Manager) dispatch(ctx context.Context, col *types.Collection, req types.Request) *Pending {
	sendCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	// changes made after this point only affect later sends
	env := m.env.Clone()
	if m.cancelPrevious && m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	m.seq++
	p := &Pending{ID: m.seq, done: make(chan struct{})}
	m.inflight.Add(1)
	m.mu.Unlock()

	m.log.V(1).Info("send started", "id", p.ID, "request", req.Name, "method", req.Method)

	go func() {
		defer m.inflight.Done()
		defer cancel()

		resolved, resp := m.exec.Do(sendCtx, col, req, env)

		m.mu.Lock()
		// history and current change together so the latest entry is the
		// current response. With cancellation on, a superseded send is still
		// recorded but never replaces a newer result.
		m.history.Record(resolved, resp)
		if !m.cancelPrevious || p.ID > m.currentID {
			m.current = &resp
			m.currentID = p.ID
		}
		m.mu.Unlock()

		p.resp = resp
		close(p.done)
	}()

	return p
}

// Current returns the response of the most recently completed send
func (m *Manager) Current() (types.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return types.Response{}, false
	}
	return *m.current, true
}

// Wait blocks until every in-flight send has completed
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// SetVariable sets an environment variable
func (m *Manager) SetVariable(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env[key] = value
}

// UnsetVariable removes an environment variable
func (m *Manager) UnsetVariable(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.env, key)
}

// Environment returns a copy of the current environment
func (m *Manager) Environment() types.Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env.Clone()
}

// ReplaceEnvironment swaps the whole environment
func (m *Manager) ReplaceEnvironment(env types.Environment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env = env.Clone()
}

// LoadEnvironment merges variables from an .env, YAML or JSON file
func (m *Manager) LoadEnvironment(path string) error {
	vars, err := parser.LoadEnvironment(path)
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range vars {
		m.env[k] = v
	}
	return nil
}

// SaveEnvironment writes the current environment to path
func (m *Manager) SaveEnvironment(path string) error {
	if err := parser.SaveEnvironment(m.Environment(), path); err != nil {
		return fmt.Errorf("failed to save environment: %w", err)
	}
	return nil
}
