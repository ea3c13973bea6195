// Package store owns the client's replica of the remote catalog: the current
// snapshot, the operation state and the refresh and mutation pipelines that
// replace it.
package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/catalog"
)

// Fetcher reads the full catalog from the remote service.
type Fetcher interface {
	ListBooks(ctx context.Context) ([]byte, error)
}

// Store holds the current catalog snapshot and the busy gate. Readers never
// block: the snapshot is swapped atomically and never edited in place.
type Store struct {
	remote  Fetcher
	snap    atomic.Pointer[catalog.Snapshot]
	log     *slog.Logger
	metrics *Metrics

	mu    sync.Mutex
	state State
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns a Store with an empty snapshot.
func New(remote Fetcher, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	s.snap.Store(catalog.NewSnapshot(nil))
	return s
}

// Refresh fetches the catalog and publishes it. On failure the previous
// snapshot is kept and the error is recorded in State.
func (s *Store) Refresh(ctx context.Context) (snap *catalog.Snapshot, err error) {
	const op = "refresh"
	start := time.Now()
	release, err := s.acquire(op)
	if err != nil {
		s.metrics.observe(op, start, err)
		return nil, err
	}
	defer func() {
		release(err)
		s.metrics.observe(op, start, err)
	}()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// refresh does the fetch/parse/publish step. Callers hold the gate.
func (s *Store) refresh(ctx context.Context) error {
	body, err := s.remote.ListBooks(ctx)
	if err != nil {
		return err
	}
	next, err := catalog.Parse(body)
	if err != nil {
		return err
	}
	s.snap.Store(next)
	s.metrics.setBooks(next.Len())
	s.log.Debug("catalog published", slog.Int("books", next.Len()))
	return nil
}

// Snapshot returns the current snapshot. Never nil.
func (s *Store) Snapshot() *catalog.Snapshot {
	return s.snap.Load()
}

// Categories groups the current snapshot by category.
func (s *Store) Categories() catalog.CategoryGroup {
	return catalog.Group(s.Snapshot())
}

// Lookup finds ref in the current snapshot by ID or object reference.
func (s *Store) Lookup(ref string) (catalog.Book, bool) {
	return s.Snapshot().Lookup(ref)
}

// Contains reports whether ref is in the current snapshot.
func (s *Store) Contains(ref string) bool {
	return s.Snapshot().Contains(ref)
}

// State returns a copy of the operation state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DismissError clears LastError.
func (s *Store) DismissError() {
	s.mu.Lock()
	s.state.LastError = nil
	s.mu.Unlock()
}

// acquire takes the busy gate for op or fails with KindBusy. The returned
// release must be called exactly once with the operation's outcome.
func (s *Store) acquire(op string) (func(error), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy {
		return nil, apperr.New(apperr.KindBusy, op, "%s is already in progress", s.state.Op)
	}
	s.state = State{Busy: true, Op: op}
	s.log.Debug("operation started", slog.String("op", op))

	return func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.Busy = false
		s.state.LastError = err
		if err != nil {
			s.log.Debug("operation failed", slog.String("op", op), slog.String("kind", string(apperr.KindOf(err))), slog.String("error", err.Error()))
		}
	}, nil
}
