package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultFlushDelay = 50 * time.Millisecond

// Store keeps the in-memory price snapshot and coalesces writes to the
// durable backend: mutations schedule a single deferred flush, and all
// mutations within the delay window collapse into one write of the latest
// snapshot.
type Store struct {
	backend    Backend
	flushDelay time.Duration

	mu      sync.RWMutex
	current Snapshot
	pending bool
}

type Option func(s *Store)

// WithFlushDelay overrides the coalescing window.
func WithFlushDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.flushDelay = d
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		flushDelay: defaultFlushDelay,
		current:    Snapshot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory snapshot with the durable one. Missing or
// corrupt backing data is not an error; the store simply starts empty.
func (s *Store) Load(ctx context.Context) {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		slog.Warn("failed to load stored snapshot, starting empty", "error", err)
		snap = Snapshot{}
	}
	if snap == nil {
		snap = Snapshot{}
	}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}

func (s *Store) Get(symbol string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.current[strings.ToUpper(symbol)]
	return rec, ok
}

// Snapshot returns a copy of the current in-memory snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Put overwrites the record for one symbol and schedules a coalesced flush.
func (s *Store) Put(symbol string, rec Record) {
	s.mu.Lock()
	s.current[strings.ToUpper(symbol)] = rec
	schedule := !s.pending
	s.pending = true
	s.mu.Unlock()

	if schedule {
		time.AfterFunc(s.flushDelay, s.flush)
	}
}

func (s *Store) flush() {
	s.mu.Lock()
	snap := s.current.Clone()
	s.pending = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.backend.Store(ctx, snap); err != nil {
		// in-memory state stays authoritative, no retry
		slog.Error("failed to persist snapshot", "error", err)
	}
}

// FlushNow writes the current snapshot synchronously. Used at shutdown.
func (s *Store) FlushNow(ctx context.Context) error {
	s.mu.Lock()
	snap := s.current.Clone()
	s.pending = false
	s.mu.Unlock()
	return s.backend.Store(ctx, snap)
}

// LookupDurable resolves a price with read priority for the reply path:
// the durable backend first (most recent flush is authoritative), the
// in-memory snapshot second (covers the coalescing window).
func (s *Store) LookupDurable(ctx context.Context, symbol string) (Record, bool) {
	symbol = strings.ToUpper(symbol)
	if snap, err := s.backend.Load(ctx); err == nil {
		if rec, ok := snap[symbol]; ok {
			return rec, true
		}
	}
	return s.Get(symbol)
}
