package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStaleAfter = 300 * time.Second
	DefaultRetryDelay = 1000 * time.Millisecond
)

// Notifier receives the failure message each time the store transitions into
// the error state. Delivery is fire-and-forget.
type Notifier interface {
	ReportError(ctx context.Context, msg string)
}

type Options struct {
	StaleAfter time.Duration // snapshot age that forces Load to refetch
	RetryDelay time.Duration // pause before the single retry attempt
	Notifier   Notifier
	Log        *zap.Logger
	Metrics    *Metrics
}

// Store owns the one authoritative in-memory catalog snapshot for the
// process and the protocol for keeping it fresh: staleness-gated loads,
// a single retry on failure, and coalescing of concurrent fetches.
type Store struct {
	fetcher    Fetcher
	notifier   Notifier
	log        *zap.Logger
	metrics    *Metrics
	staleAfter time.Duration
	retryDelay time.Duration

	mu   sync.Mutex
	snap Snapshot
	gen  uint64
	fl   *flight
}

// flight is one in-flight fetch; every caller that arrives while it is
// pending waits on done and shares its outcome.
type flight struct {
	done chan struct{}
	snap Snapshot
	err  error
}

func NewStore(fetcher Fetcher, opts Options) *Store {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Store{
		fetcher:    fetcher,
		notifier:   opts.Notifier,
		log:        opts.Log,
		metrics:    opts.Metrics,
		staleAfter: opts.StaleAfter,
		retryDelay: opts.RetryDelay,
		snap:       Snapshot{Status: StatusIdle},
	}
}

// Load returns the cached snapshot if it is younger than the staleness
// window, otherwise fetches. Safe for concurrent use; callers arriving
// during a fetch attach to it instead of starting another.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.fl == nil && s.snap.Age(time.Now()) < s.staleAfter {
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}
	fl := s.startFetchLocked()
	s.mu.Unlock()

	return s.await(ctx, fl)
}

// Refetch fetches unconditionally, ignoring the staleness window. It still
// coalesces onto an already in-flight fetch.
func (s *Store) Refetch(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	fl := s.startFetchLocked()
	s.mu.Unlock()

	return s.await(ctx, fl)
}

// Current returns the cached snapshot without triggering a fetch.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset empties the store back to idle, e.g. on logout. A fetch already in
// flight completes but its result is dropped; its waiters still get the
// outcome of the attempt they joined.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.fl = nil
	s.snap = Snapshot{Status: StatusIdle}
	s.metrics.snapshotSize(0)
}

func (s *Store) startFetchLocked() *flight {
	if s.fl != nil {
		return s.fl
	}
	fl := &flight{done: make(chan struct{})}
	s.fl = fl
	s.snap.Status = StatusLoading
	go s.fetch(s.gen, fl)
	return fl
}

func (s *Store) await(ctx context.Context, fl *flight) (Snapshot, error) {
	select {
	case <-fl.done:
		return fl.snap, fl.err
	case <-ctx.Done():
		// the fetch itself keeps running and updates the shared snapshot
		return Snapshot{}, ctx.Err()
	}
}

// fetch runs one load cycle: attempt, fixed-delay retry, commit. It runs on
// a background context so abandoning callers never cancel it.
func (s *Store) fetch(gen uint64, fl *flight) {
	ctx := context.Background()

	products, err := s.fetcher.FetchCatalog(ctx)
	s.metrics.attempt(err == nil)
	if err != nil {
		s.log.Warn("catalog fetch failed, retrying once",
			zap.Error(err),
			zap.Duration("delay", s.retryDelay),
		)
		s.metrics.retry()
		time.Sleep(s.retryDelay)

		products, err = s.fetcher.FetchCatalog(ctx)
		s.metrics.attempt(err == nil)
	}

	s.mu.Lock()
	dropped := gen != s.gen
	if !dropped {
		s.fl = nil
		if err == nil {
			s.snap = Snapshot{
				Products:  products,
				FetchedAt: time.Now(),
				Status:    StatusSuccess,
				Version:   s.snap.Version + 1,
			}
			s.metrics.snapshotSize(len(products))
		} else {
			// keep whatever was cached; stale data beats no data
			s.snap.Status = StatusError
			s.snap.LastError = err.Error()
		}
		fl.snap = s.snap
	} else {
		fl.snap = Snapshot{Status: StatusIdle}
	}
	fl.err = err
	s.mu.Unlock()

	if err != nil && !dropped {
		s.log.Error("catalog fetch failed after retry", zap.Error(err))
		if s.notifier != nil {
			s.notifier.ReportError(ctx, err.Error())
		}
	}
	if err == nil && !dropped {
		s.log.Info("catalog snapshot replaced", zap.Int("products", len(products)))
	}

	close(fl.done)
}
