package genstore

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	run  uint64
	last time.Time
}

// LocalGenStore keeps run counters in process memory. Use one per
// namespace: counters are keyed by scenario name alone.
//
// Counters of scenarios that have not run for retention are forgotten. The
// sweep happens inside Next at most once per sweepEvery, so an idle store
// costs nothing.
type LocalGenStore struct {
	mu     sync.Mutex
	runs   map[string]counter
	swept  time.Time
	now    func() time.Time
	every  time.Duration
	retain time.Duration
}

var _ GenStore = (*LocalGenStore)(nil)

// NewLocalGenStore returns an empty store. A zero sweepEvery or retention
// keeps counters forever.
func NewLocalGenStore(sweepEvery, retention time.Duration) *LocalGenStore {
	return &LocalGenStore{
		runs:   make(map[string]counter),
		now:    time.Now,
		every:  sweepEvery,
		retain: retention,
	}
}

func (s *LocalGenStore) Current(_ context.Context, scenario string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[scenario].run, nil
}

func (s *LocalGenStore) CurrentMany(_ context.Context, scenarios []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(scenarios))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range scenarios {
		out[name] = s.runs[name].run
	}
	return out, nil
}

func (s *LocalGenStore) Next(_ context.Context, scenario string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	c := s.runs[scenario]
	c.run++
	c.last = now
	s.runs[scenario] = c
	return c.run, nil
}

func (s *LocalGenStore) sweepLocked(now time.Time) {
	if s.every <= 0 || s.retain <= 0 || now.Sub(s.swept) < s.every {
		return
	}
	s.swept = now
	cutoff := now.Add(-s.retain)
	for name, c := range s.runs {
		if c.last.Before(cutoff) {
			delete(s.runs, name)
		}
	}
}

// Close is a no-op; the store owns no goroutines.
func (s *LocalGenStore) Close(context.Context) error { return nil }
