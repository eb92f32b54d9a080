// Package asynchook moves hook delivery off the runner's workers.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{PassEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000)
//	defer hooks.Close()
//
//	runner, _ := gopals.New(gopals.Options{Hooks: hooks, Workers: 4})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/gopals"
)

type kind uint8

const (
	passed kind = iota
	failed
	rejected
	storeError
	counterError
	corrupt
)

// event carries one hook call; only the fields used by its kind are set.
type event struct {
	kind    kind
	key     string // scenario name or storage key
	text    string // failure message or drop reason
	elapsed time.Duration
	isRun   bool
	err     error
}

// Hooks queues events for an inner gopals.Hooks and delivers them on
// background workers. When the queue is full the event is counted in
// Dropped and discarded; events raised after Close are discarded too.
type Hooks struct {
	inner gopals.Hooks
	q     chan event
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ gopals.Hooks = (*Hooks)(nil)

// New starts workers (at least 1) reading a queue of qlen events
// (1024 when qlen <= 0).
func New(inner gopals.Hooks, workers, qlen int) *Hooks {
	if qlen <= 0 {
		qlen = 1024
	}
	h := &Hooks{inner: inner, q: make(chan event, qlen)}
	for i := 0; i < max(workers, 1); i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for e := range h.q {
				h.deliver(e)
			}
		}()
	}
	return h
}

// Close delivers everything already queued, then stops the workers.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

// Dropped reports how many events never reached the inner hooks.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) emit(e event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- e:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) deliver(e event) {
	switch e.kind {
	case passed:
		h.inner.ScenarioPassed(e.key, e.elapsed)
	case failed:
		h.inner.ScenarioFailed(e.key, e.text)
	case rejected:
		h.inner.StoreRejected(e.key, e.isRun)
	case storeError:
		h.inner.StoreError(e.key, e.err)
	case counterError:
		h.inner.RunCounterError(e.key, e.err)
	case corrupt:
		h.inner.CorruptRecord(e.key, e.text)
	}
}

func (h *Hooks) ScenarioPassed(scenario string, elapsed time.Duration) {
	h.emit(event{kind: passed, key: scenario, elapsed: elapsed})
}

func (h *Hooks) ScenarioFailed(scenario, message string) {
	h.emit(event{kind: failed, key: scenario, text: message})
}

func (h *Hooks) StoreRejected(storageKey string, isRun bool) {
	h.emit(event{kind: rejected, key: storageKey, isRun: isRun})
}

func (h *Hooks) StoreError(storageKey string, err error) {
	h.emit(event{kind: storeError, key: storageKey, err: err})
}

func (h *Hooks) RunCounterError(key string, err error) {
	h.emit(event{kind: counterError, key: key, err: err})
}

func (h *Hooks) CorruptRecord(storageKey, reason string) {
	h.emit(event{kind: corrupt, key: storageKey, text: reason})
}
