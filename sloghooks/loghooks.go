package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/gopals"
)

type Options struct {
	// Sampling of passing scenarios to avoid floods; 0/1 = log all.
	// Failures are always logged.
	PassEvery uint64
	// Optional storage key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	passCtr atomic.Uint64
}

var _ gopals.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ScenarioPassed(scenario string, elapsed time.Duration) {
	if h.l == nil || !sample(h.opts.PassEvery, &h.passCtr) {
		return
	}
	h.l.Debug("gopals.scenario_passed",
		"scenario", scenario,
		"elapsed", elapsed)
}

func (h *Hooks) ScenarioFailed(scenario, message string) {
	if h.l == nil {
		return
	}
	h.l.Info("gopals.scenario_failed",
		"scenario", scenario,
		"message", message)
}

func (h *Hooks) StoreRejected(storageKey string, isRun bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("gopals.store_rejected",
		"key", h.redact(storageKey),
		"is_run", isRun)
}

func (h *Hooks) StoreError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("gopals.store_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) RunCounterError(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("gopals.run_counter_error",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) CorruptRecord(storageKey, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("gopals.corrupt_record",
		"key", h.redact(storageKey),
		"reason", reason)
}
