package gopals

import "time"

// Hooks lightweight callbacks for high-signal runner events.
// Implementations MUST be cheap and non-blocking; scenario hooks may be
// called from several workers at once.
type Hooks interface {
	// A scenario finished with status OK.
	ScenarioPassed(scenario string, elapsed time.Duration)

	// A scenario finished with status FAILED.
	ScenarioFailed(scenario, message string)

	// Provider returned ok=false on Set (backpressure/eviction).
	StoreRejected(storageKey string, isRun bool)

	// Provider returned an error on Get or Set.
	StoreError(storageKey string, err error)

	// GenStore errors. key is a scenario name, or the run key when a whole
	// run record was being validated.
	RunCounterError(key string, err error)

	// A stored record was dropped on read.
	// reason ∈ {"corrupt", "stale_run", "value_decode"}
	CorruptRecord(storageKey, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ScenarioPassed(string, time.Duration) {}
func (NopHooks) ScenarioFailed(string, string)        {}
func (NopHooks) StoreRejected(string, bool)           {}
func (NopHooks) StoreError(string, error)             {}
func (NopHooks) RunCounterError(string, error)        {}
func (NopHooks) CorruptRecord(string, string)         {}
