package gopals

import (
	"context"
	"time"

	gen "github.com/unkn0wn-root/gopals/genstore"
	pr "github.com/unkn0wn-root/gopals/provider"
	"github.com/unkn0wn-root/gopals/serde"
)

type SetCostFunc func(key string, raw []byte, isRun bool, count int) int64

// Runner evaluates scenario tables and, when a Provider is configured,
// keeps the latest result of every scenario.
type Runner interface {
	// Run evaluates scenarios and returns one Result per row, in table order.
	// A non-nil error with non-nil results means the scenarios ran but some
	// results could not be recorded (see RecordError).
	Run(ctx context.Context, scenarios []Scenario) ([]Result, error)

	// Last returns the latest recorded result for a scenario.
	Last(ctx context.Context, scenario string) (r Result, ok bool, err error)

	// Summary returns the latest recorded results for a set of scenarios
	// (order-agnostic; use your own ordering by the names slice).
	Summary(ctx context.Context, scenarios []string) (results map[string]Result, missing []string, err error)

	HistoryEnabled() bool
	Close(context.Context) error
}

// Options tune the Runner. The zero value evaluates scenarios on one worker
// without keeping history.
type Options struct {
	Namespace string      // logical namespace for stored records; "" => "gopals"
	Provider  pr.Provider // nil => history disabled
	Codec     serde.Codec[Result]

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	Workers         int           // concurrent scenario evaluations; 0 => 1
	TTL             time.Duration // stored records; 0 => 7d
	CleanupInterval time.Duration // local run counters sweep at most this often; 0 => 1h
	GenRetention    time.Duration // local counters idle this long are forgotten; 0 => 30d
	MaxRecordSize   int           // decode limit for stored records; 0 => 64KiB
	ComputeSetCost  SetCostFunc   // default 1
	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
}

func New(opts Options) (Runner, error) {
	return newRunner(opts)
}
