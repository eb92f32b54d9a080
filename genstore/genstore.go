// Package genstore numbers the runs of each scenario. A stored result is
// only trusted while its run number is the scenario's current one, so
// starting a new run invalidates every older record of that scenario.
package genstore

import "context"

// GenStore holds one run counter per scenario name. LocalGenStore lives and
// dies with the process; RedisGenStore is shared by every process pointed at
// the same Redis and namespace.
type GenStore interface {
	// Current returns the latest run number; a scenario never run reads 0.
	Current(ctx context.Context, scenario string) (uint64, error)
	// CurrentMany is Current for a set of scenarios.
	CurrentMany(ctx context.Context, scenarios []string) (map[string]uint64, error)
	// Next starts a new run and returns its number (1 for the first run).
	Next(ctx context.Context, scenario string) (uint64, error)
	Close(context.Context) error
}
