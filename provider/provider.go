// Package provider defines the byte store gopals keeps run history in.
//
// Stores must hand back exactly the bytes they were given: no added metadata,
// no re-encoding. Anything a store does internally (compression, sharding)
// has to be invisible to Get.
//
// The keyspaces "result:<ns>:" and "run:<ns>:" belong to gopals. Values
// written there by anything else fail wire validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl (<= 0 means no expiry where supported).
	// cost may be ignored. ok=false means the write was rejected under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key; missing keys are not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
