package gopals

import "time"

const (
	defaultNamespace     = "gopals"
	defaultTTL           = 7 * 24 * time.Hour
	defaultGenRetention  = 30 * 24 * time.Hour
	defaultSweep         = time.Hour
	defaultMaxRecordSize = 64 << 10
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
