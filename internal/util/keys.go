package util

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// BulkKey returns a deterministic key for a set of scenario names: the
// prefix plus the first 16 hex chars of a hash over the sorted names.
// The input slice is not modified.
func BulkKey(prefix string, names []string) string {
	s := make([]string, len(names))
	copy(s, names)
	sort.Strings(s)
	joined := strings.Join(s, "\x00")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%s:%x", prefix, sum[:8])
}
