// Package kv provides the backing stores for hierarchical persona
// memory: a Redis-backed primary, a bounded in-process fallback, and a
// resilient wrapper that degrades to the fallback whenever the primary
// is unreachable.
package kv

import "errors"

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("key not found")
