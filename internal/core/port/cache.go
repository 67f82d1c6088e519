package port

import "time"

// Cache is the short-TTL serving cache. Races on fill are acceptable:
// last writer wins and the TTL bounds staleness, so implementations need
// no single-flight machinery.
type Cache interface {
	// Get returns the cached payload for key, or false when absent or
	// expired.
	Get(key string) ([]AdPayload, bool)

	// Set stores the payload under key for ttl.
	Set(key string, ads []AdPayload, ttl time.Duration)
}
