package cache

// Recorder receives per-lookup results. The metrics package implements it;
// an uninstrumented cache keeps its own counters only.
type Recorder interface {
	CountCache(cache, result string)
}

// Health is the probe shape surfaced by the system health endpoint.
type Health struct {
	Connected  bool   `json:"connected"`
	MemoryUsed string `json:"memoryUsed,omitempty"`
	KeyCount   int64  `json:"keyCount"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
}
