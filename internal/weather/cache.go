package weather

import "sync"

// Cache holds raw METAR text per station for the process lifetime.
// A single resolution only ever fetches a handful of stations, so
// entries never expire.
type Cache struct {
	mu      sync.RWMutex
	reports map[string]string
}

// NewCache creates an empty METAR cache
func NewCache() *Cache {
	return &Cache{reports: make(map[string]string)}
}

// Get returns the cached report for a station, if any
func (c *Cache) Get(station string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.reports[station]
	return raw, ok
}

// Set stores the report for a station
func (c *Cache) Set(station, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[station] = raw
}
