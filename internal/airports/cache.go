package airports

import "sync"

// Cache holds airport metadata already fetched this session.
type Cache struct {
	mu       sync.RWMutex
	airports map[string]*AirportInfo
}

// NewCache creates an empty metadata cache
func NewCache() *Cache {
	return &Cache{airports: make(map[string]*AirportInfo)}
}

// Get returns the cached metadata for an ICAO code, if present
func (c *Cache) Get(icao string) (*AirportInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.airports[icao]
	return info, ok
}

// Set stores metadata for an ICAO code
func (c *Cache) Set(icao string, info *AirportInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.airports[icao] = info
}
