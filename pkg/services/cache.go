package services

import (
	"strings"
	"sync"

	"tibiawiki-api/pkg/infobox"
)

type cachedRecord struct {
	revID  int64
	record *infobox.Record
}

// Cache keeps parsed records per article revision and category listings.
// A record entry is only served for the revision it was parsed from.
type Cache struct {
	mu      sync.Mutex
	records map[string]cachedRecord
	names   map[string][]string
}

func NewCache() *Cache {
	return &Cache{
		records: make(map[string]cachedRecord),
		names:   make(map[string][]string),
	}
}

func recordKey(template, title string) string {
	return template + "\x00" + title
}

// Record returns the record parsed from revision revID of title.
func (c *Cache) Record(template, title string, revID int64) (*infobox.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.records[recordKey(template, title)]
	if !ok || e.revID != revID {
		return nil, false
	}
	return e.record, true
}

func (c *Cache) StoreRecord(template, title string, revID int64, rec *infobox.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[recordKey(template, title)] = cachedRecord{revID: revID, record: rec}
}

// Names returns a cached category listing.
func (c *Cache) Names(category string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names, ok := c.names[category]
	return names, ok
}

func (c *Cache) StoreNames(category string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[category] = names
}

// Invalidate drops every record cached for title.
func (c *Cache) Invalidate(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	suffix := "\x00" + title
	for k := range c.records {
		if strings.HasSuffix(k, suffix) {
			delete(c.records, k)
		}
	}
}

// InvalidateCache drops everything.
func (c *Cache) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]cachedRecord)
	c.names = make(map[string][]string)
}
