package document

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader produces a parsed document for a cache miss.
type Loader func() (*Document, error)

// Cache memoizes parsed documents by source identity (local path or
// absolute URL, never carrying a fragment). Entries are inserted lazily on
// first need and never evicted during a scan. The key space deliberately
// conflates the two namespaces; local paths never carry a URL scheme, so
// they cannot collide with URLs.
//
// Failed loads are not cached: a load error is returned to the caller and
// the next GetOrLoad for the same identity will try again. The verifier's
// own resolution cache is what prevents repeated probing of dead targets.
type Cache struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	group singleflight.Group
}

// NewCache creates an empty document cache.
func NewCache() *Cache {
	return &Cache{docs: make(map[string]*Document)}
}

// GetOrLoad returns the cached document for identity, invoking load on
// first use. Concurrent calls for one identity are collapsed to a single
// load.
func (c *Cache) GetOrLoad(identity string, load Loader) (*Document, error) {
	c.mu.RLock()
	doc, ok := c.docs[identity]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(identity, func() (any, error) {
		c.mu.RLock()
		doc, ok := c.docs[identity]
		c.mu.RUnlock()
		if ok {
			return doc, nil
		}

		loaded, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.docs[identity] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
