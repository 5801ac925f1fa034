package dataframe

import (
	"container/list"
	"context"
	"sync"

	"datachat/domain/core"
	"datachat/domain/table"
	"datachat/ports"

	"golang.org/x/sync/singleflight"
)

// Cache is a bounded, process-local store of parsed frames keyed by dataset
// identity and file path. It is purely an optimization: source files are
// immutable once ingested, so an evicted entry is simply re-parsed on the
// next request. Concurrent misses for one key are coalesced into a single
// parse via singleflight.
type Cache struct {
	reader   ports.TableReader
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	group singleflight.Group
}

type cacheEntry struct {
	key   string
	frame *table.Frame
}

// NewCache creates a cache of the given capacity over the given reader
func NewCache(reader ports.TableReader, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		reader:   reader,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func cacheKey(datasetID core.ID, filePath string) string {
	return datasetID.String() + "|" + filePath
}

// Get returns the parsed frame for the dataset, reading and parsing the file
// on a miss. Returned frames are shared; callers treat them as read-only.
func (c *Cache) Get(ctx context.Context, datasetID core.ID, filePath string) (*table.Frame, error) {
	key := cacheKey(datasetID, filePath)

	if frame, ok := c.lookup(key); ok {
		return frame, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have populated the
		// entry between our miss and acquiring the flight.
		if frame, ok := c.lookup(key); ok {
			return frame, nil
		}

		frame, err := c.reader.Read(filePath)
		if err != nil {
			return nil, err
		}

		c.insert(key, frame)
		return frame, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*table.Frame), nil
}

// Invalidate drops the entry for a dataset, if present
func (c *Cache) Invalidate(datasetID core.ID, filePath string) {
	key := cacheKey(datasetID, filePath)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len returns the current number of cached frames
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (*table.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).frame, true
}

func (c *Cache) insert(key string, frame *table.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).frame = frame
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, frame: frame})

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
