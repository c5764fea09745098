package sfc

import (
	"encoding/json"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	cacheEntries = 500
	cacheSize    = 5000
)

// cacheKey length-prefixes the source so no source and option pair can
// collide with another
func cacheKey(source string, options Options) string {
	return strconv.Itoa(len(source)) + ":" + source + "\x00" +
		strconv.FormatBool(options.SourceMap) + "\x00" +
		options.Filename + "\x00" +
		options.SourceRoot + "\x00" +
		options.Pad + "\x00" +
		strconv.FormatBool(options.IgnoreEmpty)
}

type cacheEntry struct {
	result *Result
	size   int
}

// cache is a least-recently-used cache bounded by both the number of
// entries and the total size of the entries
type cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, cacheEntry]
	size    int
	maxSize int
}

func newCache(entries, maxSize int) *cache {
	c := &cache{maxSize: maxSize}
	l, err := lru.NewWithEvict(entries, func(_ string, entry cacheEntry) {
		c.size -= entry.size
	})
	if err != nil {
		// Only fails for non-positive sizes
		panic(err)
	}
	c.lru = l
	return c
}

// Get returns a copy of the cached result
func (c *cache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return entry.result.clone(), true
}

// Add a copy of the result. Results larger than the whole budget are not
// cached.
func (c *cache) Add(key string, result *Result) {
	size := resultSize(result)
	if size > c.maxSize {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Removing calls the eviction callback which releases the old size
	c.lru.Remove(key)
	c.lru.Add(key, cacheEntry{result.clone(), size})
	c.size += size
	for c.size > c.maxSize {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Len is the number of cached results
func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func resultSize(result *Result) int {
	out, err := json.Marshal(result)
	if err != nil {
		return 0
	}
	return len(out)
}

func (r *Result) clone() *Result {
	return &Result{
		Descriptor: r.Descriptor.clone(),
		Errors:     append([]error{}, r.Errors...),
	}
}
