package cache

import (
	"image"
	"sync"
)

// DefaultBudget is the aggregate bitmap budget, 64 MiB.
const DefaultBudget = 64 * 1024 * 1024

// Key identifies one rendered bitmap. Doc captures the source file identity
// (size plus modification time), so replacing a drawing file invalidates its
// entries even when the replacement happens to be the same size.
type Key struct {
	Doc   DocID
	Page  int
	Width int
}

// DocID is a coarse identity stamp for a drawing file on disk.
type DocID struct {
	Size    int64
	ModTime int64
}

// BitmapCache is a least-recently-used cache of rendered page bitmaps,
// bounded by total pixel-buffer bytes rather than entry count. Safe for
// concurrent use.
type BitmapCache struct {
	mu          sync.Mutex
	budget      int64
	size        int64
	entries     map[Key]*entry
	first, last *entry

	hits, misses int64
}

type entry struct {
	prev, next *entry
	key        Key
	img        *image.RGBA
	cost       int64
}

// New creates a cache with the given byte budget. Budgets <= 0 fall back to
// DefaultBudget.
func New(budget int64) *BitmapCache {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &BitmapCache{
		budget:  budget,
		entries: make(map[Key]*entry),
	}
}

// Get returns a cached bitmap and marks it as recently used.
func (c *BitmapCache) Get(key Key) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	c.moveToFront(ent)
	return ent.img, true
}

// Put stores a bitmap, evicting least-recently-used entries until the byte
// budget is met again. A bitmap larger than the whole budget is not stored
// at all; letting it in would flush every other entry for a value that can
// never be retained.
func (c *BitmapCache) Put(key Key, img *image.RGBA) {
	if img == nil {
		return
	}
	cost := int64(len(img.Pix))
	if cost > c.budget {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.size += cost - ent.cost
		ent.img = img
		ent.cost = cost
		c.moveToFront(ent)
	} else {
		ent := &entry{key: key, img: img, cost: cost}
		c.entries[key] = ent
		c.size += cost
		c.moveToFront(ent)
	}

	for c.size > c.budget {
		c.removeLast()
	}
}

// Len returns the number of cached bitmaps.
func (c *BitmapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the total bytes held.
func (c *BitmapCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cumulative hit and miss counters.
func (c *BitmapCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Purge drops every entry.
func (c *BitmapCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*entry)
	c.first, c.last = nil, nil
	c.size = 0
}

func (c *BitmapCache) moveToFront(ent *entry) {
	if ent == c.first {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == c.last {
		c.last = ent.prev
	}

	ent.prev = nil
	ent.next = c.first
	if c.first != nil {
		c.first.prev = ent
	}
	c.first = ent
	if c.last == nil {
		c.last = ent
	}
}

func (c *BitmapCache) removeLast() {
	if c.last == nil {
		return
	}

	delete(c.entries, c.last.key)
	c.size -= c.last.cost
	if c.last.prev != nil {
		c.last.prev.next = nil
	}
	c.last = c.last.prev
	if c.last == nil {
		c.first = nil
	}
}
