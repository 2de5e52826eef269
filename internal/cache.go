package internal

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	tt "github.com/gnolang/tcheck/internal/types"
)

type CacheEntry struct {
	Hash         string
	Checker      *tt.CheckerFile
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache keeps parsed checker files keyed by path. An entry is only reused
// while the file content hashes the same.
type Cache struct {
	entries map[string]CacheEntry
	mutex   sync.Mutex
	maxAge  time.Duration
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]CacheEntry)}
}

func (c *Cache) Set(filename string, content []byte, checker *tt.CheckerFile) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[filename] = CacheEntry{
		Hash:         contentHash(content),
		Checker:      checker,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

func (c *Cache) Get(filename string, content []byte) (*tt.CheckerFile, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(entry, content) {
		delete(c.entries, filename)
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry

	return entry.Checker, true
}

func (c *Cache) isEntryInvalid(entry CacheEntry, content []byte) bool {
	// zero max age keeps entries forever
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	return entry.Hash != contentHash(content)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

func contentHash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}

// Files lists the cached file names.
func (c *Cache) Files() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	files := make([]string, 0, len(c.entries))
	for f := range c.entries {
		files = append(files, f)
	}
	return files
}
