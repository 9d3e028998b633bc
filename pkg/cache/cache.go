package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/target365/sdk-go/pkg/keys"
)

// Entry is a resolved public key.
type Entry struct {
	KeyName       string
	Key           keys.KeyMaterial
	SignAlgorithm keys.Algorithm
	FetchedAt     time.Time
}

// PublicKeyCache maps key names to public keys. Entries are never evicted.
type PublicKeyCache struct {
	entries map[string]*Entry
	lock    sync.Mutex
}

// New returns an empty PublicKeyCache.
func New() *PublicKeyCache {
	return &PublicKeyCache{
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for keyName.
func (c *PublicKeyCache) Get(keyName string) (*Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.entries[keyName]
	return entry, ok
}

// Add stores entry unless an entry with the same name is already present, and returns the entry
// that ends up in the cache. When two goroutines fetch the same key concurrently, both observe the
// first stored entry.
func (c *PublicKeyCache) Add(entry *Entry) *Entry {
	c.lock.Lock()
	defer c.lock.Unlock()

	if existing, ok := c.entries[entry.KeyName]; ok {
		return existing
	}
	c.entries[entry.KeyName] = entry
	return entry
}

// Delete removes keyName from the cache, forcing the next lookup to fetch it again. This is used
// after a key has been rotated.
func (c *PublicKeyCache) Delete(keyName string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.entries, keyName)
}

// Clear removes all entries.
func (c *PublicKeyCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.entries = make(map[string]*Entry)
}

func (c *PublicKeyCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.entries)
}

// Names returns the cached key names in sorted order.
func (c *PublicKeyCache) Names() []string {
	c.lock.Lock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.lock.Unlock()

	sort.Strings(names)
	return names
}
