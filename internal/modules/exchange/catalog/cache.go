package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/nutriplan-backend/internal/platform/ttlcache"
)

// Key identifies one catalog snapshot.
type Key struct {
	SystemID    string
	CountryCode string
	StateCode   string
}

func NewKey(systemID string, f Filter) Key {
	return Key{
		SystemID:    strings.TrimSpace(systemID),
		CountryCode: strings.ToUpper(strings.TrimSpace(f.CountryCode)),
		StateCode:   strings.ToUpper(strings.TrimSpace(f.StateCode)),
	}
}

func (k Key) String() string {
	return k.SystemID + "|" + k.CountryCode + "|" + k.StateCode
}

// Cache fronts catalog fetches. Entries are read-only snapshots: a miss
// re-fetches and replaces the entry, nothing mutates a cached value in place.
type Cache interface {
	Get(ctx context.Context, key Key) ([]FoodItem, bool)
	Put(ctx context.Context, key Key, items []FoodItem, at time.Time)
}

type memoryCache struct {
	store *ttlcache.Cache[string, []FoodItem]
}

// NewMemoryCache builds a process-local cache. Construct it once per process
// and pass it to the services that need it.
func NewMemoryCache(ttl time.Duration, clock ttlcache.Clock) Cache {
	return &memoryCache{store: ttlcache.New[string, []FoodItem](ttl, clock)}
}

func (c *memoryCache) Get(_ context.Context, key Key) ([]FoodItem, bool) {
	items, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return Clone(items), true
}

func (c *memoryCache) Put(_ context.Context, key Key, items []FoodItem, at time.Time) {
	c.store.Put(key.String(), Clone(items), at)
}

type noopCache struct{}

// NoopCache never stores anything.
func NoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, Key) ([]FoodItem, bool)     { return nil, false }
func (noopCache) Put(context.Context, Key, []FoodItem, time.Time) {}
