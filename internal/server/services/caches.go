package services

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/cache"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

const (
	catalogAll  = "all"
	catalogShop = "shop"
)

// CacheTTLs is the lifetime of a cached copy per entity class.
type CacheTTLs struct {
	User      time.Duration
	Item      time.Duration
	Shop      time.Duration
	Inventory time.Duration
}

// Caches holds the read-through caches shared by the services. Cached values
// are never handed out directly: readers get clones.
type Caches struct {
	users     *cache.Cache[*models.User]
	items     *cache.Cache[*models.Item]
	catalogs  *cache.Cache[[]*models.Item]
	inventory *cache.Cache[[]*models.InventoryEntry]
	ttl       CacheTTLs
}

func NewCaches(ttl CacheTTLs) *Caches {
	return &Caches{
		users:     cache.New[*models.User](cache.DefaultCleanupInterval),
		items:     cache.New[*models.Item](cache.DefaultCleanupInterval),
		catalogs:  cache.New[[]*models.Item](cache.DefaultCleanupInterval),
		inventory: cache.New[[]*models.InventoryEntry](cache.DefaultCleanupInterval),
		ttl:       ttl,
	}
}

func itemKey(id int64) string { return strconv.FormatInt(id, 10) }

func (c *Caches) InvalidateUser(ids ...string) {
	for _, id := range ids {
		c.users.Invalidate(id)
	}
}

func (c *Caches) InvalidateInventory(userIDs ...string) {
	for _, id := range userIDs {
		c.inventory.Invalidate(id)
	}
}

// InvalidateItem drops the single-item key and both aggregate listings.
func (c *Caches) InvalidateItem(id int64) {
	c.items.Invalidate(itemKey(id))
	c.catalogs.Invalidate(catalogAll)
	c.catalogs.Invalidate(catalogShop)
}

// Clear flushes every cache. Always safe: the store is the source of truth.
func (c *Caches) Clear() {
	c.users.Clear()
	c.items.Clear()
	c.catalogs.Clear()
	c.inventory.Clear()
}

// readThrough serves key from c, loading and publishing it on a miss. A
// value loaded across a concurrent invalidation is returned but not cached.
func readThrough[V any](c *cache.Cache[V], key string, ttl time.Duration, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	stamp := c.Stamp(key)
	v, err := load()
	if err != nil {
		return v, err
	}
	c.SetIfStamp(key, v, ttl, stamp)
	return v, nil
}

func cloneItems(in []*models.Item) []*models.Item {
	out := make([]*models.Item, len(in))
	for i, it := range in {
		c := *it
		out[i] = &c
	}
	return out
}

func cloneEntries(in []*models.InventoryEntry) []*models.InventoryEntry {
	out := make([]*models.InventoryEntry, len(in))
	for i, e := range in {
		c := *e
		out[i] = &c
	}
	return out
}
