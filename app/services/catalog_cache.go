package services

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/pkg/logger"
	"github.com/alenadem/stonecart/pkg/metrics"
)

// BucketKey addresses one (category, stone) browsing bucket by machine codes.
type BucketKey struct {
	Category string
	Stone    string
}

// Snapshot is the cache's shadow copy of one product. Stock here is the
// durable stock minus all live cart reservations; decrementing it IS the
// reservation. All other fields mirror the store row.
type Snapshot struct {
	ID          uint
	Title       string
	Price       int
	Stock       int
	Description string
	Photos      []string
}

type cacheEntry struct {
	snap   Snapshot
	bucket BucketKey
}

// CatalogSource is the slice of the repository the cache reads from.
type CatalogSource interface {
	LoadAll() ([]models.Category, []models.Stone, []models.Product, error)
	GetProduct(id uint) (models.Product, error)
}

// CatalogCache is the dual-indexed in-memory catalog. One product appears in
// exactly one bucket and in the id index; the two views are kept consistent
// because every mutation goes through UpsertOne, DeleteOne or RefreshOne.
//
// A single RWMutex guards everything, which also serializes reservations
// against refreshes so a concurrent ReserveStock can never be overwritten by
// a stale RefreshOne read.
type CatalogCache struct {
	mu sync.RWMutex

	byID    map[uint]*cacheEntry
	buckets map[BucketKey][]*cacheEntry // slices keep insertion order

	categoryNames  map[string]string // code → display name
	stoneNames     map[string]string
	categoryCodes  map[uint]string // id → code
	stoneCodes     map[uint]string
	categoryOrder  []string // codes in load/registration order
	stoneOrder     []string
}

func NewCatalogCache() *CatalogCache {
	c := &CatalogCache{}
	c.resetLocked()
	return c
}

func (c *CatalogCache) resetLocked() {
	c.byID = make(map[uint]*cacheEntry)
	c.buckets = make(map[BucketKey][]*cacheEntry)
	c.categoryNames = make(map[string]string)
	c.stoneNames = make(map[string]string)
	c.categoryCodes = make(map[uint]string)
	c.stoneCodes = make(map[uint]string)
	c.categoryOrder = nil
	c.stoneOrder = nil
}

// Load wipes the cache and rebuilds it from the store. Products whose
// category or stone reference does not resolve are skipped and logged.
func (c *CatalogCache) Load(src CatalogSource) error {
	categories, stones, products, err := src.LoadAll()
	if err != nil {
		return fmt.Errorf("services: catalog load: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()

	for _, cat := range categories {
		c.registerCategoryLocked(cat)
	}
	for _, st := range stones {
		c.registerStoneLocked(st)
	}

	skipped := 0
	for _, p := range products {
		catCode, okCat := c.categoryCodes[p.CategoryID]
		stoneCode, okStone := c.stoneCodes[p.StoneID]
		if !okCat || !okStone {
			skipped++
			logger.Warn("catalog: skipping product with dangling reference",
				"product_id", p.ID, "category_id", p.CategoryID, "stone_id", p.StoneID)
			continue
		}
		c.upsertLocked(BucketKey{Category: catCode, Stone: stoneCode}, snapshotOf(p))
	}

	metrics.CatalogReloads.Inc()
	logger.Info("catalog: cache loaded",
		"categories", len(categories), "stones", len(stones),
		"products", len(products)-skipped, "skipped", skipped)
	return nil
}

// RegisterCategory makes a category created after Load addressable in the
// cache (labels and id → code mapping).
func (c *CatalogCache) RegisterCategory(cat models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerCategoryLocked(cat)
}

// RegisterStone is the stone twin of RegisterCategory.
func (c *CatalogCache) RegisterStone(st models.Stone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerStoneLocked(st)
}

func (c *CatalogCache) registerCategoryLocked(cat models.Category) {
	if _, ok := c.categoryNames[cat.Code]; !ok {
		c.categoryOrder = append(c.categoryOrder, cat.Code)
	}
	c.categoryNames[cat.Code] = cat.Name
	c.categoryCodes[cat.ID] = cat.Code
}

func (c *CatalogCache) registerStoneLocked(st models.Stone) {
	if _, ok := c.stoneNames[st.Code]; !ok {
		c.stoneOrder = append(c.stoneOrder, st.Code)
	}
	c.stoneNames[st.Code] = st.Name
	c.stoneCodes[st.ID] = st.Code
}

// UpsertOne inserts or replaces a single product snapshot. On replace the
// bucket position is preserved unless the bucket itself changed.
func (c *CatalogCache) UpsertOne(key BucketKey, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(key, snap)
}

func (c *CatalogCache) upsertLocked(key BucketKey, snap Snapshot) {
	if old, ok := c.byID[snap.ID]; ok {
		if old.bucket == key {
			old.snap = snap
			return
		}
		c.removeFromBucketLocked(old)
	}
	e := &cacheEntry{snap: snap, bucket: key}
	c.byID[snap.ID] = e
	c.buckets[key] = append(c.buckets[key], e)
}

// DeleteOne drops a product from both indexes. Unknown ids are a no-op.
func (c *CatalogCache) DeleteOne(pid uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byID[pid]
	if !ok {
		return
	}
	delete(c.byID, pid)
	c.removeFromBucketLocked(e)
}

func (c *CatalogCache) removeFromBucketLocked(e *cacheEntry) {
	entries := c.buckets[e.bucket]
	for i, cur := range entries {
		if cur == e {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(c.buckets, e.bucket)
	} else {
		c.buckets[e.bucket] = entries
	}
}

// RefreshOne re-reads one product from the store and replaces its snapshot.
// A row that no longer exists (or dangles) is removed from the cache instead.
// This is the single reconciliation primitive every admin mutation and every
// settlement ends with.
func (c *CatalogCache) RefreshOne(src CatalogSource, pid uint) error {
	p, err := src.GetProduct(pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.DeleteOne(pid)
			metrics.CatalogRefreshes.Inc()
			return nil
		}
		return fmt.Errorf("services: refresh product %d: %w", pid, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	catCode, okCat := c.categoryCodes[p.CategoryID]
	stoneCode, okStone := c.stoneCodes[p.StoneID]
	if !okCat || !okStone {
		logger.Warn("catalog: refresh found dangling reference, dropping",
			"product_id", pid)
		if e, ok := c.byID[pid]; ok {
			delete(c.byID, pid)
			c.removeFromBucketLocked(e)
		}
		return nil
	}

	c.upsertLocked(BucketKey{Category: catCode, Stone: stoneCode}, snapshotOf(p))
	metrics.CatalogRefreshes.Inc()
	return nil
}

// ─── Stock mutators ───────────────────────────────────────────────────────────

// ReserveStock checks and decrements cached stock in one critical section.
// On shortfall nothing is mutated and ErrInsufficientStock is returned.
func (c *CatalogCache) ReserveStock(pid uint, qty int) error {
	if qty <= 0 {
		return &ValidationError{Field: "qty", Reason: "must be positive"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byID[pid]
	if !ok {
		return ErrNotFound
	}
	if e.snap.Stock < qty {
		metrics.ReservationsTotal.WithLabelValues("insufficient_stock").Inc()
		return ErrInsufficientStock
	}
	e.snap.Stock -= qty
	metrics.ReservationsTotal.WithLabelValues("ok").Inc()
	return nil
}

// ReleaseStock returns previously reserved units to the cached stock.
// Unknown ids are a no-op (the product may have been deleted meanwhile).
func (c *CatalogCache) ReleaseStock(pid uint, qty int) {
	if qty <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[pid]; ok {
		e.snap.Stock += qty
	}
}

// ─── Readers ─────────────────────────────────────────────────────────────────
// All readers return copies; internal entries never escape the lock.

// Product returns the snapshot for pid.
func (c *CatalogCache) Product(pid uint) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byID[pid]
	if !ok {
		return Snapshot{}, false
	}
	return copySnap(e.snap), true
}

// Bucket returns all snapshots in the bucket, in insertion order.
func (c *CatalogCache) Bucket(key BucketKey) []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := c.buckets[key]
	out := make([]Snapshot, len(entries))
	for i, e := range entries {
		out[i] = copySnap(e.snap)
	}
	return out
}

// ProductAt returns the idx-th snapshot of the bucket plus the bucket size.
func (c *CatalogCache) ProductAt(key BucketKey, idx int) (Snapshot, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := c.buckets[key]
	if idx < 0 || idx >= len(entries) {
		return Snapshot{}, len(entries), false
	}
	return copySnap(entries[idx].snap), len(entries), true
}

// Categories returns category codes in load order.
func (c *CatalogCache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.categoryOrder...)
}

// StonesFor returns the stone codes that have a non-empty bucket under the
// given category, in stone load order.
func (c *CatalogCache) StonesFor(category string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, stone := range c.stoneOrder {
		if len(c.buckets[BucketKey{Category: category, Stone: stone}]) > 0 {
			out = append(out, stone)
		}
	}
	return out
}

// CategoryName resolves a category code to its display name.
func (c *CatalogCache) CategoryName(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.categoryNames[code]
	return name, ok
}

// StoneName resolves a stone code to its display name.
func (c *CatalogCache) StoneName(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.stoneNames[code]
	return name, ok
}

// Len returns the number of cached products.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func snapshotOf(p models.Product) Snapshot {
	return Snapshot{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Stock:       p.Stock,
		Description: p.Description,
		Photos:      append([]string(nil), p.Photos...),
	}
}

func copySnap(s Snapshot) Snapshot {
	s.Photos = append([]string(nil), s.Photos...)
	return s
}
