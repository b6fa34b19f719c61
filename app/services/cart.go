package services

import (
	"sort"
	"sync"
	"time"

	"github.com/alenadem/stonecart/pkg/event"
	"github.com/alenadem/stonecart/pkg/logger"
	"github.com/alenadem/stonecart/pkg/metrics"
)

// CartLine is one cart position joined with its live catalog snapshot.
type CartLine struct {
	ProductID uint     `json:"product_id"`
	Title     string   `json:"title"`
	Price     int      `json:"price"`
	Qty       int      `json:"qty"`
	Photos    []string `json:"photos"`
}

// Cart is the reservation ledger. A cart line IS a stock reservation: units
// held here have already been subtracted from the catalog cache, so
// cache stock + cart reservations always equals the durable store stock.
//
// Carts live only in memory and expire lazily: every public operation first
// sweeps carts idle longer than the TTL, releasing their stock.
type Cart struct {
	cache *CatalogCache
	ttl   time.Duration
	now   func() time.Time

	// lock order is always cart before cache
	mu         sync.Mutex
	carts      map[int64]map[uint]int
	lastSeen   map[int64]time.Time
	purgeHooks []func(user int64)
}

func NewCart(cache *CatalogCache, ttl time.Duration) *Cart {
	return &Cart{
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		carts:    make(map[int64]map[uint]int),
		lastSeen: make(map[int64]time.Time),
	}
}

// WithClock replaces the time source. Test helper.
func (c *Cart) WithClock(now func() time.Time) *Cart {
	c.now = now
	return c
}

// OnPurge registers a hook fired (outside the cart lock) for every user whose
// cart expires. Checkout state and browse position are purged through this.
func (c *Cart) OnPurge(hook func(user int64)) {
	c.mu.Lock()
	c.purgeHooks = append(c.purgeHooks, hook)
	c.mu.Unlock()
}

// Add reserves qty units of pid for user. Fails with ErrInsufficientStock
// (nothing mutated) when the cache cannot cover the request.
func (c *Cart) Add(user int64, pid uint, qty int) error {
	c.mu.Lock()
	expired := c.sweepLocked()

	err := c.cache.ReserveStock(pid, qty)
	if err == nil {
		lines, ok := c.carts[user]
		if !ok {
			lines = make(map[uint]int)
			c.carts[user] = lines
		}
		lines[pid] += qty
		c.lastSeen[user] = c.now()
	}
	c.mu.Unlock()

	c.firePurge(expired)
	return err
}

// Decrement releases one unit of pid from user's cart. The last unit removes
// the line entirely.
func (c *Cart) Decrement(user int64, pid uint) error {
	c.mu.Lock()
	expired := c.sweepLocked()

	var err error
	lines, ok := c.carts[user]
	if !ok || lines[pid] == 0 {
		err = ErrNotFound
	} else {
		c.cache.ReleaseStock(pid, 1)
		lines[pid]--
		if lines[pid] == 0 {
			delete(lines, pid)
		}
		if len(lines) == 0 {
			delete(c.carts, user)
		}
		c.lastSeen[user] = c.now()
	}
	c.mu.Unlock()

	c.firePurge(expired)
	return err
}

// Remove drops the whole line for pid, releasing all its units.
func (c *Cart) Remove(user int64, pid uint) error {
	c.mu.Lock()
	expired := c.sweepLocked()

	var err error
	lines, ok := c.carts[user]
	if !ok || lines[pid] == 0 {
		err = ErrNotFound
	} else {
		c.cache.ReleaseStock(pid, lines[pid])
		delete(lines, pid)
		if len(lines) == 0 {
			delete(c.carts, user)
		}
		c.lastSeen[user] = c.now()
	}
	c.mu.Unlock()

	c.firePurge(expired)
	return err
}

// Clear drops user's entire cart. With restoreStock the reserved units go
// back to the cache (user abandoned the cart); without it they do not
// (settlement already consumed them durably).
func (c *Cart) Clear(user int64, restoreStock bool) {
	c.mu.Lock()
	expired := c.sweepLocked()

	if lines, ok := c.carts[user]; ok {
		if restoreStock {
			for pid, qty := range lines {
				c.cache.ReleaseStock(pid, qty)
			}
		}
		delete(c.carts, user)
		delete(c.lastSeen, user)
	}
	c.mu.Unlock()

	c.firePurge(expired)
}

// DropProduct removes pid from every cart without restoring stock. Run after
// a product deletion so no ledger line references a dead id.
func (c *Cart) DropProduct(pid uint) {
	c.mu.Lock()
	for user, lines := range c.carts {
		if _, ok := lines[pid]; ok {
			delete(lines, pid)
			if len(lines) == 0 {
				delete(c.carts, user)
				delete(c.lastSeen, user)
			}
		}
	}
	c.mu.Unlock()
}

// Items returns a copy of user's lines (pid → qty).
func (c *Cart) Items(user int64) map[uint]int {
	c.mu.Lock()
	expired := c.sweepLocked()

	out := make(map[uint]int, len(c.carts[user]))
	for pid, qty := range c.carts[user] {
		out[pid] = qty
	}
	c.mu.Unlock()

	c.firePurge(expired)
	return out
}

// Lines returns user's cart joined with catalog snapshots, sorted by
// product id. Lines whose product vanished from the cache are skipped.
func (c *Cart) Lines(user int64) []CartLine {
	items := c.Items(user)

	pids := make([]uint, 0, len(items))
	for pid := range items {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	out := make([]CartLine, 0, len(pids))
	for _, pid := range pids {
		snap, ok := c.cache.Product(pid)
		if !ok {
			continue
		}
		out = append(out, CartLine{
			ProductID: pid,
			Title:     snap.Title,
			Price:     snap.Price,
			Qty:       items[pid],
			Photos:    snap.Photos,
		})
	}
	return out
}

// Total returns the number of units and the sum price of user's cart.
func (c *Cart) Total(user int64) (units, total int) {
	for _, line := range c.Lines(user) {
		units += line.Qty
		total += line.Price * line.Qty
	}
	return units, total
}

// sweepLocked expires idle carts and returns the affected users.
// Caller holds c.mu; purge hooks must be fired after the lock is released.
func (c *Cart) sweepLocked() []int64 {
	cutoff := c.now().Add(-c.ttl)

	var expired []int64
	for user, seen := range c.lastSeen {
		if seen.After(cutoff) {
			continue
		}
		for pid, qty := range c.carts[user] {
			c.cache.ReleaseStock(pid, qty)
		}
		delete(c.carts, user)
		delete(c.lastSeen, user)
		expired = append(expired, user)
	}

	if len(expired) > 0 {
		metrics.CartExpirations.Add(float64(len(expired)))
		logger.Info("cart: expired stale carts", "users", len(expired))
	}
	return expired
}

func (c *Cart) firePurge(users []int64) {
	if len(users) == 0 {
		return
	}
	c.mu.Lock()
	hooks := make([]func(int64), len(c.purgeHooks))
	copy(hooks, c.purgeHooks)
	c.mu.Unlock()

	for _, user := range users {
		for _, hook := range hooks {
			hook(user)
		}
		event.Fire(event.CartExpired, user)
	}
}
