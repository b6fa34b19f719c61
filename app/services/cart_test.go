package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alenadem/stonecart/app/services"
)

const (
	userA int64 = 1001
	userB int64 = 1002
)

func newCartFixture(t *testing.T) (*services.CatalogCache, *services.Cart, *fakeSource) {
	t.Helper()
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))
	cart := services.NewCart(cache, 12*time.Hour)
	return cache, cart, src
}

func cachedStock(t *testing.T, cache *services.CatalogCache, pid uint) int {
	t.Helper()
	snap, ok := cache.Product(pid)
	require.True(t, ok)
	return snap.Stock
}

// Two buyers compete for five units: the cache enforces that reservations
// never exceed stock, and releases restore exactly what was reserved.
func TestConcurrentReservationScenario(t *testing.T) {
	cache, cart, _ := newCartFixture(t)

	// Product 101 starts with stock 5. A takes 3.
	require.NoError(t, cart.Add(userA, 101, 3))
	assert.Equal(t, 2, cachedStock(t, cache, 101))

	// B cannot take 3 (only 2 visible), state unchanged.
	err := cart.Add(userB, 101, 3)
	assert.True(t, errors.Is(err, services.ErrInsufficientStock))
	assert.Equal(t, 2, cachedStock(t, cache, 101))
	assert.Empty(t, cart.Items(userB))

	// B takes the remaining 2.
	require.NoError(t, cart.Add(userB, 101, 2))
	assert.Equal(t, 0, cachedStock(t, cache, 101))

	// A gives one unit back; it becomes visible again.
	require.NoError(t, cart.Decrement(userA, 101))
	assert.Equal(t, 1, cachedStock(t, cache, 101))
	assert.Equal(t, map[uint]int{101: 2}, cart.Items(userA))
}

func TestDecrementLastUnitRemovesLine(t *testing.T) {
	_, cart, _ := newCartFixture(t)

	require.NoError(t, cart.Add(userA, 201, 1))
	require.NoError(t, cart.Decrement(userA, 201))

	assert.Empty(t, cart.Items(userA))
	err := cart.Decrement(userA, 201)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestRemoveReleasesWholeLine(t *testing.T) {
	cache, cart, _ := newCartFixture(t)

	require.NoError(t, cart.Add(userA, 101, 4))
	require.NoError(t, cart.Remove(userA, 101))

	assert.Equal(t, 5, cachedStock(t, cache, 101))
	assert.Empty(t, cart.Items(userA))
}

func TestClearRestoreSemantics(t *testing.T) {
	cache, cart, _ := newCartFixture(t)

	require.NoError(t, cart.Add(userA, 101, 2))
	require.NoError(t, cart.Add(userA, 201, 1))

	cart.Clear(userA, true)
	assert.Equal(t, 5, cachedStock(t, cache, 101))
	assert.Equal(t, 2, cachedStock(t, cache, 201))

	// Without restore the reservation is consumed, not returned.
	require.NoError(t, cart.Add(userB, 101, 2))
	cart.Clear(userB, false)
	assert.Equal(t, 3, cachedStock(t, cache, 101))
	assert.Empty(t, cart.Items(userB))
}

func TestTTLExpiryReleasesStockAndFiresHooks(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cart := services.NewCart(cache, 12*time.Hour).WithClock(func() time.Time { return now })

	var purged []int64
	cart.OnPurge(func(user int64) { purged = append(purged, user) })

	require.NoError(t, cart.Add(userA, 101, 3))
	assert.Equal(t, 2, cachedStock(t, cache, 101))

	// 11 hours later the cart is still alive.
	now = now.Add(11 * time.Hour)
	assert.Equal(t, map[uint]int{101: 3}, cart.Items(userA))

	// Activity refreshed the deadline; 11 more hours is still within TTL.
	now = now.Add(11 * time.Hour)
	assert.Equal(t, map[uint]int{101: 3}, cart.Items(userA))

	// Past the TTL with no activity: stock comes back, hooks fire.
	now = now.Add(13 * time.Hour)
	assert.Empty(t, cart.Items(userA))
	assert.Equal(t, 5, cachedStock(t, cache, 101))
	assert.Equal(t, []int64{userA}, purged)
}

func TestDropProductDoesNotRestoreStock(t *testing.T) {
	cache, cart, _ := newCartFixture(t)

	require.NoError(t, cart.Add(userA, 101, 2))
	require.NoError(t, cart.Add(userB, 101, 1))

	cache.DeleteOne(101)
	cart.DropProduct(101)

	assert.Empty(t, cart.Items(userA))
	assert.Empty(t, cart.Items(userB))
	_, ok := cache.Product(101)
	assert.False(t, ok)
}

func TestLinesJoinsCatalogData(t *testing.T) {
	_, cart, _ := newCartFixture(t)

	require.NoError(t, cart.Add(userA, 201, 1))
	require.NoError(t, cart.Add(userA, 101, 2))

	lines := cart.Lines(userA)
	require.Len(t, lines, 2)
	assert.Equal(t, uint(101), lines[0].ProductID) // sorted by product id
	assert.Equal(t, "Браслет «Аметист люкс»", lines[0].Title)
	assert.Equal(t, 2, lines[0].Qty)

	units, total := cart.Total(userA)
	assert.Equal(t, 3, units)
	assert.Equal(t, 2*3500+5200, total)
}
