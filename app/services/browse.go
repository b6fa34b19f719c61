package services

import "sync"

// BrowseView is what the navigation returns: the current snapshot plus its
// 1-based position within the bucket.
type BrowseView struct {
	Product  Snapshot `json:"product"`
	Position int      `json:"position"`
	Total    int      `json:"total"`
}

// Browse tracks each user's position inside a (category, stone) bucket so a
// conversational client can step through products with prev/next. Positions
// are memory-only and are purged together with the user's cart.
type Browse struct {
	cache *CatalogCache

	mu        sync.Mutex
	positions map[int64]browsePos
}

type browsePos struct {
	bucket BucketKey
	idx    int
}

func NewBrowse(cache *CatalogCache) *Browse {
	return &Browse{cache: cache, positions: make(map[int64]browsePos)}
}

// Open positions user at the start of a bucket and returns the first view.
func (b *Browse) Open(user int64, key BucketKey) (BrowseView, error) {
	return b.moveTo(user, key, 0)
}

// At positions user at an explicit index inside the bucket.
func (b *Browse) At(user int64, key BucketKey, idx int) (BrowseView, error) {
	return b.moveTo(user, key, idx)
}

// Next advances user to the following product, wrapping at the end.
func (b *Browse) Next(user int64) (BrowseView, error) {
	return b.step(user, +1)
}

// Prev steps user back to the previous product, wrapping at the start.
func (b *Browse) Prev(user int64) (BrowseView, error) {
	return b.step(user, -1)
}

// Current re-reads the product at user's stored position. Useful after a
// cart mutation changed the visible stock.
func (b *Browse) Current(user int64) (BrowseView, error) {
	b.mu.Lock()
	pos, ok := b.positions[user]
	b.mu.Unlock()
	if !ok {
		return BrowseView{}, ErrNotFound
	}
	return b.moveTo(user, pos.bucket, pos.idx)
}

// PurgeUser forgets user's position. Wired as a cart purge hook.
func (b *Browse) PurgeUser(user int64) {
	b.mu.Lock()
	delete(b.positions, user)
	b.mu.Unlock()
}

func (b *Browse) step(user int64, delta int) (BrowseView, error) {
	b.mu.Lock()
	pos, ok := b.positions[user]
	b.mu.Unlock()
	if !ok {
		return BrowseView{}, ErrNotFound
	}

	_, total, _ := b.cache.ProductAt(pos.bucket, 0)
	if total == 0 {
		b.PurgeUser(user)
		return BrowseView{}, ErrNotFound
	}

	idx := (pos.idx + delta + total) % total
	return b.moveTo(user, pos.bucket, idx)
}

func (b *Browse) moveTo(user int64, key BucketKey, idx int) (BrowseView, error) {
	snap, total, ok := b.cache.ProductAt(key, idx)
	if !ok {
		// Products may have vanished; clamp into range if anything is left.
		if total == 0 {
			return BrowseView{}, ErrNotFound
		}
		idx = total - 1
		snap, total, _ = b.cache.ProductAt(key, idx)
	}

	b.mu.Lock()
	b.positions[user] = browsePos{bucket: key, idx: idx}
	b.mu.Unlock()

	return BrowseView{Product: snap, Position: idx + 1, Total: total}, nil
}
