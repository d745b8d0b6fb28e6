// Package buffer implements a bounded LRU buffer pool over storage.Page
// values, writing dirty evictees back through a storage.DiskManager.
package buffer

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emberql/ember/storage"
)

// Pool is a bounded cache of resident pages keyed by page id, evicting
// least-recently-used entries once it exceeds its capacity.
type Pool struct {
	mu      sync.Mutex
	cache   *lru.Cache[int32, *storage.Page]
	dm      *storage.DiskManager
	maxSize int

	// evictErr captures a flush failure observed inside the eviction
	// callback, which itself cannot return an error to the caller of Add.
	evictErr error
}

// New creates a Pool of the given capacity backed by dm.
func New(dm *storage.DiskManager, maxPages int) (*Pool, error) {
	if maxPages <= 0 {
		maxPages = 1000
	}
	pool := &Pool{dm: dm, maxSize: maxPages}

	c, err := lru.NewWithEvict(maxPages, pool.onEvict)
	if err != nil {
		return nil, fmt.Errorf("buffer: create LRU cache: %w", err)
	}
	pool.cache = c
	return pool, nil
}

func (p *Pool) onEvict(_ int32, page *storage.Page) {
	if !page.Dirty() {
		return
	}
	if err := p.dm.WritePage(page); err != nil && p.evictErr == nil {
		p.evictErr = err
	}
}

// GetPage returns the page with the given id, creating a fresh empty page
// on a disk miss. The returned page is the pool's resident copy; mutate
// it in place and it will be flushed on eviction.
func (p *Pool) GetPage(pageID int32) (*storage.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if page, ok := p.cache.Get(pageID); ok {
		return page, nil
	}

	page, err := p.dm.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = storage.NewPage(pageID)
	}
	p.cache.Add(pageID, page)
	if p.evictErr != nil {
		err, p.evictErr = p.evictErr, nil
		return nil, err
	}
	return page, nil
}

// AllocatePage asks the disk manager for a new page and registers it as
// resident in the pool, evicting if necessary.
func (p *Pool) AllocatePage() (*storage.Page, error) {
	page, err := p.dm.AllocateNewPage()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Add(page.ID, page)
	if p.evictErr != nil {
		err, p.evictErr = p.evictErr, nil
		return nil, err
	}
	return page, nil
}

// FlushPage writes the page back through the disk manager if it is
// resident and dirty.
func (p *Pool) FlushPage(pageID int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, ok := p.cache.Peek(pageID)
	if !ok || !page.Dirty() {
		return nil
	}
	return p.dm.WritePage(page)
}

// FlushAll writes every dirty resident page back through the disk
// manager.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.cache.Keys() {
		page, ok := p.cache.Peek(id)
		if !ok || !page.Dirty() {
			continue
		}
		if err := p.dm.WritePage(page); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of pages currently resident, honoring property
// 4 (the buffer pool bound |resident pages| <= max_pages).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Len()
}
