// Package abi manages the memory regions the host borrows from the module's
// linear memory.
//
// The host calls the exported allocate to obtain a region, writes the
// request into it, and hands it back with release once it is done. Regions
// are pinned in a table keyed by address so the Go garbage collector cannot
// reclaim them while the host holds them.
package abi

import (
	"fmt"
	"sync"
)

// DefaultMaxTotalAllocations bounds the bytes pinned at any one time.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MiB

// Option configures the memory manager.
type Option func(*config)

type config struct {
	maxTotalAllocations int
}

// WithMaxTotalAllocations sets the ceiling on pinned bytes. Values that are
// not positive are ignored.
func WithMaxTotalAllocations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTotalAllocations = n
		}
	}
}

// Configure applies opts to the memory manager. Call it before the host
// starts allocating.
func Configure(opts ...Option) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	cfg := config{maxTotalAllocations: memoryManager.limit}
	for _, opt := range opts {
		opt(&cfg)
	}
	memoryManager.limit = cfg.maxTotalAllocations
}

type manager struct {
	sync.Mutex
	regions map[uint32][]byte // address -> pinned slice
	total   int
	limit   int
}

var memoryManager = newManager()

func newManager() *manager {
	return &manager{
		regions: make(map[uint32][]byte),
		limit:   DefaultMaxTotalAllocations,
	}
}

// reserve pins a new region of size bytes and returns its address as
// computed by addressOf. A zero size returns 0. Exceeding the ceiling
// panics: there is no error path back to the host for allocation failure.
func (m *manager) reserve(size uint32, addressOf func([]byte) uint32) uint32 {
	if size == 0 {
		return 0
	}

	m.Lock()
	defer m.Unlock()

	if m.total+int(size) > m.limit {
		panic(fmt.Sprintf("abi: memory allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, m.total, m.limit))
	}

	buf := make([]byte, size)
	ptr := addressOf(buf)
	m.regions[ptr] = buf
	m.total += int(size)
	return ptr
}

// free unpins the region at ptr. Untracked addresses are ignored. The
// stored length is used for accounting, never the caller's.
func (m *manager) free(ptr uint32) {
	m.Lock()
	defer m.Unlock()

	buf, ok := m.regions[ptr]
	if !ok {
		return
	}
	delete(m.regions, ptr)
	m.total -= len(buf)
}

// region returns the first length bytes of the tracked region at ptr.
func (m *manager) region(ptr, length uint32) ([]byte, bool) {
	m.Lock()
	defer m.Unlock()

	buf, ok := m.regions[ptr]
	if !ok || int(length) > len(buf) {
		return nil, false
	}
	return buf[:length], true
}

func (m *manager) stats() (count, bytes int) {
	m.Lock()
	defer m.Unlock()
	return len(m.regions), m.total
}

func (m *manager) reset() {
	m.Lock()
	defer m.Unlock()
	clear(m.regions)
	m.total = 0
}

// Stats returns the number of pinned regions and their total size.
func Stats() (count, bytes int) {
	return memoryManager.stats()
}

// FreeAllTracked unpins every region.
func FreeAllTracked() {
	memoryManager.reset()
}
