// SPDX-License-Identifier: Unlicense OR MIT

// Package atlas implements the bounded 2D glyph atlas: a block-based
// region allocator and an LRU glyph cache that drives eviction in it,
// combined into a single Manager.
//
// The two are kept in one type rather than as two objects referencing
// each other: the cache's eviction needs to free blocks in the allocator,
// and the allocator's failure path needs to ask the cache to evict, so a
// cache->allocator->cache reference cycle is unavoidable at the logical
// level. Folding both into one owner turns that cycle into plain method
// calls on shared state instead of cross-object pointers.
package atlas

import "sort"

// blockSize is the fixed block granularity of the atlas grid, in pixels.
const blockSize = 64

// Rect is an axis-aligned integer rectangle in atlas pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Area returns the number of pixels the rect covers. A zero area is how
// an empty glyph or a failed allocation is represented.
func (r Rect) Area() int {
	return r.W * r.H
}

// GlyphKey is the composite identity an SDF is cached under: the font in
// the fallback tower, the shaper's glyph id within that font, the integer
// pixel size, and the weight quantized to the nearest 100. It is a plain
// comparable struct so it can be used directly as a map key.
type GlyphKey struct {
	FontID       int
	GlyphID      uint16
	SizePx       int
	WeightBucket int
}

// WeightBucket quantizes a continuous shaper weight to the nearest 100
// so that animated variable font weight transitions don't fragment the
// cache. It does not clamp to the 100-900 range: callers driving
// genuinely out-of-range variation values still get a stable,
// content-addressable bucket.
func WeightBucket(weight float32) int {
	const step = 100.0
	return int(round32(weight/step)) * 100
}

func round32(f float32) float32 {
	if f < 0 {
		return -round32(-f)
	}
	i := float32(int(f))
	if f-i >= 0.5 {
		return i + 1
	}
	return i
}

// GlyphInfo is the cached description of a single rasterized glyph: where
// its SDF bitmap lives in the atlas, the bearing offsets needed to
// position it relative to the pen, and the LRU access stamp.
type GlyphInfo struct {
	Rect     Rect
	XBearing float32
	YBearing float32
	LastUsed uint64
}

type block struct {
	x, y int
	free bool
}

// Manager owns the atlas's block grid, the glyph cache keyed by
// GlyphKey, and the reverse block->key index eviction needs. It is not
// safe for concurrent use; see the engine package's concurrency note.
type Manager struct {
	width, height              int
	blocksPerRow, blocksPerCol int
	blocks                     []block
	glyphs                     map[GlyphKey]GlyphInfo
	blockToKey                 map[int]GlyphKey
	counter                    uint64
}

// NewManager creates an atlas of the given pixel dimensions, subdivided
// into blockSize x blockSize blocks. width and height need not be exact
// multiples of blockSize; any remainder is simply never addressable by
// the block grid.
func NewManager(width, height int) *Manager {
	bpr := width / blockSize
	bpc := height / blockSize
	blocks := make([]block, 0, bpr*bpc)
	for row := 0; row < bpc; row++ {
		for col := 0; col < bpr; col++ {
			blocks = append(blocks, block{x: col * blockSize, y: row * blockSize, free: true})
		}
	}
	return &Manager{
		width:        width,
		height:       height,
		blocksPerRow: bpr,
		blocksPerCol: bpc,
		blocks:       blocks,
		glyphs:       make(map[GlyphKey]GlyphInfo),
		blockToKey:   make(map[int]GlyphKey),
	}
}

// Size returns the atlas's pixel dimensions.
func (m *Manager) Size() (width, height int) {
	return m.width, m.height
}

// Get looks up a cached glyph. On a hit it stamps the entry with a fresh
// LRU timestamp (strictly greater than any previous stamp) before
// returning it; on a miss the access counter is left untouched.
func (m *Manager) Get(key GlyphKey) (GlyphInfo, bool) {
	info, ok := m.glyphs[key]
	if !ok {
		return GlyphInfo{}, false
	}
	m.counter++
	info.LastUsed = m.counter
	m.glyphs[key] = info
	return info, true
}

// Put inserts or replaces a cached glyph, stamping it with a fresh LRU
// timestamp and, if its rect covers at least one pixel, registering the
// blocks it occupies in the reverse index used by eviction. Replacing an
// entry releases the blocks its old rect held. A zero-area rect (an
// empty glyph, or a glyph whose allocation failed after eviction) is
// cached but owns no blocks.
func (m *Manager) Put(key GlyphKey, info GlyphInfo) {
	if old, ok := m.glyphs[key]; ok && old.Rect.Area() > 0 {
		m.free(old.Rect)
	}
	m.counter++
	info.LastUsed = m.counter
	if info.Rect.Area() > 0 {
		for _, idx := range m.blockIndices(info.Rect) {
			m.blockToKey[idx] = key
		}
	}
	m.glyphs[key] = info
}

// Allocate reserves a block-aligned rect whose width and height are at
// least w and h. It scans the block grid first-fit, row ascending then
// column ascending, which is deterministic and makes packing
// reproducible in tests. If no contiguous window is free, it asks the
// cache to evict at least enough blocks and retries exactly once; if
// that retry also fails it reports failure and the caller must treat the
// glyph as invisible rather than retry further.
func (m *Manager) Allocate(w, h int) (Rect, bool) {
	bx := ceilDiv(w, blockSize)
	by := ceilDiv(h, blockSize)
	if bx == 0 {
		bx = 1
	}
	if by == 0 {
		by = 1
	}
	if rect, ok := m.findFreeBlocks(bx, by); ok {
		return rect, true
	}
	m.evictAtLeast(bx * by)
	return m.findFreeBlocks(bx, by)
}

func (m *Manager) findFreeBlocks(bx, by int) (Rect, bool) {
	if bx > m.blocksPerRow || by > m.blocksPerCol {
		return Rect{}, false
	}
	for row := 0; row <= m.blocksPerCol-by; row++ {
		for col := 0; col <= m.blocksPerRow-bx; col++ {
			if !m.windowFree(row, col, bx, by) {
				continue
			}
			m.markWindow(row, col, bx, by, false)
			return Rect{
				X: col * blockSize,
				Y: row * blockSize,
				W: bx * blockSize,
				H: by * blockSize,
			}, true
		}
	}
	return Rect{}, false
}

func (m *Manager) windowFree(row, col, bx, by int) bool {
	for dy := 0; dy < by; dy++ {
		for dx := 0; dx < bx; dx++ {
			if !m.blocks[(row+dy)*m.blocksPerRow+(col+dx)].free {
				return false
			}
		}
	}
	return true
}

func (m *Manager) markWindow(row, col, bx, by int, free bool) {
	for dy := 0; dy < by; dy++ {
		for dx := 0; dx < bx; dx++ {
			m.blocks[(row+dy)*m.blocksPerRow+(col+dx)].free = free
		}
	}
}

// free releases the blocks covered by rect and removes their reverse
// index entries. It is invoked by evictAtLeast, and by Put when it
// replaces an entry that held blocks.
func (m *Manager) free(rect Rect) {
	for _, idx := range m.blockIndices(rect) {
		m.blocks[idx].free = true
		delete(m.blockToKey, idx)
	}
}

func (m *Manager) blockIndices(rect Rect) []int {
	startCol := rect.X / blockSize
	startRow := rect.Y / blockSize
	bx := rect.W / blockSize
	by := rect.H / blockSize
	indices := make([]int, 0, bx*by)
	for dy := 0; dy < by; dy++ {
		for dx := 0; dx < bx; dx++ {
			indices = append(indices, (startRow+dy)*m.blocksPerRow+(startCol+dx))
		}
	}
	return indices
}

// evictAtLeast frees the least-recently-used cached glyphs, in ascending
// LastUsed order, until the cumulative freed block count is at least n.
func (m *Manager) evictAtLeast(n int) {
	type victim struct {
		key      GlyphKey
		lastUsed uint64
	}
	victims := make([]victim, 0, len(m.glyphs))
	for k, v := range m.glyphs {
		victims = append(victims, victim{key: k, lastUsed: v.LastUsed})
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].lastUsed < victims[j].lastUsed })

	freed := 0
	for _, v := range victims {
		if freed >= n {
			break
		}
		info, ok := m.glyphs[v.key]
		if !ok {
			continue
		}
		delete(m.glyphs, v.key)
		if info.Rect.Area() == 0 {
			continue
		}
		m.free(info.Rect)
		freed += ceilDiv(info.Rect.W, blockSize) * ceilDiv(info.Rect.H, blockSize)
	}
}

// Clear resets the atlas to its initial empty state: every block is
// freed and the glyph cache and reverse index are emptied. The access
// counter also resets, matching the original engine's clear() behavior.
func (m *Manager) Clear() {
	for i := range m.blocks {
		m.blocks[i].free = true
	}
	m.glyphs = make(map[GlyphKey]GlyphInfo)
	m.blockToKey = make(map[int]GlyphKey)
	m.counter = 0
}

// UsedBlocks reports the number of blocks currently marked used, for the
// block-conservation invariant in tests.
func (m *Manager) UsedBlocks() int {
	used := 0
	for _, b := range m.blocks {
		if !b.free {
			used++
		}
	}
	return used
}

// Owner reports the GlyphKey that owns the block containing atlas pixel
// (x, y), for the cache/allocator consistency invariant in tests.
func (m *Manager) Owner(x, y int) (GlyphKey, bool) {
	col := x / blockSize
	row := y / blockSize
	if col < 0 || col >= m.blocksPerRow || row < 0 || row >= m.blocksPerCol {
		return GlyphKey{}, false
	}
	key, ok := m.blockToKey[row*m.blocksPerRow+col]
	return key, ok
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
