// SPDX-License-Identifier: Unlicense OR MIT

package atlas

import (
	"testing"
	"testing/quick"
)

func TestAllocateFirstFitDeterministic(t *testing.T) {
	m := NewManager(128, 128) // 2x2 grid of 64px blocks
	r1, ok := m.Allocate(60, 60)
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	if r1.X != 0 || r1.Y != 0 || r1.W != 64 || r1.H != 64 {
		t.Fatalf("unexpected first allocation: %+v", r1)
	}
	r2, ok := m.Allocate(60, 60)
	if !ok {
		t.Fatal("expected second allocation to succeed")
	}
	if r2.X != 64 || r2.Y != 0 {
		t.Fatalf("expected row-major scan to pick (64,0) next, got %+v", r2)
	}
}

func TestAllocateEvictsLRUWhenFull(t *testing.T) {
	m := NewManager(128, 128)
	keys := []GlyphKey{
		{FontID: 0, GlyphID: 1, SizePx: 24, WeightBucket: 400},
		{FontID: 0, GlyphID: 2, SizePx: 24, WeightBucket: 400},
		{FontID: 0, GlyphID: 3, SizePx: 24, WeightBucket: 400},
		{FontID: 0, GlyphID: 4, SizePx: 24, WeightBucket: 400},
	}
	for _, k := range keys {
		rect, ok := m.Allocate(60, 60)
		if !ok {
			t.Fatalf("expected allocation for %v to succeed", k)
		}
		m.Put(k, GlyphInfo{Rect: rect})
	}
	if m.UsedBlocks() != 4 {
		t.Fatalf("expected all 4 blocks used, got %d", m.UsedBlocks())
	}
	// Touch every key except the first so it remains the LRU victim.
	for _, k := range keys[1:] {
		if _, ok := m.Get(k); !ok {
			t.Fatalf("expected %v to be cached", k)
		}
	}

	fifth := GlyphKey{FontID: 0, GlyphID: 5, SizePx: 24, WeightBucket: 400}
	rect, ok := m.Allocate(60, 60)
	if !ok {
		t.Fatal("expected eviction to free space for a 5th glyph")
	}
	m.Put(fifth, GlyphInfo{Rect: rect})

	if _, ok := m.Get(keys[0]); ok {
		t.Fatal("expected the least-recently-used glyph to have been evicted")
	}
	if rect.X != 0 || rect.Y != 0 {
		t.Fatalf("expected the freed (0,0) region to be reused, got %+v", rect)
	}
}

func TestAllocateFailsWhenNothingCanBeEvicted(t *testing.T) {
	m := NewManager(64, 64)
	// A glyph larger than the entire atlas can never be allocated, evict or not.
	if _, ok := m.Allocate(65, 65); ok {
		t.Fatal("expected allocation larger than the atlas to fail")
	}
}

func TestPutZeroAreaOwnsNoBlocks(t *testing.T) {
	m := NewManager(128, 128)
	key := GlyphKey{FontID: 0, GlyphID: 1, SizePx: 24, WeightBucket: 400}
	m.Put(key, GlyphInfo{Rect: Rect{}})
	if m.UsedBlocks() != 0 {
		t.Fatalf("expected zero-area glyph to own no blocks, got %d used", m.UsedBlocks())
	}
	info, ok := m.Get(key)
	if !ok || info.Rect.Area() != 0 {
		t.Fatalf("expected zero-area glyph to remain cached, got %+v ok=%v", info, ok)
	}
}

func TestGetStampsStrictlyIncreasingLastUsed(t *testing.T) {
	m := NewManager(128, 128)
	k1 := GlyphKey{FontID: 0, GlyphID: 1, SizePx: 24, WeightBucket: 400}
	k2 := GlyphKey{FontID: 0, GlyphID: 2, SizePx: 24, WeightBucket: 400}
	m.Put(k1, GlyphInfo{})
	m.Put(k2, GlyphInfo{})
	i1, _ := m.Get(k1)
	i2, _ := m.Get(k2)
	if !(i1.LastUsed < i2.LastUsed) {
		t.Fatalf("expected i1.LastUsed < i2.LastUsed, got %d, %d", i1.LastUsed, i2.LastUsed)
	}
	i1again, _ := m.Get(k1)
	if i1again.LastUsed <= i2.LastUsed {
		t.Fatalf("expected re-access to push LastUsed past i2, got %d vs %d", i1again.LastUsed, i2.LastUsed)
	}
}

func TestClearResetsEverything(t *testing.T) {
	m := NewManager(128, 128)
	k := GlyphKey{FontID: 0, GlyphID: 1, SizePx: 24, WeightBucket: 400}
	rect, _ := m.Allocate(60, 60)
	m.Put(k, GlyphInfo{Rect: rect})
	m.Clear()
	if m.UsedBlocks() != 0 {
		t.Fatalf("expected 0 used blocks after clear, got %d", m.UsedBlocks())
	}
	if _, ok := m.Get(k); ok {
		t.Fatal("expected cache to be empty after clear")
	}
	if _, ok := m.Allocate(60, 60); !ok {
		t.Fatal("expected a fresh allocation to succeed after clear")
	}
}

func TestBlockConservationUnderRandomChurn(t *testing.T) {
	f := func(ops []uint8) bool {
		m := NewManager(256, 256)
		for _, op := range ops {
			key := GlyphKey{FontID: 0, GlyphID: uint16(op), SizePx: 24, WeightBucket: 400}
			if op%3 == 0 {
				m.Get(key)
				continue
			}
			side := int(op%3)*40 + 20
			rect, ok := m.Allocate(side, side)
			info := GlyphInfo{}
			if ok {
				info.Rect = rect
			}
			m.Put(key, info)
		}
		want := 0
		for _, info := range m.glyphs {
			want += ceilDiv(info.Rect.W, blockSize) * ceilDiv(info.Rect.H, blockSize)
		}
		return m.UsedBlocks() == want
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPutReplacingAnEntryReleasesItsOldBlocks(t *testing.T) {
	m := NewManager(128, 128)
	key := GlyphKey{FontID: 0, GlyphID: 1, SizePx: 24, WeightBucket: 400}
	rect, _ := m.Allocate(60, 60)
	m.Put(key, GlyphInfo{Rect: rect})
	rect2, _ := m.Allocate(60, 60)
	m.Put(key, GlyphInfo{Rect: rect2})
	if m.UsedBlocks() != 1 {
		t.Fatalf("expected the replaced entry's old block to be freed, got %d used", m.UsedBlocks())
	}
	if owner, ok := m.Owner(rect2.X, rect2.Y); !ok || owner != key {
		t.Fatalf("expected the new rect to map back to the key, got %v ok=%v", owner, ok)
	}
}

func TestWeightBucketRounding(t *testing.T) {
	cases := []struct {
		weight float32
		want   int
	}{
		{350, 400},
		{449, 400},
		{450, 500},
		{549, 500},
	}
	for _, c := range cases {
		if got := WeightBucket(c.weight); got != c.want {
			t.Errorf("WeightBucket(%v) = %d, want %d", c.weight, got, c.want)
		}
	}
}
