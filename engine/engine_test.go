// SPDX-License-Identifier: Unlicense OR MIT

package engine

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestProcessTextBeforeInitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected ProcessText on an uninitialized engine to panic")
		}
	}()
	e := NewEngine()
	e.ProcessText("a", 24, 400)
}

func TestInitTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a second Init call to panic")
		}
	}()
	e := NewEngine()
	e.Init(256, 256)
	e.Init(256, 256)
}

func TestLoadFallbackBeforePrimaryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected LoadFallbackFont before a primary font to panic")
		}
	}()
	e := NewEngine()
	e.Init(256, 256)
	e.LoadFallbackFont(nil)
}

func TestProcessTextWithEmptyFontSetReturnsEmptyResult(t *testing.T) {
	e := NewEngine()
	e.Init(256, 256)
	got := e.ProcessText("hello", 24, 400)
	if got.GlyphCount() != 0 {
		t.Fatalf("expected an empty LayoutResult in the Empty state, got %d glyphs", got.GlyphCount())
	}
	if got.TotalWidth != 0 || got.Ascent != 0 || got.Descent != 0 {
		t.Fatalf("expected zero metrics in the Empty state, got %+v", got)
	}
}

func TestProcessTextEmptyStringReturnsEmptyResult(t *testing.T) {
	e := NewEngine()
	e.Init(256, 256)
	got := e.ProcessText("", 24, 400)
	if got.GlyphCount() != 0 {
		t.Fatalf("expected zero glyphs for an empty string, got %d", got.GlyphCount())
	}
}

func TestGetAtlasSizeReflectsInit(t *testing.T) {
	e := NewEngine()
	e.Init(512, 256)
	w, h := e.GetAtlasSize()
	if w != 512 || h != 256 {
		t.Fatalf("GetAtlasSize() = (%d, %d), want (512, 256)", w, h)
	}
}

func TestTakePendingUploadsDrainsToEmpty(t *testing.T) {
	e := NewEngine()
	e.Init(256, 256)
	if e.HasPendingUploads() {
		t.Fatal("expected no pending uploads on a freshly initialized engine")
	}
	e.uploads = append(e.uploads, PendingUpload{W: 1, H: 1, Data: []byte{0, 0, 0, 0}})
	if !e.HasPendingUploads() {
		t.Fatal("expected HasPendingUploads to report true after queuing one")
	}
	got := e.TakePendingUploads()
	if len(got) != 1 {
		t.Fatalf("expected to drain exactly 1 upload, got %d", len(got))
	}
	if e.HasPendingUploads() {
		t.Fatal("expected the queue to be empty after TakePendingUploads")
	}
}

func TestClearReturnsToEmptyState(t *testing.T) {
	e := NewEngine()
	e.Init(256, 256)
	e.uploads = append(e.uploads, PendingUpload{W: 1, H: 1, Data: []byte{0, 0, 0, 0}})
	e.Clear()
	if e.HasPendingUploads() {
		t.Fatal("expected Clear to drop pending uploads")
	}
	got := e.ProcessText("x", 24, 400)
	if got.GlyphCount() != 0 {
		t.Fatal("expected Clear to return the engine to the Empty state (no primary font)")
	}
}

func TestTakePendingUploadsLegalInEmptyState(t *testing.T) {
	e := NewEngine()
	e.Init(256, 256)
	if got := e.TakePendingUploads(); got != nil {
		t.Fatalf("expected nil from a freshly initialized engine, got %v", got)
	}
}

// TestProcessTextWithRealFontLandsInPixelRange drives ProcessText with
// golang.org/x/image/font/gofont/goregular to catch glyph positions and
// advances ever drifting out of pixel space (e.g. by an accidental extra
// units-per-em scale): at sizePx=24 a five-letter word should land
// within an order of magnitude of sizePx, not sizePx/upem.
func TestProcessTextWithRealFontLandsInPixelRange(t *testing.T) {
	e := NewEngine()
	e.Init(1024, 1024)
	if err := e.LoadPrimaryFont(goregular.TTF); err != nil {
		t.Fatalf("LoadPrimaryFont: %v", err)
	}

	const sizePx = 24.0
	got := e.ProcessText("Hello", sizePx, 400)
	if got.GlyphCount() != 5 {
		t.Fatalf("expected 5 glyphs for \"Hello\", got %d", got.GlyphCount())
	}
	if got.TotalWidth < sizePx*0.5 || got.TotalWidth > sizePx*10 {
		t.Fatalf("TotalWidth = %v is not within a sane pixel range for sizePx=%v", got.TotalWidth, sizePx)
	}
	if got.Ascent <= 0 || got.Ascent > sizePx*2 {
		t.Fatalf("Ascent = %v is not within a sane pixel range for sizePx=%v", got.Ascent, sizePx)
	}
	for i := 1; i < got.GlyphCount(); i++ {
		if got.Positions[2*i] < got.Positions[2*(i-1)] {
			t.Fatalf("expected pen x positions to be non-decreasing across \"Hello\", got %v", got.Positions)
		}
	}
	if !e.HasPendingUploads() {
		t.Fatal("expected at least one PendingUpload after rasterizing 5 distinct glyphs")
	}

	uploads := e.TakePendingUploads()
	if len(uploads) == 0 {
		t.Fatal("expected a non-empty upload batch")
	}

	again := e.ProcessText("Hello", sizePx, 400)
	if again.TotalWidth != got.TotalWidth {
		t.Fatalf("expected identical TotalWidth on a repeat call, got %v vs %v", again.TotalWidth, got.TotalWidth)
	}
	if e.HasPendingUploads() {
		t.Fatal("expected zero new uploads on a repeat call with an all-hit cache")
	}
}
