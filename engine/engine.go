// SPDX-License-Identifier: Unlicense OR MIT

// Package engine drives the shape, sdf and atlas packages end to end,
// from raw text down to a flat per-glyph layout record and a deferred
// GPU upload queue.
//
// An Engine moves through three states: Uninitialized until Init,
// Empty until a primary font loads, then Ready. Misusing the lifecycle
// (calling anything before Init, or loading a fallback before a primary)
// is a programming-contract violation and panics; recoverable conditions
// such as a font parse failure return an error instead.
package engine

import (
	"fmt"
	"io"
	"log"

	"github.com/YuKongA/glyphatlas/atlas"
	"github.com/YuKongA/glyphatlas/font/opentype"
	"github.com/YuKongA/glyphatlas/sdf"
	"github.com/YuKongA/glyphatlas/shape"
)

type state int

const (
	stateUninitialized state = iota
	stateEmpty
	stateReady
)

// Engine is the single stateful entry point. It is not safe for
// concurrent use; callers sharing one instance across threads must
// serialize all entry points behind their own mutual exclusion.
type Engine struct {
	state   state
	atlas   *atlas.Manager
	tower   *shape.Tower
	shaper  *shape.Shaper
	sdf     *sdf.Producer
	uploads []PendingUpload
}

// NewEngine returns an Engine in its Uninitialized state. Init must be
// called before anything else is legal.
func NewEngine() *Engine {
	return &Engine{}
}

// Init creates the atlas at the given pixel dimensions and moves the
// engine from Uninitialized to Empty. Calling Init more than once on the
// same Engine is a programming-contract violation; construct a new Engine
// instead.
func (e *Engine) Init(width, height int) {
	if e.state != stateUninitialized {
		panic("glyphatlas: engine already initialized")
	}
	e.atlas = atlas.NewManager(width, height)
	e.tower = shape.NewTower()
	e.shaper = shape.NewShaper()
	e.sdf = sdf.NewProducer()
	e.state = stateEmpty
}

// requireInitialized panics if Init has not been called; every method
// below but Init and NewEngine needs this guard.
func (e *Engine) requireInitialized() {
	if e.state == stateUninitialized {
		panic("glyphatlas: engine used before Init")
	}
}

// LoadPrimaryFont parses and installs the primary font, moving the engine
// to Ready. A parse failure leaves the engine's state and fallback tower
// unchanged and is reported to the caller.
func (e *Engine) LoadPrimaryFont(data []byte) error {
	e.requireInitialized()
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("glyphatlas/engine: load primary font: %w", err)
	}
	e.tower.SetPrimary(f)
	e.state = stateReady
	return nil
}

// LoadFallbackFont parses and appends a fallback font to the tower. It
// requires a primary font to already be loaded; calling it beforehand is
// a programming-contract violation, not a recoverable font error.
func (e *Engine) LoadFallbackFont(data []byte) error {
	e.requireReady("LoadFallbackFont")
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("glyphatlas/engine: load fallback font: %w", err)
	}
	e.tower.AddFallback(f)
	return nil
}

// LoadFallbackFontMapped is LoadFallbackFont for a host-owned byte range
// such as a memory-mapped file. r must remain valid for the engine's
// lifetime, or until the next Clear().
func (e *Engine) LoadFallbackFontMapped(r io.ReaderAt, size int64) error {
	e.requireReady("LoadFallbackFontMapped")
	f, err := opentype.ParseAt(r, size)
	if err != nil {
		return fmt.Errorf("glyphatlas/engine: load mapped fallback font: %w", err)
	}
	e.tower.AddFallback(f)
	return nil
}

// ClearFallbackFonts drops every fallback font, keeping the primary.
func (e *Engine) ClearFallbackFonts() {
	e.requireInitialized()
	e.tower.ClearFallbacks()
}

func (e *Engine) requireReady(op string) {
	e.requireInitialized()
	if e.state != stateReady {
		panic("glyphatlas: " + op + " called before a primary font was loaded")
	}
}

// TakePendingUploads drains and returns every PendingUpload queued since
// the last drain, transferring ownership to the caller. Legal in both the
// Empty and Ready states.
func (e *Engine) TakePendingUploads() []PendingUpload {
	e.requireInitialized()
	out := e.uploads
	e.uploads = nil
	return out
}

// HasPendingUploads reports whether TakePendingUploads would return a
// non-empty slice.
func (e *Engine) HasPendingUploads() bool {
	e.requireInitialized()
	return len(e.uploads) > 0
}

// GetAtlasSize returns the atlas's pixel dimensions.
func (e *Engine) GetAtlasSize() (width, height int) {
	e.requireInitialized()
	return e.atlas.Size()
}

// Clear rebuilds the atlas, drops every loaded font and pending upload,
// and returns the engine to the Empty state.
func (e *Engine) Clear() {
	e.requireInitialized()
	e.atlas.Clear()
	e.tower = shape.NewTower()
	e.uploads = nil
	e.state = stateEmpty
}

// logMissing reports each distinct rune AssignRuns could not find
// coverage for, once per ProcessText call. AssignRuns already
// de-duplicates within the call; this does not re-dedupe across calls.
func (e *Engine) logMissing(missing []rune) {
	for _, r := range missing {
		log.Printf("glyphatlas: no font in the fallback tower covers %q (U+%04X); shaping to .notdef", r, r)
	}
}
