// SPDX-License-Identifier: Unlicense OR MIT

// Package font provides the minimal handle type the rest of glyphatlas
// uses to refer to a loaded typeface.
//
// Unlike a full UI toolkit's font package, glyphatlas has no notion of
// typeface family, variant, or discrete style: the fallback tower in
// package shape addresses fonts purely by registration order (font_id).
// Weight is a continuous float from the caller that only selects the
// atlas cache key's weight bucket; neither the shaper nor the rasterizer
// receives it, and no 'wght' variation is applied to a Face. See
// shape.Tower for the font ordering.
package font

import (
	gofont "github.com/go-text/typesetting/font"
)

// Face is a parsed, shapeable handle to a single font file. It is safe for
// concurrent reads (it does no internal mutation), but glyphatlas itself is
// single-threaded per engine instance; see the engine package's
// concurrency note.
type Face struct {
	face gofont.Face
}

// NewFace wraps an already-parsed go-text/typesetting face. It exists so
// that the opentype package (the only place a Face is constructed) does
// not need access to Face's unexported field.
func NewFace(f gofont.Face) Face {
	return Face{face: f}
}

// Face returns the underlying go-text/typesetting face, for use by the
// shape and sdf packages.
func (f Face) Face() gofont.Face {
	return f.face
}

// Upem returns the font's units-per-em, used to scale design units to
// pixels at a given size.
func (f Face) Upem() int {
	return int(f.face.Upem())
}

// Covers reports whether this font has a visible (non-.notdef) glyph for
// r, the coverage test the shape package's fallback tower scans with.
func (f Face) Covers(r rune) bool {
	gid, ok := f.face.NominalGlyph(r)
	return ok && gid != 0
}
