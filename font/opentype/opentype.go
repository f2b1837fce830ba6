// SPDX-License-Identifier: Unlicense OR MIT

// Package opentype parses OpenType/TrueType font bytes into the
// font.Face handle the rest of glyphatlas shapes and rasterizes against.
package opentype

import (
	"bytes"
	"fmt"
	"io"

	gofont "github.com/go-text/typesetting/font"

	"github.com/YuKongA/glyphatlas/font"
)

// Parse constructs a Face from font bytes the caller owns. This is the
// path used by Engine.LoadPrimaryFont and Engine.LoadFallbackFont.
func Parse(src []byte) (font.Face, error) {
	f, err := gofont.ParseTTF(bytes.NewReader(src))
	if err != nil {
		return font.Face{}, fmt.Errorf("glyphatlas/font/opentype: parse font: %w", err)
	}
	return font.NewFace(f), nil
}

// ParseAt constructs a Face from a read-only byte range the caller
// controls the lifetime of, such as a memory-mapped font file. r must
// remain valid for the lifetime of the returned Face. This is the path
// used by Engine.LoadFallbackFontMapped.
func ParseAt(r io.ReaderAt, size int64) (font.Face, error) {
	f, err := gofont.ParseTTF(io.NewSectionReader(r, 0, size))
	if err != nil {
		return font.Face{}, fmt.Errorf("glyphatlas/font/opentype: parse mapped font: %w", err)
	}
	return font.NewFace(f), nil
}
