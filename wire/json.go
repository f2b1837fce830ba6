// SPDX-License-Identifier: Unlicense OR MIT

// Package wire implements the two host-facing encodings of a layout
// record: a JSON form for convenience callers, and a fixed-layout binary
// form for a fast direct-buffer path. Neither encoding reorders or
// reinterprets a result's fields; they only serialize what
// engine.ProcessText already produced.
package wire

import (
	"encoding/json"
	"fmt"
)

// layoutJSON fixes the host-facing field names independently of
// engine.LayoutResult's Go field names.
//
// FontIndices is carried as []int rather than []uint8: encoding/json treats
// any []byte-kinded slice, named or not, as a base64 string rather than a
// JSON array, which would silently break the "font_indices" array contract.
type layoutJSON struct {
	GlyphCount   int       `json:"glyph_count"`
	GlyphIDs     []uint16  `json:"glyph_ids"`
	Positions    []float32 `json:"positions"`
	AtlasRects   []float32 `json:"atlas_rects"`
	GlyphOffsets []float32 `json:"glyph_offsets"`
	FontIndices  []int     `json:"font_indices"`
	TotalWidth   float32   `json:"total_width"`
	TotalHeight  float32   `json:"total_height"`
	Ascent       float32   `json:"ascent"`
	Descent      float32   `json:"descent"`
}

// Result is the subset of engine.LayoutResult's fields this package
// encodes and decodes. It is declared independently of the engine package
// so wire has no import-time dependency on it (and so a host that only
// wants to decode a previously-encoded buffer, without pulling in the
// shaping stack, still can).
type Result struct {
	GlyphIDs     []uint16
	Positions    []float32
	AtlasRects   []float32
	GlyphOffsets []float32
	FontIndices  []uint8
	TotalWidth   float32
	TotalHeight  float32
	Ascent       float32
	Descent      float32
}

// EncodeJSON renders r as the host-facing JSON object.
func EncodeJSON(r Result) ([]byte, error) {
	return json.Marshal(layoutJSON{
		GlyphCount:   len(r.GlyphIDs),
		GlyphIDs:     nonNil(r.GlyphIDs),
		Positions:    nonNilF(r.Positions),
		AtlasRects:   nonNilF(r.AtlasRects),
		GlyphOffsets: nonNilF(r.GlyphOffsets),
		FontIndices:  widenIndices(r.FontIndices),
		TotalWidth:   r.TotalWidth,
		TotalHeight:  r.TotalHeight,
		Ascent:       r.Ascent,
		Descent:      r.Descent,
	})
}

// DecodeJSON parses the object EncodeJSON produces. glyph_count is
// validated against the decoded array lengths but is not itself stored
// anywhere in Result, since GlyphIDs' length already carries it.
func DecodeJSON(data []byte) (Result, error) {
	var lj layoutJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return Result{}, err
	}
	n := lj.GlyphCount
	if len(lj.GlyphIDs) != n || len(lj.Positions) != 2*n || len(lj.AtlasRects) != 4*n ||
		len(lj.GlyphOffsets) != 2*n || len(lj.FontIndices) != n {
		return Result{}, fmt.Errorf("glyphatlas/wire: glyph_count %d disagrees with array lengths", n)
	}
	return Result{
		GlyphIDs:     lj.GlyphIDs,
		Positions:    lj.Positions,
		AtlasRects:   lj.AtlasRects,
		GlyphOffsets: lj.GlyphOffsets,
		FontIndices:  narrowIndices(lj.FontIndices),
		TotalWidth:   lj.TotalWidth,
		TotalHeight:  lj.TotalHeight,
		Ascent:       lj.Ascent,
		Descent:      lj.Descent,
	}, nil
}

func widenIndices(s []uint8) []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = int(v)
	}
	return out
}

func narrowIndices(s []int) []uint8 {
	out := make([]uint8, len(s))
	for i, v := range s {
		out[i] = uint8(v)
	}
	return out
}

// nonNil and nonNilF turn a nil slice into an empty, non-nil one so
// json.Marshal emits `[]` rather than `null` for an empty-input result.
func nonNil(s []uint16) []uint16 {
	if s == nil {
		return []uint16{}
	}
	return s
}

func nonNilF(s []float32) []float32 {
	if s == nil {
		return []float32{}
	}
	return s
}
