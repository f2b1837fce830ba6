// SPDX-License-Identifier: Unlicense OR MIT

package engine

import (
	"golang.org/x/image/math/fixed"

	gofont "github.com/go-text/typesetting/font"

	"github.com/YuKongA/glyphatlas/atlas"
	"github.com/YuKongA/glyphatlas/shape"
)

// LayoutResult is the flat, parallel-array output record of a ProcessText
// call: every array below is indexed 0..GlyphCount and stays in shaped
// order (the run order AssignRuns produced; no visual reordering).
type LayoutResult struct {
	GlyphIDs     []uint16
	Positions    []float32 // pen x,y pairs, len == 2*GlyphCount
	AtlasRects   []float32 // atlas x,y,w,h quads, len == 4*GlyphCount
	GlyphOffsets []float32 // x_bearing,y_bearing pairs, len == 2*GlyphCount
	FontIndices  []uint8

	TotalWidth  float32
	TotalHeight float32
	Ascent      float32
	Descent     float32
}

// GlyphCount reports how many glyphs this result describes.
func (r LayoutResult) GlyphCount() int {
	return len(r.GlyphIDs)
}

// PendingUpload is a newly-rasterized glyph's pixels, paired with the
// atlas region allocated for it, awaiting the host's GPU upload. The
// host must apply every pending upload before drawing a LayoutResult
// produced in the same ProcessText call, since that result's atlas rects
// may reference these still-unwritten pixels.
type PendingUpload struct {
	X, Y, W, H int
	Data       []byte // len == 4*W*H, RGBA
}

// ProcessText partitions text into font-homogeneous runs, shapes each
// run, and for every resulting glyph consults the atlas cache, invoking
// the SDF producer and the block allocator on a miss, before assembling
// the flat LayoutResult.
//
// Calling ProcessText before Init is a programming-contract violation and
// panics; calling it with no fonts loaded (the Empty state) is not an
// error and simply returns a zero-value LayoutResult, which is also what
// an empty text produces.
func (e *Engine) ProcessText(text string, sizePx, weight float32) LayoutResult {
	e.requireInitialized()
	if e.state == stateEmpty {
		return LayoutResult{}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return LayoutResult{}
	}

	runs, missing := shape.AssignRuns(e.tower, runes)
	if len(missing) > 0 {
		e.logMissing(missing)
	}
	if len(runs) == 0 {
		return LayoutResult{}
	}

	outputs := e.shaper.ShapeRuns(e.tower, runs, runes, sizePx)

	var result LayoutResult
	var cursorX float32
	var maxAscent, maxDescent, maxHeight float32
	sizeKey := roundToInt(sizePx)
	weightKey := atlas.WeightBucket(weight)

	for i, out := range outputs {
		run := runs[i]
		face := e.tower.Face(run.FontID)

		if a := fixedToFloat(out.LineBounds.Ascent); a > maxAscent {
			maxAscent = a
		}
		if d := fixedToFloat(out.LineBounds.Descent); absF32(d) > absF32(maxDescent) {
			maxDescent = d
		}
		if h := fixedToFloat(out.LineBounds.LineThickness()); h > maxHeight {
			maxHeight = h
		}

		for _, g := range out.Glyphs {
			key := atlas.GlyphKey{
				FontID:       run.FontID,
				GlyphID:      uint16(g.GlyphID),
				SizePx:       sizeKey,
				WeightBucket: weightKey,
			}
			info, ok := e.atlas.Get(key)
			if !ok {
				info = e.rasterizeAndCache(face, key, gofont.GID(g.GlyphID), sizePx)
			}

			// g.XOffset/g.YOffset/g.XAdvance are already in pixels: ShapeRuns
			// passed sizePx as the shaping Input's ppem, so HarfbuzzShaper's
			// output needs no further upem-based scaling here.
			result.GlyphIDs = append(result.GlyphIDs, uint16(g.GlyphID))
			result.Positions = append(result.Positions,
				cursorX+fixedToFloat(g.XOffset),
				fixedToFloat(g.YOffset),
			)
			result.AtlasRects = append(result.AtlasRects,
				float32(info.Rect.X), float32(info.Rect.Y),
				float32(info.Rect.W), float32(info.Rect.H),
			)
			result.GlyphOffsets = append(result.GlyphOffsets, info.XBearing, info.YBearing)
			result.FontIndices = append(result.FontIndices, uint8(run.FontID))

			cursorX += fixedToFloat(g.XAdvance)
		}
	}

	result.TotalWidth = cursorX
	result.TotalHeight = maxHeight
	result.Ascent = maxAscent
	result.Descent = maxDescent
	return result
}

// rasterizeAndCache is the cache-miss branch of the per-glyph loop:
// rasterize, attempt an atlas allocation, then cache either the
// successfully-placed glyph (enqueuing its upload) or a zero-rect
// placeholder so the same miss is not re-rasterized until that entry is
// evicted or the engine is cleared.
func (e *Engine) rasterizeAndCache(face shape.Face, key atlas.GlyphKey, gid gofont.GID, sizePx float32) atlas.GlyphInfo {
	res, err := e.sdf.Generate(face, gid, sizePx)
	if err != nil || res.Empty {
		info := atlas.GlyphInfo{}
		e.atlas.Put(key, info)
		return info
	}

	rect, allocated := e.atlas.Allocate(res.Width, res.Height)
	info := atlas.GlyphInfo{XBearing: res.XBearing, YBearing: res.YBearing}
	if allocated {
		info.Rect = rect
	}
	e.atlas.Put(key, info)
	if allocated {
		e.uploads = append(e.uploads, PendingUpload{
			X: rect.X, Y: rect.Y,
			W: res.Width, H: res.Height,
			Data: res.RGBA,
		})
	}
	return info
}

func fixedToFloat(i fixed.Int26_6) float32 {
	return float32(i) / 64
}

func absF32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func roundToInt(f float32) int {
	if f < 0 {
		return -roundToInt(-f)
	}
	return int(f + 0.5)
}
