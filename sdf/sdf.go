// SPDX-License-Identifier: Unlicense OR MIT

// Package sdf rasterizes a single glyph outline and turns the coverage
// mask into the padded, dual-channel signed distance field the atlas
// caches and the host uploads to its texture.
package sdf

import (
	"image"
	"image/draw"
	"math"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/opentype/api"
	"golang.org/x/image/vector"
)

// Face is the capability Generate needs from a fallback tower entry: the
// underlying go-text/typesetting face to read glyph outlines from, and
// units-per-em to scale them to pixels. github.com/YuKongA/glyphatlas/font.Face
// and shape.Face both satisfy it; Generate depends on this narrower
// interface so that package sdf imports neither of them.
type Face interface {
	Face() gofont.Face
	Upem() int
}

const (
	padding     = 16   // transparent border around the mask, in pixels
	radius      = 16.0 // distance search radius, in pixels
	cutoff      = 0.25 // floor clamp on the packed distance value
	threshold   = 0.7  // packed value of the glyph edge
	smoothing   = 0.02 // half-width of the antialiased edge band
	shadowOuter = 0.4  // packed value where the shadow fades to nothing
	shadowInner = threshold
)

// Result is a single rasterized, SDF-packed glyph, ready to be uploaded into
// the atlas at the rect an atlas.Manager allocates for it.
type Result struct {
	RGBA     []byte // width*height*4 bytes, R=255,B=255, G=shadow alpha, A=text alpha
	Width    int
	Height   int
	XBearing float32
	YBearing float32
	// Empty reports a glyph with no visible ink (e.g. space): the atlas
	// must not allocate a block for it.
	Empty bool
}

// emptyResult is shared by every caller that produces an empty glyph.
// Code should branch on Empty rather than the 1x1 sentinel dimensions.
func emptyResult() Result {
	return Result{RGBA: make([]byte, 4), Width: 1, Height: 1, Empty: true}
}

// Producer rasterizes and distance-transforms glyphs. It keeps a reusable
// vector.Rasterizer the way opentype.Face keeps a scratch rast field,
// avoiding one allocation per glyph.
type Producer struct {
	rast vector.Rasterizer
}

// NewProducer returns a ready-to-use Producer.
func NewProducer() *Producer {
	return &Producer{}
}

// Generate rasterizes glyph gid from face at sizePx and produces its SDF.
// Weight only affects the caller's cache key (see atlas.WeightBucket);
// go-text/typesetting exposes no variable-font instance selection on a
// parsed Face, so there is no live 'wght' axis to apply here.
func (p *Producer) Generate(face Face, gid gofont.GID, sizePx float32) (Result, error) {
	glyphData := face.Face().GlyphData(gid)
	outline, ok := glyphData.(api.GlyphOutline)
	if !ok || len(outline.Segments) == 0 {
		return emptyResult(), nil
	}

	scale := sizePx / float32(face.Upem())
	minX, minY, maxX, maxY, ok := outlineBounds(outline, scale)
	if !ok {
		return emptyResult(), nil
	}

	w0 := int(math.Ceil(float64(maxX - minX)))
	h0 := int(math.Ceil(float64(maxY - minY)))
	if w0 <= 0 || h0 <= 0 {
		return emptyResult(), nil
	}

	mask := p.rasterize(outline, scale, minX, maxY, w0, h0)
	rgba, pw, ph := distanceTransform(mask, w0, h0)

	return Result{
		RGBA:     rgba,
		Width:    pw,
		Height:   ph,
		XBearing: minX - padding,
		YBearing: (maxY - float32(h0)) - padding,
	}, nil
}

// outlineBounds walks every segment's control and end points to find the
// glyph's design-space bounding box, scaled to pixels.
// go-text/typesetting's GlyphOutline carries no precomputed bounds
// (unlike a shaping.Glyph occurrence, which only exists after a specific
// shaping call), so a min/max scan over the path's points is needed.
func outlineBounds(outline api.GlyphOutline, scale float32) (minX, minY, maxX, maxY float32, ok bool) {
	first := true
	consider := func(x, y float32) {
		x *= scale
		y *= scale
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			return
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, seg := range outline.Segments {
		for i := 0; i < segArgCount(seg.Op); i++ {
			consider(seg.Args[i].X, seg.Args[i].Y)
		}
	}
	return minX, minY, maxX, maxY, !first
}

// segArgCount reports how many of a segment's Args entries are
// populated: 1 for a line endpoint, 2 for a quadratic control+end point,
// 3 for a cubic control+control+end point.
func segArgCount(op api.SegmentOp) int {
	switch op {
	case api.SegmentOpQuadTo:
		return 2
	case api.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

// rasterize walks the outline into an image.Alpha coverage mask of size
// w0 x h0. Points are placed in image space (origin top-left, Y down) by
// negating the glyph's Y-up design coordinate.
func (p *Producer) rasterize(outline api.GlyphOutline, scale, minX, maxY float32, w0, h0 int) *image.Alpha {
	p.rast.Reset(w0, h0)
	p.rast.DrawOp = draw.Src
	for _, seg := range outline.Segments {
		switch seg.Op {
		case api.SegmentOpMoveTo:
			x, y := seg.Args[0].X*scale-minX, maxY-seg.Args[0].Y*scale
			p.rast.MoveTo(x, y)
		case api.SegmentOpLineTo:
			x, y := seg.Args[0].X*scale-minX, maxY-seg.Args[0].Y*scale
			p.rast.LineTo(x, y)
		case api.SegmentOpQuadTo:
			x1, y1 := seg.Args[0].X*scale-minX, maxY-seg.Args[0].Y*scale
			x2, y2 := seg.Args[1].X*scale-minX, maxY-seg.Args[1].Y*scale
			p.rast.QuadTo(x1, y1, x2, y2)
		case api.SegmentOpCubeTo:
			x1, y1 := seg.Args[0].X*scale-minX, maxY-seg.Args[0].Y*scale
			x2, y2 := seg.Args[1].X*scale-minX, maxY-seg.Args[1].Y*scale
			x3, y3 := seg.Args[2].X*scale-minX, maxY-seg.Args[2].Y*scale
			p.rast.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, w0, h0))
	p.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// distanceTransform pads mask by `padding` on every side and converts
// the binary coverage into the dual-channel (text alpha in A, shadow
// alpha in G) SDF texel format. The boundary between inside and outside
// coverage sits at threshold (0.7) rather than the conventional 0.5,
// reserving the band below it (down to cutoff) for the shadow's outer
// falloff.
func distanceTransform(mask *image.Alpha, w0, h0 int) ([]byte, int, int) {
	pw := w0 + 2*padding
	ph := h0 + 2*padding

	inside := func(x, y int) bool {
		mx, my := x-padding, y-padding
		if mx < 0 || mx >= w0 || my < 0 || my >= h0 {
			return false
		}
		return mask.AlphaAt(mx, my).A >= 128
	}

	rgba := make([]byte, pw*ph*4)
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			in := inside(x, y)
			d := nearestOppositeDistance(x, y, pw, ph, inside, in)
			s := distanceToValue(d, in)

			textAlpha := smoothstep(threshold-smoothing, threshold+smoothing, s)
			shadowAlpha := shadowFalloff(s)

			i := (y*pw + x) * 4
			rgba[i+0] = 255
			rgba[i+1] = byte(clamp01(shadowAlpha) * 255)
			rgba[i+2] = 255
			rgba[i+3] = byte(clamp01(textAlpha) * 255)
		}
	}
	return rgba, pw, ph
}

// nearestOppositeDistance finds the Euclidean pixel distance from (x,y) to
// the nearest pixel whose inside/outside class differs from `in`, searching
// outward up to `radius` pixels and clamping to radius if none is found.
func nearestOppositeDistance(x, y, w, h int, inside func(x, y int) bool, in bool) float64 {
	best := radius
	r := int(math.Ceil(radius))
	for dy := -r; dy <= r; dy++ {
		ny := y + dy
		if ny < 0 || ny >= h {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			nx := x + dx
			if nx < 0 || nx >= w {
				continue
			}
			if inside(nx, ny) == in {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d < best {
				best = d
			}
		}
	}
	return best
}

// distanceToValue maps a pixel distance to the packed [0,1] SDF value,
// placing the inside/outside boundary (distance 0) at `threshold` and
// clamping the floor at `cutoff`.
func distanceToValue(d float64, in bool) float64 {
	normalized := d / radius
	if normalized > 1 {
		normalized = 1
	}
	var s float64
	if in {
		s = threshold + normalized*(1-threshold)
	} else {
		s = threshold - normalized*threshold
	}
	if s < cutoff {
		s = cutoff
	}
	return s
}

func shadowFalloff(s float64) float64 {
	if s >= shadowInner {
		return 0
	}
	if s <= shadowOuter {
		return 0
	}
	t := (s - shadowOuter) / (shadowInner - shadowOuter)
	return t * t * (3 - 2*t)
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	return clamp01(t) * clamp01(t) * (3 - 2*clamp01(t))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
