// SPDX-License-Identifier: Unlicense OR MIT

// Package shape assigns each rune of the input text to a font in the
// fallback tower by glyph coverage, groups consecutive runes sharing the
// same assignment into runs, and shapes each run with
// go-text/typesetting's HarfbuzzShaper.
package shape

import (
	gofont "github.com/go-text/typesetting/font"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// Face is the capability a fallback tower entry needs: coverage lookup for
// AssignRuns, the underlying go-text/typesetting face for shaping, and
// units-per-em for scaling design-space outlines to pixels (needed by
// package sdf's rasterizer; the engine's per-glyph loop uses the shaper's
// pixel-space output as-is).
// github.com/YuKongA/glyphatlas/font.Face satisfies it.
type Face interface {
	Covers(r rune) bool
	Face() gofont.Face
	Upem() int
}

// Tower is the ordered list of fonts glyphs are matched against: index 0
// is always the primary font, and indices 1.. are fallbacks in
// registration order. The lowest covering index wins.
type Tower struct {
	faces []Face
}

// NewTower returns an empty tower; SetPrimary must be called before
// AssignRuns can do anything useful.
func NewTower() *Tower {
	return &Tower{}
}

// SetPrimary installs or replaces the font at tower index 0.
func (t *Tower) SetPrimary(f Face) {
	if len(t.faces) == 0 {
		t.faces = append(t.faces, f)
		return
	}
	t.faces[0] = f
}

// AddFallback appends f to the tower and returns its index.
func (t *Tower) AddFallback(f Face) int {
	t.faces = append(t.faces, f)
	return len(t.faces) - 1
}

// ClearFallbacks drops every font but the primary.
func (t *Tower) ClearFallbacks() {
	if len(t.faces) > 1 {
		t.faces = t.faces[:1]
	}
}

// Face returns the font registered at id.
func (t *Tower) Face(id int) Face {
	return t.faces[id]
}

// Len reports how many fonts are registered, including the primary.
func (t *Tower) Len() int {
	return len(t.faces)
}

// Run is a maximal span of consecutive runes of the input text assigned to
// the same font in the tower.
type Run struct {
	FontID     int
	Start, End int // rune indices into the text AssignRuns was called with
}

// AssignRuns walks text once, assigning each rune to the first font in the
// tower whose NominalGlyph lookup reports coverage, and falls back to the
// primary font's .notdef glyph when no font covers it. Consecutive runes
// that land on the same font are coalesced into one Run, so the returned
// slice partitions [0, len(text)) exactly. missing holds each distinct
// uncovered rune once, in the order it was first seen, for the engine's
// diagnostic log line.
func AssignRuns(tower *Tower, text []rune) (runs []Run, missing []rune) {
	if len(text) == 0 || tower.Len() == 0 {
		return nil, nil
	}

	seen := make(map[rune]bool)
	assign := func(r rune) int {
		for id, f := range tower.faces {
			if f.Covers(r) {
				return id
			}
		}
		if !seen[r] {
			seen[r] = true
			missing = append(missing, r)
		}
		return 0
	}

	current := assign(text[0])
	start := 0
	for i := 1; i < len(text); i++ {
		fid := assign(text[i])
		if fid == current {
			continue
		}
		runs = append(runs, Run{FontID: current, Start: start, End: i})
		current = fid
		start = i
	}
	runs = append(runs, Run{FontID: current, Start: start, End: len(text)})
	return runs, missing
}

// Shaper drives go-text/typesetting's complex-script shaper over the runs
// AssignRuns produces. It holds the scratch a bidi.Paragraph needs so
// repeated calls don't reallocate it.
type Shaper struct {
	hb shaping.HarfbuzzShaper
	bp bidi.Paragraph
}

// NewShaper returns a ready-to-use Shaper.
func NewShaper() *Shaper {
	return &Shaper{}
}

// ShapeRuns shapes each run independently at sizePx and returns one
// shaping.Output per run, in the same order as runs. The per-run
// Script/Direction fields only steer HarfbuzzShaper's internal script
// engine selection; run order and rune order are never permuted here.
// Visual bidi reordering belongs to the caller's layout layer.
func (s *Shaper) ShapeRuns(tower *Tower, runs []Run, text []rune, sizePx float32) []shaping.Output {
	outs := make([]shaping.Output, 0, len(runs))
	ppem := floatToFixed(sizePx)
	for _, run := range runs {
		face := tower.Face(run.FontID)
		sub := text[run.Start:run.End]
		input := shaping.Input{
			Text:      text,
			RunStart:  run.Start,
			RunEnd:    run.End,
			Direction: s.direction(sub),
			Face:      face.Face(),
			Size:      ppem,
			Script:    dominantScript(sub),
			Language:  language.NewLanguage(""),
		}
		outs = append(outs, s.hb.Shape(input))
	}
	return outs
}

// direction picks the dominant paragraph direction of a run by taking
// the direction of its first bidi run rather than classifying
// rune-by-rune.
func (s *Shaper) direction(rs []rune) di.Direction {
	if len(rs) == 0 {
		return di.DirectionLTR
	}
	s.bp.SetString(string(rs), bidi.DefaultDirection(bidi.LeftToRight))
	out, err := s.bp.Order()
	if err != nil || out.NumRuns() == 0 {
		return di.DirectionLTR
	}
	run := out.Run(0)
	if run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// dominantScript returns the script of the first non-Common rune in rs,
// skipping common punctuation and digits before committing. Runs here are
// already single-font and need no further script-based splitting.
func dominantScript(rs []rune) language.Script {
	for _, r := range rs {
		if sc := language.LookupScript(r); sc != language.Common {
			return sc
		}
	}
	if len(rs) > 0 {
		return language.LookupScript(rs[0])
	}
	return language.Common
}

func floatToFixed(px float32) fixed.Int26_6 {
	return fixed.Int26_6(px*64 + 0.5)
}
