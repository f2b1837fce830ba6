// SPDX-License-Identifier: Unlicense OR MIT

package sdf

import (
	"testing"
	"testing/quick"
)

func TestDistanceToValueBoundaryIsThreshold(t *testing.T) {
	if v := distanceToValue(0, true); v != threshold {
		t.Fatalf("inside distance 0 should sit exactly at threshold, got %v", v)
	}
	if v := distanceToValue(0, false); v != threshold {
		t.Fatalf("outside distance 0 should sit exactly at threshold, got %v", v)
	}
}

func TestDistanceToValueSaturatesAtRadius(t *testing.T) {
	if v := distanceToValue(radius, true); v != 1 {
		t.Fatalf("inside distance >= radius should saturate to 1, got %v", v)
	}
	if v := distanceToValue(radius, false); v != cutoff {
		t.Fatalf("outside distance >= radius should floor at cutoff, got %v", v)
	}
}

func TestDistanceToValueNeverBelowCutoff(t *testing.T) {
	f := func(d float64, in bool) bool {
		if d < 0 {
			d = -d
		}
		return distanceToValue(d, in) >= cutoff
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestShadowFalloffZeroOutsideItsBand(t *testing.T) {
	if shadowFalloff(threshold) != 0 {
		t.Fatal("expected zero shadow alpha at/above the text threshold")
	}
	if shadowFalloff(shadowOuter) != 0 {
		t.Fatal("expected zero shadow alpha at the outer edge")
	}
	mid := (shadowOuter + shadowInner) / 2
	if g := shadowFalloff(mid); g <= 0 || g >= 1 {
		t.Fatalf("expected a mid-band shadow alpha strictly between 0 and 1, got %v", g)
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := smoothstep(0.3, 0.5, 0)
	for _, x := range []float64{0.1, 0.2, 0.3, 0.35, 0.4, 0.45, 0.5, 0.6, 1.0} {
		v := smoothstep(0.3, 0.5, x)
		if v < prev {
			t.Fatalf("smoothstep not monotonic at x=%v: %v < %v", x, v, prev)
		}
		prev = v
	}
}

func TestEmptyResultSentinel(t *testing.T) {
	r := emptyResult()
	if !r.Empty || r.Width != 1 || r.Height != 1 || len(r.RGBA) != 4 {
		t.Fatalf("unexpected empty sentinel: %+v", r)
	}
	for _, b := range r.RGBA {
		if b != 0 {
			t.Fatalf("expected a fully transparent sentinel, got %v", r.RGBA)
		}
	}
}
