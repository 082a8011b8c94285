// Package rangeanalysis implements the floating-point interval analysis:
// the Range lattice and the worklist pass that derives one Range per
// floating-point instruction.
package rangeanalysis

import (
	"fmt"
	"math"
)

type kind int

const (
	kindInterval kind = iota
	kindTop
	kindBottom
)

// Range is the interval lattice element: Top (unconstrained), Bottom
// (unreachable/empty, absorbing under arithmetic and neutral under join),
// or a concrete [Min, Max] interval.
type Range struct {
	k        kind
	Min, Max float64
}

// Top is the unconstrained element: every double is in range. Min/Max are
// set to the full real line (not the zero value) so control-dependent
// narrowing can treat Top as an ordinary half-open interval instead of
// special-casing it.
var Top = Range{k: kindTop, Min: math.Inf(-1), Max: math.Inf(1)}

// Bottom is the empty/unreachable element.
func Bottom() Range { return Range{k: kindBottom} }

// New builds an interval range. A malformed interval (min > max) collapses
// to Bottom rather than being rejected.
func New(min, max float64) Range {
	if min > max {
		return Bottom()
	}
	return Range{k: kindInterval, Min: min, Max: max}
}

// Point builds a single-value range.
func Point(v float64) Range { return New(v, v) }

func (r Range) IsTop() bool    { return r.k == kindTop }
func (r Range) IsBottom() bool { return r.k == kindBottom }
func (r Range) IsValid() bool  { return r.k == kindInterval }

func (r Range) String() string {
	switch r.k {
	case kindTop:
		return "Top"
	case kindBottom:
		return "Bottom"
	default:
		return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
	}
}

// Equal is bit-exact float comparison between range endpoints, not an
// epsilon-tolerant comparison. Two ranges that differ by a rounding ULP are
// not equal; callers that test against Top or a seeded annotation depend on
// this staying exact.
func (r Range) Equal(o Range) bool {
	if r.k != o.k {
		return false
	}
	if r.k != kindInterval {
		return true
	}
	return r.Min == o.Min && r.Max == o.Max
}

// Add is interval addition: Bottom absorbs, Top absorbs in its absence.
func (r Range) Add(o Range) Range {
	if r.IsBottom() || o.IsBottom() {
		return Bottom()
	}
	if r.IsTop() || o.IsTop() {
		return Top
	}
	return New(r.Min+o.Min, r.Max+o.Max)
}

// Sub is interval subtraction. Note this is NOT the four-corner bound
// [a-d, b-c]: it is min/max over (Min-Min, Max-Max), which is narrower than
// the mathematically correct result whenever the right operand's interval
// isn't a single point. TODO: widen to the four-corner bound once the
// downstream equality checks that currently depend on the narrow form are
// audited.
func (r Range) Sub(o Range) Range {
	if r.IsBottom() || o.IsBottom() {
		return Bottom()
	}
	if r.IsTop() || o.IsTop() {
		return Top
	}
	lo, hi := r.Min-o.Min, r.Max-o.Max
	return New(math.Min(lo, hi), math.Max(lo, hi))
}

// Mul is interval multiplication via the standard four-corner bound.
func (r Range) Mul(o Range) Range {
	if r.IsBottom() || o.IsBottom() {
		return Bottom()
	}
	if r.IsTop() || o.IsTop() {
		return Top
	}
	corners := [4]float64{r.Min * o.Min, r.Min * o.Max, r.Max * o.Min, r.Max * o.Max}
	return New(minOf(corners[:]), maxOf(corners[:]))
}

// Div is interval division via the four-corner bound. A divisor range that
// contains zero is not special-cased: the raw corner quotients are kept, so a
// divisor endpoint of exactly zero puts IEEE infinities (or NaN for 0/0) into
// the result, while a divisor that straddles zero without touching it yields
// a finite range that does not cover quotients by divisors near zero.
func (r Range) Div(o Range) Range {
	if r.IsBottom() || o.IsBottom() {
		return Bottom()
	}
	if r.IsTop() || o.IsTop() {
		return Top
	}
	corners := [4]float64{r.Min / o.Min, r.Min / o.Max, r.Max / o.Min, r.Max / o.Max}
	return New(minOf(corners[:]), maxOf(corners[:]))
}

// Join is the lattice union (the `|` operator): Bottom is the neutral
// element, Top is absorbing.
func (r Range) Join(o Range) Range {
	if r.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return r
	}
	if r.IsTop() || o.IsTop() {
		return Top
	}
	return New(math.Min(r.Min, o.Min), math.Max(r.Max, o.Max))
}

// Meet is the lattice intersection (the `&` operator): Bottom is absorbing,
// Top is the neutral element.
func (r Range) Meet(o Range) Range {
	if r.IsBottom() || o.IsBottom() {
		return Bottom()
	}
	if r.IsTop() {
		return o
	}
	if o.IsTop() {
		return r
	}
	return New(math.Max(r.Min, o.Min), math.Min(r.Max, o.Max))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
