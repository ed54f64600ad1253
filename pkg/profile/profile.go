// Package profile implements piecewise-linear elevation profiles and the
// area-under-curve dissimilarity used by the beam search engine and the
// result assembler to score routes against a target profile.
package profile

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrMalformedProfile is returned by New when the input points violate
// the piecewise-linear profile invariants (§3: s strictly increasing,
// s0 == 0).
var ErrMalformedProfile = errors.New("profile: malformed profile points")

// Point is one breakpoint (s, z) of a piecewise-linear profile.
type Point struct {
	S float64
	Z float64
}

// Profile is an immutable piecewise-linear curve z(s) on [0, Length()].
type Profile struct {
	points []Point
}

// New validates and wraps a sequence of breakpoints as a Profile. Points
// must have s[0] == 0, strictly increasing s, and no NaN/Inf values.
func New(points []Point) (*Profile, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrMalformedProfile)
	}
	if points[0].S != 0 {
		return nil, fmt.Errorf("%w: s0 = %f, want 0", ErrMalformedProfile, points[0].S)
	}
	for i, p := range points {
		if isNaNOrInf(p.S) || isNaNOrInf(p.Z) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrMalformedProfile, i)
		}
		if i > 0 && p.S <= points[i-1].S {
			return nil, fmt.Errorf("%w: s not strictly increasing at index %d", ErrMalformedProfile, i)
		}
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return &Profile{points: cp}, nil
}

func isNaNOrInf(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// Length returns the domain length (last breakpoint's s value).
func (p *Profile) Length() float64 { return p.points[len(p.points)-1].S }

// At evaluates the profile at s, linearly interpolating between
// breakpoints. s is clamped to [0, Length()].
func (p *Profile) At(s float64) float64 {
	if s <= 0 {
		return p.points[0].Z
	}
	last := len(p.points) - 1
	if s >= p.points[last].S {
		return p.points[last].Z
	}

	// Binary search for the segment containing s.
	i := sort.Search(len(p.points), func(i int) bool { return p.points[i].S >= s })
	if p.points[i].S == s {
		return p.points[i].Z
	}
	a, b := p.points[i-1], p.points[i]
	t := (s - a.S) / (b.S - a.S)
	return a.Z + t*(b.Z-a.Z)
}

// DefaultStep returns the default sampling step for a domain of the
// given length: max(1m, length/256), per §4.3.
func DefaultStep(length float64) float64 {
	step := length / 256
	if step < 1 {
		step = 1
	}
	return step
}

// Sample returns z(s) at a uniform grid 0, step, 2*step, ... up to and
// including overlapLen (the final sample may fall exactly on it).
func Sample(p *Profile, overlapLen, step float64) []float64 {
	if overlapLen <= 0 {
		return []float64{p.At(0)}
	}
	n := int(overlapLen/step) + 1
	out := make([]float64, 0, n+1)
	for s := 0.0; s < overlapLen; s += step {
		out = append(out, p.At(s))
	}
	out = append(out, p.At(overlapLen))
	return out
}

// overlap returns the common sampling domain length and step for f, g.
func overlap(f, g *Profile) (length, step float64) {
	length = f.Length()
	if g.Length() < length {
		length = g.Length()
	}
	return length, DefaultStep(length)
}

// AreaL1 computes the trapezoidal integral of |f - g| over the overlap
// of their domains. Per the overlap convention (§9), when domains
// differ, only the common prefix [0, min(Lf, Lg)] is compared.
func AreaL1(f, g *Profile) float64 {
	length, step := overlap(f, g)
	fs := Sample(f, length, step)
	gs := Sample(g, length, step)
	return trapezoidAbsDiff(fs, gs, length, step, 0)
}

// AreaL1Offset computes min_z0 integral of |f + z0 - g| over the overlap
// of domains, returning the minimal area and the minimizing offset. The
// minimizer is the weighted median of the residuals (g - f), weighted by
// local segment width, per §4.3/§9.
func AreaL1Offset(f, g *Profile) (area, offset float64) {
	length, step := overlap(f, g)
	fs := Sample(f, length, step)
	gs := Sample(g, length, step)

	n := len(fs)
	residuals := make([]float64, n)
	weights := make([]float64, n)
	for i := range fs {
		residuals[i] = gs[i] - fs[i]
		weights[i] = sampleWidth(i, n, step)
	}

	offset = weightedMedian(residuals, weights)
	return trapezoidAbsDiff(fs, gs, length, step, offset), offset
}

// sampleWidth returns the local segment width (sum of half the adjoining
// trapezoid widths) associated with sample index i of n uniform samples
// spaced by step, per the §9 guidance to weight by midpoint spacing.
func sampleWidth(i, n int, step float64) float64 {
	if n == 1 {
		return 1
	}
	switch i {
	case 0, n - 1:
		return step / 2
	default:
		return step
	}
}

// weightedMedian returns the weighted median of values, ties broken
// toward the lower residual per §4.3.
func weightedMedian(values, weights []float64) float64 {
	n := len(values)
	sorted := make([]float64, n)
	copy(sorted, values)
	inds := make([]int, n)
	floats.Argsort(sorted, inds)

	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return sorted[0]
	}

	half := total / 2
	var cum float64
	for i, origIdx := range inds {
		cum += weights[origIdx]
		if cum >= half {
			return sorted[i]
		}
	}
	return sorted[n-1]
}

// trapezoidAbsDiff integrates |fs + offset - gs| over the uniform grid
// [0, length] spaced by step via the trapezoidal rule.
func trapezoidAbsDiff(fs, gs []float64, length, step, offset float64) float64 {
	n := len(fs)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return 0
	}

	var area float64
	for i := 0; i < n-1; i++ {
		hi := absf(fs[i] + offset - gs[i])
		hj := absf(fs[i+1] + offset - gs[i+1])
		width := step
		if i == n-2 {
			// Last segment may be shorter if length isn't a multiple of step.
			width = length - step*float64(i)
		}
		area += 0.5 * (hi + hj) * width
	}
	return area
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TruncatedCost computes the area-under-curve dissimilarity between f and
// g under the truncation-plus-penalty overlap convention (§9 Open
// Question decision): compare on min(Lf, Lg) and add
// |Lf - Lg| * average|f - g| (averaged over the overlap) as a penalty
// for the uncompared remainder. useOffset selects AreaL1Offset over
// plain AreaL1 for the overlap comparison.
func TruncatedCost(f, g *Profile, useOffset bool) (cost, offset float64) {
	length, _ := overlap(f, g)

	if useOffset {
		cost, offset = AreaL1Offset(f, g)
	} else {
		cost = AreaL1(f, g)
	}

	lengthDiff := absf(f.Length() - g.Length())
	if lengthDiff > 0 && length > 0 {
		avgDiff := cost / length
		cost += lengthDiff * avgDiff
	}
	return cost, offset
}
