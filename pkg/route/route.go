// Package route implements the result assembler (§4.6): it recovers a
// beam search path, trims its endpoints to fractional anchors, re-derives
// the final profile-matching cost for reporting, and verifies the route's
// invariants before it is handed back to a caller.
package route

import (
	"errors"
	"fmt"
	"math"

	"elevroute/pkg/graph"
	"elevroute/pkg/profile"
)

// ErrInconsistent is returned when a reconstructed route fails its own
// invariants: a bug indicator, not a user error, per §7.
var ErrInconsistent = errors.New("route: internal invariant violated")

// Route is a contiguous, directed path through the graph anchored at
// fractional positions on its first and last edges.
type Route struct {
	StartFraction float64
	EndFraction   float64
	Edges         []int32 // compact edge indices, in traversal order
	TotalLength   float64
	Cost          float64
	Offset        float64
}

// Telemetry carries search statistics and the recomputed final cost,
// reported alongside a Route for diagnostics.
type Telemetry struct {
	StatesExpanded int
	StatesPruned   int
	FinalCost      float64
	Offset         float64
}

// Tolerance returns epsilon, the maximum acceptable absolute deviation
// from target length L: max(5m, 0.05*L), per the glossary.
func Tolerance(length float64) float64 {
	eps := 0.05 * length
	if eps < 5 {
		eps = 5
	}
	return eps
}

// PathInput is the raw material handed from the beam search engine to
// Assemble: the edge sequence and fractional anchors of a candidate route,
// before its final cost has been independently re-derived.
type PathInput struct {
	StartFraction float64
	EndFraction   float64
	Edges         []int32
	TotalLength   float64
}

// Assemble builds the actual elevation profile for in, computes its final
// dissimilarity against target (using the truncation-plus-penalty overlap
// convention, §9), verifies the route's invariants, and returns the
// resulting Route. Returns ErrInconsistent if verification fails.
func Assemble(g *graph.Graph, target *profile.Profile, in PathInput, useOffset bool) (Route, error) {
	if len(in.Edges) == 0 {
		return Route{}, fmt.Errorf("%w: empty edge list", ErrInconsistent)
	}
	if in.StartFraction < 0 || in.StartFraction > 1 || in.EndFraction < 0 || in.EndFraction > 1 {
		return Route{}, fmt.Errorf("%w: fraction out of [0,1]", ErrInconsistent)
	}

	points, totalLen, err := actualProfilePoints(g, in)
	if err != nil {
		return Route{}, err
	}

	actual, err := profile.New(points)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInconsistent, err)
	}

	cost, offset := profile.TruncatedCost(actual, target, useOffset)

	r := Route{
		StartFraction: in.StartFraction,
		EndFraction:   in.EndFraction,
		Edges:         in.Edges,
		TotalLength:   totalLen,
		Cost:          cost,
		Offset:        offset,
	}

	if err := Verify(g, target, r); err != nil {
		return Route{}, err
	}
	return r, nil
}

// actualProfilePoints walks in.Edges, trimming the first edge at
// StartFraction and the last at EndFraction, and returns the resulting
// piecewise-linear breakpoints plus the total trimmed length.
func actualProfilePoints(g *graph.Graph, in PathInput) ([]profile.Point, float64, error) {
	points := []profile.Point{{S: 0, Z: 0}}

	var cum float64
	var elev float64

	for i, e := range in.Edges {
		length := g.EdgeLength(e)
		climb := g.EdgeClimb(e)

		segStart, segEnd := 0.0, 1.0
		if i == 0 {
			segStart = in.StartFraction
		}
		if i == len(in.Edges)-1 {
			segEnd = in.EndFraction
		}
		if segEnd < segStart {
			return nil, 0, fmt.Errorf("%w: edge %d end fraction before start fraction", ErrInconsistent, e)
		}

		segLen := (segEnd - segStart) * length
		segClimb := (segEnd - segStart) * climb
		if segLen == 0 {
			// A zero-length contribution (e.g. a seed clamped exactly to an
			// edge's end node) adds no breakpoint; profile.New requires s
			// strictly increasing.
			continue
		}

		cum += segLen
		elev += segClimb
		points = append(points, profile.Point{S: cum, Z: elev})
	}

	return points, cum, nil
}

// Verify checks the route invariants from §8: connectivity between
// consecutive edges, fraction bounds, and length tolerance against the
// target's length.
func Verify(g *graph.Graph, target *profile.Profile, r Route) error {
	if r.StartFraction < 0 || r.StartFraction > 1 || r.EndFraction < 0 || r.EndFraction > 1 {
		return fmt.Errorf("%w: fraction out of [0,1]", ErrInconsistent)
	}
	if len(r.Edges) == 0 {
		return fmt.Errorf("%w: empty route", ErrInconsistent)
	}

	for i := 0; i < len(r.Edges)-1; i++ {
		_, to := g.EdgeFromTo(r.Edges[i])
		from, _ := g.EdgeFromTo(r.Edges[i+1])
		if to != from {
			return fmt.Errorf("%w: edges %d and %d do not share a node", ErrInconsistent, r.Edges[i], r.Edges[i+1])
		}
	}

	L := target.Length()
	eps := Tolerance(L)
	if math.Abs(r.TotalLength-L) > eps {
		return fmt.Errorf("%w: length %f outside tolerance of target %f (eps=%f)", ErrInconsistent, r.TotalLength, L, eps)
	}

	return nil
}
