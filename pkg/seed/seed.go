// Package seed generates beam search starting points from a geographic
// disk query, per §4.4 of the routing engine design.
package seed

import (
	"sort"

	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
)

// Seed is a candidate starting point for the beam search: edge e,
// entered at fractional position StartFraction along it, at distance
// Dist from the query center.
type Seed struct {
	Edge          int32
	StartFraction float64
	Dist          float64
}

// Generate queries idx for every edge intersecting disk(c, r) and emits
// one seed per matching edge, ordered by ascending distance from the
// center (a search-order bias, not a correctness requirement per §4.4).
func Generate(g *graph.Graph, idx *geoindex.Index, cx, cy, r float64) []Seed {
	hits := idx.QueryDisk(cx, cy, r)

	seeds := make([]Seed, len(hits))
	for i, h := range hits {
		seeds[i] = Seed{
			Edge:          h.Edge,
			StartFraction: clamp01(h.Ratio),
			Dist:          h.Dist,
		}
	}

	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Dist < seeds[j].Dist })
	return seeds
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
