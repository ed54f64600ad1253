// Package geoindex provides disk-intersection queries over the road
// graph's edges, backed by an R-tree spatial index. It replaces the
// donor's flat sorted-grid Snapper (pkg/routing/snap.go) with a proper
// bounding-box index, since this engine must enumerate every edge that
// crosses a query disk rather than find a single nearest edge.
package geoindex

import (
	"errors"

	"github.com/tidwall/rtree"

	"elevroute/pkg/geo"
	"elevroute/pkg/graph"
)

// ErrEmptyGraph is returned by Build when the graph has no edges to index.
var ErrEmptyGraph = errors.New("geoindex: empty graph")

// Hit describes one edge that intersects a query disk.
type Hit struct {
	Edge  int32   // compact edge index
	Dist  float64 // distance from the query center to the closest point of the edge
	Ratio float64 // projection ratio along the edge, clamped to [0,1]
}

// Index is an R-tree over the bounding boxes of every edge in a graph.
// Safe for concurrent read-only queries once built.
type Index struct {
	tree rtree.RTreeG[int32]
	g    *graph.Graph
}

// Build bulk-inserts every edge of g into a fresh R-tree.
func Build(g *graph.Graph) (*Index, error) {
	if g.NumEdges() == 0 {
		return nil, ErrEmptyGraph
	}

	idx := &Index{g: g}
	for e := int32(0); e < int32(g.NumEdges()); e++ {
		minX, minY, maxX, maxY := g.EdgeBBox(e)
		idx.tree.Insert([2]float64{minX, minY}, [2]float64{maxX, maxY}, e)
	}
	return idx, nil
}

// QueryDisk returns every edge whose segment intersects the disk of the
// given radius centered at (cx, cy). The R-tree narrows candidates by
// bounding box; each candidate is then checked exactly against the disk
// via point-to-segment distance.
func (idx *Index) QueryDisk(cx, cy, radius float64) []Hit {
	var hits []Hit

	min := [2]float64{cx - radius, cy - radius}
	max := [2]float64{cx + radius, cy + radius}

	idx.tree.Search(min, max, func(_, _ [2]float64, data int32) bool {
		e := data
		u, v := idx.g.EdgeFromTo(e)
		ax, ay := idx.g.NodeXY(u)
		bx, by := idx.g.NodeXY(v)

		dist, ratio := geo.PointToSegmentDist(cx, cy, ax, ay, bx, by)
		if dist <= radius {
			hits = append(hits, Hit{Edge: e, Dist: dist, Ratio: ratio})
		}
		return true
	})

	return hits
}

// Len returns the number of edges indexed.
func (idx *Index) Len() int { return idx.g.NumEdges() }
