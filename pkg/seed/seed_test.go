package seed_test

import (
	"testing"

	"elevroute/pkg/geo"
	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
	"elevroute/pkg/seed"
)

func buildGridGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.RawNode{
		{ID: 1, X: 0, Y: 0, Elev: 10},
		{ID: 2, X: 160, Y: 0, Elev: 15},
		{ID: 3, X: 0, Y: 160, Elev: 12},
		{ID: 4, X: 160, Y: 160, Elev: 20},
	}
	edges := []graph.RawEdge{
		{ID: 100, From: 1, To: 2, Length: 160, Climb: 5},
		{ID: 101, From: 1, To: 3, Length: 160, Climb: 2},
		{ID: 102, From: 2, To: 4, Length: 160, Climb: 5},
		{ID: 103, From: 3, To: 4, Length: 160, Climb: 8},
	}
	g, err := graph.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestGenerateOrdersByDistance(t *testing.T) {
	g := buildGridGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("geoindex.Build: %v", err)
	}

	seeds := seed.Generate(g, idx, 80, 5, 60)
	if len(seeds) == 0 {
		t.Fatal("expected at least one seed")
	}
	for i := 1; i < len(seeds); i++ {
		if seeds[i].Dist < seeds[i-1].Dist {
			t.Fatalf("seeds not sorted by ascending distance: %+v", seeds)
		}
	}
}

func TestSeedCompleteness(t *testing.T) {
	g := buildGridGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("geoindex.Build: %v", err)
	}

	cx, cy, r := 80.0, 80.0, 120.0
	seeds := seed.Generate(g, idx, cx, cy, r)

	seen := make(map[int32]bool, len(seeds))
	for _, s := range seeds {
		seen[s.Edge] = true
	}

	for e := int32(0); e < int32(g.NumEdges()); e++ {
		u, v := g.EdgeFromTo(e)
		ax, ay := g.NodeXY(u)
		bx, by := g.NodeXY(v)
		dist, _ := geo.PointToSegmentDist(cx, cy, ax, ay, bx, by)
		if dist <= r && !seen[e] {
			t.Errorf("edge %d at distance %f <= r=%f missing from seeds", e, dist, r)
		}
	}
}

func TestGenerateEmptyWhenNoEdgesInRange(t *testing.T) {
	g := buildGridGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("geoindex.Build: %v", err)
	}

	seeds := seed.Generate(g, idx, 10000, 10000, 1)
	if len(seeds) != 0 {
		t.Errorf("got %d seeds far from any edge, want 0", len(seeds))
	}
}

func TestGenerateFractionsClamped(t *testing.T) {
	g := buildGridGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("geoindex.Build: %v", err)
	}

	seeds := seed.Generate(g, idx, 80, 80, 200)
	for _, s := range seeds {
		if s.StartFraction < 0 || s.StartFraction > 1 {
			t.Errorf("seed %+v has StartFraction outside [0,1]", s)
		}
	}
}
