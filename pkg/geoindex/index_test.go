package geoindex_test

import (
	"errors"
	"testing"

	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
)

func buildSquareGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.RawNode{
		{ID: 1, X: 0, Y: 0, Elev: 0},
		{ID: 2, X: 100, Y: 0, Elev: 0},
		{ID: 3, X: 100, Y: 100, Elev: 0},
		{ID: 4, X: 0, Y: 100, Elev: 0},
	}
	edges := []graph.RawEdge{
		{ID: 10, From: 1, To: 2, Length: 100, Climb: 0},
		{ID: 11, From: 2, To: 3, Length: 100, Climb: 0},
		{ID: 12, From: 3, To: 4, Length: 100, Climb: 0},
		{ID: 13, From: 4, To: 1, Length: 100, Climb: 0},
	}
	g, err := graph.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildRejectsEmptyGraph(t *testing.T) {
	g, err := graph.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = geoindex.Build(g)
	if !errors.Is(err, geoindex.ErrEmptyGraph) {
		t.Fatalf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestQueryDiskFindsIntersectingEdges(t *testing.T) {
	g := buildSquareGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// A disk centered at (50, 0) with radius 10 should hit only the
	// bottom edge (1->2), not the left or right edges.
	hits := idx.QueryDisk(50, 0, 10)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1: %+v", len(hits), hits)
	}
	if hits[0].Edge != 0 {
		edge := g.Edge(hits[0].Edge)
		if edge.ID != 10 {
			t.Errorf("hit edge ID = %d, want 10", edge.ID)
		}
	}
	if hits[0].Dist > 1e-9 {
		t.Errorf("dist = %f, want ~0", hits[0].Dist)
	}
}

func TestQueryDiskFindsCorner(t *testing.T) {
	g := buildSquareGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// A small disk at the corner (100,0) should intersect both adjacent edges.
	hits := idx.QueryDisk(100, 0, 5)
	if len(hits) != 2 {
		t.Fatalf("got %d hits at corner, want 2: %+v", len(hits), hits)
	}
}

func TestQueryDiskEmptyWhenFar(t *testing.T) {
	g := buildSquareGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	hits := idx.QueryDisk(1000, 1000, 5)
	if len(hits) != 0 {
		t.Fatalf("got %d hits far away, want 0", len(hits))
	}
}

func TestQueryDiskZeroRadiusAtEdge(t *testing.T) {
	g := buildSquareGraph(t)
	idx, err := geoindex.Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	hits := idx.QueryDisk(50, 0, 0)
	if len(hits) != 1 {
		t.Fatalf("got %d hits for zero-radius on-edge query, want 1", len(hits))
	}

	hits = idx.QueryDisk(50, 1, 0)
	if len(hits) != 0 {
		t.Fatalf("got %d hits for zero-radius off-edge query, want 0", len(hits))
	}
}
