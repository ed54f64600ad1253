package render_test

import (
	"os"
	"path/filepath"
	"testing"

	"elevroute/pkg/graph"
	"elevroute/pkg/profile"
	"elevroute/pkg/render"
	"elevroute/pkg/route"
)

func buildLineGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.RawNode{
		{ID: 1, X: 0, Y: 0, Elev: 10},
		{ID: 2, X: 160, Y: 0, Elev: 16},
		{ID: 3, X: 320, Y: 0, Elev: 10},
	}
	edges := []graph.RawEdge{
		{ID: 100, From: 1, To: 2, Length: 160, Climb: 6},
		{ID: 101, From: 2, To: 3, Length: 160, Climb: -6},
	}
	g, err := graph.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestSaveMapWritesNonEmptyPNG(t *testing.T) {
	g := buildLineGraph(t)
	e0, _ := g.EdgeIndex(100)
	e1, _ := g.EdgeIndex(101)

	r := &route.Route{StartFraction: 0, EndFraction: 1, Edges: []int32{e0, e1}, TotalLength: 320}

	path := filepath.Join(t.TempDir(), "map.png")
	if err := render.SaveMap(g, r, render.MapOptions{CenterX: 80, CenterY: 0, Radius: 50}, path); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	assertNonEmptyFile(t, path)
}

func TestSaveMapWithoutRoute(t *testing.T) {
	g := buildLineGraph(t)
	path := filepath.Join(t.TempDir(), "map_no_route.png")
	if err := render.SaveMap(g, nil, render.MapOptions{}, path); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	assertNonEmptyFile(t, path)
}

func TestSaveProfileWritesNonEmptyPNG(t *testing.T) {
	target, err := profile.New([]profile.Point{{S: 0, Z: 0}, {S: 160, Z: 8}, {S: 320, Z: 2}})
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	actual, err := profile.New([]profile.Point{{S: 0, Z: 0}, {S: 160, Z: 6}, {S: 320, Z: 0}})
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "profile.png")
	if err := render.SaveProfile(target, actual, render.ProfileOptions{}, path); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	assertNonEmptyFile(t, path)
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s): %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}
