// Command visualize renders a PNG map of one query's route and a PNG
// comparing its target and actual elevation profiles, built on
// gonum.org/v1/plot. It replaces the donor's HTML/JS reverse-proxy
// comparison tool, since this spec has no competing routing API to
// compare against.
package main

import (
	"context"
	"flag"
	"log"

	"elevroute/pkg/beam"
	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
	"elevroute/pkg/profile"
	"elevroute/pkg/query"
	"elevroute/pkg/render"
	"elevroute/pkg/route"
)

func main() {
	graphPath := flag.String("input", "graph.bin", "Path to preprocessed graph binary")
	cx := flag.Float64("cx", 0, "Search disk center x")
	cy := flag.Float64("cy", 0, "Search disk center y")
	distance := flag.Float64("distance", 0, "Search disk radius")
	profileCSV := flag.String("profile", "", "CSV file of \"s,z\" target profile breakpoints")
	useOffset := flag.Bool("offset", false, "Minimize area-under-curve dissimilarity over a vertical offset")
	width := flag.Int("beam-width", beam.DefaultWidth, "Beam search width K")
	mapOutput := flag.String("map-output", "map.png", "Output path for the route map PNG")
	profileOutput := flag.String("profile-output", "profile.png", "Output path for the elevation profile PNG")
	flag.Parse()

	if *profileCSV == "" {
		log.Fatal("missing required -profile <csv>")
	}

	log.Printf("Loading graph from %s...", *graphPath)
	g, err := graph.ReadBinary(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}

	idx, err := geoindex.Build(g)
	if err != nil {
		log.Fatalf("Failed to build spatial index: %v", err)
	}

	target, err := profile.LoadCSV(*profileCSV)
	if err != nil {
		log.Fatalf("Failed to load target profile: %v", err)
	}

	q := query.Query{CenterX: *cx, CenterY: *cy, Radius: *distance, Target: target}
	engine := beam.NewEngine(g)
	opts := beam.Options{Width: *width, UseOffset: *useOffset}

	r, _, telem, err := query.Execute(context.Background(), g, idx, engine, q, opts)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	log.Printf("Route found: cost=%.3f offset=%.3f length=%.1f states_expanded=%d",
		r.Cost, telem.Offset, r.TotalLength, telem.StatesExpanded)

	mapOpts := render.MapOptions{CenterX: *cx, CenterY: *cy, Radius: *distance}
	if err := render.SaveMap(g, &r, mapOpts, *mapOutput); err != nil {
		log.Fatalf("Failed to render map: %v", err)
	}
	log.Printf("Wrote %s", *mapOutput)

	actual, err := actualProfile(g, r)
	if err != nil {
		log.Fatalf("Failed to derive actual profile: %v", err)
	}
	if err := render.SaveProfile(target, actual, render.ProfileOptions{}, *profileOutput); err != nil {
		log.Fatalf("Failed to render profile: %v", err)
	}
	log.Printf("Wrote %s", *profileOutput)
}

// actualProfile rebuilds the route's piecewise-linear elevation curve
// for plotting, the same way pkg/route does internally to score it.
func actualProfile(g *graph.Graph, r route.Route) (*profile.Profile, error) {
	points := []profile.Point{{S: 0, Z: 0}}
	var cum, elev float64
	for i, e := range r.Edges {
		length := g.EdgeLength(e)
		climb := g.EdgeClimb(e)

		t0, t1 := 0.0, 1.0
		if i == 0 {
			t0 = r.StartFraction
		}
		if i == len(r.Edges)-1 {
			t1 = r.EndFraction
		}

		segLen := (t1 - t0) * length
		if segLen == 0 {
			continue
		}
		cum += segLen
		elev += (t1 - t0) * climb
		points = append(points, profile.Point{S: cum, Z: elev})
	}
	return profile.New(points)
}
