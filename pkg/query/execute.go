package query

import (
	"context"

	"elevroute/pkg/beam"
	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
	"elevroute/pkg/route"
	"elevroute/pkg/seed"
)

// Execute runs one parsed query end to end: seeds from the spatial
// index, runs the beam search engine, and translates the resulting
// route's compact edge indices back to the caller-supplied edge IDs.
// It is the shared driver behind cmd/query and cmd/interactive.
func Execute(ctx context.Context, g *graph.Graph, idx *geoindex.Index, engine *beam.Engine, q Query, opts beam.Options) (route.Route, []int64, route.Telemetry, error) {
	seeds := seed.Generate(g, idx, q.CenterX, q.CenterY, q.Radius)

	r, telem, err := engine.Run(ctx, q.Target, seeds, opts)
	if err != nil {
		return route.Route{}, nil, telem, err
	}

	edgeIDs := make([]int64, len(r.Edges))
	for i, e := range r.Edges {
		edgeIDs[i] = g.Edge(e).ID
	}
	return r, edgeIDs, telem, nil
}
