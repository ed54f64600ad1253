// Command query runs the batch query-text protocol (§6) against a
// preprocessed graph: it reads a query count followed by that many
// query lines from stdin, and writes one result line per query to
// stdout.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"elevroute/pkg/beam"
	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
	"elevroute/pkg/query"
)

func main() {
	graphPath := flag.String("input", "graph.bin", "Path to preprocessed graph binary")
	width := flag.Int("beam-width", beam.DefaultWidth, "Beam search width K")
	useOffset := flag.Bool("offset", false, "Minimize area-under-curve dissimilarity over a vertical offset")
	revisitPenalty := flag.Float64("revisit-penalty", 0, "Soft penalty per recently revisited edge (0 disables)")
	perQueryTimeout := flag.Duration("per-query-timeout", 0, "Cancel an individual query after this long (0 = no deadline)")
	flag.Parse()

	log.Printf("Loading graph from %s...", *graphPath)
	g, err := graph.ReadBinary(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	log.Printf("Loaded: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	idx, err := geoindex.Build(g)
	if err != nil {
		log.Fatalf("Failed to build spatial index: %v", err)
	}

	engine := beam.NewEngine(g)
	opts := beam.Options{Width: *width, UseOffset: *useOffset, RevisitPenalty: *revisitPenalty}

	lines, err := query.ReadBatch(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read query batch: %v", err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for i, line := range lines {
		runOne(engine, g, idx, opts, *perQueryTimeout, i, line, out)
	}
}

func runOne(engine *beam.Engine, g *graph.Graph, idx *geoindex.Index, opts beam.Options, timeout time.Duration, i int, line string, out *bufio.Writer) {
	q, err := query.Parse(line)
	if err != nil {
		log.Printf("query %d: %v", i, err)
		fmt.Fprintln(out, query.FormatNone())
		return
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	r, edgeIDs, telem, err := query.Execute(ctx, g, idx, engine, q, opts)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.Printf("query %d: cost=%.3f states_expanded=%d states_pruned=%d elapsed=%s",
			i, r.Cost, telem.StatesExpanded, telem.StatesPruned, elapsed.Round(time.Millisecond))
		fmt.Fprintln(out, query.FormatRoute(r.StartFraction, r.EndFraction, edgeIDs))
	case errors.Is(err, beam.ErrNoFeasiblePath):
		log.Printf("query %d: no feasible path", i)
		fmt.Fprintln(out, query.FormatNone())
	case errors.Is(err, beam.ErrCancelled):
		log.Printf("query %d: cancelled after %s", i, elapsed.Round(time.Millisecond))
		fmt.Fprintln(out, "CANCELLED")
	default:
		log.Printf("query %d: %v", i, err)
		fmt.Fprintln(out, query.FormatNone())
	}
}
