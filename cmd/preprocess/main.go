// Command preprocess converts a JSONL node/edge extract into the
// binary graph format consumed by query, interactive, and visualize.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"elevroute/pkg/graph"
	"elevroute/pkg/ingest"
)

func main() {
	input := flag.String("input", "", "Path to JSONL input file")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.jsonl> [--output graph.bin]")
		os.Exit(1)
	}

	start := time.Now()

	log.Println("Opening JSONL file...")
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Println("Parsing JSONL records...")
	g, meta, err := ingest.Parse(f)
	if err != nil {
		log.Fatalf("Failed to parse JSONL data: %v", err)
	}
	log.Printf("Graph: %d nodes, %d edges (crs=%s)", g.NumNodes(), g.NumEdges(), meta.CRS)

	log.Println("Extracting largest connected component...")
	componentNodes := graph.LargestComponent(g)
	var componentPct float64
	if g.NumNodes() > 0 {
		componentPct = float64(len(componentNodes)) / float64(g.NumNodes()) * 100
	}
	log.Printf("Largest component: %d nodes (%.1f%%)", len(componentNodes), componentPct)
	g, err = graph.FilterToComponent(g, componentNodes)
	if err != nil {
		log.Fatalf("Failed to filter to largest component: %v", err)
	}
	log.Printf("Filtered graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	log.Printf("Writing binary to %s...", *output)
	if err := graph.WriteBinary(*output, g); err != nil {
		log.Fatalf("Failed to write binary: %v", err)
	}

	info, _ := os.Stat(*output)
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Second), *output, float64(info.Size())/(1024*1024))
}
