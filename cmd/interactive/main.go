// Command interactive is a REPL front end over the same query
// validation and beam search path cmd/query drives in batch, prompting
// for one query's fields at a time: center, radius, target length, then
// target-profile breakpoints.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"elevroute/pkg/beam"
	"elevroute/pkg/geoindex"
	"elevroute/pkg/graph"
	"elevroute/pkg/query"
)

func main() {
	graphPath := flag.String("input", "graph.bin", "Path to preprocessed graph binary")
	width := flag.Int("beam-width", beam.DefaultWidth, "Beam search width K")
	useOffset := flag.Bool("offset", false, "Minimize area-under-curve dissimilarity over a vertical offset")
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
	opts := beam.Options{Width: *width, UseOffset: *useOffset}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		line, ok := promptQuery(scanner)
		if !ok {
			return
		}

		q, err := query.Parse(line)
		if err != nil {
			fmt.Printf("invalid query: %v\n", err)
			continue
		}

		r, edgeIDs, telem, err := query.Execute(context.Background(), g, idx, engine, q, opts)
		switch {
		case err == nil:
			fmt.Printf("route: start=%.4f end=%.4f cost=%.3f offset=%.3f edges=%d states_expanded=%d\n",
				r.StartFraction, r.EndFraction, r.Cost, telem.Offset, len(r.Edges), telem.StatesExpanded)
			fmt.Println(query.FormatRoute(r.StartFraction, r.EndFraction, edgeIDs))
		case errors.Is(err, beam.ErrNoFeasiblePath):
			fmt.Println("no feasible path found")
		default:
			fmt.Printf("search error: %v\n", err)
		}
	}
}

// promptQuery walks the operator through one query's fields and
// assembles them into a single query-protocol line (§6), so the rest of
// the program shares query.Parse with the batch CLI.
func promptQuery(scanner *bufio.Scanner) (string, bool) {
	cx, ok := readFloat(scanner, "center x (blank to quit): ", true)
	if !ok {
		return "", false
	}
	cy, ok := readFloat(scanner, "center y: ", false)
	if !ok {
		return "", false
	}
	radius, ok := readFloat(scanner, "search radius: ", false)
	if !ok {
		return "", false
	}
	length, ok := readFloat(scanner, "target length L: ", false)
	if !ok {
		return "", false
	}

	var fields []string
	fields = append(fields, fmt.Sprint(cx), fmt.Sprint(cy), fmt.Sprint(radius), "0", "0")

	fmt.Printf("enter interior breakpoints as \"s z\" pairs with 0 < s < %g, blank line when done:\n", length)
	for {
		pair, ok := promptLine(scanner, "  s z: ")
		if !ok || strings.TrimSpace(pair) == "" {
			break
		}
		parts := strings.Fields(pair)
		if len(parts) != 2 {
			fmt.Println("expected two numbers \"s z\"")
			continue
		}
		fields = append(fields, parts[0], parts[1])
	}

	finalZ, ok := readFloat(scanner, fmt.Sprintf("z at s=%g (target's final elevation change): ", length), false)
	if !ok {
		return "", false
	}
	fields = append(fields, fmt.Sprint(length), fmt.Sprint(finalZ))

	return strings.Join(fields, " "), true
}

// promptLine writes prompt to stdout and reads one line from scanner.
func promptLine(scanner *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !scanner.Scan() {
		return "", false
	}
	return scanner.Text(), true
}

// readFloat prompts for and parses a single float field. When
// blankQuits is set, an empty line signals the operator wants to exit
// the REPL rather than retry the field.
func readFloat(scanner *bufio.Scanner, prompt string, blankQuits bool) (float64, bool) {
	for {
		line, ok := promptLine(scanner, prompt)
		if !ok {
			return 0, false
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && blankQuits {
			return 0, false
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			fmt.Printf("not a number: %v\n", err)
			continue
		}
		return v, true
	}
}
