package graph

import (
	"fmt"
	"sort"
)

// RawNode is a node record as decoded from the JSONL preprocessing input.
type RawNode struct {
	ID   int64
	X    float64
	Y    float64
	Elev float64
}

// RawEdge is an edge record as decoded from the JSONL preprocessing input.
type RawEdge struct {
	ID     int64
	From   int64
	To     int64
	Length float64
	Climb  float64
}

// Build creates a CSR Graph from parsed node and edge records. Edges
// referencing unknown nodes or carrying non-positive length are rejected;
// beyond that, inputs are trusted per the data model (climb consistency
// with endpoint elevations is not independently verified).
func Build(nodes []RawNode, edges []RawEdge) (*Graph, error) {
	nodeIndex := make(map[int64]int32, len(nodes))
	nodeID := make([]int64, len(nodes))
	x := make([]float64, len(nodes))
	y := make([]float64, len(nodes))
	elev := make([]float64, len(nodes))

	for i, n := range nodes {
		if _, dup := nodeIndex[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		idx := int32(i)
		nodeIndex[n.ID] = idx
		nodeID[idx] = n.ID
		x[idx] = n.X
		y[idx] = n.Y
		elev[idx] = n.Elev
	}

	type compactEdge struct {
		id            int64
		from, to      int32
		length, climb float64
	}

	compact := make([]compactEdge, 0, len(edges))
	edgeIDSeen := make(map[int64]struct{}, len(edges))
	for _, e := range edges {
		if _, dup := edgeIDSeen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate edge id %d", e.ID)
		}
		edgeIDSeen[e.ID] = struct{}{}

		from, ok := nodeIndex[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %d references unknown node %d", e.ID, e.From)
		}
		to, ok := nodeIndex[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %d references unknown node %d", e.ID, e.To)
		}
		if e.Length <= 0 {
			return nil, fmt.Errorf("edge %d has non-positive length %g", e.ID, e.Length)
		}
		compact = append(compact, compactEdge{id: e.ID, from: from, to: to, length: e.Length, climb: e.Climb})
	}

	// Sort by source node, preserving relative order of same-source edges,
	// so adjacency lists are a stable "ordered set" per node.
	sort.SliceStable(compact, func(i, j int) bool {
		return compact[i].from < compact[j].from
	})

	numNodes := int32(len(nodes))
	numEdges := int32(len(compact))

	edgeID := make([]int64, numEdges)
	edgeFrom := make([]int32, numEdges)
	edgeTo := make([]int32, numEdges)
	length := make([]float64, numEdges)
	climb := make([]float64, numEdges)
	edgeIndex := make(map[int64]int32, numEdges)

	firstOut := make([]int32, numNodes+1)
	outEdges := make([]int32, numEdges)

	for i, e := range compact {
		edgeID[i] = e.id
		edgeFrom[i] = e.from
		edgeTo[i] = e.to
		length[i] = e.length
		climb[i] = e.climb
		edgeIndex[e.id] = int32(i)
		firstOut[e.from+1]++
	}
	for i := int32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}
	pos := make([]int32, numNodes)
	copy(pos, firstOut[:numNodes])
	for i, e := range compact {
		outEdges[pos[e.from]] = int32(i)
		pos[e.from]++
	}

	return &Graph{
		nodeID:    nodeID,
		edgeID:    edgeID,
		nodeIndex: nodeIndex,
		edgeIndex: edgeIndex,
		x:         x,
		y:         y,
		elev:      elev,
		edgeFrom:  edgeFrom,
		edgeTo:    edgeTo,
		length:    length,
		climb:     climb,
		firstOut:  firstOut,
		outEdges:  outEdges,
	}, nil
}
