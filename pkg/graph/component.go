package graph

// UnionFind implements a disjoint-set data structure with path halving
// and union by rank.
type UnionFind struct {
	parent []int32
	rank   []byte
	size   []int32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n int32) *UnionFind {
	parent := make([]int32, n)
	size := make([]int32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{parent: parent, rank: make([]byte, n), size: size}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x int32) int32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already joined.
func (uf *UnionFind) Union(x, y int32) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// LargestComponent returns the compact node indices belonging to the
// largest weakly connected component (treating directed edges as
// undirected for connectivity purposes).
func LargestComponent(g *Graph) []int32 {
	n := int32(g.NumNodes())
	if n == 0 {
		return nil
	}

	uf := NewUnionFind(n)
	for u := int32(0); u < n; u++ {
		for _, e := range g.Outgoing(u) {
			_, v := g.EdgeFromTo(e)
			uf.Union(u, v)
		}
	}

	bestRoot, bestSize := int32(0), int32(0)
	for i := int32(0); i < n; i++ {
		if root := uf.Find(i); uf.size[root] > bestSize {
			bestRoot, bestSize = root, uf.size[root]
		}
	}

	nodes := make([]int32, 0, bestSize)
	for i := int32(0); i < n; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent builds a new Graph containing only the given compact
// node indices and the edges fully contained within them.
func FilterToComponent(g *Graph, nodes []int32) (*Graph, error) {
	rawNodes := make([]RawNode, len(nodes))
	oldToNew := make(map[int32]int32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = int32(newIdx)
		n := g.Node(oldIdx)
		rawNodes[newIdx] = RawNode{ID: n.ID, X: n.X, Y: n.Y, Elev: n.Elev}
	}

	var rawEdges []RawEdge
	for _, oldU := range nodes {
		for _, e := range g.Outgoing(oldU) {
			_, oldV := g.EdgeFromTo(e)
			if _, ok := oldToNew[oldV]; ok {
				edge := g.Edge(e)
				rawEdges = append(rawEdges, RawEdge{
					ID: edge.ID, From: edge.From, To: edge.To,
					Length: edge.Length, Climb: edge.Climb,
				})
			}
		}
	}

	return Build(rawNodes, rawEdges)
}
