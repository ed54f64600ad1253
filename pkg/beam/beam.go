// Package beam implements the bounded beam search engine (§4.5): it
// expands partial routes from seed edges under a bounded frontier, ranked
// by an admissible lower-bound profile cost, and emits the best feasible
// completion found.
package beam

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"elevroute/pkg/graph"
	"elevroute/pkg/profile"
	"elevroute/pkg/route"
	"elevroute/pkg/seed"
)

// ErrNoFeasiblePath is returned when the search completes without ever
// producing an acceptance-eligible state.
var ErrNoFeasiblePath = errors.New("beam: no feasible path found")

// ErrCancelled is returned when the caller's context is cancelled or its
// deadline fires before the search completes.
var ErrCancelled = errors.New("beam: query cancelled")

// DefaultWidth is the default per-depth-layer beam width K.
const DefaultWidth = 64

// revisitLookback bounds how far up the parent chain the soft revisit
// penalty looks for a repeated edge, keeping it O(1) per expansion.
const revisitLookback = 32

// Options configures a single beam search run.
type Options struct {
	// Width is the beam width K: the maximum number of states kept per
	// depth layer. Defaults to DefaultWidth when <= 0.
	Width int

	// UseOffset selects the offset-optimal L1 distance (AreaL1Offset)
	// instead of plain AreaL1 when finalizing an acceptance-eligible
	// candidate's cost.
	UseOffset bool

	// RevisitPenalty multiplies a per-state recent-revisit counter into
	// the heuristic score, discouraging edge re-traversal. Zero (the
	// default) disables the penalty entirely, per §9 "Cycle risk".
	RevisitPenalty float64

	// EndFractionSamples is the number of end_fraction candidates tried
	// on an acceptance-eligible state's final edge when searching for the
	// cost-minimizing anchor point. Defaults to 17 when <= 0.
	EndFractionSamples int
}

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

func (o Options) endFractionSamples() int {
	if o.EndFractionSamples <= 0 {
		return 17
	}
	return o.EndFractionSamples
}

// stateNode is one arena entry: an immutable value carrying only the
// summary (length, end elevation) needed to extend or finalize a path,
// plus a parent link, per the §9 design note. Storing the full sampled
// profile per state would be quadratic; the incremental heuristic fields
// below let AreaL1 on the overlap grid be updated in O(Δlength/step)
// instead of recomputed from scratch at every expansion.
type stateNode struct {
	parent  int32 // -1 for a seed root
	edge    int32 // edge entered to reach this state
	nodeIdx int32 // compact node index at the current path end

	length float64 // cumulative actual route length from the start anchor
	elev   float64 // cumulative elevation change from the start anchor

	sampleIdx   int     // next unconsumed target-grid sample index
	lastDiff    float64 // |actual-target| at the last consumed grid sample
	partialArea float64 // incremental trapezoidal AreaL1 numerator

	revisits  int
	heuristic float64
	seq       int64

	// startFraction is the seed's start_fraction t0. Only meaningful on a
	// root state (parent == -1); zero otherwise.
	startFraction float64
}

// arena is the per-query bump allocator for stateNodes, reused across
// queries via Engine's sync.Pool, mirroring the donor's QueryState reuse.
type arena struct {
	nodes []stateNode
	seq   int64
}

func (a *arena) reset() {
	a.nodes = a.nodes[:0]
	a.seq = 0
}

func (a *arena) add(n stateNode) int32 {
	n.seq = a.seq
	a.seq++
	a.nodes = append(a.nodes, n)
	return int32(len(a.nodes) - 1)
}

// Engine owns a shared read-only graph handle and a pool of reusable
// per-query arenas, mirroring the donor's Engine.qsPool pattern.
type Engine struct {
	g    *graph.Graph
	pool sync.Pool
}

// NewEngine creates a beam search engine over g.
func NewEngine(g *graph.Graph) *Engine {
	e := &Engine{g: g}
	e.pool.New = func() any { return &arena{} }
	return e
}

// Run executes a single beam search query: seeds, expands, and emits the
// best feasible route matching target, or ErrNoFeasiblePath /
// ErrCancelled.
func (e *Engine) Run(ctx context.Context, target *profile.Profile, seeds []seed.Seed, opts Options) (route.Route, route.Telemetry, error) {
	a := e.pool.Get().(*arena)
	a.reset()
	defer func() {
		a.reset()
		e.pool.Put(a)
	}()

	return e.run(ctx, a, target, seeds, opts)
}

func (e *Engine) run(ctx context.Context, a *arena, target *profile.Profile, seeds []seed.Seed, opts Options) (route.Route, route.Telemetry, error) {
	g := e.g
	L := target.Length()
	eps := route.Tolerance(L)
	lo, hi := L-eps, L+eps
	step := profile.DefaultStep(L)

	var telem route.Telemetry
	bestCost := math.Inf(1)
	var bestIdx int32 = -1
	var bestEndFraction float64

	// tryFinalize attempts to finalize idx as a complete route when the
	// tolerance window [lo,hi] intersects the reachable-length interval of
	// idx's last edge, [prevLen, idx's own length] — prevLen is 0 for a
	// seed root (its last/only edge starts at StartFraction) and the
	// parent's length otherwise. This is the acceptance-eligible test from
	// §4.5 step 3, generalized to trim the last edge rather than requiring
	// its untrimmed length to already land in the window.
	tryFinalize := func(idx int32, prevLen, curLen float64) {
		if curLen < lo || prevLen > hi {
			return
		}
		endFrac, cost, ok := finalize(a, g, target, idx, opts)
		if ok && cost < bestCost {
			bestCost = cost
			bestIdx = idx
			bestEndFraction = endFrac
		}
	}

	var pruned int
	layer := make([]int32, 0, len(seeds))
	for _, s := range seeds {
		segLen := (1 - s.StartFraction) * g.EdgeLength(s.Edge)
		segClimb := (1 - s.StartFraction) * g.EdgeClimb(s.Edge)
		_, to := g.EdgeFromTo(s.Edge)

		sampleIdx, lastDiff, partialArea := advanceHeuristic(0, 0, segLen, segClimb, 0, 0, 0, step, target)

		idx := a.add(stateNode{
			parent:        -1,
			edge:          s.Edge,
			nodeIdx:       to,
			length:        segLen,
			elev:          segClimb,
			sampleIdx:     sampleIdx,
			lastDiff:      lastDiff,
			partialArea:   partialArea,
			heuristic:     partialArea,
			startFraction: s.StartFraction,
		})
		tryFinalize(idx, 0, segLen)
		layer = append(layer, idx)
	}
	layer, pruned = truncateLayer(a, layer, opts.width(), bestCost)
	telem.StatesPruned += pruned

	for len(layer) > 0 {
		next := make([]int32, 0, len(layer)*2)
		for _, parentIdx := range layer {
			if ctx.Err() != nil {
				return route.Route{}, telem, ErrCancelled
			}
			parent := a.nodes[parentIdx]
			telem.StatesExpanded++

			for _, e2 := range g.Outgoing(parent.nodeIdx) {
				child := extend(a, g, target, step, opts, parentIdx, parent, e2)

				eligible := child.length >= lo && parent.length <= hi
				// Overshoot bars further expansion (length can only grow),
				// not finalization: the window may still intersect this
				// edge's span even though the untrimmed child overshoots it.
				blockExpansion := child.length > hi || child.heuristic > bestCost

				if !eligible && blockExpansion {
					telem.StatesPruned++
					continue
				}

				childIdx := a.add(child)

				if eligible {
					tryFinalize(childIdx, parent.length, child.length)
				}

				if blockExpansion {
					telem.StatesPruned++
					continue
				}

				next = append(next, childIdx)
			}
		}

		layer, pruned = truncateLayer(a, next, opts.width(), bestCost)
		telem.StatesPruned += pruned
	}

	if bestIdx < 0 {
		return route.Route{}, telem, ErrNoFeasiblePath
	}

	edges, startFraction := reconstructPath(a, bestIdx)
	in := route.PathInput{
		StartFraction: startFraction,
		EndFraction:   bestEndFraction,
		Edges:         edges,
		TotalLength:   a.nodes[bestIdx].length,
	}

	r, err := route.Assemble(g, target, in, opts.UseOffset)
	if err != nil {
		return route.Route{}, telem, err
	}
	telem.FinalCost = r.Cost
	telem.Offset = r.Offset
	return r, telem, nil
}

// extend builds the child state reached from parent by traversing edge e.
func extend(a *arena, g *graph.Graph, target *profile.Profile, step float64, opts Options, parentIdx int32, parent stateNode, e int32) stateNode {
	segLen := g.EdgeLength(e)
	segClimb := g.EdgeClimb(e)
	_, to := g.EdgeFromTo(e)

	sampleIdx, lastDiff, partialArea := advanceHeuristic(
		parent.length, parent.elev, segLen, segClimb,
		parent.sampleIdx, parent.lastDiff, parent.partialArea, step, target,
	)

	revisits := parent.revisits + countRecentRevisit(a, parentIdx, e, revisitLookback)
	heuristic := partialArea + opts.RevisitPenalty*float64(revisits)

	return stateNode{
		parent:      parentIdx,
		edge:        e,
		nodeIdx:     to,
		length:      parent.length + segLen,
		elev:        parent.elev + segClimb,
		sampleIdx:   sampleIdx,
		lastDiff:    lastDiff,
		partialArea: partialArea,
		revisits:    revisits,
		heuristic:   heuristic,
	}
}

// advanceHeuristic incrementally extends the trapezoidal AreaL1 estimate
// over the uniform target-grid samples that fall within the newly
// appended segment [prevLen, prevLen+segLen], given that the actual
// profile is linear within the segment (from prevElev to
// prevElev+segClimb). Samples beyond the target's own domain are not
// added, per the overlap convention (§9).
func advanceHeuristic(prevLen, prevElev, segLen, segClimb float64, sampleIdx int, lastDiff, partialArea, step float64, target *profile.Profile) (int, float64, float64) {
	childLen := prevLen + segLen
	limit := childLen
	if tl := target.Length(); tl < limit {
		limit = tl
	}

	for {
		s := float64(sampleIdx) * step
		if s > limit+1e-9 {
			break
		}

		var actual float64
		if segLen > 0 {
			actual = prevElev + (s-prevLen)/segLen*segClimb
		} else {
			actual = prevElev
		}
		diff := math.Abs(actual - target.At(s))

		if sampleIdx > 0 {
			partialArea += 0.5 * (lastDiff + diff) * step
		}
		lastDiff = diff
		sampleIdx++
	}

	return sampleIdx, lastDiff, partialArea
}

// countRecentRevisit walks up to lookback ancestors looking for a prior
// traversal of edge e, bounding the soft cycle penalty's cost to O(1).
func countRecentRevisit(a *arena, parentIdx int32, e int32, lookback int) int {
	count := 0
	idx := parentIdx
	for i := 0; i < lookback && idx >= 0; i++ {
		if a.nodes[idx].edge == e {
			count++
		}
		idx = a.nodes[idx].parent
	}
	return count
}

// finalize evaluates the feasible end_fraction interval on childIdx's
// entering edge, picking the t1 minimizing final cost, per §4.5 step 3.
// In place of a closed-form derivation, it samples the feasible interval
// at a fixed resolution and re-derives the exact truncated cost at each
// candidate via pkg/route.Assemble; see DESIGN.md for the rationale.
func finalize(a *arena, g *graph.Graph, target *profile.Profile, childIdx int32, opts Options) (endFraction, cost float64, ok bool) {
	edges, startFraction := reconstructPath(a, childIdx)
	lastEdge := edges[len(edges)-1]
	length := g.EdgeLength(lastEdge)

	child := a.nodes[childIdx]

	// When the route is a single edge, the last edge is also the start
	// edge: its usable span begins at startFraction, not 0.
	segStart := 0.0
	var lengthBeforeLast float64
	if parent := child.parent; parent >= 0 {
		lengthBeforeLast = a.nodes[parent].length
	} else {
		segStart = startFraction
	}

	L := target.Length()
	eps := route.Tolerance(L)
	lo, hi := L-eps, L+eps

	tLo := segStart + (lo-lengthBeforeLast)/length
	tHi := segStart + (hi-lengthBeforeLast)/length
	if tLo < segStart {
		tLo = segStart
	}
	if tHi > 1 {
		tHi = 1
	}
	if tHi < tLo {
		return 0, 0, false
	}

	n := opts.endFractionSamples()
	bestCost := math.Inf(1)
	bestT := tLo
	for i := 0; i < n; i++ {
		t := tLo
		if n > 1 {
			t = tLo + (tHi-tLo)*float64(i)/float64(n-1)
		}

		in := route.PathInput{
			StartFraction: startFraction,
			EndFraction:   t,
			Edges:         edges,
			TotalLength:   lengthBeforeLast + (t-segStart)*length,
		}
		r, err := route.Assemble(g, target, in, opts.UseOffset)
		if err != nil {
			continue
		}
		if r.Cost < bestCost {
			bestCost = r.Cost
			bestT = t
		}
	}

	if math.IsInf(bestCost, 1) {
		return 0, 0, false
	}
	return bestT, bestCost, true
}

// reconstructPath walks parent pointers from idx back to its seed root,
// returning the edge sequence in forward traversal order and the seed's
// start_fraction.
func reconstructPath(a *arena, idx int32) (edges []int32, startFraction float64) {
	var rev []int32
	cur := idx
	var root stateNode
	for cur >= 0 {
		n := a.nodes[cur]
		rev = append(rev, n.edge)
		root = n
		cur = n.parent
	}

	edges = make([]int32, len(rev))
	for i, e := range rev {
		edges[len(rev)-1-i] = e
	}

	return edges, root.startFraction
}

// truncateLayer sorts states by (heuristic asc, length asc, seq asc) -
// the spec's tie-break order - drops any whose heuristic already exceeds
// bestCost, and caps the result to width entries.
func truncateLayer(a *arena, layer []int32, width int, bestCost float64) (result []int32, pruned int) {
	before := len(layer)
	filtered := layer[:0]
	for _, idx := range layer {
		if a.nodes[idx].heuristic <= bestCost {
			filtered = append(filtered, idx)
		}
	}
	layer = filtered

	sort.Slice(layer, func(i, j int) bool {
		ni, nj := a.nodes[layer[i]], a.nodes[layer[j]]
		if ni.heuristic != nj.heuristic {
			return ni.heuristic < nj.heuristic
		}
		if ni.length != nj.length {
			return ni.length < nj.length
		}
		return ni.seq < nj.seq
	})

	if len(layer) > width {
		layer = layer[:width]
	}
	return layer, before - len(layer)
}
