package graphstate

import (
	"bytes"

	"github.com/massalabs/massa-core/consensus/types"
)

// recomputeCliques rebuilds maxCliques from scratch: every maximal
// clique in the complement of giHead restricted to non-final active
// blocks, each one widened with every final block (finals are
// compatible with everyone per invariant 4 and spec.md §4.D), then
// promotes the maximum-fitness clique to the blockclique. Caller must
// hold gs.mu for writing.
func (gs *GraphState) recomputeCliques() {
	nonFinal := make(map[types.BlockId]struct{})
	finals := make(map[types.BlockId]struct{})
	for id := range gs.activeIndex {
		active, ok := gs.getFullActiveBlock(id)
		if !ok {
			continue
		}
		if active.IsFinal {
			finals[id] = struct{}{}
		} else {
			nonFinal[id] = struct{}{}
		}
	}

	maximalSets := bronKerbosch(complementAdjacency(gs.giHead, nonFinal), nonFinal)

	cliques := make([]*types.Clique, 0, len(maximalSets)+1)
	for _, set := range maximalSets {
		cliques = append(cliques, widenWithFinals(set, finals))
	}
	if len(cliques) == 0 {
		// no non-final actives: a single trivial clique of the finals.
		cliques = append(cliques, widenWithFinals(map[types.BlockId]struct{}{}, finals))
	}

	promoteBlockclique(cliques)
	gs.maxCliques = cliques
	gs.updateBestParents()
	gs.refreshMetrics()
}

// updateBestParents recomputes best_parents[t] as the deepest
// blockclique member of thread t (invariant 4: member of the
// blockclique, or the latest final if no non-final member exists).
// Caller must hold gs.mu for writing.
func (gs *GraphState) updateBestParents() {
	best := make([]types.ParentRef, gs.config.ThreadCount)
	for thread := range best {
		best[thread] = gs.latestFinalBlocksPeriods[thread]
	}
	for id := range gs.blockclique().BlockIds {
		active, ok := gs.getFullActiveBlock(id)
		if !ok || active.IsFinal {
			continue
		}
		thread := int(active.Slot.Thread)
		if active.Slot.Period > best[thread].Period {
			best[thread] = types.ParentRef{Id: id, Period: active.Slot.Period}
		}
	}
	gs.bestParents = best
}

func widenWithFinals(set, finals map[types.BlockId]struct{}) *types.Clique {
	ids := make(map[types.BlockId]struct{}, len(set)+len(finals))
	for id := range set {
		ids[id] = struct{}{}
	}
	for id := range finals {
		ids[id] = struct{}{}
	}
	return &types.Clique{BlockIds: ids, Fitness: uint64(len(ids))}
}

// promoteBlockclique marks the maximum-fitness clique as the
// blockclique, breaking ties by lexicographically smallest sorted
// block-id list (spec.md §4.D, resolving Open Question 3).
func promoteBlockclique(cliques []*types.Clique) {
	best := 0
	for i := 1; i < len(cliques); i++ {
		switch {
		case cliques[i].Fitness > cliques[best].Fitness:
			best = i
		case cliques[i].Fitness == cliques[best].Fitness && lexLess(cliques[i], cliques[best]):
			best = i
		}
	}
	for i := range cliques {
		cliques[i].IsBlockclique = i == best
	}
}

func lexLess(a, b *types.Clique) bool {
	as, bs := a.SortedBlockIds(), b.SortedBlockIds()
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := bytes.Compare(as[i][:], bs[i][:]); c != 0 {
			return c < 0
		}
	}
	return len(as) < len(bs)
}

// complementAdjacency returns, for each node in nodes, its neighbors
// in the complement of giHead restricted to nodes (i.e. the other
// blocks it is NOT incompatible with).
func complementAdjacency(giHead map[types.BlockId]map[types.BlockId]struct{}, nodes map[types.BlockId]struct{}) map[types.BlockId]map[types.BlockId]struct{} {
	adj := make(map[types.BlockId]map[types.BlockId]struct{}, len(nodes))
	for v := range nodes {
		neighbors := make(map[types.BlockId]struct{}, len(nodes))
		incompatible := giHead[v]
		for u := range nodes {
			if u == v {
				continue
			}
			if _, bad := incompatible[u]; bad {
				continue
			}
			neighbors[u] = struct{}{}
		}
		adj[v] = neighbors
	}
	return adj
}

// bronKerbosch enumerates every maximal clique of the graph (nodes,
// adj) using the classic recursive algorithm (without pivoting: the
// graphs here are small enough - active-subgraph sized, not
// network-sized - that the simple form is sufficiently fast and a lot
// easier to read than the pivoted variant).
func bronKerbosch(adj map[types.BlockId]map[types.BlockId]struct{}, nodes map[types.BlockId]struct{}) []map[types.BlockId]struct{} {
	var result []map[types.BlockId]struct{}
	var recurse func(r, p, x map[types.BlockId]struct{})
	recurse = func(r, p, x map[types.BlockId]struct{}) {
		if len(p) == 0 && len(x) == 0 {
			if len(r) > 0 {
				result = append(result, cloneSet(r))
			}
			return
		}
		for v := range cloneSet(p) {
			rv := cloneSet(r)
			rv[v] = struct{}{}
			recurse(rv, intersectSet(p, adj[v]), intersectSet(x, adj[v]))
			delete(p, v)
			x[v] = struct{}{}
		}
	}
	recurse(map[types.BlockId]struct{}{}, cloneSet(nodes), map[types.BlockId]struct{}{})
	return result
}

func cloneSet(s map[types.BlockId]struct{}) map[types.BlockId]struct{} {
	out := make(map[types.BlockId]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func intersectSet(a, b map[types.BlockId]struct{}) map[types.BlockId]struct{} {
	out := make(map[types.BlockId]struct{})
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for k := range small {
		if _, ok := big[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}
