package aggregates

import (
	"goslim/domain/core/valueobjects"
)

// ParentMap maps a term to its parents under the active relation filter.
// Absence from the map means "no parents under this filter", not "unknown
// term". Parent lists are deduplicated and sorted so walks are deterministic.
type ParentMap map[valueobjects.TermID][]valueobjects.TermID

// ChildMap is the exact structural inverse of a ParentMap
type ChildMap map[valueobjects.TermID][]valueobjects.TermID

// RelationFilter selects which edge kinds contribute to adjacency
type RelationFilter map[valueobjects.Relation]bool

// NewRelationFilter builds a filter from the given relations
func NewRelationFilter(relations ...valueobjects.Relation) RelationFilter {
	filter := make(RelationFilter, len(relations))
	for _, rel := range relations {
		filter[rel] = true
	}
	return filter
}

// DefaultRelationFilter allows the full closed relation set
func DefaultRelationFilter() RelationFilter {
	return NewRelationFilter(valueobjects.AllRelations()...)
}

// BuildParentMap derives upward adjacency from a sealed graph, keeping only
// edges whose relation passes the filter
func BuildParentMap(graph *TermGraph, allowed RelationFilter) ParentMap {
	parents := make(ParentMap)
	for _, id := range graph.SortedIDs() {
		term, _ := graph.Lookup(id)
		var ps []valueobjects.TermID
		for _, edge := range term.Parents() {
			if allowed[edge.Relation] {
				ps = append(ps, edge.ParentID)
			}
		}
		if len(ps) > 0 {
			valueobjects.SortTermIDs(ps)
			parents[id] = dedupeSorted(ps)
		}
	}
	return parents
}

// BuildChildMap inverts a parent map
func BuildChildMap(parents ParentMap) ChildMap {
	children := make(ChildMap)
	for child, ps := range parents {
		for _, p := range ps {
			children[p] = append(children[p], child)
		}
	}
	for p := range children {
		valueobjects.SortTermIDs(children[p])
		children[p] = dedupeSorted(children[p])
	}
	return children
}

// Resolution is the outcome of a nearest-slim-ancestor query
type Resolution struct {
	// Direct holds the minimal-depth slim ancestors after redundancy pruning
	Direct map[valueobjects.TermID]bool
	// All holds every slim ancestor reachable upward at any depth
	All map[valueobjects.TermID]bool
}

// IsEmpty reports whether the term has no slim ancestor at all
func (r Resolution) IsEmpty() bool {
	return len(r.Direct) == 0 && len(r.All) == 0
}

// DirectSorted returns the direct set in ascending order
func (r Resolution) DirectSorted() []valueobjects.TermID {
	return sortedKeys(r.Direct)
}

// AllSorted returns the all set in ascending order
func (r Resolution) AllSorted() []valueobjects.TermID {
	return sortedKeys(r.All)
}

type walkEntry struct {
	id    valueobjects.TermID
	depth int
}

// NearestSlimAncestors computes the direct and all slim ancestor sets for
// start. The walk is breadth-first and upward over the parent map:
//
//   - a start already in the slim resolves to itself for both sets;
//   - each node is expanded at most once, at the depth of first discovery;
//   - slim nodes encountered are recorded but not expanded further, so the
//     bounded walk does not pass through the slim;
//   - the minimum discovery depth of any slim node fixes the direct
//     candidates; ties at that depth are all kept;
//   - the walk stops early once the frontier is strictly deeper than the
//     best depth;
//   - direct candidates subsumed by a more specific candidate are pruned;
//   - if no slim node was seen at all, a full unbounded closure (which does
//     pass through slim nodes) recovers any deeper slim ancestors for All.
//
// The function performs no writes to shared state, so independent
// resolutions may run in parallel against the same sealed inputs.
func NearestSlimAncestors(start valueobjects.TermID, slim *SlimSet, parents ParentMap) Resolution {
	res := Resolution{
		Direct: make(map[valueobjects.TermID]bool),
		All:    make(map[valueobjects.TermID]bool),
	}

	if slim.Contains(start) {
		res.Direct[start] = true
		res.All[start] = true
		return res
	}

	visited := map[valueobjects.TermID]bool{start: true}
	queue := []walkEntry{{id: start, depth: 0}}
	bestDepth := -1

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		for _, p := range parents[entry.id] {
			if visited[p] {
				continue
			}
			visited[p] = true

			if slim.Contains(p) {
				res.All[p] = true
				d := entry.depth + 1
				switch {
				case bestDepth < 0 || d < bestDepth:
					bestDepth = d
					res.Direct = map[valueobjects.TermID]bool{p: true}
				case d == bestDepth:
					res.Direct[p] = true
				}
			} else {
				queue = append(queue, walkEntry{id: p, depth: entry.depth + 1})
			}
		}

		if bestDepth >= 0 && len(queue) > 0 && queue[0].depth > bestDepth {
			break
		}
	}

	pruneSubsumed(res.Direct, parents)

	if len(res.All) == 0 {
		for ancestor := range UpwardClosure(start, parents) {
			if slim.Contains(ancestor) {
				res.All[ancestor] = true
			}
		}
	}

	return res
}

// pruneSubsumed drops any direct candidate that is a transitive upward
// ancestor of another candidate; the more specific term subsumes it.
// All original candidate pairs are examined, so chains of subsumption
// resolve the same way regardless of deletion order.
func pruneSubsumed(direct map[valueobjects.TermID]bool, parents ParentMap) {
	if len(direct) <= 1 {
		return
	}

	candidates := sortedKeys(direct)
	up := make(map[valueobjects.TermID]map[valueobjects.TermID]bool, len(candidates))
	for _, id := range candidates {
		up[id] = UpwardClosure(id, parents)
	}

	for _, a := range candidates {
		for _, b := range candidates {
			if a.Equals(b) {
				continue
			}
			if up[b][a] {
				delete(direct, a)
			}
		}
	}
}

// UpwardClosure walks every parent edge reachable from start and returns
// the set of ancestors found; start itself is excluded
func UpwardClosure(start valueobjects.TermID, parents ParentMap) map[valueobjects.TermID]bool {
	seen := map[valueobjects.TermID]bool{start: true}
	closure := make(map[valueobjects.TermID]bool)
	queue := []valueobjects.TermID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, p := range parents[current] {
			if seen[p] {
				continue
			}
			seen[p] = true
			closure[p] = true
			queue = append(queue, p)
		}
	}
	return closure
}

// SlimDepths assigns each slim id a best-effort depth over the subgraph
// induced by slim-to-slim edges: ids with no slim parent are roots at depth
// 0; depth propagates breadth-first to slim children, keeping the minimum
// whenever a node is reachable through more than one slim ancestor.
func SlimDepths(slim *SlimSet, parents ParentMap, children ChildMap) map[valueobjects.TermID]int {
	depth := make(map[valueobjects.TermID]int)
	var queue []valueobjects.TermID

	for _, s := range slim.SortedIDs() {
		hasSlimParent := false
		for _, p := range parents[s] {
			if slim.Contains(p) {
				hasSlimParent = true
				break
			}
		}
		if !hasSlimParent {
			depth[s] = 0
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, c := range children[current] {
			if !slim.Contains(c) {
				continue
			}
			next := depth[current] + 1
			if d, known := depth[c]; !known || next < d {
				depth[c] = next
				queue = append(queue, c)
			}
		}
	}
	return depth
}

func sortedKeys(set map[valueobjects.TermID]bool) []valueobjects.TermID {
	ids := make([]valueobjects.TermID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	valueobjects.SortTermIDs(ids)
	return ids
}

func dedupeSorted(ids []valueobjects.TermID) []valueobjects.TermID {
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || !id.Equals(ids[i-1]) {
			out = append(out, id)
		}
	}
	return out
}
