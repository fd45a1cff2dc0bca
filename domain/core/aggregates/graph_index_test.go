package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goslim/domain/core/valueobjects"
)

// buildParents turns a child -> parents adjacency literal into a ParentMap
func buildParents(t *testing.T, adjacency map[string][]string) ParentMap {
	t.Helper()
	parents := make(ParentMap)
	for child, ps := range adjacency {
		ids := make([]valueobjects.TermID, 0, len(ps))
		for _, p := range ps {
			ids = append(ids, tid(t, p))
		}
		valueobjects.SortTermIDs(ids)
		parents[tid(t, child)] = ids
	}
	return parents
}

func buildSlim(t *testing.T, ids ...string) *SlimSet {
	t.Helper()
	slim := NewSlimSet("slim.obo", SlimShapeList)
	for _, id := range ids {
		slim.Add(tid(t, id))
	}
	return slim
}

func directStrings(res Resolution) []string {
	out := []string{}
	for _, id := range res.DirectSorted() {
		out = append(out, id.String())
	}
	return out
}

func allStrings(res Resolution) []string {
	out := []string{}
	for _, id := range res.AllSorted() {
		out = append(out, id.String())
	}
	return out
}

func TestNearestSlimAncestors_StartInSlim(t *testing.T) {
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0008150"},
	})
	slim := buildSlim(t, "GO:0000001")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000001"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000001"}, allStrings(res))
}

func TestNearestSlimAncestors_NoPathToSlim(t *testing.T) {
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000002"},
		"GO:0000002": {"GO:0000003"},
	})
	slim := buildSlim(t, "GO:0008150")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.True(t, res.IsEmpty())
	assert.Empty(t, directStrings(res))
	assert.Empty(t, allStrings(res))
}

func TestNearestSlimAncestors_SingleParentPath(t *testing.T) {
	// A -is_a-> R, B -part_of-> A, slim = {R}
	parents := buildParents(t, map[string][]string{
		"GO:0000002": {"GO:0008150"}, // A -> R
		"GO:0000003": {"GO:0000002"}, // B -> A
	})
	slim := buildSlim(t, "GO:0008150")

	res := NearestSlimAncestors(tid(t, "GO:0000003"), slim, parents)

	assert.Equal(t, []string{"GO:0008150"}, directStrings(res))
	assert.Equal(t, []string{"GO:0008150"}, allStrings(res))
}

func TestNearestSlimAncestors_MinimalDepthWins(t *testing.T) {
	// Start has a slim parent at depth 1 and another slim ancestor at depth 2;
	// only the depth-1 node is direct, both are in all.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000010", "GO:0000020"},
		"GO:0000020": {"GO:0000030"},
	})
	slim := buildSlim(t, "GO:0000010", "GO:0000030")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000010"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000010", "GO:0000030"}, allStrings(res))
}

func TestNearestSlimAncestors_TiesAreKept(t *testing.T) {
	// Two unrelated slim parents at the same depth both stay direct.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000010", "GO:0000020"},
	})
	slim := buildSlim(t, "GO:0000010", "GO:0000020")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000010", "GO:0000020"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000010", "GO:0000020"}, allStrings(res))
}

func TestNearestSlimAncestors_SubsumptionPruning(t *testing.T) {
	// Both slim nodes sit at depth 1, but GO:0000020 is an ancestor of
	// GO:0000010, so the more specific GO:0000010 subsumes it.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000010", "GO:0000020"},
		"GO:0000010": {"GO:0000020"},
	})
	slim := buildSlim(t, "GO:0000010", "GO:0000020")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000010"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000010", "GO:0000020"}, allStrings(res))
}

func TestNearestSlimAncestors_BoundedWalkStopsAtSlim(t *testing.T) {
	// A slim node shadows anything above it: the walk records the nearer
	// slim term and does not continue upward through it.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000010"},
		"GO:0000010": {"GO:0000020"},
	})
	slim := buildSlim(t, "GO:0000010", "GO:0000020")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000010"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000010"}, allStrings(res))
}

func TestNearestSlimAncestors_DiamondConvergence(t *testing.T) {
	// Two paths converge on the same slim ancestor; it is reported once.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000002", "GO:0000003"},
		"GO:0000002": {"GO:0000100"},
		"GO:0000003": {"GO:0000100"},
	})
	slim := buildSlim(t, "GO:0000100")

	res := NearestSlimAncestors(tid(t, "GO:0000001"), slim, parents)

	assert.Equal(t, []string{"GO:0000100"}, directStrings(res))
	assert.Equal(t, []string{"GO:0000100"}, allStrings(res))
}

func TestNearestSlimAncestors_MatchesFullClosure(t *testing.T) {
	// Every reported ancestor must be a genuine upward ancestor, and the
	// direct set must always be contained in the all set.
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000002", "GO:0000003"},
		"GO:0000002": {"GO:0000004", "GO:0000010"},
		"GO:0000003": {"GO:0000005"},
		"GO:0000004": {"GO:0000020"},
		"GO:0000005": {"GO:0000020", "GO:0000030"},
		"GO:0000030": {"GO:0000040"},
	})
	slim := buildSlim(t, "GO:0000010", "GO:0000020", "GO:0000040")

	for _, start := range []string{"GO:0000001", "GO:0000002", "GO:0000003", "GO:0000005"} {
		res := NearestSlimAncestors(tid(t, start), slim, parents)

		closure := UpwardClosure(tid(t, start), parents)
		for _, id := range res.AllSorted() {
			assert.True(t, closure[id] || id.Equals(tid(t, start)),
				"all-set member %s of %s must be a real ancestor", id, start)
		}
		for _, id := range res.DirectSorted() {
			assert.True(t, res.All[id], "direct member %s of %s must be in all", id, start)
		}
	}
}

func TestUpwardClosure(t *testing.T) {
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000002"},
		"GO:0000002": {"GO:0000003", "GO:0000004"},
	})

	closure := UpwardClosure(tid(t, "GO:0000001"), parents)

	assert.Len(t, closure, 3)
	assert.True(t, closure[tid(t, "GO:0000002")])
	assert.True(t, closure[tid(t, "GO:0000003")])
	assert.True(t, closure[tid(t, "GO:0000004")])
	assert.False(t, closure[tid(t, "GO:0000001")], "start is not its own ancestor")
}

func TestBuildParentMap_FiltersRelations(t *testing.T) {
	g := NewTermGraph()

	child := newTerm(t, "GO:0000001")
	child.AddParent(tid(t, "GO:0000002"), valueobjects.RelationIsA)
	child.AddParent(tid(t, "GO:0000003"), valueobjects.RelationPartOf)
	require.NoError(t, g.Put(child))
	require.NoError(t, g.Put(newTerm(t, "GO:0000002")))
	require.NoError(t, g.Put(newTerm(t, "GO:0000003")))
	g.Seal(nil)

	full := BuildParentMap(g, DefaultRelationFilter())
	require.Len(t, full[tid(t, "GO:0000001")], 2)

	isaOnly := BuildParentMap(g, NewRelationFilter(valueobjects.RelationIsA))
	require.Len(t, isaOnly[tid(t, "GO:0000001")], 1)
	assert.Equal(t, "GO:0000002", isaOnly[tid(t, "GO:0000001")][0].String())

	// Terms without candidate edges stay absent from the map entirely.
	_, present := full[tid(t, "GO:0000002")]
	assert.False(t, present)
}

func TestBuildChildMap_IsExactInverse(t *testing.T) {
	parents := buildParents(t, map[string][]string{
		"GO:0000001": {"GO:0000003"},
		"GO:0000002": {"GO:0000003"},
		"GO:0000003": {"GO:0000004"},
	})

	children := BuildChildMap(parents)

	require.Len(t, children[tid(t, "GO:0000003")], 2)
	assert.Equal(t, "GO:0000001", children[tid(t, "GO:0000003")][0].String())
	assert.Equal(t, "GO:0000002", children[tid(t, "GO:0000003")][1].String())
	require.Len(t, children[tid(t, "GO:0000004")], 1)

	// Round trip: every parent edge appears exactly once in the inverse.
	edges := 0
	for _, ps := range parents {
		edges += len(ps)
	}
	inverse := 0
	for _, cs := range children {
		inverse += len(cs)
	}
	assert.Equal(t, edges, inverse)
}

func TestSlimDepths(t *testing.T) {
	// Root (depth 0) with two slim children; one child also reachable via a
	// deeper slim chain keeps its minimum depth.
	parents := buildParents(t, map[string][]string{
		"GO:0000010": {"GO:0000001"},
		"GO:0000020": {"GO:0000001"},
		"GO:0000030": {"GO:0000010", "GO:0000001"},
	})
	children := BuildChildMap(parents)
	slim := buildSlim(t, "GO:0000001", "GO:0000010", "GO:0000020", "GO:0000030")

	depth := SlimDepths(slim, parents, children)

	assert.Equal(t, 0, depth[tid(t, "GO:0000001")])
	assert.Equal(t, 1, depth[tid(t, "GO:0000010")])
	assert.Equal(t, 1, depth[tid(t, "GO:0000020")])
	assert.Equal(t, 1, depth[tid(t, "GO:0000030")], "minimum depth wins over the longer chain")
}

func TestSlimDepths_NonSlimParentsDoNotAnchor(t *testing.T) {
	// A slim term whose only parents are outside the slim is a root.
	parents := buildParents(t, map[string][]string{
		"GO:0000010": {"GO:0999999"},
	})
	children := BuildChildMap(parents)
	slim := buildSlim(t, "GO:0000010")

	depth := SlimDepths(slim, parents, children)

	assert.Equal(t, 0, depth[tid(t, "GO:0000010")])
}

func BenchmarkNearestSlimAncestors(b *testing.B) {
	idOf := func(s string) valueobjects.TermID {
		id, _ := valueobjects.NewTermID(s)
		return id
	}

	// Linear chain of 100 terms topped by a slim node.
	parents := make(ParentMap)
	ids := make([]valueobjects.TermID, 101)
	for i := range ids {
		ids[i] = idOf(formatBenchID(i))
	}
	for i := 0; i < 100; i++ {
		parents[ids[i]] = []valueobjects.TermID{ids[i+1]}
	}
	slim := NewSlimSet("bench", SlimShapeList)
	slim.Add(ids[100])

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NearestSlimAncestors(ids[0], slim, parents)
	}
}

func formatBenchID(i int) string {
	digits := []byte("0000000")
	for pos := 6; pos >= 0 && i > 0; pos-- {
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return "GO:" + string(digits)
}
