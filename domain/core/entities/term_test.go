package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goslim/domain/core/valueobjects"
)

func mustTermID(t *testing.T, s string) valueobjects.TermID {
	t.Helper()
	id, err := valueobjects.NewTermID(s)
	require.NoError(t, err)
	return id
}

func TestNewTerm_RequiresID(t *testing.T) {
	_, err := NewTerm(valueobjects.TermID{})
	assert.Error(t, err)

	term, err := NewTerm(mustTermID(t, "GO:0008150"))
	assert.NoError(t, err)
	assert.Equal(t, "GO:0008150", term.ID().String())
	assert.False(t, term.IsObsolete())
	assert.Empty(t, term.Name())
}

func TestTerm_FieldOverwrites(t *testing.T) {
	term, _ := NewTerm(mustTermID(t, "GO:0008150"))

	term.SetName("first name")
	term.SetName("  biological_process  ")
	assert.Equal(t, "biological_process", term.Name())

	term.SetNamespace("molecular_function")
	term.SetNamespace("biological_process")
	assert.Equal(t, valueobjects.NamespaceBiologicalProcess, term.Namespace())

	term.SetObsolete(true)
	term.SetObsolete(false)
	assert.False(t, term.IsObsolete())
}

func TestTerm_AddAltID_Deduplicates(t *testing.T) {
	term, _ := NewTerm(mustTermID(t, "GO:0008150"))
	alt := mustTermID(t, "GO:0000004")

	term.AddAltID(alt)
	term.AddAltID(alt)
	term.AddAltID(valueobjects.TermID{})

	assert.Len(t, term.AltIDs(), 1)
}

func TestTerm_AddParent_Deduplicates(t *testing.T) {
	term, _ := NewTerm(mustTermID(t, "GO:0000001"))
	parent := mustTermID(t, "GO:0008150")

	term.AddParent(parent, valueobjects.RelationIsA)
	term.AddParent(parent, valueobjects.RelationIsA)
	term.AddParent(parent, valueobjects.RelationPartOf)
	term.AddParent(parent, valueobjects.Relation("regulates"))

	parents := term.Parents()
	assert.Len(t, parents, 2)
}

func TestTerm_ParentIDs_FiltersByRelation(t *testing.T) {
	term, _ := NewTerm(mustTermID(t, "GO:0000001"))
	isaParent := mustTermID(t, "GO:0008150")
	partParent := mustTermID(t, "GO:0005575")

	term.AddParent(isaParent, valueobjects.RelationIsA)
	term.AddParent(partParent, valueobjects.RelationPartOf)

	onlyIsA := term.ParentIDs(map[valueobjects.Relation]bool{valueobjects.RelationIsA: true})
	require.Len(t, onlyIsA, 1)
	assert.True(t, onlyIsA[0].Equals(isaParent))

	both := term.ParentIDs(map[valueobjects.Relation]bool{
		valueobjects.RelationIsA:    true,
		valueobjects.RelationPartOf: true,
	})
	assert.Len(t, both, 2)
}

func TestTerm_AccessorsReturnCopies(t *testing.T) {
	term, _ := NewTerm(mustTermID(t, "GO:0000001"))
	term.AddParent(mustTermID(t, "GO:0008150"), valueobjects.RelationIsA)

	parents := term.Parents()
	parents[0] = valueobjects.ParentEdge{}

	assert.False(t, term.Parents()[0].ParentID.IsZero())
}
