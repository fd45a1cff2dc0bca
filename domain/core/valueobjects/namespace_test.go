package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace_IsCanonical(t *testing.T) {
	assert.True(t, NamespaceBiologicalProcess.IsCanonical())
	assert.True(t, NamespaceMolecularFunction.IsCanonical())
	assert.True(t, NamespaceCellularComponent.IsCanonical())
	assert.False(t, NamespaceUnset.IsCanonical())
	assert.False(t, Namespace("external").IsCanonical())
}

func TestParseAspect(t *testing.T) {
	tests := []struct {
		input string
		want  Aspect
		ok    bool
	}{
		{"F", AspectFunction, true},
		{"P", AspectProcess, true},
		{"C", AspectComponent, true},
		{"p", AspectProcess, true},
		{" c ", AspectComponent, true},
		{"X", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAspect(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestAspect_Namespace(t *testing.T) {
	assert.Equal(t, NamespaceMolecularFunction, AspectFunction.Namespace())
	assert.Equal(t, NamespaceBiologicalProcess, AspectProcess.Namespace())
	assert.Equal(t, NamespaceCellularComponent, AspectComponent.Namespace())
	assert.Equal(t, NamespaceUnset, Aspect("Z").Namespace())
}

func TestParseRelation(t *testing.T) {
	rel, ok := ParseRelation("is_a")
	assert.True(t, ok)
	assert.Equal(t, RelationIsA, rel)

	rel, ok = ParseRelation("part_of")
	assert.True(t, ok)
	assert.Equal(t, RelationPartOf, rel)

	_, ok = ParseRelation("regulates")
	assert.False(t, ok)

	_, ok = ParseRelation("")
	assert.False(t, ok)
}

func TestRelation_IsValid(t *testing.T) {
	assert.True(t, RelationIsA.IsValid())
	assert.True(t, RelationPartOf.IsValid())
	assert.False(t, Relation("develops_from").IsValid())
}
