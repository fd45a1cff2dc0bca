package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/entities"
	"goslim/domain/core/valueobjects"
	"goslim/domain/versioning"
	pkgerrors "goslim/pkg/errors"
)

// stubProvider serves a fixed loaded ontology to handlers under test
type stubProvider struct {
	loaded *ports.LoadedOntology
	err    error
}

func (p *stubProvider) Current(ctx context.Context) (*ports.LoadedOntology, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.loaded, nil
}

func handlerTermID(t *testing.T, raw string) valueobjects.TermID {
	t.Helper()
	id, err := valueobjects.NewTermID(raw)
	require.NoError(t, err)
	return id
}

// handlerFixture builds a small sealed ontology:
//
//	GO:0003674 molecular_function        (slim, root)
//	GO:0008150 biological_process        (slim, root)
//	GO:0008152 metabolic_process         (slim) -> GO:0008150
//	GO:0044237 cellular_metabolic_process -> GO:0008152, alt GO:0044444
//	GO:0006259 dna_metabolic_process      -> GO:0044237
//	GO:0000002 mitochondrial_inheritance  (obsolete) -> GO:0008150
//	GO:0099998 uncharted_process          (no parents, outside slim)
func handlerFixture(t *testing.T) *ports.LoadedOntology {
	t.Helper()

	type spec struct {
		id        string
		name      string
		namespace string
		obsolete  bool
		alts      []string
		parents   []string
	}
	specs := []spec{
		{id: "GO:0003674", name: "molecular_function", namespace: "molecular_function"},
		{id: "GO:0008150", name: "biological_process", namespace: "biological_process"},
		{id: "GO:0008152", name: "metabolic_process", namespace: "biological_process", parents: []string{"GO:0008150"}},
		{id: "GO:0044237", name: "cellular_metabolic_process", namespace: "biological_process", alts: []string{"GO:0044444"}, parents: []string{"GO:0008152"}},
		{id: "GO:0006259", name: "dna_metabolic_process", namespace: "biological_process", parents: []string{"GO:0044237"}},
		{id: "GO:0000002", name: "mitochondrial_inheritance", namespace: "biological_process", obsolete: true, parents: []string{"GO:0008150"}},
		{id: "GO:0099998", name: "uncharted_process", namespace: "biological_process"},
	}

	graph := aggregates.NewTermGraph()
	for _, s := range specs {
		term, err := entities.NewTerm(handlerTermID(t, s.id))
		require.NoError(t, err)
		term.SetName(s.name)
		term.SetNamespace(s.namespace)
		term.SetObsolete(s.obsolete)
		for _, alt := range s.alts {
			term.AddAltID(handlerTermID(t, alt))
		}
		for _, parent := range s.parents {
			term.AddParent(handlerTermID(t, parent), valueobjects.RelationIsA)
		}
		require.NoError(t, graph.Put(term))
	}
	graph.Seal([]string{"fixture.obo"})

	slim := aggregates.NewSlimSet("fixture-slim", aggregates.SlimShapeList)
	slim.Add(handlerTermID(t, "GO:0003674"))
	slim.Add(handlerTermID(t, "GO:0008150"))
	slim.Add(handlerTermID(t, "GO:0008152"))

	return &ports.LoadedOntology{
		Snapshot: aggregates.NewOntologySnapshot(graph, slim, aggregates.DefaultRelationFilter()),
		Version:  &versioning.OntologyVersion{Release: "abc123def456", TermCount: len(specs)},
	}
}

func TestGetTermHandler_Handle_Success(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "GO:0006259"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "GO:0006259", result.ID)
	assert.Empty(t, result.RequestedID)
	assert.Equal(t, "dna_metabolic_process", result.Name)
	assert.Equal(t, "biological_process", result.Namespace)
	assert.False(t, result.Obsolete)
	assert.False(t, result.InSlim)
	require.Len(t, result.Parents, 1)
	assert.Equal(t, "GO:0044237", result.Parents[0].ID)
	assert.Equal(t, "is_a", result.Parents[0].Relation)
	assert.Equal(t, "cellular_metabolic_process", result.Parents[0].Name)
}

func TestGetTermHandler_Handle_SlimMember(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "GO:0008152"})

	require.NoError(t, err)
	assert.True(t, result.InSlim)
}

func TestGetTermHandler_Handle_ResolvesAlternateID(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "GO:0044444"})

	require.NoError(t, err)
	assert.Equal(t, "GO:0044237", result.ID)
	assert.Equal(t, "GO:0044444", result.RequestedID)
	assert.Contains(t, result.AltIDs, "GO:0044444")
}

func TestGetTermHandler_Handle_NormalizesBareDigits(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "6259"})

	require.NoError(t, err)
	assert.Equal(t, "GO:0006259", result.ID)
	assert.Empty(t, result.RequestedID)
}

func TestGetTermHandler_Handle_InvalidToken(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "wibble"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTermID)
}

func TestGetTermHandler_Handle_TermNotFound(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "GO:0099999"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, pkgerrors.ErrTermNotFound)
}

func TestGetTermHandler_Handle_EmptyTermID(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{loaded: handlerFixture(t)}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: ""})

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "term ID is required")
}

func TestGetTermHandler_Handle_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{err: errors.New("snapshot not loaded")}
	handler := NewGetTermHandler(provider, zap.NewNop())

	result, err := handler.Handle(ctx, queries.GetTermQuery{TermID: "GO:0006259"})

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "failed to get ontology snapshot")
}
