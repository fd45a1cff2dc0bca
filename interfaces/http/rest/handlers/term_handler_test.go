package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/queries"
	querybus "goslim/application/queries/bus"
	"goslim/pkg/common"
	pkgerrors "goslim/pkg/errors"
)

func newTermRouter(t *testing.T, queryBus *querybus.QueryBus) http.Handler {
	t.Helper()
	handler := NewTermHandler(queryBus, zap.NewNop())
	router := chi.NewRouter()
	router.Get("/terms/{termID}", handler.GetTerm)
	router.Get("/terms/{termID}/mapping", handler.GetTermMapping)
	router.Get("/slim/terms", handler.ListSlimTerms)
	return router
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var envelope common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestTermHandler_GetTerm(t *testing.T) {
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.GetTermQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q := query.(queries.GetTermQuery)
			return &queries.TermView{
				ID:        q.TermID,
				Name:      "metabolic_process",
				Namespace: "biological_process",
				InSlim:    true,
			}, nil
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/GO:0008152", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "GO:0008152", data["id"])
	assert.Equal(t, "metabolic_process", data["name"])
	assert.Equal(t, true, data["inSlim"])
}

func TestTermHandler_GetTerm_NotFound(t *testing.T) {
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.GetTermQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			return nil, pkgerrors.ErrTermNotFound
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/GO:0099999", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "TERM_NOT_FOUND", envelope.Error.Code)
}

func TestTermHandler_GetTerm_InvalidID(t *testing.T) {
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.GetTermQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			return nil, pkgerrors.ErrInvalidTermID
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/wibble", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_TERM_ID", envelope.Error.Code)
}

func TestTermHandler_GetTermMapping(t *testing.T) {
	var askedID string
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.GetTermMappingQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			askedID = query.(queries.GetTermMappingQuery).TermID
			return map[string]interface{}{"id": askedID}, nil
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/GO:0006259/mapping", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GO:0006259", askedID)
}

func TestTermHandler_ListSlimTerms_PassesNamespace(t *testing.T) {
	var filter string
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.ListSlimTermsQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			filter = query.(queries.ListSlimTermsQuery).Namespace
			return &queries.SlimTermsResult{Source: "goslim_generic", Count: 0}, nil
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/slim/terms?namespace=biological_process", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "biological_process", filter)
}

func TestTermHandler_ListSlimTerms_InvalidNamespace(t *testing.T) {
	queryBus := querybus.NewQueryBus()
	err := queryBus.Register(queries.ListSlimTermsQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			t.Fatal("handler should not run for an invalid namespace")
			return nil, nil
		}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/slim/terms?namespace=bogus", nil)
	newTermRouter(t, queryBus).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, common.StandardErrorCodes.ValidationError, envelope.Error.Code)
}
