package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractListParams_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs", nil)

	params, err := ExtractListParams(r)

	require.NoError(t, err)
	assert.Zero(t, params.Limit)
	assert.Empty(t, params.Cursor)
}

func TestExtractListParams_ReadsLimitAndCursor(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs?limit=25&cursor=eyJpZCI6ImFiYyJ9", nil)

	params, err := ExtractListParams(r)

	require.NoError(t, err)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "eyJpZCI6ImFiYyJ9", params.Cursor)
}

func TestExtractListParams_RejectsBadLimit(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "1.5", "9e9"} {
		r := httptest.NewRequest("GET", "/jobs?limit="+raw, nil)

		_, err := ExtractListParams(r)

		assert.Error(t, err, "limit %q should be rejected", raw)
	}
}
