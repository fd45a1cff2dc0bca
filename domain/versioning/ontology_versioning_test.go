package versioning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/entities"
	"goslim/domain/core/valueobjects"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sealedGraph(t *testing.T, sources []string, ids ...string) *aggregates.TermGraph {
	t.Helper()
	graph := aggregates.NewTermGraph()
	for _, raw := range ids {
		id, err := valueobjects.NewTermID(raw)
		require.NoError(t, err)
		term, err := entities.NewTerm(id)
		require.NoError(t, err)
		require.NoError(t, graph.Put(term))
	}
	graph.Seal(sources)
	return graph
}

func TestFingerprintFile_RecordsIdentity(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\n")

	// Act
	fp, err := FingerprintFile(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(24), fp.Size)
	assert.NotZero(t, fp.ModTimeNS)
}

func TestFingerprintFile_MissingSource(t *testing.T) {
	// Act
	_, err := FingerprintFile(filepath.Join(t.TempDir(), "absent.obo"))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fingerprint source")
}

func TestSourceFingerprint_Matches(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\n")

	original, err := FingerprintFile(path)
	require.NoError(t, err)

	// Act: rewrite with different content length, then re-fingerprint
	writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\nname: biological_process\n")
	changed, err := FingerprintFile(path)
	require.NoError(t, err)

	// Assert
	assert.True(t, original.Matches(original))
	assert.False(t, original.Matches(changed))
}

func TestComputeRelease_OrderIndependent(t *testing.T) {
	// Arrange
	service := NewVersioningService()
	a := SourceFingerprint{Path: "a.obo", Size: 10, ModTimeNS: 111}
	b := SourceFingerprint{Path: "b.obo", Size: 20, ModTimeNS: 222}

	// Act
	forward := service.ComputeRelease([]SourceFingerprint{a, b})
	reversed := service.ComputeRelease([]SourceFingerprint{b, a})

	// Assert
	assert.NotEmpty(t, forward)
	assert.Equal(t, forward, reversed)
}

func TestComputeRelease_ChangesWithSourceState(t *testing.T) {
	// Arrange
	service := NewVersioningService()
	before := []SourceFingerprint{{Path: "a.obo", Size: 10, ModTimeNS: 111}}
	after := []SourceFingerprint{{Path: "a.obo", Size: 10, ModTimeNS: 999}}

	// Act & Assert
	assert.NotEqual(t, service.ComputeRelease(before), service.ComputeRelease(after))
}

func TestVersioningService_CreateVersion(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\n")
	graph := sealedGraph(t, []string{path}, "GO:0008150", "GO:0003674")
	service := NewVersioningService()

	// Act
	version, err := service.CreateVersion(graph, "initial load")

	// Assert
	require.NoError(t, err)
	assert.Len(t, version.Release, 64)
	assert.Equal(t, 2, version.TermCount)
	assert.Equal(t, 0, version.AltCount)
	require.Len(t, version.Sources, 1)
	assert.Equal(t, path, version.Sources[0].Path)
	assert.Equal(t, version.Release[:12], version.ShortRelease())
}

func TestVersioningService_CreateVersion_NilGraph(t *testing.T) {
	// Act
	_, err := NewVersioningService().CreateVersion(nil, "")

	// Assert
	assert.Error(t, err)
}

func TestVersioningService_IsStale(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\n")
	graph := sealedGraph(t, []string{path}, "GO:0008150")
	service := NewVersioningService()

	version, err := service.CreateVersion(graph, "")
	require.NoError(t, err)

	// Act & Assert: untouched source is fresh
	stale, err := service.IsStale(version)
	require.NoError(t, err)
	assert.False(t, stale)

	// Act & Assert: rewriting the source with a different size marks it stale
	writeSource(t, dir, "go-basic.obo", "[Term]\nid: GO:0008150\nis_obsolete: true\n")
	stale, err = service.IsStale(version)
	require.NoError(t, err)
	assert.True(t, stale)

	// Act & Assert: removing the source marks it stale without error
	require.NoError(t, os.Remove(path))
	stale, err = service.IsStale(version)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestVersioningService_IsStale_NilVersion(t *testing.T) {
	stale, err := NewVersioningService().IsStale(nil)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestVersioningService_CompareVersions(t *testing.T) {
	// Arrange
	service := NewVersioningService()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	v1 := &OntologyVersion{
		Release:   "aaaaaaaaaaaaaaaa",
		TermCount: 100,
		AltCount:  5,
		Sources: []SourceFingerprint{
			{Path: "go-basic.obo", Size: 10, ModTimeNS: 1},
			{Path: "legacy.obo", Size: 4, ModTimeNS: 1},
		},
		CreatedAt: base,
	}
	v2 := &OntologyVersion{
		Release:   "bbbbbbbbbbbbbbbb",
		TermCount: 120,
		AltCount:  4,
		Sources: []SourceFingerprint{
			{Path: "go-basic.obo", Size: 99, ModTimeNS: 2}, // rewritten
			{Path: "extensions.obo", Size: 7, ModTimeNS: 1}, // added
		},
		CreatedAt: base.Add(2 * time.Hour),
	}

	// Act
	diff, err := service.CompareVersions(v1, v2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 20, diff.TermDelta)
	assert.Equal(t, -1, diff.AltDelta)
	assert.Equal(t, 2*time.Hour, diff.TimeDiff)
	assert.Equal(t, []string{"extensions.obo", "go-basic.obo", "legacy.obo"}, diff.SourcesChanged)
}

func TestRefreshPolicy_ShouldRefresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		policy  RefreshPolicy
		last    *OntologyVersion
		expired bool
	}{
		{
			name:    "disabled policy never refreshes",
			policy:  RefreshPolicy{AutoRefresh: false, MaxAge: time.Minute},
			last:    &OntologyVersion{CreatedAt: now.Add(-time.Hour)},
			expired: false,
		},
		{
			name:    "no prior version always refreshes",
			policy:  DefaultRefreshPolicy(),
			last:    nil,
			expired: true,
		},
		{
			name:    "aged version refreshes",
			policy:  RefreshPolicy{AutoRefresh: true, MaxAge: time.Hour},
			last:    &OntologyVersion{CreatedAt: now.Add(-2 * time.Hour)},
			expired: true,
		},
		{
			name:    "fresh version does not refresh",
			policy:  RefreshPolicy{AutoRefresh: true, MaxAge: time.Hour},
			last:    &OntologyVersion{CreatedAt: now.Add(-time.Minute)},
			expired: false,
		},
		{
			name:    "min interval suppresses refresh",
			policy:  RefreshPolicy{AutoRefresh: true, MaxAge: time.Second, MinInterval: time.Hour},
			last:    &OntologyVersion{CreatedAt: now.Add(-time.Minute)},
			expired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.policy.ShouldRefresh(tt.last, now))
		})
	}
}
