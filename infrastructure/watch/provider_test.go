package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
	"goslim/domain/events"
	"goslim/domain/versioning"
	"goslim/infrastructure/persistence/cache"
	"goslim/infrastructure/persistence/obo"
)

const ontologySource = `format-version: 1.2

[Term]
id: GO:0008150
name: biological_process
namespace: biological_process

[Term]
id: GO:0008152
name: metabolic process
namespace: biological_process
is_a: GO:0008150 ! biological_process

[Term]
id: GO:0006259
name: DNA metabolic process
namespace: biological_process
is_a: GO:0008152 ! metabolic process
`

const extendedOntologySource = ontologySource + `
[Term]
id: GO:0009987
name: cellular process
namespace: biological_process
is_a: GO:0008150 ! biological_process
`

type capturingPublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, batch...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.published))
	for _, e := range p.published {
		types = append(types, e.GetEventType())
	}
	return types
}

func providerTermID(t *testing.T, raw string) valueobjects.TermID {
	t.Helper()
	id, err := valueobjects.NewTermID(raw)
	require.NoError(t, err)
	return id
}

func writeFixtures(t *testing.T) (slimPath, ontPath string) {
	t.Helper()
	dir := t.TempDir()
	slimPath = filepath.Join(dir, "goslim_generic.lst")
	ontPath = filepath.Join(dir, "gene_ontology.obo")
	require.NoError(t, os.WriteFile(slimPath, []byte("GO:0008152 # metabolic process\n"), 0o644))
	require.NoError(t, os.WriteFile(ontPath, []byte(ontologySource), 0o644))
	return slimPath, ontPath
}

func newTestProvider(slimPath, ontPath string, graphCache ports.GraphCache, publisher ports.EventPublisher) *SnapshotProvider {
	logger := zap.NewNop()
	return NewSnapshotProvider(
		slimPath,
		[]string{ontPath},
		obo.NewLoader(logger),
		obo.NewSlimLoader(logger, 0),
		graphCache,
		aggregates.DefaultRelationFilter(),
		publisher,
		logger,
	)
}

func TestSnapshotProvider_CurrentLoadsOnFirstUse(t *testing.T) {
	// Arrange
	slimPath, ontPath := writeFixtures(t)
	publisher := &capturingPublisher{}
	provider := newTestProvider(slimPath, ontPath, nil, publisher)

	// Act
	loaded, err := provider.Current(context.Background())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.Snapshot.Graph().Len())
	assert.Equal(t, 1, loaded.Snapshot.Slim().Len())
	assert.NotEmpty(t, loaded.Version.Release)

	resolution := loaded.Snapshot.Resolve(providerTermID(t, "GO:0006259"))
	assert.True(t, resolution.Direct[providerTermID(t, "GO:0008152")])

	assert.Contains(t, publisher.eventTypes(), "ontology.loaded")
	assert.Contains(t, publisher.eventTypes(), "slim.loaded")
	assert.NotContains(t, publisher.eventTypes(), "ontology.reloaded")
}

func TestSnapshotProvider_CurrentServesSameSnapshot(t *testing.T) {
	slimPath, ontPath := writeFixtures(t)
	provider := newTestProvider(slimPath, ontPath, nil, nil)

	first, err := provider.Current(context.Background())
	require.NoError(t, err)
	second, err := provider.Current(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestSnapshotProvider_ReloadSwapsSnapshot(t *testing.T) {
	// Arrange
	slimPath, ontPath := writeFixtures(t)
	publisher := &capturingPublisher{}
	provider := newTestProvider(slimPath, ontPath, nil, publisher)
	before, err := provider.Current(context.Background())
	require.NoError(t, err)

	// Act: grow the ontology and reload.
	require.NoError(t, os.WriteFile(ontPath, []byte(extendedOntologySource), 0o644))
	after, err := provider.Reload(context.Background(), false)

	// Assert
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 4, after.Snapshot.Graph().Len())
	assert.True(t, after.Snapshot.Graph().Contains(providerTermID(t, "GO:0009987")))
	assert.NotEqual(t, before.Version.Release, after.Version.Release)
	assert.Contains(t, publisher.eventTypes(), "ontology.reloaded")

	current, err := provider.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, after, current)
}

func TestSnapshotProvider_ReusesPersistedCache(t *testing.T) {
	// Arrange: one provider fills the cache, a second one starts from it.
	slimPath, ontPath := writeFixtures(t)
	cachePath := filepath.Join(t.TempDir(), "graph-cache.json")
	versions := versioning.NewVersioningService()

	first := newTestProvider(slimPath, ontPath,
		cache.NewFileGraphCache(cachePath, versions, zap.NewNop()), &capturingPublisher{})
	warm, err := first.Current(context.Background())
	require.NoError(t, err)
	require.FileExists(t, cachePath)

	publisher := &capturingPublisher{}
	second := newTestProvider(slimPath, ontPath,
		cache.NewFileGraphCache(cachePath, versions, zap.NewNop()), publisher)

	// Act
	restored, err := second.Current(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, warm.Version.Release, restored.Version.Release)
	assert.Equal(t, warm.Snapshot.Graph().Len(), restored.Snapshot.Graph().Len())

	var loadedEvent events.OntologyLoaded
	for _, e := range publisher.published {
		if evt, ok := e.(events.OntologyLoaded); ok {
			loadedEvent = evt
		}
	}
	assert.True(t, loadedEvent.FromCache)
}

func TestSnapshotProvider_ForceBypassesCache(t *testing.T) {
	slimPath, ontPath := writeFixtures(t)
	cachePath := filepath.Join(t.TempDir(), "graph-cache.json")
	graphCache := cache.NewFileGraphCache(cachePath, versioning.NewVersioningService(), zap.NewNop())
	publisher := &capturingPublisher{}
	provider := newTestProvider(slimPath, ontPath, graphCache, publisher)
	_, err := provider.Current(context.Background())
	require.NoError(t, err)

	reloaded, err := provider.Reload(context.Background(), true)

	require.NoError(t, err)
	require.NotNil(t, reloaded)
	for _, e := range publisher.published {
		if evt, ok := e.(events.OntologyLoaded); ok && evt.FromCache {
			t.Fatalf("expected no cache hits, got one for release %s", evt.Release)
		}
	}
}
