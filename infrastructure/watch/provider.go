package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/aggregates"
	"goslim/domain/events"
	"goslim/domain/versioning"
	"goslim/infrastructure/persistence/obo"
)

// SnapshotProvider loads the ontology into an immutable snapshot and serves
// it to request handlers. Reload parses the sources again and swaps the
// snapshot atomically, so in-flight readers keep the version they started
// with. It implements ports.OntologyProvider and ports.OntologyReloader.
type SnapshotProvider struct {
	slimPath   string
	sources    []string
	loader     *obo.Loader
	slimLoader *obo.SlimLoader
	graphCache ports.GraphCache
	versions   *versioning.VersioningService
	filter     aggregates.RelationFilter
	publisher  ports.EventPublisher
	logger     *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[ports.LoadedOntology]
}

// NewSnapshotProvider creates a provider over the given slim source and
// ontology sources. The slim source is parsed into the graph first, then
// the ontology sources in order, matching the batch pipeline's merge rule.
// graphCache and publisher may be nil to disable persisted caching and
// event publication.
func NewSnapshotProvider(
	slimPath string,
	ontologyPaths []string,
	loader *obo.Loader,
	slimLoader *obo.SlimLoader,
	graphCache ports.GraphCache,
	filter aggregates.RelationFilter,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SnapshotProvider {
	sources := make([]string, 0, len(ontologyPaths)+1)
	sources = append(sources, slimPath)
	sources = append(sources, ontologyPaths...)

	return &SnapshotProvider{
		slimPath:   slimPath,
		sources:    sources,
		loader:     loader,
		slimLoader: slimLoader,
		graphCache: graphCache,
		versions:   versioning.NewVersioningService(),
		filter:     filter,
		publisher:  publisher,
		logger:     logger,
	}
}

// Current returns the loaded ontology, loading it on first use
func (p *SnapshotProvider) Current(ctx context.Context) (*ports.LoadedOntology, error) {
	if loaded := p.current.Load(); loaded != nil {
		return loaded, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if loaded := p.current.Load(); loaded != nil {
		return loaded, nil
	}
	return p.loadAndSwap(ctx, false, false)
}

// Reload reparses the ontology sources and swaps the served snapshot. When
// force is set the persisted cache is bypassed.
func (p *SnapshotProvider) Reload(ctx context.Context, force bool) (*ports.LoadedOntology, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadAndSwap(ctx, force, true)
}

func (p *SnapshotProvider) loadAndSwap(ctx context.Context, force, isReload bool) (*ports.LoadedOntology, error) {
	previous := p.current.Load()

	graph, version, fromCache, err := p.loadGraph(ctx, force)
	if err != nil {
		return nil, err
	}

	slim, err := p.slimLoader.LoadSlim(ctx, p.slimPath, graph)
	if err != nil {
		return nil, err
	}

	snapshot := aggregates.NewOntologySnapshot(graph, slim, p.filter)
	loaded := &ports.LoadedOntology{Snapshot: snapshot, Version: version}
	p.current.Store(loaded)

	now := time.Now()
	published := []events.DomainEvent{
		events.NewOntologyLoaded(version.Release, graph.Sources(), graph.Len(), graph.AltCount(), fromCache, now),
		events.NewSlimLoaded(slim.Source(), string(slim.Shape()), slim.Len(), now),
	}
	if isReload && previous != nil {
		published = append(published,
			events.NewOntologyReloaded(previous.Version.Release, version.Release, graph.Len(), now))
	}
	p.publishEvents(ctx, published)

	p.logger.Info("ontology snapshot ready",
		zap.String("release", version.ShortRelease()),
		zap.Int("terms", graph.Len()),
		zap.Int("slimTerms", slim.Len()),
		zap.Bool("fromCache", fromCache),
	)
	return loaded, nil
}

func (p *SnapshotProvider) loadGraph(ctx context.Context, force bool) (*aggregates.TermGraph, *versioning.OntologyVersion, bool, error) {
	if p.graphCache != nil && !force {
		graph, version, err := p.graphCache.Load(ctx, p.sources)
		if err != nil {
			return nil, nil, false, err
		}
		if graph != nil {
			return graph, version, true, nil
		}
	}

	graph, err := p.loader.LoadGraph(ctx, p.sources)
	if err != nil {
		return nil, nil, false, err
	}

	if p.graphCache != nil {
		version, err := p.graphCache.Store(ctx, graph)
		if err != nil {
			return nil, nil, false, err
		}
		return graph, version, false, nil
	}

	version, err := p.versions.CreateVersion(graph, "")
	if err != nil {
		return nil, nil, false, err
	}
	return graph, version, false, nil
}

func (p *SnapshotProvider) publishEvents(ctx context.Context, published []events.DomainEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishBatch(ctx, published); err != nil {
		p.logger.Warn("failed to publish ontology events", zap.Error(err))
	}
}
