package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/entities"
	"goslim/domain/core/valueobjects"
	"goslim/domain/versioning"
	"goslim/infrastructure/persistence/schema"
	pkgerrors "goslim/pkg/errors"
)

// FileGraphCache persists parsed ontology graphs as a version-stamped JSON
// envelope on the local filesystem, implementing ports.GraphCache.
//
// Load distinguishes three outcomes: a usable hit, a miss (no file, built
// from different sources, or stale fingerprints), and corruption. Only
// corruption is an error; a miss tells the caller to reparse.
type FileGraphCache struct {
	path      string
	versions  *versioning.VersioningService
	evolution *schema.Evolution
	logger    *zap.Logger
}

// NewFileGraphCache creates a graph cache at the given path
func NewFileGraphCache(path string, versions *versioning.VersioningService, logger *zap.Logger) *FileGraphCache {
	return &FileGraphCache{
		path:      path,
		versions:  versions,
		evolution: schema.DefaultEvolution(),
		logger:    logger,
	}
}

// Load restores a cached graph when the envelope matches the given sources
// and their current on-disk fingerprints
func (c *FileGraphCache) Load(ctx context.Context, sources []string) (*aggregates.TermGraph, *versioning.OntologyVersion, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path, err)
	}

	var header struct {
		Format        string `json:"format"`
		SchemaVersion int    `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path, err)
	}
	if header.Format != schema.CacheFormat {
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path,
			fmt.Errorf("unexpected format marker %q", header.Format))
	}
	if header.SchemaVersion > schema.CurrentVersion {
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path,
			fmt.Errorf("schema version %d is newer than this build supports", header.SchemaVersion))
	}
	if header.SchemaVersion < schema.CurrentVersion {
		migrated, err := c.evolution.MigrateToCurrent(raw, header.SchemaVersion)
		if err != nil {
			return nil, nil, pkgerrors.NewCacheCorruptionError(c.path, err)
		}
		raw = migrated
		c.logger.Info("migrated graph cache envelope",
			zap.Int("fromVersion", header.SchemaVersion),
			zap.Int("toVersion", schema.CurrentVersion),
		)
	}

	var envelope schema.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path, err)
	}

	if !coversSources(envelope.Sources, sources) {
		c.logger.Debug("graph cache was built from different sources",
			zap.String("path", c.path),
		)
		return nil, nil, nil
	}

	for _, recorded := range envelope.Sources {
		current, err := versioning.FingerprintFile(recorded.Path)
		if err != nil || !recorded.Matches(current) {
			c.logger.Info("graph cache is stale",
				zap.String("path", c.path),
				zap.String("source", recorded.Path),
			)
			return nil, nil, nil
		}
	}

	graph, err := reconstructGraph(envelope, sources)
	if err != nil {
		return nil, nil, pkgerrors.NewCacheCorruptionError(c.path, err)
	}

	version := c.versions.VersionFromFingerprints(
		envelope.Sources, graph.Len(), graph.AltCount(), "restored from cache")
	c.logger.Info("graph cache loaded",
		zap.String("path", c.path),
		zap.String("release", version.ShortRelease()),
		zap.Int("terms", graph.Len()),
	)
	return graph, version, nil
}

// Store writes the graph together with its source fingerprints. The write
// goes through a temp file and rename so a crash never leaves a torn cache.
func (c *FileGraphCache) Store(ctx context.Context, graph *aggregates.TermGraph) (*versioning.OntologyVersion, error) {
	if graph == nil || !graph.IsSealed() {
		return nil, fmt.Errorf("only a sealed graph can be cached")
	}

	fingerprints, err := versioning.FingerprintFiles(graph.Sources())
	if err != nil {
		return nil, err
	}

	envelope := schema.Envelope{
		Format:        schema.CacheFormat,
		SchemaVersion: schema.CurrentVersion,
		SavedAt:       time.Now().UTC(),
		Sources:       fingerprints,
		Terms:         termRecords(graph),
		Alternates:    alternateRecords(graph),
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph cache: %w", err)
	}

	if err := c.writeAtomic(raw); err != nil {
		return nil, err
	}

	version := c.versions.VersionFromFingerprints(
		fingerprints, graph.Len(), graph.AltCount(), "")
	c.logger.Info("graph cache stored",
		zap.String("path", c.path),
		zap.String("release", version.ShortRelease()),
		zap.Int("terms", graph.Len()),
	)
	return version, nil
}

func (c *FileGraphCache) writeAtomic(raw []byte) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".graph-cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write graph cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write graph cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace graph cache %s: %w", c.path, err)
	}
	return nil
}

// coversSources reports whether the envelope records exactly the requested
// sources in the requested order. Order matters: later sources overwrite
// colliding term records during the parse.
func coversSources(recorded []versioning.SourceFingerprint, sources []string) bool {
	if len(recorded) != len(sources) {
		return false
	}
	for i, fp := range recorded {
		if fp.Path != sources[i] {
			return false
		}
	}
	return true
}

func termRecords(graph *aggregates.TermGraph) []schema.TermRecord {
	ids := graph.SortedIDs()
	records := make([]schema.TermRecord, 0, len(ids))

	for _, id := range ids {
		term, _ := graph.Lookup(id)

		record := schema.TermRecord{
			ID:        term.ID().String(),
			Name:      term.Name(),
			Namespace: term.Namespace().String(),
			Obsolete:  term.IsObsolete(),
		}
		for _, alt := range term.AltIDs() {
			record.AltIDs = append(record.AltIDs, alt.String())
		}
		for _, edge := range term.Parents() {
			record.Parents = append(record.Parents, schema.EdgeRecord{
				Parent:   edge.ParentID.String(),
				Relation: edge.Relation.String(),
			})
		}
		records = append(records, record)
	}
	return records
}

func alternateRecords(graph *aggregates.TermGraph) map[string]string {
	alternates := graph.Alternates()
	records := make(map[string]string, len(alternates))
	for alt, primary := range alternates {
		records[alt.String()] = primary.String()
	}
	return records
}

func reconstructGraph(envelope schema.Envelope, sources []string) (*aggregates.TermGraph, error) {
	terms := make(map[valueobjects.TermID]*entities.Term, len(envelope.Terms))

	for _, record := range envelope.Terms {
		id, err := valueobjects.NewTermID(record.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid term id %q in cache: %w", record.ID, err)
		}

		altIDs := make([]valueobjects.TermID, 0, len(record.AltIDs))
		for _, raw := range record.AltIDs {
			alt, err := valueobjects.NewTermID(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid alternate id %q in cache: %w", raw, err)
			}
			altIDs = append(altIDs, alt)
		}

		parents := make([]valueobjects.ParentEdge, 0, len(record.Parents))
		for _, edge := range record.Parents {
			parentID, err := valueobjects.NewTermID(edge.Parent)
			if err != nil {
				return nil, fmt.Errorf("invalid parent id %q in cache: %w", edge.Parent, err)
			}
			relation, ok := valueobjects.ParseRelation(edge.Relation)
			if !ok {
				return nil, fmt.Errorf("invalid relation %q in cache", edge.Relation)
			}
			parents = append(parents, valueobjects.ParentEdge{ParentID: parentID, Relation: relation})
		}

		term, err := entities.ReconstructTerm(
			id, record.Name, valueobjects.Namespace(record.Namespace), record.Obsolete, altIDs, parents)
		if err != nil {
			return nil, fmt.Errorf("invalid term record %q in cache: %w", record.ID, err)
		}
		terms[id] = term
	}

	alternates := make(map[valueobjects.TermID]valueobjects.TermID, len(envelope.Alternates))
	for rawAlt, rawPrimary := range envelope.Alternates {
		alt, err := valueobjects.NewTermID(rawAlt)
		if err != nil {
			return nil, fmt.Errorf("invalid alternate id %q in cache: %w", rawAlt, err)
		}
		primary, err := valueobjects.NewTermID(rawPrimary)
		if err != nil {
			return nil, fmt.Errorf("invalid alternate target %q in cache: %w", rawPrimary, err)
		}
		alternates[alt] = primary
	}

	return aggregates.ReconstructTermGraph(terms, alternates, sources), nil
}
