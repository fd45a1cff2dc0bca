package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"goslim/domain/versioning"
)

// MigrationFunc rewrites a raw envelope from one schema version to the
// next. Migrations are pure data transforms over the serialized form.
type MigrationFunc func(raw []byte) ([]byte, error)

// Migration upgrades envelopes written at FromVersion to ToVersion
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          MigrationFunc
}

// Evolution manages cache envelope schema upgrades. Every schema change
// registers a migration here so older caches stay readable instead of
// being treated as corrupt.
type Evolution struct {
	current    int
	migrations map[int]Migration
}

// NewEvolution creates an evolution registry targeting the given version
func NewEvolution(current int) *Evolution {
	return &Evolution{
		current:    current,
		migrations: make(map[int]Migration),
	}
}

// DefaultEvolution returns the registry for the cache envelope, with all
// historical migrations registered
func DefaultEvolution() *Evolution {
	e := NewEvolution(CurrentVersion)

	// v1 envelopes carried alternate ids only on term records. v2 added
	// the top-level index so entries from overwritten records round-trip.
	_ = e.Register(Migration{
		FromVersion: 1,
		ToVersion:   2,
		Description: "rebuild top-level alternate-id index from term records",
		Up:          migrateV1RebuildAlternates,
	})

	return e
}

// Register adds a migration step
func (e *Evolution) Register(migration Migration) error {
	if migration.FromVersion >= migration.ToVersion {
		return fmt.Errorf("invalid migration: from_version must be less than to_version")
	}
	if migration.Up == nil {
		return fmt.Errorf("invalid migration: missing upgrade function")
	}
	if _, exists := e.migrations[migration.FromVersion]; exists {
		return fmt.Errorf("migration from version %d already registered", migration.FromVersion)
	}

	e.migrations[migration.FromVersion] = migration
	return nil
}

// CurrentVersion returns the version the registry migrates toward
func (e *Evolution) CurrentVersion() int {
	return e.current
}

// MigrateToCurrent walks the migration chain from the given version until
// the raw envelope reaches the current schema
func (e *Evolution) MigrateToCurrent(raw []byte, from int) ([]byte, error) {
	for version := from; version < e.current; {
		migration, exists := e.migrations[version]
		if !exists {
			return nil, fmt.Errorf("no migration registered from schema version %d", version)
		}

		upgraded, err := migration.Up(raw)
		if err != nil {
			return nil, fmt.Errorf("migration %d->%d failed: %w",
				migration.FromVersion, migration.ToVersion, err)
		}

		raw = upgraded
		version = migration.ToVersion
	}
	return raw, nil
}

// envelopeV1 is the schema-1 layout, before the top-level alternate index
type envelopeV1 struct {
	Format        string                         `json:"format"`
	SchemaVersion int                            `json:"schema_version"`
	SavedAt       time.Time                      `json:"saved_at"`
	Sources       []versioning.SourceFingerprint `json:"sources"`
	Terms         []TermRecord                   `json:"terms"`
}

func migrateV1RebuildAlternates(raw []byte) ([]byte, error) {
	var old envelopeV1
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, fmt.Errorf("failed to decode v1 envelope: %w", err)
	}

	alternates := make(map[string]string)
	for _, term := range old.Terms {
		for _, alt := range term.AltIDs {
			alternates[alt] = term.ID
		}
	}

	upgraded := Envelope{
		Format:        old.Format,
		SchemaVersion: 2,
		SavedAt:       old.SavedAt,
		Sources:       old.Sources,
		Terms:         old.Terms,
		Alternates:    alternates,
	}
	return json.Marshal(upgraded)
}
