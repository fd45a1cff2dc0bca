package schema

import (
	"time"

	"goslim/domain/versioning"
)

// CacheFormat marks a file as a persisted ontology graph cache. A file
// whose marker differs was not written by this store and must be rejected.
const CacheFormat = "goslim/graph-cache"

// CurrentVersion is the envelope schema this build reads and writes.
// Older envelopes are upgraded through the evolution registry; newer ones
// are rejected.
const CurrentVersion = 2

// Envelope is the on-disk form of a parsed ontology graph. It is
// self-describing: the format marker and schema version come first so a
// reader can reject foreign or future files before decoding term records.
type Envelope struct {
	Format        string                         `json:"format"`
	SchemaVersion int                            `json:"schema_version"`
	SavedAt       time.Time                      `json:"saved_at"`
	Sources       []versioning.SourceFingerprint `json:"sources"`
	Terms         []TermRecord                   `json:"terms"`

	// Alternates is the full alternate-id index, kept separately from the
	// per-term lists so entries left behind by overwritten term records
	// survive a round trip.
	Alternates map[string]string `json:"alternates"`
}

// TermRecord is the persisted form of one term
type TermRecord struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Namespace string       `json:"namespace,omitempty"`
	Obsolete  bool         `json:"obsolete,omitempty"`
	AltIDs    []string     `json:"alt_ids,omitempty"`
	Parents   []EdgeRecord `json:"parents,omitempty"`
}

// EdgeRecord is the persisted form of one upward edge
type EdgeRecord struct {
	Parent   string `json:"parent"`
	Relation string `json:"relation"`
}
