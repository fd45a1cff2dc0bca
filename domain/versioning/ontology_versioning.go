package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"goslim/domain/core/aggregates"
)

// SourceFingerprint identifies one on-disk ontology source at a point in
// time. Two fingerprints match when the file has not been replaced,
// truncated, or rewritten since the first was taken.
type SourceFingerprint struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	ModTimeNS int64  `json:"mod_time_ns"`
}

// FingerprintFile stats a source file and records its identity
func FingerprintFile(path string) (SourceFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceFingerprint{}, fmt.Errorf("failed to fingerprint source %s: %w", path, err)
	}

	return SourceFingerprint{
		Path:      path,
		Size:      info.Size(),
		ModTimeNS: info.ModTime().UnixNano(),
	}, nil
}

// FingerprintFiles fingerprints every source in order
func FingerprintFiles(paths []string) ([]SourceFingerprint, error) {
	fingerprints := make([]SourceFingerprint, 0, len(paths))
	for _, path := range paths {
		fp, err := FingerprintFile(path)
		if err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fp)
	}
	return fingerprints, nil
}

// Matches reports whether the other fingerprint describes the same file state
func (f SourceFingerprint) Matches(other SourceFingerprint) bool {
	return f.Path == other.Path &&
		f.Size == other.Size &&
		f.ModTimeNS == other.ModTimeNS
}

// OntologyVersion represents a specific loaded state of the ontology graph
type OntologyVersion struct {
	Release     string              `json:"release"`
	TermCount   int                 `json:"term_count"`
	AltCount    int                 `json:"alt_count"`
	Sources     []SourceFingerprint `json:"sources"`
	CreatedAt   time.Time           `json:"created_at"`
	Description string              `json:"description,omitempty"`
}

// ShortRelease returns an abbreviated release tag for logs and responses
func (v *OntologyVersion) ShortRelease() string {
	if len(v.Release) <= 12 {
		return v.Release
	}
	return v.Release[:12]
}

// VersioningService derives release identities for loaded ontology graphs
type VersioningService struct{}

// NewVersioningService creates a new versioning service
func NewVersioningService() *VersioningService {
	return &VersioningService{}
}

// CreateVersion fingerprints the graph's sources and derives its release
func (s *VersioningService) CreateVersion(
	graph *aggregates.TermGraph,
	description string,
) (*OntologyVersion, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	fingerprints, err := FingerprintFiles(graph.Sources())
	if err != nil {
		return nil, err
	}

	version := s.VersionFromFingerprints(fingerprints, graph.Len(), graph.AltCount(), description)
	return version, nil
}

// VersionFromFingerprints builds a version record from already-taken
// fingerprints. The cache layer uses this to restore a version without
// re-statting sources.
func (s *VersioningService) VersionFromFingerprints(
	fingerprints []SourceFingerprint,
	termCount int,
	altCount int,
	description string,
) *OntologyVersion {
	return &OntologyVersion{
		Release:     s.ComputeRelease(fingerprints),
		TermCount:   termCount,
		AltCount:    altCount,
		Sources:     fingerprints,
		CreatedAt:   time.Now(),
		Description: description,
	}
}

// ComputeRelease derives a deterministic release checksum from source
// fingerprints. Fingerprint order does not affect the result.
func (s *VersioningService) ComputeRelease(fingerprints []SourceFingerprint) string {
	sorted := make([]SourceFingerprint, len(fingerprints))
	copy(sorted, fingerprints)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	// Marshal to JSON for a consistent representation
	jsonData, err := json.Marshal(sorted)
	if err != nil {
		// Fingerprints are plain scalars; marshalling cannot fail.
		return ""
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// IsStale re-stats every recorded source and reports whether any has
// changed or disappeared since the version was created
func (s *VersioningService) IsStale(version *OntologyVersion) (bool, error) {
	if version == nil {
		return true, nil
	}

	for _, recorded := range version.Sources {
		current, err := FingerprintFile(recorded.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return true, err
		}
		if !recorded.Matches(current) {
			return true, nil
		}
	}

	return false, nil
}

// CompareVersions compares two ontology versions
func (s *VersioningService) CompareVersions(v1, v2 *OntologyVersion) (*VersionDiff, error) {
	if v1 == nil || v2 == nil {
		return nil, fmt.Errorf("versions cannot be nil")
	}

	diff := &VersionDiff{
		FromRelease: v1.ShortRelease(),
		ToRelease:   v2.ShortRelease(),
		TermDelta:   v2.TermCount - v1.TermCount,
		AltDelta:    v2.AltCount - v1.AltCount,
		TimeDiff:    v2.CreatedAt.Sub(v1.CreatedAt),
	}

	previous := make(map[string]SourceFingerprint, len(v1.Sources))
	for _, fp := range v1.Sources {
		previous[fp.Path] = fp
	}

	seen := make(map[string]bool, len(v2.Sources))
	for _, fp := range v2.Sources {
		seen[fp.Path] = true
		old, existed := previous[fp.Path]
		if !existed || !old.Matches(fp) {
			diff.SourcesChanged = append(diff.SourcesChanged, fp.Path)
		}
	}
	for _, fp := range v1.Sources {
		if !seen[fp.Path] {
			diff.SourcesChanged = append(diff.SourcesChanged, fp.Path)
		}
	}
	sort.Strings(diff.SourcesChanged)

	return diff, nil
}

// VersionDiff represents the difference between two ontology versions
type VersionDiff struct {
	FromRelease    string        `json:"from_release"`
	ToRelease      string        `json:"to_release"`
	TermDelta      int           `json:"term_delta"`
	AltDelta       int           `json:"alt_delta"`
	SourcesChanged []string      `json:"sources_changed,omitempty"`
	TimeDiff       time.Duration `json:"time_diff"`
}

// RefreshPolicy defines when a loaded ontology should be reloaded
type RefreshPolicy struct {
	AutoRefresh bool          `json:"auto_refresh"`
	MaxAge      time.Duration `json:"max_age"`
	MinInterval time.Duration `json:"min_interval"`
}

// DefaultRefreshPolicy returns the default refresh policy
func DefaultRefreshPolicy() RefreshPolicy {
	return RefreshPolicy{
		AutoRefresh: true,
		MaxAge:      24 * time.Hour,
		MinInterval: time.Minute,
	}
}

// ShouldRefresh determines if a reload should happen, from age alone.
// Fingerprint staleness is checked separately because it needs I/O.
func (p *RefreshPolicy) ShouldRefresh(last *OntologyVersion, now time.Time) bool {
	if !p.AutoRefresh {
		return false
	}

	if last == nil {
		return true
	}

	age := now.Sub(last.CreatedAt)
	if age < p.MinInterval {
		return false
	}

	return p.MaxAge > 0 && age >= p.MaxAge
}
