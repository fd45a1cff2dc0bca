package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Relation closure: only these relationship tags contribute parent edges
	ClosedRelations []string

	// Canonical GO namespaces, in report order
	CanonicalNamespaces []string

	// Aspect code to namespace mapping (GAF column 9)
	AspectNamespaces map[string]string

	// Format constraints
	TermIDDigits    int
	SniffWindowSize int

	// Graph constraints
	MaxTermsPerGraph  int
	MaxParentsPerTerm int

	// Resolver settings
	EnableSubsumptionPruning bool
	EnableFallbackClosure    bool
	ResolverMemoTTL          time.Duration

	// Validation settings
	RejectCycles          bool
	RejectDanglingParents bool

	// Job constraints
	MaxUploadBytes  int64
	JobTTL          time.Duration
	MaxJobsPerQuery int

	// Feature flags
	EnableResolverMemo bool
	EnableHotReload    bool
	EnableGraphCache   bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		ClosedRelations:     []string{"is_a", "part_of"},
		CanonicalNamespaces: []string{"molecular_function", "biological_process", "cellular_component"},
		AspectNamespaces: map[string]string{
			"F": "molecular_function",
			"P": "biological_process",
			"C": "cellular_component",
		},

		TermIDDigits:    7,
		SniffWindowSize: 256,

		MaxTermsPerGraph:  0, // unlimited
		MaxParentsPerTerm: 0, // unlimited

		EnableSubsumptionPruning: true,
		EnableFallbackClosure:    true,
		ResolverMemoTTL:          10 * time.Minute,

		RejectCycles:          false,
		RejectDanglingParents: false,

		MaxUploadBytes:  64 << 20,
		JobTTL:          7 * 24 * time.Hour,
		MaxJobsPerQuery: 100,

		EnableResolverMemo: true,
		EnableHotReload:    false,
		EnableGraphCache:   true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxUploadBytes = 32 << 20
	config.JobTTL = 30 * 24 * time.Hour
	config.EnableHotReload = true

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxUploadBytes = 256 << 20
	config.ResolverMemoTTL = time.Minute
	config.EnableHotReload = true
	config.RejectDanglingParents = false

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// RelationClosed reports whether a relationship tag contributes parent edges
func (c *DomainConfig) RelationClosed(tag string) bool {
	for _, rel := range c.ClosedRelations {
		if rel == tag {
			return true
		}
	}
	return false
}

// NamespaceCanonical reports whether a namespace is one of the canonical three
func (c *DomainConfig) NamespaceCanonical(ns string) bool {
	for _, canonical := range c.CanonicalNamespaces {
		if canonical == ns {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if len(c.ClosedRelations) == 0 {
		return fmt.Errorf("domain config: closed relation set must not be empty")
	}
	if len(c.CanonicalNamespaces) == 0 {
		return fmt.Errorf("domain config: canonical namespace set must not be empty")
	}
	if c.TermIDDigits <= 0 {
		return fmt.Errorf("domain config: term id digits must be positive")
	}
	if c.SniffWindowSize <= 0 {
		return fmt.Errorf("domain config: sniff window size must be positive")
	}
	for code, ns := range c.AspectNamespaces {
		if !c.NamespaceCanonical(ns) {
			return fmt.Errorf("domain config: aspect %s maps to unknown namespace %s", code, ns)
		}
	}
	return nil
}
