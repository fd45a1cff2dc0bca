package commands

// RebuildCacheCommand represents an admin request to reparse the ontology
// sources and replace the persisted graph cache. Force bypasses the
// fingerprint staleness check and rebuilds unconditionally.
type RebuildCacheCommand struct {
	Force bool `json:"force"`
}

// Validate validates the command
func (cmd RebuildCacheCommand) Validate() error {
	return nil
}
