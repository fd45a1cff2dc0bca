package commands

import (
	"errors"
	"strings"
)

// MaxGeneListSize bounds the number of gene products accepted per
// enrichment run
const MaxGeneListSize = 5000

// RunEnrichmentJobCommand represents a request to run the term enrichment
// tool over a list of gene products. JobID lets the caller name the job
// record up front; left empty, an id is generated.
type RunEnrichmentJobCommand struct {
	JobID      string   `json:"job_id"`
	Genes      []string `json:"genes" validate:"required,min=1,max=5000,dive,min=1"`
	Aspect     string   `json:"aspect" validate:"omitempty,oneof=P F C p f c"`
	Background []string `json:"background"`
}

// Validate validates the command
func (cmd RunEnrichmentJobCommand) Validate() error {
	if len(cmd.Genes) == 0 {
		return errors.New("at least one gene is required")
	}
	if len(cmd.Genes) > MaxGeneListSize {
		return errors.New("gene list exceeds maximum size")
	}
	for _, gene := range cmd.Genes {
		if strings.TrimSpace(gene) == "" {
			return errors.New("gene identifiers cannot be blank")
		}
	}
	switch strings.ToUpper(strings.TrimSpace(cmd.Aspect)) {
	case "", "P", "F", "C":
	default:
		return errors.New("aspect must be one of P, F, C")
	}
	return nil
}
