package validators

import (
	"fmt"
	"strings"

	"goslim/domain/config"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
	"goslim/pkg/errors"
)

// GraphValidator validates structural rules over a loaded ontology graph.
//
// All checks are optional hardening: the mapping pipeline itself tolerates
// cycles and dangling parents (bounded walks terminate regardless), so the
// validator is only consulted when strict mode is enabled or the validate
// command is run.
type GraphValidator struct {
	maxTermsPerGraph      int
	maxParentsPerTerm     int
	rejectCycles          bool
	rejectDanglingParents bool
}

// NewGraphValidator creates a graph validator with permissive defaults
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{
		maxTermsPerGraph:      0, // unlimited
		maxParentsPerTerm:     0, // unlimited
		rejectCycles:          false,
		rejectDanglingParents: false,
	}
}

// NewGraphValidatorFromConfig creates a graph validator from domain configuration
func NewGraphValidatorFromConfig(cfg *config.DomainConfig) *GraphValidator {
	return &GraphValidator{
		maxTermsPerGraph:      cfg.MaxTermsPerGraph,
		maxParentsPerTerm:     cfg.MaxParentsPerTerm,
		rejectCycles:          cfg.RejectCycles,
		rejectDanglingParents: cfg.RejectDanglingParents,
	}
}

// WithStrictChecks returns a copy with cycle and dangling-parent rejection enabled
func (v *GraphValidator) WithStrictChecks() *GraphValidator {
	strict := *v
	strict.rejectCycles = true
	strict.rejectDanglingParents = true
	return &strict
}

// ValidateGraph runs every enabled check and aggregates the failures
func (v *GraphValidator) ValidateGraph(graph *aggregates.TermGraph) error {
	validationErrors := errors.NewValidationErrors()

	if graph.Len() == 0 {
		validationErrors.AddError(errors.ErrGraphEmpty)
		return validationErrors
	}

	if err := v.ValidateTermCount(graph.Len()); err != nil {
		if domainErr, ok := err.(*errors.DomainError); ok {
			validationErrors.AddError(domainErr)
		} else {
			validationErrors.Add("terms", err.Error())
		}
	}

	if v.maxParentsPerTerm > 0 {
		for _, id := range graph.SortedIDs() {
			term, ok := graph.Lookup(id)
			if !ok {
				continue
			}
			if err := v.ValidateParentCount(id, len(term.Parents())); err != nil {
				if domainErr, ok := err.(*errors.DomainError); ok {
					validationErrors.AddError(domainErr)
				} else {
					validationErrors.Add("parents", err.Error())
				}
			}
		}
	}

	if v.rejectDanglingParents {
		for _, d := range v.FindDanglingParents(graph) {
			validationErrors.AddError(errors.NewDomainError(
				errors.DomainBusinessRuleError,
				"DANGLING_PARENT",
				"A term references a parent id absent from the graph",
			).WithDetail("term", d.Child.String()).WithDetail("parent", d.Parent.String()))
		}
	}

	if v.rejectCycles {
		if cycle, found := v.DetectCycle(graph); found {
			validationErrors.AddError(errors.NewDomainError(
				errors.DomainBusinessRuleError,
				"CYCLE_DETECTED",
				"The ontology graph contains a cycle",
			).WithDetail("path", formatCyclePath(cycle)))
		}
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}

	return nil
}

// ValidateTermCount validates the number of terms in a graph
func (v *GraphValidator) ValidateTermCount(count int) error {
	if v.maxTermsPerGraph > 0 && count > v.maxTermsPerGraph {
		return errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"TERM_LIMIT_EXCEEDED",
			"Maximum number of terms in graph exceeded",
		).WithDetail("current", count).WithDetail("limit", v.maxTermsPerGraph)
	}

	return nil
}

// ValidateParentCount validates the number of parent edges on a single term
func (v *GraphValidator) ValidateParentCount(id valueobjects.TermID, count int) error {
	if v.maxParentsPerTerm > 0 && count > v.maxParentsPerTerm {
		return errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"PARENT_LIMIT_EXCEEDED",
			fmt.Sprintf("Term has more than %d parent edges", v.maxParentsPerTerm),
		).WithDetail("term", id.String()).WithDetail("count", count)
	}

	return nil
}

// DanglingParent identifies a parent reference that has no term record.
type DanglingParent struct {
	Child  valueobjects.TermID
	Parent valueobjects.TermID
}

// FindDanglingParents scans every term and reports parent ids absent from
// the graph. Results are ordered by child id, then edge declaration order.
func (v *GraphValidator) FindDanglingParents(graph *aggregates.TermGraph) []DanglingParent {
	var missing []DanglingParent
	for _, id := range graph.SortedIDs() {
		term, ok := graph.Lookup(id)
		if !ok {
			continue
		}
		for _, edge := range term.Parents() {
			if !graph.Contains(edge.ParentID) {
				missing = append(missing, DanglingParent{Child: id, Parent: edge.ParentID})
			}
		}
	}
	return missing
}

// dfsFrame tracks one term on the DFS stack and the index of the next
// parent edge to visit.
type dfsFrame struct {
	id   valueobjects.TermID
	next int
}

// DFS node colors.
const (
	colorWhite = iota
	colorGray
	colorBlack
)

// DetectCycle searches the closed-relation edges for a cycle and returns
// the first witness path found, closed back onto its first term. Roots are
// visited in ascending id order so the witness is deterministic.
func (v *GraphValidator) DetectCycle(graph *aggregates.TermGraph) ([]valueobjects.TermID, bool) {
	parents := aggregates.BuildParentMap(graph, aggregates.DefaultRelationFilter())
	colors := make(map[valueobjects.TermID]int, graph.Len())

	for _, root := range graph.SortedIDs() {
		if colors[root] != colorWhite {
			continue
		}

		stack := []dfsFrame{{id: root}}
		colors[root] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			adjacent := parents[top.id]

			if top.next < len(adjacent) {
				parent := adjacent[top.next]
				top.next++

				switch colors[parent] {
				case colorWhite:
					colors[parent] = colorGray
					stack = append(stack, dfsFrame{id: parent})
				case colorGray:
					// Gray terms are exactly those on the current stack,
					// so walking the stack from the first occurrence of
					// parent reconstructs the cycle.
					cycle := make([]valueobjects.TermID, 0, len(stack)+1)
					collecting := false
					for _, frame := range stack {
						if frame.id.Equals(parent) {
							collecting = true
						}
						if collecting {
							cycle = append(cycle, frame.id)
						}
					}
					cycle = append(cycle, parent)
					return cycle, true
				}
			} else {
				colors[top.id] = colorBlack
				stack = stack[:len(stack)-1]
			}
		}
	}

	return nil, false
}

// formatCyclePath renders a cycle witness as "GO:x -> GO:y -> GO:x"
func formatCyclePath(cycle []valueobjects.TermID) string {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}

// SlimValidator validates slim-set rules against a loaded graph
type SlimValidator struct{}

// NewSlimValidator creates a new slim validator
func NewSlimValidator() *SlimValidator {
	return &SlimValidator{}
}

// ValidateSlimSet checks that a slim set is usable for mapping
func (v *SlimValidator) ValidateSlimSet(slim *aggregates.SlimSet, graph *aggregates.TermGraph) error {
	validationErrors := errors.NewValidationErrors()

	if slim.IsEmpty() {
		validationErrors.AddError(errors.ErrEmptySlimSet)
		return validationErrors
	}

	for _, id := range v.MissingFromGraph(slim, graph) {
		validationErrors.AddError(errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"SLIM_TERM_UNKNOWN",
			"A slim term is absent from the ontology graph",
		).WithDetail("term", id.String()))
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}

	return nil
}

// MissingFromGraph returns slim ids that have no term record, in ascending order.
// Slim sets built by the loader never contain these; externally constructed
// sets can.
func (v *SlimValidator) MissingFromGraph(slim *aggregates.SlimSet, graph *aggregates.TermGraph) []valueobjects.TermID {
	var missing []valueobjects.TermID
	for _, id := range slim.SortedIDs() {
		if !graph.Contains(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
