package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
)

// MappingOptions controls one association processing run
type MappingOptions struct {
	// CountMode accumulates per-slim product counts instead of rewriting rows
	CountMode bool

	// Aspect restricts rows to one sub-ontology code; empty keeps all rows.
	// Feature tables carry no aspect column, so the filter is ignored there.
	Aspect string

	// FeatureTable switches column extraction to the nine-column feature
	// format, resolving the type column instead of a term accession
	FeatureTable bool
}

// MappingStats summarizes one run for logging and metric publication.
// Every non-comment row lands in exactly one bucket.
type MappingStats struct {
	RowsIn              int
	Emitted             int
	Duplicates          int
	SkippedNegated      int
	SkippedAspect       int
	SkippedUnresolvable int
	SkippedUnknown      int
	SkippedNoPath       int
	Mapped              int
}

// MappingService rewrites association rows onto their nearest slim terms,
// or counts the distinct products annotated under each slim term
type MappingService struct {
	logger *zap.Logger
}

// NewMappingService creates a new mapping service
func NewMappingService(logger *zap.Logger) *MappingService {
	return &MappingService{
		logger: logger,
	}
}

// Run consumes every row the scanner yields and applies the row pipeline:
// negation check, aspect filter, accession normalization, graph lookup,
// nearest-slim resolution. In count mode resolved rows accumulate into the
// returned counts; otherwise each row is re-emitted once per direct slim
// ancestor in ascending id order, with whole-run duplicate suppression on
// the rewritten line.
func (s *MappingService) Run(
	ctx context.Context,
	snapshot *aggregates.OntologySnapshot,
	scanner ports.AssociationScanner,
	out io.Writer,
	opts MappingOptions,
) (MappingStats, *ProductCounts, error) {
	var stats MappingStats
	counts := NewProductCounts()

	if snapshot == nil {
		return stats, counts, fmt.Errorf("invalid input: ontology snapshot is required")
	}
	if scanner == nil {
		return stats, counts, fmt.Errorf("invalid input: association scanner is required")
	}
	if !opts.CountMode && out == nil {
		return stats, counts, fmt.Errorf("invalid input: output writer is required when rewriting rows")
	}

	graph := snapshot.Graph()
	aspect := strings.ToUpper(strings.TrimSpace(opts.Aspect))

	replaceCol := ports.ColTermID
	if opts.FeatureTable {
		replaceCol = ports.AltColType
	}

	var bw *bufio.Writer
	if !opts.CountMode {
		bw = bufio.NewWriter(out)
	}
	seen := make(map[string]bool)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			stats.RowsIn = scanner.RowCount()
			return stats, counts, err
		}

		cols := scanner.Columns()

		var product string
		var termID valueobjects.TermID

		if opts.FeatureTable {
			featureType := colAt(cols, ports.AltColType)
			product = colAt(cols, ports.AltColProduct)

			id, ok := s.resolveFeatureType(graph, featureType)
			if !ok {
				stats.SkippedUnresolvable++
				s.logger.Debug("feature type not found in ontology",
					zap.String("type", featureType),
				)
				continue
			}
			termID = id
		} else {
			product = colAt(cols, ports.ColProduct)

			if strings.EqualFold(strings.TrimSpace(colAt(cols, ports.ColQualifier)), "not") {
				stats.SkippedNegated++
				continue
			}

			if aspect != "" {
				rowAspect := strings.ToUpper(strings.TrimSpace(colAt(cols, ports.ColAspect)))
				if rowAspect != aspect {
					stats.SkippedAspect++
					continue
				}
			}

			token := colAt(cols, ports.ColTermID)
			id, ok := valueobjects.NormalizeTermToken(token)
			if !ok {
				stats.SkippedUnresolvable++
				s.logger.Debug("cannot normalize term accession",
					zap.String("token", token),
				)
				continue
			}
			termID = id
		}

		// Alternate ids are not resolved here: a row carrying one misses
		// the primary record and drops, matching the lookup-only contract.
		term, found := graph.Lookup(termID)
		if !found || term.IsObsolete() {
			stats.SkippedUnknown++
			continue
		}

		res := snapshot.Resolve(termID)
		if res.IsEmpty() {
			stats.SkippedNoPath++
			continue
		}
		stats.Mapped++

		if opts.CountMode {
			counts.Record(product, res)
			continue
		}

		// The replaced column is guaranteed present: extraction above only
		// reaches this point when the row carried it.
		for _, slimID := range res.DirectSorted() {
			outCols := make([]string, len(cols))
			copy(outCols, cols)
			outCols[replaceCol] = slimID.String()

			line := strings.Join(outCols, "\t")
			if seen[line] {
				stats.Duplicates++
				continue
			}
			seen[line] = true

			if _, err := bw.WriteString(line); err != nil {
				return stats, counts, fmt.Errorf("failed to write mapped row: %w", err)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return stats, counts, fmt.Errorf("failed to write mapped row: %w", err)
			}
			stats.Emitted++
		}
	}

	stats.RowsIn = scanner.RowCount()
	if err := scanner.Err(); err != nil {
		return stats, counts, err
	}

	if !opts.CountMode {
		if err := bw.Flush(); err != nil {
			return stats, counts, fmt.Errorf("failed to flush mapped output: %w", err)
		}
		s.logger.Debug("processed association rows",
			zap.Int("rows", stats.RowsIn),
			zap.Int("emitted", stats.Emitted),
			zap.Int("duplicates", stats.Duplicates),
		)
	}

	return stats, counts, nil
}

// resolveFeatureType maps a feature-table type column onto a term id. A
// token already carrying an accession shape is used directly; anything else
// is treated as a display name and scanned for in ascending id order.
func (s *MappingService) resolveFeatureType(
	graph *aggregates.TermGraph,
	featureType string,
) (valueobjects.TermID, bool) {
	if id, ok := valueobjects.NormalizeTermToken(featureType); ok {
		return id, true
	}
	return graph.FindByName(featureType)
}

// colAt reads a column by index, treating rows too short to carry it as
// holding the empty string
func colAt(cols []string, idx int) string {
	if idx < len(cols) {
		return cols[idx]
	}
	return ""
}
