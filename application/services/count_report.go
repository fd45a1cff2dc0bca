package services

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
)

// ProductCounts accumulates the distinct annotated products under each slim
// term, split into direct hits and full ancestor coverage. Products are
// compared verbatim, so an empty product column still counts as one product.
type ProductCounts struct {
	direct map[valueobjects.TermID]map[string]bool
	all    map[valueobjects.TermID]map[string]bool
}

// NewProductCounts creates an empty accumulator
func NewProductCounts() *ProductCounts {
	return &ProductCounts{
		direct: make(map[valueobjects.TermID]map[string]bool),
		all:    make(map[valueobjects.TermID]map[string]bool),
	}
}

// Record attributes one annotated product to every slim ancestor in the
// resolution, crediting the minimal-depth ancestors as direct hits
func (c *ProductCounts) Record(product string, res aggregates.Resolution) {
	for id := range res.All {
		c.add(c.all, id, product)
	}
	for id := range res.Direct {
		c.add(c.direct, id, product)
	}
}

// DirectCount returns how many distinct products map directly onto the term
func (c *ProductCounts) DirectCount(id valueobjects.TermID) int {
	return len(c.direct[id])
}

// TotalCount returns how many distinct products reach the term through any
// descendant
func (c *ProductCounts) TotalCount(id valueobjects.TermID) int {
	return len(c.all[id])
}

func (c *ProductCounts) add(bucket map[valueobjects.TermID]map[string]bool, id valueobjects.TermID, product string) {
	set := bucket[id]
	if set == nil {
		set = make(map[string]bool)
		bucket[id] = set
	}
	set[product] = true
}

// CountReportOptions controls summary table layout
type CountReportOptions struct {
	// Indent prefixes each row with one space per hierarchy level plus one
	Indent bool
}

// CountReporter renders the per-slim-term summary table
type CountReporter struct{}

// NewCountReporter creates a count reporter
func NewCountReporter() *CountReporter {
	return &CountReporter{}
}

// Render writes one row per slim term, ordered by depth in the
// slim-restricted hierarchy and then by id. Slim ids absent from the graph
// are skipped; ids the depth walk never reached render at depth zero.
//
// Each row carries the id, the display name twice (plain and
// parenthesized), the direct and total product counts, an OBSOLETE marker
// when the graph record is obsolete, and the term's namespace.
func (r *CountReporter) Render(
	snapshot *aggregates.OntologySnapshot,
	counts *ProductCounts,
	out io.Writer,
	opts CountReportOptions,
) error {
	depths := snapshot.SlimDepths()

	ids := snapshot.Slim().SortedIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := depths[ids[i]], depths[ids[j]]
		if di != dj {
			return di < dj
		}
		return ids[i].Less(ids[j])
	})

	bw := bufio.NewWriter(out)
	for _, id := range ids {
		term, ok := snapshot.Graph().Lookup(id)
		if !ok {
			continue
		}

		indent := ""
		if opts.Indent {
			indent = strings.Repeat(" ", depths[id]+1)
		}
		obsolete := ""
		if term.IsObsolete() {
			obsolete = "OBSOLETE"
		}

		_, err := fmt.Fprintf(bw, "%s%s %s (%s)\t%d\t%d\t%s\t%s\n",
			indent, id.String(), term.Name(), term.Name(),
			counts.DirectCount(id), counts.TotalCount(id),
			obsolete, term.Namespace().String(),
		)
		if err != nil {
			return fmt.Errorf("failed to write count row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush count report: %w", err)
	}
	return nil
}
