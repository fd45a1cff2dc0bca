package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
)

// maxMemoLineBytes bounds one mapping table line; lines with names attached
// can run long on heavily connected terms
const maxMemoLineBytes = 1 << 20

// DumpOptions controls mapping table output
type DumpOptions struct {
	// ShowNames appends the quoted display name to every rendered id
	ShowNames bool
}

// MemoEntry is one parsed mapping table line. Tokens are kept verbatim,
// including name fragments when the table was written with names attached.
type MemoEntry struct {
	Direct []string
	All    []string
}

// MappingMemo is a previously written mapping table parsed back into memory.
// It is diagnostic only; live resolutions are always recomputed from the
// graph.
type MappingMemo struct {
	entries map[string]MemoEntry
}

// Len returns the number of parsed entries
func (m *MappingMemo) Len() int {
	return len(m.entries)
}

// Entry looks up one accession's parsed line
func (m *MappingMemo) Entry(acc string) (MemoEntry, bool) {
	entry, ok := m.entries[acc]
	return entry, ok
}

// DumpService writes and reads the full term-to-slim mapping table
type DumpService struct {
	logger *zap.Logger
}

// NewDumpService creates a new dump service
func NewDumpService(logger *zap.Logger) *DumpService {
	return &DumpService{
		logger: logger,
	}
}

// WriteOutmap renders the resolution of every canonical-namespace term, one
// line per term in ascending id order:
//
//	GO:XXXXXXX => direct ids // all ids
//
// Terms without any slim ancestor still render, with both sides empty.
// The number of lines written is returned.
func (s *DumpService) WriteOutmap(
	ctx context.Context,
	snapshot *aggregates.OntologySnapshot,
	out io.Writer,
	opts DumpOptions,
) (int, error) {
	if snapshot == nil {
		return 0, fmt.Errorf("invalid input: ontology snapshot is required")
	}

	graph := snapshot.Graph()
	bw := bufio.NewWriter(out)
	written := 0

	for _, id := range graph.SortedIDs() {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		term, _ := graph.Lookup(id)
		if !term.Namespace().IsCanonical() {
			continue
		}

		res := snapshot.Resolve(id)

		direct := make([]string, 0, len(res.Direct))
		for _, d := range res.DirectSorted() {
			direct = append(direct, s.formatID(graph, d, opts.ShowNames))
		}
		all := make([]string, 0, len(res.All))
		for _, a := range res.AllSorted() {
			all = append(all, s.formatID(graph, a, opts.ShowNames))
		}

		_, err := fmt.Fprintf(bw, "%s => %s // %s\n",
			s.formatID(graph, id, opts.ShowNames),
			strings.Join(direct, " "),
			strings.Join(all, " "),
		)
		if err != nil {
			return written, fmt.Errorf("failed to write mapping table row: %w", err)
		}
		written++
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush mapping table: %w", err)
	}

	s.logger.Debug("mapping table written",
		zap.Int("terms", written),
	)
	return written, nil
}

// ReadInmap parses a mapping table back in. Blank lines and #-comments are
// skipped; lines missing either separator, or with nothing left of the
// arrow, are ignored rather than failing the load.
func (s *DumpService) ReadInmap(r io.Reader, source string) (*MappingMemo, error) {
	memo := &MappingMemo{entries: make(map[string]MemoEntry)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMemoLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		left, rest, found := strings.Cut(line, "=>")
		if !found {
			continue
		}
		mid, right, found := strings.Cut(rest, "//")
		if !found {
			continue
		}

		fields := strings.Fields(left)
		if len(fields) == 0 {
			continue
		}

		memo.entries[fields[0]] = MemoEntry{
			Direct: strings.Fields(mid),
			All:    strings.Fields(right),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping memo %s: %w", source, err)
	}

	s.logger.Debug("mapping memo loaded",
		zap.String("source", source),
		zap.Int("entries", memo.Len()),
	)
	return memo, nil
}

// formatID renders one id, attaching the quoted display name when asked.
// Ids missing from the graph render with a question mark in place of the
// name; present terms render their name verbatim, even when empty.
func (s *DumpService) formatID(graph *aggregates.TermGraph, id valueobjects.TermID, showNames bool) string {
	if !showNames {
		return id.String()
	}
	term, ok := graph.Lookup(id)
	if !ok {
		return id.String() + ` "?"`
	}
	return id.String() + ` "` + term.Name() + `"`
}
