package obo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
)

// defaultSniffWindow is how much of the file is inspected to decide
// between the ontology shape and the flat listing shape.
const defaultSniffWindow = 256

// SlimLoader loads a slim set from either an ontology-shaped source or a
// flat listing of term ids, deciding the shape by sniffing a short prefix.
type SlimLoader struct {
	parser      *Parser
	logger      *zap.Logger
	sniffWindow int
}

// NewSlimLoader creates a new slim loader. A non-positive sniff window
// falls back to the default.
func NewSlimLoader(logger *zap.Logger, sniffWindow int) *SlimLoader {
	if sniffWindow <= 0 {
		sniffWindow = defaultSniffWindow
	}
	return &SlimLoader{
		parser:      NewParser(logger),
		logger:      logger,
		sniffWindow: sniffWindow,
	}
}

// LoadSlim reads the slim source and returns the resolved slim set.
//
// Ontology shape: every term of the slim source that is non-obsolete there
// and also present in graph joins the set, with no alternate-id resolution.
// Flat shape: each line contributes its first term-id-shaped token,
// resolved through the graph's alternate map; ids unknown to the graph or
// obsolete in it are skipped. An empty result is not an error.
func (l *SlimLoader) LoadSlim(ctx context.Context, path string, graph *aggregates.TermGraph) (*aggregates.SlimSet, error) {
	if l.sniffOntologyShape(path) {
		l.logger.Debug("detected ontology-shaped slim source", zap.String("path", path))
		return l.loadFromOntology(ctx, path, graph)
	}

	l.logger.Debug("detected flat slim listing", zap.String("path", path))
	return l.loadFromListing(ctx, path, graph)
}

// sniffOntologyShape reports whether the head of the file looks like an
// ontology source. Read errors leave the decision at "flat listing"; the
// listing branch surfaces them properly.
func (l *SlimLoader) sniffOntologyShape(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	window := make([]byte, l.sniffWindow)
	n, err := file.Read(window)
	if n <= 0 && err != nil {
		return false
	}

	head := string(window[:n])
	return strings.Contains(head, "[Term]") || strings.HasPrefix(head, "format-version:")
}

func (l *SlimLoader) loadFromOntology(ctx context.Context, path string, graph *aggregates.TermGraph) (*aggregates.SlimSet, error) {
	slimGraph := aggregates.NewTermGraph()
	if _, err := l.parser.ParseFile(ctx, path, slimGraph); err != nil {
		return nil, err
	}
	slimGraph.Seal([]string{path})

	slim := aggregates.NewSlimSet(path, aggregates.SlimShapeOntology)
	for _, id := range slimGraph.SortedIDs() {
		term, ok := slimGraph.Lookup(id)
		if !ok || term.IsObsolete() {
			continue
		}
		if !graph.Contains(id) {
			continue
		}
		slim.Add(id)
	}

	l.finishLoad(slim, path)
	return slim, nil
}

func (l *SlimLoader) loadFromListing(ctx context.Context, path string, graph *aggregates.TermGraph) (*aggregates.SlimSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open slim source %s: %w", path, err)
	}
	defer file.Close()

	slim := aggregates.NewSlimSet(path, aggregates.SlimShapeList)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		id, ok := valueobjects.TermIDFromSlimLine(scanner.Text())
		if !ok {
			continue
		}

		resolved := graph.ResolveAlternate(id)
		term, found := graph.Lookup(resolved)
		if !found || term.IsObsolete() {
			continue
		}
		slim.Add(resolved)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read slim source %s: %w", path, err)
	}

	l.finishLoad(slim, path)
	return slim, nil
}

func (l *SlimLoader) finishLoad(slim *aggregates.SlimSet, path string) {
	if slim.IsEmpty() {
		l.logger.Warn("slim set is empty after loading, check file type and contents",
			zap.String("path", path))
		return
	}
	l.logger.Debug("slim set loaded",
		zap.String("path", path),
		zap.String("shape", string(slim.Shape())),
		zap.Int("ids", slim.Len()))
}
