package obo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/entities"
	"goslim/domain/core/valueobjects"
)

// Field prefixes recognized inside a [Term] stanza. Everything else is
// ignored line by line.
const (
	prefixID           = "id: "
	prefixName         = "name: "
	prefixNamespace    = "namespace: "
	prefixObsolete     = "is_obsolete: "
	prefixAltID        = "alt_id: "
	prefixIsA          = "is_a: "
	prefixRelationship = "relationship: "
)

// isACommentSeparator splits an is_a value from its trailing readable name.
const isACommentSeparator = " ! "

// maxLineBytes bounds a single stanza line. Definition and xref lines in
// real ontology releases run long, well past the bufio default.
const maxLineBytes = 1 << 20

// ParseStats summarizes one parsed source.
type ParseStats struct {
	Source         string
	Committed      int // stanzas committed into the graph
	DroppedStanzas int // stanzas with a missing or malformed id
	DroppedRefs    int // alt or parent references with malformed ids
}

// Parser reads line-oriented term stanzas into a TermGraph.
//
// A stanza begins at a line that is exactly "[Term]" and ends at the next
// bracketed header or end of input. Other stanza types ([Typedef] and
// friends) are consumed and discarded. A stanza with no id is dropped, and
// the stanza in progress at EOF is still committed. Ids that do not conform
// to the canonical term id shape are dropped where they appear: a bad
// stanza id drops the stanza, a bad alt or parent reference drops just that
// reference.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new stanza parser
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile parses one ontology source file into the graph
func (p *Parser) ParseFile(ctx context.Context, path string, graph *aggregates.TermGraph) (ParseStats, error) {
	p.logger.Debug("parsing ontology source", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return ParseStats{Source: path}, fmt.Errorf("failed to open ontology source %s: %w", path, err)
	}
	defer file.Close()

	return p.Parse(ctx, file, path, graph)
}

// Parse reads stanzas from r into the graph. The source name is used only
// for diagnostics.
func (p *Parser) Parse(ctx context.Context, r io.Reader, source string, graph *aggregates.TermGraph) (ParseStats, error) {
	stats := ParseStats{Source: source}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	inTerm := false
	var cur *stanza

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if line == "[Term]" {
			if inTerm {
				if err := p.commit(cur, graph, &stats); err != nil {
					return stats, err
				}
			}
			cur = nil
			inTerm = true
			continue
		}

		if strings.HasPrefix(line, "[") {
			// [Typedef] or another stanza type: structurally consumed,
			// never committed.
			if inTerm {
				if err := p.commit(cur, graph, &stats); err != nil {
					return stats, err
				}
				inTerm = false
			}
			cur = nil
			continue
		}

		if !inTerm {
			continue
		}

		switch {
		case strings.HasPrefix(line, prefixID):
			// A repeated id line restarts the stanza; fields seen before
			// the first id line have nowhere to attach and are dropped.
			cur = &stanza{id: strings.TrimSpace(line[len(prefixID):])}

		case cur == nil:
			continue

		case strings.HasPrefix(line, prefixName):
			cur.name = strings.TrimSpace(line[len(prefixName):])

		case strings.HasPrefix(line, prefixNamespace):
			cur.namespace = strings.TrimSpace(line[len(prefixNamespace):])

		case strings.HasPrefix(line, prefixObsolete):
			cur.obsolete = strings.EqualFold(strings.TrimSpace(line[len(prefixObsolete):]), "true")

		case strings.HasPrefix(line, prefixAltID):
			cur.altIDs = append(cur.altIDs, strings.TrimSpace(line[len(prefixAltID):]))

		case strings.HasPrefix(line, prefixIsA):
			value := strings.SplitN(line[len(prefixIsA):], isACommentSeparator, 2)[0]
			cur.parents = append(cur.parents, rawParent{
				id:       strings.TrimSpace(value),
				relation: valueobjects.RelationIsA,
			})

		case strings.HasPrefix(line, prefixRelationship):
			parts := strings.Fields(line[len(prefixRelationship):])
			if len(parts) >= 2 && parts[0] == string(valueobjects.RelationPartOf) {
				cur.parents = append(cur.parents, rawParent{
					id:       parts[1],
					relation: valueobjects.RelationPartOf,
				})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read ontology source %s: %w", source, err)
	}

	if inTerm {
		if err := p.commit(cur, graph, &stats); err != nil {
			return stats, err
		}
	}

	p.logger.Debug("parsed ontology source",
		zap.String("path", source),
		zap.Int("terms", stats.Committed),
		zap.Int("dropped_stanzas", stats.DroppedStanzas),
		zap.Int("dropped_refs", stats.DroppedRefs))

	return stats, nil
}

// stanza accumulates raw field values until the stanza is committed
type stanza struct {
	id        string
	name      string
	namespace string
	obsolete  bool
	altIDs    []string
	parents   []rawParent
}

// rawParent is a parent reference before id validation
type rawParent struct {
	id       string
	relation valueobjects.Relation
}

// commit converts the accumulated stanza into a term record and puts it
// into the graph. An id collision replaces the earlier record.
func (p *Parser) commit(cur *stanza, graph *aggregates.TermGraph, stats *ParseStats) error {
	if cur == nil || cur.id == "" {
		return nil
	}

	id, err := valueobjects.NewTermID(cur.id)
	if err != nil {
		stats.DroppedStanzas++
		p.logger.Debug("dropping stanza with malformed id",
			zap.String("id", cur.id),
			zap.String("source", stats.Source))
		return nil
	}

	term, err := entities.NewTerm(id)
	if err != nil {
		return err
	}
	term.SetName(cur.name)
	term.SetNamespace(cur.namespace)
	term.SetObsolete(cur.obsolete)

	for _, raw := range cur.altIDs {
		alt, err := valueobjects.NewTermID(raw)
		if err != nil {
			stats.DroppedRefs++
			continue
		}
		term.AddAltID(alt)
	}

	for _, raw := range cur.parents {
		parentID, err := valueobjects.NewTermID(raw.id)
		if err != nil {
			stats.DroppedRefs++
			continue
		}
		term.AddParent(parentID, raw.relation)
	}

	if err := graph.Put(term); err != nil {
		return err
	}
	stats.Committed++
	return nil
}

// Loader assembles a sealed TermGraph from an ordered list of ontology
// sources. Later sources win id collisions; alternate-id mappings accrete
// across every committed stanza.
type Loader struct {
	parser *Parser
	logger *zap.Logger
}

// NewLoader creates a new ontology loader
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{
		parser: NewParser(logger),
		logger: logger,
	}
}

// LoadGraph parses every source in order and seals the result
func (l *Loader) LoadGraph(ctx context.Context, sources []string) (*aggregates.TermGraph, error) {
	graph := aggregates.NewTermGraph()

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := l.parser.ParseFile(ctx, source, graph); err != nil {
			return nil, err
		}
	}

	graph.Seal(sources)

	if graph.Len() == 0 {
		l.logger.Warn("ontology graph is empty after parsing", zap.Strings("sources", sources))
	} else {
		l.logger.Info("ontology graph loaded",
			zap.Int("terms", graph.Len()),
			zap.Int("alt_ids", graph.AltCount()),
			zap.Int("sources", len(sources)))
	}

	return graph, nil
}
