package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"goslim/domain/core/validators"
	"goslim/infrastructure/persistence/obo"
)

var validateSlimPath string

var validateCmd = &cobra.Command{
	Use:   "validate ONTFILE...",
	Short: "Check ontology structure without mapping anything",
	Long: `Parses the given ontology files into one merged graph and reports
structural problems: parent references to ids absent from the graph, and
is_a/part_of cycles. With --slim the slim source is loaded against the
merged graph and checked as well.

The mapping pipeline tolerates both defect classes, so validate is a
diagnostic for curators rather than a gate the mapper enforces.`,
	Run: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateSlimPath, "slim", "",
		"Slim source to load and check against the merged graph")
}

func runValidate(cmd *cobra.Command, args []string) {
	logger, err := newCLILogger(verbose)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()

	sources := args
	if ontDir != "" {
		discovered, err := obo.DiscoverOntologies(ontDir)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sources = append(sources, discovered...)
	}
	if len(sources) == 0 {
		log.Fatalf("No ontology files provided. Supply one or more OBO files, or use --ontdir.")
	}

	graph, err := obo.NewLoader(logger).LoadGraph(ctx, sources)
	if err != nil {
		log.Fatalf("Failed to load ontology: %v", err)
	}

	validator := validators.NewGraphValidator()
	problems := 0

	for _, d := range validator.FindDanglingParents(graph) {
		fmt.Printf("dangling parent: %s references %s\n", d.Child.String(), d.Parent.String())
		problems++
	}

	if cycle, found := validator.DetectCycle(graph); found {
		parts := make([]string, len(cycle))
		for i, id := range cycle {
			parts[i] = id.String()
		}
		fmt.Printf("cycle: %s\n", strings.Join(parts, " -> "))
		problems++
	}

	if validateSlimPath != "" {
		slim, err := obo.NewSlimLoader(logger, 0).LoadSlim(ctx, validateSlimPath, graph)
		if err != nil {
			log.Fatalf("Failed to load slim set: %v", err)
		}
		if err := validators.NewSlimValidator().ValidateSlimSet(slim, graph); err != nil {
			fmt.Printf("slim check failed: %v\n", err)
			problems++
		} else if slim.IsEmpty() {
			fmt.Printf("slim set is empty after loading %s\n", validateSlimPath)
			problems++
		} else {
			fmt.Printf("slim ok: %d terms from %s\n", slim.Len(), validateSlimPath)
		}
	}

	if problems > 0 {
		log.Fatalf("Validation found %d problem(s) across %d terms", problems, graph.Len())
	}
	fmt.Printf("ok: %d terms, %d alternate ids, %d sources\n",
		graph.Len(), graph.AltCount(), len(sources))
}
