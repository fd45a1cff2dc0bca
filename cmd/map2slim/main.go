package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "map2slim [flags] SLIMFILE ONTFILE... [ASSOCFILE]",
	Short: "Map gene associations onto a GO slim",
	Long: `map2slim rewrites a gene association file onto the nearest slim
ancestors of each annotated term, or counts the distinct products
annotated under each slim term.

The first positional argument is the slim source (an OBO file or a flat
listing of GO ids). The following arguments are the full ontology OBO
files, merged in order; the last argument is the association file unless
--outmap is set or --ontdir supplies the ontology files.

Examples:
  Map an association file to slim:
    map2slim goslim_generic.obo gene_ontology.obo gene_association.sgd \
        --out slimmed_gene_association.sgd --aspect F

  Count mode (tab-indented):
    map2slim goslim_generic.obo gene_ontology.obo gene_association.sgd \
        --count --tab --aspect P --out counts.tsv

  Dump term-to-slim mappings for all terms:
    map2slim goslim_generic.obo gene_ontology.obo --outmap map.txt --shownames`,
	Args: cobra.MinimumNArgs(1),
	Run:  runMapper,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
