package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goslim/application/services"
	"goslim/domain/core/aggregates"
	"goslim/domain/versioning"
	"goslim/infrastructure/persistence/annot"
	"goslim/infrastructure/persistence/cache"
	"goslim/infrastructure/persistence/obo"
)

var (
	ontDir     string
	outPath    string
	errPath    string
	cachePath  string
	inmapPath  string
	outmapPath string
	bucketPath string
	dbName     string
	dbHost     string
	aspect     string
	evCodes    []string
	countMode  bool
	tabIndent  bool
	gffMode    bool
	showNames  bool
	forceParse bool
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&ontDir, "ontdir", "",
		"Directory holding the full ontology files (*.obo, falling back to *ontology*)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging on stderr")

	flags := rootCmd.Flags()
	flags.StringVarP(&outPath, "out", "o", "",
		"Output file for mapped rows or the count table (default stdout)")
	flags.BoolVarP(&countMode, "count", "c", false,
		"Count distinct products per slim term instead of rewriting rows")
	flags.BoolVarP(&tabIndent, "tab", "t", false,
		"Indent count rows by slim hierarchy depth")
	flags.StringVarP(&aspect, "aspect", "a", "",
		"Restrict association rows to one aspect code (F, P or C)")
	flags.BoolVar(&gffMode, "gff", false,
		"Read the association as a feature table (type column resolved by name)")
	flags.StringVar(&outmapPath, "outmap", "",
		"Write the term-to-slim mapping table for every term and exit")
	flags.BoolVar(&showNames, "shownames", false,
		"Attach quoted display names to ids in the --outmap table")
	flags.StringVar(&inmapPath, "inmap", "",
		"Preload a previously written mapping table; resolutions are still recomputed")
	flags.StringVar(&cachePath, "cache", "",
		"Graph cache file, read when fresh and rewritten after a parse")
	flags.BoolVar(&forceParse, "force", false,
		"Reparse the ontology even when the cache is fresh")
	flags.StringVarP(&bucketPath, "bucket", "b", "",
		"Accepted for compatibility; bucket terms are not synthesized")
	flags.StringArrayVar(&evCodes, "evcode", nil,
		"Accepted for compatibility; evidence codes are not filtered")
	flags.StringArrayVar(&evCodes, "ev", nil,
		"Alias for --evcode")
	flags.StringVarP(&dbName, "dbname", "d", "",
		"Accepted for compatibility; database mode is not supported")
	flags.StringVarP(&dbHost, "host", "H", "",
		"Accepted for compatibility; database mode is not supported")
	flags.StringVarP(&errPath, "err", "e", "",
		"Accepted for compatibility; diagnostics go to stderr")
	_ = flags.MarkHidden("ev")

	rootCmd.AddCommand(validateCmd)
}

func runMapper(cmd *cobra.Command, args []string) {
	logger, err := newCLILogger(verbose)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()

	if aspect != "" {
		normalized := strings.ToUpper(strings.TrimSpace(aspect))
		switch normalized {
		case "F", "P", "C":
			aspect = normalized
		default:
			log.Fatalf("Invalid aspect %q: must be one of F, P, C", aspect)
		}
	}
	if bucketPath != "" {
		logger.Warn("bucket term synthesis is not supported, ignoring",
			zap.String("bucket", bucketPath))
	}
	if len(evCodes) > 0 {
		logger.Warn("evidence filtering is not supported, ignoring",
			zap.Strings("evcodes", evCodes))
	}

	slimPath := args[0]
	ontFiles, assocPath, err := splitSources(args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	sources := append([]string{slimPath}, ontFiles...)
	graph, err := loadGraph(ctx, sources, logger)
	if err != nil {
		log.Fatalf("Failed to load ontology: %v", err)
	}

	slim, err := obo.NewSlimLoader(logger, 0).LoadSlim(ctx, slimPath, graph)
	if err != nil {
		log.Fatalf("Failed to load slim set: %v", err)
	}
	if slim.IsEmpty() {
		logger.Warn("slim set is empty after loading; check the file type and contents",
			zap.String("slim", slimPath))
	}

	snapshot := aggregates.NewOntologySnapshot(graph, slim, aggregates.DefaultRelationFilter())

	if inmapPath != "" {
		memo, err := readMemo(logger, inmapPath)
		if err != nil {
			log.Fatalf("Failed to read mapping memo: %v", err)
		}
		logger.Info("mapping memo preloaded; resolutions are recomputed from the graph",
			zap.String("path", inmapPath),
			zap.Int("entries", memo.Len()),
		)
	}

	if outmapPath != "" {
		writeMappingTable(ctx, logger, snapshot)
		return
	}

	if assocPath == "" {
		log.Fatalf("Association file is required unless --outmap is used.")
	}

	reader, err := annot.Open(assocPath)
	if err != nil {
		log.Fatalf("Failed to open association file: %v", err)
	}
	defer reader.Close()

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	stats, counts, err := services.NewMappingService(logger).Run(ctx, snapshot, reader, out, services.MappingOptions{
		CountMode:    countMode,
		Aspect:       aspect,
		FeatureTable: gffMode,
	})
	if err != nil {
		log.Fatalf("Failed to process associations: %v", err)
	}

	if countMode {
		opts := services.CountReportOptions{Indent: tabIndent}
		if err := services.NewCountReporter().Render(snapshot, counts, out, opts); err != nil {
			log.Fatalf("Failed to render count table: %v", err)
		}
	}

	logger.Info("association processing finished",
		zap.String("association", assocPath),
		zap.Int("rows", stats.RowsIn),
		zap.Int("mapped", stats.Mapped),
		zap.Int("emitted", stats.Emitted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skippedNegated", stats.SkippedNegated),
		zap.Int("skippedAspect", stats.SkippedAspect),
		zap.Int("skippedUnknown", stats.SkippedUnknown),
		zap.Int("skippedNoPath", stats.SkippedNoPath),
	)
}

// splitSources resolves the free arguments after the slim file into ontology
// sources plus the optional association file. With --ontdir the ontology
// list comes from the directory and at most one free argument remains for
// the association; otherwise the last argument is the association unless
// --outmap consumes every source as an ontology.
func splitSources(rest []string) (ontFiles []string, assocPath string, err error) {
	if ontDir != "" {
		ontFiles, err = obo.DiscoverOntologies(ontDir)
		if err != nil {
			return nil, "", err
		}
		switch len(rest) {
		case 0:
		case 1:
			assocPath = rest[0]
		default:
			return nil, "", errors.New("at most one association file may follow the slim file when --ontdir is used")
		}
	} else {
		ontFiles = rest
		if outmapPath == "" && len(ontFiles) > 0 {
			assocPath = ontFiles[len(ontFiles)-1]
			ontFiles = ontFiles[:len(ontFiles)-1]
		}
	}

	if len(ontFiles) == 0 {
		return nil, "", errors.New("no ontology files provided. Supply one or more OBO files after the slim file, or use --ontdir")
	}
	return ontFiles, assocPath, nil
}

// loadGraph parses the ontology sources, going through the graph cache when
// one is configured. --force skips the cache read but still refreshes the
// file after the parse.
func loadGraph(ctx context.Context, sources []string, logger *zap.Logger) (*aggregates.TermGraph, error) {
	if cachePath == "" {
		return obo.NewLoader(logger).LoadGraph(ctx, sources)
	}

	graphCache := cache.NewFileGraphCache(cachePath, versioning.NewVersioningService(), logger)

	if !forceParse {
		graph, _, err := graphCache.Load(ctx, sources)
		if err != nil {
			return nil, err
		}
		if graph != nil {
			return graph, nil
		}
	}

	graph, err := obo.NewLoader(logger).LoadGraph(ctx, sources)
	if err != nil {
		return nil, err
	}
	if _, err := graphCache.Store(ctx, graph); err != nil {
		return nil, err
	}
	return graph, nil
}

func readMemo(logger *zap.Logger, path string) (*services.MappingMemo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.NewDumpService(logger).ReadInmap(f, path)
}

func writeMappingTable(ctx context.Context, logger *zap.Logger, snapshot *aggregates.OntologySnapshot) {
	out, err := os.Create(outmapPath)
	if err != nil {
		log.Fatalf("Failed to create mapping table file: %v", err)
	}
	defer out.Close()

	opts := services.DumpOptions{ShowNames: showNames}
	written, err := services.NewDumpService(logger).WriteOutmap(ctx, snapshot, out, opts)
	if err != nil {
		log.Fatalf("Failed to write mapping table: %v", err)
	}
	logger.Info("mapping table written",
		zap.String("path", outmapPath),
		zap.Int("terms", written),
	)
}

// newCLILogger builds a stderr logger so mapped rows on stdout stay clean.
// Non-verbose runs only surface warnings.
func newCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
