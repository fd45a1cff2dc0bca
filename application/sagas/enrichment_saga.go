package sagas

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"goslim/application/commands"
	"goslim/application/ports"
	"goslim/domain/core/entities"
	pkgerrors "goslim/pkg/errors"
)

const (
	geneListFileName   = "genes.txt"
	backgroundFileName = "background.txt"

	uploadRetries    = 3
	uploadRetryDelay = 2 * time.Second
)

// enrichmentData flows through the saga steps
type enrichmentData struct {
	job       *entities.Job
	workdir   string
	geneFile  string
	bgFile    string
	output    []byte
	noResults bool
	artifacts map[string][]byte
	urls      map[string]string
}

// EnrichmentSaga runs the external term enrichment tool in a scratch
// directory and uploads whatever result files it leaves behind. The scratch
// directory is compensated away when any later step fails; uploads retry
// because the object store is the only step with transient failure modes.
type EnrichmentSaga struct {
	registry    ports.ToolRegistry
	runner      ports.ToolRunner
	resultStore ports.ResultStore
	logger      *zap.Logger
}

// NewEnrichmentSaga creates a new enrichment saga
func NewEnrichmentSaga(
	registry ports.ToolRegistry,
	runner ports.ToolRunner,
	resultStore ports.ResultStore,
	logger *zap.Logger,
) *EnrichmentSaga {
	return &EnrichmentSaga{
		registry:    registry,
		runner:      runner,
		resultStore: resultStore,
		logger:      logger,
	}
}

// Execute runs the enrichment pipeline for a job. It returns the uploaded
// artifact URLs keyed by file name, plus a human-readable note when the
// tool ran cleanly but found nothing significant.
func (s *EnrichmentSaga) Execute(ctx context.Context, job *entities.Job, cmd commands.RunEnrichmentJobCommand) (map[string]string, string, error) {
	spec, ok := s.registry.Lookup(string(entities.JobToolTermFinder))
	if !ok {
		return nil, "", pkgerrors.NewDomainError(
			pkgerrors.DomainValidationError,
			"TOOL_NOT_CONFIGURED",
			"The requested external tool is not configured",
		).WithDetail("tool", string(entities.JobToolTermFinder))
	}

	saga := NewSagaBuilder("term-enrichment", s.logger).
		WithCompensableStep("prepare-workspace", s.prepareWorkspace(), s.removeWorkspace).
		WithStep("write-gene-list", s.writeGeneList(cmd)).
		WithStep("run-tool", s.runTool(spec, cmd)).
		WithStep("collect-artifacts", s.collectArtifacts(spec)).
		WithRetryableStep("upload-artifacts", s.uploadArtifacts(), uploadRetries, uploadRetryDelay).
		Build()

	result, err := saga.Execute(ctx, &enrichmentData{
		job:       job,
		artifacts: make(map[string][]byte),
		urls:      make(map[string]string),
	})
	if err != nil {
		return nil, "", err
	}

	data := result.(*enrichmentData)
	defer s.cleanup(data.workdir)

	if data.noResults {
		return data.urls, "no significant terms found", nil
	}
	return data.urls, "", nil
}

// prepareWorkspace creates the scratch directory for one run
func (s *EnrichmentSaga) prepareWorkspace() func(context.Context, interface{}) (interface{}, error) {
	return func(ctx context.Context, raw interface{}) (interface{}, error) {
		data := raw.(*enrichmentData)
		workdir, err := os.MkdirTemp("", "termfinder-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		data.workdir = workdir
		return data, nil
	}
}

// removeWorkspace compensates a failed run by deleting the scratch directory
func (s *EnrichmentSaga) removeWorkspace(ctx context.Context, raw interface{}) error {
	data := raw.(*enrichmentData)
	if data.workdir == "" {
		return nil
	}
	return os.RemoveAll(data.workdir)
}

// writeGeneList stages the query list, and the background population when
// one was supplied, as newline-delimited files the tool can read
func (s *EnrichmentSaga) writeGeneList(cmd commands.RunEnrichmentJobCommand) func(context.Context, interface{}) (interface{}, error) {
	return func(ctx context.Context, raw interface{}) (interface{}, error) {
		data := raw.(*enrichmentData)

		data.geneFile = filepath.Join(data.workdir, geneListFileName)
		genes := strings.Join(cmd.Genes, "\n") + "\n"
		if err := os.WriteFile(data.geneFile, []byte(genes), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write gene list: %w", err)
		}

		if len(cmd.Background) > 0 {
			data.bgFile = filepath.Join(data.workdir, backgroundFileName)
			background := strings.Join(cmd.Background, "\n") + "\n"
			if err := os.WriteFile(data.bgFile, []byte(background), 0o600); err != nil {
				return nil, fmt.Errorf("failed to write background list: %w", err)
			}
		}
		return data, nil
	}
}

// runTool executes the configured tool against the staged inputs
func (s *EnrichmentSaga) runTool(spec ports.ToolSpec, cmd commands.RunEnrichmentJobCommand) func(context.Context, interface{}) (interface{}, error) {
	return func(ctx context.Context, raw interface{}) (interface{}, error) {
		data := raw.(*enrichmentData)

		extraArgs := []string{"--input", data.geneFile}
		if aspect := strings.ToUpper(strings.TrimSpace(cmd.Aspect)); aspect != "" {
			extraArgs = append(extraArgs, "--aspect", aspect)
		}
		if data.bgFile != "" {
			extraArgs = append(extraArgs, "--background", data.bgFile)
		}

		output, err := s.runner.Run(ctx, spec, data.workdir, extraArgs)
		if err != nil {
			return nil, fmt.Errorf("tool %s failed: %w", spec.Name, err)
		}
		data.output = output

		if spec.NoResultsMarker != "" && bytes.Contains(output, []byte(spec.NoResultsMarker)) {
			data.noResults = true
		}
		return data, nil
	}
}

// collectArtifacts reads the result files the tool left in the scratch
// directory, matched by configured suffix. Input files never match because
// their names carry no artifact suffix.
func (s *EnrichmentSaga) collectArtifacts(spec ports.ToolSpec) func(context.Context, interface{}) (interface{}, error) {
	return func(ctx context.Context, raw interface{}) (interface{}, error) {
		data := raw.(*enrichmentData)

		entries, err := os.ReadDir(data.workdir)
		if err != nil {
			return nil, fmt.Errorf("failed to read scratch directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !matchesSuffix(entry.Name(), spec.ArtifactSuffixes) {
				continue
			}
			body, err := os.ReadFile(filepath.Join(data.workdir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to read artifact %s: %w", entry.Name(), err)
			}
			data.artifacts[entry.Name()] = body
		}

		if len(data.artifacts) == 0 && !data.noResults {
			return nil, pkgerrors.NewDomainError(
				pkgerrors.DomainBusinessRuleError,
				"NO_ARTIFACTS_PRODUCED",
				"The external tool produced no result artifacts",
			).WithDetail("tool", spec.Name)
		}
		return data, nil
	}
}

// uploadArtifacts stores each artifact under a content-addressed key
func (s *EnrichmentSaga) uploadArtifacts() func(context.Context, interface{}) (interface{}, error) {
	return func(ctx context.Context, raw interface{}) (interface{}, error) {
		data := raw.(*enrichmentData)

		names := make([]string, 0, len(data.artifacts))
		for name := range data.artifacts {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, done := data.urls[name]; done {
				continue
			}
			body := data.artifacts[name]
			key := fmt.Sprintf("%x/%s", md5.Sum(body), name)
			url, err := s.resultStore.Store(ctx, key, "text/plain; charset=utf-8", bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("failed to store artifact %s: %w", name, err)
			}
			data.urls[name] = url
		}
		return data, nil
	}
}

// cleanup removes the scratch directory after a successful run
func (s *EnrichmentSaga) cleanup(workdir string) {
	if workdir == "" {
		return
	}
	if err := os.RemoveAll(workdir); err != nil {
		s.logger.Warn("failed to remove scratch directory",
			zap.String("workdir", workdir),
			zap.Error(err),
		)
	}
}

func matchesSuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
