package handlers

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"

	"go.uber.org/zap"

	"goslim/application/commands"
	"goslim/application/ports"
	"goslim/application/services"
	"goslim/domain/core/entities"
)

// Artifact names for the mapper outputs
const (
	mappedArtifactName  = "mapped-associations.gaf"
	featureArtifactName = "mapped-features.gff"
	countsArtifactName  = "slim-counts.tsv"
)

const artifactContentType = "text/plain; charset=utf-8"

// MapperJobOrchestrator runs a slim mapper job end to end: it records the
// job, streams the association file through the mapping service, uploads
// the produced artifacts and publishes the job lifecycle events.
//
// Pipeline failures do not surface as errors; they are recorded on the job,
// which is returned in FAILED state. Only submission-level problems (an
// invalid command, a repository write failure) return an error.
type MapperJobOrchestrator struct {
	jobLifecycle
	provider    ports.OntologyProvider
	opener      ports.AssociationOpener
	resultStore ports.ResultStore
	mapper      *services.MappingService
	reporter    *services.CountReporter
}

// NewMapperJobOrchestrator creates a new orchestrator instance
func NewMapperJobOrchestrator(
	provider ports.OntologyProvider,
	opener ports.AssociationOpener,
	jobRepo ports.JobRepository,
	resultStore ports.ResultStore,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	mapper *services.MappingService,
	reporter *services.CountReporter,
	logger *zap.Logger,
) *MapperJobOrchestrator {
	return &MapperJobOrchestrator{
		jobLifecycle: jobLifecycle{
			jobRepo:    jobRepo,
			eventStore: eventStore,
			eventBus:   eventBus,
			logger:     logger,
		},
		provider:    provider,
		opener:      opener,
		resultStore: resultStore,
		mapper:      mapper,
		reporter:    reporter,
	}
}

// Handle orchestrates one mapper job
func (o *MapperJobOrchestrator) Handle(ctx context.Context, cmd commands.RunMapperJobCommand) (*entities.Job, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	job := entities.NewJob(cmd.JobID, entities.JobToolSlimMapper, cmd.Mode, mapperJobParams(cmd))
	if err := o.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := job.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	if err := o.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save running job: %w", err)
	}

	if err := o.runPipeline(ctx, cmd, job); err != nil {
		o.logger.Error("mapper job failed",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
		o.fail(ctx, job, err)
		return job, nil
	}

	if err := job.Complete(); err != nil {
		return nil, fmt.Errorf("failed to complete job: %w", err)
	}
	if err := o.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save completed job: %w", err)
	}
	o.publishEvents(ctx, job)

	o.logger.Info("mapper job completed",
		zap.String("jobID", job.ID()),
		zap.String("mode", cmd.Mode),
		zap.Int("artifacts", len(job.Artifacts())),
	)
	return job, nil
}

// runPipeline streams the association file through the mapping service and
// uploads whichever artifact the mode produces
func (o *MapperJobOrchestrator) runPipeline(ctx context.Context, cmd commands.RunMapperJobCommand, job *entities.Job) error {
	loaded, err := o.provider.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ontology snapshot: %w", err)
	}

	reader, err := o.opener.Open(cmd.AssociationPath)
	if err != nil {
		return fmt.Errorf("failed to open association file: %w", err)
	}
	defer reader.Close()

	opts := services.MappingOptions{
		CountMode:    cmd.Mode == commands.MapperModeCount,
		Aspect:       cmd.Aspect,
		FeatureTable: cmd.FeatureTable,
	}

	var mapped bytes.Buffer
	stats, counts, err := o.mapper.Run(ctx, loaded.Snapshot, reader, &mapped, opts)
	if err != nil {
		return fmt.Errorf("failed to map associations: %w", err)
	}

	if opts.CountMode {
		var report bytes.Buffer
		if err := o.reporter.Render(loaded.Snapshot, counts, &report, services.CountReportOptions{Indent: cmd.Indent}); err != nil {
			return fmt.Errorf("failed to render count report: %w", err)
		}
		if err := o.storeArtifact(ctx, job, countsArtifactName, report.Bytes()); err != nil {
			return err
		}
	} else {
		name := mappedArtifactName
		if cmd.FeatureTable {
			name = featureArtifactName
		}
		if err := o.storeArtifact(ctx, job, name, mapped.Bytes()); err != nil {
			return err
		}
	}

	job.SetMessage(pipelineSummary(cmd.Mode, stats))
	return nil
}

// storeArtifact uploads one result file under a content-addressed key and
// records its URL on the job
func (o *MapperJobOrchestrator) storeArtifact(ctx context.Context, job *entities.Job, name string, body []byte) error {
	key := fmt.Sprintf("%x/%s", md5.Sum(body), name)
	url, err := o.resultStore.Store(ctx, key, artifactContentType, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", name, err)
	}
	job.AddArtifact(name, url)
	return nil
}

// mapperJobParams captures the submitted options for the job record
func mapperJobParams(cmd commands.RunMapperJobCommand) map[string]string {
	params := make(map[string]string)
	if cmd.AssociationName != "" {
		params["association"] = cmd.AssociationName
	}
	if cmd.Aspect != "" {
		params["aspect"] = cmd.Aspect
	}
	if cmd.FeatureTable {
		params["featureTable"] = "true"
	}
	if cmd.Indent {
		params["indent"] = "true"
	}
	return params
}

// pipelineSummary renders the human-readable outcome stored on the job
func pipelineSummary(mode string, stats services.MappingStats) string {
	if mode == commands.MapperModeCount {
		return fmt.Sprintf("processed %d rows, counted %d mapped associations", stats.RowsIn, stats.Mapped)
	}
	return fmt.Sprintf("processed %d rows, wrote %d mapped rows", stats.RowsIn, stats.Emitted)
}
