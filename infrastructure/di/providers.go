package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"goslim/application/commands"
	"goslim/application/commands/bus"
	commands_handlers "goslim/application/commands/handlers"
	"goslim/application/ports"
	"goslim/application/queries"
	querybus "goslim/application/queries/bus"
	queries_handlers "goslim/application/queries/handlers"
	"goslim/application/sagas"
	"goslim/application/services"
	domainconfig "goslim/domain/config"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
	"goslim/domain/versioning"
	"goslim/infrastructure/config"
	"goslim/infrastructure/messaging"
	"goslim/infrastructure/messaging/eventbridge"
	"goslim/infrastructure/persistence/annot"
	"goslim/infrastructure/persistence/cache"
	"goslim/infrastructure/persistence/dynamodb"
	"goslim/infrastructure/persistence/localfs"
	"goslim/infrastructure/persistence/obo"
	"goslim/infrastructure/persistence/s3"
	"goslim/infrastructure/tools"
	"goslim/infrastructure/watch"
	"goslim/pkg/auth"
	"goslim/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

// ProvideDomainConfig loads the mapping pipeline tunables
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the metric recorder. With metrics disabled it gets
// no CloudWatch client and silently drops every datum.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideJobRepository creates the job record repository
func ProvideJobRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.JobRepository {
	return dynamodb.NewJobRepository(client, cfg.JobsTable, logger)
}

// ProvideEventStore creates the job event timeline store
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EventStore {
	return dynamodb.NewEventStore(client, cfg.EventsTable, logger)
}

// ProvideDistributedLock creates the lock used to serialize cache rebuilds
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DistributedLock {
	return dynamodb.NewDistributedLock(client, cfg.LocksTable, logger)
}

// ProvideDistributedRateLimiter creates a distributed rate limiter sharing
// the locks table
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.LocksTable,
		100,           // 100 requests
		1*time.Minute, // per minute
		"API",         // key prefix for API rate limiting
	)
}

// ProvideInMemoryCache creates the query result memo.
// In production, this would be Redis or similar.
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideJobMetricsHandler creates the event projection that turns job
// lifecycle events into CloudWatch data points
func ProvideJobMetricsHandler(metrics *observability.Metrics) *messaging.JobMetricsHandler {
	return messaging.NewJobMetricsHandler(metrics)
}

// ProvideCacheInvalidator creates the projection that clears the query memo
// whenever a new ontology snapshot is published
func ProvideCacheInvalidator(memo ports.Cache, logger *zap.Logger) *messaging.CacheInvalidator {
	return messaging.NewCacheInvalidator(memo, logger)
}

// ProvideEventBus creates the event bus and subscribes the local
// projections before any event can be published
func ProvideEventBus(
	client *awseventbridge.Client,
	cfg *config.Config,
	jobMetrics *messaging.JobMetricsHandler,
	invalidator *messaging.CacheInvalidator,
	logger *zap.Logger,
) (ports.EventBus, error) {
	publisher := eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)

	for _, eventType := range jobMetrics.EventTypes() {
		if err := publisher.Subscribe(eventType, jobMetrics); err != nil {
			return nil, fmt.Errorf("failed to subscribe job metrics projection: %w", err)
		}
	}
	for _, eventType := range invalidator.EventTypes() {
		if err := publisher.Subscribe(eventType, invalidator); err != nil {
			return nil, fmt.Errorf("failed to subscribe cache invalidator: %w", err)
		}
	}

	return publisher, nil
}

// ProvideEventPublisher exposes the publish side of the event bus
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideResultStore creates the artifact store. A configured bucket means
// S3; otherwise artifacts land on the local filesystem, which is the
// development mode.
func ProvideResultStore(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.ResultStore {
	if cfg.ResultsBucket != "" {
		return s3.NewResultStore(client, cfg.ResultsBucket, cfg.AWSRegion, cfg.ResultsKeyPrefix, logger)
	}

	dir := cfg.ResultsDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "goslim-results")
	}
	return localfs.NewResultStore(dir, logger)
}

// ProvideToolRegistry loads the external tool specs
func ProvideToolRegistry(cfg *config.Config, logger *zap.Logger) (*tools.Registry, error) {
	return tools.LoadRegistry(cfg.ToolsConfigPath, logger)
}

// ProvideToolRunner creates the subprocess runner for external tools
func ProvideToolRunner(logger *zap.Logger) ports.ToolRunner {
	return tools.NewRunner(logger)
}

// ProvideAssociationOpener creates the opener for association inputs
func ProvideAssociationOpener() ports.AssociationOpener {
	return annot.NewFileSource()
}

// ProvideOntologyLoader creates the OBO graph loader
func ProvideOntologyLoader(logger *zap.Logger) *obo.Loader {
	return obo.NewLoader(logger)
}

// ProvideSlimLoader creates the slim subset loader
func ProvideSlimLoader(domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *obo.SlimLoader {
	return obo.NewSlimLoader(logger, domainCfg.SniffWindowSize)
}

// ProvideGraphCache creates the persisted graph cache, or nil when no cache
// path is configured and every load parses the sources.
func ProvideGraphCache(cfg *config.Config, logger *zap.Logger) ports.GraphCache {
	if cfg.CachePath == "" {
		return nil
	}
	return cache.NewFileGraphCache(cfg.CachePath, versioning.NewVersioningService(), logger)
}

// ProvideOntologyPaths resolves the ontology sources, either the explicit
// file list or a directory scan
func ProvideOntologyPaths(cfg *config.Config) ([]string, error) {
	if len(cfg.OntologyFiles) > 0 {
		return cfg.OntologyFiles, nil
	}
	return obo.DiscoverOntologies(cfg.OntologyDir)
}

// ProvideRelationFilter builds the closed-relation set the ancestor walk
// follows. Unknown relation tags are skipped with a warning rather than
// failing startup.
func ProvideRelationFilter(domainCfg *domainconfig.DomainConfig, logger *zap.Logger) aggregates.RelationFilter {
	relations := make([]valueobjects.Relation, 0, len(domainCfg.ClosedRelations))
	for _, tag := range domainCfg.ClosedRelations {
		rel, ok := valueobjects.ParseRelation(tag)
		if !ok {
			logger.Warn("ignoring unknown relation in domain config", zap.String("relation", tag))
			continue
		}
		relations = append(relations, rel)
	}

	if len(relations) == 0 {
		return aggregates.DefaultRelationFilter()
	}
	return aggregates.NewRelationFilter(relations...)
}

// ProvideSnapshotProvider creates the ontology snapshot holder
func ProvideSnapshotProvider(
	cfg *config.Config,
	ontologyPaths []string,
	loader *obo.Loader,
	slimLoader *obo.SlimLoader,
	graphCache ports.GraphCache,
	filter aggregates.RelationFilter,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *watch.SnapshotProvider {
	return watch.NewSnapshotProvider(
		cfg.SlimFile,
		ontologyPaths,
		loader,
		slimLoader,
		graphCache,
		filter,
		eventBus,
		logger,
	)
}

// ProvideOntologyProvider exposes the read side of the snapshot provider
func ProvideOntologyProvider(provider *watch.SnapshotProvider) ports.OntologyProvider {
	return provider
}

// ProvideOntologyReloader exposes the reload side of the snapshot provider
func ProvideOntologyReloader(provider *watch.SnapshotProvider) ports.OntologyReloader {
	return provider
}

// ProvideOntologyWatcher creates the filesystem watcher behind the hot
// reload flag. Returns nil when hot reload is disabled; callers skip
// starting it.
func ProvideOntologyWatcher(cfg *config.Config, reloader ports.OntologyReloader, logger *zap.Logger) *watch.OntologyWatcher {
	if !cfg.EnableHotReload {
		return nil
	}

	dir := cfg.OntologyDir
	if dir == "" {
		dir = filepath.Dir(cfg.SlimFile)
	}
	debounce := time.Duration(cfg.WatchDebounceMS) * time.Millisecond

	return watch.NewOntologyWatcher(dir, debounce, reloader, logger)
}

// ProvideMappingService creates the association mapping service
func ProvideMappingService(logger *zap.Logger) *services.MappingService {
	return services.NewMappingService(logger)
}

// ProvideCountReporter creates the count report renderer
func ProvideCountReporter() *services.CountReporter {
	return services.NewCountReporter()
}

// ProvideEnrichmentSaga creates the enrichment tool saga
func ProvideEnrichmentSaga(
	registry *tools.Registry,
	runner ports.ToolRunner,
	resultStore ports.ResultStore,
	logger *zap.Logger,
) *sagas.EnrichmentSaga {
	return sagas.NewEnrichmentSaga(registry, runner, resultStore, logger)
}

// ProvideJobSweeper creates the abandoned-job sweeper
func ProvideJobSweeper(
	jobRepo ports.JobRepository,
	eventStore ports.EventStore,
	eventPublisher ports.EventPublisher,
	logger *zap.Logger,
) *dynamodb.JobSweeper {
	return dynamodb.NewJobSweeper(jobRepo, eventStore, eventPublisher, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	provider ports.OntologyProvider,
	reloader ports.OntologyReloader,
	opener ports.AssociationOpener,
	jobRepo ports.JobRepository,
	resultStore ports.ResultStore,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	lock ports.DistributedLock,
	saga *sagas.EnrichmentSaga,
	mapper *services.MappingService,
	reporter *services.CountReporter,
	cfg *config.Config,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	// Register RunMapperJobCommand with the pipeline orchestrator. The job
	// outcome is read back through the query bus, so the result is dropped.
	mapperJobs := commands_handlers.NewMapperJobOrchestrator(
		provider,
		opener,
		jobRepo,
		resultStore,
		eventStore,
		eventBus,
		mapper,
		reporter,
		logger,
	)
	commandBus.Register(commands.RunMapperJobCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			mapCmd, ok := cmd.(commands.RunMapperJobCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := mapperJobs.Handle(ctx, mapCmd)
			return err
		},
	})

	// Register RunEnrichmentJobCommand handler
	enrichmentJobs := commands_handlers.NewEnrichmentJobHandler(saga, jobRepo, eventStore, eventBus, logger)
	commandBus.Register(commands.RunEnrichmentJobCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			enrichCmd, ok := cmd.(commands.RunEnrichmentJobCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := enrichmentJobs.Handle(ctx, enrichCmd)
			return err
		},
	})

	// Register RebuildCacheCommand handler
	rebuildHandler := commands_handlers.NewRebuildCacheHandler(lock, reloader, eventStore, eventBus, cfg.CachePath, logger)
	commandBus.Register(commands.RebuildCacheCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			rebuildCmd, ok := cmd.(commands.RebuildCacheCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := rebuildHandler.Handle(ctx, rebuildCmd)
			return err
		},
	})

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// metricsAdapter bridges the CloudWatch recorder to the query bus metrics
// interface, which deals in its own Timer type
type metricsAdapter struct {
	metrics *observability.Metrics
}

func (a *metricsAdapter) StartTimer(metric, label string) querybus.Timer {
	return a.metrics.StartTimer(metric, label)
}

func (a *metricsAdapter) Increment(metric, label string) {
	a.metrics.Increment(metric, label)
}

// ProvideQueryBus creates a query bus with registered handlers.
//
// Snapshot-derived queries are wrapped in the caching middleware: their
// results only change when the ontology is reloaded, and the reload event
// clears the memo. Job queries are never cached because job state advances
// outside the request path.
func ProvideQueryBus(
	provider ports.OntologyProvider,
	jobRepo ports.JobRepository,
	eventStore ports.EventStore,
	memo ports.Cache,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	recording := querybus.NewMetricsMiddleware(&metricsAdapter{metrics: metrics})
	caching := querybus.NewCachingMiddleware(memo, cfg.QueryCacheTTLSeconds)

	// Register GetTermQuery handler
	getTermHandler := queries_handlers.NewGetTermHandler(provider, logger)
	queryBus.Register(queries.GetTermQuery{}, recording.Wrap(caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetTermQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getTermHandler.Handle(ctx, getQuery)
		},
	})))

	// Register GetTermMappingQuery handler
	getMappingHandler := queries_handlers.NewGetTermMappingHandler(provider, logger)
	queryBus.Register(queries.GetTermMappingQuery{}, recording.Wrap(caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			mappingQuery, ok := query.(queries.GetTermMappingQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getMappingHandler.Handle(ctx, mappingQuery)
		},
	})))

	// Register ListSlimTermsQuery handler
	listSlimHandler := queries_handlers.NewListSlimTermsHandler(provider, logger)
	queryBus.Register(queries.ListSlimTermsQuery{}, recording.Wrap(caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListSlimTermsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listSlimHandler.Handle(ctx, listQuery)
		},
	})))

	// Register GetJobQuery handler
	getJobHandler := queries_handlers.NewGetJobHandler(jobRepo, logger)
	queryBus.Register(queries.GetJobQuery{}, recording.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetJobQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getJobHandler.Handle(ctx, getQuery)
		},
	}))

	// Register ListJobsQuery handler
	listJobsHandler := queries_handlers.NewListJobsHandler(jobRepo, logger)
	queryBus.Register(queries.ListJobsQuery{}, recording.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListJobsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listJobsHandler.Handle(ctx, listQuery)
		},
	}))

	// Register GetJobEventsQuery handler
	getEventsHandler := queries_handlers.NewGetJobEventsHandler(eventStore, logger)
	queryBus.Register(queries.GetJobEventsQuery{}, recording.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			eventsQuery, ok := query.(queries.GetJobEventsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getEventsHandler.Handle(ctx, eventsQuery)
		},
	}))

	return queryBus
}
