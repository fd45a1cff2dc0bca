package di

import (
	"goslim/application/commands/bus"
	"goslim/application/ports"
	querybus "goslim/application/queries/bus"
	domainconfig "goslim/domain/config"
	"goslim/infrastructure/config"
	"goslim/infrastructure/persistence/dynamodb"
	"goslim/infrastructure/tools"
	"goslim/infrastructure/watch"
	"goslim/pkg/auth"
	"goslim/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Ontology     ports.OntologyProvider
	Watcher      *watch.OntologyWatcher
	Sweeper      *dynamodb.JobSweeper
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Metrics      *observability.Metrics
	ResultStore  ports.ResultStore
	ToolRegistry *tools.Registry
	RateLimiter  *auth.DistributedRateLimiter
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideS3Client,
	ProvideMetrics,
	ProvideJobRepository,
	ProvideEventStore,
	ProvideDistributedLock,
	ProvideDistributedRateLimiter,
	ProvideInMemoryCache,
	ProvideJobMetricsHandler,
	ProvideCacheInvalidator,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideResultStore,
	ProvideToolRegistry,
	ProvideToolRunner,
	ProvideAssociationOpener,
	ProvideOntologyLoader,
	ProvideSlimLoader,
	ProvideGraphCache,
	ProvideOntologyPaths,
	ProvideRelationFilter,
	ProvideSnapshotProvider,
	ProvideOntologyProvider,
	ProvideOntologyReloader,
	ProvideOntologyWatcher,
	ProvideMappingService,
	ProvideCountReporter,
	ProvideEnrichmentSaga,
	ProvideJobSweeper,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)
