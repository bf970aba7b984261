//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"seopilot-backend/application/commands/bus"
	"seopilot-backend/application/ports"
	querybus "seopilot-backend/application/queries/bus"
	"seopilot-backend/application/services"
	"seopilot-backend/infrastructure/config"
	"seopilot-backend/pkg/auth"
	"seopilot-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	PageRepo        ports.PageRepository
	SuggestionRepo  ports.SuggestionRepository
	SnapshotRepo    ports.SnapshotRepository
	AnalysisRepo    ports.AnalysisLogRepository
	EventPublisher  ports.EventPublisher
	DomainLock      ports.DomainLock
	LayoutService   *services.LayoutService
	ReparentService *services.ReparentService
	TrackingService *services.TrackingService
	CommandBus      *bus.CommandBus
	QueryBus        *querybus.QueryBus
	Cache           ports.Cache
	Metrics         *observability.Metrics
	RateLimiter     *auth.DistributedRateLimiter
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDomainConfig,
	ProvidePageRepository,
	ProvideSuggestionRepository,
	ProvideSnapshotRepository,
	ProvideAnalysisLogRepository,
	ProvideDomainLock,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideDistributedRateLimiter,
	ProvideAnalyticsSource,
	ProvideSEOMetricsStore,
	ProvideAISummarizer,
	ProvideLayoutService,
	ProvideReparentService,
	ProvideTrackingService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideInMemoryCache,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
