package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"seopilot-backend/application/commands"
	"seopilot-backend/application/commands/bus"
	commands_handlers "seopilot-backend/application/commands/handlers"
	"seopilot-backend/application/ports"
	"seopilot-backend/application/queries"
	querybus "seopilot-backend/application/queries/bus"
	queries_handlers "seopilot-backend/application/queries/handlers"
	"seopilot-backend/application/services"
	domainconfig "seopilot-backend/domain/config"
	"seopilot-backend/infrastructure/collaborators"
	"seopilot-backend/infrastructure/config"
	"seopilot-backend/infrastructure/messaging/eventbridge"
	"seopilot-backend/infrastructure/persistence/dynamodb"
	"seopilot-backend/pkg/auth"
	"seopilot-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
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

// ProvideDomainConfig loads heuristic constants for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	if cfg.TrackingMaxDays > 0 {
		dc.MaxTrackingDays = cfg.TrackingMaxDays
	}
	return dc
}

// ProvidePageRepository creates a page repository
func ProvidePageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.PageRepository {
	return dynamodb.NewPageRepository(
		client,
		cfg.DynamoDBTable,
		cfg.IndexName,
		logger,
	)
}

// ProvideSuggestionRepository creates a suggestion repository
func ProvideSuggestionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SuggestionRepository {
	return dynamodb.NewSuggestionRepository(
		client,
		cfg.DynamoDBTable,
		cfg.IndexName,     // GSI1 for direct ID lookups
		cfg.GSI2IndexName, // GSI2 for status and tracking-start queries
		logger,
	)
}

// ProvideSnapshotRepository creates a snapshot repository
func ProvideSnapshotRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SnapshotRepository {
	return dynamodb.NewSnapshotRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideAnalysisLogRepository creates an analysis log repository
func ProvideAnalysisLogRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.AnalysisLogRepository {
	return dynamodb.NewAnalysisLogRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideDomainLock creates the per-domain structural lock
func ProvideDomainLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DomainLock {
	return dynamodb.NewDomainLock(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates an event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("SEOPilot/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client)
}

// ProvideDistributedRateLimiter creates a distributed rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		100,           // 100 requests
		1*time.Minute, // per minute
		"API",         // key prefix for API rate limiting
	)
}

// ProvideAnalyticsSource creates the search analytics collaborator
func ProvideAnalyticsSource() ports.AnalyticsSource {
	return collaborators.NewUnavailableAnalytics()
}

// ProvideSEOMetricsStore creates the audit score collaborator
func ProvideSEOMetricsStore() ports.SEOMetricsStore {
	return collaborators.NewUnavailableSEOStore()
}

// ProvideAISummarizer creates the AI analysis collaborator
func ProvideAISummarizer() ports.AISummarizer {
	return collaborators.NewUnavailableSummarizer()
}

// ProvideLayoutService creates the tree layout service
func ProvideLayoutService(
	pageRepo ports.PageRepository,
	publisher ports.EventPublisher,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.LayoutService {
	return services.NewLayoutService(pageRepo, publisher, dc, logger)
}

// ProvideReparentService creates the reparenting service
func ProvideReparentService(
	pageRepo ports.PageRepository,
	lock ports.DomainLock,
	publisher ports.EventPublisher,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ReparentService {
	return services.NewReparentService(pageRepo, lock, publisher, dc, logger)
}

// ProvideTrackingService creates the tracking service
func ProvideTrackingService(
	suggestionRepo ports.SuggestionRepository,
	snapshotRepo ports.SnapshotRepository,
	analysisRepo ports.AnalysisLogRepository,
	analytics ports.AnalyticsSource,
	seoStore ports.SEOMetricsStore,
	summarizer ports.AISummarizer,
	publisher ports.EventPublisher,
	dc *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *services.TrackingService {
	return services.NewTrackingService(
		suggestionRepo,
		snapshotRepo,
		analysisRepo,
		analytics,
		seoStore,
		summarizer,
		publisher,
		dc,
		time.Duration(cfg.CollaboratorTimeoutMS)*time.Millisecond,
		logger,
	)
}

// busMetrics adapts *observability.Metrics to the bus metrics interfaces
type busMetrics struct {
	metrics *observability.Metrics
}

func (m busMetrics) StartTimer(metric, label string) bus.Timer {
	return m.metrics.StartTimer(metric, label)
}

func (m busMetrics) Increment(metric, label string) {
	m.metrics.Increment(metric, label)
}

// queryBusMetrics satisfies the query bus variant of the same interface
type queryBusMetrics struct {
	metrics *observability.Metrics
}

func (m queryBusMetrics) StartTimer(metric, label string) querybus.Timer {
	return m.metrics.StartTimer(metric, label)
}

func (m queryBusMetrics) Increment(metric, label string) {
	m.metrics.Increment(metric, label)
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(keysAndValues...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	reparentService *services.ReparentService,
	layoutService *services.LayoutService,
	trackingService *services.TrackingService,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	pipeline := buildCommandPipeline(metrics, cfg, logger)

	register := func(cmd bus.Command, handler bus.CommandHandler) {
		if err := commandBus.Register(cmd, pipeline.Execute(handler)); err != nil {
			logger.Error("Failed to register command handler",
				zap.String("command", fmt.Sprintf("%T", cmd)),
				zap.Error(err),
			)
		}
	}

	register(commands.ReparentPageCommand{}, commands_handlers.NewReparentPageHandler(reparentService))
	register(commands.BulkReparentCommand{}, commands_handlers.NewBulkReparentHandler(reparentService))
	register(commands.UpdatePagePositionsCommand{}, commands_handlers.NewUpdatePositionsHandler(layoutService))
	register(commands.StartTrackingCommand{}, commands_handlers.NewStartTrackingHandler(trackingService))
	register(commands.CaptureSnapshotCommand{}, commands_handlers.NewCaptureSnapshotHandler(trackingService))
	register(commands.AnalyzeImpactCommand{}, commands_handlers.NewAnalyzeImpactHandler(trackingService))
	register(commands.EndTrackingCommand{}, commands_handlers.NewEndTrackingHandler(trackingService))
	register(commands.AutoCompleteStaleCommand{}, commands_handlers.NewAutoCompleteStaleHandler(trackingService))

	return commandBus
}

func buildCommandPipeline(metrics *observability.Metrics, cfg *config.Config, logger *zap.Logger) *bus.Pipeline {
	middlewares := []bus.Middleware{
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
	}
	if cfg.EnableMetrics {
		middlewares = append(middlewares, bus.MetricsMiddleware(busMetrics{metrics}))
	}
	return bus.NewPipeline(middlewares...)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	layoutService *services.LayoutService,
	suggestionRepo ports.SuggestionRepository,
	snapshotRepo ports.SnapshotRepository,
	analysisRepo ports.AnalysisLogRepository,
	cache ports.Cache,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	caching := querybus.NewCachingMiddleware(cache, 30*time.Second)
	var metricsMiddleware *querybus.MetricsMiddleware
	if cfg.EnableMetrics {
		metricsMiddleware = querybus.NewMetricsMiddleware(queryBusMetrics{metrics})
	}

	register := func(query querybus.Query, handler querybus.QueryHandler, cached bool) {
		if cached {
			handler = caching.Wrap(handler)
		}
		if metricsMiddleware != nil {
			handler = metricsMiddleware.Wrap(handler)
		}
		if err := queryBus.Register(query, handler); err != nil {
			logger.Error("Failed to register query handler",
				zap.String("query", fmt.Sprintf("%T", query)),
				zap.Error(err),
			)
		}
	}

	// Tree layouts are expensive to compute and safe to cache briefly;
	// suggestion reads change on every snapshot so they stay uncached.
	register(queries.GetTreeLayoutQuery{}, queries_handlers.NewGetTreeLayoutHandler(layoutService), true)
	register(queries.GetSuggestionQuery{}, queries_handlers.NewGetSuggestionHandler(suggestionRepo), false)
	register(queries.ListSuggestionsQuery{}, queries_handlers.NewListSuggestionsHandler(suggestionRepo), false)
	register(queries.GetSuggestionTimelineQuery{}, queries_handlers.NewGetSuggestionTimelineHandler(suggestionRepo, snapshotRepo, analysisRepo), false)

	return queryBus
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}
