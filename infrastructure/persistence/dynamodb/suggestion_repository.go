package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
	pkgerrors "seopilot-backend/pkg/errors"
)

// SuggestionRepository implements ports.SuggestionRepository using DynamoDB
type SuggestionRepository struct {
	client        *dynamodb.Client
	tableName     string
	indexName     string
	trackingIndex string
	logger        *zap.Logger
}

// NewSuggestionRepository creates a new SuggestionRepository
func NewSuggestionRepository(client *dynamodb.Client, tableName, indexName, trackingIndex string, logger *zap.Logger) ports.SuggestionRepository {
	return &SuggestionRepository{
		client:        client,
		tableName:     tableName,
		indexName:     indexName,
		trackingIndex: trackingIndex,
		logger:        logger,
	}
}

// metricsItem mirrors valueobjects.PageMetrics for storage
type metricsItem struct {
	Impressions      int64    `dynamodbav:"Impressions"`
	Clicks           int64    `dynamodbav:"Clicks"`
	CTR              float64  `dynamodbav:"CTR"`
	AvgPosition      float64  `dynamodbav:"AvgPosition"`
	SEOScore         *float64 `dynamodbav:"SEOScore,omitempty"`
	PerformanceScore *float64 `dynamodbav:"PerformanceScore,omitempty"`
	HealthScore      *float64 `dynamodbav:"HealthScore,omitempty"`
}

func metricsToItem(m valueobjects.PageMetrics) metricsItem {
	return metricsItem{
		Impressions:      m.Impressions,
		Clicks:           m.Clicks,
		CTR:              m.CTR,
		AvgPosition:      m.AvgPosition,
		SEOScore:         m.SEOScore,
		PerformanceScore: m.PerformanceScore,
		HealthScore:      m.HealthScore,
	}
}

func metricsFromItem(item metricsItem) valueobjects.PageMetrics {
	return valueobjects.PageMetrics{
		Impressions:      item.Impressions,
		Clicks:           item.Clicks,
		CTR:              item.CTR,
		AvgPosition:      item.AvgPosition,
		SEOScore:         item.SEOScore,
		PerformanceScore: item.PerformanceScore,
		HealthScore:      item.HealthScore,
	}
}

// deltaItem mirrors valueobjects.MetricDelta for storage
type deltaItem struct {
	Metric    string   `dynamodbav:"Metric"`
	Baseline  float64  `dynamodbav:"Baseline"`
	Current   float64  `dynamodbav:"Current"`
	Delta     float64  `dynamodbav:"Delta"`
	Percent   *float64 `dynamodbav:"Percent,omitempty"`
	Direction string   `dynamodbav:"Direction"`
}

// analysisItem mirrors valueobjects.AnalysisResult for storage
type analysisItem struct {
	OverallEffect   string      `dynamodbav:"OverallEffect"`
	Confidence      float64     `dynamodbav:"Confidence"`
	Summary         string      `dynamodbav:"Summary"`
	Deltas          []deltaItem `dynamodbav:"Deltas"`
	Factors         []string    `dynamodbav:"Factors,omitempty"`
	Recommendations []string    `dynamodbav:"Recommendations,omitempty"`
	Insights        []string    `dynamodbav:"Insights,omitempty"`
	Source          string      `dynamodbav:"Source"`
}

func analysisToItem(a valueobjects.AnalysisResult) analysisItem {
	deltas := make([]deltaItem, 0, len(a.Deltas))
	for _, d := range a.Deltas {
		deltas = append(deltas, deltaItem{
			Metric:    d.Metric,
			Baseline:  d.Baseline,
			Current:   d.Current,
			Delta:     d.Delta,
			Percent:   d.Percent,
			Direction: d.Direction,
		})
	}
	return analysisItem{
		OverallEffect:   a.OverallEffect,
		Confidence:      a.Confidence,
		Summary:         a.Summary,
		Deltas:          deltas,
		Factors:         a.Factors,
		Recommendations: a.Recommendations,
		Insights:        a.Insights,
		Source:          a.Source,
	}
}

func analysisFromItem(item analysisItem) valueobjects.AnalysisResult {
	deltas := make([]valueobjects.MetricDelta, 0, len(item.Deltas))
	for _, d := range item.Deltas {
		deltas = append(deltas, valueobjects.MetricDelta{
			Metric:    d.Metric,
			Baseline:  d.Baseline,
			Current:   d.Current,
			Delta:     d.Delta,
			Percent:   d.Percent,
			Direction: d.Direction,
		})
	}
	return valueobjects.AnalysisResult{
		OverallEffect:   item.OverallEffect,
		Confidence:      item.Confidence,
		Summary:         item.Summary,
		Deltas:          deltas,
		Factors:         item.Factors,
		Recommendations: item.Recommendations,
		Insights:        item.Insights,
		Source:          item.Source,
	}
}

// suggestionItem represents the DynamoDB item structure for a suggestion
type suggestionItem struct {
	PK                string        `dynamodbav:"PK"`
	SK                string        `dynamodbav:"SK"`
	GSI1PK            string        `dynamodbav:"GSI1PK"`
	GSI1SK            string        `dynamodbav:"GSI1SK"`
	GSI2PK            string        `dynamodbav:"GSI2PK"`
	GSI2SK            string        `dynamodbav:"GSI2SK"`
	EntityType        string        `dynamodbav:"EntityType"`
	SuggestionID      string        `dynamodbav:"SuggestionID"`
	DomainID          string        `dynamodbav:"DomainID"`
	PageID            string        `dynamodbav:"PageID"`
	PageURL           string        `dynamodbav:"PageURL"`
	Kind              string        `dynamodbav:"Kind"`
	Description       string        `dynamodbav:"Description"`
	Status            string        `dynamodbav:"Status"`
	Baseline          *metricsItem  `dynamodbav:"Baseline,omitempty"`
	FinalMetrics      *metricsItem  `dynamodbav:"FinalMetrics,omitempty"`
	TrackingStartedAt string        `dynamodbav:"TrackingStartedAt,omitempty"`
	TrackingEndedAt   string        `dynamodbav:"TrackingEndedAt,omitempty"`
	TrackedDays       int           `dynamodbav:"TrackedDays"`
	AutoClosed        bool          `dynamodbav:"AutoClosed"`
	LatestAnalysis    *analysisItem `dynamodbav:"LatestAnalysis,omitempty"`
	Effectiveness     *float64      `dynamodbav:"Effectiveness,omitempty"`
	Trend             string        `dynamodbav:"Trend,omitempty"`
	CreatedAt         string        `dynamodbav:"CreatedAt"`
	UpdatedAt         string        `dynamodbav:"UpdatedAt"`
	Version           int           `dynamodbav:"Version"`
}

func suggestionToItem(s *entities.Suggestion) suggestionItem {
	item := suggestionItem{
		PK:           fmt.Sprintf("DOMAIN#%s", s.DomainID().String()),
		SK:           fmt.Sprintf("SUGGESTION#%s", s.ID().String()),
		GSI1PK:       fmt.Sprintf("SUGGESTIONID#%s", s.ID().String()),
		GSI1SK:       "METADATA",
		GSI2PK:       fmt.Sprintf("STATUS#%s", s.Status()),
		GSI2SK:       fmt.Sprintf("CREATED#%s", s.CreatedAt().UTC().Format(time.RFC3339)),
		EntityType:   "SUGGESTION",
		SuggestionID: s.ID().String(),
		DomainID:     s.DomainID().String(),
		PageID:       s.PageID().String(),
		PageURL:      s.PageURL(),
		Kind:         s.Kind(),
		Description:  s.Description(),
		Status:       string(s.Status()),
		TrackedDays:  s.TrackedDays(),
		AutoClosed:   s.AutoClosed(),
		Trend:        s.Trend(),
		CreatedAt:    s.CreatedAt().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt().Format(time.RFC3339),
		Version:      s.Version(),
	}
	if baseline := s.Baseline(); baseline != nil {
		b := metricsToItem(*baseline)
		item.Baseline = &b
	}
	if final := s.FinalMetrics(); final != nil {
		f := metricsToItem(*final)
		item.FinalMetrics = &f
	}
	if started := s.TrackingStartedAt(); started != nil {
		item.TrackingStartedAt = started.UTC().Format(time.RFC3339)
		// Tracking suggestions sort by start time so the stale sweep
		// can range-scan the oldest first.
		item.GSI2SK = fmt.Sprintf("TRACKING#%s", started.UTC().Format(time.RFC3339))
	}
	if ended := s.TrackingEndedAt(); ended != nil {
		item.TrackingEndedAt = ended.UTC().Format(time.RFC3339)
	}
	if eff := s.Effectiveness(); eff != nil {
		v := *eff
		item.Effectiveness = &v
	}
	if analysis := s.LatestAnalysis(); analysis != nil {
		a := analysisToItem(*analysis)
		item.LatestAnalysis = &a
	}
	return item
}

func suggestionFromItem(item suggestionItem) (*entities.Suggestion, error) {
	suggestionID, err := valueobjects.NewSuggestionIDFromString(item.SuggestionID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored suggestion ID %q: %w", item.SuggestionID, err)
	}
	domainID, err := valueobjects.NewDomainIDFromString(item.DomainID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored domain ID %q: %w", item.DomainID, err)
	}
	// Domain-wide suggestions store no page ID
	var pageID valueobjects.PageID
	if item.PageID != "" {
		pageID, err = valueobjects.NewPageIDFromString(item.PageID)
		if err != nil {
			return nil, fmt.Errorf("invalid stored page ID %q: %w", item.PageID, err)
		}
	}

	var baseline, finalMetrics *valueobjects.PageMetrics
	if item.Baseline != nil {
		b := metricsFromItem(*item.Baseline)
		baseline = &b
	}
	if item.FinalMetrics != nil {
		f := metricsFromItem(*item.FinalMetrics)
		finalMetrics = &f
	}

	var startedAt, endedAt *time.Time
	if item.TrackingStartedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.TrackingStartedAt); err == nil {
			startedAt = &t
		}
	}
	if item.TrackingEndedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.TrackingEndedAt); err == nil {
			endedAt = &t
		}
	}

	var latestAnalysis *valueobjects.AnalysisResult
	if item.LatestAnalysis != nil {
		a := analysisFromItem(*item.LatestAnalysis)
		latestAnalysis = &a
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructSuggestion(
		suggestionID,
		domainID,
		pageID,
		item.PageURL,
		item.Kind,
		item.Description,
		entities.SuggestionStatus(item.Status),
		baseline,
		finalMetrics,
		startedAt,
		endedAt,
		item.TrackedDays,
		item.AutoClosed,
		latestAnalysis,
		item.Effectiveness,
		item.Trend,
		createdAt,
		updatedAt,
		item.Version,
	)
}

// GetByID retrieves a suggestion via the entity-ID index
func (r *SuggestionRepository) GetByID(ctx context.Context, id valueobjects.SuggestionID) (*entities.Suggestion, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SUGGESTIONID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestion: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("suggestion")
	}

	var item suggestionItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}

	return suggestionFromItem(item)
}

// ListByDomain retrieves suggestions for a site, newest first
func (r *SuggestionRepository) ListByDomain(ctx context.Context, domainID valueobjects.DomainID, limit, offset int) ([]*entities.Suggestion, error) {
	var suggestions []*entities.Suggestion
	var lastKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("DOMAIN#%s", domainID.String())},
				":sk": &types.AttributeValueMemberS{Value: "SUGGESTION#"},
			},
			ExclusiveStartKey: lastKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query domain suggestions: %w", err)
		}

		for _, raw := range result.Items {
			var item suggestionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
			}
			suggestion, err := suggestionFromItem(item)
			if err != nil {
				r.logger.Warn("Skipping malformed suggestion item",
					zap.String("suggestionID", item.SuggestionID),
					zap.Error(err),
				)
				continue
			}
			suggestions = append(suggestions, suggestion)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	// SK orders by ID so pagination sorts in memory
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].CreatedAt().After(suggestions[j].CreatedAt())
	})

	if offset >= len(suggestions) {
		return []*entities.Suggestion{}, nil
	}
	suggestions = suggestions[offset:]
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return suggestions, nil
}

// ListByStatus retrieves suggestions in a given lifecycle state
func (r *SuggestionRepository) ListByStatus(ctx context.Context, status entities.SuggestionStatus, limit int) ([]*entities.Suggestion, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(fmt.Sprintf("STATUS#%s", status)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.trackingIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions by status: %w", err)
	}

	return r.unmarshalList(result.Items)
}

// ListTrackingStartedBefore retrieves tracking suggestions whose
// tracking began before the cutoff, oldest first
func (r *SuggestionRepository) ListTrackingStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Suggestion, error) {
	keyCond := expression.Key("GSI2PK").
		Equal(expression.Value(fmt.Sprintf("STATUS#%s", entities.StatusTracking))).
		And(expression.Key("GSI2SK").
			LessThan(expression.Value(fmt.Sprintf("TRACKING#%s", cutoff.UTC().Format(time.RFC3339)))))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build cutoff query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.trackingIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale tracking suggestions: %w", err)
	}

	return r.unmarshalList(result.Items)
}

// Save persists a suggestion
func (r *SuggestionRepository) Save(ctx context.Context, suggestion *entities.Suggestion) error {
	av, err := attributevalue.MarshalMap(suggestionToItem(suggestion))
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save suggestion",
			zap.String("suggestionID", suggestion.ID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save suggestion: %w", err)
	}

	return nil
}

func (r *SuggestionRepository) unmarshalList(raw []map[string]types.AttributeValue) ([]*entities.Suggestion, error) {
	suggestions := make([]*entities.Suggestion, 0, len(raw))
	for _, rawItem := range raw {
		var item suggestionItem
		if err := attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
		}
		suggestion, err := suggestionFromItem(item)
		if err != nil {
			r.logger.Warn("Skipping malformed suggestion item",
				zap.String("suggestionID", item.SuggestionID),
				zap.Error(err),
			)
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}
