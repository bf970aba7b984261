package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/core/entities"
	"seopilot-backend/domain/core/valueobjects"
)

// AnalysisLogRepository implements ports.AnalysisLogRepository using
// DynamoDB. Records are append-only and keyed by analysis time.
type AnalysisLogRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewAnalysisLogRepository creates a new AnalysisLogRepository
func NewAnalysisLogRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.AnalysisLogRepository {
	return &AnalysisLogRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// analysisLogItem represents the DynamoDB item structure for an analysis record
type analysisLogItem struct {
	PK            string       `dynamodbav:"PK"`
	SK            string       `dynamodbav:"SK"`
	EntityType    string       `dynamodbav:"EntityType"`
	SuggestionID  string       `dynamodbav:"SuggestionID"`
	AnalysisType  string       `dynamodbav:"AnalysisType"`
	AnalyzedAt    string       `dynamodbav:"AnalyzedAt"`
	Effectiveness float64      `dynamodbav:"Effectiveness"`
	Trend         string       `dynamodbav:"Trend"`
	Analysis      analysisItem `dynamodbav:"Analysis"`
	Metrics       metricsItem  `dynamodbav:"Metrics"`
}

// Append writes an analysis record
func (r *AnalysisLogRepository) Append(ctx context.Context, log entities.EffectivenessLog) error {
	item := analysisLogItem{
		PK:            fmt.Sprintf("SUGGESTION#%s", log.SuggestionID.String()),
		SK:            fmt.Sprintf("ANALYSIS#%s", log.AnalyzedAt.UTC().Format(time.RFC3339Nano)),
		EntityType:    "ANALYSIS",
		SuggestionID:  log.SuggestionID.String(),
		AnalysisType:  log.AnalysisType,
		AnalyzedAt:    log.AnalyzedAt.UTC().Format(time.RFC3339Nano),
		Effectiveness: log.Effectiveness,
		Trend:         log.Trend,
		Analysis:      analysisToItem(log.Analysis),
		Metrics:       metricsToItem(log.Metrics),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to append analysis record",
			zap.String("suggestionID", log.SuggestionID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append analysis record: %w", err)
	}

	return nil
}

// ListBySuggestion retrieves all analysis records in time order
func (r *AnalysisLogRepository) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.EffectivenessLog, error) {
	var logs []entities.EffectivenessLog
	var lastKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SUGGESTION#%s", suggestionID.String())},
				":sk": &types.AttributeValueMemberS{Value: "ANALYSIS#"},
			},
			ExclusiveStartKey: lastKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query analysis records: %w", err)
		}

		for _, raw := range result.Items {
			var item analysisLogItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal analysis record: %w", err)
			}

			sid, err := valueobjects.NewSuggestionIDFromString(item.SuggestionID)
			if err != nil {
				r.logger.Warn("Skipping malformed analysis record",
					zap.String("suggestionID", item.SuggestionID),
					zap.Error(err),
				)
				continue
			}
			analyzedAt, _ := time.Parse(time.RFC3339Nano, item.AnalyzedAt)

			logs = append(logs, entities.EffectivenessLog{
				SuggestionID:  sid,
				AnalysisType:  item.AnalysisType,
				AnalyzedAt:    analyzedAt,
				Effectiveness: item.Effectiveness,
				Trend:         item.Trend,
				Analysis:      analysisFromItem(item.Analysis),
				Metrics:       metricsFromItem(item.Metrics),
			})
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return logs, nil
}
