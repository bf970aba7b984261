package dynamodb

import (
	"context"
	"errors"
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
	pkgerrors "seopilot-backend/pkg/errors"
)

// SnapshotRepository implements ports.SnapshotRepository using DynamoDB.
// One item per suggestion per UTC day; a conditional put makes the
// daily capture idempotent under concurrent schedulers.
type SnapshotRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SnapshotRepository {
	return &SnapshotRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// snapshotItem represents the DynamoDB item structure for a snapshot
type snapshotItem struct {
	PK           string      `dynamodbav:"PK"`
	SK           string      `dynamodbav:"SK"`
	EntityType   string      `dynamodbav:"EntityType"`
	SuggestionID string      `dynamodbav:"SuggestionID"`
	PageID       string      `dynamodbav:"PageID"`
	SnapshotDate string      `dynamodbav:"SnapshotDate"`
	DayNumber    int         `dynamodbav:"DayNumber"`
	Metrics      metricsItem `dynamodbav:"Metrics"`
	CapturedAt   string      `dynamodbav:"CapturedAt"`
}

func snapshotToItem(snapshot entities.TrackingSnapshot) snapshotItem {
	return snapshotItem{
		PK:           fmt.Sprintf("SUGGESTION#%s", snapshot.SuggestionID.String()),
		SK:           fmt.Sprintf("SNAPSHOT#%s", snapshot.SnapshotDate),
		EntityType:   "SNAPSHOT",
		SuggestionID: snapshot.SuggestionID.String(),
		PageID:       snapshot.PageID.String(),
		SnapshotDate: snapshot.SnapshotDate,
		DayNumber:    snapshot.DayNumber,
		Metrics:      metricsToItem(snapshot.Metrics),
		CapturedAt:   snapshot.CapturedAt.UTC().Format(time.RFC3339),
	}
}

func snapshotFromItem(item snapshotItem) (entities.TrackingSnapshot, error) {
	suggestionID, err := valueobjects.NewSuggestionIDFromString(item.SuggestionID)
	if err != nil {
		return entities.TrackingSnapshot{}, fmt.Errorf("invalid stored suggestion ID %q: %w", item.SuggestionID, err)
	}
	// Domain-wide suggestions capture snapshots with no page ID
	var pageID valueobjects.PageID
	if item.PageID != "" {
		pageID, err = valueobjects.NewPageIDFromString(item.PageID)
		if err != nil {
			return entities.TrackingSnapshot{}, fmt.Errorf("invalid stored page ID %q: %w", item.PageID, err)
		}
	}

	capturedAt, _ := time.Parse(time.RFC3339, item.CapturedAt)

	return entities.TrackingSnapshot{
		SuggestionID: suggestionID,
		PageID:       pageID,
		SnapshotDate: item.SnapshotDate,
		DayNumber:    item.DayNumber,
		Metrics:      metricsFromItem(item.Metrics),
		CapturedAt:   capturedAt,
	}, nil
}

// Insert writes a snapshot unless the day was already captured
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot entities.TrackingSnapshot) (bool, error) {
	av, err := attributevalue.MarshalMap(snapshotToItem(snapshot))
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			r.logger.Debug("Snapshot already captured for day",
				zap.String("suggestionID", snapshot.SuggestionID.String()),
				zap.String("date", snapshot.SnapshotDate),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return true, nil
}

// GetByDate retrieves the snapshot for a specific yyyy-mm-dd day
func (r *SnapshotRepository) GetByDate(ctx context.Context, suggestionID valueobjects.SuggestionID, date string) (*entities.TrackingSnapshot, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SUGGESTION#%s", suggestionID.String())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SNAPSHOT#%s", date)},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("snapshot")
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	snapshot, err := snapshotFromItem(item)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListBySuggestion retrieves all snapshots for a suggestion in date
// order. The yyyy-mm-dd sort key sorts lexicographically.
func (r *SnapshotRepository) ListBySuggestion(ctx context.Context, suggestionID valueobjects.SuggestionID) ([]entities.TrackingSnapshot, error) {
	var snapshots []entities.TrackingSnapshot
	var lastKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SUGGESTION#%s", suggestionID.String())},
				":sk": &types.AttributeValueMemberS{Value: "SNAPSHOT#"},
			},
			ExclusiveStartKey: lastKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query snapshots: %w", err)
		}

		for _, raw := range result.Items {
			var item snapshotItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
			}
			snapshot, err := snapshotFromItem(item)
			if err != nil {
				r.logger.Warn("Skipping malformed snapshot item",
					zap.String("suggestionID", item.SuggestionID),
					zap.String("date", item.SnapshotDate),
					zap.Error(err),
				)
				continue
			}
			snapshots = append(snapshots, snapshot)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return snapshots, nil
}
