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
	pkgerrors "seopilot-backend/pkg/errors"
)

// transactWriteBatchSize is the DynamoDB TransactWriteItems limit
const transactWriteBatchSize = 100

// PageRepository implements ports.PageRepository using DynamoDB
type PageRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.PageRepository {
	return &PageRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// pageItem represents the DynamoDB item structure for a page
type pageItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	PageID         string   `dynamodbav:"PageID"`
	DomainID       string   `dynamodbav:"DomainID"`
	URL            string   `dynamodbav:"URL"`
	Title          string   `dynamodbav:"Title"`
	ParentID       string   `dynamodbav:"ParentID,omitempty"`
	Depth          int      `dynamodbav:"Depth"`
	ManualPosition bool     `dynamodbav:"ManualPosition"`
	ManualX        *float64 `dynamodbav:"ManualX,omitempty"`
	ManualY        *float64 `dynamodbav:"ManualY,omitempty"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
	Version        int      `dynamodbav:"Version"`
}

func pageToItem(page *entities.Page) pageItem {
	item := pageItem{
		PK:             fmt.Sprintf("DOMAIN#%s", page.DomainID().String()),
		SK:             fmt.Sprintf("PAGE#%s", page.ID().String()),
		GSI1PK:         fmt.Sprintf("PAGEID#%s", page.ID().String()),
		GSI1SK:         "METADATA",
		EntityType:     "PAGE",
		PageID:         page.ID().String(),
		DomainID:       page.DomainID().String(),
		URL:            page.URL(),
		Title:          page.Title(),
		Depth:          page.Depth(),
		ManualPosition: page.HasManualPosition(),
		CreatedAt:      page.CreatedAt().Format(time.RFC3339),
		UpdatedAt:      page.UpdatedAt().Format(time.RFC3339),
		Version:        page.Version(),
	}
	if parentID := page.ParentID(); parentID != nil {
		item.ParentID = parentID.String()
	}
	if pos, ok := page.ManualPosition(); ok {
		x, y := pos.X, pos.Y
		item.ManualX = &x
		item.ManualY = &y
	}
	return item
}

func pageFromItem(item pageItem) (*entities.Page, error) {
	pageID, err := valueobjects.NewPageIDFromString(item.PageID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored page ID %q: %w", item.PageID, err)
	}
	domainID, err := valueobjects.NewDomainIDFromString(item.DomainID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored domain ID %q: %w", item.DomainID, err)
	}

	var parentID *valueobjects.PageID
	if item.ParentID != "" {
		pid, err := valueobjects.NewPageIDFromString(item.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid stored parent ID %q: %w", item.ParentID, err)
		}
		parentID = &pid
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructPage(
		pageID,
		domainID,
		item.URL,
		item.Title,
		parentID,
		item.Depth,
		item.ManualPosition,
		item.ManualX,
		item.ManualY,
		createdAt,
		updatedAt,
		item.Version,
	)
}

// GetByID retrieves a page via the entity-ID index
func (r *PageRepository) GetByID(ctx context.Context, id valueobjects.PageID) (*entities.Page, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("PAGEID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("page")
	}

	var item pageItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}

	return pageFromItem(item)
}

// GetByDomainID retrieves all pages of a site tree
func (r *PageRepository) GetByDomainID(ctx context.Context, domainID valueobjects.DomainID) ([]*entities.Page, error) {
	var pages []*entities.Page
	var lastKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("DOMAIN#%s", domainID.String())},
				":sk": &types.AttributeValueMemberS{Value: "PAGE#"},
			},
			ExclusiveStartKey: lastKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query domain pages: %w", err)
		}

		for _, raw := range result.Items {
			var item pageItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal page: %w", err)
			}
			page, err := pageFromItem(item)
			if err != nil {
				r.logger.Warn("Skipping malformed page item",
					zap.String("pageID", item.PageID),
					zap.Error(err),
				)
				continue
			}
			pages = append(pages, page)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return pages, nil
}

// Save persists a page
func (r *PageRepository) Save(ctx context.Context, page *entities.Page) error {
	av, err := attributevalue.MarshalMap(pageToItem(page))
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save page",
			zap.String("pageID", page.ID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

// BulkSave persists a set of pages in transactional batches. Depth
// updates from a reparent land together or not at all.
func (r *PageRepository) BulkSave(ctx context.Context, pages []*entities.Page) error {
	if len(pages) == 0 {
		return nil
	}

	for start := 0; start < len(pages); start += transactWriteBatchSize {
		end := start + transactWriteBatchSize
		if end > len(pages) {
			end = len(pages)
		}

		items := make([]types.TransactWriteItem, 0, end-start)
		for _, page := range pages[start:end] {
			av, err := attributevalue.MarshalMap(pageToItem(page))
			if err != nil {
				return fmt.Errorf("failed to marshal page %s: %w", page.ID().String(), err)
			}
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      av,
				},
			})
		}

		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err != nil {
			r.logger.Error("Failed to bulk save pages",
				zap.Int("batchStart", start),
				zap.Int("batchSize", len(items)),
				zap.Error(err),
			)
			return fmt.Errorf("failed to bulk save pages: %w", err)
		}
	}

	r.logger.Debug("Bulk saved pages", zap.Int("count", len(pages)))
	return nil
}

// Delete removes a page
func (r *PageRepository) Delete(ctx context.Context, id valueobjects.PageID) error {
	page, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("DOMAIN#%s", page.DomainID().String())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("PAGE#%s", id.String())},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	return nil
}
