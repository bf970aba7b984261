package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/core/valueobjects"
)

const (
	lockDuration  = 30 * time.Second
	lockWait      = 10 * time.Second
	lockRetryBase = 100 * time.Millisecond
)

// DomainLock serializes structural tree operations per domain using
// DynamoDB conditional writes. The TTL attribute cleans up locks left
// behind by crashed holders.
type DomainLock struct {
	client    *dynamodb.Client
	tableName string
	ownerID   string
	logger    *zap.Logger
}

// NewDomainLock creates a new DomainLock
func NewDomainLock(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.DomainLock {
	return &DomainLock{
		client:    client,
		tableName: tableName,
		ownerID:   uuid.New().String(),
		logger:    logger,
	}
}

var errLockHeld = errors.New("domain lock already held")

// Acquire takes the lock for a domain, retrying with backoff until
// the wait deadline. The returned func releases the lock.
func (dl *DomainLock) Acquire(ctx context.Context, domainID valueobjects.DomainID) (func(), error) {
	deadline := time.Now().Add(lockWait)
	retryInterval := lockRetryBase

	for {
		lockID, err := dl.tryAcquire(ctx, domainID)
		if err == nil {
			return func() { dl.release(domainID, lockID) }, nil
		}
		if !errors.Is(err, errLockHeld) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout acquiring lock for domain %s", domainID.String())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DomainLock) tryAcquire(ctx context.Context, domainID valueobjects.DomainID) (string, error) {
	lockID := fmt.Sprintf("%s_%d", dl.ownerID, time.Now().UnixNano())
	now := time.Now()
	expiresAt := now.Add(lockDuration)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: fmt.Sprintf("LOCK#DOMAIN#%s", domainID.String())},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: dl.ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := dl.client.PutItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Domain lock held elsewhere",
				zap.String("domainID", domainID.String()),
			)
			return "", errLockHeld
		}
		return "", fmt.Errorf("failed to acquire domain lock: %w", err)
	}

	return lockID, nil
}

// release deletes the lock record if this holder still owns it. It
// runs on a fresh context so a canceled request still releases.
func (dl *DomainLock) release(domainID valueobjects.DomainID, lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("LOCK#DOMAIN#%s", domainID.String())},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	}

	if _, err := dl.client.DeleteItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			// Expired and taken over; nothing to release.
			return
		}
		dl.logger.Warn("Failed to release domain lock",
			zap.String("domainID", domainID.String()),
			zap.Error(err),
		)
	}
}
