package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DistributedRateLimiter enforces rate limits with a DynamoDB counter so
// the budget holds across Lambda invocations and API replicas.
type DistributedRateLimiter struct {
	client    *dynamodb.Client
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
}

type rateLimitRecord struct {
	PK        string `dynamodbav:"PK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd string `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NewDistributedRateLimiter creates a limiter that allows limit requests
// per fixed window, keyed under the given prefix.
func NewDistributedRateLimiter(client *dynamodb.Client, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

// NewDistributedIPRateLimiter creates a per-IP limiter with a per-minute budget
func NewDistributedIPRateLimiter(client *dynamodb.Client, tableName string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, tableName, requestsPerMinute, time.Minute, "IP")
}

// NewDistributedUserRateLimiter creates a per-user limiter with a per-minute budget
func NewDistributedUserRateLimiter(client *dynamodb.Client, tableName string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, tableName, requestsPerMinute, time.Minute, "USER")
}

func (r *DistributedRateLimiter) recordKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())
}

// Allow atomically increments the window counter and reports whether the
// request is within the limit. Infrastructure errors fail open so the
// limiter never takes the API down with it.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		// Not configured (local development): allow everything
		return true, nil
	}

	now := time.Now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)
	pk := r.recordKey(key, windowStart)

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
		},
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :one, WindowEnd = :end, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.limit)},
			":end":   &types.AttributeValueMemberS{Value: windowEnd.Format(time.RFC3339)},
			":ttl":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", windowEnd.Add(time.Hour).Unix())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	var record rateLimitRecord
	if err := attributevalue.UnmarshalMap(result.Attributes, &record); err != nil {
		return true, fmt.Errorf("failed to parse rate limit record (failing open): %w", err)
	}
	return record.Count <= r.limit, nil
}

// Remaining returns the unused budget in the current window and the time
// until the window resets.
func (r *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, time.Duration, error) {
	now := time.Now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	if r.client == nil {
		return r.limit, time.Until(windowEnd), nil
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.recordKey(key, windowStart)},
		},
	})
	if err != nil || result.Item == nil {
		return r.limit, time.Until(windowEnd), err
	}

	var record rateLimitRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return r.limit, time.Until(windowEnd), fmt.Errorf("failed to parse rate limit record: %w", err)
	}

	remaining := r.limit - record.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, time.Until(windowEnd), nil
}

// Reset deletes the counter for a key in the current window
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}

	windowStart := time.Now().Truncate(r.window)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.recordKey(key, windowStart)},
		},
	})
	return err
}
