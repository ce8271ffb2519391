package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RateLimitRepo is a fixed-window attempt counter shared across instances.
// PK: identity. The window is enforced with conditional updates, so the
// ceiling holds even when several instances count concurrently.
type RateLimitRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRateLimitRepo(client *dynamodb.Client, tableName string) *RateLimitRepo {
	return &RateLimitRepo{client: client, tableName: tableName}
}

// Take consumes one attempt for identity. It first tries to increment inside
// a live window under the ceiling; if that condition fails it tries to open
// a fresh window; if both fail the identity is over the ceiling and the
// current window's reset time is returned.
func (r *RateLimitRepo) Take(ctx context.Context, identity string, ceiling int, window time.Duration) (bool, time.Time, error) {
	now := time.Now().UTC()

	// Attempt 1: count within a live window.
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("identity", identity),
		UpdateExpression:    aws.String("ADD attempts :one"),
		ConditionExpression: aws.String("attribute_exists(identity) AND window_reset_at > :now AND attempts < :ceil"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":now":  &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":ceil": &types.AttributeValueMemberN{Value: strconv.Itoa(ceiling)},
		},
	})
	if err == nil {
		return true, time.Time{}, nil
	}
	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return false, time.Time{}, fmt.Errorf("rate limit increment: %w", err)
	}

	// Attempt 2: open a new window (item missing or previous window elapsed).
	resetAt := now.Add(window)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("identity", identity),
		UpdateExpression:    aws.String("SET attempts = :one, window_reset_at = :reset"),
		ConditionExpression: aws.String("attribute_not_exists(identity) OR window_reset_at <= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":reset": &types.AttributeValueMemberN{Value: strconv.FormatInt(resetAt.Unix(), 10)},
		},
	})
	if err == nil {
		return true, time.Time{}, nil
	}
	if !errors.As(err, &ccf) {
		return false, time.Time{}, fmt.Errorf("rate limit window reset: %w", err)
	}

	// Over the ceiling. Read the window so callers can report a retry-after.
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("identity", identity),
	})
	if err != nil || out.Item == nil {
		return false, now.Add(window), nil
	}
	if v, ok := out.Item["window_reset_at"].(*types.AttributeValueMemberN); ok {
		if ts, perr := strconv.ParseInt(v.Value, 10, 64); perr == nil {
			return false, time.Unix(ts, 0).UTC(), nil
		}
	}
	return false, now.Add(window), nil
}
