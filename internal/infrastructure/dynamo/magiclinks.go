package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/claimease-api/internal/domain"
)

// MagicLinkRepo manages single-use sign-in tokens.
// PK: token. Expired rows are garbage-collected by the table's TTL on
// expires_at, so no sweep job is needed.
type MagicLinkRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMagicLinkRepo(client *dynamodb.Client, tableName string) *MagicLinkRepo {
	return &MagicLinkRepo{client: client, tableName: tableName}
}

func (r *MagicLinkRepo) Put(ctx context.Context, t *domain.MagicLinkToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal magic link token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MagicLinkRepo) Get(ctx context.Context, token string) (*domain.MagicLinkToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("magic link token: %w", domain.ErrNotFound)
	}
	var t domain.MagicLinkToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume flips used=false to true in a single conditional update. Exactly
// one concurrent caller wins the condition; every other caller, including a
// replay of an already-consumed link, gets domain.ErrAlreadyUsed. Callers
// look the token up first, so a missing row surfaces as ErrNotFound before
// Consume runs.
func (r *MagicLinkRepo) Consume(ctx context.Context, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("token", token),
		UpdateExpression: aws.String("SET #u = :t"),
		ConditionExpression: aws.String(
			"attribute_exists(#k) AND #u = :f",
		),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldUsed,
			"#k": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("consume magic link: %w", domain.ErrAlreadyUsed)
	}
	return err
}

func (r *MagicLinkRepo) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	return err
}
