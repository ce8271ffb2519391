package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/claimease-api/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the users table.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Put(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AccountRepo) Get(ctx context.Context, userID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account %s: %w", userID, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail queries the email-index GSI. Email is matched exactly as stored.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, "email-index", "email", email)
}

// GetByStripeCustomer resolves the account that owns a Stripe customer ID.
func (r *AccountRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*domain.Account, error) {
	return r.queryGSI(ctx, "stripe_customer-index", "stripe_customer_id", customerID)
}

func (r *AccountRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// SetTier replaces the plan tier and expiry. claims_used is deliberately
// untouched: upgrading changes the quota function, not the counter.
func (r *AccountRepo) SetTier(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error {
	updates := map[string]interface{}{fieldTier: string(tier)}
	if expiresAt != nil {
		updates[fieldPlanExpiresAt] = expiresAt.UTC().Format(time.RFC3339)
	}
	return r.Update(ctx, userID, updates)
}

// ConsumeClaim increments claims_used, enforcing the quota in the same
// storage operation. For limited tiers the increment is guarded by
// claims_used < quota, so two concurrent claim starts cannot both slip past
// the check; the loser gets domain.ErrQuotaExceeded. Pro accounts increment
// unconditionally — the counter is kept for display and audit.
func (r *AccountRepo) ConsumeClaim(ctx context.Context, userID string, quota int) error {
	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("user_id", userID),
		UpdateExpression: aws.String("SET #u = #u + :one, #t = :now"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldClaimsUsed,
			"#t": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}
	if quota != domain.QuotaUnlimited {
		input.ConditionExpression = aws.String("#u < :q")
		input.ExpressionAttributeValues[":q"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quota)}
	}
	_, err := r.client.UpdateItem(ctx, input)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("claims_used at quota %d: %w", quota, domain.ErrQuotaExceeded)
	}
	return err
}

func (r *AccountRepo) SoftDelete(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]interface{}{fieldEnable: false})
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account by %s: %w", attr, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}
