package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-file-exchange/internal/domain"
)

// CapabilityRepo stores download tokens. PK: token.
type CapabilityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCapabilityRepo(client *dynamodb.Client, tableName string) *CapabilityRepo {
	return &CapabilityRepo{client: client, tableName: tableName}
}

// Put inserts a new token. A token collision yields domain.ErrConflict.
func (r *CapabilityRepo) Put(ctx context.Context, c *domain.Capability) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal capability: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#tok)"),
		ExpressionAttributeNames: map[string]string{"#tok": fieldToken},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("download token collision: %w", domain.ErrConflict)
	}
	return err
}

func (r *CapabilityRepo) Get(ctx context.Context, token string) (*domain.Capability, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldToken, token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("download token not found: %w", domain.ErrNotFound)
	}
	var c domain.Capability
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Consume flips used to true only if the token exists, is unused and is
// unexpired at now. Any failed condition yields domain.ErrInvalidCapability.
func (r *CapabilityRepo) Consume(ctx context.Context, token string, now time.Time) error {
	usedAt, err := attributevalue.Marshal(now.UTC())
	if err != nil {
		return fmt.Errorf("marshal used_at: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldToken, token),
		UpdateExpression:    aws.String("SET #used = :t, #usedAt = :at"),
		ConditionExpression: aws.String("attribute_exists(#tok) AND #used = :f AND #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#tok":    fieldToken,
			"#used":   fieldUsed,
			"#usedAt": fieldUsedAt,
			"#exp":    fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":at":  usedAt,
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if isConditionFailed(err) {
		return domain.ErrInvalidCapability
	}
	return err
}
