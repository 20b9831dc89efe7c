package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-file-exchange/internal/domain"
)

// Marker items share the users table. Their user_id is prefixed so they can
// never collide with a ULID, and they carry no email or username attribute.
const (
	emailMarkerPrefix    = "email#"
	usernameMarkerPrefix = "username#"
)

// identityMarker reserves one email or username for its owner.
type identityMarker struct {
	Key     string `dynamodbav:"user_id"`
	OwnerID string `dynamodbav:"owner_id"`
}

// UserRepo provides typed DynamoDB operations for the users table.
// Each user is stored alongside an email marker and a username marker, which
// make both identities unique and give strongly consistent lookups.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Put writes the user and both markers in one transaction. A taken user_id,
// email or username yields domain.ErrConflict and nothing is written.
func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	emailMarker, err := attributevalue.MarshalMap(identityMarker{Key: emailMarkerPrefix + u.Email, OwnerID: u.UserID})
	if err != nil {
		return fmt.Errorf("marshal email marker: %w", err)
	}
	usernameMarker, err := attributevalue.MarshalMap(identityMarker{Key: usernameMarkerPrefix + u.Username, OwnerID: u.UserID})
	if err != nil {
		return fmt.Errorf("marshal username marker: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: r.putIfAbsent(item)},
			{Put: r.putIfAbsent(emailMarker)},
			{Put: r.putIfAbsent(usernameMarker)},
		},
	})
	if i, ok := transactionConditionFailed(err); ok {
		switch i {
		case 1:
			return fmt.Errorf("email already registered: %w", domain.ErrConflict)
		case 2:
			return fmt.Errorf("username already taken: %w", domain.ErrConflict)
		default:
			return fmt.Errorf("user %s already exists: %w", u.UserID, domain.ErrConflict)
		}
	}
	return err
}

func (r *UserRepo) putIfAbsent(item map[string]types.AttributeValue) *types.Put {
	return &types.Put{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldUserID},
	}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getByMarker(ctx, usernameMarkerPrefix+username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getByMarker(ctx, emailMarkerPrefix+email)
}

// MarkVerified sets verified=true on the user owning email. Setting it twice is a no-op.
func (r *UserRepo) MarkVerified(ctx context.Context, email string) error {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldVerified:  true,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#id"] = fieldUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, u.UserID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *UserRepo) getByMarker(ctx context.Context, key string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var m identityMarker
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return r.Get(ctx, m.OwnerID)
}
