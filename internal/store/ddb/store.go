// Package ddb implements the document store boundary using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
//
// Single-table layout:
//
//	PK                SK
//	USER#<identity>   PROFILE                      profile record
//	USER#<identity>   GEN#<rfc3339nano>#<uuid>     one generation record
//
// The SK prefix ordering makes a Query return generation records oldest
// first without a separate index.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

const (
	skProfile       = "PROFILE"
	skGenPrefix     = "GEN#"
	timestampLayout = time.RFC3339Nano
)

// ddbProfile is the persisted shape of a profile item.
type ddbProfile struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	IdentityID string `dynamodbav:"IdentityID"`
	Email      string `dynamodbav:"Email"`
	Credits    int    `dynamodbav:"Credits"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// ddbGeneration is the persisted shape of a generation record item.
type ddbGeneration struct {
	PK        string   `dynamodbav:"PK"`
	SK        string   `dynamodbav:"SK"`
	RecordID  string   `dynamodbav:"RecordID"`
	OwnerID   string   `dynamodbav:"OwnerID"`
	Images    []string `dynamodbav:"Images"`
	CreatedAt string   `dynamodbav:"CreatedAt"`
}

// Store is the DynamoDB-backed document store. Live subscriptions are
// served by an initial query snapshot plus post-write fan-out from this
// process; cross-process writers are picked up on the next snapshot.
type Store struct {
	client    *dynamodb.Client
	tableName string
	notifier  *notifier
	logger    *zap.Logger
}

// NewStore creates a DynamoDB store against the given table.
func NewStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		notifier:  newNotifier(logger),
		logger:    logger.Named("DynamoStore"),
	}
}

var _ store.Store = (*Store)(nil)

func userPK(identityID string) string {
	return "USER#" + identityID
}

// GetProfile fetches the profile keyed by identity id.
func (s *Store) GetProfile(ctx context.Context, identityID string) (domain.Profile, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(identityID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return domain.Profile{}, appErrors.Wrap(err, "failed to get profile item")
	}
	if out.Item == nil {
		return domain.Profile{}, store.ErrNotFound{Resource: "profile", ID: identityID}
	}

	var item ddbProfile
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return domain.Profile{}, appErrors.Wrap(err, "failed to unmarshal profile item")
	}
	return item.toDomain(), nil
}

// CreateProfileIfAbsent performs a conditional create; a lost race maps to
// store.ErrAlreadyExists.
func (s *Store) CreateProfileIfAbsent(ctx context.Context, profile domain.Profile) error {
	item, err := attributevalue.MarshalMap(ddbProfile{
		PK:         userPK(profile.IdentityID),
		SK:         skProfile,
		IdentityID: profile.IdentityID,
		Email:      profile.Email,
		Credits:    profile.Credits,
		CreatedAt:  profile.CreatedAt.Format(timestampLayout),
		UpdatedAt:  profile.UpdatedAt.Format(timestampLayout),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal profile item")
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return store.ErrAlreadyExists{Resource: "profile", ID: profile.IdentityID}
		}
		return s.wrapAPIError(err, "failed to create profile item")
	}

	s.notifier.publishProfile(profile)
	return nil
}

// UpdateCredits overwrites the balance. Last-writer-wins: no expected-value
// condition guards the write, matching the observed ledger semantics.
func (s *Store) UpdateCredits(ctx context.Context, identityID string, credits int) error {
	update := expression.
		Set(expression.Name("Credits"), expression.Value(credits)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(timestampLayout)))
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build credits update expression")
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(identityID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return store.ErrNotFound{Resource: "profile", ID: identityID}
		}
		return s.wrapAPIError(err, "failed to update credits")
	}

	var item ddbProfile
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err == nil {
		s.notifier.publishProfile(item.toDomain())
	}
	return nil
}

// SubscribeProfile serves an initial snapshot from the table, then relays
// this process's writes.
func (s *Store) SubscribeProfile(ctx context.Context, identityID string) (<-chan domain.Profile, store.CancelFunc, error) {
	ch, cancel := s.notifier.subscribeProfile(identityID)

	profile, err := s.GetProfile(ctx, identityID)
	if err == nil {
		s.notifier.publishProfile(profile)
	} else if !store.IsNotFound(err) {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// AppendGeneration writes one immutable generation record.
func (s *Store) AppendGeneration(ctx context.Context, record domain.GenerationRecord) error {
	item, err := attributevalue.MarshalMap(ddbGeneration{
		PK:        userPK(record.OwnerID),
		SK:        fmt.Sprintf("%s%s#%s", skGenPrefix, record.CreatedAt.UTC().Format(timestampLayout), record.ID),
		RecordID:  record.ID,
		OwnerID:   record.OwnerID,
		Images:    record.Images,
		CreatedAt: record.CreatedAt.Format(timestampLayout),
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal generation item")
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return s.wrapAPIError(err, "failed to append generation record")
	}

	records, err := s.ListGenerations(ctx, record.OwnerID)
	if err != nil {
		s.logger.Warn("failed to refresh generation snapshot after append",
			zap.String("ownerId", record.OwnerID), zap.Error(err))
		return nil
	}
	s.notifier.publishGenerations(record.OwnerID, records)
	return nil
}

// ListGenerations queries the owner's records; SK ordering yields oldest
// first.
func (s *Store) ListGenerations(ctx context.Context, ownerID string) ([]domain.GenerationRecord, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(skGenPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build generation query expression")
	}

	var records []domain.GenerationRecord
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrapAPIError(err, "failed to query generation records")
		}
		for _, raw := range page.Items {
			var item ddbGeneration
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, appErrors.Wrap(err, "failed to unmarshal generation item")
			}
			records = append(records, item.toDomain())
		}
	}
	return records, nil
}

// SubscribeGenerations serves an initial snapshot from the table, then
// relays this process's appends.
func (s *Store) SubscribeGenerations(ctx context.Context, ownerID string) (<-chan []domain.GenerationRecord, store.CancelFunc, error) {
	ch, cancel := s.notifier.subscribeGenerations(ownerID)

	records, err := s.ListGenerations(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.notifier.publishGenerations(ownerID, records)
	return ch, cancel, nil
}

// wrapAPIError surfaces the AWS error code when present.
func (s *Store) wrapAPIError(err error, message string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Error("dynamodb call failed",
			zap.String("code", apiErr.ErrorCode()),
			zap.String("message", apiErr.ErrorMessage()))
		return appErrors.NewInternal(fmt.Sprintf("%s (%s)", message, apiErr.ErrorCode()), err)
	}
	return appErrors.NewInternal(message, err)
}

func (i ddbProfile) toDomain() domain.Profile {
	createdAt, _ := time.Parse(timestampLayout, i.CreatedAt)
	updatedAt, _ := time.Parse(timestampLayout, i.UpdatedAt)
	return domain.Profile{
		IdentityID: i.IdentityID,
		Email:      i.Email,
		Credits:    i.Credits,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

func (i ddbGeneration) toDomain() domain.GenerationRecord {
	createdAt, _ := time.Parse(timestampLayout, i.CreatedAt)
	return domain.GenerationRecord{
		ID:        i.RecordID,
		OwnerID:   i.OwnerID,
		Images:    i.Images,
		CreatedAt: createdAt,
	}
}
