// Package readstore serves the query side from the DynamoDB projection
// tables the worker maintains.
package readstore

import (
	"context"
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type userItem struct {
	UserID         string  `dynamodbav:"userId"`
	Email          string  `dynamodbav:"email"`
	Role           string  `dynamodbav:"role"`
	CreatedAtUTC   string  `dynamodbav:"createdAtUtc"`
	LastLoginAtUTC *string `dynamodbav:"lastLoginAtUtc,omitempty"`
}

func (i userItem) toView() (*queries.UserView, error) {
	id, err := uuid.Parse(i.UserID)
	if err != nil {
		return nil, err
	}
	createdAt, err := dynamo.ParseTime(i.CreatedAtUTC)
	if err != nil {
		return nil, err
	}
	lastLogin, err := dynamo.ParseTimePtr(i.LastLoginAtUTC)
	if err != nil {
		return nil, err
	}
	return &queries.UserView{
		UserID:         id,
		Email:          i.Email,
		Role:           i.Role,
		CreatedAtUTC:   createdAt,
		LastLoginAtUTC: lastLogin,
	}, nil
}

type UserReadStore struct {
	client  dynamo.API
	table   string
	slogger *slog.Logger
}

func NewUserReadStore(client dynamo.API, table string, slogger *slog.Logger) *UserReadStore {
	return &UserReadStore{client: client, table: table, slogger: slogger}
}

func (s *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.UserView, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: id.String()},
		},
	})
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "get user item", err)
	}
	if len(out.Item) == 0 {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindNotFound, "user not found", nil)
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode user item", err)
	}
	view, err := item.toView()
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "convert user item", err)
	}
	return view, nil
}

// FindByEmail scans the projection. The table has no email index; uniqueness
// checks tolerate the scan cost because registrations are rare.
func (s *UserReadStore) FindByEmail(ctx context.Context, email string) (*queries.UserView, error) {
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("email = :email"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "scan users by email", err)
		}

		if len(out.Items) > 0 {
			var item userItem
			if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
				return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode user item", err)
			}
			view, err := item.toView()
			if err != nil {
				return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "convert user item", err)
			}
			return view, nil
		}

		if len(out.LastEvaluatedKey) == 0 {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindNotFound, "user not found by email", nil)
		}
		startKey = out.LastEvaluatedKey
	}
}
