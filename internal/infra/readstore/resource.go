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

type resourceItem struct {
	ResourceID   string `dynamodbav:"resourceId"`
	Name         string `dynamodbav:"name"`
	Details      string `dynamodbav:"details"`
	Status       string `dynamodbav:"status"`
	CreatedAtUTC string `dynamodbav:"createdAtUtc"`
	UpdatedAtUTC string `dynamodbav:"updatedAtUtc"`
}

func (i resourceItem) toView() (*queries.ResourceView, error) {
	id, err := uuid.Parse(i.ResourceID)
	if err != nil {
		return nil, err
	}
	createdAt, err := dynamo.ParseTime(i.CreatedAtUTC)
	if err != nil {
		return nil, err
	}
	updatedAt, err := dynamo.ParseTime(i.UpdatedAtUTC)
	if err != nil {
		return nil, err
	}
	return &queries.ResourceView{
		ResourceID:   id,
		Name:         i.Name,
		Details:      i.Details,
		Status:       i.Status,
		CreatedAtUTC: createdAt,
		UpdatedAtUTC: updatedAt,
	}, nil
}

type ResourceReadStore struct {
	client  dynamo.API
	table   string
	slogger *slog.Logger
}

func NewResourceReadStore(client dynamo.API, table string, slogger *slog.Logger) *ResourceReadStore {
	return &ResourceReadStore{client: client, table: table, slogger: slogger}
}

func (s *ResourceReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ResourceView, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"resourceId": &types.AttributeValueMemberS{Value: id.String()},
		},
	})
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "get resource item", err)
	}
	if len(out.Item) == 0 {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindNotFound, "resource not found", nil)
	}
	return s.decode(out.Item)
}

// FindByName backs the advisory name-uniqueness check on resource creation.
func (s *ResourceReadStore) FindByName(ctx context.Context, name string) (*queries.ResourceView, error) {
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("#n = :name"),
			ExpressionAttributeNames: map[string]string{
				"#n": "name",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":name": &types.AttributeValueMemberS{Value: name},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "scan resources by name", err)
		}

		if len(out.Items) > 0 {
			return s.decode(out.Items[0])
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindNotFound, "resource not found by name", nil)
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *ResourceReadStore) List(ctx context.Context, limit int, startKey map[string]string) ([]*queries.ResourceView, map[string]string, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:         aws.String(s.table),
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: dynamo.StartKey(startKey),
	})
	if err != nil {
		return nil, nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "scan resources", err)
	}

	views := make([]*queries.ResourceView, 0, len(out.Items))
	for _, raw := range out.Items {
		view, err := s.decode(raw)
		if err != nil {
			return nil, nil, err
		}
		views = append(views, view)
	}
	return views, dynamo.LastKeyStrings(out.LastEvaluatedKey), nil
}

func (s *ResourceReadStore) decode(raw map[string]types.AttributeValue) (*queries.ResourceView, error) {
	var item resourceItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode resource item", err)
	}
	view, err := item.toView()
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "convert resource item", err)
	}
	return view, nil
}
