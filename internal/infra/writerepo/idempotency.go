// Package writerepo holds the write-side DynamoDB repositories: the
// idempotency ledger the command gate consults and the projection tables the
// worker maintains.
package writerepo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type idempotencyItem struct {
	IdempotencyKey string `dynamodbav:"idempotencyKey"`
	ContentHash    string `dynamodbav:"contentHash"`
	StatusCode     int    `dynamodbav:"statusCode"`
	ResponseBody   string `dynamodbav:"responseBody"`
	CreatedAtUTC   string `dynamodbav:"createdAtUtc"`
}

type IdempotencyRepository struct {
	client  dynamo.API
	table   string
	slogger *slog.Logger
}

func NewIdempotencyRepository(client dynamo.API, table string, slogger *slog.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{client: client, table: table, slogger: slogger}
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*commands.IdempotencyRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"idempotencyKey": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "get idempotency item", err)
	}
	if len(out.Item) == 0 {
		return nil, infra.WrapRepoErr(r.slogger, infra.KindNotFound, "idempotency key not found", nil)
	}

	var item idempotencyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "decode idempotency item", err)
	}
	createdAt, err := dynamo.ParseTime(item.CreatedAtUTC)
	if err != nil {
		return nil, infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "convert idempotency item", err)
	}
	return &commands.IdempotencyRecord{
		IdempotencyKey: item.IdempotencyKey,
		ContentHash:    item.ContentHash,
		StatusCode:     item.StatusCode,
		ResponseBody:   []byte(item.ResponseBody),
		CreatedAtUTC:   createdAt,
	}, nil
}

// Save inserts the record once. A second writer racing on the same key
// surfaces as KindDuplicateKey; the stored reply wins either way.
func (r *IdempotencyRepository) Save(ctx context.Context, rec commands.IdempotencyRecord) error {
	item, err := attributevalue.MarshalMap(idempotencyItem{
		IdempotencyKey: rec.IdempotencyKey,
		ContentHash:    rec.ContentHash,
		StatusCode:     rec.StatusCode,
		ResponseBody:   string(rec.ResponseBody),
		CreatedAtUTC:   dynamo.FormatTime(rec.CreatedAtUTC),
	})
	if err != nil {
		return infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "encode idempotency item", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(idempotencyKey)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return infra.WrapRepoErr(r.slogger, infra.KindDuplicateKey, "idempotency key already saved", err)
		}
		return infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "put idempotency item", err)
	}
	return nil
}
