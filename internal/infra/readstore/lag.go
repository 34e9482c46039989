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
)

// LagProjectionKey is the single row the worker heartbeats into.
const LagProjectionKey = "main"

type lagItem struct {
	Projection         string  `dynamodbav:"projection"`
	LastProjectedAtUTC *string `dynamodbav:"lastProjectedAtUtc,omitempty"`
	EventsBehind       int     `dynamodbav:"eventsBehind"`
}

type LagReadStore struct {
	client  dynamo.API
	table   string
	slogger *slog.Logger
}

func NewLagReadStore(client dynamo.API, table string, slogger *slog.Logger) *LagReadStore {
	return &LagReadStore{client: client, table: table, slogger: slogger}
}

func (s *LagReadStore) Get(ctx context.Context) (*queries.ProjectionLagView, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"projection": &types.AttributeValueMemberS{Value: LagProjectionKey},
		},
	})
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "get projection lag item", err)
	}
	if len(out.Item) == 0 {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindNotFound, "projection lag not recorded", nil)
	}

	var item lagItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode projection lag item", err)
	}
	lastProjected, err := dynamo.ParseTimePtr(item.LastProjectedAtUTC)
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "convert projection lag item", err)
	}
	return &queries.ProjectionLagView{
		Projection:         item.Projection,
		LastProjectedAtUTC: lastProjected,
		EventsBehind:       item.EventsBehind,
	}, nil
}
