package readstore

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type reservationItem struct {
	ReservationID  string  `dynamodbav:"reservationId"`
	ResourceID     string  `dynamodbav:"resourceId"`
	UserID         string  `dynamodbav:"userId"`
	FromUTC        string  `dynamodbav:"fromUtc"`
	ToUTC          string  `dynamodbav:"toUtc"`
	Status         string  `dynamodbav:"status"`
	CreatedAtUTC   string  `dynamodbav:"createdAtUtc"`
	CancelledAtUTC *string `dynamodbav:"cancelledAtUtc,omitempty"`
}

func (i reservationItem) toView() (*queries.ReservationView, error) {
	reservationID, err := uuid.Parse(i.ReservationID)
	if err != nil {
		return nil, err
	}
	resourceID, err := uuid.Parse(i.ResourceID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(i.UserID)
	if err != nil {
		return nil, err
	}
	from, err := dynamo.ParseTime(i.FromUTC)
	if err != nil {
		return nil, err
	}
	to, err := dynamo.ParseTime(i.ToUTC)
	if err != nil {
		return nil, err
	}
	createdAt, err := dynamo.ParseTime(i.CreatedAtUTC)
	if err != nil {
		return nil, err
	}
	cancelledAt, err := dynamo.ParseTimePtr(i.CancelledAtUTC)
	if err != nil {
		return nil, err
	}
	return &queries.ReservationView{
		ReservationID:  reservationID,
		ResourceID:     resourceID,
		UserID:         userID,
		FromUTC:        from,
		ToUTC:          to,
		Status:         i.Status,
		CreatedAtUTC:   createdAt,
		CancelledAtUTC: cancelledAt,
	}, nil
}

type ReservationReadStore struct {
	client  dynamo.API
	table   string
	slogger *slog.Logger
}

func NewReservationReadStore(client dynamo.API, table string, slogger *slog.Logger) *ReservationReadStore {
	return &ReservationReadStore{client: client, table: table, slogger: slogger}
}

// List scans one page of reservations. The scan limit applies before the
// filter, so a filtered page may come back short while a cursor remains;
// callers follow the cursor until it is empty.
func (s *ReservationReadStore) List(ctx context.Context, filter queries.ReservationFilter, limit int, startKey map[string]string) ([]*queries.ReservationView, map[string]string, error) {
	input := &dynamodb.ScanInput{
		TableName:         aws.String(s.table),
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: dynamo.StartKey(startKey),
	}

	var exprs []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	if filter.UserID != nil {
		exprs = append(exprs, "userId = :userId")
		values[":userId"] = &types.AttributeValueMemberS{Value: filter.UserID.String()}
	}
	if filter.Status != nil {
		exprs = append(exprs, "#st = :status")
		names["#st"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: *filter.Status}
	}
	if len(exprs) > 0 {
		input.FilterExpression = aws.String(strings.Join(exprs, " AND "))
		input.ExpressionAttributeValues = values
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "scan reservations", err)
	}

	views := make([]*queries.ReservationView, 0, len(out.Items))
	for _, raw := range out.Items {
		var item reservationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode reservation item", err)
		}
		view, err := item.toView()
		if err != nil {
			return nil, nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "convert reservation item", err)
		}
		views = append(views, view)
	}
	return views, dynamo.LastKeyStrings(out.LastEvaluatedKey), nil
}
