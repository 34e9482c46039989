package writerepo

import (
	"context"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/infra/readstore"
	"github.com/gabpmcp/bolivar-test/internal/projection"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProjectionRepository applies projection ops as plain upserts. Updates
// create missing rows rather than failing so replays and out-of-order
// deliveries converge.
type ProjectionRepository struct {
	client  dynamo.API
	tables  dynamo.Tables
	slogger *slog.Logger
}

func NewProjectionRepository(client dynamo.API, tables dynamo.Tables, slogger *slog.Logger) *ProjectionRepository {
	return &ProjectionRepository{client: client, tables: tables, slogger: slogger}
}

func (r *ProjectionRepository) Apply(ctx context.Context, op projection.Op) error {
	switch o := op.(type) {
	case projection.PutUser:
		return r.putItem(ctx, r.tables.Users, struct {
			UserID       string `dynamodbav:"userId"`
			Email        string `dynamodbav:"email"`
			Role         string `dynamodbav:"role"`
			CreatedAtUTC string `dynamodbav:"createdAtUtc"`
		}{
			UserID:       o.UserID.String(),
			Email:        o.Email,
			Role:         o.Role,
			CreatedAtUTC: dynamo.FormatTime(o.CreatedAtUTC),
		})

	case projection.SetUserLastLogin:
		return r.updateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tables.Users),
			Key: map[string]types.AttributeValue{
				"userId": &types.AttributeValueMemberS{Value: o.UserID.String()},
			},
			UpdateExpression: aws.String("SET lastLoginAtUtc = :t"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberS{Value: dynamo.FormatTime(o.LastLoginAtUTC)},
			},
		})

	case projection.PutResource:
		return r.putItem(ctx, r.tables.Resources, struct {
			ResourceID   string `dynamodbav:"resourceId"`
			Name         string `dynamodbav:"name"`
			Details      string `dynamodbav:"details"`
			Status       string `dynamodbav:"status"`
			CreatedAtUTC string `dynamodbav:"createdAtUtc"`
			UpdatedAtUTC string `dynamodbav:"updatedAtUtc"`
		}{
			ResourceID:   o.ResourceID.String(),
			Name:         o.Name,
			Details:      o.Details,
			Status:       o.Status,
			CreatedAtUTC: dynamo.FormatTime(o.CreatedAtUTC),
			UpdatedAtUTC: dynamo.FormatTime(o.UpdatedAtUTC),
		})

	case projection.UpdateResourceDetails:
		return r.updateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tables.Resources),
			Key: map[string]types.AttributeValue{
				"resourceId": &types.AttributeValueMemberS{Value: o.ResourceID.String()},
			},
			UpdateExpression: aws.String("SET #n = :name, details = :details, updatedAtUtc = :u"),
			ExpressionAttributeNames: map[string]string{
				"#n": "name",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":name":    &types.AttributeValueMemberS{Value: o.Name},
				":details": &types.AttributeValueMemberS{Value: o.Details},
				":u":       &types.AttributeValueMemberS{Value: dynamo.FormatTime(o.UpdatedAtUTC)},
			},
		})

	case projection.PutReservation:
		return r.putItem(ctx, r.tables.Reservations, struct {
			ReservationID string `dynamodbav:"reservationId"`
			ResourceID    string `dynamodbav:"resourceId"`
			UserID        string `dynamodbav:"userId"`
			FromUTC       string `dynamodbav:"fromUtc"`
			ToUTC         string `dynamodbav:"toUtc"`
			Status        string `dynamodbav:"status"`
			CreatedAtUTC  string `dynamodbav:"createdAtUtc"`
		}{
			ReservationID: o.ReservationID.String(),
			ResourceID:    o.ResourceID.String(),
			UserID:        o.UserID.String(),
			FromUTC:       dynamo.FormatTime(o.FromUTC),
			ToUTC:         dynamo.FormatTime(o.ToUTC),
			Status:        o.Status,
			CreatedAtUTC:  dynamo.FormatTime(o.CreatedAtUTC),
		})

	case projection.CancelReservation:
		return r.updateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tables.Reservations),
			Key: map[string]types.AttributeValue{
				"reservationId": &types.AttributeValueMemberS{Value: o.ReservationID.String()},
			},
			UpdateExpression: aws.String("SET #st = :status, cancelledAtUtc = :c"),
			ExpressionAttributeNames: map[string]string{
				"#st": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: "cancelled"},
				":c":      &types.AttributeValueMemberS{Value: dynamo.FormatTime(o.CancelledAtUTC)},
			},
		})

	default:
		return errs.Newf("unknown projection op %T", op)
	}
}

// UpsertLag heartbeats the single lag row after each projected message.
func (r *ProjectionRepository) UpsertLag(ctx context.Context, lastProjectedAt time.Time, eventsBehind int) error {
	return r.putItem(ctx, r.tables.ProjectionLag, struct {
		Projection         string `dynamodbav:"projection"`
		LastProjectedAtUTC string `dynamodbav:"lastProjectedAtUtc"`
		EventsBehind       int    `dynamodbav:"eventsBehind"`
	}{
		Projection:         readstore.LagProjectionKey,
		LastProjectedAtUTC: dynamo.FormatTime(lastProjectedAt),
		EventsBehind:       eventsBehind,
	})
}

func (r *ProjectionRepository) putItem(ctx context.Context, table string, item any) error {
	encoded, err := attributevalue.MarshalMap(item)
	if err != nil {
		return infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "encode projection item", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      encoded,
	})
	if err != nil {
		return infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "put projection item", err)
	}
	return nil
}

func (r *ProjectionRepository) updateItem(ctx context.Context, input *dynamodb.UpdateItemInput) error {
	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		return infra.WrapRepoErr(r.slogger, infra.KindStoreFailure, "update projection item", err)
	}
	return nil
}
