// Package dynamo carries the DynamoDB client surface and the small helpers
// the read stores and write repositories share.
package dynamo

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the slice of the DynamoDB client this module touches.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Tables resolves the projection table names from configuration.
type Tables struct {
	Users         string
	Resources     string
	Reservations  string
	Idempotency   string
	ProjectionLag string
}

// StartKey converts a decoded cursor into an ExclusiveStartKey. All
// projection keys are strings, so the bridge only carries S attributes.
func StartKey(key map[string]string) map[string]types.AttributeValue {
	if len(key) == 0 {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(key))
	for k, v := range key {
		out[k] = &types.AttributeValueMemberS{Value: v}
	}
	return out
}

// LastKeyStrings converts a LastEvaluatedKey back into cursor form.
func LastKeyStrings(key map[string]types.AttributeValue) map[string]string {
	if len(key) == 0 {
		return nil
	}
	out := make(map[string]string, len(key))
	for k, v := range key {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			out[k] = s.Value
		}
	}
	return out
}

// Stored timestamps are ISO-8601 UTC strings so rows stay readable in the
// console and portable across SDKs.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errs.Wrapf(err, "parse stored time %q", s)
	}
	return t.UTC(), nil
}

func ParseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
