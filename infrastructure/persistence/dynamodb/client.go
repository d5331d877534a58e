// Package dynamodb implements the record store ports on Amazon DynamoDB,
// one table per collection. A table that does not exist yet surfaces as a
// collection NOT_FOUND error.
package dynamodb

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	apperrors "gamegroup-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client used by the repositories.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Tables names the table behind each collection and the secondary indexes
// the repositories query.
type Tables struct {
	Games     string
	Favorites string
	Users     string
	Votes     string
	Teams     string

	// VotesByUserIndex is keyed by UserID with CreatedAt as the sort key
	VotesByUserIndex string
	// TeamsByStatusIndex is keyed by Status with CreatedAt as the sort key
	TeamsByStatusIndex string
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxBatchGetKeys is the BatchGetItem key limit
const maxBatchGetKeys = 100

// maxInOperands is the DynamoDB limit on IN operands
const maxInOperands = 100

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime decodes a stored timestamp, substituting now when the attribute
// is missing or malformed.
func parseTime(value string, now time.Time) time.Time {
	if value == "" {
		return now
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return now
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// decodeItem unmarshals av into out, a pointer to a dynamodbav-tagged
// struct. When the item is malformed it is decoded again attribute by
// attribute, so only the fields that fail fall back to their zero value.
func decodeItem(logger *zap.Logger, collection string, av map[string]types.AttributeValue, out interface{}) {
	if err := attributevalue.UnmarshalMap(av, out); err == nil {
		return
	}

	v := reflect.ValueOf(out).Elem()
	v.Set(reflect.Zero(v.Type()))

	var malformed []string
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		name := attributeName(field)
		if name == "" {
			continue
		}
		attr, ok := av[name]
		if !ok {
			continue
		}
		target := v.Field(i)
		if err := attributevalue.Unmarshal(attr, target.Addr().Interface()); err != nil {
			target.Set(reflect.Zero(target.Type()))
			malformed = append(malformed, name)
		}
	}

	logger.Warn("Malformed record, using defaults for undecodable fields",
		zap.String("collection", collection),
		zap.Strings("fields", malformed),
	)
}

// attributeName returns the attribute a struct field is stored under, or ""
// for unexported and skipped fields.
func attributeName(field reflect.StructField) string {
	if field.PkgPath != "" {
		return ""
	}
	tag := field.Tag.Get("dynamodbav")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return field.Name
}

// scanAll follows LastEvaluatedKey until the scan is exhausted.
func scanAll(ctx context.Context, client API, collection string, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return nil, apperrors.FromDynamoDB("Scan", collection, err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryUpTo follows LastEvaluatedKey until limit items matched or the query
// is exhausted. limit <= 0 means no limit.
func queryUpTo(ctx context.Context, client API, collection string, input *dynamodb.QueryInput, limit int) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.FromDynamoDB("Query", collection, err)
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func chunk(values []string, size int) [][]string {
	var chunks [][]string
	for size < len(values) {
		values, chunks = values[size:], append(chunks, values[:size])
	}
	if len(values) > 0 {
		chunks = append(chunks, values)
	}
	return chunks
}

func isConditionalCheckFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}
