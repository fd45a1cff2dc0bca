// Package dynamodb persists job records, domain events, and rebuild locks.
// All items share one key schema: a prefixed partition key, a sort key, and
// two global secondary indexes (GSI1, GSI2) for listing by status and by
// time. The stores take their table names from configuration, so they can
// share a table or use separate ones.
package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPI captures the DynamoDB operations this package issues, so tests
// can substitute a recording client.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// sortTimeLayout is RFC3339 with fixed-width nanoseconds. time.RFC3339Nano
// trims trailing zeros, which breaks lexicographic ordering of sort keys;
// this layout does not.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
