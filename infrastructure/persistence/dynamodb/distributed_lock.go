package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	pkgerrors "goslim/pkg/errors"
)

const (
	lockKeyPrefix = "LOCK#"
	lockSortKey   = "LOCK"
)

// DistributedLock implements ports.DistributedLock with conditional writes.
// A lock is one item keyed LOCK#<lock_id>. The conditional put succeeds when
// no live lock exists, and the owner check on release keeps a process from
// deleting a lock that expired and was re-acquired elsewhere.
type DistributedLock struct {
	client    DynamoDBAPI
	tableName string
	owner     string
	logger    *zap.Logger
}

// LockRecord is the storage representation of a held lock
type LockRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewDistributedLock creates a lock manager. Each instance is its own owner,
// so locks taken by one process cannot be released by another.
func NewDistributedLock(client DynamoDBAPI, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		owner:     uuid.New().String(),
		logger:    logger,
	}
}

// AcquireLock takes the named lock for at most ttl. A lock whose ExpiresAt
// has passed counts as free even before DynamoDB TTL removes the item.
func (dl *DistributedLock) AcquireLock(ctx context.Context, lockID string, ttl time.Duration) error {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	record := LockRecord{
		PK:         lockKeyPrefix + lockID,
		SK:         lockSortKey,
		Owner:      dl.owner,
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  expiresAt.Format(time.RFC3339),
		TTL:        expiresAt.Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal lock %s: %w", lockID, err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(dl.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(PK) OR #expires < :now"),
		ExpressionAttributeNames: map[string]string{"#expires": "ExpiresAt"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: record.AcquiredAt},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			dl.logger.Debug("lock already held",
				zap.String("lockID", lockID),
			)
			return fmt.Errorf("lock %s: %w", lockID, pkgerrors.ErrLockNotAcquired)
		}
		return fmt.Errorf("failed to acquire lock %s: %w", lockID, err)
	}

	dl.logger.Debug("lock acquired",
		zap.String("lockID", lockID),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// ReleaseLock releases the named lock. Releasing a lock this process no
// longer holds is not an error; the lock already changed hands.
func (dl *DistributedLock) ReleaseLock(ctx context.Context, lockID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockKeyPrefix + lockID},
			"SK": &types.AttributeValueMemberS{Value: lockSortKey},
		},
		ConditionExpression:      aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "Owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: dl.owner},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			dl.logger.Warn("lock expired and changed hands before release",
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock %s: %w", lockID, err)
	}

	dl.logger.Debug("lock released",
		zap.String("lockID", lockID),
	)
	return nil
}
