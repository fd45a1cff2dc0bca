package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/entities"
	pkgerrors "goslim/pkg/errors"
)

const (
	jobKeyPrefix     = "JOB#"
	jobMetadataSK    = "METADATA"
	jobStatusPrefix  = "STATUS#"
	jobListPartition = "JOB"

	statusIndexName = "GSI1"
	timeIndexName   = "GSI2"

	defaultListLimit = 50
	maxListLimit     = 200
)

// JobRepository implements ports.JobRepository on the shared table.
//
// Key layout:
//
//	PK:     JOB#<id>            SK:     METADATA
//	GSI1PK: STATUS#<status>     GSI1SK: JOB#<created_at>#<id>
//	GSI2PK: JOB                 GSI2SK: JOB#<created_at>#<id>
//
// GSI1 serves status-filtered listing, GSI2 serves the unfiltered list;
// both return newest first by querying the index descending.
type JobRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewJobRepository creates a job repository backed by the given table
func NewJobRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *JobRepository {
	return &JobRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// jobItem is the storage representation of a job record
type jobItem struct {
	PK         string            `dynamodbav:"PK"`
	SK         string            `dynamodbav:"SK"`
	GSI1PK     string            `dynamodbav:"GSI1PK"`
	GSI1SK     string            `dynamodbav:"GSI1SK"`
	GSI2PK     string            `dynamodbav:"GSI2PK"`
	GSI2SK     string            `dynamodbav:"GSI2SK"`
	EntityType string            `dynamodbav:"EntityType"`
	JobID      string            `dynamodbav:"JobID"`
	Tool       string            `dynamodbav:"Tool"`
	Mode       string            `dynamodbav:"Mode"`
	Params     map[string]string `dynamodbav:"Params,omitempty"`
	Status     string            `dynamodbav:"Status"`
	Artifacts  map[string]string `dynamodbav:"Artifacts,omitempty"`
	Message    string            `dynamodbav:"Message,omitempty"`
	CreatedAt  string            `dynamodbav:"CreatedAt"`
	StartedAt  string            `dynamodbav:"StartedAt,omitempty"`
	FinishedAt string            `dynamodbav:"FinishedAt,omitempty"`
	Version    int               `dynamodbav:"Version"`
}

// Save persists a job record with an optimistic concurrency check. The first
// version must create the item; later versions must replace exactly the
// previous version, so two processes cannot both advance the same job.
func (r *JobRepository) Save(ctx context.Context, job *entities.Job) error {
	item := newJobItem(job)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID(), err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if job.Version() <= 1 {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		input.ConditionExpression = aws.String("#version = :prev")
		input.ExpressionAttributeNames = map[string]string{"#version": "Version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prev": &types.AttributeValueMemberN{Value: strconv.Itoa(job.Version() - 1)},
		}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("job %s version %d: %w", job.ID(), job.Version(), pkgerrors.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to save job %s: %w", job.ID(), err)
	}

	r.logger.Debug("job saved",
		zap.String("jobID", job.ID()),
		zap.String("status", string(job.Status())),
		zap.Int("version", job.Version()),
	)
	return nil
}

// GetByID retrieves a job record by its identifier
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entities.Job, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobKeyPrefix + id},
			"SK": &types.AttributeValueMemberS{Value: jobMetadataSK},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("job %s: %w", id, pkgerrors.ErrJobNotFound)
	}

	var item jobItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}

	return item.toJob()
}

// List retrieves jobs matching the criteria, newest first, with an opaque
// cursor for the next page. An empty cursor means the listing is exhausted.
func (r *JobRepository) List(ctx context.Context, criteria ports.JobListCriteria) ([]*entities.Job, string, error) {
	keyCondition := expression.Key("GSI2PK").Equal(expression.Value(jobListPartition))
	indexName := timeIndexName
	if criteria.Status != "" {
		keyCondition = expression.Key("GSI1PK").Equal(expression.Value(jobStatusPrefix + string(criteria.Status)))
		indexName = statusIndexName
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if criteria.Tool != "" {
		builder = builder.WithFilter(expression.Name("Tool").Equal(expression.Value(string(criteria.Tool))))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build job list expression: %w", err)
	}

	startKey, err := decodeCursor(criteria.Cursor)
	if err != nil {
		return nil, "", err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(clampListLimit(criteria.Limit)),
		ExclusiveStartKey:         startKey,
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*entities.Job, 0, len(out.Items))
	for _, raw := range out.Items {
		var item jobItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal job item: %w", err)
		}
		job, err := item.toJob()
		if err != nil {
			return nil, "", err
		}
		jobs = append(jobs, job)
	}

	nextCursor, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return jobs, nextCursor, nil
}

func newJobItem(job *entities.Job) jobItem {
	created := job.CreatedAt()
	sortKey := fmt.Sprintf("%s%s#%s", jobKeyPrefix, created.UTC().Format(sortTimeLayout), job.ID())

	item := jobItem{
		PK:         jobKeyPrefix + job.ID(),
		SK:         jobMetadataSK,
		GSI1PK:     jobStatusPrefix + string(job.Status()),
		GSI1SK:     sortKey,
		GSI2PK:     jobListPartition,
		GSI2SK:     sortKey,
		EntityType: "JOB",
		JobID:      job.ID(),
		Tool:       string(job.Tool()),
		Mode:       job.Mode(),
		Params:     job.Params(),
		Status:     string(job.Status()),
		Artifacts:  job.Artifacts(),
		Message:    job.Message(),
		CreatedAt:  created.Format(time.RFC3339Nano),
		Version:    job.Version(),
	}
	if started := job.StartedAt(); started != nil {
		item.StartedAt = started.Format(time.RFC3339Nano)
	}
	if finished := job.FinishedAt(); finished != nil {
		item.FinishedAt = finished.Format(time.RFC3339Nano)
	}
	return item
}

func (item jobItem) toJob() (*entities.Job, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created time of job %s: %w", item.JobID, err)
	}

	var startedAt, finishedAt *time.Time
	if item.StartedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, item.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time of job %s: %w", item.JobID, err)
		}
		startedAt = &t
	}
	if item.FinishedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, item.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finish time of job %s: %w", item.JobID, err)
		}
		finishedAt = &t
	}

	return entities.ReconstructJob(
		item.JobID,
		entities.JobTool(item.Tool),
		item.Mode,
		item.Params,
		entities.JobStatus(item.Status),
		item.Artifacts,
		item.Message,
		createdAt,
		startedAt,
		finishedAt,
		item.Version,
	), nil
}

func clampListLimit(limit int) int32 {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return int32(limit)
}

// encodeCursor packs a DynamoDB continuation key into an opaque page token.
// All key attributes in this table are strings.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	flat := make(map[string]string, len(key))
	for name, value := range key {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("unsupported cursor attribute %s", name)
		}
		flat[name] = s.Value
	}

	raw, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid page cursor: %w", err)
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("invalid page cursor: %w", err)
	}

	key := make(map[string]types.AttributeValue, len(flat))
	for name, value := range flat {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}
