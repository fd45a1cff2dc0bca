package dynamodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/entities"
	pkgerrors "goslim/pkg/errors"
)

// stubDynamo records requests and plays back configured responses
type stubDynamo struct {
	mu sync.Mutex

	putInputs    []*dynamodb.PutItemInput
	getInputs    []*dynamodb.GetItemInput
	deleteInputs []*dynamodb.DeleteItemInput
	queryInputs  []*dynamodb.QueryInput
	batchInputs  []*dynamodb.BatchWriteItemInput

	putErr    error
	getErr    error
	deleteErr error
	queryErr  error
	batchErr  error

	getOutput    *dynamodb.GetItemOutput
	queryOutputs []*dynamodb.QueryOutput
	batchOutput  *dynamodb.BatchWriteItemOutput
}

func (s *stubDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putInputs = append(s.putInputs, params)
	if s.putErr != nil {
		return nil, s.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (s *stubDynamo) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getInputs = append(s.getInputs, params)
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.getOutput != nil {
		return s.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (s *stubDynamo) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteInputs = append(s.deleteInputs, params)
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (s *stubDynamo) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryInputs = append(s.queryInputs, params)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.queryOutputs) > 0 {
		out := s.queryOutputs[0]
		s.queryOutputs = s.queryOutputs[1:]
		return out, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func (s *stubDynamo) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchInputs = append(s.batchInputs, params)
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	if s.batchOutput != nil {
		return s.batchOutput, nil
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	attr, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s should be a string", name)
	return attr.Value
}

func attributeValues(values map[string]types.AttributeValue) []string {
	var out []string
	for _, value := range values {
		if s, ok := value.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

func reconstructedJob(id string, status entities.JobStatus, createdAt time.Time, startedAt *time.Time, version int) *entities.Job {
	return entities.ReconstructJob(
		id,
		entities.JobToolSlimMapper,
		"map",
		map[string]string{"aspect": "F"},
		status,
		map[string]string{},
		"",
		createdAt,
		startedAt,
		nil,
		version,
	)
}

func TestJobRepository_SaveNewJobRequiresAbsence(t *testing.T) {
	// Arrange
	client := &stubDynamo{}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())
	job := entities.NewJob("", entities.JobToolSlimMapper, "count", map[string]string{"slim": "goslim_generic"})

	// Act
	err := repo.Save(context.Background(), job)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.putInputs, 1)

	input := client.putInputs[0]
	assert.Equal(t, "goslim-test", *input.TableName)
	assert.Equal(t, "attribute_not_exists(PK)", *input.ConditionExpression)
	assert.Equal(t, jobKeyPrefix+job.ID(), stringAttr(t, input.Item, "PK"))
	assert.Equal(t, jobMetadataSK, stringAttr(t, input.Item, "SK"))
	assert.Equal(t, "STATUS#PENDING", stringAttr(t, input.Item, "GSI1PK"))
	assert.Equal(t, jobListPartition, stringAttr(t, input.Item, "GSI2PK"))
}

func TestJobRepository_SaveUpdateChecksPreviousVersion(t *testing.T) {
	// Arrange
	client := &stubDynamo{}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())
	started := time.Now().Add(-time.Minute)
	job := reconstructedJob("job-7", entities.JobStatusRunning, time.Now().Add(-2*time.Minute), &started, 3)

	// Act
	err := repo.Save(context.Background(), job)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.putInputs, 1)

	input := client.putInputs[0]
	assert.Equal(t, "#version = :prev", *input.ConditionExpression)
	assert.Equal(t, "Version", input.ExpressionAttributeNames["#version"])

	prev, ok := input.ExpressionAttributeValues[":prev"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "2", prev.Value)
}

func TestJobRepository_SaveConflictReportsConcurrentModification(t *testing.T) {
	// Arrange
	client := &stubDynamo{putErr: &types.ConditionalCheckFailedException{}}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())
	started := time.Now()
	job := reconstructedJob("job-9", entities.JobStatusRunning, time.Now(), &started, 2)

	// Act
	err := repo.Save(context.Background(), job)

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrentModification)
}

func TestJobRepository_GetByIDRoundTrip(t *testing.T) {
	// Arrange
	createdAt := time.Date(2026, 2, 10, 9, 30, 0, 123456789, time.UTC)
	startedAt := createdAt.Add(2 * time.Second)
	finishedAt := createdAt.Add(10 * time.Second)
	stored := entities.ReconstructJob(
		"job-42",
		entities.JobToolTermFinder,
		"enrichment",
		map[string]string{"aspect": "P"},
		entities.JobStatusCompleted,
		map[string]string{"terms.html": "https://results.example.org/terms.html"},
		"",
		createdAt,
		&startedAt,
		&finishedAt,
		4,
	)

	item, err := attributevalue.MarshalMap(newJobItem(stored))
	require.NoError(t, err)

	client := &stubDynamo{getOutput: &dynamodb.GetItemOutput{Item: item}}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())

	// Act
	job, err := repo.GetByID(context.Background(), "job-42")

	// Assert
	require.NoError(t, err)
	require.Len(t, client.getInputs, 1)
	assert.Equal(t, jobKeyPrefix+"job-42", stringAttr(t, client.getInputs[0].Key, "PK"))

	assert.Equal(t, "job-42", job.ID())
	assert.Equal(t, entities.JobToolTermFinder, job.Tool())
	assert.Equal(t, "enrichment", job.Mode())
	assert.Equal(t, entities.JobStatusCompleted, job.Status())
	assert.Equal(t, map[string]string{"aspect": "P"}, job.Params())
	assert.Equal(t, map[string]string{"terms.html": "https://results.example.org/terms.html"}, job.Artifacts())
	assert.Equal(t, 4, job.Version())
	assert.True(t, job.CreatedAt().Equal(createdAt))
	require.NotNil(t, job.StartedAt())
	assert.True(t, job.StartedAt().Equal(startedAt))
	require.NotNil(t, job.FinishedAt())
	assert.True(t, job.FinishedAt().Equal(finishedAt))
}

func TestJobRepository_GetByIDMissingJob(t *testing.T) {
	// Arrange
	client := &stubDynamo{}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())

	// Act
	_, err := repo.GetByID(context.Background(), "no-such-job")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrJobNotFound)
}

func TestJobRepository_ListByStatusQueriesStatusIndex(t *testing.T) {
	// Arrange
	started := time.Now().Add(-time.Minute)
	first, err := attributevalue.MarshalMap(newJobItem(
		reconstructedJob("job-b", entities.JobStatusRunning, time.Now().Add(-time.Minute), &started, 2),
	))
	require.NoError(t, err)
	second, err := attributevalue.MarshalMap(newJobItem(
		reconstructedJob("job-a", entities.JobStatusRunning, time.Now().Add(-2*time.Minute), &started, 2),
	))
	require.NoError(t, err)

	client := &stubDynamo{queryOutputs: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{first, second},
		LastEvaluatedKey: map[string]types.AttributeValue{
			"PK":     &types.AttributeValueMemberS{Value: "JOB#job-a"},
			"SK":     &types.AttributeValueMemberS{Value: "METADATA"},
			"GSI1PK": &types.AttributeValueMemberS{Value: "STATUS#RUNNING"},
			"GSI1SK": &types.AttributeValueMemberS{Value: "JOB#t#job-a"},
		},
	}}}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())

	// Act
	jobs, cursor, err := repo.List(context.Background(), ports.JobListCriteria{
		Status: entities.JobStatusRunning,
		Tool:   entities.JobToolSlimMapper,
		Limit:  2,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, client.queryInputs, 1)

	input := client.queryInputs[0]
	assert.Equal(t, statusIndexName, *input.IndexName)
	assert.False(t, *input.ScanIndexForward)
	assert.Equal(t, int32(2), *input.Limit)
	require.NotNil(t, input.FilterExpression)
	assert.Contains(t, attributeValues(input.ExpressionAttributeValues), "STATUS#RUNNING")
	assert.Contains(t, attributeValues(input.ExpressionAttributeValues), "slim-mapper")

	require.Len(t, jobs, 2)
	assert.Equal(t, "job-b", jobs[0].ID())
	assert.Equal(t, "job-a", jobs[1].ID())
	assert.NotEmpty(t, cursor)

	// Feeding the cursor back continues from the returned key
	_, _, err = repo.List(context.Background(), ports.JobListCriteria{
		Status: entities.JobStatusRunning,
		Cursor: cursor,
	})
	require.NoError(t, err)
	require.Len(t, client.queryInputs, 2)
	assert.Equal(t, "JOB#job-a", stringAttr(t, client.queryInputs[1].ExclusiveStartKey, "PK"))
}

func TestJobRepository_ListWithoutStatusUsesTimeIndex(t *testing.T) {
	// Arrange
	client := &stubDynamo{}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())

	// Act
	jobs, cursor, err := repo.List(context.Background(), ports.JobListCriteria{})

	// Assert
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Empty(t, cursor)
	require.Len(t, client.queryInputs, 1)

	input := client.queryInputs[0]
	assert.Equal(t, timeIndexName, *input.IndexName)
	assert.Equal(t, int32(defaultListLimit), *input.Limit)
	assert.Contains(t, attributeValues(input.ExpressionAttributeValues), jobListPartition)
	assert.Nil(t, input.FilterExpression)
}

func TestJobRepository_ListRejectsMalformedCursor(t *testing.T) {
	// Arrange
	client := &stubDynamo{}
	repo := NewJobRepository(client, "goslim-test", zap.NewNop())

	// Act
	_, _, err := repo.List(context.Background(), ports.JobListCriteria{Cursor: "%%%not-base64%%%"})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page cursor")
	assert.Empty(t, client.queryInputs)
}
