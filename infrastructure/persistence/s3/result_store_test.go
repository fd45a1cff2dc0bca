package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturingS3 records uploads and their bodies
type capturingS3 struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (c *capturingS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.inputs = append(c.inputs, params)
	c.bodies = append(c.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestResultStore_StoreUploadsAndReturnsURL(t *testing.T) {
	// Arrange
	client := &capturingS3{}
	store := NewResultStore(client, "goslim-results", "us-west-2", "results", zap.NewNop())

	// Act
	url, err := store.Store(
		context.Background(),
		"0f343b09/mapped.tab",
		"text/plain; charset=utf-8",
		strings.NewReader("GO:0003674\tprotein1\n"),
	)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://goslim-results.s3.us-west-2.amazonaws.com/results/0f343b09/mapped.tab", url)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "goslim-results", *input.Bucket)
	assert.Equal(t, "results/0f343b09/mapped.tab", *input.Key)
	assert.Equal(t, "text/plain; charset=utf-8", *input.ContentType)
	assert.Contains(t, *input.CacheControl, "immutable")
	assert.Equal(t, "GO:0003674\tprotein1\n", client.bodies[0])
}

func TestResultStore_KeyPrefixJoining(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"no prefix", "", "ab/x.tab", "ab/x.tab"},
		{"plain prefix", "results", "ab/x.tab", "results/ab/x.tab"},
		{"trailing slash prefix", "results/", "ab/x.tab", "results/ab/x.tab"},
		{"leading slash key", "results", "/ab/x.tab", "results/ab/x.tab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &capturingS3{}
			store := NewResultStore(client, "goslim-results", "us-west-2", tt.prefix, zap.NewNop())

			_, err := store.Store(context.Background(), tt.key, "text/plain", strings.NewReader("x"))

			require.NoError(t, err)
			require.Len(t, client.inputs, 1)
			assert.Equal(t, tt.want, *client.inputs[0].Key)
		})
	}
}

func TestResultStore_MissingBucketFails(t *testing.T) {
	// Arrange
	client := &capturingS3{}
	store := NewResultStore(client, "", "us-west-2", "results", zap.NewNop())

	// Act
	_, err := store.Store(context.Background(), "ab/x.tab", "text/plain", strings.NewReader("x"))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
	assert.Empty(t, client.inputs)
}

func TestResultStore_UploadErrorSurfaces(t *testing.T) {
	// Arrange
	client := &capturingS3{err: errors.New("access denied")}
	store := NewResultStore(client, "goslim-results", "us-west-2", "results", zap.NewNop())

	// Act
	_, err := store.Store(context.Background(), "ab/x.tab", "text/plain", strings.NewReader("x"))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload artifact")
	assert.Contains(t, err.Error(), "access denied")
}
