package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuery struct {
	TermID string
}

func (q stubQuery) Validate() error {
	if q.TermID == "" {
		return errors.New("term ID is required")
	}
	return nil
}

type memoryCache struct {
	entries map[string]interface{}
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]interface{})}
}

func (c *memoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.entries[key] = value
	c.sets++
	return nil
}

type recordingMetrics struct {
	counts map[string]int
	timers int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) StartTimer(metric, label string) Timer {
	m.timers++
	return noopTimer{}
}

func (m *recordingMetrics) Increment(metric, label string) {
	m.counts[metric+":"+label]++
}

type noopTimer struct{}

func (noopTimer) Stop() {}

func TestQueryBus_AskReturnsHandlerResult(t *testing.T) {
	// Arrange
	b := NewQueryBus()
	err := b.Register(stubQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return "resolved:" + q.(stubQuery).TermID, nil
	}))
	require.NoError(t, err)

	// Act
	result, err := b.Ask(context.Background(), stubQuery{TermID: "GO:0008150"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "resolved:GO:0008150", result)
}

func TestQueryBus_UnregisteredQueryType(t *testing.T) {
	b := NewQueryBus()

	_, err := b.Ask(context.Background(), stubQuery{TermID: "GO:0008150"})

	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestQueryBus_ValidationFailureSkipsHandler(t *testing.T) {
	b := NewQueryBus()
	called := false
	require.NoError(t, b.Register(stubQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Ask(context.Background(), stubQuery{})

	assert.ErrorContains(t, err, "query validation failed")
	assert.False(t, called)
}

func TestCachingMiddleware_ServesRepeatQueryFromCache(t *testing.T) {
	// Arrange
	cache := newMemoryCache()
	calls := 0
	handler := NewCachingMiddleware(cache, 60).Wrap(QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return "mapped", nil
	}))
	query := stubQuery{TermID: "GO:0006259"}

	// Act
	first, err := handler.Handle(context.Background(), query)
	require.NoError(t, err)
	second, err := handler.Handle(context.Background(), query)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "mapped", first)
	assert.Equal(t, "mapped", second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.sets)
}

func TestCachingMiddleware_DistinctQueriesMiss(t *testing.T) {
	cache := newMemoryCache()
	calls := 0
	handler := NewCachingMiddleware(cache, 60).Wrap(QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return q.(stubQuery).TermID, nil
	}))

	_, err := handler.Handle(context.Background(), stubQuery{TermID: "GO:0008150"})
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), stubQuery{TermID: "GO:0008152"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestCachingMiddleware_ErrorsAreNotCached(t *testing.T) {
	cache := newMemoryCache()
	handler := NewCachingMiddleware(cache, 60).Wrap(QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return nil, errors.New("snapshot unavailable")
	}))

	_, err := handler.Handle(context.Background(), stubQuery{TermID: "GO:0008150"})

	assert.Error(t, err)
	assert.Equal(t, 0, cache.sets)
}

func TestMetricsMiddleware_RecordsOutcomes(t *testing.T) {
	// Arrange
	metrics := newRecordingMetrics()
	handler := NewMetricsMiddleware(metrics).Wrap(QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		if q.(stubQuery).TermID == "GO:9999999" {
			return nil, errors.New("not found")
		}
		return "ok", nil
	}))

	// Act
	_, err := handler.Handle(context.Background(), stubQuery{TermID: "GO:0008150"})
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), stubQuery{TermID: "GO:9999999"})
	require.Error(t, err)

	// Assert
	assert.Equal(t, 2, metrics.timers)
	assert.Equal(t, 2, metrics.counts["query_count:stubQuery"])
	assert.Equal(t, 1, metrics.counts["query_success:stubQuery"])
	assert.Equal(t, 1, metrics.counts["query_errors:stubQuery"])
}
