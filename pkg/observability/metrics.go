package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// metricBatchSize caps the number of data points sent per PutMetricData call.
const metricBatchSize = 20

// flushTimeout bounds background publishes so a slow CloudWatch endpoint
// cannot pile up goroutines.
const flushTimeout = 10 * time.Second

// CloudWatchAPI is the subset of the CloudWatch client used by Metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics buffers metric data points and ships them to CloudWatch in
// batches. All methods are safe for concurrent use. With a nil client
// the recorder is a no-op, so local runs need no AWS credentials.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewMetrics creates a metrics recorder publishing under the given namespace
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// Increment adds one to a counter metric
func (m *Metrics) Increment(metric, label string) {
	m.AddCount(metric, label, 1)
}

// AddCount adds an arbitrary count to a metric
func (m *Metrics) AddCount(metric, label string, value float64) {
	m.record(types.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: dimensions(label),
		Timestamp:  aws.Time(time.Now()),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitCount,
	})
}

// RecordDuration records an elapsed time in milliseconds
func (m *Metrics) RecordDuration(metric, label string, elapsed time.Duration) {
	m.record(types.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: dimensions(label),
		Timestamp:  aws.Time(time.Now()),
		Value:      aws.Float64(float64(elapsed.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
	})
}

// StartTimer begins timing an operation. Stop records the elapsed time.
func (m *Metrics) StartTimer(metric, label string) *Timer {
	return &Timer{
		metrics: m,
		metric:  metric,
		label:   label,
		start:   time.Now(),
	}
}

// Flush synchronously publishes any buffered data points
func (m *Metrics) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	return m.publish(ctx, batch)
}

func (m *Metrics) record(datum types.MetricDatum) {
	if m.client == nil {
		return
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	var batch []types.MetricDatum
	if len(m.buffer) >= metricBatchSize {
		batch = m.buffer
		m.buffer = nil
	}
	m.mu.Unlock()

	if batch == nil {
		return
	}

	// Full batches ship off the caller's goroutine so recording never
	// blocks a request or a pipeline run.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := m.publish(ctx, batch); err != nil {
			m.logger.Warn("failed to publish metrics batch",
				zap.Int("count", len(batch)),
				zap.Error(err),
			)
		}
	}()
}

func (m *Metrics) publish(ctx context.Context, batch []types.MetricDatum) error {
	for len(batch) > 0 {
		chunk := batch
		if len(chunk) > metricBatchSize {
			chunk = chunk[:metricBatchSize]
		}
		batch = batch[len(chunk):]

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: chunk,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func dimensions(label string) []types.Dimension {
	if label == "" {
		return nil
	}
	return []types.Dimension{
		{
			Name:  aws.String("Type"),
			Value: aws.String(label),
		},
	}
}

// Timer measures the duration of a single operation
type Timer struct {
	metrics *Metrics
	metric  string
	label   string
	start   time.Time
}

// Stop records the elapsed time since the timer was started
func (t *Timer) Stop() {
	t.metrics.RecordDuration(t.metric, t.label, time.Since(t.start))
}
