package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// maxDatumsPerCall is the CloudWatch PutMetricData batch limit
const maxDatumsPerCall = 20

// Metrics buffers application metrics and publishes them to CloudWatch.
// Publishing is best-effort: a failed flush drops the batch rather than
// blocking request handling.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewMetrics creates a metrics publisher for the given namespace
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// Increment records a count-of-one metric with an operation dimension
func (m *Metrics) Increment(name string, operation string) {
	m.record(name, operation, 1, types.StandardUnitCount)
}

// RecordValue records an arbitrary value metric
func (m *Metrics) RecordValue(name string, operation string, value float64) {
	m.record(name, operation, value, types.StandardUnitNone)
}

// RecordDuration records a duration metric in milliseconds
func (m *Metrics) RecordDuration(name string, operation string, d time.Duration) {
	m.record(name, operation, float64(d.Milliseconds()), types.StandardUnitMilliseconds)
}

// Timer measures the duration of an operation
type Timer struct {
	metrics   *Metrics
	name      string
	operation string
	start     time.Time
}

// StartTimer starts a timer; call Stop to record the duration
func (m *Metrics) StartTimer(name string, operation string) *Timer {
	return &Timer{
		metrics:   m,
		name:      name,
		operation: operation,
		start:     time.Now(),
	}
}

// Stop records the elapsed time since the timer started
func (t *Timer) Stop() {
	t.metrics.RecordDuration(t.name, t.operation, time.Since(t.start))
}

func (m *Metrics) record(name, operation string, value float64, unit types.StandardUnit) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Operation"), Value: aws.String(operation)},
		},
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	m.mu.Unlock()
}

// Flush publishes buffered metrics to CloudWatch
func (m *Metrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(batch) {
			end = len(batch)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// FlushLoop periodically flushes buffered metrics until the context ends
func (m *Metrics) FlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Flush(context.Background())
			return
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}
