package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/metrics"
)

func Test_PrometheusCollector_CountsByLabels(t *testing.T) {
	// arrange
	collector := metrics.NewPrometheusCollector()
	success := map[string]string{"command_type": "BorrowBook", "status": "success"}
	rejected := map[string]string{"command_type": "BorrowBook", "status": "rejected"}

	// act
	collector.IncrementCounter("commandhandler_handle_calls_total", success)
	collector.IncrementCounter("commandhandler_handle_calls_total", success)
	collector.IncrementCounter("commandhandler_handle_calls_total", rejected)

	// assert
	count, err := testutil.GatherAndCount(collector.Registry(), "lending_commandhandler_handle_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per label combination")
}

func Test_PrometheusCollector_ToleratesDivergingLabelSets(t *testing.T) {
	// arrange
	collector := metrics.NewPrometheusCollector()
	var collectorAsInterface eventstore.MetricsCollector = collector

	// act & assert
	assert.NotPanics(t, func() {
		collectorAsInterface.RecordDuration(eventstore.MetricQueryDuration, time.Millisecond,
			map[string]string{eventstore.LabelOperation: eventstore.OperationQuery, eventstore.LabelStatus: eventstore.StatusSuccess})
		collectorAsInterface.RecordDuration(eventstore.MetricQueryDuration, time.Millisecond,
			map[string]string{eventstore.LabelOperation: eventstore.OperationQuery})
		collectorAsInterface.RecordValue(eventstore.MetricEventsQueried, 12,
			map[string]string{eventstore.LabelOperation: eventstore.OperationQuery, "unexpected": "x"})
	})

	count, err := testutil.GatherAndCount(collector.Registry(), "lending_eventstore_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
