package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPass(t *testing.T) {
	m := New()
	m.RecordPass("crm", 5, 1, 20, 50*time.Millisecond)
	m.RecordPass("crm", 3, 0, 9, 10*time.Millisecond)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.harmonizedInstances.WithLabelValues("crm", "harmonized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.harmonizedInstances.WithLabelValues("crm", "failed")))
	assert.Equal(t, 29.0, testutil.ToFloat64(m.triplesEmitted))
}

func TestRecordConflictLifecycle(t *testing.T) {
	m := New()
	m.RecordConflicts(4)
	m.RecordResolution("most_common", 4)
	m.RecordConflicts(0)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.conflictsDetected))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.conflictsResolved.WithLabelValues("most_common")))
}

func TestGauges(t *testing.T) {
	m := New()
	m.RecordQuality(87.5)
	m.RecordGraphSize(1234)

	assert.Equal(t, 87.5, testutil.ToFloat64(m.qualityScore))
	assert.Equal(t, 1234.0, testutil.ToFloat64(m.graphTriples))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordPass("crm", 1, 0, 3, time.Millisecond)
		m.RecordTransformFailure("email")
		m.RecordConflicts(1)
		m.RecordResolution("most_recent", 1)
		m.RecordQuality(100)
		m.RecordGraphSize(0)
	})
	assert.NotNil(t, m.Registry())
}
