package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.AddUpload(nil)
	m.AddUpload(errors.New("boom"))
	m.AddUpload(nil)
	m.AddMarkupSave("annotation", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.markupSavesTotal.WithLabelValues("annotation", ResultOK)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddUpload(nil)
		m.AddMarkupSave("comment", nil)
		m.ObserveMarkupRecords("comment", 3)
		m.AddUploadEvent(nil)
		m.ObserveRequest("GET", "/healthz", 200, 0.01)
	})
}
