package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramCount(hv *prometheus.HistogramVec, labels ...string) uint64 {
	m := &dto.Metric{}
	if c, ok := hv.WithLabelValues(labels...).(prometheus.Metric); ok {
		if err := c.Write(m); err != nil {
			return 0
		}
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func TestRecordForward(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordForward("account-status", "HOMINUM", 200, 120*time.Millisecond)
	m.RecordForward("account-status", "HOMINUM", 200, 80*time.Millisecond)
	m.RecordForward("account-status", "HOMINUM", 0, 30*time.Second)

	require.Equal(t, 2.0, getCounterValue(m.ForwardedTotal, "account-status", "HOMINUM", "200"))
	require.Equal(t, 1.0, getCounterValue(m.ForwardedTotal, "account-status", "HOMINUM", "none"))
	require.Equal(t, uint64(3), getHistogramCount(m.ForwardDurationSeconds, "account-status"))
}

func TestRecordRejectedAndAlternate(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRejected("qr-checkin", "missing_fields")
	m.RecordAlternatePath("hr-education")
	m.RecordSessionToken("issued")
	m.RecordSessionToken("issued")

	require.Equal(t, 1.0, getCounterValue(m.RejectedTotal, "qr-checkin", "missing_fields"))
	require.Equal(t, 1.0, getCounterValue(m.AlternatePathTotal, "hr-education"))
	require.Equal(t, 2.0, getCounterValue(m.SessionTokensTotal, "issued"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordForward("x", "y", 500, time.Second)
		m.RecordRejected("x", "y")
		m.RecordAlternatePath("x")
		m.RecordSessionToken("x")
	})
}
