package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.WeekClosing(OutcomeProcessed)
	r.WeekClosing(OutcomeProcessed)
	r.WeekClosing(OutcomeAlreadyClosed)
	r.FinesApplied(SourceWeek, 3, 500)
	r.FinesApplied(SourceChallenge, 1, 200)
	r.ChallengeTransition("ACCEPTED")
	r.TxRetry("close_week")
	r.RPC("/multas.v1.GroupService/GetGroup", "ok", 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.weeksClosed.WithLabelValues(OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.weeksClosed.WithLabelValues(OutcomeAlreadyClosed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.finesApplied.WithLabelValues(SourceWeek)))
	assert.Equal(t, 1500.0, testutil.ToFloat64(r.fineAmount.WithLabelValues(SourceWeek)))
	assert.Equal(t, 200.0, testutil.ToFloat64(r.fineAmount.WithLabelValues(SourceChallenge)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.challengeTransitions.WithLabelValues("ACCEPTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.txRetries.WithLabelValues("close_week")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rpcRequests.WithLabelValues("/multas.v1.GroupService/GetGroup", "ok")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["multas_settlement_week_closings_total"])
	assert.True(t, names["multas_rpc_duration_seconds"])
}

func TestRecorderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, WithNamespace("test"), WithBuckets([]float64{0.1, 1}))
	r.WeekClosing(OutcomeLostRace)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_settlement_week_closings_total", families[0].GetName())
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.WeekClosing(OutcomeProcessed)
		r.FinesApplied(SourceWeek, 1, 500)
		r.ChallengeTransition("REJECTED")
		r.TxRetry("resolve_challenge")
		r.RPC("/x", "ok", time.Second)
	})
}
