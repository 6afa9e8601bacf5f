package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	t.Parallel()

	vars := []struct {
		name string
		val  any
	}{
		{"OperationsTotal", OperationsTotal},
		{"OperationLatency", OperationLatency},
		{"OperationsRejectedBusy", OperationsRejectedBusy},
		{"BalanceRefreshTotal", BalanceRefreshTotal},
		{"BalanceRefreshCancelled", BalanceRefreshCancelled},
		{"NavigationsTotal", NavigationsTotal},
		{"ProbeLatency", ProbeLatency},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestMetrics_CounterIncrement(t *testing.T) {
	t.Parallel()

	c := OperationsTotal.WithLabelValues("test-chain", "faucet", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))

	assert.NotPanics(t, func() { OperationLatency.WithLabelValues("test-chain", "faucet").Observe(0.5) })
	assert.NotPanics(t, func() { BalanceRefreshTotal.WithLabelValues("test-chain", "error").Inc() })
	assert.NotPanics(t, func() { NavigationsTotal.WithLabelValues("blocked").Inc() })
	assert.NotPanics(t, func() { ProbeLatency.Observe(0.1) })
}
