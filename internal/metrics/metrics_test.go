package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector(t *testing.T) {
	c := NewPrometheusCollector()

	c.RecordTransition("pm_request", "VERIFIED", "RELEASED")
	c.RecordTransition("pm_request", "VERIFIED", "RELEASED")
	c.RecordMoneyMovement("pm_release", "USD", 8500)
	c.RecordMoneyMovement("pm_release", "USD", 0)
	c.RecordViolations("CRITICAL", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("pm_request", "VERIFIED", "RELEASED")))
	assert.Equal(t, 8500.0, testutil.ToFloat64(c.moved.WithLabelValues("pm_release", "USD")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.violations.WithLabelValues("CRITICAL")))

	families, err := c.Registry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNoopCollectorSatisfiesInterface(t *testing.T) {
	var c Collector = NoopCollector{}
	c.RecordOperationResult("release", "ok")
}
