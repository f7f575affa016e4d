package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("test_tool", OutcomeFailure))

	ObserveRequest("test_tool", time.Now(), errors.New("boom"))
	ObserveRequest("test_tool", time.Now(), nil)

	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("test_tool", OutcomeFailure)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(RequestsTotal.WithLabelValues("test_tool", OutcomeSuccess)), 1.0)
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamCallsTotal.WithLabelValues("fake", OutcomeSuccess))

	ObserveUpstream("fake", time.Now(), nil)

	assert.Equal(t, before+1, testutil.ToFloat64(UpstreamCallsTotal.WithLabelValues("fake", OutcomeSuccess)))
}
