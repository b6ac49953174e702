package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/torre76/crophound/crop"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "probe_error", Outcome(&crop.ProbeError{Err: errors.New("x")}))
	assert.Equal(t, "planning_error", Outcome(fmt.Errorf("wrapped: %w", &crop.PlanningError{})))
	assert.Equal(t, "no_consensus", Outcome(&crop.NoConsensusError{}))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
	assert.Equal(t, "canceled", Outcome(context.Canceled))
	assert.Equal(t, "canceled", Outcome(&crop.ProbeError{Err: context.DeadlineExceeded}))
}

func TestObserveSample(t *testing.T) {
	before := testutil.ToFloat64(SamplesTotal.WithLabelValues("error"))
	ObserveSample(crop.SampleResult{Err: errors.New("boom")})
	assert.Equal(t, before+1, testutil.ToFloat64(SamplesTotal.WithLabelValues("error")))

	assert.Equal(t, "crop", SampleLabel(crop.SampleResult{Found: true}))
	assert.Equal(t, "no_crop", SampleLabel(crop.SampleResult{}))
}
