package crop

import (
	"fmt"
)

// NoConsensusError is returned when every scheduled sample failed to
// produce a candidate.
type NoConsensusError struct {
	Path      string
	Attempted int
}

func (e *NoConsensusError) Error() string {
	if e.Path == "" {
		return "crop: no crop candidates to vote on"
	}
	return fmt.Sprintf("crop: no crop candidates for %s after %d samples", e.Path, e.Attempted)
}

// PlanningError is returned when the duration yields no sample offsets.
type PlanningError struct {
	Path     string
	Duration float64
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("crop: cannot schedule samples for %s (duration %g s)", e.Path, e.Duration)
}

// ProbeError is returned when the duration of a file cannot be obtained.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("crop: probing duration of %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// SampleError is a failure confined to a single sample. It never aborts a
// detection run.
type SampleError struct {
	Path   string
	Offset float64
	Err    error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("crop: sample at %gs of %s: %v", e.Offset, e.Path, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}
