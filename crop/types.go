// Package crop reduces noisy per-frame crop detections to a single crop
// rectangle. It plans sample offsets across a video, collects one candidate
// per offset through a FrameAnalyzer, and votes on the most frequent size.
package crop

import (
	"context"
	"fmt"
)

// Public types (alphabetical)

// Candidate is the crop size detected on a single sampled frame.
// Offsets reported by the detection filter are not kept; only the size
// takes part in the vote.
type Candidate struct {
	// Width is the detected crop width in pixels
	Width int `json:"width"`
	// Height is the detected crop height in pixels
	Height int `json:"height"`
}

// Decision is the crop size chosen by the consensus vote.
type Decision struct {
	// Width is the winning crop width in pixels
	Width int `json:"width"`
	// Height is the winning crop height in pixels
	Height int `json:"height"`
	// Votes is how many candidates matched the winning size
	Votes int `json:"votes"`
	// Candidates is the number of valid candidates that took part in the vote
	Candidates int `json:"candidates"`
	// Samples is the number of scheduled samples, including failed ones
	Samples int `json:"samples"`
	// Duration is the probed media duration in seconds, when known
	Duration float64 `json:"duration,omitempty"`
}

// DurationProber reports the total duration of a media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FrameAnalyzer runs crop detection on the frame found at offset seconds.
// It returns ok=false with a nil error when the tool ran but reported no crop.
type FrameAnalyzer interface {
	Analyze(ctx context.Context, path string, offset float64) (Candidate, bool, error)
}

// SampleResult describes the outcome of one attempted sample.
type SampleResult struct {
	// Index is the position of the sample in the schedule
	Index int
	// Offset is the sample offset in seconds
	Offset float64
	// Candidate is only meaningful when Found is true
	Candidate Candidate
	// Found is true when the sample produced a usable candidate
	Found bool
	// Err is set when the sample failed
	Err error
}

// Schedule is an ordered list of sample offsets in seconds.
type Schedule []float64

// Public methods (alphabetical)

// Valid reports whether both dimensions are positive.
func (c Candidate) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// String renders the candidate as W:H.
func (c Candidate) String() string {
	return fmt.Sprintf("%d:%d", c.Width, c.Height)
}

// Filter renders the decision as an ffmpeg crop filter argument.
func (d *Decision) Filter() string {
	return fmt.Sprintf("crop=%d:%d", d.Width, d.Height)
}

// String renders the decision as W:H.
func (d *Decision) String() string {
	return fmt.Sprintf("%d:%d", d.Width, d.Height)
}
