package crop

import (
	"math"
)

// Public constants (alphabetical)
const (
	// MinSampleInterval is the smallest spacing between two samples in seconds.
	// Short clips are sampled every MinSampleInterval seconds instead of
	// MinSamples times.
	MinSampleInterval = 10

	// MinSamples is the number of samples taken from clips long enough to
	// afford them.
	MinSamples = 12
)

// Public functions (alphabetical)

// PlanSamples returns the offsets at which a video of the given duration is
// sampled. Offsets start at 0 and advance by max(10, floor(duration/12))
// seconds while they stay below duration. A non-positive or non-finite
// duration yields an empty schedule.
func PlanSamples(duration float64) Schedule {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Schedule{}
	}

	interval := SampleInterval(duration)
	count := int(math.Ceil(duration / interval))

	schedule := make(Schedule, 0, count)
	for i := 0; ; i++ {
		offset := float64(i) * interval
		if offset >= duration {
			break
		}
		schedule = append(schedule, offset)
	}
	return schedule
}

// SampleInterval returns the spacing in seconds used for a video of the
// given duration.
func SampleInterval(duration float64) float64 {
	return math.Max(MinSampleInterval, math.Floor(duration/MinSamples))
}
