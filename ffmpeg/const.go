// Package ffmpeg provides functionality for detecting and working with FFmpeg.
// It locates the FFmpeg and FFprobe executables, probes media durations and
// runs single-frame crop detection for the crop package.
package ffmpeg

import (
	"fmt"
	"time"
)

// Private constants (alphabetical)
const (
	// defaultTimeout is the standard timeout for FFmpeg operations.
	// Operations that exceed this timeout will be terminated.
	defaultTimeout = 30 * time.Second

	// errorPrefix is used as a prefix for all error messages from this package.
	errorPrefix = "ffmpeg: "

	// stderrTailSize is how much of a failed command's diagnostic output is
	// kept in the returned error.
	stderrTailSize = 512
)

// Public constants (alphabetical)
const (
	// CropDetectLimit is the cropdetect black level threshold.
	CropDetectLimit = 64

	// CropDetectRound is the value crop width and height are divisible by.
	CropDetectRound = 4

	// CropDetectSkip is the number of initial frames cropdetect ignores.
	// Only one frame is decoded per sample, so it must stay at zero.
	CropDetectSkip = 0

	// MaxConcurrentOperations defines the maximum number of concurrent FFmpeg operations
	// allowed to prevent system resource exhaustion.
	MaxConcurrentOperations = 4
)

// Public functions (alphabetical)

// CropDetectFilter returns the video filter expression used for every sample.
func CropDetectFilter() string {
	return fmt.Sprintf("cropdetect=limit=%d:round=%d:skip=%d", CropDetectLimit, CropDetectRound, CropDetectSkip)
}

// FormatError creates a standardized error message with the package prefix.
// It ensures all errors from this package have a consistent format and can be
// easily identified as originating from the ffmpeg package.
func FormatError(format string, args ...interface{}) error {
	return fmt.Errorf(errorPrefix+format, args...)
}

// GetDefaultTimeout returns the standard timeout duration for FFmpeg operations.
// Applications can use this when creating contexts or setting command timeouts.
func GetDefaultTimeout() time.Duration {
	return defaultTimeout
}
