// Package ffmpeg provides functionality for detecting and working with FFmpeg.
package ffmpeg

// Public types (alphabetical)

// CropAnalyzer runs FFmpeg's cropdetect filter on single frames.
// It implements crop.FrameAnalyzer and is safe for concurrent use.
type CropAnalyzer struct {
	// FFmpegPath is the path to the FFmpeg executable
	FFmpegPath string
}

// ExecutablePaths holds the locations of the FFmpeg and FFprobe executables.
type ExecutablePaths struct {
	// FFmpeg is the path to the FFmpeg executable
	FFmpeg string
	// FFprobe is the path to the FFprobe executable
	FFprobe string
}

// FFmpegInfo contains information about the FFmpeg installation
type FFmpegInfo struct {
	// Installed is true if FFmpeg is found in the system
	Installed bool
	// Path is the full path to the FFmpeg executable
	Path string
	// Version is the version of FFmpeg
	Version string
	// HasCropDetectSupport is true if the cropdetect filter is available
	HasCropDetectSupport bool
}

// Prober reads container level information with FFprobe.
// It implements crop.DurationProber and is safe for concurrent use.
type Prober struct {
	// FFprobePath is the path to the FFprobe executable
	FFprobePath string
}
