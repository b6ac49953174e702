// Package ffmpeg provides functionality for detecting and working with FFmpeg.
package ffmpeg

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Private functions (alphabetical)

// localInput names filePath through FFmpeg's file protocol, so the path can
// be neither read as an option nor routed to a network protocol.
func localInput(filePath string) string {
	return "file:" + filePath
}

// tail returns at most the last n bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Public functions (alphabetical)

// NewProber creates a new Prober instance
func NewProber(ffmpegInfo *FFmpegInfo) (*Prober, error) {
	if ffmpegInfo == nil || !ffmpegInfo.Installed {
		return nil, FormatError("FFmpeg is not installed")
	}

	return &Prober{
		FFprobePath: GetExecutablePaths(ffmpegInfo.Path).FFprobe,
	}, nil
}

// ParseDuration parses the duration FFprobe prints with
// `-show_entries format=duration -of default=noprint_wrappers=1:nokey=1`.
// Missing, unparsable and non-positive durations are errors.
func ParseDuration(output string) (float64, error) {
	value := strings.TrimSpace(output)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}

	if value == "" || value == "N/A" {
		return 0, FormatError("duration not reported")
	}

	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, FormatError("parse duration %q: %w", value, err)
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, FormatError("invalid duration %q", value)
	}
	return duration, nil
}

// Public methods (alphabetical)

// Duration runs FFprobe on the given file and returns its duration in seconds.
func (p *Prober) Duration(ctx context.Context, filePath string) (float64, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, GetDefaultTimeout())
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		localInput(filePath),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := tail(stderr.String(), stderrTailSize); msg != "" {
			return 0, FormatError("error running ffprobe: %w: %s", err, msg)
		}
		return 0, FormatError("error running ffprobe: %w", err)
	}

	return ParseDuration(stdout.String())
}
