// Package ffmpeg provides functionality for detecting and working with FFmpeg.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/torre76/crophound/crop"
)

var (
	_ crop.DurationProber = (*Prober)(nil)
	_ crop.FrameAnalyzer  = (*CropAnalyzer)(nil)
)

// Private variables (alphabetical)

// cropLineRegex matches the crop=W:H:X:Y token cropdetect prints on stderr.
// Offsets may be negative when the detected area is empty.
var cropLineRegex = regexp.MustCompile(`crop=(\d+):(\d+):(-?\d+):(-?\d+)`)

// Private functions (alphabetical)

// formatOffset renders a sample offset for the -ss option.
func formatOffset(offset float64) string {
	return strconv.FormatFloat(offset, 'f', 3, 64)
}

// Public functions (alphabetical)

// NewCropAnalyzer creates a CropAnalyzer for the given FFmpeg installation.
func NewCropAnalyzer(ffmpegInfo *FFmpegInfo) (*CropAnalyzer, error) {
	if ffmpegInfo == nil || !ffmpegInfo.Installed {
		return nil, FormatError("FFmpeg is not installed")
	}
	return &CropAnalyzer{FFmpegPath: ffmpegInfo.Path}, nil
}

// ParseCropLine scans cropdetect diagnostic text line by line and returns
// the width and height of the first crop=W:H:X:Y token. The X and Y offsets
// are discarded. It returns false when no line carries a usable crop, and an
// error when the text could not be scanned to the end.
func ParseCropLine(text string) (crop.Candidate, bool, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		matches := cropLineRegex.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		width, errW := strconv.Atoi(matches[1])
		height, errH := strconv.Atoi(matches[2])
		if errW != nil || errH != nil {
			return crop.Candidate{}, false, nil
		}

		candidate := crop.Candidate{Width: width, Height: height}
		return candidate, candidate.Valid(), nil
	}
	if err := scanner.Err(); err != nil {
		return crop.Candidate{}, false, FormatError("scan cropdetect output: %w", err)
	}

	return crop.Candidate{}, false, nil
}

// Public methods (alphabetical)

// Args returns the FFmpeg arguments used to analyze the frame at offset.
func (a *CropAnalyzer) Args(filePath string, offset float64) []string {
	return []string{
		"-hide_banner",
		"-nostats",
		"-ss", formatOffset(offset),
		"-i", localInput(filePath),
		"-frames:v", "1",
		"-vf", CropDetectFilter(),
		"-an", "-sn", "-dn",
		"-f", "null",
		"-",
	}
}

// Analyze decodes the frame at offset seconds, runs cropdetect on it and
// returns the detected size. ok is false when FFmpeg succeeded but reported
// no crop line.
func (a *CropAnalyzer) Analyze(ctx context.Context, filePath string, offset float64) (crop.Candidate, bool, error) {
	cmd := exec.CommandContext(ctx, a.FFmpegPath, a.Args(filePath, offset)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return crop.Candidate{}, false, ctx.Err()
		}
		if msg := tail(stderr.String(), stderrTailSize); msg != "" {
			return crop.Candidate{}, false, FormatError("cropdetect failed: %w: %s", err, msg)
		}
		return crop.Candidate{}, false, FormatError("cropdetect failed: %w", err)
	}

	return ParseCropLine(stderr.String())
}
