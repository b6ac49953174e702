// Package ffmpeg provides functionality for detecting and working with FFmpeg.
// It includes capabilities for detecting FFmpeg installation, version, and support
// for the cropdetect filter.
package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Private variables (alphabetical)

// cropDetectFilterRegex matches the cropdetect entry of `ffmpeg -filters`.
var cropDetectFilterRegex = regexp.MustCompile(`(?m)^\s*\S*\s+cropdetect\s+V->V`)

// ffmpegVersionRegex is used to detect FFmpeg version from version string.
// It extracts the numeric version (e.g., 4.4.1) from FFmpeg's version output.
var ffmpegVersionRegex = regexp.MustCompile(`(?i)(?:version|ffmpeg)\s+(?:n|\w)?(\d+\.\d+(?:\.\d+(?:\.\d+)?)?)`)

// Private functions (alphabetical)

// checkCropDetectSupport asks FFmpeg for its filter list and looks for cropdetect.
// Builds configured with --disable-filters can lack it.
func checkCropDetectSupport(ffmpegPath string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), GetDefaultTimeout())
	defer cancel()

	output, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-filters").Output()
	if err != nil {
		return false
	}
	return hasCropDetectFilter(string(output))
}

// checkFFmpegExistence confirms if FFmpeg is installed on the system by searching for the executable.
// It first looks for the ffmpeg executable in the user's PATH environment variable.
// If not found there, it checks common installation directories based on the operating system.
func checkFFmpegExistence() (string, bool) {
	pathCmd, err := exec.LookPath("ffmpeg")
	if err == nil {
		return pathCmd, true
	}

	for _, path := range getCommonInstallPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}

// extractVersion extracts the version number from FFmpeg version output,
// falling back to "unknown" when none can be found.
func extractVersion(versionOutput string) string {
	version := extractVersionInfo(versionOutput)
	if version == "" {
		version = "unknown"
	}
	return version
}

// extractVersionInfo parses FFmpeg's version output. The first line is tried
// first, then the looser regular expression.
func extractVersionInfo(versionOutput string) string {
	lines := strings.Split(versionOutput, "\n")
	if len(lines) == 0 {
		return ""
	}

	if version := parseVersionFromFirstLine(lines[0]); version != "" {
		return version
	}

	matches := ffmpegVersionRegex.FindStringSubmatch(versionOutput)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// getCommonInstallPaths returns a list of common FFmpeg installation paths for the current OS.
func getCommonInstallPaths() []string {
	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	var searchPaths []string
	switch runtime.GOOS {
	case "windows":
		searchPaths = []string{
			filepath.Join("C:", "Program Files", "FFmpeg", "bin", execName),
			filepath.Join("C:", "Program Files (x86)", "FFmpeg", "bin", execName),
			filepath.Join("C:", "FFmpeg", "bin", execName),
		}
		if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
			searchPaths = append(searchPaths, filepath.Join(programFiles, "FFmpeg", "bin", execName))
		}
	case "darwin":
		searchPaths = []string{
			filepath.Join("/usr", "local", "bin", execName),
			filepath.Join("/opt", "local", "bin", execName),
			filepath.Join("/opt", "homebrew", "bin", execName),
		}
	default:
		searchPaths = []string{
			filepath.Join("/usr", "bin", execName),
			filepath.Join("/usr", "local", "bin", execName),
			filepath.Join("/opt", "ffmpeg", "bin", execName),
		}
	}
	return searchPaths
}

// getFFmpegVersion runs `ffmpeg -version` and returns the parsed version.
func getFFmpegVersion(ffmpegPath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), GetDefaultTimeout())
	defer cancel()

	output, err := exec.CommandContext(ctx, ffmpegPath, "-version").Output()
	if err != nil {
		return "", FormatError("error getting FFmpeg version: %w", err)
	}
	return extractVersion(string(output)), nil
}

// hasCropDetectFilter reports whether a `ffmpeg -filters` listing contains cropdetect.
func hasCropDetectFilter(filtersOutput string) bool {
	return cropDetectFilterRegex.MatchString(filtersOutput)
}

// parseVersionFromFirstLine parses the version string from the first line of FFmpeg output.
func parseVersionFromFirstLine(firstLine string) string {
	versionParts := strings.Split(firstLine, " version ")
	if len(versionParts) < 2 {
		return ""
	}

	remainingParts := strings.Split(versionParts[1], " ")
	versionStr := remainingParts[0]

	// Git builds are reported as n6.1.1 or 6.1.1-dev-1234
	versionStr = strings.TrimPrefix(versionStr, "n")
	if idx := strings.Index(versionStr, "-dev"); idx > 0 {
		versionStr = versionStr[:idx]
	}

	return versionStr
}

// Public functions (alphabetical)

// DetectFFmpeg locates and identifies FFmpeg installation on the system.
// If FFmpeg cannot be found, the returned info has Installed set to false
// and the error is nil.
func DetectFFmpeg() (*FFmpegInfo, error) {
	ffmpegPath, found := checkFFmpegExistence()
	if !found {
		return &FFmpegInfo{
			Installed: false,
			Version:   "unknown",
		}, nil
	}
	return NewFFmpegInfo(ffmpegPath)
}

// FindFFmpeg returns FFmpeg information for an explicit path, or detects
// the installation when path is empty.
func FindFFmpeg(path string) (*FFmpegInfo, error) {
	if path == "" {
		return DetectFFmpeg()
	}
	return NewFFmpegInfo(path)
}

// GetExecutablePaths gets the paths to both FFmpeg and FFprobe.
// It assumes FFprobe is located in the same directory as FFmpeg.
func GetExecutablePaths(ffmpegPath string) *ExecutablePaths {
	ffprobeName := "ffprobe"
	if runtime.GOOS == "windows" {
		ffprobeName += ".exe"
	}

	// A bare executable name is resolved through PATH, so keep it bare
	ffprobePath := ffprobeName
	if dir := filepath.Dir(ffmpegPath); dir != "." || strings.ContainsRune(ffmpegPath, filepath.Separator) {
		ffprobePath = filepath.Join(dir, ffprobeName)
	}

	return &ExecutablePaths{
		FFmpeg:  ffmpegPath,
		FFprobe: ffprobePath,
	}
}

// NewFFmpegInfo inspects the FFmpeg executable at ffmpegPath.
func NewFFmpegInfo(ffmpegPath string) (*FFmpegInfo, error) {
	version, err := getFFmpegVersion(ffmpegPath)
	if err != nil {
		return &FFmpegInfo{
			Installed: false,
			Path:      ffmpegPath,
			Version:   "unknown",
		}, err
	}

	return &FFmpegInfo{
		Installed:            true,
		Path:                 ffmpegPath,
		Version:              version,
		HasCropDetectSupport: checkCropDetectSupport(ffmpegPath),
	}, nil
}
