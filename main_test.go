package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/urfave/cli/v2"

	"github.com/torre76/crophound/crop"
	"github.com/torre76/crophound/internal/config"
)

// MainTestSuite defines a test suite for the main package functionality.
type MainTestSuite struct {
	suite.Suite
	results []fileResult
}

// SetupSuite disables colored output for the whole suite.
func (s *MainTestSuite) SetupSuite() {
	originalNoColor := color.NoColor
	color.NoColor = true
	s.T().Cleanup(func() {
		color.NoColor = originalNoColor
	})
}

// SetupTest prepares one successful and one failed file result.
func (s *MainTestSuite) SetupTest() {
	s.results = []fileResult{
		newFileResult("/media/movie.mkv", &crop.Decision{
			Width: 1920, Height: 800, Votes: 10, Candidates: 11, Samples: 12, Duration: 5400,
		}, nil),
		newFileResult("/media/broken.mkv", nil, &crop.NoConsensusError{Path: "/media/broken.mkv", Attempted: 12}),
	}
}

// TestFormatDuration tests the formatDuration function with various inputs.
func (s *MainTestSuite) TestFormatDuration() {
	testCases := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0, expected: "0 seconds"},
		{name: "whole seconds", input: 42, expected: "42 seconds"},
		{name: "fractional seconds", input: 10.5, expected: "10.500 seconds"},
		{name: "one minute", input: 60, expected: "1 minute"},
		{name: "minutes and seconds", input: 61, expected: "1 minute and 1 second"},
		{name: "one and a half hours", input: 5400, expected: "1 hour and 30 minutes"},
		{name: "everything", input: 3733, expected: "1 hour, 2 minutes and 13 seconds"},
		{name: "two hours", input: 7200, expected: "2 hours"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			assert.Equal(s.T(), tc.expected, formatDuration(tc.input))
		})
	}
}

// TestNewFileResult checks success and failure entries.
func (s *MainTestSuite) TestNewFileResult() {
	ok := s.results[0]
	assert.Equal(s.T(), "crop=1920:800", ok.Crop)
	assert.Empty(s.T(), ok.Error)

	failed := s.results[1]
	assert.Nil(s.T(), failed.Decision)
	assert.Equal(s.T(), "no_consensus", failed.Kind)
	assert.Contains(s.T(), failed.Error, "after 12 samples")
}

// TestWriteSummary checks the table rendering.
func (s *MainTestSuite) TestWriteSummary() {
	var buf bytes.Buffer
	require.NoError(s.T(), writeSummary(&buf, s.results))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.True(s.T(), strings.HasPrefix(lines[0], "FILE"))
	assert.Contains(s.T(), lines[1], "movie.mkv")
	assert.Contains(s.T(), lines[1], "1 hour and 30 minutes")
	assert.Contains(s.T(), lines[1], "11/12")
	assert.Contains(s.T(), lines[1], "1920:800")
	assert.Contains(s.T(), lines[2], "broken.mkv")
	assert.Contains(s.T(), lines[2], "not detected (no_consensus)")
	assert.Contains(s.T(), out, "2 files analyzed, 1 file failed")
}

// TestWriteJSONResults checks that each file gets its own JSON line.
func (s *MainTestSuite) TestWriteJSONResults() {
	var buf bytes.Buffer
	require.NoError(s.T(), writeJSONResults(&buf, s.results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(s.T(), lines, 2)

	var first map[string]interface{}
	require.NoError(s.T(), json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(s.T(), "crop=1920:800", first["crop"])
	decision := first["decision"].(map[string]interface{})
	assert.Equal(s.T(), float64(1920), decision["width"])
	assert.Equal(s.T(), float64(10), decision["votes"])

	var second map[string]interface{}
	require.NoError(s.T(), json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(s.T(), "no_consensus", second["kind"])
	assert.NotContains(s.T(), second, "decision")
}

// runWithFlags runs the application's flag set and captures the loaded config.
func (s *MainTestSuite) runWithFlags(args ...string) (*config.Config, error) {
	var (
		cfg     *config.Config
		loadErr error
	)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, loadErr = loadConfig(c)
		return nil
	}
	require.NoError(s.T(), app.Run(append([]string{"crophound"}, args...)))
	return cfg, loadErr
}

// TestLoadConfigFlagsOverrideEnvironment checks flag precedence.
func (s *MainTestSuite) TestLoadConfigFlagsOverrideEnvironment() {
	s.T().Setenv("CROPHOUND_WORKERS", "2")
	s.T().Setenv("CROPHOUND_SAMPLE_TIMEOUT", "5s")

	cfg, err := s.runWithFlags()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, cfg.Workers)
	assert.Equal(s.T(), 5*time.Second, cfg.SampleTimeout)

	cfg, err = s.runWithFlags("--workers", "6", "--timeout", "1m", "--error-log", "/tmp/crop.log")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 6, cfg.Workers)
	assert.Equal(s.T(), time.Minute, cfg.SampleTimeout)
	assert.Equal(s.T(), "/tmp/crop.log", cfg.ErrorLog)
}

// TestLoadConfigRejectsBadWorkers checks that flag values are validated.
func (s *MainTestSuite) TestLoadConfigRejectsBadWorkers() {
	_, err := s.runWithFlags("--workers", "0")
	assert.Error(s.T(), err)
}

// TestDetectCommandRequiresFile checks the missing argument error.
func (s *MainTestSuite) TestDetectCommandRequiresFile() {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"crophound"})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "missing required argument")
}

// TestMainSuite runs the main test suite.
func TestMainSuite(t *testing.T) {
	suite.Run(t, new(MainTestSuite))
}
