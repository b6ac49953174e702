// Package main provides the entry point for the crophound application.
// It samples video files at evenly spaced offsets, runs FFmpeg's cropdetect
// on every sample and reports the crop most samples agree on.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/gertd/go-pluralize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/torre76/crophound/crop"
	"github.com/torre76/crophound/ffmpeg"
	"github.com/torre76/crophound/internal/config"
	"github.com/torre76/crophound/internal/logger"
	"github.com/torre76/crophound/internal/metrics"
	"github.com/torre76/crophound/internal/server"
)

// Private types (alphabetical)

// fileResult is the outcome of detecting the crop of one file.
type fileResult struct {
	File     string         `json:"file"`
	Decision *crop.Decision `json:"decision,omitempty"`
	Crop     string         `json:"crop,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Public variables (alphabetical)

// BuildDate contains the date when the binary was built.
// This value is set during build using ldflags.
var BuildDate = "unknown"

// Commit contains the git commit hash that the binary was built from.
// This value is set during build using ldflags.
var Commit = "unknown"

// Version contains the current version of the application.
// This value can be overridden during build using ldflags:
// go build -ldflags="-X 'main.Version=v1.0.0'"
var Version = "Development Version"

// Private functions (alphabetical)

// buildDetector locates FFmpeg and wires the prober and analyzer into a detector.
func buildDetector(cfg *config.Config, log *zap.Logger, opts ...crop.Option) (*crop.Detector, *ffmpeg.FFmpegInfo, error) {
	ffmpegInfo, err := ffmpeg.FindFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error finding FFmpeg: %w", err)
	}
	if !ffmpegInfo.Installed {
		return nil, nil, fmt.Errorf("FFmpeg not found; install it or set --ffmpeg")
	}

	prober, err := ffmpeg.NewProber(ffmpegInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating prober: %w", err)
	}
	analyzer, err := ffmpeg.NewCropAnalyzer(ffmpegInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating crop analyzer: %w", err)
	}

	opts = append([]crop.Option{
		crop.WithLogger(log),
		crop.WithWorkers(cfg.Workers),
		crop.WithSampleTimeout(cfg.SampleTimeout),
	}, opts...)

	return crop.NewDetector(prober, analyzer, opts...), ffmpegInfo, nil
}

// formatDuration formats seconds into a human-readable duration string
// such as "10.5 seconds" or "1 hour, 2 minutes and 13 seconds"
func formatDuration(seconds float64) string {
	if seconds < 60 {
		if seconds == float64(int(seconds)) {
			return fmt.Sprintf("%d seconds", int(seconds))
		}
		return fmt.Sprintf("%.3f seconds", seconds)
	}

	duration := time.Duration(seconds * float64(time.Second))
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	secs := int(duration.Seconds()) % 60

	pluralizeClient := pluralize.NewClient()
	var parts []string
	if hours > 0 {
		parts = append(parts, pluralizeClient.Pluralize("hour", hours, true))
	}
	if minutes > 0 {
		parts = append(parts, pluralizeClient.Pluralize("minute", minutes, true))
	}
	if secs > 0 || (hours == 0 && minutes == 0) {
		parts = append(parts, pluralizeClient.Pluralize("second", secs, true))
	}

	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return parts[0] + ", " + parts[1] + " and " + parts[2]
	}
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.SampleTimeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("error-log") {
		cfg.ErrorLog = c.String("error-log")
	}
	if c.IsSet("listen") {
		cfg.ListenAddr = c.String("listen")
	}
	if c.IsSet("media-root") {
		cfg.MediaRoot = c.String("media-root")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFileResult builds the report entry for one file.
func newFileResult(file string, decision *crop.Decision, err error) fileResult {
	result := fileResult{File: file}
	if err != nil {
		result.Kind = metrics.Outcome(err)
		result.Error = err.Error()
		return result
	}
	result.Decision = decision
	result.Crop = decision.Filter()
	return result
}

// newProgressBar creates the per-file sample progress bar.
func newProgressBar(w io.Writer, file string, samples int) *progressbar.ProgressBar {
	return progressbar.NewOptions(samples,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("🔍 "+filepath.Base(file)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
	)
}

// printFFmpegInfo prints which FFmpeg installation is used.
func printFFmpegInfo(info *ffmpeg.FFmpegInfo) {
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)
	warningStyle := color.New(color.FgYellow)

	regularStyle.Printf("🔧 Using FFmpeg at ")
	valueStyle.Printf("%s\n", info.Path)
	regularStyle.Printf("🔖 FFmpeg version: ")
	valueStyle.Printf("%s\n", info.Version)
	if !info.HasCropDetectSupport {
		warningStyle.Printf("⚠️ cropdetect filter not listed by this build, samples will likely fail\n")
	}
	fmt.Println()
}

// versionPrinter prints the version banner.
func versionPrinter(c *cli.Context) {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)

	summaryStyle.Printf("🐾 CropHound %s\n", Version)
	regularStyle.Printf("  🛠️ Build date: ")
	valueStyle.Printf("%s\n", BuildDate)
	regularStyle.Printf("  🔍 Commit: ")
	valueStyle.Printf("%s\n", Commit)
}

// writeJSONResults writes one JSON object per line.
func writeJSONResults(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("error encoding result: %w", err)
		}
	}
	return nil
}

// writeSummary writes the crop table for every file.
func writeSummary(w io.Writer, results []fileResult) error {
	pluralizeClient := pluralize.NewClient()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "FILE\tDURATION\tSAMPLES\tCROP\tVOTES")
	failures := 0
	for _, result := range results {
		name := filepath.Base(result.File)
		if result.Decision == nil {
			failures++
			fmt.Fprintf(tw, "%s\t-\t-\tnot detected (%s)\t-\n", name, result.Kind)
			continue
		}
		d := result.Decision
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%d\n",
			name, formatDuration(d.Duration), d.Candidates, d.Samples, d.String(), d.Votes)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}

	fmt.Fprintf(w, "\n%s analyzed, %s failed\n",
		pluralizeClient.Pluralize("file", len(results), true),
		pluralizeClient.Pluralize("file", failures, true))
	return nil
}

// Public functions (alphabetical)

// detectCommand implements the default command which detects the crop of
// every file given on the command line.
func detectCommand(c *cli.Context) error {
	regularStyle := color.New(color.Reset)
	successStyle := color.New(color.FgGreen)
	errorStyle := color.New(color.FgRed)
	summaryStyle := color.New(color.FgCyan, color.Bold)

	if c.NArg() < 1 {
		errorStyle.Printf("❌ Error: missing required argument: VIDEO_FILE\n\n")
		regularStyle.Printf("Usage: %s [options] VIDEO_FILE...\n", c.App.Name)
		regularStyle.Printf("Run '%s --help' for more information.\n", c.App.Name)
		return fmt.Errorf("missing required argument: VIDEO_FILE")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.ErrorLog)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer log.Sync()

	jsonOutput := c.Bool("json")

	var bar *progressbar.ProgressBar
	hooks := []crop.Option{}
	if !jsonOutput {
		hooks = append(hooks,
			crop.WithPlanHook(func(path string, schedule crop.Schedule) {
				bar = newProgressBar(os.Stderr, path, len(schedule))
			}),
			crop.WithSampleHook(func(crop.SampleResult) {
				if bar != nil {
					bar.Add(1)
				}
			}),
		)
	}

	detector, ffmpegInfo, err := buildDetector(cfg, log, hooks...)
	if err != nil {
		return err
	}
	if !jsonOutput {
		printFFmpegInfo(ffmpegInfo)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]fileResult, 0, c.NArg())
	failed := 0
	for _, filePath := range c.Args().Slice() {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("error resolving path: %w", err)
		}

		var decision *crop.Decision
		if _, statErr := os.Stat(absPath); statErr != nil {
			err = &crop.ProbeError{Path: absPath, Err: statErr}
		} else {
			bar = nil
			decision, err = detector.Detect(ctx, absPath)
			if bar != nil {
				bar.Finish()
			}
		}

		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			failed++
			if !jsonOutput {
				errorStyle.Printf("❌ %s: %v\n", filepath.Base(absPath), err)
			}
		}
		results = append(results, newFileResult(absPath, decision, err))
	}

	if jsonOutput {
		if err := writeJSONResults(os.Stdout, results); err != nil {
			return err
		}
	} else {
		summaryStyle.Println("\n✂️ CROP SUMMARY")
		regularStyle.Println("----------------")
		if err := writeSummary(os.Stdout, results); err != nil {
			return err
		}
		if failed == 0 {
			successStyle.Printf("\n✅ Crop detected for every file\n")
		}
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// serveCommand runs the HTTP surface until interrupted.
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.ErrorLog)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer log.Sync()

	detector, ffmpegInfo, err := buildDetector(cfg, log, crop.WithSampleHook(metrics.ObserveSample))
	if err != nil {
		return err
	}
	log.Info("using ffmpeg",
		zap.String("path", ffmpegInfo.Path),
		zap.String("version", ffmpegInfo.Version),
		zap.Bool("cropdetect", ffmpegInfo.HasCropDetectSupport),
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(&server.App{Detector: detector, Logger: log, MediaRoot: cfg.MediaRoot})
	return server.Run(ctx, cfg.ListenAddr, router, log)
}

// newApp builds the command line application.
func newApp() *cli.App {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "ffmpeg",
			Usage: "Path to the FFmpeg executable (FFprobe is expected next to it)",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of samples analyzed concurrently",
			Value:   ffmpeg.MaxConcurrentOperations,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Timeout for a single sample analysis",
			Value:   ffmpeg.GetDefaultTimeout(),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "error-log",
			Usage: "File where failed samples are appended",
		},
	}

	return &cli.App{
		Name:  "crophound",
		Usage: "Detect the crop rectangle of video files",
		Description: "CropHound samples a video at evenly spaced offsets, runs FFmpeg's cropdetect " +
			"on a single frame at every offset and reports the crop most samples agree on.",
		Authors: []*cli.Author{
			{
				Name: "Gian Luca Dalla Torre",
			},
		},
		Version:   Version,
		Action:    detectCommand,
		ArgsUsage: "VIDEO_FILE...",
		Flags: append(commonFlags,
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print one JSON object per file instead of a table",
			},
		),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve crop detection over HTTP",
				Action: serveCommand,
				Flags: append(commonFlags,
					&cli.StringFlag{
						Name:    "listen",
						Aliases: []string{"l"},
						Usage:   "Address the HTTP server listens on",
					},
					&cli.StringFlag{
						Name:  "media-root",
						Usage: "Only analyze files below this directory",
					},
				),
			},
		},
	}
}

// main is the entry point of the application.
func main() {
	cli.VersionPrinter = versionPrinter

	if err := newApp().Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		errorStyle := color.New(color.FgRed)
		errorStyle.Fprintf(os.Stderr, "⚠️ Error: %v\n", err)
		os.Exit(1)
	}
}
