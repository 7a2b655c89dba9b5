package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	m4amp3 "github.com/Adam-226/m4a-mp3"
	"github.com/Adam-226/m4a-mp3/internal/config"
	"github.com/Adam-226/m4a-mp3/pkg/logger"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	formatFlag    string
	outputFlag    string
	qualityFlag   string
	recursiveFlag bool
	jobsFlag      int
	timeoutFlag   time.Duration
	ffmpegFlag    string
	configFlag    string
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "m4a-mp3 [flags] input_dir",
	Short: "Batch-convert .m4a audio files to mp3 or wav",
	Long: `m4a-mp3 - batch audio converter

Discovers .m4a files under input_dir and converts each one with ffmpeg.
Outputs land next to their inputs unless --output is given, in which case
the input subdirectory structure is mirrored beneath it. Existing outputs
are overwritten.

The batch always runs to completion: a file that fails to convert is
reported in the summary and the remaining files still get converted.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the CLI. Exit status is 0 when the batch completed, even
// with per-file failures; nonzero for invalid arguments or a fatal fault.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "mp3", "output format: mp3 or wav")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output directory (default: alongside inputs)")
	rootCmd.Flags().StringVarP(&qualityFlag, "quality", "q", "high", "mp3 quality: high (320k), medium (192k) or low (128k)")
	rootCmd.Flags().BoolVarP(&recursiveFlag, "recursive", "r", false, "search subdirectories")
	rootCmd.Flags().IntVar(&jobsFlag, "jobs", 0, "concurrent conversions (default from config, 1)")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "per-file conversion timeout (default from config, 30m)")
	rootCmd.Flags().StringVar(&ffmpegFlag, "ffmpeg", "", "path to the ffmpeg binary (default: from PATH)")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "TOML config file")
	rootCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("m4a-mp3 {{.Version}}\n")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ffmpeg") {
		cfg.FFmpeg.Path = ffmpegFlag
	}
	if cmd.Flags().Changed("timeout") {
		cfg.FFmpeg.Timeout = timeoutFlag
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Batch.Workers = jobsFlag
	}
	if verboseFlag {
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Coerce format/quality once at the boundary; the rest of the pipeline
	// only sees the closed enums.
	format, err := m4amp3.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	quality, err := m4amp3.ParseQuality(qualityFlag)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	converter, err := m4amp3.New(m4amp3.Config{
		FFmpegPath:      cfg.FFmpeg.Path,
		Timeout:         cfg.FFmpeg.Timeout,
		SourceExtension: cfg.Batch.SourceExtension,
		Logger:          log,
		ProgressWriter:  os.Stdout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := converter.Run(ctx, m4amp3.BatchOptions{
		InputDir:  args[0],
		Format:    format,
		Quality:   quality,
		OutputDir: outputFlag,
		Recursive: recursiveFlag,
		Workers:   cfg.Batch.Workers,
	})

	// A fatal fault still gets the partial summary printed so the user can
	// see how far the batch got.
	printSummary(os.Stdout, summary, isatty.IsTerminal(os.Stdout.Fd()))

	return runErr
}
