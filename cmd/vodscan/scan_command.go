package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/milam/VodParser/internal/analysis"
	"github.com/milam/VodParser/internal/artifacts"
	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/config"
	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/pipeline"
	"github.com/milam/VodParser/internal/preflight"
	"github.com/milam/VodParser/internal/store"
	"github.com/milam/VodParser/internal/templates"
	"github.com/milam/VodParser/internal/vod"
)

type scanFlags struct {
	out          string
	start        string
	end          string
	threads      int
	cleanOutput  bool
	deleteChunks bool
	quiet        bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan <playlist>",
		Short: "Scan a chunked recording for match rosters",
		Long: "Scan walks the chunks of a local HLS playlist, detects the team rosters\n" +
			"shown between matches and writes one picks block and frame image per match.\n" +
			"An interrupted scan resumes from status.json in the output directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("clean-output") {
				flags.cleanOutput = cfg.Scan.CleanOutput
			}
			if !cmd.Flags().Changed("delete-chunks") {
				flags.deleteChunks = cfg.Scan.DeleteChunks
			}
			if flags.threads <= 0 {
				flags.threads = cfg.Scan.MaxThreads
			}

			return runScan(cmd.Context(), cfg, logger, args[0], flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output directory (default <output_dir>/<playlist name>)")
	cmd.Flags().StringVar(&flags.start, "start", "", "Start time as HH:MM:SS, MM:SS or seconds")
	cmd.Flags().StringVar(&flags.end, "end", "", "End time as HH:MM:SS, MM:SS or seconds (default end of recording)")
	cmd.Flags().IntVarP(&flags.threads, "threads", "t", 0, "Worker threads (default scan.max_threads)")
	cmd.Flags().BoolVar(&flags.cleanOutput, "clean-output", true, "Drop segments shorter than 16 frames")
	cmd.Flags().BoolVar(&flags.deleteChunks, "delete-chunks", false, "Delete chunk files once scanned")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, playlistPath string, flags scanFlags, out io.Writer) error {
	outDir := strings.TrimSpace(flags.out)
	if outDir == "" {
		outDir = defaultOutputDir(cfg, playlistPath)
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, fmt.Sprintf("%s (%s)", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
	}

	runCfg, resumed, err := resolveRunConfig(outDir, playlistPath, flags)
	if err != nil {
		return err
	}

	pl, err := vod.OpenPlaylist(runCfg.Source)
	if err != nil {
		return err
	}
	if pl.Size() == 0 {
		return fmt.Errorf("playlist %s has no chunks", runCfg.Source)
	}
	if resumed {
		logger.Info("resuming scan with stored run config",
			logging.String("playlist", runCfg.Source),
			logging.String("output_dir", outDir),
		)
	}
	if runCfg.EndTime <= 0 {
		runCfg.EndTime = pl.DurationAt(pl.Size())
	}
	if runCfg.StartTime >= runCfg.EndTime {
		return fmt.Errorf("start %s is not before end %s",
			artifacts.FormatClock(runCfg.StartTime, ":"), artifacts.FormatClock(runCfg.EndTime, ":"))
	}

	stream, err := vod.Probe(ctx, cfg.FFprobeBinary(), pl)
	if err != nil {
		return err
	}
	size := stream.Size
	cat, err := templates.Load(cfg.Paths.TemplatesDir, logger)
	if err != nil {
		return err
	}
	analyzer, err := analysis.New(size, cat)
	if err != nil {
		return err
	}
	source := vod.NewSource(pl, size, vod.FFmpegDecoder{
		Binary:  cfg.FFmpegBinary(),
		Timeout: cfg.DecodeTimeout(),
	}, logger)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	st, err := store.Open(store.PathIn(outDir))
	if err != nil {
		return err
	}
	defer st.Close()

	writer, err := artifacts.NewWriter(artifacts.Options{
		Dir:         outDir,
		Source:      runCfg.Source,
		RunID:       runID,
		CleanOutput: runCfg.CleanOutput,
		Store:       st,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	reporter := newProgressReporter(out, runCfg.EndTime-runCfg.StartTime, flags.quiet, logger)
	ctrl, err := pipeline.New(pipeline.Options{
		Source:             source,
		Analyzer:           analyzer,
		Sink:               writer,
		Reporter:           reporter,
		Dir:                outDir,
		Config:             runCfg,
		QueueDepth:         cfg.Scan.QueueDepth,
		CheckpointInterval: cfg.Scan.CheckpointInterval,
		PollInterval:       cfg.PollInterval(),
		ReadyTimeout:       cfg.ReadyTimeout(),
		RunID:              runID,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	first, last := ctrl.Range()
	logger.Info("scan starting",
		logging.String("playlist", pl.Path),
		logging.String("output_dir", outDir),
		logging.Int("first_chunk", first),
		logging.Int("last_chunk", last),
		logging.Int("threads", ctrl.Config().MaxThreads),
		logging.Int("templates", analyzer.Templates()),
		logging.String("frame_size", fmt.Sprintf("%dx%d", size.X, size.Y)),
		logging.Float64("frame_rate", stream.FrameRate),
		logging.Bool("resumed", ctrl.Resumed()),
	)

	runErr := ctrl.Run(ctx)
	state := ctrl.State()

	segments := 0
	if list, err := st.ListSegments(context.WithoutCancel(ctx)); err == nil {
		segments = len(list)
	}
	p := newLinePrinter(out)
	lines := []string{
		p.value("Status", ctrl.Status().String()),
		p.value("Output", outDir),
		p.value("Chunks", fmt.Sprintf("%d of %d", clampProgress(state.Current, first, last)-first, last-first)),
		p.value("Segments", strconv.Itoa(segments)),
	}
	fmt.Fprintln(out)
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if runErr != nil {
		return runErr
	}
	if ctrl.Status() == pipeline.StatusStopped {
		fmt.Fprintln(out, "Scan stopped; run the same command again to resume.")
	}
	return nil
}

// resolveRunConfig prefers the run config stored in an existing checkpoint so
// that a resumed scan covers the same playlist and range.
func resolveRunConfig(outDir, playlistPath string, flags scanFlags) (checkpoint.RunConfig, bool, error) {
	rec, ok, err := checkpoint.Load(outDir)
	if err != nil {
		return checkpoint.RunConfig{}, false, err
	}
	if ok {
		cfg := rec.Config
		if cfg.Path == "" {
			cfg.Path = outDir
		}
		return cfg, true, nil
	}

	source, err := filepath.Abs(playlistPath)
	if err != nil {
		return checkpoint.RunConfig{}, false, fmt.Errorf("resolve playlist path: %w", err)
	}
	start, err := parseClock(flags.start)
	if err != nil {
		return checkpoint.RunConfig{}, false, fmt.Errorf("--start: %w", err)
	}
	end, err := parseClock(flags.end)
	if err != nil {
		return checkpoint.RunConfig{}, false, fmt.Errorf("--end: %w", err)
	}
	return checkpoint.RunConfig{
		Source:       source,
		StartTime:    start,
		EndTime:      end,
		CleanOutput:  flags.cleanOutput,
		DeleteChunks: flags.deleteChunks,
		MaxThreads:   flags.threads,
		Path:         outDir,
	}, false, nil
}

func defaultOutputDir(cfg *config.Config, playlistPath string) string {
	base := filepath.Base(playlistPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		name = "scan"
	}
	return filepath.Join(cfg.Paths.OutputDir, name)
}

// parseClock accepts HH:MM:SS, MM:SS or plain seconds. An empty value is 0.
func parseClock(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid time %q: field out of range", value)
		}
		total = total*60 + v
	}
	return total, nil
}

func clampProgress(current, first, last int) int {
	if current < first {
		return first
	}
	if current > last {
		return last
	}
	return current
}

// progressReporter drives a console progress bar in seconds of scanned
// recording and emits sampled progress log lines.
type progressReporter struct {
	bar     *progressbar.ProgressBar
	total   float64
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newProgressReporter(w io.Writer, total float64, quiet bool, logger *slog.Logger) *progressReporter {
	r := &progressReporter{
		total:   total,
		sampler: logging.NewProgressSampler(5),
		logger:  logging.NewComponentLogger(logger, "progress"),
	}
	if !quiet {
		r.bar = progressbar.NewOptions64(int64(total),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionSetWidth(30),
		)
	}
	return r
}

func (r *progressReporter) Report(status pipeline.Status, elapsed float64, _ image.Image) {
	switch status {
	case pipeline.StatusRunning:
		if r.bar != nil {
			_ = r.bar.Set64(int64(elapsed))
		}
		percent := -1.0
		if r.total > 0 {
			percent = elapsed / r.total * 100
		}
		if r.sampler.ShouldLog(percent, "scan") {
			r.logger.Info("scan progress",
				logging.String("position", artifacts.FormatClock(elapsed, ":")),
				logging.Float64("percent", percent),
			)
		}
	case pipeline.StatusFinished:
		if r.bar != nil {
			_ = r.bar.Finish()
		}
		r.logger.Info("scan finished", logging.String("position", artifacts.FormatClock(elapsed, ":")))
	case pipeline.StatusStopped:
		if r.bar != nil {
			_ = r.bar.Exit()
		}
		r.logger.Info("scan stopped", logging.String("position", artifacts.FormatClock(elapsed, ":")))
	}
}

var _ pipeline.Reporter = (*progressReporter)(nil)
