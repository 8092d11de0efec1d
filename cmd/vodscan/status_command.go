package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/milam/VodParser/internal/artifacts"
	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/store"
	"github.com/milam/VodParser/internal/vod"
)

// statusView is everything the status command prints for one output
// directory.
type statusView struct {
	Dir        string
	Record     *checkpoint.Record
	Position   float64
	Total      float64
	HaveTiming bool
	Segments   int
	PicksBytes int64
	Now        time.Time
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [output-dir]",
		Short: "Show checkpoint progress for an output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.OutputDir
			if len(args) == 1 {
				dir = args[0]
			}
			view, err := loadStatusView(cmd.Context(), dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range statusLines(view, newLinePrinter(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func loadStatusView(ctx context.Context, dir string) (statusView, error) {
	rec, ok, err := checkpoint.Load(dir)
	if err != nil {
		return statusView{}, err
	}
	if !ok {
		return statusView{}, fmt.Errorf("no checkpoint in %s; start a scan with `vodscan scan`", dir)
	}
	view := statusView{Dir: dir, Record: rec, Now: time.Now()}

	if pl, err := vod.OpenPlaylist(rec.Config.Source); err == nil {
		view.HaveTiming = true
		view.Position = pl.DurationAt(rec.Current)
		view.Total = rec.Config.EndTime
		if view.Total <= 0 {
			view.Total = pl.DurationAt(pl.Size())
		}
	}

	if info, err := os.Stat(filepath.Join(dir, artifacts.PicksFile)); err == nil {
		view.PicksBytes = info.Size()
	}

	dbPath := store.PathIn(dir)
	if _, err := os.Stat(dbPath); err == nil {
		st, err := store.Open(dbPath)
		if err != nil {
			return statusView{}, err
		}
		defer st.Close()
		segments, err := st.ListSegments(ctx)
		if err != nil {
			return statusView{}, err
		}
		view.Segments = len(segments)
	} else if !errors.Is(err, os.ErrNotExist) {
		return statusView{}, err
	}
	return view, nil
}

func statusLines(view statusView, p linePrinter) []string {
	rec := view.Record
	lines := p.header("Scan")
	lines = append(lines, p.value("Output", view.Dir))
	lines = append(lines, p.value("Source", rec.Config.Source))
	if rec.RunID != "" {
		lines = append(lines, p.value("Run ID", rec.RunID))
	}

	kind, label := statusInfo, rec.State
	switch rec.State {
	case "finished":
		kind = statusOK
	case "stopped":
		kind, label = statusWarn, "stopped (resume with `vodscan scan`)"
	case "":
		label = "unknown"
	}
	lines = append(lines, p.status("State", kind, label))

	progress := fmt.Sprintf("chunk %s", humanize.Comma(int64(rec.Current)))
	if view.HaveTiming {
		start := rec.Config.StartTime
		done := max(0, view.Position-start)
		span := max(0, view.Total-start)
		progress = fmt.Sprintf("%s (%s / %s)", progress,
			artifacts.FormatClock(done, ":"), artifacts.FormatClock(span, ":"))
	}
	lines = append(lines, p.value("Progress", progress))

	if len(rec.Frames) > 0 {
		lines = append(lines, p.value("Open segment",
			fmt.Sprintf("%d frames since %s (gap %d)", len(rec.Frames), artifacts.FormatClock(rec.MatchStart, ":"), rec.Gap)))
	} else {
		lines = append(lines, p.value("Open segment", "none"))
	}

	lines = append(lines, p.value("Segments stored", humanize.Comma(int64(view.Segments))))
	lines = append(lines, p.value("Picks file", humanize.Bytes(uint64(view.PicksBytes))))
	if !rec.UpdatedAt.IsZero() {
		lines = append(lines, p.value("Updated", humanize.RelTime(rec.UpdatedAt, view.Now, "ago", "from now")))
	}
	lines = append(lines, p.value("Options", strings.Join([]string{
		"clean_output=" + yesNo(rec.Config.CleanOutput),
		"delete_chunks=" + yesNo(rec.Config.DeleteChunks),
		fmt.Sprintf("threads=%d", rec.Config.MaxThreads),
	}, " ")))
	return lines
}
