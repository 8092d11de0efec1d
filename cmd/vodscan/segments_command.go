package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milam/VodParser/internal/artifacts"
	"github.com/milam/VodParser/internal/store"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var (
		segmentID int64
		clearAll  bool
	)

	cmd := &cobra.Command{
		Use:   "segments [output-dir]",
		Short: "List match segments flushed into an output directory",
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
			dbPath := store.PathIn(dir)
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("no segment database in %s: %w", dir, err)
			}
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				removed, err := st.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d segment(s) from %s\n", removed, st.Path())
				return nil
			}
			if segmentID > 0 {
				seg, err := st.GetSegment(cmd.Context(), segmentID)
				if err != nil {
					return err
				}
				if seg == nil {
					return fmt.Errorf("segment %d not found", segmentID)
				}
				fmt.Fprintln(out, segmentFramesTable(seg))
				return nil
			}

			segments, err := st.ListSegments(cmd.Context())
			if err != nil {
				return err
			}
			if len(segments) == 0 {
				fmt.Fprintln(out, "No segments flushed yet")
				return nil
			}
			fmt.Fprintln(out, segmentsTable(segments))
			return nil
		},
	}
	cmd.Flags().Int64Var(&segmentID, "id", 0, "Show the frames of one segment")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every stored segment (images and picks.txt are kept)")
	cmd.MarkFlagsMutuallyExclusive("id", "clear")
	return cmd
}

func segmentsTable(segments []*store.Segment) string {
	rows := make([][]string, 0, len(segments))
	frames := 0
	for _, seg := range segments {
		frames += seg.FrameCount
		rows = append(rows, []string{
			strconv.FormatInt(seg.ID, 10),
			artifacts.FormatClock(seg.Start, ":"),
			artifacts.FormatClock(seg.Duration, ":"),
			strconv.Itoa(seg.FrameCount),
			imageName(seg.ImagePath),
		})
	}
	return tableView{
		Headers: []string{"ID", "Start", "Length", "Frames", "Image"},
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		Rows:    rows,
		Footer:  []string{"", "", "Total", strconv.Itoa(frames), fmt.Sprintf("%d segments", len(segments))},
	}.render()
}

func segmentFramesTable(seg *store.Segment) string {
	rows := make([][]string, 0, len(seg.Frames))
	for _, f := range seg.Frames {
		rows = append(rows, []string{
			artifacts.FormatClock(f.Start, ":"),
			strings.Join(f.Blue[:], " "),
			strings.Join(f.Red[:], " "),
		})
	}
	return tableView{
		Title:   fmt.Sprintf("Segment %d starting %s", seg.ID, artifacts.FormatClock(seg.Start, ":")),
		Headers: []string{"Time", "Blue", "Red"},
		Rows:    rows,
	}.render()
}

func imageName(path string) string {
	if path == "" {
		return "-"
	}
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
