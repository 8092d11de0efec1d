package artifacts

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/fileutil"
	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/store"
)

const (
	// PicksFile collects every flushed segment as tab separated lines.
	PicksFile = "picks.txt"
	// MinSegmentFrames is the shortest segment kept under clean output.
	MinSegmentFrames = 16
)

// Options configures a Writer.
type Options struct {
	Dir         string
	Source      string
	RunID       string
	CleanOutput bool
	Store       *store.Store
	Logger      *slog.Logger
}

// Writer persists flushed segments. It is used from a single goroutine.
type Writer struct {
	dir         string
	source      string
	runID       string
	cleanOutput bool
	store       *store.Store
	logger      *slog.Logger
}

// NewWriter validates opts and returns a Writer.
func NewWriter(opts Options) (*Writer, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("artifacts: output directory is empty")
	}
	return &Writer{
		dir:         dir,
		source:      opts.Source,
		runID:       opts.RunID,
		cleanOutput: opts.CleanOutput,
		store:       opts.Store,
		logger:      logging.NewComponentLogger(opts.Logger, "artifacts"),
	}, nil
}

// Flush writes the segment's representative frame, its picks block and its
// store row. Empty segments and, under clean output, short ones are skipped.
func (w *Writer) Flush(ctx context.Context, segment []checkpoint.Frame, frame image.Image) error {
	if len(segment) == 0 {
		return nil
	}
	start := segment[0].Start
	if w.cleanOutput && len(segment) < MinSegmentFrames {
		w.logger.DebugContext(ctx, "dropping short segment",
			logging.Int("frames", len(segment)),
			logging.String("start", FormatClock(start, ":")),
		)
		return nil
	}

	imagePath := ""
	if frame != nil {
		imagePath = filepath.Join(w.dir, FormatClock(start, "-")+".png")
		err := fileutil.WriteAtomic(imagePath, 0o644, func(out io.Writer) error {
			return png.Encode(out, frame)
		})
		if err != nil {
			return fmt.Errorf("artifacts: write frame: %w", err)
		}
	}

	if err := fileutil.AppendFile(filepath.Join(w.dir, PicksFile), []byte(FormatPicks(segment)), 0o644); err != nil {
		return fmt.Errorf("artifacts: append picks: %w", err)
	}

	if w.store != nil {
		seg := &store.Segment{
			RunID:     w.runID,
			Source:    w.source,
			ImagePath: imagePath,
			Frames:    segment,
		}
		if _, err := w.store.InsertSegment(ctx, seg); err != nil {
			return fmt.Errorf("artifacts: %w", err)
		}
	}

	w.logger.InfoContext(ctx, "segment flushed",
		logging.String(logging.FieldEventType, "segment_flushed"),
		logging.String("start", FormatClock(start, ":")),
		logging.Int("frames", len(segment)),
		logging.String("image", imagePath),
	)
	return nil
}

// FormatPicks renders a segment as it is appended to picks.txt: a blank
// separator line followed by one line per frame.
func FormatPicks(segment []checkpoint.Frame) string {
	var b strings.Builder
	b.WriteByte('\n')
	for _, frame := range segment {
		b.WriteString(FormatClock(frame.Start, ":"))
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(frame.Duration, 'g', -1, 64))
		for _, name := range frame.Blue {
			b.WriteByte('\t')
			b.WriteString(name)
		}
		for _, name := range frame.Red {
			b.WriteByte('\t')
			b.WriteString(name)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatClock renders seconds as zero padded hours, minutes and seconds
// joined by sep. Fractions are truncated.
func FormatClock(seconds float64, sep string) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	return fmt.Sprintf("%02d%s%02d%s%02d", h, sep, m, sep, s)
}
