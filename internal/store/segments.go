package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/milam/VodParser/internal/checkpoint"
)

// Segment is one flushed match segment.
type Segment struct {
	ID         int64
	RunID      string
	Source     string
	Start      float64
	Duration   float64
	FrameCount int
	ImagePath  string
	CreatedAt  time.Time
	Frames     []checkpoint.Frame
}

const segmentColumns = "id, run_id, source, start_time, duration, frame_count, image_path, created_at"

// InsertSegment stores seg and its frames in one transaction and returns the
// assigned identifier. Start, Duration and FrameCount are derived from the
// frames when the segment carries any.
func (s *Store) InsertSegment(ctx context.Context, seg *Segment) (int64, error) {
	if seg == nil {
		return 0, errors.New("segment is nil")
	}
	if len(seg.Frames) > 0 {
		first := seg.Frames[0]
		last := seg.Frames[len(seg.Frames)-1]
		seg.Start = first.Start
		seg.Duration = last.Start + last.Duration - first.Start
		seg.FrameCount = len(seg.Frames)
	}
	seg.CreatedAt = time.Now().UTC()

	var id int64
	err := withBusyRetry(ctx, func() error {
		var txErr error
		id, txErr = s.insertSegmentTx(ctx, seg)
		return txErr
	})
	if err != nil {
		return 0, fmt.Errorf("insert segment: %w", err)
	}
	seg.ID = id
	return id, nil
}

func (s *Store) insertSegmentTx(ctx context.Context, seg *Segment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO segments (
            run_id, source, start_time, duration, frame_count, image_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(seg.RunID),
		seg.Source,
		seg.Start,
		seg.Duration,
		seg.FrameCount,
		nullableString(seg.ImagePath),
		seg.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO frames (segment_id, position, start_time, duration, blue_json, red_json)
         VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, frame := range seg.Frames {
		blue, err := json.Marshal(frame.Blue)
		if err != nil {
			return 0, fmt.Errorf("encode blue slots: %w", err)
		}
		red, err := json.Marshal(frame.Red)
		if err != nil {
			return 0, fmt.Errorf("encode red slots: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, frame.Start, frame.Duration, string(blue), string(red)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSegments returns every stored segment ordered by start time, without
// frames.
func (s *Store) ListSegments(ctx context.Context) ([]*Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+segmentColumns+` FROM segments ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetSegment fetches one segment with its frames. A missing segment yields
// nil without error.
func (s *Store) GetSegment(ctx context.Context, id int64) (*Segment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = ?`, id)
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	frames, err := s.frames(ctx, id)
	if err != nil {
		return nil, err
	}
	seg.Frames = frames
	return seg, nil
}

// Clear removes every stored segment.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var affected int64
	err := withBusyRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM segments`)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear segments: %w", err)
	}
	return affected, nil
}

func (s *Store) frames(ctx context.Context, segmentID int64) ([]checkpoint.Frame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time, duration, blue_json, red_json FROM frames WHERE segment_id = ? ORDER BY position`,
		segmentID)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []checkpoint.Frame
	for rows.Next() {
		var (
			frame     checkpoint.Frame
			blue, red string
		)
		if err := rows.Scan(&frame.Start, &frame.Duration, &blue, &red); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if err := json.Unmarshal([]byte(blue), &frame.Blue); err != nil {
			return nil, fmt.Errorf("decode blue slots: %w", err)
		}
		if err := json.Unmarshal([]byte(red), &frame.Red); err != nil {
			return nil, fmt.Errorf("decode red slots: %w", err)
		}
		frames = append(frames, frame)
	}
	return frames, rows.Err()
}

func scanSegment(scanner interface{ Scan(dest ...any) error }) (*Segment, error) {
	var (
		seg        Segment
		runID      sql.NullString
		imagePath  sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&seg.ID,
		&runID,
		&seg.Source,
		&seg.Start,
		&seg.Duration,
		&seg.FrameCount,
		&imagePath,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	seg.RunID = runID.String
	seg.ImagePath = imagePath.String
	if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		seg.CreatedAt = ts
	}
	return &seg, nil
}

func nullableString(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
