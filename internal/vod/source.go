package vod

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"

	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/media/ffprobe"
	"github.com/milam/VodParser/internal/services"
)

var (
	// ErrNotReady means the chunk file has not been written yet.
	ErrNotReady = fmt.Errorf("chunk not ready: %w", services.ErrUnavailable)
	// ErrDecode means the chunk exists but no frame could be extracted.
	ErrDecode = fmt.Errorf("chunk decode failed: %w", services.ErrExternalTool)
)

// Frame is a decoded chunk.
type Frame struct {
	Chunk
	Image image.Image
}

// Source serves decoded frames for the chunks of a playlist.
type Source struct {
	playlist *Playlist
	size     image.Point
	decoder  Decoder
	logger   *slog.Logger
}

// NewSource builds a chunk source decoding frames at size.
func NewSource(pl *Playlist, size image.Point, decoder Decoder, logger *slog.Logger) *Source {
	return &Source{
		playlist: pl,
		size:     size,
		decoder:  decoder,
		logger:   logging.NewComponentLogger(logger, "vod"),
	}
}

// Playlist returns the underlying playlist.
func (s *Source) Playlist() *Playlist { return s.playlist }

// FrameSize is the decoded frame size.
func (s *Source) FrameSize() image.Point { return s.size }

// Size returns the number of chunks.
func (s *Source) Size() int { return s.playlist.Size() }

// DurationAt returns the start time of chunk i or the total duration past the end.
func (s *Source) DurationAt(i int) float64 { return s.playlist.DurationAt(i) }

// Load decodes the first frame of chunk i. It returns ErrNotReady when the
// chunk file does not exist yet.
func (s *Source) Load(ctx context.Context, i int) (Frame, error) {
	if i < 0 || i >= s.playlist.Size() {
		return Frame{}, fmt.Errorf("chunk %d out of range [0,%d)", i, s.playlist.Size())
	}
	chunk := s.playlist.Chunks[i]
	for _, path := range []string{chunk.Init.Path, chunk.Path} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Frame{}, fmt.Errorf("chunk %d: %w", i, ErrNotReady)
			}
			return Frame{}, fmt.Errorf("stat chunk %d: %w", i, err)
		}
	}
	img, err := s.decoder.Decode(ctx, chunk, s.size)
	if err != nil {
		s.logger.Debug("chunk decode failed", contextArgs(ctx, logging.String("path", chunk.Path), logging.Error(err))...)
		return Frame{}, fmt.Errorf("chunk %d: %w", i, err)
	}
	return Frame{Chunk: chunk, Image: img}, nil
}

// Find returns the index of the chunk containing time t.
func (s *Source) Find(t float64) int { return s.playlist.Find(t) }

// Discard deletes the chunk file. Files still referenced by a later chunk
// are kept, and a missing file is not an error.
func (s *Source) Discard(i int) error {
	if i < 0 || i >= s.playlist.Size() || s.playlist.sharedLater(i) {
		return nil
	}
	path := s.playlist.Chunks[i].Path
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("discard chunk %d: %w", i, err)
	}
	s.logger.Debug("chunk discarded", logging.Int(logging.FieldChunk, i), logging.String("path", path))
	return nil
}

// contextArgs appends the run and chunk carried by ctx to attrs.
func contextArgs(ctx context.Context, attrs ...logging.Attr) []any {
	if id, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldRunID, id))
	}
	if idx, ok := services.ChunkFromContext(ctx); ok {
		attrs = append(attrs, logging.Int(logging.FieldChunk, idx))
	}
	return logging.Args(attrs...)
}

// StreamInfo describes the video stream shared by every chunk.
type StreamInfo struct {
	Size      image.Point
	FrameRate float64
	// ChunkDuration is the probed container duration of the sampled chunk.
	ChunkDuration float64
	Sample        string
}

// Probe runs ffprobe on the first chunk present on disk. All chunks of a
// recording are assumed to share its frame size.
func Probe(ctx context.Context, binary string, pl *Playlist) (StreamInfo, error) {
	for _, chunk := range pl.Chunks {
		// Fragmented chunks carry their stream headers in the init section.
		sample := chunk.Path
		if chunk.Init.Path != "" {
			sample = chunk.Init.Path
		}
		if _, err := os.Stat(sample); err != nil {
			continue
		}
		result, err := ffprobe.Inspect(ctx, binary, sample)
		if err != nil {
			return StreamInfo{}, services.Wrap(services.ErrExternalTool, "vod", "probe", sample, err)
		}
		size, err := result.FrameSize()
		if err != nil {
			return StreamInfo{}, services.Wrap(services.ErrValidation, "vod", "probe", sample, err)
		}
		info := StreamInfo{Size: size, ChunkDuration: result.DurationSeconds(), Sample: sample}
		if video, ok := result.Video(); ok {
			info.FrameRate = video.FrameRate()
		}
		return info, nil
	}
	return StreamInfo{}, fmt.Errorf("probe: no chunk on disk: %w", ErrNotReady)
}
