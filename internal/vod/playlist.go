package vod

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grafov/m3u8"
)

// Section is a byte range of a file. A zero Length runs to the end of the
// file.
type Section struct {
	Path   string
	Offset int64
	Length int64
}

// Chunk is one playlist entry. Start is the sum of the durations of every
// earlier chunk. Offset and Length narrow Path to an EXT-X-BYTERANGE and
// Init names the EXT-X-MAP initialization section, if any.
type Chunk struct {
	Index    int
	Start    float64
	Duration float64
	Path     string
	Offset   int64
	Length   int64
	Init     Section
}

// Partial reports whether the chunk cannot be decoded from Path alone.
func (c Chunk) Partial() bool {
	return c.Offset > 0 || c.Length > 0 || c.Init.Path != ""
}

// Playlist is a parsed local HLS media playlist.
type Playlist struct {
	Path   string
	Chunks []Chunk
}

// OpenPlaylist reads and parses the playlist at path. Segment URIs are
// resolved relative to the playlist's directory.
func OpenPlaylist(path string) (*Playlist, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve playlist path: %w", err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	pl, err := ParsePlaylist(f, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", abs, err)
	}
	pl.Path = abs
	return pl, nil
}

// ParsePlaylist decodes an HLS media playlist from r. Master playlists and
// remote URIs are rejected.
func ParsePlaylist(r io.Reader, dir string) (*Playlist, error) {
	decoded, kind, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, err
	}
	media, ok := decoded.(*m3u8.MediaPlaylist)
	if kind != m3u8.MEDIA || !ok {
		return nil, errors.New("not a media playlist")
	}

	pl := &Playlist{}
	var start float64
	// An EXT-X-MAP applies to every later segment until the next one.
	xmap := media.Map
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		if seg.Duration < 0 {
			return nil, fmt.Errorf("segment %q: negative duration %v", seg.URI, seg.Duration)
		}
		path, err := resolveURI(dir, seg.URI)
		if err != nil {
			return nil, err
		}
		chunk := Chunk{
			Index:    len(pl.Chunks),
			Start:    start,
			Duration: seg.Duration,
			Path:     path,
			Offset:   seg.Offset,
			Length:   seg.Limit,
		}
		if seg.Map != nil {
			xmap = seg.Map
		}
		if xmap != nil && xmap.URI != "" {
			initPath, err := resolveURI(dir, xmap.URI)
			if err != nil {
				return nil, err
			}
			chunk.Init = Section{Path: initPath, Offset: xmap.Offset, Length: xmap.Limit}
		}
		pl.Chunks = append(pl.Chunks, chunk)
		start += seg.Duration
	}
	return pl, nil
}

func resolveURI(dir, uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if isRemote(uri) {
		return "", fmt.Errorf("remote segment %q is not supported", uri)
	}
	if filepath.IsAbs(uri) {
		return uri, nil
	}
	return filepath.Join(dir, filepath.FromSlash(uri)), nil
}

func isRemote(uri string) bool {
	return strings.Contains(strings.ToLower(uri), "://")
}

// Size returns the number of chunks.
func (p *Playlist) Size() int { return len(p.Chunks) }

// DurationAt returns the start time of chunk i, or the total duration when i
// is past the last chunk.
func (p *Playlist) DurationAt(i int) float64 {
	if i < 0 {
		return 0
	}
	if i >= len(p.Chunks) {
		if len(p.Chunks) == 0 {
			return 0
		}
		last := p.Chunks[len(p.Chunks)-1]
		return last.Start + last.Duration
	}
	return p.Chunks[i].Start
}

// Find returns the index of the chunk containing time t. Times before the
// first chunk map to 0 and times past the end map to the last chunk.
func (p *Playlist) Find(t float64) int {
	if len(p.Chunks) == 0 {
		return 0
	}
	i := sort.Search(len(p.Chunks), func(i int) bool { return p.Chunks[i].Start > t })
	if i == 0 {
		return 0
	}
	return i - 1
}

// sharedLater reports whether a chunk after i reads from the same file.
func (p *Playlist) sharedLater(i int) bool {
	path := p.Chunks[i].Path
	for _, c := range p.Chunks[i+1:] {
		if c.Path == path || c.Init.Path == path {
			return true
		}
	}
	return false
}
