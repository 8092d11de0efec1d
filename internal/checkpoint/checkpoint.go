package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/milam/VodParser/internal/fileutil"
)

const (
	// Version is the only record layout Load accepts.
	Version = 1
	// FileName is the checkpoint record inside the output directory.
	FileName = "status.json"
	// FrameFile holds the representative frame of the open segment.
	FrameFile = "temp_frame.png"

	// TeamSize is the number of slots per side.
	TeamSize = 6
)

// ErrVersion reports a checkpoint written by an incompatible layout.
var ErrVersion = errors.New("unsupported checkpoint version")

// Frame is one entry of a match segment.
type Frame struct {
	Start    float64          `json:"start"`
	Duration float64          `json:"duration"`
	Blue     [TeamSize]string `json:"blue"`
	Red      [TeamSize]string `json:"red"`
}

// Slots returns the frame's twelve slots, blue side first.
func (f Frame) Slots() [2 * TeamSize]string {
	var out [2 * TeamSize]string
	copy(out[:TeamSize], f.Blue[:])
	copy(out[TeamSize:], f.Red[:])
	return out
}

// RunConfig is the configuration a run was started with. A resumed run uses
// the stored value instead of the one requested on the command line.
type RunConfig struct {
	Source       string  `json:"source"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	CleanOutput  bool    `json:"clean_output"`
	DeleteChunks bool    `json:"delete_chunks"`
	MaxThreads   int     `json:"max_threads"`
	Path         string  `json:"path"`
}

// Record is the persisted scan state.
type Record struct {
	Version    int       `json:"version"`
	Current    int       `json:"current"`
	Gap        int       `json:"gap"`
	Frames     []Frame   `json:"frames"`
	MatchStart float64   `json:"match_start"`
	Config     RunConfig `json:"config"`
	State      string    `json:"state,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// Path returns the checkpoint location for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// FramePath returns the representative frame location for dir.
func FramePath(dir string) string {
	return filepath.Join(dir, FrameFile)
}

// Load reads the checkpoint in dir. The boolean is false when no checkpoint
// exists.
func Load(dir string) (*Record, bool, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, false, errors.New("checkpoint: directory is empty")
	}
	payload, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint: read: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, true, fmt.Errorf("checkpoint: decode: %w", err)
	}
	if rec.Version != Version {
		return nil, true, fmt.Errorf("checkpoint: %w %d", ErrVersion, rec.Version)
	}
	if rec.Current < 0 || rec.Gap < 0 {
		return nil, true, fmt.Errorf("checkpoint: negative cursor (current=%d gap=%d)", rec.Current, rec.Gap)
	}
	return &rec, true, nil
}

// Save atomically replaces the checkpoint in dir.
func Save(dir string, rec *Record) error {
	if rec == nil {
		return errors.New("checkpoint: nil record")
	}
	out := *rec
	out.Version = Version
	if out.Frames == nil {
		out.Frames = []Frame{}
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = time.Now().UTC()
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(Path(dir), payload, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write: %w", err)
	}
	return nil
}

// SaveFrame stores the representative frame. A nil image removes any stale
// frame instead.
func SaveFrame(dir string, img image.Image) error {
	if img == nil {
		return RemoveFrame(dir)
	}
	err := fileutil.WriteAtomic(FramePath(dir), 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return fmt.Errorf("checkpoint: write frame: %w", err)
	}
	return nil
}

// LoadFrame reads the representative frame when one was persisted.
func LoadFrame(dir string) (image.Image, bool, error) {
	f, err := os.Open(FramePath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint: open frame: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, true, fmt.Errorf("checkpoint: decode frame: %w", err)
	}
	return img, true, nil
}

// RemoveFrame deletes the representative frame if present.
func RemoveFrame(dir string) error {
	if err := os.Remove(FramePath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checkpoint: remove frame: %w", err)
	}
	return nil
}
