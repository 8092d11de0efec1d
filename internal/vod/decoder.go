package vod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/milam/VodParser/internal/services"
)

// Decoder extracts the first video frame of a chunk at the given size.
type Decoder interface {
	Decode(ctx context.Context, chunk Chunk, size image.Point) (image.Image, error)
}

// FFmpegDecoder decodes frames by piping raw RGBA out of ffmpeg. Partial
// chunks are streamed to ffmpeg on stdin, init section first.
type FFmpegDecoder struct {
	Binary  string
	Timeout time.Duration
}

// Decode runs ffmpeg for a single frame and wraps the raw pixels.
func (d FFmpegDecoder) Decode(ctx context.Context, chunk Chunk, size image.Point) (image.Image, error) {
	binary := strings.TrimSpace(d.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	path := chunk.Path
	input := []string{"-nostdin", "-i", path}
	var stdin io.Reader
	if chunk.Partial() {
		r, closeAll, err := chunkReader(chunk)
		if err != nil {
			return nil, services.Wrap(ErrDecode, "vod", "decode", path, err)
		}
		defer closeAll()
		stdin = r
		input = []string{"-i", "pipe:0"}
	}

	args := append([]string{"-v", "error"}, input...)
	args = append(args,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", strconv.Itoa(size.X)+"x"+strconv.Itoa(size.Y),
		"-",
	)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "vod", "decode", path, ErrDecode)
		}
		detail := strings.TrimSpace(stderr.String())
		return nil, services.Wrap(ErrDecode, "vod", "decode", detail, err)
	}

	want := size.X * size.Y * 4
	if stdout.Len() != want {
		return nil, services.Wrap(ErrDecode, "vod", "decode",
			fmt.Sprintf("%s: got %d bytes, want %d", path, stdout.Len(), want), nil)
	}
	img := &image.NRGBA{
		Pix:    stdout.Bytes(),
		Stride: size.X * 4,
		Rect:   image.Rect(0, 0, size.X, size.Y),
	}
	return img, nil
}

// chunkReader concatenates the init section and the chunk's byte range.
func chunkReader(chunk Chunk) (io.Reader, func(), error) {
	var (
		readers []io.Reader
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	sections := []Section{{Path: chunk.Path, Offset: chunk.Offset, Length: chunk.Length}}
	if chunk.Init.Path != "" {
		sections = append([]Section{chunk.Init}, sections...)
	}
	for _, sec := range sections {
		f, err := os.Open(sec.Path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		length := sec.Length
		if length <= 0 {
			info, err := f.Stat()
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			length = max(0, info.Size()-sec.Offset)
		}
		readers = append(readers, io.NewSectionReader(f, sec.Offset, length))
	}
	return io.MultiReader(readers...), closeAll, nil
}
