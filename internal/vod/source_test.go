package vod

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/services"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newTestSource(t *testing.T, decoder Decoder) (*Source, string) {
	t.Helper()
	dir := t.TempDir()
	body := "#EXTM3U\n#EXTINF:2,\nchunk000000.ts\n#EXTINF:2,\nchunk000001.ts\n"
	pl, err := ParsePlaylist(strings.NewReader(body), dir)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}
	if err := os.WriteFile(pl.Chunks[0].Path, []byte("ts"), 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	return NewSource(pl, image.Pt(4, 2), decoder, logging.NewNop()), dir
}

func TestLoadDecodesExistingChunk(t *testing.T) {
	bin := t.TempDir()
	ffmpeg := writeScript(t, bin, "ffmpeg", "head -c 32 /dev/zero")
	src, _ := newTestSource(t, FFmpegDecoder{Binary: ffmpeg})

	frame, err := src.Load(context.Background(), 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if frame.Image.Bounds().Size() != image.Pt(4, 2) {
		t.Fatalf("unexpected frame size %v", frame.Image.Bounds())
	}
	if frame.Start != 0 || frame.Duration != 2 {
		t.Fatalf("unexpected chunk timing %+v", frame.Chunk)
	}
}

func TestLoadMissingChunkIsNotReady(t *testing.T) {
	src, _ := newTestSource(t, FFmpegDecoder{Binary: "/nonexistent"})
	_, err := src.Load(context.Background(), 1)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestLoadShortOutputIsDecodeError(t *testing.T) {
	bin := t.TempDir()
	ffmpeg := writeScript(t, bin, "ffmpeg", "head -c 5 /dev/zero")
	src, _ := newTestSource(t, FFmpegDecoder{Binary: ffmpeg})
	_, err := src.Load(context.Background(), 0)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestLoadFailingToolIsDecodeError(t *testing.T) {
	bin := t.TempDir()
	ffmpeg := writeScript(t, bin, "ffmpeg", "echo 'invalid data' >&2; exit 1")
	src, _ := newTestSource(t, FFmpegDecoder{Binary: ffmpeg})
	_, err := src.Load(context.Background(), 0)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid data") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestDiscardRemovesChunk(t *testing.T) {
	src, _ := newTestSource(t, FFmpegDecoder{})
	path := src.Playlist().Chunks[0].Path
	if err := src.Discard(0); err != nil {
		t.Fatalf("Discard returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected chunk to be removed, stat err=%v", err)
	}
	if err := src.Discard(0); err != nil {
		t.Fatalf("second Discard should be a no-op, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	bin := t.TempDir()
	json := `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720,"r_frame_rate":"60/1"}],"format":{"duration":"2.002"}}`
	ffprobe := writeScript(t, bin, "ffprobe", fmt.Sprintf("echo '%s'", json))
	src, _ := newTestSource(t, FFmpegDecoder{})

	info, err := Probe(context.Background(), ffprobe, src.Playlist())
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if info.Size != image.Pt(1280, 720) || info.FrameRate != 60 || info.ChunkDuration != 2.002 {
		t.Fatalf("unexpected stream info %+v", info)
	}
	if info.Sample != src.Playlist().Chunks[0].Path {
		t.Fatalf("expected first chunk to be sampled, got %q", info.Sample)
	}

	empty := &Playlist{Chunks: []Chunk{{Path: filepath.Join(t.TempDir(), "missing.ts")}}}
	if _, err := Probe(context.Background(), ffprobe, empty); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady without chunks on disk, got %v", err)
	}

	broken := writeScript(t, bin, "ffprobe-broken", `echo '{"streams":[]}'`)
	if _, err := Probe(context.Background(), broken, src.Playlist()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without a video stream, got %v", err)
	}
}

func TestLoadStreamsPartialChunkOnStdin(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.mp4"), []byte("INIT"), 0o644); err != nil {
		t.Fatalf("write init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stream.mp4"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write stream: %v", err)
	}
	body := "#EXTM3U\n#EXT-X-MAP:URI=\"init.mp4\"\n" +
		"#EXTINF:2,\n#EXT-X-BYTERANGE:4@2\nstream.mp4\n" +
		"#EXTINF:2,\n#EXT-X-BYTERANGE:4@6\nstream.mp4\n"
	pl, err := ParsePlaylist(strings.NewReader(body), dir)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}

	captured := filepath.Join(dir, "stdin.bin")
	argsFile := filepath.Join(dir, "args.txt")
	ffmpeg := writeScript(t, t.TempDir(), "ffmpeg",
		fmt.Sprintf("cat > %q; echo \"$@\" > %q; head -c 32 /dev/zero", captured, argsFile))
	src := NewSource(pl, image.Pt(4, 2), FFmpegDecoder{Binary: ffmpeg}, logging.NewNop())

	if _, err := src.Load(context.Background(), 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("read captured stdin: %v", err)
	}
	if string(data) != "INIT2345" {
		t.Fatalf("stdin = %q, want init section followed by the byte range", data)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	if !strings.Contains(string(args), "-i pipe:0") {
		t.Fatalf("expected ffmpeg to read stdin, got %q", args)
	}

	if err := src.Discard(0); err != nil {
		t.Fatalf("Discard returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stream.mp4")); err != nil {
		t.Fatalf("shared stream file removed while chunk 1 still needs it: %v", err)
	}
	if err := src.Discard(1); err != nil {
		t.Fatalf("Discard returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stream.mp4")); !os.IsNotExist(err) {
		t.Fatalf("expected stream file removed after its last chunk, stat err=%v", err)
	}
}
