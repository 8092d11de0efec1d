package testsupport

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/milam/VodParser/internal/config"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns the default config with every directory moved under a
// fresh temp dir. Polling is fast and missing chunks are skipped at once.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.TemplatesDir = filepath.Join(base, "templates")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scan.PollInterval = 1
	cfg.Scan.ReadyTimeout = 0

	b := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// WithThreads sets the worker count and a matching queue depth.
func WithThreads(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.MaxThreads = n
		b.cfg.Scan.QueueDepth = 2 * n
	}
}

// WithMediaStubs installs shell stand-ins for ffprobe and ffmpeg and points
// the config at them. ffprobe reports one video stream of the given size and
// ffmpeg emits one black RGBA frame of that size for any input.
func WithMediaStubs(frame image.Point) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		stubs := map[string]string{
			"ffprobe": fmt.Sprintf(`if [ "$1" = "-version" ]; then echo "ffprobe version stub"; exit 0; fi
echo '{"streams":[{"index":0,"codec_type":"video","width":%d,"height":%d}],"format":{}}'`, frame.X, frame.Y),
			"ffmpeg": fmt.Sprintf(`if [ "$1" = "-version" ]; then echo "ffmpeg version stub"; exit 0; fi
head -c %d /dev/zero`, frame.X*frame.Y*4),
		}
		for name, body := range stubs {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Media.FFprobeBinary = filepath.Join(binDir, "ffprobe")
		b.cfg.Media.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
	}
}

// BaseDir exposes the temporary base directory used for the config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
