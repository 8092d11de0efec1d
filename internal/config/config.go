package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir    string `toml:"output_dir"`
	TemplatesDir string `toml:"templates_dir"`
	LogDir       string `toml:"log_dir"`
}

// Scan contains the defaults applied to new scan runs and worker tuning.
type Scan struct {
	MaxThreads         int  `toml:"max_threads"`
	QueueDepth         int  `toml:"queue_depth"`
	CheckpointInterval int  `toml:"checkpoint_interval"`
	CleanOutput        bool `toml:"clean_output"`
	DeleteChunks       bool `toml:"delete_chunks"`
	PollInterval       int  `toml:"poll_interval"` // seconds
	ReadyTimeout       int  `toml:"ready_timeout"` // seconds
}

// Media contains external tool configuration for chunk probing and decoding.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	DecodeTimeout int    `toml:"decode_timeout"` // seconds
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vodscan.
//
// Configuration sections by subsystem:
//   - Paths: output, template catalogue and log directories
//   - Scan: run defaults (thread count, checkpoint cadence, cleanup flags)
//   - Media: ffmpeg/ffprobe binaries and decode timeout
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scan    Scan    `toml:"scan"`
	Media   Media   `toml:"media"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// queue_depth follows max_threads unless the file pins it.
		cfg.Scan.QueueDepth = 0
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vodscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories. The template
// directory is read-only input and is only checked by preflight.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used to decode chunks.
func (c *Config) FFmpegBinary() string {
	if c == nil || strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Media.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used to read chunk geometry.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Media.FFprobeBinary
}

// DecodeTimeout bounds a single ffmpeg invocation.
func (c *Config) DecodeTimeout() time.Duration {
	return time.Duration(c.Media.DecodeTimeout) * time.Second
}

// PollInterval is the delay between availability checks for a chunk that is not ready yet.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scan.PollInterval) * time.Second
}

// ReadyTimeout is how long a worker waits for a missing chunk before failing it.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Scan.ReadyTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
