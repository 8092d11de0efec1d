// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (size, pixel format, frame rate)
//   - Format: container-level metadata (duration, format name)
//
// Inspect executes ffprobe; Parse decodes captured output. FrameSize is what
// the scanner uses to size its frame buffers before decoding.
package ffprobe
