// Package services defines shared utilities consumed by the scan pipeline and
// its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and chunk indexes for logging.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     the template catalogue and the checkpoint store read consistently.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the pipeline.
package services
