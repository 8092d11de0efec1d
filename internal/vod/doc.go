// Package vod exposes a recording split into HLS chunks as an indexed,
// time-addressable sequence of frames.
//
// OpenPlaylist parses a local media playlist; Source decodes the first frame
// of a chunk through ffmpeg and reports ErrNotReady for chunks that have not
// been written yet, so callers can wait for a recording that is still being
// downloaded.
package vod
