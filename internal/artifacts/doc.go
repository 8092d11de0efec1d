// Package artifacts writes flushed match segments to the output directory.
//
// A segment produces a representative PNG named after its start time
// (HH-MM-SS.png), a block of lines appended to picks.txt and a row in the
// segment store. Segments shorter than MinSegmentFrames are dropped when
// clean output is enabled.
package artifacts
