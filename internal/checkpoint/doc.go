// Package checkpoint persists scan progress so an interrupted run can resume
// without reprocessing any chunk.
//
// The record lives in status.json inside the output directory and is always
// replaced atomically. The representative frame of the open segment is kept
// beside it as temp_frame.png.
package checkpoint
