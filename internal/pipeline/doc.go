// Package pipeline drives a scan run: it submits the configured chunk range
// to an ordered worker pool, folds each analysed chunk into the open match
// segment and checkpoints progress so an interrupted run resumes at the
// first unfolded chunk.
//
// Only the goroutine calling Run mutates state, writes the checkpoint and
// flushes segments. Workers decode and analyse chunks concurrently and their
// results are consumed strictly in chunk order.
package pipeline
