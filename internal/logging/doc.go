// Package logging builds the slog loggers used by vodscan.
//
// Two formats are supported. Console lines are meant for a terminal and put
// the component and chunk in front of the message; JSON lines use short keys
// for log shippers. Both can be mirrored into log_dir. The package also owns
// the standard field names and a sampler that keeps per-chunk progress out
// of the log unless a percentage step changes.
package logging
