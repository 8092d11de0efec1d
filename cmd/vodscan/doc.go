// Package main hosts the vodscan CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging and the scan
// pipeline together: "scan" runs or resumes a scan of a chunked recording,
// "status" and "segments" inspect an output directory, "templates" lists the
// marker catalogue, "check" runs preflight checks and "config" scaffolds the
// configuration file.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
