// Package preflight provides readiness checks for the tools, directories and
// template assets a scan depends on.
//
// The CLI "vodscan check" command prints every result; "vodscan scan" runs
// the same checks and refuses to start when a required one fails, so a run
// never dies hours in on a missing decoder or unwritable output directory.
package preflight
