// Package templates loads the marker catalogue used by a scan: catalog.toml
// maps each template name to its acceptance threshold, <name>.png holds the
// marker artwork (optionally with an alpha mask) and prepare.png/assemble.png
// are the banners the phase classifier looks for.
package templates
