// Package match finds marker templates inside a frame region using
// alpha-masked normalized cross-correlation computed in the frequency domain.
//
// A Library scales every template to the frame geometry once and keeps its
// spectra; an Engine transforms each frame once and then needs two inverse
// transforms per template. Peak extraction keeps at most twelve hits per
// template, each separated by a 17×17 suppression window.
package match
