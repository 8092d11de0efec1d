package pipeline

import "image"

// Status is the lifecycle of a Controller.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusFinished
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Reporter receives progress after every folded chunk and once at the end.
// Elapsed is measured from the configured start time.
type Reporter interface {
	Report(status Status, elapsed float64, frame image.Image)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(status Status, elapsed float64, frame image.Image)

func (f ReporterFunc) Report(status Status, elapsed float64, frame image.Image) {
	f(status, elapsed, frame)
}
