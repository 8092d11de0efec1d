package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

var statusStyles = map[statusKind]struct {
	tag   string
	color string
}{
	statusInfo:  {tag: "INFO", color: "\x1b[34m"},
	statusOK:    {tag: "OK", color: "\x1b[32m"},
	statusWarn:  {tag: "WARN", color: "\x1b[33m"},
	statusError: {tag: "ERROR", color: "\x1b[31m"},
}

// linePrinter formats the aligned "label: value" blocks printed by the
// status, check and scan commands.
type linePrinter struct {
	color bool
	width int
}

func newLinePrinter(w io.Writer) linePrinter {
	return linePrinter{color: shouldColorize(w), width: 18}
}

func (p linePrinter) header(title string) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if p.color {
		return []string{ansiBold + line + ansiReset, rule}
	}
	return []string{line, rule}
}

func (p linePrinter) value(label, value string) string {
	return fmt.Sprintf("  %-*s %s", p.width, label+":", value)
}

// status renders "label: [TAG] message", coloured by kind when the output is
// a terminal.
func (p linePrinter) status(label string, kind statusKind, message string) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	tag := "[" + style.tag + "]"
	if message != "" {
		tag += " " + message
	}
	line := p.value(label, tag)
	if p.color {
		return style.color + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
