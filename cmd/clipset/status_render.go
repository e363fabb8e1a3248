package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"clipset/internal/manifest"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

type kindStyle struct {
	label  string
	colors text.Colors
}

var kindStyles = map[statusKind]kindStyle{
	statusInfo:  {label: "INFO", colors: text.Colors{text.FgBlue}},
	statusOK:    {label: "OK", colors: text.Colors{text.FgGreen}},
	statusWarn:  {label: "WARN", colors: text.Colors{text.FgYellow}},
	statusError: {label: "ERROR", colors: text.Colors{text.FgRed, text.Bold}},
}

const statusLabelWidth = 22

// statusReport accumulates the sections printed by "clipset status".
type statusReport struct {
	colorize bool
	lines    []string
}

func newStatusReport(colorize bool) *statusReport {
	return &statusReport{colorize: colorize}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := "== " + strings.TrimSpace(title) + " =="
	if r.colorize {
		header = text.Colors{text.FgBlue, text.Bold}.Sprint(header)
	}
	r.lines = append(r.lines, header)
}

func (r *statusReport) add(label string, kind statusKind, detail string) {
	style := kindStyles[kind]
	tag := "[" + style.label + "]"
	if r.colorize {
		tag = style.colors.Sprint(tag)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", tag)
	if detail != "" {
		line += " " + detail
	}
	r.lines = append(r.lines, line)
}

func (r *statusReport) write(w io.Writer) error {
	for _, line := range r.lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func checkKind(passed bool) statusKind {
	if passed {
		return statusOK
	}
	return statusError
}

// runKind maps a build's lifecycle state to a status. A run still marked
// running is either in progress or was interrupted before AbandonRunning
// closed it, so it only warns.
func runKind(status manifest.RunStatus) statusKind {
	switch status {
	case manifest.RunComplete:
		return statusOK
	case manifest.RunFailed:
		return statusError
	case manifest.RunRunning:
		return statusWarn
	default:
		return statusInfo
	}
}

// isTerminal reports whether writer is an interactive terminal.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
