package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
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
	statusLabelWidth = 20
	statusIndent     = "  "
)

var (
	statusLabels = map[statusKind]string{statusInfo: "INFO", statusOK: "OK", statusWarn: "WARN", statusError: "ERROR"}
	statusColors = map[statusKind]text.Colors{
		statusInfo:  {text.FgBlue},
		statusOK:    {text.FgGreen},
		statusWarn:  {text.FgYellow},
		statusError: {text.FgRed, text.Bold},
	}
	sectionColors = text.Colors{text.FgBlue, text.Bold}
)

// renderStatusLine formats one check result, e.g. "  FFmpeg:  [OK] /usr/bin/ffmpeg".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	status := "[" + statusLabels[kind] + "]"
	if message != "" {
		status += " " + message
	}
	line := statusIndent + text.Pad(label+":", statusLabelWidth, ' ') + " " + status
	if colorize {
		return statusColors[kind].Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", text.StringWidthWithoutEscSequences(heading))
	if colorize {
		return []string{sectionColors.Sprint(heading), sectionColors.Sprint(rule)}
	}
	return []string{heading, rule}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// shouldColorize honors NO_COLOR and only colors real terminals.
func shouldColorize(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isTerminal(w)
}
