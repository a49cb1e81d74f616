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

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const statusLabelWidth = 20

// statusReport accumulates sectioned "label: [KIND] detail" lines.
type statusReport struct {
	colorize bool
	lines    []string
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	r.lines = append(r.lines, r.paint(statusInfo, heading), r.paint(statusInfo, rule))
}

func (r *statusReport) line(label string, kind statusKind, detail string) {
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", statusStyles[kind].label)
	if detail != "" {
		text += " " + detail
	}
	r.lines = append(r.lines, r.paint(kind, text))
}

func (r *statusReport) paint(kind statusKind, text string) string {
	if !r.colorize {
		return text
	}
	return statusStyles[kind].color + text + ansiReset
}

func (r *statusReport) String() string {
	return strings.Join(r.lines, "\n")
}

// shouldColorize reports whether writer is an interactive terminal and the
// user has not opted out through NO_COLOR.
func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
