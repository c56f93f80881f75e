package main

import (
	"fmt"
	"io"
	"os"

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
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	marker := statusMarker(kind)
	if colorize {
		marker = statusColor(kind) + marker + ansiReset
	}
	if message == "" {
		return fmt.Sprintf("%s %s", marker, label)
	}
	return fmt.Sprintf("%s %s: %s", marker, label, message)
}

func statusMarker(kind statusKind) string {
	switch kind {
	case statusOK:
		return "[ok]"
	case statusWarn:
		return "[warn]"
	case statusError:
		return "[fail]"
	default:
		return "[info]"
	}
}

func statusColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ansiBlue
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
