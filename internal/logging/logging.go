// Package logging selects the output sink for a run's structured log
// line (§9.2) and constructs the *log.Logger each long-lived component is
// handed explicitly. There is no package-level logger singleton.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

// Options selects the log sink: an explicit path, a forced stdout
// destination, or (when neither is given) an interactive-terminal check
// against the configured default log file.
type Options struct {
	// Path, when non-empty, is opened for appending and used as the sink.
	Path string
	// Stdout forces os.Stdout regardless of Path.
	Stdout bool
	// DefaultPath is used when neither Path nor Stdout is set and stdout
	// is not a terminal (a cron/redirected invocation): the CLI falls
	// back to its configured default log file instead of an interactive
	// sink.
	DefaultPath string
}

// Sink opens the configured destination and returns it along with a
// closer that is always non-nil and safe to call even for os.Stdout.
func Sink(o Options) (io.Writer, func() error, error) {
	if o.Stdout {
		return os.Stdout, noop, nil
	}
	if o.Path != "" {
		return openAppend(o.Path)
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return os.Stdout, noop, nil
	}
	if o.DefaultPath == "" {
		return os.Stdout, noop, nil
	}
	return openAppend(o.DefaultPath)
}

func openAppend(path string) (io.Writer, func() error, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("logging: opening %s: %w", path, err)
	}
	return f, f.Close, nil
}

func noop() error { return nil }

// New builds a *log.Logger writing to w with a component-prefixed,
// timestamped format, handed explicitly to the components that log
// (*orchestrator.Runner) rather than reached for as a global.
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags|log.Lmsgprefix)
}
