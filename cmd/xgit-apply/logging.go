package main

import (
	"fmt"
	"io"
	"os"
	"time"
)

// DualLogger writes timestamped lines to stdout and, if a log file was
// requested, to a truncated log file at the same time -- the console/file
// pairing the original tool used for its run logs, generalized here to the
// patch engine's Logger interface.
type DualLogger struct {
	Console io.Writer
	File    *os.File
	w       io.Writer
	quiet   bool
}

// NewDualLogger opens logPath (truncating any previous contents) and wires
// it alongside stdout. An empty logPath disables the file half.
func NewDualLogger(logPath string, quiet bool) (*DualLogger, error) {
	d := &DualLogger{Console: os.Stdout, quiet: quiet}
	if logPath == "" {
		d.w = d.Console
		return d, nil
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	d.File = f
	d.w = io.MultiWriter(d.Console, f)
	return d, nil
}

// Close releases the underlying log file, if one was opened.
func (d *DualLogger) Close() {
	if d == nil || d.File == nil {
		return
	}
	_ = d.File.Close()
}

// Log implements patch.Logger.
func (d *DualLogger) Log(format string, a ...any) {
	if d == nil || d.quiet {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(d.w, "%s %s\n", ts, fmt.Sprintf(format, a...))
}
