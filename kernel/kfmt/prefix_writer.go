package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line. The HAL uses it to tag the output of
// each driver it initializes.
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	// midLine is set while the last byte written was not a line feed.
	midLine bool
}

// Write writes p to the sink, emitting the prefix before the first byte of
// every line. The returned count excludes the injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		lineEnd := bytes.IndexByte(p, '\n') + 1
		if lineEnd == 0 {
			lineEnd = len(p)
		}

		n, err := w.Sink.Write(p[:lineEnd])
		written += n
		if err != nil {
			return written, err
		}

		if p[lineEnd-1] == '\n' {
			w.midLine = false
		}
		p = p[lineEnd:]
	}

	return written, nil
}
