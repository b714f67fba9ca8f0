// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrorLog appends timestamped error lines to a log file and mirrors
// them to a writer. Logging failures never propagate: a broken log file
// must not kill a research session.
type ErrorLog struct {
	path string
	w    io.Writer

	mu sync.Mutex
}

// NewErrorLog writes errors to path and mirrors them to w.
func NewErrorLog(path string, w io.Writer) *ErrorLog {
	return &ErrorLog{path: path, w: w}
}

// Logf records one formatted error line.
func (l *ErrorLog) Logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] ERROR: %s", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.w, line)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(l.w, "failed to write to error log: %v\n", err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}
