// Package logger wraps charmbracelet/log with a duplicate-suppressing
// helper for hot paths (cache hits, repeated search keys) that would
// otherwise flood the output with identical lines.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a prefixed logger with the default options used across the
// service.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

var dedup = &deduplicator{
	flushDelay: 2 * time.Second,
	out:        New("dedup"),
}

type deduplicator struct {
	mu         sync.Mutex
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
	out        *log.Logger
}

func (d *deduplicator) flush() {
	if d.count == 0 {
		return
	}
	if d.count == 1 {
		d.out.Info(d.lastMsg)
	} else {
		d.out.Infof("%s (%d)", d.lastMsg, d.count)
	}
	d.count = 0
	d.lastMsg = ""
}

// Dedup logs like Infof but collapses consecutive identical messages into a
// single line with a repeat count, flushed after a short quiet period.
func Dedup(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	dedup.mu.Lock()
	defer dedup.mu.Unlock()

	if msg == dedup.lastMsg {
		dedup.count++
		if dedup.timer != nil {
			dedup.timer.Stop()
		}
		dedup.timer = time.AfterFunc(dedup.flushDelay, func() {
			dedup.mu.Lock()
			defer dedup.mu.Unlock()
			dedup.flush()
		})
		return
	}

	dedup.flush()
	dedup.lastMsg = msg
	dedup.count = 1
	dedup.timer = time.AfterFunc(dedup.flushDelay, func() {
		dedup.mu.Lock()
		defer dedup.mu.Unlock()
		dedup.flush()
	})
}
