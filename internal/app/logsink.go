package app

import (
	"strings"
	"sync"
)

// logSink buffers log lines until the window exists, then forwards them.
type logSink struct {
	mu      sync.Mutex
	pending []string
	limit   int
	forward func(string)
}

func newLogSink(limit int) *logSink {
	return &logSink{limit: limit}
}

func (l *logSink) Write(p []byte) (int, error) {
	lines := strings.Split(strings.ReplaceAll(string(p), "\r\n", "\n"), "\n")
	l.mu.Lock()
	forward := l.forward
	if forward == nil {
		for _, line := range lines {
			if line != "" {
				l.pending = append(l.pending, line)
			}
		}
		if len(l.pending) > l.limit {
			l.pending = l.pending[len(l.pending)-l.limit:]
		}
	}
	l.mu.Unlock()
	if forward != nil {
		for _, line := range lines {
			if line != "" {
				forward(line)
			}
		}
	}
	return len(p), nil
}

func (l *logSink) attach(forward func(string)) {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.forward = forward
	l.mu.Unlock()
	for _, line := range pending {
		forward(line)
	}
}
