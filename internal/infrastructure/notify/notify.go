// Package notify implements ports.Notifier.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
)

// LogNotifier writes notices as structured log lines.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a notifier backed by log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Success implements ports.Notifier.
func (n *LogNotifier) Success(msg string) {
	n.log.Info().Str("notice", "success").Msg(msg)
}

// Error implements ports.Notifier.
func (n *LogNotifier) Error(msg string) {
	n.log.Error().Str("notice", "error").Msg(msg)
}

// Notice is one recorded message.
type Notice struct {
	Kind    string // "success" or "error"
	Message string
}

// Recorder keeps every notice in order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Success implements ports.Notifier.
func (r *Recorder) Success(msg string) { r.add("success", msg) }

// Error implements ports.Notifier.
func (r *Recorder) Error(msg string) { r.add("error", msg) }

func (r *Recorder) add(kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Kind: kind, Message: msg})
}

// Notices returns a copy of everything recorded.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Errors returns the error messages.
func (r *Recorder) Errors() []string { return r.messages("error") }

// Successes returns the success messages.
func (r *Recorder) Successes() []string { return r.messages("success") }

func (r *Recorder) messages(kind string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notices {
		if n.Kind == kind {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

var (
	_ ports.Notifier = (*LogNotifier)(nil)
	_ ports.Notifier = (*Recorder)(nil)
)
