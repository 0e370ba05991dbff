package categorizer

import "flightwindow-service/internal/domain/entity"

// Sink receives diagnostics for input that was absorbed as Unknown.
type Sink interface {
	Report(d entity.Diagnostic)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(d entity.Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d entity.Diagnostic) { f(d) }

// NopSink discards diagnostics
type NopSink struct{}

// Report does nothing.
func (NopSink) Report(entity.Diagnostic) {}

type multiSink []Sink

func (m multiSink) Report(d entity.Diagnostic) {
	for _, s := range m {
		s.Report(d)
	}
}

// MultiSink fans a diagnostic out to every non-nil sink.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Recorder keeps every diagnostic it receives. Not safe for concurrent use.
type Recorder struct {
	Diagnostics []entity.Diagnostic
}

// Report appends d.
func (r *Recorder) Report(d entity.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Count returns how many diagnostics of kind were recorded.
func (r *Recorder) Count(kind entity.DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
