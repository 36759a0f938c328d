package progress

import (
	"fmt"
	"io"
)

// Sink receives cosmetic progress output from a pipeline run. It exists
// for operators watching a run; correctness never depends on it, and a
// nil sink is always safe through OrNoop.
type Sink interface {
	// Describe labels the work currently in flight.
	Describe(text string)
	// Step marks one unit of work done.
	Step()
	// Clear discards transient output before the final report.
	Clear()
	// Link presents a clickable result location.
	Link(label, url string)
}

// OrNoop shields services from a missing sink.
func OrNoop(s Sink) Sink {
	if s == nil {
		return Noop{}
	}
	return s
}

// Noop drops all progress output.
type Noop struct{}

func (Noop) Describe(string)     {}
func (Noop) Step()               {}
func (Noop) Clear()              {}
func (Noop) Link(string, string) {}

// WriterSink prints plain progress lines, one per event.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Describe(text string) {
	if s.W == nil {
		return
	}
	fmt.Fprintln(s.W, text)
}

func (s WriterSink) Step() {
	if s.W == nil {
		return
	}
	fmt.Fprint(s.W, ".")
}

func (s WriterSink) Clear() {
	if s.W == nil {
		return
	}
	fmt.Fprintln(s.W)
}

func (s WriterSink) Link(label, url string) {
	if s.W == nil {
		return
	}
	fmt.Fprintf(s.W, "%s: %s\n", label, url)
}
