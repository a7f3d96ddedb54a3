// Package feedback defines the UI-feedback sink the dispatcher reports to,
// together with a few sinks that do not depend on a particular UI.
package feedback

import (
	"sync"

	"github.com/rs/zerolog"
)

// Category selects the visual feedback for a classified touch.
type Category string

const (
	// CategorySingle is shown for single-contact interactions (left click)
	CategorySingle Category = "single-touch"

	// CategoryMulti is shown for multi-contact interactions (right click, move)
	CategoryMulti Category = "multi-touch"
)

// Status texts shared by the dispatcher and the front ends.
const (
	StatusReady         = "Remote controller ready"
	StatusLeftClick     = "Single tap - left button"
	StatusRightClick    = "Double tap - right button"
	StatusMove          = "Slide - move pointer"
	StatusAccepted      = "OK"
	StatusTouchpadError = "Touchpad connection error"
	StatusNetworkError  = "Network connection error"
	StatusTouchpadReset = "Touchpad state reset"
	StatusErrorPrefix   = "Error: "
)

// Sink receives presentation updates. Implementations are called from
// submission goroutines and must be safe for concurrent use.
type Sink interface {
	ShowFeedback(category Category)
	SetStatus(message string, connected bool)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) ShowFeedback(Category) {}
func (discard) SetStatus(string, bool) {}

// Tee returns a Sink that forwards every call to all sinks in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) ShowFeedback(category Category) {
	for _, s := range t {
		s.ShowFeedback(category)
	}
}

func (t tee) SetStatus(message string, connected bool) {
	for _, s := range t {
		s.SetStatus(message, connected)
	}
}

// LogSink writes feedback to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink logging under the "feedback" component.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "feedback").Logger()}
}

func (s *LogSink) ShowFeedback(category Category) {
	s.logger.Debug().Str("category", string(category)).Msg("touch feedback")
}

func (s *LogSink) SetStatus(message string, connected bool) {
	ev := s.logger.Info()
	if !connected {
		ev = s.logger.Warn()
	}
	ev.Bool("connected", connected).Msg(message)
}

// Sequenced is implemented by sinks that can discard feedback for stale samples.
type Sequenced interface {
	ForSeq(seq uint64) Sink
}

// ForSeq returns the view of sink for the response to the sample numbered seq.
// Sinks that do not implement Sequenced are returned unchanged.
func ForSeq(sink Sink, seq uint64) Sink {
	if s, ok := sink.(Sequenced); ok {
		return s.ForSeq(seq)
	}
	return sink
}

// Fence drops feedback for responses that arrive after the response to a newer
// sample has already been shown. Sequence number 0 is never fenced.
type Fence struct {
	mu   sync.Mutex
	next Sink
	last uint64
}

// NewFence wraps next.
func NewFence(next Sink) *Fence {
	return &Fence{next: next}
}

// ForSeq implements Sequenced. The returned view is admitted or dropped as a
// whole on its first call, so a response never shows half of its feedback.
func (f *Fence) ForSeq(seq uint64) Sink {
	return &fenced{fence: f, seq: seq}
}

func (f *Fence) ShowFeedback(category Category) {
	f.next.ShowFeedback(category)
}

func (f *Fence) SetStatus(message string, connected bool) {
	f.next.SetStatus(message, connected)
}

// admit records seq as the newest shown sample unless a newer one was shown.
func (f *Fence) admit(seq uint64) bool {
	if seq == 0 {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq < f.last {
		return false
	}
	f.last = seq
	return true
}

type fenced struct {
	fence *Fence
	seq   uint64

	once     sync.Once
	admitted bool
}

func (v *fenced) admit() bool {
	v.once.Do(func() { v.admitted = v.fence.admit(v.seq) })
	return v.admitted
}

func (v *fenced) ShowFeedback(category Category) {
	if v.admit() {
		v.fence.next.ShowFeedback(category)
	}
}

func (v *fenced) SetStatus(message string, connected bool) {
	if v.admit() {
		v.fence.next.SetStatus(message, connected)
	}
}
