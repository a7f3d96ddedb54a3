// Package frontend runs the event loop that turns raw touch snapshots into
// dispatched actions.
//
// The loop goroutine is the only owner of the touch tracker. Submissions run
// in detached goroutines whose only effect is feedback (and, for a reset,
// an acknowledgement posted back to the loop), so a slow server never blocks
// the next touch event. Each submission starts its request only after the
// previous one has started, so requests go out in event order while their
// responses may come back in any order.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"touchbridge/internal/dispatch"
	"touchbridge/internal/feedback"
	"touchbridge/internal/metrics"
	"touchbridge/internal/network"
	"touchbridge/internal/protocol"
	"touchbridge/internal/touch"
)

// WheelScale converts raw wheel deltas into scroll steps.
const WheelScale = 0.1

// ErrStopped is returned by Post once the loop has stopped.
var ErrStopped = errors.New("frontend: loop stopped")

// EventType is the kind of input snapshot delivered to the loop.
type EventType string

const (
	EventStart EventType = "start"
	EventMove  EventType = "move"
	EventEnd   EventType = "end"
	EventWheel EventType = "wheel"
	EventReset EventType = "reset"

	// eventResetAck is posted by the reset submission once the server confirmed it
	eventResetAck EventType = "reset_ack"
	eventFlush    EventType = "flush"
)

// Event is an immutable input snapshot. For EventEnd, Points holds the
// lifted contacts and may be empty.
type Event struct {
	Type   EventType
	Points []touch.Point
	DX     float64
	DY     float64

	flushed chan struct{}
}

// EventFromPage converts a message from the touchpad page.
func EventFromPage(msg protocol.PageEvent) (Event, error) {
	switch msg.Type {
	case protocol.PageTouchStart, protocol.PageTouchMove, protocol.PageTouchEnd,
		protocol.PageWheel, protocol.PageReset:
	default:
		return Event{}, fmt.Errorf("unknown page event type %q", msg.Type)
	}

	points := make([]touch.Point, len(msg.Touches))
	for i, p := range msg.Touches {
		points[i] = touch.Point{Index: i, X: p.X, Y: p.Y}
	}
	return Event{Type: EventType(msg.Type), Points: points, DX: msg.DX, DY: msg.DY}, nil
}

// Submitter is the part of the dispatcher the loop drives.
type Submitter interface {
	Submit(ctx context.Context, action touch.Action) *protocol.Response
	SubmitOneShot(ctx context.Context, kind dispatch.OneShot, payload any) *protocol.Response
}

// Loop owns a touch tracker and feeds it events one at a time.
type Loop struct {
	tracker    *touch.Tracker
	dispatcher Submitter
	sink       feedback.Sink
	clock      clockwork.Clock
	logger     zerolog.Logger

	events   chan Event
	stopping chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup

	// started is closed once the latest submission has started its request.
	// Only the loop goroutine touches it.
	started chan struct{}
}

// NewLoop creates a loop. sink receives loop-level status updates (reset
// acknowledgements); per-sample feedback goes through the dispatcher.
func NewLoop(d Submitter, sink feedback.Sink, clock clockwork.Clock) *Loop {
	if sink == nil {
		sink = feedback.Discard
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		tracker:    touch.NewTracker(),
		dispatcher: d,
		sink:       sink,
		clock:      clock,
		logger:     log.With().Str("component", "frontend").Logger(),
		events:     make(chan Event, 64),
		stopping:   make(chan struct{}),
	}
}

// Post delivers an event to the loop, blocking while the queue is full.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	select {
	case <-l.stopping:
		return ErrStopped
	default:
	}

	select {
	case l.events <- ev:
		return nil
	case <-l.stopping:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every event posted before it has been handled.
// Submissions started by those events may still be in flight.
func (l *Loop) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	if err := l.Post(ctx, Event{Type: eventFlush, flushed: flushed}); err != nil {
		return err
	}
	select {
	case <-flushed:
		return nil
	case <-l.stopping:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is done, then waits for in-flight
// submissions to finish. Submissions are not cancelled by ctx.
func (l *Loop) Run(ctx context.Context) error {
	submitCtx := context.WithoutCancel(ctx)
	l.logger.Debug().Msg("event loop started")

	for {
		select {
		case <-ctx.Done():
			l.stopOnce.Do(func() { close(l.stopping) })
			l.inflight.Wait()
			l.logger.Debug().Msg("event loop stopped")
			return ctx.Err()
		case ev := <-l.events:
			l.handle(submitCtx, ev)
		}
	}
}

func (l *Loop) handle(ctx context.Context, ev Event) {
	now := l.clock.Now().UnixMilli()

	switch ev.Type {
	case EventStart:
		opened := !l.tracker.Active()
		action, err := l.tracker.Begin(ev.Points, now)
		if err != nil {
			l.drop("empty_start", err)
			return
		}
		if opened {
			metrics.TouchSessionsTotal.Inc()
		}
		l.submit(ctx, action)

	case EventMove:
		action, ok := l.tracker.Continue(ev.Points, now)
		if !ok {
			metrics.DroppedEventsTotal.WithLabelValues("no_session").Inc()
			return
		}
		l.submit(ctx, action)

	case EventEnd:
		action, err := l.tracker.End(ev.Points, now)
		if err != nil {
			l.drop("no_session", err)
			return
		}
		l.submit(ctx, action)

	case EventWheel:
		delta := dispatch.ScrollDelta{DX: ev.DX * WheelScale, DY: ev.DY * WheelScale}
		l.detach(ctx, func(ctx context.Context) {
			l.dispatcher.SubmitOneShot(ctx, dispatch.OneShotScroll, delta)
		})

	case EventReset:
		l.detach(ctx, func(ctx context.Context) {
			if resp := l.dispatcher.SubmitOneShot(ctx, dispatch.OneShotReset, nil); resp.Success() {
				l.ack()
			}
		})

	case eventResetAck:
		l.tracker.Reset()
		l.sink.SetStatus(feedback.StatusTouchpadReset, true)

	case eventFlush:
		if ev.flushed != nil {
			close(ev.flushed)
		}

	default:
		l.logger.Warn().Str("type", string(ev.Type)).Msg("ignoring unknown event")
	}
}

func (l *Loop) submit(ctx context.Context, action touch.Action) {
	l.logger.Debug().
		Str("kind", string(action.Kind)).
		Str("touch_id", action.SessionID).
		Int("touch_count", action.FingerCount).
		Uint64("seq", action.Seq).
		Msg("dispatching touch action")

	l.detach(ctx, func(ctx context.Context) {
		l.dispatcher.Submit(ctx, action)
	})
}

// detach runs fn on its own goroutine once the previous submission has
// started. fn's context reports the start through network.WithStarted;
// returning from fn counts as started too.
func (l *Loop) detach(ctx context.Context, fn func(ctx context.Context)) {
	prev := l.started
	started := make(chan struct{})
	l.started = started

	var once sync.Once
	markStarted := func() { once.Do(func() { close(started) }) }

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer markStarted()
		if prev != nil {
			<-prev
		}
		fn(network.WithStarted(ctx, markStarted))
	}()
}

// ack hands the reset acknowledgement back to the loop goroutine.
func (l *Loop) ack() {
	select {
	case l.events <- Event{Type: eventResetAck}:
	case <-l.stopping:
	}
}

func (l *Loop) drop(reason string, err error) {
	metrics.DroppedEventsTotal.WithLabelValues(reason).Inc()
	l.logger.Debug().Err(err).Str("reason", reason).Msg("touch event dropped")
}
