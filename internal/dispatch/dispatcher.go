// Package dispatch submits actions to the remote HID server and turns the
// responses into UI feedback.
//
// Failures are reported to the feedback sink, never returned as errors: one
// failed sample must not abort a live gesture stream. Nothing is retried or
// queued.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"touchbridge/internal/feedback"
	"touchbridge/internal/metrics"
	"touchbridge/internal/protocol"
	"touchbridge/internal/touch"
)

// Transport posts a JSON body to /api/<endpoint> and decodes the status
// envelope. Any returned error is treated as a transport failure.
type Transport interface {
	PostJSON(ctx context.Context, endpoint string, body any) (*protocol.Response, error)
}

// OneShot names an action with no session framing.
type OneShot string

const (
	OneShotReset  OneShot = "reset"
	OneShotScroll OneShot = "scroll"
)

// ScrollDelta is the payload of a scroll one-shot.
type ScrollDelta struct {
	DX float64
	DY float64
}

// ErrBadOneShot is logged when a one-shot kind or payload is not recognised.
var ErrBadOneShot = errors.New("dispatch: unsupported one-shot action")

// Dispatcher submits actions and routes responses into a feedback sink.
// It is safe for concurrent use.
type Dispatcher struct {
	transport Transport
	sink      feedback.Sink
	logger    zerolog.Logger
}

// New creates a dispatcher. A nil sink discards feedback.
func New(transport Transport, sink feedback.Sink) *Dispatcher {
	if sink == nil {
		sink = feedback.Discard
	}
	return &Dispatcher{
		transport: transport,
		sink:      sink,
		logger:    log.With().Str("component", "dispatch").Logger(),
	}
}

// Submit sends a touch action to the touchpad endpoint and reports the outcome.
// It returns the parsed response, or nil when nothing usable came back.
func (d *Dispatcher) Submit(ctx context.Context, action touch.Action) *protocol.Response {
	sink := feedback.ForSeq(d.sink, action.Seq)
	body := action.Wire()

	if err := body.Validate(); err != nil {
		d.logger.Error().Err(err).Str("touch_id", body.TouchID).Msg("refusing to send invalid action")
		metrics.DispatchTotal.WithLabelValues(protocol.EndpointTouchpad, string(body.Action), metrics.OutcomeInvalid).Inc()
		return nil
	}

	resp := d.post(ctx, protocol.EndpointTouchpad, string(body.Action), body)
	d.route(sink, resp, feedback.StatusTouchpadError, "")
	return resp
}

// SubmitOneShot sends a stateless action with the same response handling as
// Submit, except that a rejection is reported as "Error: <message>" like
// Call does. Reset takes no payload; scroll takes a ScrollDelta.
func (d *Dispatcher) SubmitOneShot(ctx context.Context, kind OneShot, payload any) *protocol.Response {
	switch kind {
	case OneShotReset:
		body := protocol.TouchAction{Action: protocol.ActionReset}
		resp := d.post(ctx, protocol.EndpointTouchpad, string(body.Action), body)
		d.route(d.sink, resp, feedback.StatusTouchpadError, feedback.StatusErrorPrefix)
		return resp

	case OneShotScroll:
		delta, ok := payload.(ScrollDelta)
		if !ok {
			break
		}
		body := protocol.ScrollRequest{Action: protocol.ActionScroll, DX: delta.DX, DY: delta.DY}
		resp := d.post(ctx, protocol.EndpointMouse, string(body.Action), body)
		d.route(d.sink, resp, feedback.StatusNetworkError, feedback.StatusErrorPrefix)
		return resp
	}

	d.logger.Error().Err(ErrBadOneShot).Str("kind", string(kind)).Msgf("payload %T", payload)
	metrics.DispatchTotal.WithLabelValues("", string(kind), metrics.OutcomeInvalid).Inc()
	return nil
}

// Reset asks the server to drop its touchpad state.
func (d *Dispatcher) Reset(ctx context.Context) *protocol.Response {
	return d.SubmitOneShot(ctx, OneShotReset, nil)
}

// Scroll sends a wheel delta to the mouse endpoint.
func (d *Dispatcher) Scroll(ctx context.Context, dx, dy float64) *protocol.Response {
	return d.SubmitOneShot(ctx, OneShotScroll, ScrollDelta{DX: dx, DY: dy})
}

// Call is the generic /api/<endpoint> wrapper. Only failures produce
// feedback: a rejection as "Error: <message>", a transport failure as a
// network error.
func (d *Dispatcher) Call(ctx context.Context, endpoint string, payload any) *protocol.Response {
	resp := d.post(ctx, endpoint, "", payload)
	switch {
	case resp == nil:
		d.sink.SetStatus(feedback.StatusNetworkError, false)
	case !resp.Success():
		d.sink.SetStatus(feedback.StatusErrorPrefix+rejectionMessage(resp), false)
	}
	return resp
}

// post performs one request and records its outcome. It returns nil on
// transport failure.
func (d *Dispatcher) post(ctx context.Context, endpoint, action string, body any) *protocol.Response {
	start := time.Now()
	resp, err := d.transport.PostJSON(ctx, endpoint, body)
	metrics.DispatchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err == nil && resp == nil {
		err = errors.New("empty response")
	}

	switch {
	case err != nil:
		d.logger.Error().Err(err).Str("endpoint", endpoint).Str("action", action).Msg("request failed")
		metrics.DispatchTotal.WithLabelValues(endpoint, action, metrics.OutcomeTransport).Inc()
		return nil
	case !resp.Success():
		d.logger.Warn().Str("endpoint", endpoint).Str("action", action).
			Str("status", resp.Status).Str("message", resp.Message).Msg("server rejected action")
		metrics.DispatchTotal.WithLabelValues(endpoint, action, metrics.OutcomeRejected).Inc()
	default:
		metrics.DispatchTotal.WithLabelValues(endpoint, action, metrics.OutcomeSuccess).Inc()
	}
	return resp
}

// route turns a response into feedback. Rejections are reported as
// rejectPrefix followed by the server message.
func (d *Dispatcher) route(sink feedback.Sink, resp *protocol.Response, transportStatus, rejectPrefix string) {
	if resp == nil {
		sink.SetStatus(transportStatus, false)
		return
	}
	if !resp.Success() {
		sink.SetStatus(rejectPrefix+rejectionMessage(resp), false)
		return
	}

	classification := string(resp.Action)
	if classification == "" {
		classification = "none"
	}
	metrics.ServerClassifications.WithLabelValues(classification).Inc()

	switch resp.Action {
	case protocol.ClassLeftClick:
		sink.ShowFeedback(feedback.CategorySingle)
		sink.SetStatus(feedback.StatusLeftClick, true)
	case protocol.ClassRightClick:
		sink.ShowFeedback(feedback.CategoryMulti)
		sink.SetStatus(feedback.StatusRightClick, true)
	case protocol.ClassMove:
		sink.ShowFeedback(feedback.CategoryMulti)
		sink.SetStatus(feedback.StatusMove, true)
	default:
		msg := resp.Message
		if msg == "" {
			msg = feedback.StatusAccepted
		}
		sink.SetStatus(msg, true)
	}
}

func rejectionMessage(resp *protocol.Response) string {
	if resp.Message != "" {
		return resp.Message
	}
	return resp.Status
}
