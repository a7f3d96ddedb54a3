// Package touch tracks touch sessions and builds the actions forwarded to the
// remote HID server.
package touch

import (
	"errors"
	"strconv"

	"touchbridge/internal/protocol"
)

var (
	// ErrInvalidInput is returned when an operation that needs contact points gets none
	ErrInvalidInput = errors.New("touch: no contact points")

	// ErrNoActiveSession is returned by End when no session is open
	ErrNoActiveSession = errors.New("touch: no active session")
)

// Kind is the phase of a session an Action describes.
type Kind string

const (
	KindStart Kind = "start"
	KindMove  Kind = "move"
	KindEnd   Kind = "end"
)

// wireAction maps a Kind to its "action" value on the wire.
var wireAction = map[Kind]protocol.ActionType{
	KindStart: protocol.ActionTouchStart,
	KindMove:  protocol.ActionTouchMove,
	KindEnd:   protocol.ActionTouchEnd,
}

// Point is one observed contact. Index is the order of appearance within the
// event, not a persistent per-finger id.
type Point struct {
	Index int
	X     float64
	Y     float64
}

// Session is the gesture currently being tracked.
type Session struct {
	ID          string
	StartedAtMs int64
	FingerCount int
}

func sessionID(startedAtMs int64) string {
	return "touch_" + strconv.FormatInt(startedAtMs, 10)
}

// Action is an immutable snapshot of a session at one event.
type Action struct {
	Kind        Kind
	SessionID   string
	FingerCount int
	Points      []Point
	Position    Point // first point, or the zero point
	TimestampMs int64

	// Seq increases by one for every action a Tracker builds. It is local only
	// and lets feedback consumers discard responses to older samples.
	Seq uint64
}

// Wire converts the action to the body POSTed to /api/touchpad.
func (a Action) Wire() protocol.TouchAction {
	w := protocol.TouchAction{
		Action:     wireAction[a.Kind],
		TouchID:    a.SessionID,
		TouchCount: a.FingerCount,
		Position:   &protocol.Position{X: a.Position.X, Y: a.Position.Y},
		Timestamp:  a.TimestampMs,
	}
	if a.Kind == KindEnd {
		return w
	}

	w.Touches = make([]protocol.Touch, len(a.Points))
	for i, p := range a.Points {
		w.Touches[i] = protocol.Touch{ID: p.Index, X: p.X, Y: p.Y}
	}
	return w
}
