package touch

// Tracker owns the single in-flight touch session.
//
// A Tracker is not safe for concurrent use; it is meant to be owned by one
// event loop goroutine.
type Tracker struct {
	session *Session
	seq     uint64
}

// NewTracker creates a tracker with no open session.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin opens a session, or re-counts the open one, and returns the start action.
// An open session keeps its id and start time; only the finger count changes.
func (t *Tracker) Begin(points []Point, nowMs int64) (Action, error) {
	if len(points) == 0 {
		return Action{}, ErrInvalidInput
	}

	if t.session == nil {
		t.session = &Session{
			ID:          sessionID(nowMs),
			StartedAtMs: nowMs,
		}
	}
	t.session.FingerCount = len(points)

	return t.build(KindStart, points, nowMs), nil
}

// Continue returns a move action for the open session. ok is false, and nothing
// should be dispatched, when no session is open or no points were reported.
func (t *Tracker) Continue(points []Point, nowMs int64) (action Action, ok bool) {
	if t.session == nil || len(points) == 0 {
		return Action{}, false
	}

	t.session.FingerCount = len(points)
	return t.build(KindMove, points, nowMs), true
}

// End returns the end action and closes the session. The finger count is the
// one recorded at the last Begin/Continue, since end events usually report no
// remaining contacts.
//
// Without an open session End returns a sentinel action with an empty session
// id together with ErrNoActiveSession; it must not be dispatched.
func (t *Tracker) End(points []Point, nowMs int64) (Action, error) {
	if t.session == nil {
		t.seq++
		return Action{
			Kind:        KindEnd,
			FingerCount: 1,
			Position:    primary(points),
			TimestampMs: nowMs,
			Seq:         t.seq,
		}, ErrNoActiveSession
	}

	action := t.build(KindEnd, points, nowMs)
	t.session = nil
	return action, nil
}

// Reset drops the open session, if any, without building an action.
func (t *Tracker) Reset() {
	t.session = nil
}

// Session returns a copy of the open session.
func (t *Tracker) Session() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Active reports whether a session is open.
func (t *Tracker) Active() bool {
	return t.session != nil
}

func (t *Tracker) build(kind Kind, points []Point, nowMs int64) Action {
	t.seq++
	snapshot := make([]Point, len(points))
	copy(snapshot, points)

	return Action{
		Kind:        kind,
		SessionID:   t.session.ID,
		FingerCount: t.session.FingerCount,
		Points:      snapshot,
		Position:    primary(points),
		TimestampMs: nowMs,
		Seq:         t.seq,
	}
}

func primary(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	return Point{X: points[0].X, Y: points[0].Y}
}
