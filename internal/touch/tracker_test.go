package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchbridge/internal/protocol"
)

func pts(coords ...float64) []Point {
	points := make([]Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, Point{Index: i / 2, X: coords[i], Y: coords[i+1]})
	}
	return points
}

// TestSingleFingerTap walks a one-finger start, move, end sequence.
func TestSingleFingerTap(t *testing.T) {
	tr := NewTracker()

	start, err := tr.Begin(pts(10, 20), 1000)
	require.NoError(t, err)
	assert.Equal(t, KindStart, start.Kind)
	assert.Equal(t, "touch_1000", start.SessionID)
	assert.Equal(t, 1, start.FingerCount)
	assert.Equal(t, Point{X: 10, Y: 20}, start.Position)
	assert.Equal(t, int64(1000), start.TimestampMs)

	move, ok := tr.Continue(pts(15, 25), 1016)
	require.True(t, ok)
	assert.Equal(t, KindMove, move.Kind)
	assert.Equal(t, "touch_1000", move.SessionID)
	assert.Equal(t, 1, move.FingerCount)
	assert.Equal(t, Point{X: 15, Y: 25}, move.Position)

	end, err := tr.End(nil, 1040)
	require.NoError(t, err)
	assert.Equal(t, KindEnd, end.Kind)
	assert.Equal(t, "touch_1000", end.SessionID)
	assert.Equal(t, 1, end.FingerCount)
	assert.Equal(t, Point{}, end.Position)

	assert.False(t, tr.Active())
	_, open := tr.Session()
	assert.False(t, open)
}

// TestFingerLiftedMidGesture checks that the count follows the latest event
// while the session id stays put.
func TestFingerLiftedMidGesture(t *testing.T) {
	tr := NewTracker()

	start, err := tr.Begin(pts(10, 20, 50, 60), 2000)
	require.NoError(t, err)
	assert.Equal(t, 2, start.FingerCount)
	assert.Len(t, start.Points, 2)

	move, ok := tr.Continue(pts(12, 22), 2010)
	require.True(t, ok)
	assert.Equal(t, 1, move.FingerCount)
	assert.Equal(t, "touch_2000", move.SessionID)

	end, err := tr.End(pts(12, 22), 2020)
	require.NoError(t, err)
	assert.Equal(t, 1, end.FingerCount)
	assert.Equal(t, Point{X: 12, Y: 22}, end.Position)
}

func TestEndUsesRememberedFingerCount(t *testing.T) {
	tr := NewTracker()

	_, err := tr.Begin(pts(1, 1), 10)
	require.NoError(t, err)
	_, ok := tr.Continue(pts(1, 1, 2, 2, 3, 3), 20)
	require.True(t, ok)

	end, err := tr.End(nil, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, end.FingerCount)
}

func TestSecondStartKeepsIdentity(t *testing.T) {
	tr := NewTracker()

	first, err := tr.Begin(pts(1, 1), 500)
	require.NoError(t, err)

	second, err := tr.Begin(pts(1, 1, 9, 9), 520)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.FingerCount)

	s, open := tr.Session()
	require.True(t, open)
	assert.Equal(t, int64(500), s.StartedAtMs)
	assert.Equal(t, 2, s.FingerCount)
}

func TestBeginRejectsEmptyPoints(t *testing.T) {
	tr := NewTracker()

	_, err := tr.Begin(nil, 100)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, tr.Active())

	_, err = tr.Begin(pts(1, 1), 100)
	require.NoError(t, err)
	_, err = tr.Begin([]Point{}, 110)
	assert.ErrorIs(t, err, ErrInvalidInput)

	s, open := tr.Session()
	require.True(t, open)
	assert.Equal(t, 1, s.FingerCount)
}

func TestContinueWithoutSessionIsNoop(t *testing.T) {
	tr := NewTracker()

	for i := 0; i < 3; i++ {
		_, ok := tr.Continue(pts(5, 5), int64(i))
		assert.False(t, ok)
	}
	assert.False(t, tr.Active())

	_, err := tr.Begin(pts(1, 1), 10)
	require.NoError(t, err)
	_, err = tr.End(nil, 20)
	require.NoError(t, err)

	_, ok := tr.Continue(pts(5, 5), 30)
	assert.False(t, ok)
}

func TestContinueIgnoresEmptyPoints(t *testing.T) {
	tr := NewTracker()
	_, err := tr.Begin(pts(1, 1, 2, 2), 10)
	require.NoError(t, err)

	_, ok := tr.Continue(nil, 20)
	assert.False(t, ok)

	s, _ := tr.Session()
	assert.Equal(t, 2, s.FingerCount)
}

func TestEndWithoutSession(t *testing.T) {
	tr := NewTracker()

	action, err := tr.End(nil, 100)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Equal(t, KindEnd, action.Kind)
	assert.Empty(t, action.SessionID)
	assert.Equal(t, 1, action.FingerCount)
}

func TestSessionIDStableAcrossGesture(t *testing.T) {
	tr := NewTracker()
	var actions []Action

	a, err := tr.Begin(pts(0, 0), 7000)
	require.NoError(t, err)
	actions = append(actions, a)
	for i := 1; i <= 20; i++ {
		coords := pts(float64(i), float64(i))
		if i%5 == 0 {
			coords = pts(float64(i), float64(i), 100, 100)
		}
		m, ok := tr.Continue(coords, 7000+int64(i))
		require.True(t, ok)
		actions = append(actions, m)
	}
	e, err := tr.End(nil, 7100)
	require.NoError(t, err)
	actions = append(actions, e)

	for i, act := range actions {
		assert.Equal(t, "touch_7000", act.SessionID, "action %d", i)
		assert.GreaterOrEqual(t, act.FingerCount, 1)
		if i > 0 {
			assert.Greater(t, act.Seq, actions[i-1].Seq)
		}
	}
}

func TestResetDropsSession(t *testing.T) {
	tr := NewTracker()
	_, err := tr.Begin(pts(1, 1), 10)
	require.NoError(t, err)

	tr.Reset()
	assert.False(t, tr.Active())

	next, err := tr.Begin(pts(1, 1), 50)
	require.NoError(t, err)
	assert.Equal(t, "touch_50", next.SessionID)
}

func TestActionIsSnapshot(t *testing.T) {
	tr := NewTracker()
	points := pts(1, 2)

	a, err := tr.Begin(points, 10)
	require.NoError(t, err)
	points[0].X = 99

	assert.Equal(t, float64(1), a.Points[0].X)
}

func TestActionWire(t *testing.T) {
	tr := NewTracker()

	start, err := tr.Begin(pts(10, 20, 30, 40), 1000)
	require.NoError(t, err)
	w := start.Wire()
	assert.Equal(t, protocol.ActionTouchStart, w.Action)
	assert.Equal(t, "touch_1000", w.TouchID)
	assert.Equal(t, 2, w.TouchCount)
	assert.Equal(t, []protocol.Touch{{ID: 0, X: 10, Y: 20}, {ID: 1, X: 30, Y: 40}}, w.Touches)
	assert.Equal(t, &protocol.Position{X: 10, Y: 20}, w.Position)
	assert.Equal(t, int64(1000), w.Timestamp)
	assert.NoError(t, w.Validate())

	end, err := tr.End(pts(30, 40), 1100)
	require.NoError(t, err)
	w = end.Wire()
	assert.Equal(t, protocol.ActionTouchEnd, w.Action)
	assert.Nil(t, w.Touches)
	assert.Equal(t, 2, w.TouchCount)
	assert.NoError(t, w.Validate())
}
