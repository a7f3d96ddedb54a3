package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchbridge/internal/dispatch"
	"touchbridge/internal/frontend"
	"touchbridge/internal/network"
	"touchbridge/internal/protocol"
	"touchbridge/internal/touch"
)

const twoFingerTap = `
name: two finger tap
steps:
  - type: start
    touches: [{x: 10, y: 10}, {x: 40, y: 10}]
  - delay_ms: 80
    type: end
  - delay_ms: 20
    type: wheel
    dy: -120
`

type recordingPoster struct {
	mu     sync.Mutex
	events []frontend.Event
}

func (p *recordingPoster) Post(_ context.Context, ev frontend.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestParse(t *testing.T) {
	script, err := Parse(strings.NewReader(twoFingerTap))
	require.NoError(t, err)

	assert.Equal(t, "two finger tap", script.Name)
	require.Len(t, script.Steps, 3)
	assert.Equal(t, 80, script.Steps[1].DelayMs)

	ev, err := script.Steps[0].Event()
	require.NoError(t, err)
	assert.Equal(t, frontend.EventStart, ev.Type)
	assert.Len(t, ev.Points, 2)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown type":  "steps:\n  - type: pinch\n",
		"no steps":      "name: empty\n",
		"negative wait": "steps:\n  - type: end\n    delay_ms: -1\n",
		"unknown field": "steps:\n  - type: end\n    pressure: 3\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoFingerTap), 0600))

	script, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, script.Steps, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlayWaitsOnClock(t *testing.T) {
	script, err := Parse(strings.NewReader(twoFingerTap))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	runner := NewRunner(poster, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.Play(ctx, script) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, poster.count())

	clock.Advance(80 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, poster.count())

	clock.Advance(20 * time.Millisecond)
	require.NoError(t, <-done)

	require.Equal(t, 3, poster.count())
	assert.Equal(t, frontend.EventEnd, poster.events[1].Type)
	assert.Equal(t, frontend.EventWheel, poster.events[2].Type)
	assert.Equal(t, -120.0, poster.events[2].DY)
}

func TestPlayStopsOnCancel(t *testing.T) {
	script, err := Parse(strings.NewReader(twoFingerTap))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	poster := &recordingPoster{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewRunner(poster, clock).Play(ctx, script) }()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, poster.count())
}

// orderedSubmitter records actions in the order their requests start.
type orderedSubmitter struct {
	mu      sync.Mutex
	actions []touch.Action
}

func (s *orderedSubmitter) Submit(ctx context.Context, a touch.Action) *protocol.Response {
	s.mu.Lock()
	s.actions = append(s.actions, a)
	s.mu.Unlock()
	network.RequestStarted(ctx)
	runtime.Gosched()
	return &protocol.Response{Status: protocol.StatusSuccess}
}

func (s *orderedSubmitter) SubmitOneShot(context.Context, dispatch.OneShot, any) *protocol.Response {
	return &protocol.Response{Status: protocol.StatusSuccess}
}

func TestPlayWithoutDelaysKeepsOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("name: burst\nsteps:\n")
	for i := 0; i < 50; i++ {
		b.WriteString("  - type: start\n    touches: [{x: 1, y: 1}]\n")
		for j := 0; j < 3; j++ {
			fmt.Fprintf(&b, "  - type: move\n    touches: [{x: %d, y: 1}]\n", j+2)
		}
		b.WriteString("  - type: end\n")
	}
	script, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)

	sub := &orderedSubmitter{}
	loop := frontend.NewLoop(sub, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.NoError(t, NewRunner(loop, nil).Play(ctx, script))
	require.NoError(t, loop.Flush(ctx))
	cancel()
	<-done

	require.Len(t, sub.actions, 250)
	for i, a := range sub.actions {
		want := touch.KindMove
		switch i % 5 {
		case 0:
			want = touch.KindStart
		case 4:
			want = touch.KindEnd
		}
		assert.Equal(t, want, a.Kind, "action %d", i)
		if i > 0 {
			assert.Less(t, sub.actions[i-1].Seq, a.Seq, "action %d", i)
		}
	}
}
