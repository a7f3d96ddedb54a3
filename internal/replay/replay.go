// Package replay drives the touch loop from a recorded YAML script.
//
// A script is a list of steps. Each step waits DelayMs on the clock and then
// posts one event:
//
//	name: two finger tap
//	steps:
//	  - type: start
//	    touches: [{x: 10, y: 10}, {x: 40, y: 10}]
//	  - delay_ms: 80
//	    type: end
package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"touchbridge/internal/frontend"
	"touchbridge/internal/protocol"
)

// Point is a touch coordinate in a script.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Step is one scripted event.
type Step struct {
	DelayMs int     `yaml:"delay_ms" validate:"gte=0"`
	Type    string  `yaml:"type" validate:"required,oneof=start move end wheel reset"`
	Touches []Point `yaml:"touches"`
	DX      float64 `yaml:"dx"`
	DY      float64 `yaml:"dy"`
}

// Script is a named sequence of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Event converts the step into a loop event.
func (s Step) Event() (frontend.Event, error) {
	msg := protocol.PageEvent{Type: protocol.PageEventType(s.Type), DX: s.DX, DY: s.DY}
	for _, p := range s.Touches {
		msg.Touches = append(msg.Touches, protocol.PagePoint{X: p.X, Y: p.Y})
	}
	return frontend.EventFromPage(msg)
}

// Parse reads and validates a script.
func Parse(r io.Reader) (*Script, error) {
	var script Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := validator.New().Struct(&script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &script, nil
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Poster accepts loop events.
type Poster interface {
	Post(ctx context.Context, ev frontend.Event) error
}

// Runner plays scripts on a clock.
type Runner struct {
	clock clockwork.Clock
	loop  Poster
}

// NewRunner creates a runner. A nil clock uses real time.
func NewRunner(loop Poster, clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock, loop: loop}
}

// Play posts every step in order. It stops at the first error or when ctx is done.
func (r *Runner) Play(ctx context.Context, script *Script) error {
	logger := log.With().Str("component", "replay").Str("script", script.Name).Logger()
	logger.Info().Int("steps", len(script.Steps)).Msg("replay started")

	for i, step := range script.Steps {
		if step.DelayMs > 0 {
			select {
			case <-r.clock.After(time.Duration(step.DelayMs) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		ev, err := step.Event()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := r.loop.Post(ctx, ev); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		logger.Debug().Int("step", i).Str("type", step.Type).Msg("posted")
	}

	logger.Info().Msg("replay finished")
	return nil
}
