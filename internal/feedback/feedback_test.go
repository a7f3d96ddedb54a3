package feedback

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu       sync.Mutex
	feedback []Category
	statuses []string
}

func (r *recorder) ShowFeedback(c Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, c)
}

func (r *recorder) SetStatus(msg string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
}

func TestFenceDropsStaleResponses(t *testing.T) {
	rec := &recorder{}
	f := NewFence(rec)

	ForSeq(f, 3).SetStatus("third", true)
	ForSeq(f, 1).SetStatus("first", true)
	ForSeq(f, 1).ShowFeedback(CategorySingle)
	ForSeq(f, 4).ShowFeedback(CategoryMulti)
	ForSeq(f, 4).SetStatus("fourth", true)

	assert.Equal(t, []string{"third", "fourth"}, rec.statuses)
	assert.Equal(t, []Category{CategoryMulti}, rec.feedback)
}

func TestFenceAdmitsResponseAsAWhole(t *testing.T) {
	rec := &recorder{}
	f := NewFence(rec)

	older := ForSeq(f, 1)
	older.ShowFeedback(CategorySingle)
	ForSeq(f, 2).SetStatus("newer", true)
	older.SetStatus("older", true)

	stale := ForSeq(f, 1)
	stale.ShowFeedback(CategoryMulti)
	stale.SetStatus("stale", true)

	assert.Equal(t, []Category{CategorySingle}, rec.feedback)
	assert.Equal(t, []string{"newer", "older"}, rec.statuses)
}

func TestFenceLetsUnsequencedThrough(t *testing.T) {
	rec := &recorder{}
	f := NewFence(rec)

	ForSeq(f, 10).SetStatus("sample", true)
	ForSeq(f, 0).SetStatus("reset", true)
	f.SetStatus("direct", false)

	assert.Equal(t, []string{"sample", "reset", "direct"}, rec.statuses)
}

func TestForSeqWithoutFence(t *testing.T) {
	rec := &recorder{}
	assert.Same(t, rec, ForSeq(rec, 5))
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	s := Tee(a, b, Discard)

	s.ShowFeedback(CategorySingle)
	s.SetStatus(StatusLeftClick, true)

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []Category{CategorySingle}, r.feedback)
		assert.Equal(t, []string{StatusLeftClick}, r.statuses)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(zerolog.New(&buf))

	s.SetStatus(StatusTouchpadError, false)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"connected":false`)
	assert.Contains(t, out, StatusTouchpadError)
	assert.Contains(t, out, `"component":"feedback"`)
}
