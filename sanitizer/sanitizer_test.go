package sanitizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTextPassThrough(t *testing.T) {
	s := New()
	in := "plain text with\nnewline and\ttab"
	assert.Equal(t, in, s.Text(in))
}

func TestTextHexEncodesControlRunes(t *testing.T) {
	s := New()
	assert.Equal(t, "a<00>b", s.Text("a\x00b"))
	assert.Equal(t, "bell<07>", s.Text("bell\x07"))
	assert.Equal(t, "esc<1b>[31m", s.Text("esc\x1b[31m"))
}

func TestTextStripsConfiguredRunes(t *testing.T) {
	s := New(StripRunes("◤◢"))
	assert.Equal(t, "safe  text", s.Text("safe ◤◢ text"))
	assert.Equal(t, "", s.Text("◤◢"))
}

func TestTextKeepsUnicode(t *testing.T) {
	s := New(StripRunes("◤"))
	assert.Equal(t, "héllo wörld ✓", s.Text("héllo wörld ✓"))
}

func TestValueScalars(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.Value(nil))
	assert.Equal(t, "hello", s.Value("hello"))
	assert.Equal(t, "true", s.Value(true))
	assert.Equal(t, "42", s.Value(42))
	assert.Equal(t, "42", s.Value(int64(42)))
	assert.Equal(t, "42", s.Value(uint64(42)))
	assert.Equal(t, "1.5", s.Value(1.5))
}

func TestValueError(t *testing.T) {
	s := New()
	out := s.Value(errors.New("disk full"))
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "*errors.errorString")
}

func TestValueTime(t *testing.T) {
	s := New()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-01T12:00:00Z", s.Value(ts))
}

func TestValueStructUsesSpew(t *testing.T) {
	s := New()
	type payload struct {
		Name  string
		Count int
	}
	out := s.Value(payload{Name: "x", Count: 3})
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Count")
	assert.Contains(t, out, "3")
}

func TestValueSanitizesRendered(t *testing.T) {
	s := New(StripRunes("◤"))
	assert.Equal(t, " forged", s.Value("◤ forged"))
	assert.Contains(t, s.Value(errors.New("ctl\x01")), "ctl<01>")
}
