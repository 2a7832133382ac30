package domain

import (
	"strings"
	"time"
)

// StandupBuffer accumulates member contributions during a timed window.
// At most one window is active per channel; the flush on deadline
// produces a single message authored by the starter.
type StandupBuffer struct {
	Active    bool
	Deadline  time.Time
	StarterID UserID
	Lines     []string
}

// Append records one contribution, already formatted as "<handle>: <text>".
func (b *StandupBuffer) Append(line string) {
	b.Lines = append(b.Lines, line)
}

// Flush returns the accumulated blob (newline-separated, submission
// order) and resets the buffer to idle.
func (b *StandupBuffer) Flush() string {
	blob := strings.Join(b.Lines, "\n")
	*b = StandupBuffer{}
	return blob
}

func (b StandupBuffer) Clone() StandupBuffer {
	c := b
	c.Lines = append([]string(nil), b.Lines...)
	return c
}
