// Package clock tracks the remaining time of both colors in a timed room.
//
// Values are reported by clients; the coordinator stores and re-broadcasts
// them. Elapsed time is only derived for read-only projections.
package clock

import (
	"time"

	"github.com/judgegodwins/chess-relay/rules"
)

// Clock holds remaining whole seconds per color and when they were last set.
type Clock struct {
	White     int       `json:"whiteTime"`
	Black     int       `json:"blackTime"`
	UpdatedAt time.Time `json:"-"`
}

func New(start int, now time.Time) *Clock {
	start = clamp(start)
	return &Clock{White: start, Black: start, UpdatedAt: now}
}

// Sync stores client-reported values. Negative values are stored as 0.
func (c *Clock) Sync(white, black int, now time.Time) {
	c.White = clamp(white)
	c.Black = clamp(black)
	c.UpdatedAt = now
}

// Elapsed returns whole seconds since the last update.
func (c *Clock) Elapsed(now time.Time) int {
	if now.Before(c.UpdatedAt) {
		return 0
	}
	return int(now.Sub(c.UpdatedAt) / time.Second)
}

// Project returns a copy with the active color's clock decremented by the
// elapsed time. The receiver is not modified.
func (c *Clock) Project(active rules.Color, now time.Time) Clock {
	projected := *c
	elapsed := c.Elapsed(now)

	switch active {
	case rules.White:
		projected.White = clamp(c.White - elapsed)
	case rules.Black:
		projected.Black = clamp(c.Black - elapsed)
	}

	projected.UpdatedAt = now
	return projected
}

// Get returns the remaining seconds for color.
func (c *Clock) Get(color rules.Color) int {
	if color == rules.White {
		return c.White
	}
	return c.Black
}

// Flagged reports the first color whose clock has run out.
func (c *Clock) Flagged() (rules.Color, bool) {
	switch {
	case c.White == 0:
		return rules.White, true
	case c.Black == 0:
		return rules.Black, true
	}
	return "", false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
