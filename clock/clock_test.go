package clock

import (
	"testing"
	"time"

	"github.com/judgegodwins/chess-relay/rules"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	c := New(300, epoch)

	require.Equal(t, 300, c.White)
	require.Equal(t, 300, c.Black)
	require.Equal(t, epoch, c.UpdatedAt)

	require.Equal(t, 0, New(-5, epoch).White)
}

func TestSync(t *testing.T) {
	c := New(300, epoch)
	later := epoch.Add(3 * time.Second)

	c.Sync(297, -1, later)

	require.Equal(t, 297, c.White)
	require.Equal(t, 0, c.Black)
	require.Equal(t, later, c.UpdatedAt)
}

func TestElapsed(t *testing.T) {
	c := New(300, epoch)

	require.Equal(t, 0, c.Elapsed(epoch.Add(999*time.Millisecond)))
	require.Equal(t, 2, c.Elapsed(epoch.Add(2500*time.Millisecond)))
	require.Equal(t, 0, c.Elapsed(epoch.Add(-time.Minute)))
}

func TestProject(t *testing.T) {
	c := New(300, epoch)

	p := c.Project(rules.Black, epoch.Add(10*time.Second))

	require.Equal(t, 300, p.White)
	require.Equal(t, 290, p.Black)
	// receiver untouched
	require.Equal(t, 300, c.Black)

	p = c.Project(rules.White, epoch.Add(time.Hour))
	require.Equal(t, 0, p.White)
	require.Equal(t, 300, p.Black)
}

func TestFlagged(t *testing.T) {
	c := New(300, epoch)
	_, flagged := c.Flagged()
	require.False(t, flagged)

	c.Sync(12, 0, epoch)
	color, flagged := c.Flagged()
	require.True(t, flagged)
	require.Equal(t, rules.Black, color)
	require.Equal(t, 12, c.Get(rules.White))
}

func TestClockNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(rapid.IntRange(-100, 1000).Draw(t, "start"), epoch)

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		now := epoch
		for i := 0; i < steps; i++ {
			now = now.Add(time.Duration(rapid.IntRange(0, 5000).Draw(t, "ms")) * time.Millisecond)
			c.Sync(rapid.IntRange(-100, 1000).Draw(t, "white"), rapid.IntRange(-100, 1000).Draw(t, "black"), now)

			active := rapid.SampledFrom([]rules.Color{rules.White, rules.Black}).Draw(t, "active")
			p := c.Project(active, now.Add(time.Duration(rapid.IntRange(0, 600).Draw(t, "ahead"))*time.Second))

			if c.White < 0 || c.Black < 0 || p.White < 0 || p.Black < 0 {
				t.Fatalf("negative clock: %+v projected %+v", c, p)
			}
		}
	})
}
