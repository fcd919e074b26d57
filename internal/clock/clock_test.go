package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, New().Sleep(context.Background(), 0))
}

func TestFakeClockSleepAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	assert.NoError(t, c.Sleep(context.Background(), time.Second))
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, []time.Duration{time.Second}, c.Sleeps())
}
