package slideshow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerToggle(t *testing.T) {
	p := New(0, nil)
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.False(t, p.IsPlaying())
	assert.True(t, p.Toggle())
	assert.False(t, p.Toggle())
}

func TestPlayerPauseForOperation(t *testing.T) {
	p := New(time.Second, nil)

	p.Play()
	p.Pause(true)
	assert.False(t, p.IsPlaying())
	p.ResumeAfterOperation()
	assert.True(t, p.IsPlaying())

	// A second resume does nothing once the flag is consumed.
	p.Pause(false)
	p.ResumeAfterOperation()
	assert.False(t, p.IsPlaying())

	// Pausing an already paused player for an operation keeps it paused.
	p.Pause(true)
	p.ResumeAfterOperation()
	assert.False(t, p.IsPlaying())
}

func TestPlayerRunAdvancesOnlyWhilePlaying(t *testing.T) {
	var ticks atomic.Int32
	p := New(5*time.Millisecond, func() { ticks.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, ticks.Load())

	p.Play()
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
