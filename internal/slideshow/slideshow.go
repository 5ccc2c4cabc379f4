// Package slideshow advances the detail view on a timer.
package slideshow

import (
	"context"
	"sync"
	"time"
)

const DefaultInterval = 3 * time.Second

// Player calls an advance function at a fixed interval while playing.
type Player struct {
	mu                 sync.Mutex
	playing            bool
	wasPlayingBeforeOp bool
	interval           time.Duration
	advance            func()
}

// New creates a paused player. advance is called from the player's own
// goroutine; callers marshal it onto their UI thread.
func New(interval time.Duration, advance func()) *Player {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Player{interval: interval, advance: advance}
}

// Toggle flips between playing and paused and returns the new state.
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	p.wasPlayingBeforeOp = false
	return p.playing
}

// Play starts advancing.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.wasPlayingBeforeOp = false
}

// Pause stops advancing. With forOperation set the current state is
// remembered for ResumeAfterOperation.
func (p *Player) Pause(forOperation bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if forOperation {
		p.wasPlayingBeforeOp = p.playing
	} else {
		p.wasPlayingBeforeOp = false
	}
	p.playing = false
}

// ResumeAfterOperation resumes only if Pause(true) interrupted playback.
func (p *Player) ResumeAfterOperation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wasPlayingBeforeOp {
		p.playing = true
	}
	p.wasPlayingBeforeOp = false
}

// IsPlaying reports whether the player is advancing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Interval is the time between advances.
func (p *Player) Interval() time.Duration {
	return p.interval
}

// Run ticks until ctx is cancelled, calling advance on every tick while
// playing.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.IsPlaying() && p.advance != nil {
				p.advance()
			}
		}
	}
}
