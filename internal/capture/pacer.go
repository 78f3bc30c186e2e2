package capture

import (
	"sync"
	"time"
)

// Frame rates used by Pacer.
const (
	// IdleFPS is the capture rate while nothing moves.
	IdleFPS = 5
	// ActiveFPS is the capture rate while motion is seen.
	ActiveFPS = 15
	// IdleTimeout is how long without motion before falling back to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// Pacer switches between idle and active frame rates based on motion.
// It only changes how often frames are read; every frame read is processed.
type Pacer struct {
	mu         sync.Mutex
	active     bool
	lastMotion time.Time
	now        func() time.Time
}

func NewPacer() *Pacer {
	return &Pacer{now: time.Now}
}

// Observe records whether the latest frame had motion. It returns the frame
// rate to use and whether it changed.
func (p *Pacer) Observe(motion bool) (fps int, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	switch {
	case motion:
		p.lastMotion = now
		if !p.active {
			p.active = true
			changed = true
		}
	case p.active && now.Sub(p.lastMotion) > IdleTimeout:
		p.active = false
		changed = true
	}

	return p.fpsLocked(), changed
}

// Active reports whether the active rate is in effect.
func (p *Pacer) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// FPS returns the current frame rate.
func (p *Pacer) FPS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fpsLocked()
}

// Interval returns the delay between frames at the current rate.
func (p *Pacer) Interval() time.Duration {
	return time.Second / time.Duration(p.FPS())
}

func (p *Pacer) fpsLocked() int {
	if p.active {
		return ActiveFPS
	}
	return IdleFPS
}
