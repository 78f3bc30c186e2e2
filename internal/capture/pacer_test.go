package capture

import (
	"testing"
	"time"
)

func TestPacer(t *testing.T) {
	clock := time.Unix(1000, 0)
	p := NewPacer()
	p.now = func() time.Time { return clock }

	if p.FPS() != IdleFPS || p.Active() {
		t.Fatalf("initial state = %d fps, active %v", p.FPS(), p.Active())
	}
	if p.Interval() != 200*time.Millisecond {
		t.Errorf("idle interval = %v", p.Interval())
	}

	steps := []struct {
		name        string
		advance     time.Duration
		motion      bool
		wantFPS     int
		wantChanged bool
	}{
		{"still", 0, false, IdleFPS, false},
		{"motion starts", 0, true, ActiveFPS, true},
		{"motion continues", 500 * time.Millisecond, true, ActiveFPS, false},
		{"quiet within timeout", time.Second, false, ActiveFPS, false},
		{"quiet at timeout", time.Second, false, ActiveFPS, false},
		{"quiet past timeout", time.Millisecond, false, IdleFPS, true},
		{"stays idle", time.Second, false, IdleFPS, false},
	}

	for _, s := range steps {
		clock = clock.Add(s.advance)
		fps, changed := p.Observe(s.motion)
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: Observe() = %d, %v; want %d, %v", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}
