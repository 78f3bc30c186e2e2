package app

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mimic/internal/capture"
	"github.com/ayusman/mimic/internal/detector"
	"github.com/ayusman/mimic/internal/gesture"
	"github.com/ayusman/mimic/internal/notify"
	"github.com/ayusman/mimic/internal/overlay"
	"github.com/ayusman/mimic/internal/store"
	"github.com/ayusman/mimic/internal/tracker"
)

type recordingSink struct {
	mu     sync.Mutex
	frames int
	events []notify.Event
}

func (s *recordingSink) PublishMat(frame *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *recordingSink) Broadcast(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := v.(notify.Event); ok {
		s.events = append(s.events, e)
	}
	return nil
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, len(s.events)
}

func (s *recordingSink) labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Label
	}
	return out
}

type fixture struct {
	app      *App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	sink     *recordingSink
	store    *store.Store
}

func solidAsset(c color.NRGBA, size int) *overlay.Asset {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return overlay.NewAsset(img)
}

func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	frame := blankFrame()
	t.Cleanup(func() { frame.Close() })

	table := overlay.NewTable(map[gesture.Label]*overlay.Asset{
		gesture.FingerUp: solidAsset(color.NRGBA{R: 255, A: 255}, 20),
	})

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	sink := &recordingSink{}

	a, err := New(Config{
		Camera:   cam,
		Detector: det,
		Tracker:  tracker.New(table, overlay.DefaultPlacement(), 2),
		Store:    s,
		Frames:   sink,
		Events:   sink,
		CameraID: 3,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return &fixture{app: a, camera: cam, detector: det, sink: sink, store: s}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	frame := blankFrame()
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, false)
	tr := tracker.New(nil, overlay.DefaultPlacement(), 0)

	tests := []struct {
		name   string
		config Config
	}{
		{"no camera", Config{Detector: detector.NewMockDetector(), Tracker: tr}},
		{"no detector", Config{Camera: cam, Tracker: tr}},
		{"no tracker", Config{Camera: cam, Detector: detector.NewMockDetector()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApp_ProcessFrame_FingerUp(t *testing.T) {
	f := newFixture(t)
	f.detector.SetHands([]detector.Hand{detector.FingerUpLandmarks()})

	var changed []gesture.Label
	f.app.OnLabel(func(l gesture.Label) { changed = append(changed, l) })

	frame := blankFrame()
	defer frame.Close()

	res, err := f.app.ProcessFrame(&frame)
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if res.Label != gesture.FingerUp {
		t.Errorf("label = %s, want %s", res.Label, gesture.FingerUp)
	}
	if !res.Drawn {
		t.Error("expected the overlay to be drawn")
	}
	if f.app.Label() != gesture.FingerUp {
		t.Errorf("Label() = %s, want %s", f.app.Label(), gesture.FingerUp)
	}

	view, err := overlay.FrameFromMat(&frame)
	if err != nil {
		t.Fatalf("FrameFromMat() error = %v", err)
	}
	origin := overlay.DefaultPlacement().Origin(view.Width)
	b, g, r := view.BGR(origin.X+5, origin.Y+5)
	if b != 0 || g != 0 || r != 255 {
		t.Errorf("overlay pixel = (%d,%d,%d), want (0,0,255)", b, g, r)
	}

	if len(changed) != 1 || changed[0] != gesture.FingerUp {
		t.Errorf("callbacks = %v, want [%s]", changed, gesture.FingerUp)
	}
	frames, events := f.sink.counts()
	if frames != 1 || events != 1 {
		t.Errorf("sink frames=%d events=%d, want 1 and 1", frames, events)
	}
}

func TestApp_ProcessFrame_NoHands(t *testing.T) {
	f := newFixture(t)

	frame := blankFrame()
	defer frame.Close()

	res, err := f.app.ProcessFrame(&frame)
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if res.Label != gesture.Neutral || res.Drawn {
		t.Errorf("result = %+v, want neutral without overlay", res)
	}

	view, _ := overlay.FrameFromMat(&frame)
	for i, v := range view.Pix {
		if v != 0 {
			t.Fatalf("pixel byte %d = %d, frame should be untouched", i, v)
		}
	}

	if _, events := f.sink.counts(); events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
}

func TestApp_ProcessFrame_LabelChanges(t *testing.T) {
	f := newFixture(t)

	steps := []struct {
		hands []detector.Hand
	}{
		{[]detector.Hand{detector.FingerUpLandmarks()}},
		{[]detector.Hand{detector.FingerUpLandmarks()}},
		{[]detector.Hand{detector.HandChestLandmarks()}},
		{nil},
		{[]detector.Hand{detector.HandChestLandmarks()}},
		{[]detector.Hand{detector.FistLandmarks()}},
	}

	for i, step := range steps {
		f.detector.SetHands(step.hands)
		frame := blankFrame()
		if _, err := f.app.ProcessFrame(&frame); err != nil {
			t.Fatalf("step %d: ProcessFrame() error = %v", i, err)
		}
		frame.Close()
	}

	want := []string{
		string(gesture.FingerUp),
		string(gesture.HandChest),
		string(gesture.HandChest),
		string(gesture.Neutral),
	}
	got := f.sink.labels()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestApp_ProcessFrame_SkipsBadDetections(t *testing.T) {
	f := newFixture(t)

	t.Run("detector error", func(t *testing.T) {
		f.detector.SetError(errors.New("model crashed"))
		defer f.detector.SetError(nil)

		frame := blankFrame()
		defer frame.Close()

		if _, err := f.app.ProcessFrame(&frame); err == nil {
			t.Fatal("expected error")
		}
		if frames, _ := f.sink.counts(); frames != 0 {
			t.Errorf("frames published = %d, want 0", frames)
		}
	})

	t.Run("missing handedness", func(t *testing.T) {
		bad := detector.FingerUpLandmarks()
		bad.Handedness = detector.HandUnknown
		f.detector.SetHands([]detector.Hand{bad})

		frame := blankFrame()
		defer frame.Close()

		_, err := f.app.ProcessFrame(&frame)
		if !errors.Is(err, detector.ErrMissingHandedness) {
			t.Fatalf("error = %v, want ErrMissingHandedness", err)
		}
	})

	t.Run("loop keeps running afterwards", func(t *testing.T) {
		f.detector.SetHands([]detector.Hand{detector.FingerUpLandmarks()})

		frame := blankFrame()
		defer frame.Close()

		res, err := f.app.ProcessFrame(&frame)
		if err != nil {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
		if res.Label != gesture.FingerUp {
			t.Errorf("label = %s, want %s", res.Label, gesture.FingerUp)
		}
	})
}

func TestApp_Disabled(t *testing.T) {
	f := newFixture(t)
	f.detector.SetHands([]detector.Hand{detector.FingerUpLandmarks()})
	f.app.SetEnabled(false)

	frame := blankFrame()
	defer frame.Close()

	res, err := f.app.ProcessFrame(&frame)
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if res.Label != gesture.Neutral {
		t.Errorf("label = %s, want %s", res.Label, gesture.Neutral)
	}
	if f.detector.Calls() != 0 {
		t.Errorf("detector calls = %d, want 0", f.detector.Calls())
	}
	if frames, _ := f.sink.counts(); frames != 1 {
		t.Errorf("frames published = %d, want 1", frames)
	}
	if f.app.IsEnabled() {
		t.Error("IsEnabled() = true after SetEnabled(false)")
	}
}

func TestApp_StartStop_RecordsSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	f := newFixture(t)
	f.detector.SetHands([]detector.Hand{detector.FingerUpLandmarks()})

	if err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !f.camera.IsOpen() {
		t.Error("camera not opened")
	}
	sessionID := f.app.SessionID()
	if sessionID == "" {
		t.Fatal("expected a session")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, events := f.sink.counts(); events > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	f.app.Stop()

	if f.camera.IsOpen() {
		t.Error("camera still open after Stop")
	}
	if f.app.SessionID() != "" {
		t.Error("session still set after Stop")
	}

	session, err := f.store.Sessions().GetByID(sessionID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if session.CameraID != 3 {
		t.Errorf("camera_id = %d, want 3", session.CameraID)
	}
	if session.EndedAt == nil {
		t.Error("session not ended")
	}

	events, err := f.store.Events().ListBySession(sessionID, 0)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(events) != 1 || events[0].Label != string(gesture.FingerUp) {
		t.Fatalf("events = %+v, want one finger_up", events)
	}
	if events[0].Handedness != "Right" || events[0].Fingers != "01000" {
		t.Errorf("event = %+v, want Right/01000", events[0])
	}

	// Stop is idempotent.
	f.app.Stop()
}

func TestApp_MotionRaisesFrameRate(t *testing.T) {
	f := newFixture(t)

	dark := blankFrame()
	defer dark.Close()
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer bright.Close()

	for _, m := range []*gocv.Mat{&dark, &bright} {
		frame := m.Clone()
		if _, err := f.app.ProcessFrame(&frame); err != nil {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
		frame.Close()
	}

	rates := f.camera.Rates()
	if len(rates) == 0 || rates[len(rates)-1] != capture.ActiveFPS {
		t.Errorf("rates = %v, want last %d", rates, capture.ActiveFPS)
	}
}
