// Package app runs the mimic frame loop: capture, detection, classification,
// overlay compositing and fan-out of the results.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mimic/internal/capture"
	"github.com/ayusman/mimic/internal/detector"
	"github.com/ayusman/mimic/internal/gesture"
	"github.com/ayusman/mimic/internal/notify"
	"github.com/ayusman/mimic/internal/store"
	"github.com/ayusman/mimic/internal/tracker"
)

// DefaultWindowTitle is used when Config.WindowTitle is empty.
const DefaultWindowTitle = "Monkey Mimic"

// publishTimeout bounds how long one notification may hold up the loop.
const publishTimeout = 500 * time.Millisecond

// FrameSink receives every composited frame.
type FrameSink interface {
	PublishMat(frame *gocv.Mat) error
}

// EventSink receives label changes.
type EventSink interface {
	Broadcast(v any) error
}

// LabelFunc is called from the frame loop whenever the displayed label changes.
type LabelFunc func(label gesture.Label)

// Config holds the collaborators of an App. Camera, Detector and Tracker are
// required; everything else is optional.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Tracker  *tracker.Tracker

	Store     *store.Store
	Publisher notify.Publisher
	Frames    FrameSink
	Events    EventSink

	CameraID        int
	Mirror          bool
	Annotate        bool
	MotionThreshold float64
	WindowTitle     string

	Logger *zap.Logger
}

// App is the main application that orchestrates the frame loop.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	pacer    *capture.Pacer
	detector detector.Detector
	tracker  *tracker.Tracker
	logger   *zap.Logger

	mu        sync.RWMutex
	enabled   bool
	label     gesture.Label
	shown     gesture.Label
	session   *store.Session
	callbacks []LabelFunc

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an App. Detection starts enabled.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Tracker == nil {
		return nil, errors.New("app: tracker is required")
	}
	if config.Publisher == nil {
		config.Publisher = notify.Nop{}
	}
	if config.WindowTitle == "" {
		config.WindowTitle = DefaultWindowTitle
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &App{
		config:   config,
		camera:   config.Camera,
		motion:   capture.NewMotionDetector(config.MotionThreshold),
		pacer:    capture.NewPacer(),
		detector: config.Detector,
		tracker:  config.Tracker,
		logger:   logger,
		enabled:  true,
		label:    gesture.Neutral,
	}, nil
}

// SetEnabled enables or disables gesture detection. Frames keep flowing to
// the sinks while disabled.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	if !enabled {
		a.label = gesture.Neutral
		a.shown = ""
	}
	a.mu.Unlock()

	a.logger.Info("detection toggled", zap.Bool("enabled", enabled))
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Label returns the label of the most recent frame.
func (a *App) Label() gesture.Label {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.label
}

// SessionID returns the ID of the running session, or "" when none is
// recorded.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// OnLabel registers fn for label changes.
func (a *App) OnLabel(fn LabelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Start runs the frame loop in the background until Stop.
func (a *App) Start() error {
	a.mu.Lock()
	running := a.stopCh != nil
	a.mu.Unlock()
	if running {
		return nil
	}

	if err := a.open(); err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	a.mu.Lock()
	a.stopCh, a.doneCh = stop, done
	a.mu.Unlock()

	go a.loop(stop, done)

	a.logger.Info("frame loop started")
	return nil
}

// Stop halts a loop started with Start and releases the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stop, done := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	a.shutdown()
	a.logger.Info("frame loop stopped")
}

// Run shows the composited frames in a window and blocks until 'q' or Esc is
// pressed or ctx is cancelled. The window must be driven from the main
// goroutine.
func (a *App) Run(ctx context.Context) error {
	if err := a.open(); err != nil {
		return err
	}
	defer a.shutdown()

	window := gocv.NewWindow(a.config.WindowTitle)
	defer window.Close()

	for ctx.Err() == nil {
		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrCameraNotOpen) || errors.Is(err, capture.ErrNoMoreFrames) {
				return err
			}
			a.logger.Warn("failed to read frame", zap.Error(err))
		} else {
			if _, err := a.ProcessFrame(frame); err != nil {
				a.logger.Warn("frame skipped", zap.Error(err))
			} else {
				window.IMShow(*frame)
			}
			frame.Close()
		}

		if isQuitKey(window.WaitKey(a.waitMillis())) {
			a.logger.Info("quit requested")
			return nil
		}
	}
	return nil
}

// Close releases the detector and the motion detector.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

func isQuitKey(key int) bool {
	return key == 'q' || key == 'Q' || key == 27
}

func (a *App) waitMillis() int {
	return max(1, int(a.pacer.Interval()/time.Millisecond))
}

func (a *App) open() error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.pacer.FPS())
	a.motion.Reset()
	a.startSession()
	return nil
}

func (a *App) shutdown() {
	if err := a.camera.Close(); err != nil {
		a.logger.Warn("failed to close camera", zap.Error(err))
	}
	a.endSession()
}

func (a *App) startSession() {
	if a.config.Store == nil {
		return
	}

	s, err := a.config.Store.Sessions().Start(a.config.CameraID)
	if err != nil {
		a.logger.Warn("failed to start session", zap.Error(err))
		return
	}

	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	a.logger.Info("session started", zap.String("session", s.ID), zap.Int("camera", a.config.CameraID))
}

func (a *App) endSession() {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.shown = ""
	a.mu.Unlock()

	if s == nil {
		return
	}
	if err := a.config.Store.Sessions().End(s.ID); err != nil {
		a.logger.Warn("failed to end session", zap.String("session", s.ID), zap.Error(err))
	}
}
