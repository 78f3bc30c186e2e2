package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mimic/internal/capture"
	"github.com/ayusman/mimic/internal/gesture"
	"github.com/ayusman/mimic/internal/notify"
	"github.com/ayusman/mimic/internal/overlay"
	"github.com/ayusman/mimic/internal/store"
	"github.com/ayusman/mimic/internal/tracker"
)

// loop reads frames at the pace chosen by the motion detector until stop is
// closed.
func (a *App) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		a.tick()
		timer.Reset(a.pacer.Interval())
	}
}

func (a *App) tick() {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Warn("failed to read frame", zap.Error(err))
		return
	}
	defer frame.Close()

	if _, err := a.ProcessFrame(frame); err != nil {
		a.logger.Warn("frame skipped", zap.Error(err))
	}
}

// ProcessFrame runs one BGR frame through the pipeline in place:
//
//  1. mirror it when configured
//  2. feed the motion detector, which picks the capture rate
//  3. detect hands, classify them and composite the overlay
//  4. draw the landmarks and label
//  5. hand the frame and any label change to the sinks
//
// A detector or classification error skips the frame: nothing is drawn or
// published for it.
func (a *App) ProcessFrame(frame *gocv.Mat) (tracker.Result, error) {
	if a.config.Mirror {
		capture.Mirror(frame)
	}

	motion, _ := a.motion.Detect(frame)
	if fps, changed := a.pacer.Observe(motion); changed {
		a.camera.SetFPS(fps)
		a.logger.Debug("capture rate changed", zap.Int("fps", fps))
	}

	if !a.IsEnabled() {
		a.publishFrame(frame)
		return tracker.Result{Label: gesture.Neutral}, nil
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		return tracker.Result{}, fmt.Errorf("detect hands: %w", err)
	}

	view, err := overlay.FrameFromMat(frame)
	if err != nil {
		return tracker.Result{}, err
	}

	res, err := a.tracker.Step(hands, view)
	if err != nil {
		return tracker.Result{}, fmt.Errorf("classify: %w", err)
	}

	if a.config.Annotate {
		for i := range res.Hands {
			overlay.DrawHand(frame, &res.Hands[i].Hand)
		}
		if res.HandsSeen > 0 {
			overlay.DrawLabel(frame, res.Label)
		}
	}

	a.publishFrame(frame)
	a.observe(res)
	return res, nil
}

func (a *App) publishFrame(frame *gocv.Mat) {
	if a.config.Frames == nil {
		return
	}
	if err := a.config.Frames.PublishMat(frame); err != nil {
		a.logger.Warn("failed to publish frame", zap.Error(err))
	}
}

// observe updates the current label and reports it when the displayed
// gesture changes. Frames without hands display nothing, so the next hand
// always counts as a change.
func (a *App) observe(res tracker.Result) {
	a.mu.Lock()
	a.label = res.Label
	if res.HandsSeen == 0 {
		a.shown = ""
		a.mu.Unlock()
		return
	}
	if res.Label == a.shown {
		a.mu.Unlock()
		return
	}
	a.shown = res.Label

	var sessionID string
	if a.session != nil {
		sessionID = a.session.ID
	}
	callbacks := append([]LabelFunc(nil), a.callbacks...)
	a.mu.Unlock()

	event := notify.Event{
		SessionID: sessionID,
		Label:     string(res.Label),
		Timestamp: time.Now().UTC(),
	}
	if primary, ok := res.Primary(); ok {
		event.Handedness = primary.Hand.Handedness.String()
		event.Fingers = primary.Fingers.String()
	}

	a.logger.Info("gesture changed",
		zap.String("label", event.Label),
		zap.String("handedness", event.Handedness),
		zap.String("fingers", event.Fingers),
		zap.Bool("overlay", res.Drawn),
	)

	a.emit(event)
	for _, fn := range callbacks {
		fn(res.Label)
	}
}

func (a *App) emit(event notify.Event) {
	if a.config.Store != nil && event.SessionID != "" {
		err := a.config.Store.Events().Record(&store.Event{
			SessionID:  event.SessionID,
			Label:      event.Label,
			Handedness: event.Handedness,
			Fingers:    event.Fingers,
			CreatedAt:  event.Timestamp,
		})
		if err != nil {
			a.logger.Warn("failed to record gesture event", zap.Error(err))
		}
	}

	if a.config.Events != nil {
		if err := a.config.Events.Broadcast(event); err != nil {
			a.logger.Warn("failed to broadcast gesture event", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := a.config.Publisher.Publish(ctx, event); err != nil {
		a.logger.Debug("gesture event not published", zap.Error(err))
	}
}
