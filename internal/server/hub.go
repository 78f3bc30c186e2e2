package server

import (
	"bytes"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// FrameHub fans out JPEG-encoded frames to stream subscribers. Slow
// subscribers skip frames rather than delay the producer.
type FrameHub struct {
	mu     sync.Mutex
	latest []byte
	subs   map[chan []byte]struct{}
}

func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[chan []byte]struct{})}
}

// Publish hands jpeg to every subscriber. jpeg must not be modified afterwards.
func (h *FrameHub) Publish(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = jpeg
	for ch := range h.subs {
		select {
		case ch <- jpeg:
		default:
			// Replace the stale frame.
			select {
			case <-ch:
			default:
			}
			ch <- jpeg
		}
	}
}

// PublishMat encodes frame as JPEG and publishes it. Encoding is skipped
// while nobody is watching.
func (h *FrameHub) PublishMat(frame *gocv.Mat) error {
	if h.Subscribers() == 0 {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	h.Publish(bytes.Clone(buf.GetBytes()))
	return nil
}

// Subscribe returns a channel receiving new frames and a function that
// ends the subscription.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Latest returns the most recent frame, or nil.
func (h *FrameHub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *FrameHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
