// Package detector provides hand detection interfaces and landmark types for gesture classification.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

var (
	// ErrMalformedLandmarks is returned when a hand does not carry exactly NumLandmarks points.
	ErrMalformedLandmarks = errors.New("malformed hand landmarks")
	// ErrMissingHandedness is returned when a hand is neither Left nor Right.
	ErrMissingHandedness = errors.New("missing handedness")
)

// Point3D is a landmark position. X and Y are normalized to [0,1] relative to
// the frame width and height, origin top-left, Y growing downward. Z is the
// relative depth reported by the model.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Handedness tells which hand the model believes it is looking at.
// The zero value is unknown.
type Handedness int

const (
	HandUnknown Handedness = iota
	HandLeft
	HandRight
)

// ParseHandedness converts the model's "Left"/"Right" label.
func ParseHandedness(s string) (Handedness, error) {
	switch s {
	case "Left", "left":
		return HandLeft, nil
	case "Right", "right":
		return HandRight, nil
	}
	return HandUnknown, fmt.Errorf("%w: %q", ErrMissingHandedness, s)
}

// Valid reports whether h is Left or Right.
func (h Handedness) Valid() bool {
	return h == HandLeft || h == HandRight
}

func (h Handedness) String() string {
	switch h {
	case HandLeft:
		return "Left"
	case HandRight:
		return "Right"
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (h Handedness) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handedness) UnmarshalText(text []byte) error {
	parsed, err := ParseHandedness(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Hand is one detected hand in one video frame: the 21 landmarks in fixed
// anatomical order plus the handedness and detection score.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// NewHand builds a Hand from raw detector output. It rejects point lists that
// are not exactly NumLandmarks long and unknown handedness labels, so a broken
// detector response is never mistaken for a hand or for "no hand".
func NewHand(points []Point3D, handedness string, score float64) (Hand, error) {
	if len(points) != NumLandmarks {
		return Hand{}, fmt.Errorf("%w: got %d points, want %d", ErrMalformedLandmarks, len(points), NumLandmarks)
	}

	h, err := ParseHandedness(handedness)
	if err != nil {
		return Hand{}, err
	}

	hand := Hand{Handedness: h, Score: score}
	copy(hand.Points[:], points)
	return hand, nil
}

// Validate checks the invariants that the fixed-size array cannot express.
func (h *Hand) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrMalformedLandmarks)
	}
	if !h.Handedness.Valid() {
		return fmt.Errorf("%w: %s", ErrMissingHandedness, h.Handedness)
	}
	return nil
}

// Mirrored returns a copy of the hand reflected across the vertical centre
// line of the frame, with the same handedness label.
func (h Hand) Mirrored() Hand {
	m := h
	for i := range m.Points {
		m.Points[i].X = 1 - m.Points[i].X
	}
	return m
}
