// Package gesture classifies single-frame hand poses into gesture labels
// using fixed geometric rules.
package gesture

import (
	"strings"

	"github.com/ayusman/mimic/internal/detector"
)

// Finger positions within Fingers.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// Fingers holds one up/down flag per finger, thumb first. true means extended.
type Fingers [NumFingers]bool

// fingerJoints pairs each non-thumb finger with its tip and PIP landmarks.
var fingerJoints = [NumFingers][2]int{
	Index:  {detector.IndexTip, detector.IndexPIP},
	Middle: {detector.MiddleTip, detector.MiddlePIP},
	Ring:   {detector.RingTip, detector.RingPIP},
	Pinky:  {detector.PinkyTip, detector.PinkyPIP},
}

// Count returns the number of extended fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// Only reports whether finger is the single extended finger.
func (f Fingers) Only(finger int) bool {
	return f[finger] && f.Count() == 1
}

// String renders the state as five digits, thumb first, e.g. "01000".
func (f Fingers) String() string {
	var b strings.Builder
	for _, up := range f {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ExtractFingers derives the up/down state of each finger.
//
// Index through pinky are up when the tip sits strictly above the PIP joint
// (smaller Y). The thumb abducts sideways, so it is tested on X instead: it is
// up when its tip reaches further from the wrist than its MCP joint, measured
// in the direction away from the palm. That direction is -X for a right hand
// and +X for a left hand.
func ExtractFingers(hand *detector.Hand) (Fingers, error) {
	var f Fingers
	if err := hand.Validate(); err != nil {
		return f, err
	}

	p := &hand.Points

	f[Thumb] = thumbExtended(p, hand.Handedness)
	for finger := Index; finger < NumFingers; finger++ {
		tip, pip := fingerJoints[finger][0], fingerJoints[finger][1]
		f[finger] = p[tip].Y < p[pip].Y
	}

	return f, nil
}

func thumbExtended(p *[detector.NumLandmarks]detector.Point3D, h detector.Handedness) bool {
	outward := 1.0
	if h == detector.HandRight {
		outward = -1.0
	}

	wrist := p[detector.Wrist].X
	tipReach := outward * (p[detector.ThumbTip].X - wrist)
	mcpReach := outward * (p[detector.ThumbMCP].X - wrist)

	return tipReach > mcpReach
}
