package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/mimic/internal/detector"
)

// Label is the outcome of classifying one hand.
type Label string

const (
	Neutral     Label = "neutral"
	FingerMouth Label = "finger_mouth"
	FingerUp    Label = "finger_up"
	HandChest   Label = "hand_chest"
)

// Labels returns every label in display order.
func Labels() []Label {
	return []Label{Neutral, FingerMouth, FingerUp, HandChest}
}

// ParseLabel converts an identifier such as "finger_up" into a Label.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown gesture label %q", s)
}

// Classification thresholds, in normalized frame units.
const (
	// FingerUpRise is how far above the wrist the index tip must be.
	FingerUpRise = 0.2
	// MouthMaxWristY bounds the wrist to the upper part of the frame.
	MouthMaxWristY = 0.6
	// MouthMaxReach caps the vertical index tip to wrist distance.
	MouthMaxReach = 0.4
	// ChestMinY puts the palm centre in the lower part of the frame.
	ChestMinY = 0.6
	// ChestCenterX and ChestMaxOffsetX keep the palm roughly centred.
	ChestCenterX    = 0.5
	ChestMaxOffsetX = 0.3
)

// Rule pairs a predicate with the label it produces.
type Rule struct {
	Label Label
	Match func(hand *detector.Hand, fingers Fingers) bool
}

// Rules is evaluated top to bottom and the first match wins. More specific
// poses come first: a raised index finger can satisfy the FingerMouth bounds
// too, so FingerUp is checked before it.
var Rules = []Rule{
	{Label: FingerUp, Match: isFingerUp},
	{Label: FingerMouth, Match: isFingerMouth},
	{Label: HandChest, Match: isHandChest},
}

func isFingerUp(hand *detector.Hand, f Fingers) bool {
	p := &hand.Points
	return f.Only(Index) && p[detector.IndexTip].Y < p[detector.Wrist].Y-FingerUpRise
}

func isFingerMouth(hand *detector.Hand, f Fingers) bool {
	p := &hand.Points
	wrist, tip := p[detector.Wrist], p[detector.IndexTip]
	return f[Index] &&
		wrist.Y < MouthMaxWristY &&
		math.Abs(tip.Y-wrist.Y) < MouthMaxReach &&
		f.Count() <= 2
}

func isHandChest(hand *detector.Hand, f Fingers) bool {
	center := PalmCenter(hand)
	return center.Y > ChestMinY &&
		math.Abs(center.X-ChestCenterX) < ChestMaxOffsetX &&
		f.Count() >= 3
}

// palmLandmarks are averaged to locate the hand for position rules.
var palmLandmarks = [...]int{
	detector.Wrist,
	detector.IndexMCP,
	detector.MiddleMCP,
	detector.RingMCP,
	detector.PinkyMCP,
}

// PalmCenter returns the mean of the wrist and the four finger MCP joints.
func PalmCenter(hand *detector.Hand) detector.Point3D {
	var c detector.Point3D
	for _, i := range palmLandmarks {
		c.X += hand.Points[i].X
		c.Y += hand.Points[i].Y
		c.Z += hand.Points[i].Z
	}
	n := float64(len(palmLandmarks))
	return detector.Point3D{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// Classify extracts the finger state and runs the rules. It fails only on
// structurally invalid input; every valid hand gets exactly one label.
func Classify(hand *detector.Hand) (Label, Fingers, error) {
	fingers, err := ExtractFingers(hand)
	if err != nil {
		return "", fingers, err
	}
	return ClassifyFingers(hand, fingers), fingers, nil
}

// ClassifyFingers runs the rules against an already extracted finger state.
func ClassifyFingers(hand *detector.Hand, fingers Fingers) Label {
	for _, rule := range Rules {
		if rule.Match(hand, fingers) {
			return rule.Label
		}
	}
	return Neutral
}
