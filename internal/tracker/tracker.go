// Package tracker turns the hands detected in one frame into a gesture label
// and draws the matching overlay.
package tracker

import (
	"fmt"

	"github.com/ayusman/mimic/internal/detector"
	"github.com/ayusman/mimic/internal/gesture"
	"github.com/ayusman/mimic/internal/overlay"
)

// DefaultMaxHands matches the detector default.
const DefaultMaxHands = 2

// HandResult is the classification of a single hand.
type HandResult struct {
	Hand    detector.Hand
	Label   gesture.Label
	Fingers gesture.Fingers
}

// Result is the outcome for one frame.
type Result struct {
	// Label is the frame label: the label of the last classified hand, or
	// Neutral when no hand was seen.
	Label     gesture.Label
	HandsSeen int
	Hands     []HandResult
	// Drawn reports whether an overlay was composited.
	Drawn bool
}

// Primary returns the hand that decided the frame label.
func (r Result) Primary() (HandResult, bool) {
	if len(r.Hands) == 0 {
		return HandResult{}, false
	}
	return r.Hands[len(r.Hands)-1], true
}

// Tracker is used from the frame loop only and holds no per-frame state.
type Tracker struct {
	table     *overlay.Table
	placement overlay.Placement
	maxHands  int
}

// New creates a Tracker. maxHands <= 0 selects DefaultMaxHands.
func New(table *overlay.Table, placement overlay.Placement, maxHands int) *Tracker {
	if maxHands <= 0 {
		maxHands = DefaultMaxHands
	}
	return &Tracker{table: table, placement: placement, maxHands: maxHands}
}

// Table returns the overlay asset table.
func (t *Tracker) Table() *overlay.Table {
	return t.table
}

// Classify classifies up to maxHands hands. Extra hands are ignored.
func (t *Tracker) Classify(hands []detector.Hand) (Result, error) {
	res := Result{Label: gesture.Neutral}

	n := min(len(hands), t.maxHands)
	res.Hands = make([]HandResult, 0, n)

	for i := 0; i < n; i++ {
		label, fingers, err := gesture.Classify(&hands[i])
		if err != nil {
			return Result{}, fmt.Errorf("hand %d: %w", i, err)
		}
		res.Hands = append(res.Hands, HandResult{Hand: hands[i], Label: label, Fingers: fingers})
		res.Label = label
	}
	res.HandsSeen = n

	return res, nil
}

// Step classifies the hands and composites the overlay for the frame label
// onto frame. Nothing is drawn when no hand was seen or classification fails.
func (t *Tracker) Step(hands []detector.Hand, frame overlay.Frame) (Result, error) {
	res, err := t.Classify(hands)
	if err != nil {
		return res, err
	}
	if res.HandsSeen == 0 {
		return res, nil
	}

	res.Drawn = overlay.Render(frame, t.table, res.Label, t.placement)
	return res, nil
}
