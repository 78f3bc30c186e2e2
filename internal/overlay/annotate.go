package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mimic/internal/detector"
	"github.com/ayusman/mimic/internal/gesture"
)

var (
	labelColor    = color.RGBA{G: 255, A: 255}
	skeletonColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor    = color.RGBA{R: 255, A: 255}
)

// HandConnections lists the landmark pairs joined when drawing a hand.
var HandConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// pixel maps a normalized landmark to frame coordinates.
func pixel(p detector.Point3D, width, height int) image.Point {
	return image.Point{X: int(p.X * float64(width)), Y: int(p.Y * float64(height))}
}

// DrawHand draws the landmark skeleton of hand onto mat.
func DrawHand(mat *gocv.Mat, hand *detector.Hand) {
	if mat == nil || mat.Empty() || hand == nil {
		return
	}
	w, h := mat.Cols(), mat.Rows()

	for _, c := range HandConnections {
		gocv.Line(mat, pixel(hand.Points[c[0]], w, h), pixel(hand.Points[c[1]], w, h), skeletonColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(mat, pixel(p, w, h), 4, jointColor, -1)
	}
}

// DrawLabel writes the current gesture in the top-left corner of mat.
func DrawLabel(mat *gocv.Mat, label gesture.Label) {
	if mat == nil || mat.Empty() {
		return
	}
	gocv.PutText(mat, "Gesture: "+string(label), image.Point{X: 10, Y: 30},
		gocv.FontHersheySimplex, 1, labelColor, 2)
}
