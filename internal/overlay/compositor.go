package overlay

import (
	"image"

	"github.com/ayusman/mimic/internal/gesture"
)

// Default placement: 20 px from the right edge for a 300 px asset, 10 px from the top.
const (
	DefaultOffsetRight = 320
	DefaultOffsetTop   = 10
)

// Frame is an 8-bit, 3-channel BGR pixel buffer, the layout OpenCV uses for
// camera frames. Pixel (x, y) starts at Pix[y*Stride + x*3].
type Frame struct {
	Pix    []uint8
	Width  int
	Height int
	Stride int
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) Frame {
	return Frame{
		Pix:    make([]uint8, width*height*3),
		Width:  width,
		Height: height,
		Stride: width * 3,
	}
}

// BGR returns the colour of pixel (x, y).
func (f Frame) BGR(x, y int) (b, g, r uint8) {
	i := y*f.Stride + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// SetBGR sets pixel (x, y).
func (f Frame) SetBGR(x, y int, b, g, r uint8) {
	i := y*f.Stride + x*3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
}

// Placement positions the overlay relative to the top-right corner.
type Placement struct {
	// Right is the distance from the frame's right edge to the asset's left edge.
	Right int
	// Top is the distance from the frame's top edge to the asset's top edge.
	Top int
}

// DefaultPlacement returns the top-right corner placement.
func DefaultPlacement() Placement {
	return Placement{Right: DefaultOffsetRight, Top: DefaultOffsetTop}
}

// Origin returns the asset's top-left corner for a frame of the given width.
func (p Placement) Origin(frameWidth int) image.Point {
	return image.Point{X: frameWidth - p.Right, Y: p.Top}
}

// Composite alpha-blends asset onto dst with its top-left corner at at.
// Asset pixels that land outside dst are skipped. Each colour channel becomes
// src*a/255 + dst*(255-a)/255, rounded to nearest; the frame stays opaque.
func Composite(dst Frame, asset *Asset, at image.Point) {
	if asset == nil {
		return
	}
	src := asset.img
	size := src.Rect.Size()

	// Clip the footprint to the frame.
	x0, y0 := max(0, -at.X), max(0, -at.Y)
	x1, y1 := min(size.X, dst.Width-at.X), min(size.Y, dst.Height-at.Y)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	for y := y0; y < y1; y++ {
		s := src.PixOffset(src.Rect.Min.X+x0, src.Rect.Min.Y+y)
		d := (at.Y+y)*dst.Stride + (at.X+x0)*3
		for x := x0; x < x1; x++ {
			r, g, b, a := src.Pix[s], src.Pix[s+1], src.Pix[s+2], src.Pix[s+3]
			switch a {
			case 0:
			case 0xff:
				dst.Pix[d], dst.Pix[d+1], dst.Pix[d+2] = b, g, r
			default:
				dst.Pix[d] = blend(b, dst.Pix[d], a)
				dst.Pix[d+1] = blend(g, dst.Pix[d+1], a)
				dst.Pix[d+2] = blend(r, dst.Pix[d+2], a)
			}
			s += 4
			d += 3
		}
	}
}

func blend(src, dst, a uint8) uint8 {
	return uint8((uint32(src)*uint32(a) + uint32(dst)*uint32(0xff-a) + 0x7f) / 0xff)
}

// Render draws the overlay for label. It returns false and leaves dst
// untouched when the table has no asset for the label.
func Render(dst Frame, table *Table, label gesture.Label, placement Placement) bool {
	asset, ok := table.Lookup(label)
	if !ok {
		return false
	}
	Composite(dst, asset, placement.Origin(dst.Width))
	return true
}
