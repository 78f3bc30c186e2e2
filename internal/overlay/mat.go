package overlay

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/mimic/internal/gesture"
)

// ErrUnsupportedMat is returned for Mats that are not continuous 8-bit BGR.
var ErrUnsupportedMat = errors.New("frame must be a continuous 8-bit 3-channel Mat")

// FrameFromMat returns a Frame sharing mat's pixel memory. Writes to the
// Frame are visible in mat; the Frame must not outlive it.
func FrameFromMat(mat *gocv.Mat) (Frame, error) {
	if mat == nil || mat.Empty() {
		return Frame{}, ErrUnsupportedMat
	}
	if mat.Type() != gocv.MatTypeCV8UC3 || !mat.IsContinuous() {
		return Frame{}, fmt.Errorf("%w: got type %v", ErrUnsupportedMat, mat.Type())
	}

	pix, err := mat.DataPtrUint8()
	if err != nil {
		return Frame{}, fmt.Errorf("access frame data: %w", err)
	}

	return Frame{
		Pix:    pix,
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Stride: mat.Cols() * 3,
	}, nil
}

// RenderMat draws the overlay for label onto mat in place.
func RenderMat(mat *gocv.Mat, table *Table, label gesture.Label, placement Placement) (bool, error) {
	frame, err := FrameFromMat(mat)
	if err != nil {
		return false, err
	}
	return Render(frame, table, label, placement), nil
}
