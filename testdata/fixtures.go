// Package testdata embeds camera frames and overlay images used by tests.
//
// overlays/ holds finger_up.png (opaque red with a transparent border),
// hand_chest.png (blue at alpha 128) and a corrupt neutral.png; there is no
// finger_mouth image.
package testdata

import (
	"embed"
	"fmt"
	"io/fs"

	"gocv.io/x/gocv"
)

//go:embed frames/*
var framesFS embed.FS

//go:embed overlays/*
var overlaysFS embed.FS

// Overlays returns the overlay image directory.
func Overlays() fs.FS {
	sub, err := fs.Sub(overlaysFS, "overlays")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadFrame loads a test frame by name as a BGR Mat.
func LoadFrame(name string) (*gocv.Mat, error) {
	data, err := framesFS.ReadFile("frames/" + name)
	if err != nil {
		return nil, fmt.Errorf("load frame %s: %w", name, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", name, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode frame %s: empty image", name)
	}

	return &mat, nil
}

// LoadSequence loads the named frames in order.
func LoadSequence(names ...string) ([]*gocv.Mat, error) {
	var frames []*gocv.Mat
	for _, name := range names {
		frame, err := LoadFrame(name)
		if err != nil {
			for _, f := range frames {
				f.Close()
			}
			return nil, err
		}
		frames = append(frames, frame)
	}

	return frames, nil
}
