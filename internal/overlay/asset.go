// Package overlay loads the per-gesture overlay images and alpha-composites
// them onto video frames.
package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/ayusman/mimic/internal/gesture"
)

// Default overlay footprint in pixels.
const (
	DefaultWidth  = 300
	DefaultHeight = 300
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// DefaultFiles maps every label to its file in the asset directory.
func DefaultFiles() map[gesture.Label]string {
	files := make(map[gesture.Label]string)
	for _, l := range gesture.Labels() {
		files[l] = string(l) + ".png"
	}
	return files
}

// Asset is a decoded overlay image with straight (non-premultiplied) alpha,
// already scaled to its render size. It is never modified after loading.
type Asset struct {
	img *image.NRGBA
}

// NewAsset wraps an image, converting it to NRGBA if needed.
func NewAsset(img image.Image) *Asset {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return &Asset{img: nrgba}
	}
	return &Asset{img: imaging.Clone(img)}
}

// DecodeAsset decodes an image keeping its alpha channel and resizes it to
// size. Images without alpha decode as fully opaque.
func DecodeAsset(r io.Reader, size image.Point) (*Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}

	if size.X > 0 && size.Y > 0 {
		return &Asset{img: imaging.Resize(img, size.X, size.Y, imaging.Lanczos)}, nil
	}
	return NewAsset(img), nil
}

// decodeImage tries the registered decoders first and falls back to libwebp
// for WebP variants the pure Go decoder rejects.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}

	return nil, fmt.Errorf("decode image: %w", err)
}

// Image returns the asset pixels.
func (a *Asset) Image() *image.NRGBA {
	return a.img
}

// Size returns the asset footprint in pixels.
func (a *Asset) Size() image.Point {
	return a.img.Rect.Size()
}

// Table maps gesture labels to overlay assets. A label whose image failed to
// load has no entry. The table is built once and only read afterwards, so it
// can be shared by every frame without locking.
type Table struct {
	assets map[gesture.Label]*Asset
}

// NewTable builds a table from already decoded assets.
func NewTable(assets map[gesture.Label]*Asset) *Table {
	t := &Table{assets: make(map[gesture.Label]*Asset, len(assets))}
	for l, a := range assets {
		if a != nil {
			t.assets[l] = a
		}
	}
	return t
}

// LoadTable decodes one asset per entry of files from fsys. A file that is
// missing or cannot be decoded is logged and left out; the other labels still
// load.
func LoadTable(fsys fs.FS, files map[gesture.Label]string, size image.Point, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Table{assets: make(map[gesture.Label]*Asset, len(files))}

	for label, name := range files {
		asset, err := loadAsset(fsys, name, size)
		if err != nil {
			logger.Warn("overlay asset unavailable",
				zap.String("gesture", string(label)),
				zap.String("file", name),
				zap.Error(err))
			continue
		}
		t.assets[label] = asset
		logger.Info("overlay asset loaded",
			zap.String("gesture", string(label)),
			zap.String("file", name),
			zap.Int("width", asset.Size().X),
			zap.Int("height", asset.Size().Y))
	}

	return t
}

func loadAsset(fsys fs.FS, name string, size image.Point) (*Asset, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeAsset(f, size)
}

// Lookup returns the asset for label, or false if it is absent.
func (t *Table) Lookup(label gesture.Label) (*Asset, bool) {
	if t == nil {
		return nil, false
	}
	a, ok := t.assets[label]
	return a, ok
}

// Available lists the labels that have an asset, in display order.
func (t *Table) Available() []gesture.Label {
	var labels []gesture.Label
	for _, l := range gesture.Labels() {
		if _, ok := t.Lookup(l); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

// Len returns the number of loaded assets.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.assets)
}
