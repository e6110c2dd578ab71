// Package asset reads the files the renderer consumes at runtime: decoded images and raw shader
// bytecode.
package asset

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrImageDecode   = errors.New("image decode failed")
)

// Image holds tightly packed 8-bit RGBA pixels.
type Image struct {
	Pixels []byte
	Width  int
	Height int
}

// ReadFile returns the contents of path. A missing file is marked with ErrAssetNotFound.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Mark(errors.Wrapf(err, "asset %s", path), ErrAssetNotFound)
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading asset %s", path)
	}
	return data, nil
}

// LoadImage decodes the image at path into RGBA.
func LoadImage(path string) (Image, error) {
	data, err := ReadFile(path)
	if err != nil {
		return Image{}, err
	}

	img, err := DecodeImage(data)
	if err != nil {
		return Image{}, errors.Wrapf(err, "image %s", path)
	}
	return img, nil
}

func DecodeImage(data []byte) (Image, error) {
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, errors.Mark(errors.Wrap(err, "decoding"), ErrImageDecode)
	}

	bounds := decoded.Bounds()
	if bounds.Empty() {
		return Image{}, errors.Mark(errors.Newf("decoded %s image has no pixels", format), ErrImageDecode)
	}

	rgba, ok := decoded.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, draw.Src)
	}

	return Image{
		Pixels: rgba.Pix,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
