package tile

import (
	"fmt"
	"image"
	"os"

	_ "image/jpeg" // register decoders for the formats SEM software emits
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoadImage decodes the tile image at path. PNG, JPEG, TIFF, and BMP are
// supported.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ReadDimensions reads the pixel dimensions of the image at path from its
// header without decoding pixel data.
func ReadDimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
